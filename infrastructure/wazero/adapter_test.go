package wazero

import (
	"context"
	"testing"

	"github.com/jdavidagudelo/handoff/hostfuncs"
	"github.com/jdavidagudelo/handoff/internal/abi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// fakeModule stands in for the calling guest; only Memory is used.
type fakeModule struct {
	api.Module
	mem api.Memory
}

func (m fakeModule) Memory() api.Memory { return m.mem }

type fakeMemory struct {
	api.Memory
	data []byte
}

func (m fakeMemory) Read(offset, byteCount uint32) ([]byte, bool) {
	end := uint64(offset) + uint64(byteCount)
	if end > uint64(len(m.data)) {
		return nil, false
	}
	return m.data[offset:end], true
}

func recordingRegistry(t *testing.T, got *[]byte) *hostfuncs.HandlerRegistry {
	t.Helper()
	reg, err := hostfuncs.NewRegistry(
		hostfuncs.WithByteHandler("record", func(_ context.Context, payload []byte) error {
			*got = payload
			return nil
		}),
	)
	require.NoError(t, err)
	return reg
}

func TestDefaultAdapterConfig(t *testing.T) {
	cfg := defaultAdapterConfig()

	assert.Equal(t, "handoff_host", cfg.ModuleName)
	assert.Equal(t, uint32(DefaultMaxRequestSize), cfg.MaxRequestSize)
	assert.NotNil(t, cfg.Logger)
}

func TestAdapterOptions(t *testing.T) {
	cfg := defaultAdapterConfig()
	WithModuleName("custom_module")(&cfg)
	WithMaxRequestSize(2048)(&cfg)
	WithMaxRequestSize(0)(&cfg)
	WithAdapterLogger(nil)(&cfg)

	assert.Equal(t, "custom_module", cfg.ModuleName)
	assert.Equal(t, uint32(2048), cfg.MaxRequestSize)
	assert.NotNil(t, cfg.Logger)
}

func TestUnpackPtrLen(t *testing.T) {
	tests := []struct {
		ptr    uint32
		length uint32
	}{
		{0, 0},
		{1, 1},
		{0xFFFFFFFF, 0xFFFFFFFF},
		{0x12345678, 0x9ABCDEF0},
		{100, 50},
	}

	for _, tt := range tests {
		packed := uint64(tt.ptr)<<32 | uint64(tt.length)
		gotPtr, gotLen := unpackPtrLen(packed)
		assert.Equal(t, tt.ptr, gotPtr)
		assert.Equal(t, tt.length, gotLen)
	}
}

func TestUnpackPtrLen_MatchesABI(t *testing.T) {
	ptr, length := unpackPtrLen(abi.PackPtrLen(0x400, 12))
	assert.Equal(t, uint32(0x400), ptr)
	assert.Equal(t, uint32(12), length)
}

func TestHandleRegistryCall(t *testing.T) {
	ctx := context.Background()
	data := make([]byte, 64)
	copy(data[16:], "hello")
	mod := fakeModule{mem: fakeMemory{data: data}}

	t.Run("delivers a copy of the payload", func(t *testing.T) {
		var got []byte
		reg := recordingRegistry(t, &got)
		cfg := defaultAdapterConfig()

		handleRegistryCall(ctx, mod, []uint64{abi.PackPtrLen(16, 5)}, reg, "record", &cfg)

		assert.Equal(t, []byte("hello"), got)
		data[16] = 'j'
		assert.Equal(t, []byte("hello"), got, "payload must not alias guest memory")
		data[16] = 'h'
	})

	t.Run("drops oversized payloads", func(t *testing.T) {
		var got []byte
		reg := recordingRegistry(t, &got)
		core, logs := observer.New(zap.ErrorLevel)
		cfg := defaultAdapterConfig()
		cfg.MaxRequestSize = 4
		cfg.Logger = zap.New(core)

		handleRegistryCall(ctx, mod, []uint64{abi.PackPtrLen(16, 5)}, reg, "record", &cfg)

		assert.Nil(t, got)
		assert.Equal(t, 1, logs.FilterMessage("wazero: payload exceeds maximum size").Len())
	})

	t.Run("drops unreadable payloads", func(t *testing.T) {
		var got []byte
		reg := recordingRegistry(t, &got)
		core, logs := observer.New(zap.ErrorLevel)
		cfg := defaultAdapterConfig()
		cfg.Logger = zap.New(core)

		handleRegistryCall(ctx, mod, []uint64{abi.PackPtrLen(60, 10)}, reg, "record", &cfg)

		assert.Nil(t, got)
		assert.Equal(t, 1, logs.FilterMessage("wazero: failed to read payload from guest memory").Len())
	})

	t.Run("logs handler failures", func(t *testing.T) {
		reg, err := hostfuncs.NewRegistry(
			hostfuncs.WithByteHandler("fail", func(context.Context, []byte) error {
				return assert.AnError
			}),
		)
		require.NoError(t, err)
		core, logs := observer.New(zap.ErrorLevel)
		cfg := defaultAdapterConfig()
		cfg.Logger = zap.New(core)

		handleRegistryCall(ctx, mod, []uint64{abi.PackPtrLen(16, 5)}, reg, "fail", &cfg)

		require.Equal(t, 1, logs.FilterMessage("wazero: host function failed").Len())
	})
}

func TestRegisterWithRuntime(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx) //nolint:errcheck

	reg, err := hostfuncs.NewBoundaryRegistry(zap.NewNop(), hostfuncs.NewViolationRecorder())
	require.NoError(t, err)
	require.NoError(t, RegisterWithRuntime(ctx, rt, reg))

	mod := rt.Module("handoff_host")
	require.NotNil(t, mod)
	defs := mod.ExportedFunctionDefinitions()
	for _, name := range []string{"log_message", "contract_violation"} {
		def, ok := defs[name]
		require.True(t, ok, name)
		assert.Equal(t, []api.ValueType{api.ValueTypeI64}, def.ParamTypes())
		assert.Empty(t, def.ResultTypes())
	}
}
