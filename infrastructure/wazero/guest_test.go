package wazero_test

import (
	"context"
	"testing"

	"github.com/jdavidagudelo/handoff/domain/entities"
	"github.com/jdavidagudelo/handoff/domain/errors"
	"github.com/jdavidagudelo/handoff/guest"
	"github.com/jdavidagudelo/handoff/infrastructure/wazero"
	"github.com/jdavidagudelo/handoff/internal/abi"
	"github.com/jdavidagudelo/handoff/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func load(t *testing.T, opts ...wazero.LoadOption) *wazero.Guest {
	t.Helper()
	ctx := context.Background()
	g, err := wazero.Load(ctx, testutil.GuestWasm(t), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close(ctx) })
	return g
}

func call(t *testing.T, g *wazero.Guest, export string, params ...uint64) []uint64 {
	t.Helper()
	res, err := g.Call(context.Background(), export, params...)
	require.NoError(t, err)
	return res
}

func TestGuest_ExportsMatchSignatures(t *testing.T) {
	g := load(t)
	exports := g.Exports()

	for name, want := range guest.Signatures() {
		got, ok := exports[name]
		require.True(t, ok, "missing export %s", name)
		assert.True(t, want.Equal(got), "%s: want %s, got %s", name, want, got)
	}
}

func TestGuest_Add(t *testing.T) {
	g := load(t)
	res := call(t, g, entities.ExportAdd, 2, 3)
	assert.Equal(t, uint64(5), res[0])

	res = call(t, g, entities.ExportAdd, 0xFFFFFFFF, 1)
	assert.Equal(t, uint64(0), res[0])
}

func TestGuest_SongRoundTrip(t *testing.T) {
	g := load(t)
	ptr := uint32(call(t, g, entities.ExportGenerateSong, 2)[0])
	require.NotZero(t, ptr)

	text, err := abi.ReadCString(g.Memory(), ptr, abi.DefaultMaxTextBytes)
	require.NoError(t, err)
	assert.Equal(t, "💣 na na Batman! 💣", string(text))

	count, _ := abi.UnpackStats(call(t, g, entities.ExportLiveAllocations)[0])
	assert.Equal(t, 1, count)

	call(t, g, entities.ExportReleaseSong, uint64(ptr))
	count, _ = abi.UnpackStats(call(t, g, entities.ExportLiveAllocations)[0])
	assert.Equal(t, 0, count)
}

func TestGuest_ViolationTerminates(t *testing.T) {
	g := load(t)
	ctx := context.Background()

	_, err := g.Call(ctx, entities.ExportDatabaseQuery, 0, 0)
	cv := testutil.RequireViolation(t, err, errors.ViolationNullHandle)
	assert.Equal(t, entities.ExportDatabaseQuery, cv.Operation)

	_, err = g.Call(ctx, entities.ExportAdd, 1, 2)
	testutil.RequireTerminated(t, err)
}

func TestGuest_DoubleReleaseIsViolation(t *testing.T) {
	g := load(t)
	ptr := call(t, g, entities.ExportGenerateSong, 1)[0]
	call(t, g, entities.ExportReleaseSong, ptr)

	_, err := g.Call(context.Background(), entities.ExportReleaseSong, ptr)
	testutil.RequireViolation(t, err, errors.ViolationForeignPointer)
}

func TestGuest_ForwardsLogs(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	g := load(t, wazero.WithLogger(zap.New(core)))

	handle := call(t, g, entities.ExportDatabaseCreate)[0]
	call(t, g, entities.ExportDatabaseDestroy, handle)

	assert.Equal(t, 1, logs.FilterMessage("database created").Len())
	assert.Equal(t, 1, logs.FilterMessage("database destroyed").Len())
}

func TestGuest_UnknownExport(t *testing.T) {
	g := load(t)
	_, err := g.Call(context.Background(), "nope")

	var ge *errors.GuestError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, "nope", ge.Export)

	// A missing export does not terminate the guest.
	call(t, g, entities.ExportAdd, 1, 1)
}

func TestGuest_ViewPastMemoryIsViolation(t *testing.T) {
	tests := []struct {
		name   string
		export string
		params func(size uint32) []uint64
	}{
		{"sum_of_even near the top of the address space", entities.ExportSumOfEven, func(uint32) []uint64 { return []uint64{0xFFFFFF00, 1000} }},
		{"sum_of_even straddling the end", entities.ExportSumOfEven, func(size uint32) []uint64 { return []uint64{uint64(size - 8), 4} }},
		{"char_count beyond memory", entities.ExportCharCount, func(size uint32) []uint64 { return []uint64{uint64(size) + 16} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := load(t)
			_, err := g.Call(context.Background(), tt.export, tt.params(g.Memory().Size())...)

			cv := testutil.RequireViolation(t, err, errors.ViolationOutOfBounds)
			assert.Equal(t, tt.export, cv.Operation)
		})
	}
}

func TestGuest_TamperedDescriptorIsViolation(t *testing.T) {
	g := load(t)
	ctx := context.Background()

	out := uint32(call(t, g, entities.ExportAllocate, entities.SliceSize)[0])
	call(t, g, entities.ExportBuildOwnedBuffer, uint64(out))

	raw, ok := g.Memory().Read(out, entities.SliceSize)
	require.True(t, ok)
	desc, _ := entities.DecodeSlice(raw)
	desc.Len = 0
	require.True(t, g.Memory().Write(out, desc.Encode()))

	_, err := g.Call(ctx, entities.ExportReleaseOwnedBuffer, uint64(out))
	testutil.RequireViolation(t, err, errors.ViolationDescriptorMismatch)
}
