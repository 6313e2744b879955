package wazero

import (
	"context"

	"github.com/jdavidagudelo/handoff/hostfuncs"
	"github.com/jdavidagudelo/handoff/wireformat"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
)

// DefaultMaxRequestSize bounds a payload read from guest memory.
const DefaultMaxRequestSize = 1024 * 1024 // 1 MB

// AdapterConfig holds configuration for the wazero adapter.
type AdapterConfig struct {
	// Logger receives adapter failures. Default is a no-op logger.
	Logger *zap.Logger

	// ModuleName is the host module name (default: "handoff_host").
	ModuleName string

	// MaxRequestSize limits the size of incoming payloads from guest memory.
	// Default is 1MB.
	MaxRequestSize uint32
}

// AdapterOption configures the adapter.
type AdapterOption func(*AdapterConfig)

// WithModuleName sets the host module name (default: "handoff_host").
func WithModuleName(name string) AdapterOption {
	return func(c *AdapterConfig) {
		c.ModuleName = name
	}
}

// WithMaxRequestSize sets the maximum payload size read from guest memory.
func WithMaxRequestSize(size uint32) AdapterOption {
	return func(c *AdapterConfig) {
		if size > 0 {
			c.MaxRequestSize = size
		}
	}
}

// WithAdapterLogger sets the logger for payloads that cannot be delivered.
func WithAdapterLogger(logger *zap.Logger) AdapterOption {
	return func(c *AdapterConfig) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// defaultAdapterConfig returns the default adapter configuration.
func defaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		Logger:         zap.NewNop(),
		ModuleName:     wireformat.HostModule,
		MaxRequestSize: DefaultMaxRequestSize,
	}
}

// RegisterWithRuntime registers all handlers from a HandlerRegistry with a wazero runtime.
// This creates a host module with the configured name (default: "handoff_host") and
// exports every handler as a one-way function taking a packed i64 ptr+len.
//
// Each handler is wrapped to:
//   - Read the payload from guest memory
//   - Invoke the ByteHandler with it
//   - Log, never trap, when the payload is unreadable or rejected
//
// Example:
//
//	registry, _ := hostfuncs.NewBoundaryRegistry(logger, recorder)
//	err := wazero.RegisterWithRuntime(ctx, runtime, registry)
func RegisterWithRuntime(ctx context.Context, runtime wazero.Runtime, registry *hostfuncs.HandlerRegistry, opts ...AdapterOption) error {
	cfg := defaultAdapterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	builder := runtime.NewHostModuleBuilder(cfg.ModuleName)

	for _, name := range registry.Names() {
		funcName := name // capture for closure
		builder.NewFunctionBuilder().
			WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
				handleRegistryCall(ctx, mod, stack, registry, funcName, &cfg)
			}), []api.ValueType{api.ValueTypeI64}, []api.ValueType{}).
			WithParameterNames("payload").
			Export(funcName)
	}

	_, err := builder.Instantiate(ctx)
	return err
}

// handleRegistryCall reads the payload named by stack[0] and dispatches it.
func handleRegistryCall(ctx context.Context, mod api.Module, stack []uint64, registry *hostfuncs.HandlerRegistry, name string, cfg *AdapterConfig) {
	ptr, length := unpackPtrLen(stack[0])

	if length > cfg.MaxRequestSize {
		cfg.Logger.Error("wazero: payload exceeds maximum size",
			zap.String("function", name), zap.Uint32("size", length), zap.Uint32("max", cfg.MaxRequestSize))
		return
	}

	payload, ok := mod.Memory().Read(ptr, length)
	if !ok {
		cfg.Logger.Error("wazero: failed to read payload from guest memory",
			zap.String("function", name), zap.Uint32("ptr", ptr), zap.Uint32("len", length))
		return
	}

	// The view aliases guest memory; handlers may keep what they decode.
	if err := registry.Invoke(ctx, name, append([]byte(nil), payload...)); err != nil {
		cfg.Logger.Error("wazero: host function failed", zap.String("function", name), zap.Error(err))
	}
}

// unpackPtrLen unpacks a pointer and length from a packed i64.
// Unlike abi.UnpackPtrLen it never panics on guest-supplied values.
func unpackPtrLen(packed uint64) (ptr, length uint32) {
	ptr = uint32(packed >> 32)           //nolint:gosec // G115: Packed format stores 32-bit values
	length = uint32(packed & 0xFFFFFFFF) //nolint:gosec // G115: Packed format stores 32-bit values
	return ptr, length
}
