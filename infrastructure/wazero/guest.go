package wazero

import (
	"context"
	stdErrors "errors"
	"fmt"
	"io"

	"github.com/jdavidagudelo/handoff/domain/entities"
	"github.com/jdavidagudelo/handoff/domain/errors"
	"github.com/jdavidagudelo/handoff/domain/ports"
	"github.com/jdavidagudelo/handoff/hostfuncs"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"
)

// Guest is a guest library instantiated in a wazero runtime.
// It is not safe for concurrent use.
type Guest struct {
	runtime    wazero.Runtime
	module     api.Module
	recorder   *hostfuncs.ViolationRecorder
	logger     *zap.Logger
	terminated error
}

var _ ports.Guest = (*Guest)(nil)

type loadConfig struct {
	logger         *zap.Logger
	stderr         io.Writer
	maxRequestSize uint32
	memoryPages    uint32
}

// LoadOption configures Load.
type LoadOption func(*loadConfig)

// WithLogger sets the logger guest records and host failures are sent to.
func WithLogger(logger *zap.Logger) LoadOption {
	return func(c *loadConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPayloadLimit bounds payloads the guest passes to host imports.
func WithPayloadLimit(size uint32) LoadOption {
	return func(c *loadConfig) {
		if size > 0 {
			c.maxRequestSize = size
		}
	}
}

// WithMemoryLimitPages caps guest linear memory in 64 KiB pages.
func WithMemoryLimitPages(pages uint32) LoadOption {
	return func(c *loadConfig) {
		c.memoryPages = pages
	}
}

// WithStderr receives the guest's stderr, including Go runtime panics.
func WithStderr(w io.Writer) LoadOption {
	return func(c *loadConfig) {
		c.stderr = w
	}
}

// Load compiles and instantiates a wasip1 reactor module built from cmd/guest.
func Load(ctx context.Context, wasm []byte, opts ...LoadOption) (*Guest, error) {
	cfg := loadConfig{
		logger:         zap.NewNop(),
		stderr:         io.Discard,
		maxRequestSize: DefaultMaxRequestSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	rtCfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cfg.memoryPages > 0 {
		rtCfg = rtCfg.WithMemoryLimitPages(cfg.memoryPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, rtCfg)
	wasi_snapshot_preview1.MustInstantiate(ctx, rt)

	recorder := hostfuncs.NewViolationRecorder()
	registry, err := hostfuncs.NewBoundaryRegistry(cfg.logger, recorder)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to create host registry: %w", err)
	}
	if err := RegisterWithRuntime(ctx, rt, registry,
		WithMaxRequestSize(cfg.maxRequestSize), WithAdapterLogger(cfg.logger)); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to register host functions: %w", err)
	}

	// Reactors export _initialize instead of _start.
	modCfg := wazero.NewModuleConfig().WithStartFunctions().WithStderr(cfg.stderr)
	mod, err := rt.InstantiateWithConfig(ctx, wasm, modCfg)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate module: %w", err)
	}

	if init := mod.ExportedFunction("_initialize"); init != nil {
		if _, err := init.Call(ctx); err != nil {
			_ = rt.Close(ctx)
			return nil, fmt.Errorf("failed to call _initialize: %w", err)
		}
	}

	return &Guest{
		runtime:  rt,
		module:   mod,
		recorder: recorder,
		logger:   cfg.logger,
	}, nil
}

// Call invokes an export. A reported contract violation is returned as a
// *errors.ContractViolationError; after it, and after any trap, the guest is
// terminated and every later call returns errors.ErrGuestTerminated.
func (g *Guest) Call(ctx context.Context, export string, params ...uint64) ([]uint64, error) {
	if g.terminated != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrGuestTerminated, g.terminated)
	}
	fn := g.module.ExportedFunction(export)
	if fn == nil {
		return nil, &errors.GuestError{Export: export, Err: fmt.Errorf("export %q not found", export)}
	}

	results, err := fn.Call(ctx, params...)
	if err == nil {
		return results, nil
	}

	g.terminated = g.classify(export, err)
	g.logger.Error("guest terminated", zap.String("export", export), zap.Error(g.terminated))
	return nil, g.terminated
}

func (g *Guest) classify(export string, err error) error {
	var exitErr *sys.ExitError
	if !stdErrors.As(err, &exitErr) {
		return &errors.GuestError{Export: export, Err: err}
	}
	if exitErr.ExitCode() == errors.ExitContractViolation {
		if cv, ok := g.recorder.Take(); ok {
			return cv
		}
	}
	return &errors.GuestError{Export: export, ExitCode: exitErr.ExitCode(), Err: err}
}

// Memory returns the guest's linear memory.
func (g *Guest) Memory() ports.Memory {
	return g.module.Memory()
}

// Exports lists the guest's function exports, including _initialize.
func (g *Guest) Exports() map[string]entities.Signature {
	defs := g.module.ExportedFunctionDefinitions()
	out := make(map[string]entities.Signature, len(defs))
	for name, def := range defs {
		out[name] = entities.Signature{
			Params:  valueTypes(def.ParamTypes()),
			Results: valueTypes(def.ResultTypes()),
		}
	}
	return out
}

func valueTypes(in []api.ValueType) []entities.ValueType {
	out := make([]entities.ValueType, 0, len(in))
	for _, t := range in {
		out = append(out, entities.ValueType(api.ValueTypeName(t)))
	}
	return out
}

// Close releases the runtime and every module in it.
func (g *Guest) Close(ctx context.Context) error {
	return g.runtime.Close(ctx)
}
