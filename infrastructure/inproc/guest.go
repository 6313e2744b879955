// Package inproc runs the guest library inside the host process over an
// abi.Arena, with the same import surface and fail-fast behavior as the
// wazero backend. It needs no wasm build and is what most tests use.
package inproc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jdavidagudelo/handoff/domain/entities"
	"github.com/jdavidagudelo/handoff/domain/errors"
	"github.com/jdavidagudelo/handoff/domain/ports"
	"github.com/jdavidagudelo/handoff/guest"
	"github.com/jdavidagudelo/handoff/hostfuncs"
	"github.com/jdavidagudelo/handoff/internal/abi"
	guestlog "github.com/jdavidagudelo/handoff/log"
	"github.com/jdavidagudelo/handoff/wireformat"
	"go.uber.org/zap"
)

// DefaultPages is the default arena size in 64 KiB pages.
const DefaultPages = 16

// Guest is an in-process guest instance. It is not safe for concurrent use.
type Guest struct {
	arena      *abi.Arena
	exports    *guest.Exports
	registry   *hostfuncs.HandlerRegistry
	recorder   *hostfuncs.ViolationRecorder
	logger     *zap.Logger
	dispatch   map[string]entryFunc
	signatures map[string]entities.Signature
	terminated error
	closed     bool
}

var _ ports.Guest = (*Guest)(nil)

type entryFunc func(e *guest.Exports, p []uint64) []uint64

type config struct {
	logger      *zap.Logger
	pages       uint32
	maxBytes    int
	maxTextSize uint32
}

// Option configures New.
type Option func(*config)

// WithLogger sets the logger guest records and failures are sent to.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPages sets the arena size in 64 KiB pages.
func WithPages(pages uint32) Option {
	return func(c *config) {
		if pages > 0 {
			c.pages = pages
		}
	}
}

// WithMaxAllocationBytes bounds the bytes the guest may have live at once.
func WithMaxAllocationBytes(n int) Option {
	return func(c *config) {
		c.maxBytes = n
	}
}

// WithMaxTextBytes bounds the NUL scan for text inputs.
func WithMaxTextBytes(n uint32) Option {
	return func(c *config) {
		c.maxTextSize = n
	}
}

// New creates an in-process guest.
func New(opts ...Option) (*Guest, error) {
	cfg := config{
		logger: zap.NewNop(),
		pages:  DefaultPages,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	recorder := hostfuncs.NewViolationRecorder()
	registry, err := hostfuncs.NewBoundaryRegistry(cfg.logger, recorder)
	if err != nil {
		return nil, fmt.Errorf("failed to create host registry: %w", err)
	}

	g := &Guest{
		arena:      abi.NewArena(cfg.pages),
		registry:   registry,
		recorder:   recorder,
		logger:     cfg.logger,
		dispatch:   dispatchTable(),
		signatures: guest.Signatures(),
	}

	sink := func(ctx context.Context, payload []byte) {
		if err := registry.Invoke(ctx, wireformat.ImportLogMessage, payload); err != nil {
			cfg.logger.Error("inproc: log delivery failed", zap.Error(err))
		}
	}
	guestLogger := slog.New(guestlog.NewHandler(guestlog.WithLevel(slog.LevelDebug), guestlog.WithSink(sink)))

	var ledgerOpts []abi.Option
	if cfg.maxBytes > 0 {
		ledgerOpts = append(ledgerOpts, abi.WithMaxTotalAllocations(cfg.maxBytes))
	}
	g.exports, err = guest.NewOnArena(g.arena, ledgerOpts,
		guest.WithLogger(guestLogger), guest.WithMaxTextBytes(cfg.maxTextSize))
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Call invokes an export. A contract violation is reported through the
// contract_violation import and returned; the guest is then terminated and
// every later call returns errors.ErrGuestTerminated.
func (g *Guest) Call(ctx context.Context, export string, params ...uint64) (results []uint64, err error) {
	if g.closed {
		return nil, &errors.GuestError{Export: export, Err: fmt.Errorf("guest is closed")}
	}
	if g.terminated != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrGuestTerminated, g.terminated)
	}
	fn, ok := g.dispatch[export]
	if !ok {
		return nil, &errors.GuestError{Export: export, Err: fmt.Errorf("export %q not found", export)}
	}
	if want := len(g.signatures[export].Params); len(params) != want {
		return nil, &errors.GuestError{Export: export, Err: fmt.Errorf("expected %d params, but passed %d", want, len(params))}
	}

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		results, err = nil, g.fail(ctx, export, r)
	}()
	return fn(g.exports, params), nil
}

// fail terminates the guest after a panic in export.
func (g *Guest) fail(ctx context.Context, export string, r any) error {
	cv, ok := guest.AsViolation(r)
	if !ok {
		g.terminated = &errors.GuestError{Export: export, Err: fmt.Errorf("panic: %v", r)}
	} else {
		g.terminated = g.report(ctx, cv)
	}
	g.logger.Error("guest terminated", zap.String("export", export), zap.Error(g.terminated))
	return g.terminated
}

// report sends cv through the contract_violation import, as the wasm guest does.
func (g *Guest) report(ctx context.Context, cv *errors.ContractViolationError) error {
	data, err := wireformat.Marshal("ErrorDetail", cv.ToErrorDetail())
	if err != nil {
		return cv
	}
	if err := g.registry.Invoke(ctx, wireformat.ImportContractViolation, data); err != nil {
		g.logger.Error("inproc: violation report failed", zap.Error(err))
		return cv
	}
	if recorded, ok := g.recorder.Take(); ok {
		return recorded
	}
	return cv
}

// Memory returns the arena backing the guest.
func (g *Guest) Memory() ports.Memory {
	return g.arena
}

// Exports lists the entry points the in-process guest serves.
func (g *Guest) Exports() map[string]entities.Signature {
	return guest.Signatures()
}

// Close drops every database and allocation. It is safe to call more than once.
func (g *Guest) Close(_ context.Context) error {
	if g.closed {
		return nil
	}
	g.closed = true
	g.exports.Reset()
	return nil
}
