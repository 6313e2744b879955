package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jdavidagudelo/handoff/application/config"
	"github.com/jdavidagudelo/handoff/domain/ports"
	"github.com/jdavidagudelo/handoff/infrastructure/inproc"
	"github.com/jdavidagudelo/handoff/infrastructure/wazero"
	"go.uber.org/zap"
)

// openGuest starts the configured backend.
func openGuest(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.Guest, error) {
	switch cfg.Guest.Backend {
	case config.BackendInProc:
		return inproc.New(
			inproc.WithLogger(logger),
			inproc.WithPages(cfg.Guest.ArenaPages),
			inproc.WithMaxAllocationBytes(cfg.Guest.MaxAllocationBytes),
		)
	case config.BackendWazero:
		wasm, err := os.ReadFile(cfg.Guest.Path)
		if err != nil {
			return nil, fmt.Errorf("read guest module: %w", err)
		}
		return wazero.Load(ctx, wasm,
			wazero.WithLogger(logger),
			wazero.WithMemoryLimitPages(cfg.Guest.MemoryLimitPages),
			wazero.WithPayloadLimit(cfg.Guest.PayloadLimit),
			wazero.WithStderr(os.Stderr),
		)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Guest.Backend)
	}
}
