package main

import (
	"context"
	"fmt"

	"github.com/jdavidagudelo/handoff/application/config"
	"github.com/jdavidagudelo/handoff/domain/entities"
	"github.com/jdavidagudelo/handoff/host"
	"go.uber.org/zap"
)

// run opens the configured guest and walks the boundary once.
func run(ctx context.Context, cfg *config.Config, p *printer) error {
	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	g, err := openGuest(ctx, cfg, logger)
	if err != nil {
		return err
	}
	lib, err := host.Open(ctx, g, host.WithLogger(logger))
	if err != nil {
		_ = g.Close(ctx)
		return err
	}
	defer lib.Close(ctx) //nolint:errcheck

	p.header(fmt.Sprintf("handoff %s (%s)", lib.Manifest().Version, cfg.Guest.Backend))
	if err := demo(ctx, lib, p); err != nil {
		return err
	}

	count, bytes, err := lib.LiveAllocations(ctx)
	if err != nil {
		return err
	}
	logger.Debug("demo finished", zap.Int("live_allocations", count), zap.Int("live_bytes", bytes))
	p.result("live allocations", fmt.Sprintf("%d (%d bytes)", count, bytes), "")
	return nil
}

func demo(ctx context.Context, lib *host.Library, p *printer) error {
	sum, err := lib.Add(ctx, 1, 2)
	if err != nil {
		return err
	}
	p.result("add(1, 2)", sum, "value")

	chars, err := lib.CharCount(ctx, "göes to élevên")
	if err != nil {
		return err
	}
	p.result("char count", chars, "borrowed text")

	err = lib.WithSong(ctx, 5, func(song string) error {
		p.result("theme song", song, "owned text, released")
		return nil
	})
	if err != nil {
		return err
	}

	even, err := lib.SumOfEven(ctx, []uint32{1, 2, 3, 4, 5, 6})
	if err != nil {
		return err
	}
	p.result("sum of even", even, "borrowed view")

	flipped, err := lib.Flip(ctx, entities.Tuple{First: 10, Second: 20})
	if err != nil {
		return err
	}
	p.result("flip(10, 20)", fmt.Sprintf("(%d,%d)", flipped.First, flipped.Second), "value")

	diff, err := populationDifference(ctx, lib, "90210", "20500")
	if err != nil {
		return err
	}
	p.result("90210 - 20500", diff, "opaque handle, destroyed")

	static, err := lib.StaticArrayView(ctx)
	if err != nil {
		return err
	}
	p.result("static array", static.Value(), fmt.Sprintf("borrowed at 0x%x", static.Ptr()))

	return lib.WithOwnedBuffer(ctx, func(values []int32) error {
		p.result("owned buffer", values, "owned buffer, released")
		return nil
	})
}

func populationDifference(ctx context.Context, lib *host.Library, a, b string) (int64, error) {
	db, err := lib.CreateDatabase(ctx)
	if err != nil {
		return 0, err
	}
	defer db.Close(ctx) //nolint:errcheck

	if err := db.Populate(ctx); err != nil {
		return 0, err
	}
	popA, err := db.PopulationOf(ctx, a)
	if err != nil {
		return 0, err
	}
	popB, err := db.PopulationOf(ctx, b)
	if err != nil {
		return 0, err
	}
	return int64(popA) - int64(popB), db.Close(ctx)
}
