package host

import (
	"context"

	"github.com/jdavidagudelo/handoff/domain/entities"
	"github.com/jdavidagudelo/handoff/domain/errors"
	"github.com/jdavidagudelo/handoff/domain/ports"
	"go.uber.org/zap"
)

// Database is the host view of an opaque zip-code database in the guest.
// It is not safe for concurrent use.
type Database struct {
	lib    *Library
	handle uint32
	closed bool
}

var _ ports.ZipCodeDatabase = (*Database)(nil)

// CreateDatabase creates an empty database. The caller owns it and must Close it.
func (l *Library) CreateDatabase(ctx context.Context) (*Database, error) {
	res, err := l.call(ctx, entities.ExportDatabaseCreate)
	if err != nil {
		return nil, err
	}
	d := &Database{lib: l, handle: uint32(res[0])} //nolint:gosec // G115: i32 handle
	l.databases[d.handle] = d
	l.logger.Debug("database created", zap.Uint32("handle", d.handle))
	return d, nil
}

// Handle returns the opaque guest handle.
func (d *Database) Handle() entities.Handle {
	if d == nil {
		return entities.NullHandle
	}
	return entities.Handle(d.handle)
}

// Populate fills the database with every five-digit zip code.
func (d *Database) Populate(ctx context.Context) error {
	if err := d.live(entities.ExportDatabasePopulate); err != nil {
		return err
	}
	_, err := d.lib.call(ctx, entities.ExportDatabasePopulate, uint64(d.handle))
	return err
}

// PopulationOf returns the population stored for zip, or 0 if there is none.
func (d *Database) PopulationOf(ctx context.Context, zip string) (uint32, error) {
	const op = entities.ExportDatabaseQuery
	if err := d.live(op); err != nil {
		return 0, err
	}
	key, err := cText(op, zip)
	if err != nil {
		return 0, err
	}

	var n uint32
	err = d.lib.withScratch(ctx, key, func(ptr uint32) error {
		res, err := d.lib.call(ctx, op, uint64(d.handle), uint64(ptr))
		if err != nil {
			return err
		}
		n = uint32(res[0]) //nolint:gosec // G115: i32 result
		return nil
	})
	return n, err
}

// Close destroys the database. It is safe to call on a nil Database and
// more than once; only the first call crosses the boundary.
func (d *Database) Close(ctx context.Context) error {
	if d == nil || d.closed {
		return nil
	}
	d.closed = true
	delete(d.lib.databases, d.handle)
	_, err := d.lib.call(ctx, entities.ExportDatabaseDestroy, uint64(d.handle))
	return err
}

func (d *Database) live(op string) error {
	if d == nil {
		return errors.Violation(op, errors.ViolationNullHandle, "database is nil")
	}
	if d.closed {
		return errors.Violation(op, errors.ViolationUseAfterRelease, "database %d is closed", d.handle)
	}
	return nil
}
