package ports

import "context"

// ZipCodeDatabase is the host-side view of the opaque database handle.
type ZipCodeDatabase interface {
	Populate(ctx context.Context) error
	PopulationOf(ctx context.Context, zip string) (uint32, error)
	Close(ctx context.Context) error
}
