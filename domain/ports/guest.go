package ports

import (
	"context"

	"github.com/jdavidagudelo/handoff/domain/entities"
)

// Guest is an instantiated library behind the boundary.
// Implementations are not safe for concurrent use.
type Guest interface {
	// Call invokes an export with flat i32/i64 parameters.
	Call(ctx context.Context, export string, params ...uint64) ([]uint64, error)

	// Memory returns the guest's linear memory.
	Memory() Memory

	// Exports lists the signature of every exported function by name.
	Exports() map[string]entities.Signature

	// Close releases the instance. It is safe to call more than once.
	Close(ctx context.Context) error
}
