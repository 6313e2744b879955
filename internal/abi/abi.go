// Package abi tracks ownership of guest linear memory that crosses the boundary.
//
// Every allocation handed to the host is recorded in a Ledger together with its
// size and AllocTag. Releases are checked against that record, so a foreign
// pointer, a double release, or a release through the wrong path is reported
// instead of corrupting the allocator.
package abi

import (
	"errors"
	"fmt"

	"github.com/jdavidagudelo/handoff/domain/entities"
	domainerrors "github.com/jdavidagudelo/handoff/domain/errors"
)

// DefaultMaxTotalAllocations is the default cap on tracked memory.
// This prevents unbounded memory growth in guest linear memory.
const DefaultMaxTotalAllocations = 100 * 1024 * 1024 // 100 MB

var (
	// ErrUntracked is returned when releasing a pointer the ledger never issued
	// or has already released.
	ErrUntracked = errors.New("pointer is not tracked")

	// ErrTagMismatch is returned when an allocation is released through another path.
	ErrTagMismatch = errors.New("allocation tag mismatch")

	// ErrSizeMismatch is returned when the released size differs from the allocated size.
	ErrSizeMismatch = errors.New("allocation size mismatch")

	// ErrBackingExhausted is returned when the backing memory cannot satisfy a request.
	ErrBackingExhausted = errors.New("backing memory exhausted")
)

// Backing provides the raw storage behind tracked allocations.
type Backing interface {
	// Alloc reserves size bytes and returns their offset, never 0.
	Alloc(size uint32) (uint32, bool)

	// Free returns a reservation made by Alloc.
	Free(ptr, size uint32)
}

// Allocation is one live tracked allocation.
type Allocation struct {
	Ptr  uint32
	Size uint32
	Tag  entities.AllocTag
}

// Ledger records every live allocation by pointer.
// It is not safe for concurrent use.
type Ledger struct {
	backing        Backing
	live           map[uint32]Allocation
	totalAllocated int
	maxTotal       int
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithMaxTotalAllocations caps the total tracked bytes.
// Zero or negative limits are ignored.
func WithMaxTotalAllocations(limit int) Option {
	return func(l *Ledger) {
		if limit > 0 {
			l.maxTotal = limit
		}
	}
}

// NewLedger creates a ledger over the given backing.
func NewLedger(backing Backing, opts ...Option) *Ledger {
	l := &Ledger{
		backing:  backing,
		live:     make(map[uint32]Allocation),
		maxTotal: DefaultMaxTotalAllocations,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allocate reserves size bytes, records them under tag and returns the pointer.
// A zero size returns the null pointer without recording anything.
func (l *Ledger) Allocate(size uint32, tag entities.AllocTag) (uint32, error) {
	if size == 0 {
		return 0, nil
	}

	if l.totalAllocated+int(size) > l.maxTotal {
		return 0, &domainerrors.MemoryError{
			Requested: int(size),
			Current:   l.totalAllocated,
			Limit:     l.maxTotal,
		}
	}

	ptr, ok := l.backing.Alloc(size)
	if !ok {
		return 0, fmt.Errorf("%w: requested %d bytes", ErrBackingExhausted, size)
	}

	l.live[ptr] = Allocation{Ptr: ptr, Size: size, Tag: tag}
	l.totalAllocated += int(size)
	return ptr, nil
}

// Lookup returns the live allocation starting at ptr.
func (l *Ledger) Lookup(ptr uint32) (Allocation, bool) {
	a, ok := l.live[ptr]
	return a, ok
}

// Free releases an allocation whose size is supplied by the caller.
// The size and tag must match what was recorded.
func (l *Ledger) Free(ptr, size uint32, tag entities.AllocTag) error {
	a, ok := l.live[ptr]
	if !ok {
		return fmt.Errorf("%w: 0x%x", ErrUntracked, ptr)
	}
	if a.Tag != tag {
		return fmt.Errorf("%w: 0x%x is %s, released as %s", ErrTagMismatch, ptr, a.Tag, tag)
	}
	if a.Size != size {
		return fmt.Errorf("%w: 0x%x holds %d bytes, released as %d", ErrSizeMismatch, ptr, a.Size, size)
	}
	l.drop(a)
	return nil
}

// FreeByPointer releases an allocation using only its pointer, recovering the
// size from the ledger. The tag must still match.
func (l *Ledger) FreeByPointer(ptr uint32, tag entities.AllocTag) (Allocation, error) {
	a, ok := l.live[ptr]
	if !ok {
		return Allocation{}, fmt.Errorf("%w: 0x%x", ErrUntracked, ptr)
	}
	if a.Tag != tag {
		return Allocation{}, fmt.Errorf("%w: 0x%x is %s, released as %s", ErrTagMismatch, ptr, a.Tag, tag)
	}
	l.drop(a)
	return a, nil
}

// FreeAll releases every tracked allocation.
// This is typically called when the guest is torn down after a failure.
func (l *Ledger) FreeAll() {
	for _, a := range l.live {
		l.drop(a)
	}
	l.totalAllocated = 0
}

// Stats returns the number of live allocations and their total size.
func (l *Ledger) Stats() (count, bytes int) {
	return len(l.live), l.totalAllocated
}

func (l *Ledger) drop(a Allocation) {
	delete(l.live, a.Ptr)
	l.backing.Free(a.Ptr, a.Size)
	l.totalAllocated -= int(a.Size)

	// Prevent negative totalAllocated due to accounting bugs
	if l.totalAllocated < 0 {
		l.totalAllocated = 0
	}
}
