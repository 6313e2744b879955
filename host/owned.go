package host

import (
	"context"
	"fmt"

	"github.com/jdavidagudelo/handoff/domain/errors"
)

// Owned is a value whose guest memory the caller now owns.
// Release crosses the boundary exactly once; later calls are no-ops.
type Owned[T any] struct {
	value    T
	ptr      uint32
	release  func(ctx context.Context) error
	released bool
}

func newOwned[T any](value T, ptr uint32, release func(ctx context.Context) error) *Owned[T] {
	return &Owned[T]{value: value, ptr: ptr, release: release}
}

// Value returns the copied-out value, or errors.ErrReleased after Release.
func (o *Owned[T]) Value() (T, error) {
	if o == nil || o.released {
		var zero T
		return zero, errors.ErrReleased
	}
	return o.value, nil
}

// Ptr returns the guest address the value was handed out at.
func (o *Owned[T]) Ptr() uint32 {
	if o == nil {
		return 0
	}
	return o.ptr
}

// Released reports whether Release has been called.
func (o *Owned[T]) Released() bool {
	return o == nil || o.released
}

// Release hands the memory back to the guest. It is safe to call on a nil
// Owned and more than once; only the first call crosses the boundary.
func (o *Owned[T]) Release(ctx context.Context) error {
	if o == nil || o.released {
		return nil
	}
	o.released = true
	return o.release(ctx)
}

// Borrowed is a copy of memory the caller may read but never releases.
type Borrowed[T any] struct {
	value T
	ptr   uint32
}

// Value returns the copied value.
func (b Borrowed[T]) Value() T {
	return b.value
}

// Ptr returns the stable guest address of the borrowed memory.
func (b Borrowed[T]) Ptr() uint32 {
	return b.ptr
}

// Scoped acquires an owned value, passes it to use and releases it on every
// exit path, including a panic in use. A release failure is returned only
// when use succeeded.
func Scoped[T any](ctx context.Context, acquire func(ctx context.Context) (*Owned[T], error), use func(T) error) (err error) {
	owned, err := acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := owned.Release(ctx); rerr != nil && err == nil {
			err = fmt.Errorf("release: %w", rerr)
		}
	}()

	value, err := owned.Value()
	if err != nil {
		return err
	}
	return use(value)
}
