// Package handles maps opaque handles handed across the boundary to the
// values they stand for.
package handles

import (
	"math"

	"github.com/jdavidagudelo/handoff/domain/entities"
)

// Dropper is implemented by values that release internal state on removal.
type Dropper interface {
	Drop()
}

// Table issues handles for values of type T.
// Handle ids increase monotonically and are never reused, so a destroyed
// handle stays unknown instead of aliasing a newer value.
// It is not safe for concurrent use.
type Table[T any] struct {
	entries map[entities.Handle]T
	next    entities.Handle
}

// NewTable creates an empty table.
func NewTable[T any]() *Table[T] {
	return &Table[T]{
		entries: make(map[entities.Handle]T),
		next:    1,
	}
}

// Insert stores value and returns its handle.
// It returns the null handle once the id space is exhausted.
func (t *Table[T]) Insert(value T) entities.Handle {
	if t.next == math.MaxUint32 {
		return entities.NullHandle
	}
	h := t.next
	t.next++
	t.entries[h] = value
	return h
}

// Get retrieves the value behind a handle.
func (t *Table[T]) Get(h entities.Handle) (T, bool) {
	v, ok := t.entries[h]
	return v, ok
}

// Remove deletes a handle and returns (value, true) if it was live.
// Values implementing Dropper are dropped.
func (t *Table[T]) Remove(h entities.Handle) (T, bool) {
	v, ok := t.entries[h]
	if !ok {
		return v, false
	}
	delete(t.entries, h)

	if d, ok := any(v).(Dropper); ok {
		d.Drop()
	}
	return v, true
}

// Len returns the number of live handles.
func (t *Table[T]) Len() int {
	return len(t.entries)
}

// Clear removes every live handle.
func (t *Table[T]) Clear() {
	for h := range t.entries {
		t.Remove(h)
	}
}
