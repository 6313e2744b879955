package guest

import (
	stdErrors "errors"

	"github.com/jdavidagudelo/handoff/domain/entities"
	"github.com/jdavidagudelo/handoff/internal/abi"
)

// NewOnArena creates a guest instance whose linear memory is arena.
// The static arrays are placed in arena outside the ledger, so they are never
// counted as live allocations and cannot be released.
func NewOnArena(arena *abi.Arena, ledgerOpts []abi.Option, opts ...Option) (*Exports, error) {
	array, err := placeStatic(arena, entities.StaticArray())
	if err != nil {
		return nil, err
	}
	mutable, err := placeStatic(arena, entities.StaticMutableArray())
	if err != nil {
		return nil, err
	}
	statics := Statics{Array: array, MutableArray: mutable}
	return New(arena, abi.NewLedger(arena, ledgerOpts...), statics, opts...), nil
}

func placeStatic(arena *abi.Arena, values []int32) (uint32, error) {
	image := entities.EncodeInt32s(values)
	ptr, ok := arena.Alloc(uint32(len(image))) //nolint:gosec // G115: fixed static arrays
	if !ok || !arena.Write(ptr, image) {
		return 0, stdErrors.New("no room for static arrays")
	}
	return ptr, nil
}
