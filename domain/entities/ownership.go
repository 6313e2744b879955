package entities

import "fmt"

// Ownership describes who is responsible for a value that crosses the boundary.
type Ownership string

const (
	// OwnershipValue is copied across; nobody releases anything.
	OwnershipValue Ownership = "value"
	// OwnershipBorrowed is read for the duration of the call only.
	OwnershipBorrowed Ownership = "borrowed"
	// OwnershipOwned transfers to the receiver, who must release it exactly once.
	OwnershipOwned Ownership = "owned"
	// OwnershipConsumed is an owned value handed back for release.
	OwnershipConsumed Ownership = "consumed"
	// OwnershipStatic is borrowed for the lifetime of the process.
	OwnershipStatic Ownership = "static"
)

// AllocTag identifies which release path an allocation belongs to.
// It is stored in the ledger and echoed in Slice descriptors.
type AllocTag uint32

const (
	// TagNone marks an unknown or empty allocation.
	TagNone AllocTag = iota
	// TagScratch marks host-requested scratch memory (allocate/deallocate).
	TagScratch
	// TagText marks NUL-terminated owned text (generate_song/release_song).
	TagText
	// TagBuffer marks owned int32 buffers (build_owned_buffer/release_owned_buffer).
	TagBuffer
)

func (t AllocTag) String() string {
	switch t {
	case TagNone:
		return "none"
	case TagScratch:
		return "scratch"
	case TagText:
		return "text"
	case TagBuffer:
		return "buffer"
	default:
		return fmt.Sprintf("tag(%d)", uint32(t))
	}
}
