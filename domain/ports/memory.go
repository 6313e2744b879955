package ports

// Memory is a view of a guest's linear memory.
// wazero's api.Memory satisfies it directly.
type Memory interface {
	// Size returns the current size of the memory in bytes.
	Size() uint32

	// Read returns a view of byteCount bytes at offset, or false if out of range.
	// The view may alias live memory; copy it before the next call into the guest.
	Read(offset, byteCount uint32) ([]byte, bool)

	// Write copies v to offset, or returns false if out of range.
	Write(offset uint32, v []byte) bool
}
