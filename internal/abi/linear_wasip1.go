//go:build wasip1

package abi

import (
	"math"
	"unsafe"
)

// LinearMemory is the guest's own linear memory as seen from inside the module.
// Allocations are Go slices pinned in a map so the GC keeps them alive until
// they are freed; their address is the offset the host sees.
type LinearMemory struct {
	pinned map[uint32][]byte
}

// NewLinearMemory creates the in-module backing.
func NewLinearMemory() *LinearMemory {
	return &LinearMemory{pinned: make(map[uint32][]byte)}
}

// wasmPageSize is the size of one linear-memory page.
const wasmPageSize = 64 * 1024

// memoryPages returns the current linear-memory size in pages (memory.size).
// Implemented in memsize_wasip1_wasm.s.
func memoryPages() uint32

// Size returns the current size of linear memory. Memory only grows, so a
// range checked against it stays valid for the rest of the call.
func (m *LinearMemory) Size() uint32 {
	return uint32(min(uint64(memoryPages())*wasmPageSize, math.MaxUint32))
}

// Read returns a view of byteCount bytes at offset, or false if the range
// runs past the end of linear memory.
func (m *LinearMemory) Read(offset, byteCount uint32) ([]byte, bool) {
	if offset == 0 {
		return nil, false
	}
	if uint64(offset)+uint64(byteCount) > uint64(m.Size()) {
		return nil, false
	}
	if byteCount == 0 {
		return []byte{}, true
	}
	// WASM linear memory: uint32 offset -> pointer conversion is safe and necessary
	//nolint:gosec // G103: Valid unsafe.Pointer use for WASM linear memory access
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(offset))), byteCount), true
}

// Write copies v to offset.
func (m *LinearMemory) Write(offset uint32, v []byte) bool {
	dest, ok := m.Read(offset, uint32(len(v))) //nolint:gosec // G115: wasm32 lengths fit
	if !ok {
		return false
	}
	copy(dest, v)
	return true
}

// Alloc pins a fresh slice and returns its address.
func (m *LinearMemory) Alloc(size uint32) (uint32, bool) {
	if size == 0 {
		return 0, false
	}
	buf := make([]byte, size)
	ptr := AddressOf(unsafe.Pointer(&buf[0]))
	m.pinned[ptr] = buf // PIN THE MEMORY: Store the slice to prevent GC
	return ptr, true
}

// Free unpins a slice so the GC can reclaim it.
func (m *LinearMemory) Free(ptr, _ uint32) {
	delete(m.pinned, ptr)
}

// AddressOf returns the linear-memory offset of p.
func AddressOf(p unsafe.Pointer) uint32 {
	return uint32(uintptr(p)) //nolint:gosec // G115: wasm32 addresses are 32-bit
}
