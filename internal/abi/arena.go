package abi

import "sort"

// PageSize is the size of one wasm memory page.
const PageSize = 64 * 1024

// arenaAlign is the alignment of every arena reservation.
const arenaAlign = 8

// Arena is a portable stand-in for wasm linear memory: a flat byte slice
// addressed by uint32 offsets, with offset 0 reserved as null.
// It implements ports.Memory and Backing.
type Arena struct {
	mem  []byte
	next uint32
	free []span
}

type span struct {
	ptr  uint32
	size uint32
}

// NewArena creates an arena of the given number of pages (at least one).
func NewArena(pages uint32) *Arena {
	if pages == 0 {
		pages = 1
	}
	return &Arena{
		mem:  make([]byte, int(pages)*PageSize),
		next: arenaAlign, // keep offset 0 unusable
	}
}

// Size returns the arena size in bytes.
func (a *Arena) Size() uint32 {
	return uint32(len(a.mem)) //nolint:gosec // G115: bounded by page count
}

// Read returns a view of byteCount bytes at offset.
func (a *Arena) Read(offset, byteCount uint32) ([]byte, bool) {
	end := uint64(offset) + uint64(byteCount)
	if end > uint64(len(a.mem)) {
		return nil, false
	}
	return a.mem[offset:end:end], true
}

// Write copies v to offset.
func (a *Arena) Write(offset uint32, v []byte) bool {
	end := uint64(offset) + uint64(len(v))
	if end > uint64(len(a.mem)) {
		return false
	}
	copy(a.mem[offset:end], v)
	return true
}

// Alloc reserves size bytes using first fit over released spans, then the bump pointer.
func (a *Arena) Alloc(size uint32) (uint32, bool) {
	if size == 0 {
		return 0, false
	}
	size = alignUp(size)

	for i, s := range a.free {
		if s.size < size {
			continue
		}
		if s.size == size {
			a.free = append(a.free[:i], a.free[i+1:]...)
		} else {
			a.free[i] = span{ptr: s.ptr + size, size: s.size - size}
		}
		return s.ptr, true
	}

	if uint64(a.next)+uint64(size) > uint64(len(a.mem)) {
		return 0, false
	}
	ptr := a.next
	a.next += size
	return ptr, true
}

// Free zeroes a reservation and makes it reusable.
func (a *Arena) Free(ptr, size uint32) {
	if ptr == 0 || size == 0 {
		return
	}
	size = alignUp(size)
	clear(a.mem[ptr : ptr+size])
	a.free = append(a.free, span{ptr: ptr, size: size})
	a.coalesce()
}

// coalesce merges adjacent free spans and gives the tail back to the bump pointer.
func (a *Arena) coalesce() {
	sort.Slice(a.free, func(i, j int) bool { return a.free[i].ptr < a.free[j].ptr })

	merged := a.free[:0]
	for _, s := range a.free {
		if n := len(merged); n > 0 && merged[n-1].ptr+merged[n-1].size == s.ptr {
			merged[n-1].size += s.size
			continue
		}
		merged = append(merged, s)
	}
	a.free = merged

	if n := len(a.free); n > 0 && a.free[n-1].ptr+a.free[n-1].size == a.next {
		a.next = a.free[n-1].ptr
		a.free = a.free[:n-1]
	}
}

func alignUp(size uint32) uint32 {
	return (size + arenaAlign - 1) &^ (arenaAlign - 1)
}
