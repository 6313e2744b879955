package abi

import (
	"bytes"
	"errors"

	"github.com/jdavidagudelo/handoff/domain/ports"
)

// DefaultMaxTextBytes bounds the scan for a NUL terminator.
const DefaultMaxTextBytes = 1024 * 1024

// cstringChunk is how many bytes are read per step while scanning.
const cstringChunk = 64

var (
	// ErrOutOfBounds is returned when a read runs past the end of memory.
	ErrOutOfBounds = errors.New("read out of bounds")

	// ErrUnterminated is returned when no NUL is found within the limit.
	ErrUnterminated = errors.New("text is not NUL-terminated")
)

// ReadCString copies the NUL-terminated bytes at ptr, without the terminator.
// At most maxLen bytes are scanned.
func ReadCString(m ports.Memory, ptr, maxLen uint32) ([]byte, error) {
	var out []byte
	for scanned := uint32(0); scanned < maxLen; {
		n := min(cstringChunk, maxLen-scanned)
		if size := m.Size(); uint64(ptr)+uint64(scanned) >= uint64(size) {
			return nil, ErrOutOfBounds
		} else if rest := size - ptr - scanned; n > rest {
			n = rest
		}

		chunk, ok := m.Read(ptr+scanned, n)
		if !ok {
			return nil, ErrOutOfBounds
		}
		if i := bytes.IndexByte(chunk, 0); i >= 0 {
			return append(out, chunk[:i]...), nil
		}
		out = append(out, chunk...)
		scanned += n
	}
	return nil, ErrUnterminated
}

// CString returns s as NUL-terminated bytes.
func CString(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}
