package entities

// Element counts of the static views.
const (
	StaticArrayLen        = 3
	StaticMutableArrayLen = 4
)

var (
	staticArray        = [StaticArrayLen]int32{11, 27, 31}
	staticMutableArray = [StaticMutableArrayLen]int32{1, 2, 3, 4}
	ownedBufferValues  = [6]int32{11, 13, 17, 19, 23, 29}
)

// StaticArray returns a copy of the content of the read-only static view.
func StaticArray() []int32 {
	return clone(staticArray[:])
}

// StaticMutableArray returns a copy of the initial content of the mutable static view.
func StaticMutableArray() []int32 {
	return clone(staticMutableArray[:])
}

// OwnedBufferValues returns a copy of the sequence handed out by build_owned_buffer.
func OwnedBufferValues() []int32 {
	return clone(ownedBufferValues[:])
}

// clone copies values into a slice whose capacity equals its length.
func clone(values []int32) []int32 {
	out := make([]int32, len(values))
	copy(out, values)
	return out
}
