package entities

import "encoding/binary"

// TupleSize is the size of an encoded Tuple in guest memory.
const TupleSize = 8

// Tuple is a pair of unsigned 32-bit integers passed by value.
// Layout: first u32 at offset 0, second u32 at offset 4, little-endian.
type Tuple struct {
	First  uint32 `json:"first"`
	Second uint32 `json:"second"`
}

// Encode returns the little-endian memory image of the tuple.
func (t Tuple) Encode() []byte {
	buf := make([]byte, TupleSize)
	binary.LittleEndian.PutUint32(buf[0:4], t.First)
	binary.LittleEndian.PutUint32(buf[4:8], t.Second)
	return buf
}

// DecodeTuple reads a Tuple from its memory image.
// The second return value is false if buf is shorter than TupleSize.
func DecodeTuple(buf []byte) (Tuple, bool) {
	if len(buf) < TupleSize {
		return Tuple{}, false
	}
	return Tuple{
		First:  binary.LittleEndian.Uint32(buf[0:4]),
		Second: binary.LittleEndian.Uint32(buf[4:8]),
	}, true
}
