package entities

import "encoding/binary"

// SliceSize is the size of an encoded Slice descriptor in guest memory.
const SliceSize = 16

// Int32Size is the width of one element of an owned int32 buffer.
const Int32Size = 4

// Slice describes an owned run of int32 values in guest memory.
//
// Layout (little-endian): ptr u32 @0, len u32 @4, cap u32 @8, tag u32 @12.
// The whole descriptor, not just Ptr, must be handed back on release.
type Slice struct {
	Ptr uint32   `json:"ptr"`
	Len uint32   `json:"len"`
	Cap uint32   `json:"cap"`
	Tag AllocTag `json:"tag"`
}

// IsNull reports whether the descriptor points at nothing.
func (s Slice) IsNull() bool {
	return s.Ptr == 0
}

// ByteLen returns the number of bytes covered by Len. It is computed in
// 64 bits so a forged length cannot wrap onto a valid size.
func (s Slice) ByteLen() uint64 {
	return uint64(s.Len) * Int32Size
}

// ByteCap returns the number of bytes covered by Cap, in 64 bits like ByteLen.
func (s Slice) ByteCap() uint64 {
	return uint64(s.Cap) * Int32Size
}

// Encode returns the little-endian memory image of the descriptor.
func (s Slice) Encode() []byte {
	buf := make([]byte, SliceSize)
	binary.LittleEndian.PutUint32(buf[0:4], s.Ptr)
	binary.LittleEndian.PutUint32(buf[4:8], s.Len)
	binary.LittleEndian.PutUint32(buf[8:12], s.Cap)
	binary.LittleEndian.PutUint32(buf[12:16], uint32(s.Tag))
	return buf
}

// DecodeSlice reads a Slice descriptor from its memory image.
func DecodeSlice(buf []byte) (Slice, bool) {
	if len(buf) < SliceSize {
		return Slice{}, false
	}
	return Slice{
		Ptr: binary.LittleEndian.Uint32(buf[0:4]),
		Len: binary.LittleEndian.Uint32(buf[4:8]),
		Cap: binary.LittleEndian.Uint32(buf[8:12]),
		Tag: AllocTag(binary.LittleEndian.Uint32(buf[12:16])),
	}, true
}

// EncodeInt32s returns the little-endian memory image of values.
func EncodeInt32s(values []int32) []byte {
	buf := make([]byte, len(values)*Int32Size)
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*Int32Size:], uint32(v))
	}
	return buf
}

// DecodeInt32s decodes a little-endian run of int32 values.
// Trailing bytes that do not form a whole element are ignored.
func DecodeInt32s(buf []byte) []int32 {
	out := make([]int32, len(buf)/Int32Size)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(buf[i*Int32Size:]))
	}
	return out
}

// EncodeUint32s returns the little-endian memory image of values.
func EncodeUint32s(values []uint32) []byte {
	buf := make([]byte, len(values)*Int32Size)
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*Int32Size:], v)
	}
	return buf
}

// DecodeUint32s decodes a little-endian run of uint32 values.
func DecodeUint32s(buf []byte) []uint32 {
	out := make([]uint32, len(buf)/Int32Size)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(buf[i*Int32Size:])
	}
	return out
}
