package abi

import "fmt"

// PtrHighBits is the shift of the pointer half of a packed value.
const PtrHighBits = 32

// PackPtrLen packs a pointer and length into a single uint64.
// Pointer is stored in the high 32 bits, length in the low 32 bits.
// Panics if ptr is 0 and length > 0, indicating an invalid state.
func PackPtrLen(ptr, length uint32) uint64 {
	if ptr == 0 && length > 0 {
		panic(fmt.Sprintf("abi: invalid pack - null pointer (0x0) with non-zero length (%d)", length))
	}
	return (uint64(ptr) << PtrHighBits) | uint64(length)
}

// UnpackPtrLen unpacks a uint64 into its original pointer and length.
// Panics if ptr is 0 and length > 0, indicating an invalid packed value.
func UnpackPtrLen(packed uint64) (ptr, length uint32) {
	ptr = uint32(packed >> PtrHighBits) //nolint:gosec // G115: Packed format stores 32-bit values
	length = uint32(packed)             //nolint:gosec // G115: Packed format stores 32-bit values
	if ptr == 0 && length > 0 {
		panic(fmt.Sprintf("abi: invalid unpack - null pointer (0x0) with non-zero length (%d)", length))
	}
	return ptr, length
}

// PackStats packs an allocation count and byte total the same way.
// Unlike PackPtrLen a zero high half is valid here.
func PackStats(count, bytes int) uint64 {
	return (uint64(uint32(count)) << PtrHighBits) | uint64(uint32(bytes)) //nolint:gosec // G115: bounded by the ledger cap
}

// UnpackStats reverses PackStats.
func UnpackStats(packed uint64) (count, bytes int) {
	return int(uint32(packed >> PtrHighBits)), int(uint32(packed)) //nolint:gosec // G115: Packed format stores 32-bit values
}
