package entities

// Handle is an opaque reference to guest-owned state.
// Handle 0 is reserved and always invalid.
type Handle uint32

// NullHandle is the invalid handle.
const NullHandle Handle = 0

// IsNull reports whether h is the reserved invalid handle.
func (h Handle) IsNull() bool {
	return h == NullHandle
}
