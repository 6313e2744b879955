// Package entities provides the value types that cross the guest/host boundary.
// Layout-bearing types (Tuple, Slice) document their exact byte layout in guest
// linear memory; everything else is plain Go data shared by host and guest code.
package entities
