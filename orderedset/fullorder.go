package orderedset

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// RANGE is the fixed byte width of a single level's order key.
// DEEP is the maximum commitment depth. The protocol constant is
// DEEP*RANGE <= 8 so a FullOrder always packs into a uint64.
const (
	RANGE = 2
	DEEP  = 4
)

// ErrTooDeep is returned when an operation would exceed DEEP levels.
var ErrTooDeep = errors.New("commitment depth exceeds DEEP")

// FullOrder is the concatenation of per-level order bytes from the
// root to the current depth: at most DEEP*RANGE == 8 bytes.
type FullOrder []byte

// Connect appends a level's order bytes to the FullOrder.
func (f *FullOrder) Connect(next []byte) {
	*f = append(*f, next...)
}

// Prefix returns the leading depth*RANGE bytes, i.e. the FullOrder as
// it stood after `depth` levels were appended.
func (f FullOrder) Prefix(depth int) FullOrder {
	n := depth * RANGE
	if n > len(f) {
		n = len(f)
	}
	return f[:n]
}

// ToUint64 reversibly packs the FullOrder into a uint64, left-aligned
// in the high-order bytes so that two FullOrders compare the same way
// as their packed integers.
func (f FullOrder) ToUint64() (uint64, error) {
	if len(f) > DEEP*RANGE {
		return 0, ErrTooDeep
	}
	var buf [8]byte
	copy(buf[:], f)
	return binary.BigEndian.Uint64(buf[:]), nil
}

// FromUint64 unpacks the leading depth*RANGE bytes of x into a
// FullOrder. FromUint64(ToUint64(bytes), depth).Equal(bytes[:depth*RANGE])
// for every valid bytes.
func FromUint64(x uint64, depth int) FullOrder {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], x)
	n := depth * RANGE
	if n > 8 {
		n = 8
	}
	out := make([]byte, n)
	copy(out, buf[:n])
	return out
}

// Equal reports whether two FullOrders hold the same bytes.
func (f FullOrder) Equal(other FullOrder) bool {
	if len(f) != len(other) {
		return false
	}
	for i := range f {
		if f[i] != other[i] {
			return false
		}
	}
	return true
}
