// Package offset implements cyclic-offset arithmetic for the continuous
// buffer: unsigned, pointer-sized addresses compared by modular distance
// rather than by raw magnitude, so that a cursor may advance forever while
// the underlying ring reuses the same bytes.
package offset

import "math/bits"

// T is a cyclic offset: an address into a ring, valid modulo the ring's
// power-of-two size. Ordering between two offsets is defined by modular
// distance, not by integer comparison.
type T = uintptr

// Half is the midpoint of the offset space. Two offsets a, b are ordered
// a <= b iff (b - a), computed with wraparound, is strictly less than Half.
const Half = T(1) << (bits.UintSize - 1)

// Cmp returns -1, 0, or 1 for a<b, a==b, a>b under cyclic ordering.
func Cmp(a, b T) int {
	if a == b {
		return 0
	}
	if LTE(a, b) {
		return -1
	}
	return 1
}

// LTE reports whether a precedes or equals b in cyclic order: (b-a) < Half.
func LTE(a, b T) bool {
	return b-a < Half
}

// LT reports whether a strictly precedes b in cyclic order.
func LT(a, b T) bool {
	return a != b && LTE(a, b)
}

// Mask maps a cyclic offset to a byte index within a ring of the given
// power-of-two size.
func Mask(o T, ringSize T) T {
	return o & (ringSize - 1)
}

// IsPowerOfTwo reports whether n is a power of two (n > 0).
func IsPowerOfTwo(n T) bool {
	return n > 0 && n&(n-1) == 0
}

// NextPowerOfTwo returns the smallest power of two >= n. n == 0 returns 1.
func NextPowerOfTwo(n T) T {
	if n == 0 {
		return 1
	}
	if IsPowerOfTwo(n) {
		return n
	}
	return T(1) << bits.Len(uint(n))
}

// AlignUp rounds o up to the nearest multiple of alignment (alignment must
// be a power of two).
func AlignUp(o, alignment T) T {
	return (o + alignment - 1) &^ (alignment - 1)
}

// AlignDown rounds o down to the nearest multiple of alignment.
func AlignDown(o, alignment T) T {
	return o &^ (alignment - 1)
}

// AlignedGTE returns the smallest offset >= o that is a multiple of
// alignment, under cyclic ordering (equivalent to AlignUp for offsets that
// have not wrapped past Half relative to o).
func AlignedGTE(o, alignment T) T {
	return AlignUp(o, alignment)
}

// AlignedLTE returns the largest offset <= o that is a multiple of
// alignment.
func AlignedLTE(o, alignment T) T {
	return AlignDown(o, alignment)
}

// AlignedLT returns the largest offset strictly less than o that is a
// multiple of alignment.
func AlignedLT(o, alignment T) T {
	d := AlignDown(o, alignment)
	if d == o {
		return d - alignment
	}
	return d
}
