// Package bitint provides the power-of-two helpers used for transform and
// buffer sizing. All operations are O(1), allocation free, and safe to call
// from the audio hot path.
package bitint

import "math/bits"

// IsPowerOfTwo reports whether n is a positive power of 2.
// Powers of 2 have exactly one bit set, so n & (n-1) clears it to zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// NextPowerOfTwo returns the smallest power of 2 >= size. Non-positive
// inputs return 1. The size-1 adjustment keeps exact powers of two from
// being doubled.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len64(uint64(size-1))
}
