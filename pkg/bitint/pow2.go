/*
Package bitint provides the power-of-two helpers used to validate and
suggest analysis window sizes. The transform is planned once per session
for a power-of-two length, so configuration checks go through here.

All functions are O(1), allocation free and safe to call anywhere.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size. Non-positive
// sizes return 1.
//
// The subtraction of one before taking the bit length keeps exact powers
// of two unchanged:
//
//	Input  Output
//	1000   1024
//	1024   1024
//	0      1
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// PrevPowerOfTwo returns the largest power of 2 <= size. Non-positive
// sizes return 0.
func PrevPowerOfTwo(size int) int {
	if size <= 0 {
		return 0
	}
	return 1 << (bits.Len(uint(size)) - 1)
}

// IsPowerOfTwo reports whether n is a positive power of 2. A power of two
// has exactly one bit set, so n & (n-1) clears it to zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// NearestPowerOfTwo returns whichever of PrevPowerOfTwo(size) and
// NextPowerOfTwo(size) is closer, preferring the larger on a tie. It is
// used to suggest a valid window size in configuration errors.
func NearestPowerOfTwo(size int) int {
	if size <= 1 {
		return 1
	}
	lo, hi := PrevPowerOfTwo(size), NextPowerOfTwo(size)
	if size-lo < hi-size {
		return lo
	}
	return hi
}
