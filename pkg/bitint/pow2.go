/*
Package bitint provides the power-of-2 helpers used to size STFT windows.

NextPowerOfTwo relies on bits.Len of (size-1): subtracting one first keeps an
exact power of 2 unchanged (8 -> 8) while every other value rounds up to the
next power (9 -> 16).
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size.
// Non-positive sizes return 1.
//
//	Input  Output
//	4      4
//	5      8
//	0      1
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2.
// A power of 2 has one bit set, so n&(n-1) clears it to zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// FitPowerOfTwo rounds size up to a power of 2 and clamps it to [lo, hi].
// lo and hi are expected to be powers of 2 themselves.
func FitPowerOfTwo(size, lo, hi int) int {
	n := NextPowerOfTwo(size)
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
