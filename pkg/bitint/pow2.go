// SPDX-License-Identifier: MIT
/*
Package bitint provides the power-of-two helpers used when sizing analysis
windows. The FFT accepts any window length, but power-of-two lengths take
the fast radix-2 path, so configuration warns when a size is not one.

Usage:

	if !bitint.IsPowerOfTwo(windowSize) {
		suggested := bitint.NextPowerOfTwo(windowSize) // 1000 -> 1024
	}

NextPowerOfTwo subtracts one before measuring the bit length. Without that,
an exact power of two would be doubled: bits.Len(8) is 4 and 1<<4 is 16,
while bits.Len(7) is 3 and 1<<3 is 8.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of two >= size. Sizes below one
// return 1.
//
//	Input  Output
//	4      4
//	5      8
//	0      1
//	-1     1
func NextPowerOfTwo(size int) int {
	if size <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of two. Powers of two
// have a single bit set, so n&(n-1) clears it and leaves zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// PreviousPowerOfTwo returns the largest power of two <= size, or 0 when
// size is below one. Used to suggest a smaller window when a configured size
// would exceed the available samples.
func PreviousPowerOfTwo(size int) int {
	if size < 1 {
		return 0
	}
	return 1 << (bits.Len(uint(size)) - 1)
}
