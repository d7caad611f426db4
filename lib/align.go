package lib

import "math/bits"
import "unsafe"

// Ispow2 return true if `n` is a positive power of two.
func Ispow2(n int64) bool {
	return n > 0 && (n&(n-1)) == 0
}

// Alignup round `n` up to the next multiple of `align`, which must be a
// power of two.
func Alignup(n, align int64) int64 {
	mask := align - 1
	return (n + mask) &^ mask
}

// Naturalalign return the largest power of two that divides `n`, capped at
// `limit`. For n <= 0 return 1.
func Naturalalign(n, limit int64) int64 {
	if n <= 0 {
		return 1
	}
	align := int64(1) << uint(bits.TrailingZeros64(uint64(n)))
	if align > limit {
		return limit
	}
	return align
}

// Ceillog2 return the smallest `i` such that 1<<i >= n, for n >= 1.
func Ceillog2(n int64) int {
	if n <= 1 {
		return 0
	}
	return bits.Len64(uint64(n - 1))
}

// Addressof return the address of the first byte backing `block`, zero
// for a block without capacity.
func Addressof(block []byte) uintptr {
	if cap(block) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(block)))
}

// Isaligned return true if `block` starts at a multiple of `align`.
func Isaligned(block []byte, align int64) bool {
	return (Addressof(block) & uintptr(align-1)) == 0
}
