package malloc

import "fmt"

import "github.com/bnclabs/gomalloc/api"
import "github.com/bnclabs/gomalloc/lib"

func panicerr(fmsg string, args ...interface{}) {
	panic(fmt.Errorf(fmsg, args...))
}

var poolblkinit = make([]byte, 1024)
var zeroblkinit = make([]byte, 1024)

func init() {
	for i := 0; i < len(poolblkinit); i++ {
		poolblkinit[i] = 0xff
	}
}

// fillblock with repeated copies of `pattern`.
func fillblock(block, pattern []byte) {
	for len(block) > 0 {
		n := copy(block, pattern)
		block = block[n:]
	}
}

// checkupstream panics on a nil upstream, there is no default allocator.
func checkupstream(upstream api.Allocator) {
	if upstream == nil {
		panicerr("upstream allocator is nil")
	}
}

// wrapupstream with a CountingAllocator when capacity is bounded.
func wrapupstream(upstream api.Allocator, capacity int64) api.Allocator {
	if capacity > 0 {
		return NewCountingAllocator(upstream, capacity)
	}
	return upstream
}

// classindex return the index of the smallest size class, starting
// from `minblock` and doubling, that can hold `size` bytes.
func classindex(minblock, size int64) int {
	return lib.Ceillog2((size + minblock - 1) / minblock)
}
