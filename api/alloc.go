// Package api define types and interfaces common to all allocators
// implemented by this module.
package api

import "errors"

// ErrorOutofMemory is returned when an allocator cannot supply the
// requested memory, either because a configured capacity is exhausted or
// because the operating system refused the request.
var ErrorOutofMemory = errors.New("malloc.outofmemory")

// Allocator is the minimal memory supplier. Pools and multipools obtain
// their raw memory from an Allocator, and themselves implement it, so
// allocators can be stacked.
//
// Allocate returns a block of at least `size` bytes, where len(block)
// is size. Allocate(0) may return nil. Deallocate must be called with a
// block obtained from the same allocator, or nil, which is ignored.
type Allocator interface {
	// Allocate a block of `size` bytes.
	Allocate(size int64) ([]byte, error)

	// Deallocate block back to the allocator.
	Deallocate(block []byte)
}

// Mallocer interface for pooled memory management.
type Mallocer interface {
	Allocator

	// Reserve enough free blocks to serve `n` allocations of `size`
	// bytes without going upstream.
	Reserve(size, n int64) error

	// Release all memory back to the upstream allocator in one pass.
	// Blocks handed out before Release must not be used afterwards.
	Release()

	// Numpools managed by this allocator.
	Numpools() int

	// Maxpooled return the largest size served from a pool, larger
	// requests go directly to the upstream allocator.
	Maxpooled() int64

	// Info of memory accounting for this allocator.
	Info() (capacity, heap, alloc, overhead int64)

	// Utilization map of block-size and its pool utilization.
	Utilization() ([]int, []float64)

	// Stats return a map of statistics.
	Stats() map[string]interface{}
}
