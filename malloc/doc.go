// Package malloc supplies pooled memory allocators, with a limited scope:
//
//   - Memory is handed out as []byte blocks, len is the requested size
//     and cap is the size of the block backing it. Applications shall
//     return the same slice, re-slicing its tail is fine.
//   - Pool supplies blocks of one fixed size, carved out of chunks that
//     are obtained from an upstream allocator. Chunks grow geometrically
//     until a configured maximum, or stay constant.
//   - Multipool routes requests to one of several pools, pool i serving
//     minblock << i bytes, and requests larger than the biggest pool
//     straight to upstream. Every pool can have its own growth settings.
//   - Release gives every chunk back to upstream in one pass, blocks are
//     never returned to upstream individually.
//   - There is no default allocator, every constructor takes an explicit
//     upstream allocator.
//   - Pool and Multipool are not thread safe, ConcurrentMultipool is.
//   - Blocks supplied by pools are aligned to at least Alignment bytes.
//
// Upstream allocators supplied by this package are HeapAllocator,
// MallocAllocator (with cgo), MmapAllocator (linux, darwin) and
// CountingAllocator which decorates another allocator with counters
// and an optional limit. AligningAllocator rounds requests to a
// configured alignment over any naturally aligning allocator.
package malloc
