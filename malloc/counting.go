package malloc

import "sync"
import "sync/atomic"

import "github.com/bnclabs/gomalloc/api"
import "github.com/bnclabs/gomalloc/lib"

// CountingAllocator decorates an upstream allocator, counting every
// allocation and deallocation and optionally limiting the bytes in use.
// Deallocating a block it never handed out is a panic. Thread safe if
// upstream is thread safe.
type CountingAllocator struct {
	// 64-bit aligned stats
	n_allocs   int64
	n_deallocs int64
	n_failed   int64
	inuse      int64 // bytes in use
	peak       int64

	upstream api.Allocator
	limit    int64 // 0 for unlimited

	mu     sync.Mutex
	blocks map[uintptr]int64 // address -> size
}

// NewCountingAllocator wrap `upstream`, if `limit` is greater than zero,
// allocations that would take bytes in use beyond limit fail with
// api.ErrorOutofMemory.
func NewCountingAllocator(upstream api.Allocator, limit int64) *CountingAllocator {
	checkupstream(upstream)
	if limit < 0 {
		panicerr("counting allocator limit %v must be >= 0", limit)
	}
	return &CountingAllocator{
		upstream: upstream,
		limit:    limit,
		blocks:   make(map[uintptr]int64),
	}
}

// Allocate `size` bytes from upstream.
func (ca *CountingAllocator) Allocate(size int64) ([]byte, error) {
	if size < 0 {
		panicerr("counting.allocate(): negative size %v", size)
	} else if size == 0 {
		return nil, nil
	}
	inuse := atomic.AddInt64(&ca.inuse, size)
	if ca.limit > 0 && inuse > ca.limit {
		atomic.AddInt64(&ca.inuse, -size)
		atomic.AddInt64(&ca.n_failed, 1)
		warnf("malloc counting: allocate %v exceeds limit %v\n", size, ca.limit)
		return nil, api.ErrorOutofMemory
	}
	block, err := ca.upstream.Allocate(size)
	if err != nil {
		atomic.AddInt64(&ca.inuse, -size)
		atomic.AddInt64(&ca.n_failed, 1)
		return nil, err
	}

	ca.mu.Lock()
	ca.blocks[lib.Addressof(block)] = size
	if inuse > ca.peak {
		ca.peak = inuse
	}
	ca.mu.Unlock()

	atomic.AddInt64(&ca.n_allocs, 1)
	return block, nil
}

// Deallocate `block` to upstream.
func (ca *CountingAllocator) Deallocate(block []byte) {
	if cap(block) == 0 {
		return
	}
	addr := lib.Addressof(block)
	ca.mu.Lock()
	size, ok := ca.blocks[addr]
	delete(ca.blocks, addr)
	ca.mu.Unlock()
	if !ok {
		panicerr("counting.deallocate(): unknown block %x", addr)
	}

	ca.upstream.Deallocate(block)
	atomic.AddInt64(&ca.inuse, -size)
	atomic.AddInt64(&ca.n_deallocs, 1)
}

// Numallocs return number of successful allocations.
func (ca *CountingAllocator) Numallocs() int64 {
	return atomic.LoadInt64(&ca.n_allocs)
}

// Numdeallocs return number of deallocations.
func (ca *CountingAllocator) Numdeallocs() int64 {
	return atomic.LoadInt64(&ca.n_deallocs)
}

// Numblocks return number of blocks in use.
func (ca *CountingAllocator) Numblocks() int64 {
	ca.mu.Lock()
	defer ca.mu.Unlock()
	return int64(len(ca.blocks))
}

// Inuse return number of bytes in use.
func (ca *CountingAllocator) Inuse() int64 {
	return atomic.LoadInt64(&ca.inuse)
}

// Peak return maximum bytes in use at any point.
func (ca *CountingAllocator) Peak() int64 {
	ca.mu.Lock()
	defer ca.mu.Unlock()
	return ca.peak
}

// Limit return the configured byte limit, 0 if unlimited.
func (ca *CountingAllocator) Limit() int64 {
	return ca.limit
}

// Stats return allocation counts.
func (ca *CountingAllocator) Stats() map[string]interface{} {
	return map[string]interface{}{
		"n_allocs":   ca.Numallocs(),
		"n_deallocs": ca.Numdeallocs(),
		"n_failed":   atomic.LoadInt64(&ca.n_failed),
		"n_blocks":   ca.Numblocks(),
		"inuse":      ca.Inuse(),
		"peak":       ca.Peak(),
		"limit":      ca.limit,
	}
}
