package malloc

import "sync/atomic"

import "github.com/bnclabs/gomalloc/lib"

// HeapAllocator supplies memory from Go heap. Blocks are naturally
// aligned, that is, to the largest power of two dividing the requested
// size, capped at Maxalignment. Memory is reclaimed by the garbage
// collector once unreferenced, Deallocate is a no-op. Thread safe.
type HeapAllocator struct {
	n_allocs   int64
	n_shifted  int64 // allocations that had to be over-allocated
	n_bytes    int64
	n_deallocs int64
}

// NewHeapAllocator create a Go heap allocator.
func NewHeapAllocator() *HeapAllocator {
	return &HeapAllocator{}
}

// Allocate `size` bytes aligned to its natural alignment.
func (ha *HeapAllocator) Allocate(size int64) ([]byte, error) {
	if size < 0 {
		panicerr("heap.allocate(): negative size %v", size)
	} else if size == 0 {
		return nil, nil
	}
	align := lib.Naturalalign(size, Maxalignment)
	if align < Alignment {
		align = Alignment
	}
	atomic.AddInt64(&ha.n_allocs, 1)
	atomic.AddInt64(&ha.n_bytes, size)

	block := make([]byte, size)
	if lib.Isaligned(block, align) {
		return block, nil
	}
	// over allocate and shift to the next aligned address.
	atomic.AddInt64(&ha.n_shifted, 1)
	buf := make([]byte, size+align-1)
	addr := lib.Addressof(buf)
	off := int64((uintptr(align) - (addr & uintptr(align-1))) & uintptr(align-1))
	return buf[off : off+size : off+size], nil
}

// Deallocate is a no-op, memory is garbage collected.
func (ha *HeapAllocator) Deallocate(block []byte) {
	if cap(block) > 0 {
		atomic.AddInt64(&ha.n_deallocs, 1)
	}
}

// Stats return allocation counts.
func (ha *HeapAllocator) Stats() map[string]interface{} {
	return map[string]interface{}{
		"n_allocs":   atomic.LoadInt64(&ha.n_allocs),
		"n_shifted":  atomic.LoadInt64(&ha.n_shifted),
		"n_bytes":    atomic.LoadInt64(&ha.n_bytes),
		"n_deallocs": atomic.LoadInt64(&ha.n_deallocs),
	}
}
