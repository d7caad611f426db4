//go:build cgo
// +build cgo

package malloc

//#include <stdlib.h>
import "C"

import "sync"
import "unsafe"

import "github.com/bnclabs/gomalloc/api"
import "github.com/bnclabs/gomalloc/lib"

// MallocAllocator supplies memory from C heap, invisible to the garbage
// collector. Blocks are naturally aligned like HeapAllocator. Memory
// shall be explicitly deallocated, Release frees whatever is left.
// Thread safe.
type MallocAllocator struct {
	mu     sync.Mutex
	blocks map[uintptr]cblock
	inuse  int64
}

type cblock struct {
	ptr  unsafe.Pointer
	size int64
}

// NewMallocAllocator create an allocator over C heap.
func NewMallocAllocator() *MallocAllocator {
	return &MallocAllocator{blocks: make(map[uintptr]cblock)}
}

// Allocate `size` bytes using posix_memalign.
func (ma *MallocAllocator) Allocate(size int64) ([]byte, error) {
	if size < 0 {
		panicerr("malloc.allocate(): negative size %v", size)
	} else if size == 0 {
		return nil, nil
	}
	align := lib.Naturalalign(size, Maxalignment)
	if align < Alignment {
		align = Alignment
	}
	var ptr unsafe.Pointer
	if rc := C.posix_memalign(&ptr, C.size_t(align), C.size_t(size)); rc != 0 {
		errorf("malloc: posix_memalign(%v, %v) failed: %v\n", align, size, rc)
		return nil, api.ErrorOutofMemory
	}
	ma.mu.Lock()
	ma.blocks[uintptr(ptr)] = cblock{ptr: ptr, size: size}
	ma.inuse += size
	ma.mu.Unlock()
	return unsafe.Slice((*byte)(ptr), int(size)), nil
}

// Deallocate `block` back to C heap.
func (ma *MallocAllocator) Deallocate(block []byte) {
	if cap(block) == 0 {
		return
	}
	addr := lib.Addressof(block)
	ma.mu.Lock()
	cb, ok := ma.blocks[addr]
	delete(ma.blocks, addr)
	ma.inuse -= cb.size
	ma.mu.Unlock()
	if !ok {
		panicerr("malloc.deallocate(): unknown block %x", addr)
	}
	C.free(cb.ptr)
}

// Inuse return bytes allocated and not yet freed.
func (ma *MallocAllocator) Inuse() int64 {
	ma.mu.Lock()
	defer ma.mu.Unlock()
	return ma.inuse
}

// Release free every outstanding block.
func (ma *MallocAllocator) Release() {
	ma.mu.Lock()
	defer ma.mu.Unlock()
	for addr, cb := range ma.blocks {
		C.free(cb.ptr)
		delete(ma.blocks, addr)
	}
	ma.inuse = 0
}
