//go:build linux || darwin
// +build linux darwin

package malloc

import "os"
import "sync"

import "golang.org/x/sys/unix"

import "github.com/bnclabs/gomalloc/lib"

// MmapAllocator supplies anonymous private mappings from the operating
// system, every block is page aligned and its size rounded up to a page.
// Suitable as upstream for large chunks. Thread safe.
type MmapAllocator struct {
	pagesize int64

	mu       sync.Mutex
	mappings map[uintptr][]byte // address -> mapping as returned by mmap
	mapped   int64
}

// NewMmapAllocator create an allocator over anonymous mappings.
func NewMmapAllocator() *MmapAllocator {
	return &MmapAllocator{
		pagesize: int64(os.Getpagesize()),
		mappings: make(map[uintptr][]byte),
	}
}

// Allocate `size` bytes, returned block's cap is size rounded up to
// page size. Errors from mmap are returned as is.
func (ma *MmapAllocator) Allocate(size int64) ([]byte, error) {
	if size < 0 {
		panicerr("mmap.allocate(): negative size %v", size)
	} else if size == 0 {
		return nil, nil
	}
	length := lib.Alignup(size, ma.pagesize)
	prot := unix.PROT_READ | unix.PROT_WRITE
	flags := unix.MAP_ANON | unix.MAP_PRIVATE
	mapping, err := unix.Mmap(-1, 0, int(length), prot, flags)
	if err != nil {
		errorf("malloc: mmap(%v) failed: %v\n", length, err)
		return nil, err
	}
	ma.mu.Lock()
	ma.mappings[lib.Addressof(mapping)] = mapping
	ma.mapped += length
	ma.mu.Unlock()
	return mapping[:size], nil
}

// Deallocate unmap `block`.
func (ma *MmapAllocator) Deallocate(block []byte) {
	if cap(block) == 0 {
		return
	}
	addr := lib.Addressof(block)
	ma.mu.Lock()
	mapping, ok := ma.mappings[addr]
	if ok {
		delete(ma.mappings, addr)
		ma.mapped -= int64(len(mapping))
	}
	ma.mu.Unlock()
	if !ok {
		panicerr("mmap.deallocate(): unknown block %x", addr)
	}
	if err := unix.Munmap(mapping); err != nil {
		panicerr("mmap.deallocate(): munmap %x: %v", addr, err)
	}
}

// Pagesize return the granularity of mappings.
func (ma *MmapAllocator) Pagesize() int64 {
	return ma.pagesize
}

// Mapped return bytes currently mapped.
func (ma *MmapAllocator) Mapped() int64 {
	ma.mu.Lock()
	defer ma.mu.Unlock()
	return ma.mapped
}

// Release unmap every outstanding mapping.
func (ma *MmapAllocator) Release() {
	ma.mu.Lock()
	defer ma.mu.Unlock()
	for addr, mapping := range ma.mappings {
		if err := unix.Munmap(mapping); err != nil {
			warnf("malloc: munmap %x: %v\n", addr, err)
		}
		delete(ma.mappings, addr)
	}
	ma.mapped = 0
}
