package malloc

import "github.com/bnclabs/gomalloc/api"
import "github.com/bnclabs/gomalloc/lib"

// AligningAllocator wraps an allocator whose blocks are naturally
// aligned to their size, and rounds every request up to a multiple of
// `alignment` so that returned blocks are aligned to it.
type AligningAllocator struct {
	mask int64
	held api.Allocator
}

// NewAligningAllocator create an allocator over `held`, alignment shall
// be a positive power of two.
func NewAligningAllocator(alignment int64, held api.Allocator) *AligningAllocator {
	if !lib.Ispow2(alignment) {
		panicerr("alignment %v is not a power of two", alignment)
	}
	checkupstream(held)
	return &AligningAllocator{mask: alignment - 1, held: held}
}

// Allocate `size` bytes from held allocator, aligned to Alignment().
// Returned block has len size, cap is as supplied by held allocator.
func (aa *AligningAllocator) Allocate(size int64) ([]byte, error) {
	if size < 0 {
		panicerr("aligning.allocate(): negative size %v", size)
	} else if size == 0 {
		return nil, nil
	}
	block, err := aa.held.Allocate((size + aa.mask) &^ aa.mask)
	if err != nil {
		return nil, err
	}
	if addr := lib.Addressof(block); (addr & uintptr(aa.mask)) != 0 {
		panicerr("aligning.allocate(): %x not aligned to %v", addr, aa.mask+1)
	}
	return block[:size], nil
}

// Deallocate pass `block` to held allocator.
func (aa *AligningAllocator) Deallocate(block []byte) {
	aa.held.Deallocate(block)
}

// Alignment return the guaranteed alignment.
func (aa *AligningAllocator) Alignment() int64 {
	return aa.mask + 1
}

// Held return the wrapped allocator.
func (aa *AligningAllocator) Held() api.Allocator {
	return aa.held
}
