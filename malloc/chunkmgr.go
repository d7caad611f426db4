package malloc

import "sort"
import "unsafe"

import "github.com/bnclabs/gomalloc/api"
import "github.com/bnclabs/gomalloc/lib"

// chunk descriptor, a contiguous memory region obtained from upstream.
type chunk struct {
	orig    []byte // as returned by upstream, handed back on release
	block   []byte // nblocks*blocksize usable bytes
	base    uintptr
	nblocks int64
}

// ChunkManager obtains raw chunks of memory from an upstream allocator
// and remembers them for bulk release. Chunk indices are stable until
// the next Releaseall(). Not thread safe.
type ChunkManager struct {
	upstream api.Allocator
	chunks   []chunk
	order    []int // chunk indices sorted by base address
	heap     int64
}

// NewChunkManager create a chunk manager over `upstream`.
func NewChunkManager(upstream api.Allocator) *ChunkManager {
	checkupstream(upstream)
	return &ChunkManager{
		upstream: upstream,
		chunks:   make([]chunk, 0, 8),
		order:    make([]int, 0, 8),
	}
}

// Allocchunk obtain a chunk of nblocks*blocksize bytes from upstream.
// Upstream failures are returned unchanged.
func (cm *ChunkManager) Allocchunk(
	nblocks, blocksize int64) (chunkidx int, block []byte, err error) {

	if nblocks <= 0 || blocksize <= 0 {
		panicerr("invalid chunk dimension %v x %v", nblocks, blocksize)
	}
	size := nblocks * blocksize
	orig, err := cm.upstream.Allocate(size)
	if err != nil {
		return -1, nil, err
	} else if int64(cap(orig)) < size {
		fmsg := "upstream returned %v bytes, requested %v"
		panicerr(fmsg, cap(orig), size)
	} else if !lib.Isaligned(orig, Alignment) {
		fmsg := "upstream memory %x is not %v byte aligned"
		panicerr(fmsg, lib.Addressof(orig), Alignment)
	}

	block = orig[:size:size]
	chunkidx = len(cm.chunks)
	c := chunk{orig: orig, block: block, base: lib.Addressof(block), nblocks: nblocks}
	cm.chunks = append(cm.chunks, c)
	cm.heap += size

	// keep order sorted on base address.
	at := sort.Search(len(cm.order), func(i int) bool {
		return cm.chunks[cm.order[i]].base > c.base
	})
	cm.order = append(cm.order, 0)
	copy(cm.order[at+1:], cm.order[at:])
	cm.order[at] = chunkidx

	debugf("malloc chunkmgr: chunk %v %v x %v at %x\n", chunkidx, nblocks, blocksize, c.base)
	return chunkidx, block, nil
}

// Releaseall return every chunk to upstream and forget them.
func (cm *ChunkManager) Releaseall() {
	for i := range cm.chunks {
		cm.upstream.Deallocate(cm.chunks[i].orig)
		cm.chunks[i] = chunk{}
	}
	cm.chunks, cm.order = cm.chunks[:0], cm.order[:0]
	cm.heap = 0
}

// Lookup the chunk containing address `addr`, return the chunk index and
// the byte offset of `addr` within that chunk.
func (cm *ChunkManager) Lookup(addr uintptr) (chunkidx int, offset int64, ok bool) {
	// first chunk whose base is beyond addr, candidate is the one before.
	at := sort.Search(len(cm.order), func(i int) bool {
		return cm.chunks[cm.order[i]].base > addr
	})
	if at == 0 {
		return -1, 0, false
	}
	chunkidx = cm.order[at-1]
	c := &cm.chunks[chunkidx]
	if offset = int64(addr - c.base); offset >= int64(len(c.block)) {
		return -1, 0, false
	}
	return chunkidx, offset, true
}

// Chunk return the usable memory of chunk `idx`.
func (cm *ChunkManager) Chunk(idx int) []byte {
	return cm.chunks[idx].block
}

// Chunkblocks return number of blocks carved out of chunk `idx`.
func (cm *ChunkManager) Chunkblocks(idx int) int64 {
	return cm.chunks[idx].nblocks
}

// Numchunks return number of chunks held.
func (cm *ChunkManager) Numchunks() int {
	return len(cm.chunks)
}

// Heap return total bytes obtained from upstream.
func (cm *ChunkManager) Heap() int64 {
	return cm.heap
}

// Upstream return the allocator that supplies chunks.
func (cm *ChunkManager) Upstream() api.Allocator {
	return cm.upstream
}

func (cm *ChunkManager) overhead() int64 {
	self := int64(unsafe.Sizeof(*cm))
	descs := int64(cap(cm.chunks)) * int64(unsafe.Sizeof(chunk{}))
	return self + descs + int64(cap(cm.order))*int64(unsafe.Sizeof(int(0)))
}
