package malloc

import "math"
import "unsafe"

import "github.com/bnclabs/gomalloc/api"
import "github.com/bnclabs/gomalloc/lib"

// Pool supplies blocks of a single fixed size, carved out of chunks
// obtained from an upstream allocator. Free blocks are tracked as an
// index stack, each entry packs chunk-index<<32 | block-index. Not
// thread safe.
type Pool struct {
	blocksize int64
	chunks    *ChunkManager
	freelist  []uint64
	growth    growthpolicy
	nextchunk int64 // number of blocks in the next chunk
	numblocks int64 // blocks carved out of all chunks

	// stats
	n_allocs int64
	n_frees  int64
	n_grows  int64
}

// NewPool create a pool of `blocksize` blocks. Growth settings are read
// from `setts`, missing keys default to Defaultsettings().
func NewPool(blocksize int64, upstream api.Allocator, setts lib.Settings) *Pool {
	setts = Defaultsettings().Mixin(setts)
	return newpool(blocksize, upstream, newgrowthpolicy(setts))
}

func newpool(blocksize int64, upstream api.Allocator, growth growthpolicy) *Pool {
	if blocksize <= 0 || (blocksize%Alignment) != 0 {
		fmsg := "blocksize %v is not a positive multiple of %v"
		panicerr(fmsg, blocksize, Alignment)
	}
	pool := &Pool{
		blocksize: blocksize,
		chunks:    NewChunkManager(upstream),
		freelist:  make([]uint64, 0, growth.first()),
		growth:    growth,
		nextchunk: growth.first(),
	}
	return pool
}

// Allocate a block from pool, growing it by a new chunk if there are no
// free blocks. Returned block has len and cap equal to Blocksize().
func (pool *Pool) Allocate() ([]byte, error) {
	if len(pool.freelist) == 0 {
		if err := pool.grow(pool.nextchunk); err != nil {
			return nil, err
		}
		pool.nextchunk = pool.growth.next(pool.nextchunk)
	}
	n := len(pool.freelist) - 1
	ref := pool.freelist[n]
	pool.freelist = pool.freelist[:n]

	off := int64(uint32(ref)) * pool.blocksize
	mem := pool.chunks.Chunk(int(ref >> 32))
	block := mem[off : off+pool.blocksize : off+pool.blocksize]
	initblock(block)
	pool.n_allocs++
	return block, nil
}

// Deallocate return `block` to pool. Block must have been obtained from
// this pool, its start shall not be re-sliced.
func (pool *Pool) Deallocate(block []byte) {
	if block == nil {
		panicerr("pool.deallocate(): nil block")
	} else if int64(cap(block)) != pool.blocksize {
		fmsg := "pool.deallocate(): block cap %v, expected %v"
		panicerr(fmsg, cap(block), pool.blocksize)
	}
	addr := lib.Addressof(block)
	chunkidx, off, ok := pool.chunks.Lookup(addr)
	if !ok {
		panicerr("pool.deallocate(): foreign block %x", addr)
	} else if (off % pool.blocksize) != 0 {
		fmsg := "pool.deallocate(): unaligned block %x,%v"
		panicerr(fmsg, off, pool.blocksize)
	}
	ref := (uint64(chunkidx) << 32) | uint64(off/pool.blocksize)
	pool.freelist = append(pool.freelist, ref)
	pool.n_frees++
}

// Release all chunks back to upstream in one pass. Blocks allocated
// before Release shall not be used afterwards.
func (pool *Pool) Release() {
	pool.chunks.Releaseall()
	pool.freelist = pool.freelist[:0]
	pool.nextchunk = pool.growth.first()
	pool.numblocks = 0
}

// Reserve ensure that at least `n` blocks are free, by allocating a
// single chunk for the shortfall.
func (pool *Pool) Reserve(n int64) error {
	if n < 0 {
		panicerr("pool.reserve(): negative count %v", n)
	}
	if shortfall := n - int64(len(pool.freelist)); shortfall > 0 {
		return pool.grow(shortfall)
	}
	return nil
}

func (pool *Pool) grow(nblocks int64) error {
	if nblocks > math.MaxUint32 {
		panicerr("pool.grow(): %v blocks exceed chunk limit", nblocks)
	}
	chunkidx, _, err := pool.chunks.Allocchunk(nblocks, pool.blocksize)
	if err != nil {
		return err
	}
	// push in reverse so that blocks are popped in address order.
	for i := nblocks - 1; i >= 0; i-- {
		ref := (uint64(chunkidx) << 32) | uint64(i)
		pool.freelist = append(pool.freelist, ref)
	}
	pool.numblocks += nblocks
	pool.n_grows++
	return nil
}

//---- statistics

// Blocksize return size of blocks supplied by this pool.
func (pool *Pool) Blocksize() int64 {
	return pool.blocksize
}

// Freeblocks return number of blocks in free list.
func (pool *Pool) Freeblocks() int64 {
	return int64(len(pool.freelist))
}

// Numblocks return number of blocks carved out of chunks.
func (pool *Pool) Numblocks() int64 {
	return pool.numblocks
}

// Numchunks return number of chunks obtained from upstream.
func (pool *Pool) Numchunks() int {
	return pool.chunks.Numchunks()
}

// Allocated return bytes handed out to applications.
func (pool *Pool) Allocated() int64 {
	return (pool.numblocks - int64(len(pool.freelist))) * pool.blocksize
}

// Info return capacity carved into blocks, heap obtained from upstream,
// bytes allocated and memory spent on book keeping.
func (pool *Pool) Info() (capacity, heap, alloc, overhead int64) {
	self := int64(unsafe.Sizeof(*pool))
	flist := int64(cap(pool.freelist)) * int64(unsafe.Sizeof(uint64(0)))
	overhead = self + flist + pool.chunks.overhead()
	capacity = pool.numblocks * pool.blocksize
	return capacity, pool.chunks.Heap(), pool.Allocated(), overhead
}

// Stats return pool statistics.
func (pool *Pool) Stats() map[string]interface{} {
	capacity, heap, alloc, overhead := pool.Info()
	return map[string]interface{}{
		"blocksize":  pool.blocksize,
		"growth":     pool.growth.strategy,
		"maxchunk":   pool.growth.maxchunk,
		"capacity":   capacity,
		"heap":       heap,
		"alloc":      alloc,
		"overhead":   overhead,
		"numchunks":  int64(pool.Numchunks()),
		"freeblocks": pool.Freeblocks(),
		"n_allocs":   pool.n_allocs,
		"n_frees":    pool.n_frees,
		"n_grows":    pool.n_grows,
	}
}
