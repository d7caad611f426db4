package malloc

import "fmt"
import "strings"
import "unsafe"
import "sync/atomic"

import humanize "github.com/dustin/go-humanize"

import "github.com/bnclabs/gomalloc/api"
import "github.com/bnclabs/gomalloc/lib"

// Multipool routes allocation requests to one of several pools by size
// class, pool i supplies blocks of minblock << i bytes. Requests larger
// than the biggest pool go straight to upstream and are remembered in
// a side table. Not thread safe, refer to ConcurrentMultipool.
type Multipool struct {
	name      string
	upstream  api.Allocator
	pools     []*Pool
	minblock  int64
	maxpooled int64
	oversized map[uintptr][]byte // address -> block as returned by upstream
	obytes    int64              // bytes held in oversized blocks

	// stats
	n_zeros     int64
	n_oversized int64
}

// NewMultipool create pools for every size class described by `setts`,
// missing keys default to Defaultsettings().
func NewMultipool(name string, upstream api.Allocator, setts lib.Settings) *Multipool {
	checkupstream(upstream)
	config := newmpoolconfig(setts)
	mp := &Multipool{
		name:      name,
		upstream:  wrapupstream(upstream, config.capacity),
		pools:     make([]*Pool, 0, config.numpools),
		minblock:  config.minblock,
		maxpooled: config.minblock << uint(config.numpools-1),
		oversized: make(map[uintptr][]byte),
	}
	for i := 0; i < config.numpools; i++ {
		size := mp.minblock << uint(i)
		mp.pools = append(mp.pools, newpool(size, mp.upstream, config.growths[i]))
	}
	infof("%v new multipool %v pools %v..%v\n",
		mp.logprefix(), config.numpools, mp.minblock, mp.maxpooled)
	return mp
}

//---- operations

// Allocate a block of `size` bytes. Zero sized requests return a nil
// block without touching pools or upstream. Upstream failures are
// returned unchanged.
func (mp *Multipool) Allocate(size int64) ([]byte, error) {
	if size < 0 {
		panicerr("%v allocate(): negative size %v", mp.logprefix(), size)
	} else if size == 0 {
		atomic.AddInt64(&mp.n_zeros, 1)
		return nil, nil
	}
	if idx := mp.Poolindex(size); idx >= 0 {
		block, err := mp.pools[idx].Allocate()
		if err != nil {
			return nil, err
		}
		return block[:size], nil
	}
	orig, block, err := mp.allocoversized(size)
	if err != nil {
		return nil, err
	}
	mp.recordoversized(orig, block)
	return block, nil
}

// Deallocate a block obtained from this multipool. Nil or zero capacity
// blocks are ignored.
func (mp *Multipool) Deallocate(block []byte) {
	if cap(block) == 0 {
		return
	}
	if idx := mp.deallocindex(block); idx >= 0 {
		mp.pools[idx].Deallocate(block)
		return
	}
	mp.upstream.Deallocate(mp.forgetoversized(block))
}

// Reserve make sure that at least `n` blocks suitable for `size` bytes
// are available without growing the pool. No-op for zero and oversized
// requests.
func (mp *Multipool) Reserve(size, n int64) error {
	if size < 0 || n < 0 {
		panicerr("%v reserve(): invalid args %v,%v", mp.logprefix(), size, n)
	}
	if idx := mp.Poolindex(size); size > 0 && idx >= 0 {
		return mp.pools[idx].Reserve(n)
	}
	return nil
}

// Release every pool and every oversized block back to upstream.
// Multipool can be used after Release.
func (mp *Multipool) Release() {
	for _, pool := range mp.pools {
		pool.Release()
	}
	for addr, orig := range mp.oversized {
		mp.upstream.Deallocate(orig)
		delete(mp.oversized, addr)
	}
	mp.obytes = 0
	debugf("%v released\n", mp.logprefix())
}

//---- size classes

// Poolindex return the index of the pool serving `size` bytes, -1 if
// size is larger than Maxpooled().
func (mp *Multipool) Poolindex(size int64) int {
	if size < 0 {
		panicerr("%v poolindex(): negative size %v", mp.logprefix(), size)
	} else if size > mp.maxpooled {
		return -1
	}
	return classindex(mp.minblock, size)
}

// Numpools return number of size classes.
func (mp *Multipool) Numpools() int {
	return len(mp.pools)
}

// Maxpooled return largest block size served by a pool.
func (mp *Multipool) Maxpooled() int64 {
	return mp.maxpooled
}

// Blocksize return block size of pool `i`.
func (mp *Multipool) Blocksize(i int) int64 {
	return mp.pools[i].Blocksize()
}

// Pool return pool `i`, applications shall not allocate from it directly.
func (mp *Multipool) Pool(i int) *Pool {
	return mp.pools[i]
}

// Upstream return the allocator supplying chunks and oversized blocks,
// a CountingAllocator if "capacity" was configured.
func (mp *Multipool) Upstream() api.Allocator {
	return mp.upstream
}

// Numoversized return number of oversized blocks outstanding.
func (mp *Multipool) Numoversized() int {
	return len(mp.oversized)
}

//---- statistics

// Info return capacity, heap, allocated and overhead summed over all
// pools and oversized blocks.
func (mp *Multipool) Info() (capacity, heap, alloc, overhead int64) {
	for _, pool := range mp.pools {
		c, h, a, o := pool.Info()
		capacity, heap, alloc, overhead = capacity+c, heap+h, alloc+a, overhead+o
	}
	self := int64(unsafe.Sizeof(*mp))
	table := int64(len(mp.oversized)) * int64(unsafe.Sizeof(uintptr(0))+unsafe.Sizeof([]byte{}))
	capacity, heap, alloc = capacity+mp.obytes, heap+mp.obytes, alloc+mp.obytes
	return capacity, heap, alloc, overhead + self + table
}

// Utilization return block sizes and percentage of blocks in use, only
// for pools that hold memory.
func (mp *Multipool) Utilization() ([]int, []float64) {
	ss, zs := make([]int, 0), make([]float64, 0)
	for _, pool := range mp.pools {
		capacity, _, alloc, _ := pool.Info()
		if capacity > 0 {
			ss = append(ss, int(pool.Blocksize()))
			zs = append(zs, (float64(alloc)/float64(capacity))*100)
		}
	}
	return ss, zs
}

// Stats return multipool statistics, per pool statistics are prefixed
// with "pool<blocksize>.".
func (mp *Multipool) Stats() map[string]interface{} {
	capacity, heap, alloc, overhead := mp.Info()
	stats := map[string]interface{}{
		"name":            mp.name,
		"numpools":        int64(len(mp.pools)),
		"minblock":        mp.minblock,
		"maxpooled":       mp.maxpooled,
		"capacity":        capacity,
		"heap":            heap,
		"alloc":           alloc,
		"overhead":        overhead,
		"oversized.count": int64(len(mp.oversized)),
		"oversized.bytes": mp.obytes,
		"n_zeros":         atomic.LoadInt64(&mp.n_zeros),
		"n_oversized":     atomic.LoadInt64(&mp.n_oversized),
	}
	for _, pool := range mp.pools {
		prefix := fmt.Sprintf("pool%v.", pool.Blocksize())
		lib.Mixinstats(stats, prefix, pool.Stats())
	}
	if ca, ok := mp.upstream.(*CountingAllocator); ok {
		lib.Mixinstats(stats, "upstream.", ca.Stats())
	}
	return stats
}

// Log memory summary and utilization, sizes are humanized.
func (mp *Multipool) Log() {
	mp.log(mp.Info, mp.Utilization)
}

func (mp *Multipool) log(
	info func() (int64, int64, int64, int64),
	utilization func() ([]int, []float64)) {

	capacity, heap, alloc, overhead := info()
	fmsg := "%v capacity %v heap %v allocated %v overhead %v\n"
	infof(fmsg, mp.logprefix(),
		humanize.Bytes(uint64(capacity)), humanize.Bytes(uint64(heap)),
		humanize.Bytes(uint64(alloc)), humanize.Bytes(uint64(overhead)))

	outs := []string{}
	fmsg = "  %8v block-size, utilz: %2.2f%%"
	sizes, zs := utilization()
	for i, size := range sizes {
		outs = append(outs, fmt.Sprintf(fmsg, humanize.IBytes(uint64(size)), zs[i]))
	}
	if len(outs) > 0 {
		infof("%v utilization:\n%v\n", mp.logprefix(), strings.Join(outs, "\n"))
	}
}

//---- local functions

func (mp *Multipool) logprefix() string {
	return fmt.Sprintf("MPOOL [%v]", mp.name)
}

// deallocindex route a non-empty block by its capacity, -1 for
// oversized blocks.
func (mp *Multipool) deallocindex(block []byte) int {
	blocksize := int64(cap(block))
	if blocksize > mp.maxpooled {
		return -1
	}
	return classindex(mp.minblock, blocksize)
}

// allocoversized obtain `size` bytes straight from upstream, the
// returned block is capped to size so that it routes back as oversized.
func (mp *Multipool) allocoversized(size int64) (orig, block []byte, err error) {
	if orig, err = mp.upstream.Allocate(size); err != nil {
		return nil, nil, err
	} else if int64(cap(orig)) < size {
		fmsg := "%v upstream returned %v bytes, requested %v"
		panicerr(fmsg, mp.logprefix(), cap(orig), size)
	}
	return orig[:size], orig[:size:size], nil
}

func (mp *Multipool) recordoversized(orig, block []byte) {
	mp.oversized[lib.Addressof(block)] = orig
	mp.obytes += int64(len(orig))
	atomic.AddInt64(&mp.n_oversized, 1)
}

func (mp *Multipool) forgetoversized(block []byte) []byte {
	addr := lib.Addressof(block)
	orig, ok := mp.oversized[addr]
	if !ok {
		errorf("%v deallocate(): unknown block %x\n", mp.logprefix(), addr)
		panicerr("%v deallocate(): unknown block %x", mp.logprefix(), addr)
	}
	delete(mp.oversized, addr)
	mp.obytes -= int64(len(orig))
	return orig
}
