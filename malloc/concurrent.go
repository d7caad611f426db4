package malloc

import "sync"

import "github.com/bnclabs/gomalloc/api"
import "github.com/bnclabs/gomalloc/lib"

// ConcurrentMultipool is a Multipool safe for concurrent use. Every pool
// is guarded by its own mutex, so requests for different size classes
// never contend. Oversized blocks are tracked under a separate mutex.
// Upstream allocator must be safe for concurrent use.
type ConcurrentMultipool struct {
	mp    *Multipool
	locks []sync.Mutex
	omu   sync.Mutex // guards mp.oversized and mp.obytes
}

// NewConcurrentMultipool create a thread safe multipool, settings are
// same as for NewMultipool.
func NewConcurrentMultipool(
	name string, upstream api.Allocator, setts lib.Settings) *ConcurrentMultipool {

	mp := NewMultipool(name, upstream, setts)
	return &ConcurrentMultipool{mp: mp, locks: make([]sync.Mutex, len(mp.pools))}
}

// Allocate a block of `size` bytes, refer to Multipool.Allocate.
func (cmp *ConcurrentMultipool) Allocate(size int64) ([]byte, error) {
	mp := cmp.mp
	if size <= 0 {
		return mp.Allocate(size)
	}
	if idx := mp.Poolindex(size); idx >= 0 {
		block, err := cmp.poolallocate(idx)
		if err != nil {
			return nil, err
		}
		return block[:size], nil
	}
	// upstream is called without holding any lock.
	orig, block, err := mp.allocoversized(size)
	if err != nil {
		return nil, err
	}
	cmp.omu.Lock()
	mp.recordoversized(orig, block)
	cmp.omu.Unlock()
	return block, nil
}

func (cmp *ConcurrentMultipool) poolallocate(idx int) ([]byte, error) {
	cmp.locks[idx].Lock()
	defer cmp.locks[idx].Unlock()
	return cmp.mp.pools[idx].Allocate()
}

// Deallocate a block obtained from this multipool, refer to
// Multipool.Deallocate.
func (cmp *ConcurrentMultipool) Deallocate(block []byte) {
	mp := cmp.mp
	if cap(block) == 0 {
		return
	}
	if idx := mp.deallocindex(block); idx >= 0 {
		cmp.locks[idx].Lock()
		defer cmp.locks[idx].Unlock()
		mp.pools[idx].Deallocate(block)
		return
	}
	orig := func() []byte {
		cmp.omu.Lock()
		defer cmp.omu.Unlock()
		return mp.forgetoversized(block)
	}()
	mp.upstream.Deallocate(orig)
}

// Reserve refer to Multipool.Reserve.
func (cmp *ConcurrentMultipool) Reserve(size, n int64) error {
	mp := cmp.mp
	if size < 0 || n < 0 {
		panicerr("%v reserve(): invalid args %v,%v", mp.logprefix(), size, n)
	}
	if idx := mp.Poolindex(size); size > 0 && idx >= 0 {
		cmp.locks[idx].Lock()
		defer cmp.locks[idx].Unlock()
		return mp.pools[idx].Reserve(n)
	}
	return nil
}

// Release every pool and oversized block back to upstream. All pool
// locks are held while releasing.
func (cmp *ConcurrentMultipool) Release() {
	cmp.lockall()
	defer cmp.unlockall()
	cmp.mp.Release()
}

// Poolindex refer to Multipool.Poolindex.
func (cmp *ConcurrentMultipool) Poolindex(size int64) int {
	return cmp.mp.Poolindex(size)
}

// Numpools refer to Multipool.Numpools.
func (cmp *ConcurrentMultipool) Numpools() int {
	return cmp.mp.Numpools()
}

// Maxpooled refer to Multipool.Maxpooled.
func (cmp *ConcurrentMultipool) Maxpooled() int64 {
	return cmp.mp.Maxpooled()
}

// Blocksize refer to Multipool.Blocksize.
func (cmp *ConcurrentMultipool) Blocksize(i int) int64 {
	return cmp.mp.Blocksize(i)
}

// Upstream refer to Multipool.Upstream.
func (cmp *ConcurrentMultipool) Upstream() api.Allocator {
	return cmp.mp.Upstream()
}

// Info refer to Multipool.Info.
func (cmp *ConcurrentMultipool) Info() (capacity, heap, alloc, overhead int64) {
	cmp.lockall()
	defer cmp.unlockall()
	return cmp.mp.Info()
}

// Utilization refer to Multipool.Utilization.
func (cmp *ConcurrentMultipool) Utilization() ([]int, []float64) {
	cmp.lockall()
	defer cmp.unlockall()
	return cmp.mp.Utilization()
}

// Stats refer to Multipool.Stats.
func (cmp *ConcurrentMultipool) Stats() map[string]interface{} {
	cmp.lockall()
	defer cmp.unlockall()
	return cmp.mp.Stats()
}

// Log refer to Multipool.Log.
func (cmp *ConcurrentMultipool) Log() {
	cmp.mp.log(cmp.Info, cmp.Utilization)
}

// pool locks in index order, then the oversized lock.
func (cmp *ConcurrentMultipool) lockall() {
	for i := range cmp.locks {
		cmp.locks[i].Lock()
	}
	cmp.omu.Lock()
}

func (cmp *ConcurrentMultipool) unlockall() {
	cmp.omu.Unlock()
	for i := len(cmp.locks) - 1; i >= 0; i-- {
		cmp.locks[i].Unlock()
	}
}
