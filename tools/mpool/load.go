package main

import "fmt"
import "sync"
import "time"
import "math/rand"
import "sync/atomic"

import "github.com/panjf2000/ants/v2"

import "github.com/bnclabs/gomalloc/lib"
import "github.com/bnclabs/gomalloc/malloc"

type load struct {
	cmp     *malloc.ConcurrentMultipool
	workers int
	n       int
	maxsize int
	hold    int

	// stats
	n_allocs   int64
	n_frees    int64
	n_failures int64
	mu         sync.Mutex
	latency    *lib.HistogramInt64 // nanoseconds per Allocate
	sizes      *lib.HistogramInt64
}

func newload(cmp *malloc.ConcurrentMultipool, workers, n, maxsize, hold int) *load {
	if workers < 1 || maxsize < 1 || hold < 1 {
		panic(fmt.Errorf("invalid load %v,%v,%v", workers, maxsize, hold))
	}
	return &load{
		cmp:     cmp,
		workers: workers,
		n:       n,
		maxsize: maxsize,
		hold:    hold,
		latency: lib.NewhistogramInt64(0, 100000, 1000),
		sizes:   lib.NewhistogramInt64(0, int64(maxsize), 512),
	}
}

// run allocations on an ants pool of workers, every worker writes a
// canary into each block and verifies it before freeing.
func (ld *load) run() error {
	pool, err := ants.NewPool(ld.workers)
	if err != nil {
		return err
	}
	defer pool.Release()

	var wg sync.WaitGroup
	errch := make(chan error, ld.workers)
	for w := 0; w < ld.workers; w++ {
		wg.Add(1)
		w, count := w, ld.share(w)
		err := pool.Submit(func() {
			defer wg.Done()
			if err := ld.worker(w, count); err != nil {
				errch <- err
			}
		})
		if err != nil {
			wg.Done()
			return err
		}
	}
	wg.Wait()
	close(errch)
	return <-errch
}

// share of allocations for worker `w`, the first n%workers workers do
// one more so that all of them add up to n.
func (ld *load) share(w int) int {
	count := ld.n / ld.workers
	if w < ld.n%ld.workers {
		count++
	}
	return count
}

func (ld *load) worker(w, count int) error {
	rnd := rand.New(rand.NewSource(int64(w) + time.Now().UnixNano()))
	canary := byte(w%255) + 1
	held := make([][]byte, 0, ld.hold)
	latencies, sizes := make([]int64, 0, 1024), make([]int64, 0, 1024)

	flush := func() {
		ld.mu.Lock()
		for i := range latencies {
			ld.latency.Add(latencies[i])
			ld.sizes.Add(sizes[i])
		}
		ld.mu.Unlock()
		latencies, sizes = latencies[:0], sizes[:0]
	}
	free := func() error {
		for _, block := range held {
			for i, b := range block {
				if b != canary {
					return fmt.Errorf("worker %v block corrupted at %v: %v", w, i, b)
				}
			}
			ld.cmp.Deallocate(block)
			atomic.AddInt64(&ld.n_frees, 1)
		}
		held = held[:0]
		return nil
	}

	for i := 0; i < count; i++ {
		size := int64(rnd.Intn(ld.maxsize)) + 1
		now := time.Now()
		block, err := ld.cmp.Allocate(size)
		if err != nil {
			atomic.AddInt64(&ld.n_failures, 1)
			if err := free(); err != nil {
				return err
			}
			continue
		}
		latencies = append(latencies, int64(time.Since(now)))
		sizes = append(sizes, size)
		atomic.AddInt64(&ld.n_allocs, 1)
		for j := range block {
			block[j] = canary
		}
		if held = append(held, block); len(held) == cap(held) {
			if err := free(); err != nil {
				return err
			}
		}
		if len(latencies) == cap(latencies) {
			flush()
		}
	}
	flush()
	return free()
}

func (ld *load) stats() map[string]interface{} {
	stats := map[string]interface{}{
		"n_allocs":   atomic.LoadInt64(&ld.n_allocs),
		"n_frees":    atomic.LoadInt64(&ld.n_frees),
		"n_failures": atomic.LoadInt64(&ld.n_failures),
	}
	latency, sizes := ld.histograms()
	stats["latency"] = latency.Fullstats()
	stats["latency.p99"] = latency.Percentile(99)
	stats["sizes"] = sizes.Fullstats()
	return lib.Mixinstats(stats, "mpool.", ld.cmp.Stats())
}

// histograms return a snapshot of latency and size histograms.
func (ld *load) histograms() (latency, sizes *lib.HistogramInt64) {
	ld.mu.Lock()
	defer ld.mu.Unlock()
	return ld.latency.Clone(), ld.sizes.Clone()
}
