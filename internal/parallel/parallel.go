// Package parallel provides chunked parallel execution for tensor kernels
// and data loading.
package parallel

import (
	"runtime"
	"sync"

	"github.com/klauspost/cpuid/v2"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // whether to fan out at all
	NumWorkers   int  // goroutines to use
	MinChunkSize int  // minimum items per goroutine to amortize overhead
}

// DefaultConfig sizes workers from the detected CPU topology.
// Physical cores are preferred over SMT siblings for compute-bound
// kernels; runtime.NumCPU is the fallback when detection fails.
func DefaultConfig() Config {
	n := cpuid.CPU.PhysicalCores
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64,
	}
}

// Sequential returns a config that never fans out.
func Sequential() Config {
	return Config{Enabled: false, NumWorkers: 1, MinChunkSize: 1}
}

// For executes f(i) for i in [0, n), splitting the range across workers.
// Falls back to a plain loop when parallelism is disabled or n is small.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || n < cfg.MinChunkSize {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// ForBatch iterates a batch*items grid, a common pattern when fetching
// or transforming samples per batch.
func ForBatch(batch, items int, f func(b, i int), cfg Config) {
	n := batch * items
	For(n, func(k int) {
		f(k/items, k%items)
	}, cfg)
}
