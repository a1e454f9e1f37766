// Package parallel splits element ranges across goroutines for table conversions.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Upper bound on goroutines per call.
	MinChunkSize int  // Minimum elements per goroutine.
}

// DefaultConfig returns defaults based on CPU count.
// Conversions are memory bound, so chunks are kept large.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 1 << 15,
	}
}

// Sequential returns a config that never spawns goroutines.
func Sequential() Config {
	return Config{NumWorkers: 1, MinChunkSize: 1}
}

// Chunks returns the number of pieces For would split n elements into.
func (c Config) Chunks(n int) int {
	if n <= 0 {
		return 0
	}
	if !c.Enabled || c.NumWorkers <= 1 || n < 2*c.MinChunkSize {
		return 1
	}
	return (n + c.chunkSize(n) - 1) / c.chunkSize(n)
}

func (c Config) chunkSize(n int) int {
	return max((n+c.NumWorkers-1)/c.NumWorkers, c.MinChunkSize, 1)
}

// For calls f(lo, hi) over disjoint half-open pieces covering [0, n) and
// returns once every piece is done. Small inputs run on the calling goroutine.
func For(n int, cfg Config, f func(lo, hi int)) {
	if n <= 0 {
		return
	}
	if cfg.Chunks(n) == 1 {
		f(0, n)
		return
	}

	var wg sync.WaitGroup
	size := cfg.chunkSize(n)
	for lo := 0; lo < n; lo += size {
		hi := min(lo+size, n)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			f(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}
