package parallel

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFor(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 16}

	seen := make([]int32, 1000)
	For(len(seen), cfg, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			atomic.AddInt32(&seen[i], 1)
		}
	})

	for i, c := range seen {
		if c != 1 {
			t.Fatalf("index %d visited %d times, want 1", i, c)
		}
	}
}

func TestFor_Sequential(t *testing.T) {
	var calls int
	For(100, Sequential(), func(lo, hi int) {
		calls++
		assert.Equal(t, 0, lo)
		assert.Equal(t, 100, hi)
	})
	assert.Equal(t, 1, calls)
}

func TestFor_SmallInputStaysInline(t *testing.T) {
	cfg := DefaultConfig()

	var calls int
	For(10, cfg, func(_, _ int) { calls++ })
	assert.Equal(t, 1, calls, "small inputs should run as one piece")
}

func TestFor_Empty(t *testing.T) {
	For(0, DefaultConfig(), func(_, _ int) {
		t.Fatal("f must not be called for empty input")
	})
}

func TestFor_PiecesAreDisjoint(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 3, MinChunkSize: 10}

	var mu sync.Mutex
	var pieces [][2]int
	For(95, cfg, func(lo, hi int) {
		mu.Lock()
		pieces = append(pieces, [2]int{lo, hi})
		mu.Unlock()
	})

	assert.Len(t, pieces, cfg.Chunks(95))
	total := 0
	for _, p := range pieces {
		assert.Less(t, p[0], p[1])
		total += p[1] - p[0]
	}
	assert.Equal(t, 95, total)
}

func TestChunks(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 10}

	assert.Equal(t, 0, cfg.Chunks(0))
	assert.Equal(t, 1, cfg.Chunks(19))
	assert.Equal(t, 2, cfg.Chunks(20))
	assert.Equal(t, 4, cfg.Chunks(400))

	cfg.Enabled = false
	assert.Equal(t, 1, cfg.Chunks(400))
}
