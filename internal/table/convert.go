package table

import (
	"sync/atomic"

	"github.com/born-ml/dal/internal/array"
	"github.com/born-ml/dal/internal/parallel"
)

var parallelConfig atomic.Pointer[parallel.Config]

// SetParallelConfig sets how accessors split large conversions across
// goroutines. It is safe to call concurrently with accessors.
func SetParallelConfig(cfg parallel.Config) {
	parallelConfig.Store(&cfg)
}

// ParallelConfig returns the config used by accessors.
func ParallelConfig() parallel.Config {
	if cfg := parallelConfig.Load(); cfg != nil {
		return *cfg
	}
	return parallel.DefaultConfig()
}

// gather copies the native elements selected by segs into dst, converting S to D.
func gather[S, D array.Element](dst []D, src []S, segs []segment, cfg parallel.Config) {
	for _, s := range segs {
		if s.stride == 1 {
			if same, ok := any(dst).([]S); ok {
				copy(same[s.dst:s.dst+s.n], src[s.src:s.src+s.n])
				continue
			}
		}
		parallel.For(s.n, cfg, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				dst[s.dst+i] = D(src[s.src+i*s.stride])
			}
		})
	}
}

// scatter writes src into the native elements selected by segs, converting D to S.
func scatter[S, D array.Element](dst []S, src []D, segs []segment, cfg parallel.Config) {
	for _, s := range segs {
		if s.stride == 1 {
			if same, ok := any(src).([]S); ok {
				copy(dst[s.src:s.src+s.n], same[s.dst:s.dst+s.n])
				continue
			}
		}
		parallel.For(s.n, cfg, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				dst[s.src+i*s.stride] = S(src[s.dst+i])
			}
		})
	}
}

// pullInto dispatches gather on the native element type.
func pullInto[D array.Element](native any, dst []D, segs []segment) {
	cfg := ParallelConfig()
	switch src := native.(type) {
	case []float32:
		gather(dst, src, segs, cfg)
	case []float64:
		gather(dst, src, segs, cfg)
	case []int32:
		gather(dst, src, segs, cfg)
	case []int64:
		gather(dst, src, segs, cfg)
	case []uint8:
		gather(dst, src, segs, cfg)
	default:
		panic("table: unsupported native type")
	}
}

// pushFrom dispatches scatter on the native element type.
func pushFrom[D array.Element](native any, src []D, segs []segment) {
	cfg := ParallelConfig()
	switch dst := native.(type) {
	case []float32:
		scatter(dst, src, segs, cfg)
	case []float64:
		scatter(dst, src, segs, cfg)
	case []int32:
		scatter(dst, src, segs, cfg)
	case []int64:
		scatter(dst, src, segs, cfg)
	case []uint8:
		scatter(dst, src, segs, cfg)
	default:
		panic("table: unsupported native type")
	}
}
