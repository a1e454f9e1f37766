package array

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsOwningAndMutable(t *testing.T) {
	a := New[float32](6)

	assert.Equal(t, 6, a.Size())
	assert.True(t, a.IsDataOwner())
	assert.True(t, a.HasMutableData())

	data, err := a.MutableData()
	require.NoError(t, err)
	data[0] = 42
	assert.Equal(t, float32(42), a.Data()[0], "MutableData should be zero-copy")
}

func TestFull(t *testing.T) {
	a := Full[int64](4, 7)
	assert.Equal(t, []int64{7, 7, 7, 7}, a.Data())
}

func TestWrapIsReadOnlyView(t *testing.T) {
	src := []float64{1, 2, 3}
	a := Wrap(src)

	assert.False(t, a.IsDataOwner())
	assert.False(t, a.HasMutableData())

	_, err := a.MutableData()
	assert.ErrorIs(t, err, ErrImmutable)

	src[1] = 20
	assert.Equal(t, float64(20), a.Data()[1], "view should alias the caller's memory")
}

func TestWrapMutable(t *testing.T) {
	src := []int32{1, 2}
	a := WrapMutable(src)

	assert.False(t, a.IsDataOwner())
	data, err := a.MutableData()
	require.NoError(t, err)
	data[0] = 9
	assert.Equal(t, int32(9), src[0])
}

func TestReleaseRunsOnce(t *testing.T) {
	calls := 0
	a := NewOwning([]float32{1, 2}, func() { calls++ })

	a.Release()
	a.Release()

	assert.Equal(t, 1, calls)
	assert.True(t, a.Released())
	assert.Nil(t, a.Data())
}

func TestShareDefersRelease(t *testing.T) {
	calls := 0
	a := NewOwning([]float32{1, 2, 3}, func() { calls++ })
	b := a.Share()
	assert.Equal(t, int32(2), a.refs())

	a.Release()
	assert.Equal(t, 0, calls, "release must wait for the last holder")
	assert.Equal(t, []float32{1, 2, 3}, b.Data())

	b.Release()
	assert.Equal(t, 1, calls)
}

func TestShareReleaseOrderIndependent(t *testing.T) {
	calls := 0
	a := NewOwning([]uint8{1}, func() { calls++ })
	b := a.Share()

	b.Release()
	assert.Equal(t, 0, calls)
	a.Release()
	assert.Equal(t, 1, calls)
}

func TestShareOfViewHasNoOwner(t *testing.T) {
	a := WrapMutable([]float64{1})
	b := a.Share()

	assert.False(t, b.IsDataOwner())
	assert.True(t, b.HasMutableData())
	assert.Equal(t, int32(0), b.refs())
}

func TestReadOnlyOfOwner(t *testing.T) {
	calls := 0
	a := NewOwning([]int32{5}, func() { calls++ })
	ro := a.ReadOnly()

	assert.True(t, ro.IsDataOwner())
	assert.False(t, ro.HasMutableData())
	assert.True(t, a.HasMutableData(), "source keeps its mutability")

	a.Release()
	assert.Equal(t, 0, calls)
	ro.Release()
	assert.Equal(t, 1, calls)
}

func TestConcurrentRelease(t *testing.T) {
	calls := 0
	var mu sync.Mutex
	a := NewOwning(make([]float32, 16), func() {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	holders := make([]*Array[float32], 32)
	for i := range holders {
		holders[i] = a.Share()
	}

	var wg sync.WaitGroup
	for _, h := range holders {
		wg.Add(1)
		go func(h *Array[float32]) {
			defer wg.Done()
			h.Release()
		}(h)
	}
	wg.Wait()
	assert.Equal(t, 0, calls)

	a.Release()
	assert.Equal(t, 1, calls)
}
