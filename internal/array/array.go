// Package array provides typed memory blocks with explicit ownership for the dal tables.
package array

import (
	"errors"
	"sync"
	"sync/atomic"
)

// Element is a constraint for the element types a block can hold.
type Element interface {
	~float32 | ~float64 | ~int32 | ~int64 | ~uint8
}

// Common errors.
var (
	ErrImmutable  = errors.New("array: data is read-only")
	ErrMisaligned = errors.New("array: byte block does not fit element type")
)

// releaser is a reference-counted release action shared by co-owners.
// The action runs exactly once, when the last holder drops its reference.
type releaser struct {
	refs atomic.Int32
	once sync.Once
	fn   func()
}

// newReleaser creates a release handle with refs = 1.
func newReleaser(fn func()) *releaser {
	r := &releaser{fn: fn}
	r.refs.Store(1)
	return r
}

func (r *releaser) addRef() {
	r.refs.Add(1)
}

func (r *releaser) release() {
	if r.refs.Add(-1) == 0 {
		r.once.Do(func() {
			if r.fn != nil {
				r.fn()
			}
		})
	}
}

// Array is a block of elements of type T.
//
// A block is in one of three states:
//   - owning: holds a share of a release handle, mutable unless made read-only
//   - mutable view: borrows memory the caller keeps alive
//   - read-only view: borrows memory and refuses mutable access
//
// Arrays must not be copied by value; pass *Array.
type Array[T Element] struct {
	data    []T
	mutable bool
	owner   *releaser
	dropped atomic.Bool
}

// New allocates an owning zeroed block of n elements.
func New[T Element](n int) *Array[T] {
	return NewOwning(make([]T, n), nil)
}

// Full allocates an owning block of n elements set to value.
func Full[T Element](n int, value T) *Array[T] {
	data := make([]T, n)
	for i := range data {
		data[i] = value
	}
	return NewOwning(data, nil)
}

// NewOwning adopts data as an owning mutable block.
// release is invoked once when the last holder of the block is released; nil
// leaves deallocation to the garbage collector.
func NewOwning[T Element](data []T, release func()) *Array[T] {
	return &Array[T]{
		data:    data,
		mutable: true,
		owner:   newReleaser(release),
	}
}

// Wrap creates a read-only view over data. The caller keeps data valid for the
// lifetime of the view.
func Wrap[T Element](data []T) *Array[T] {
	return &Array[T]{data: data}
}

// WrapMutable creates a mutable view over data. The caller keeps data valid
// for the lifetime of the view.
func WrapMutable[T Element](data []T) *Array[T] {
	return &Array[T]{data: data, mutable: true}
}

// Size returns the number of elements.
func (a *Array[T]) Size() int {
	return len(a.data)
}

// Data returns the elements for reading.
// Writing through the returned slice of a read-only block is undefined.
func (a *Array[T]) Data() []T {
	return a.data
}

// MutableData returns the elements for writing.
func (a *Array[T]) MutableData() ([]T, error) {
	if !a.mutable {
		return nil, ErrImmutable
	}
	return a.data, nil
}

// HasMutableData reports whether the block accepts writes.
func (a *Array[T]) HasMutableData() bool {
	return a.mutable
}

// IsDataOwner reports whether the block holds a share of its memory's release handle.
func (a *Array[T]) IsDataOwner() bool {
	return a.owner != nil
}

// Released reports whether Release was called on this holder.
func (a *Array[T]) Released() bool {
	return a.dropped.Load()
}

// Share returns another holder of the same memory.
// For owning blocks the release handle gains a reference, so the memory is
// released only after both holders are released.
func (a *Array[T]) Share() *Array[T] {
	if a.owner != nil {
		a.owner.addRef()
	}
	return &Array[T]{
		data:    a.data,
		mutable: a.mutable,
		owner:   a.owner,
	}
}

// ReadOnly returns a holder of the same memory that refuses mutable access.
// An owning block yields an owning read-only holder sharing the release handle.
func (a *Array[T]) ReadOnly() *Array[T] {
	s := a.Share()
	s.mutable = false
	return s
}

// Release drops this holder's reference. Calling it again is a no-op.
func (a *Array[T]) Release() {
	if a.dropped.Swap(true) {
		return
	}
	a.data = nil
	if a.owner != nil {
		a.owner.release()
	}
}

// refs returns the number of live holders of an owning block (0 for views).
func (a *Array[T]) refs() int32 {
	if a.owner == nil {
		return 0
	}
	return a.owner.refs.Load()
}
