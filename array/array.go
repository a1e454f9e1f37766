// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package array provides typed memory blocks with explicit ownership.
//
// A block is either owning (mutable, with a release action shared by every
// holder), a mutable view, or a read-only view over caller memory:
//
//	a := array.New[float32](15)        // owning, zeroed
//	v := array.Wrap([]float64{1, 2})   // read-only view
//	s := a.Share()                     // second holder of a
//	a.Release()
//	s.Release()                        // memory released here
package array

import (
	"github.com/born-ml/dal/internal/array"
)

// Element is the constraint for element types: float32, float64, int32, int64, uint8.
type Element = array.Element

// Array is a typed block of elements. See the package documentation for the
// ownership states.
type Array[T Element] = array.Array[T]

// Errors.
var (
	ErrImmutable  = array.ErrImmutable
	ErrMisaligned = array.ErrMisaligned
)

// New allocates an owning zeroed block of n elements.
func New[T Element](n int) *Array[T] {
	return array.New[T](n)
}

// Full allocates an owning block of n elements set to value.
func Full[T Element](n int, value T) *Array[T] {
	return array.Full(n, value)
}

// NewOwning adopts data as an owning mutable block. release runs once, after
// the last holder is released.
func NewOwning[T Element](data []T, release func()) *Array[T] {
	return array.NewOwning(data, release)
}

// Wrap creates a read-only view over data.
func Wrap[T Element](data []T) *Array[T] {
	return array.Wrap(data)
}

// WrapMutable creates a mutable view over data.
func WrapMutable[T Element](data []T) *Array[T] {
	return array.WrapMutable(data)
}

// SizeOf returns the size of T in bytes.
func SizeOf[T Element]() int {
	return array.SizeOf[T]()
}

// BytesOf reinterprets data as bytes without copying.
func BytesOf[T Element](data []T) []byte {
	return array.BytesOf(data)
}

// Cast reinterprets b as elements of type T without copying.
// It fails with ErrMisaligned if b is not a whole, aligned run of T.
func Cast[T Element](b []byte) ([]T, error) {
	return array.Cast[T](b)
}

// AlignedBytes allocates n zeroed bytes aligned for every Element type.
func AlignedBytes(n int) []byte {
	return array.AlignedBytes(n)
}
