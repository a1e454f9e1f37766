package array

import (
	"fmt"
	"unsafe"
)

// SizeOf returns the byte size of one T.
func SizeOf[T Element]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// BytesOf reinterprets data as its underlying bytes (zero-copy).
func BytesOf[T Element](data []T) []byte {
	if len(data) == 0 {
		return []byte{}
	}
	//nolint:gosec // unsafe.Slice for zero-copy reinterpretation, length from len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*SizeOf[T]())
}

// Cast reinterprets b as a slice of T (zero-copy).
// b must be a whole number of elements and aligned for T.
func Cast[T Element](b []byte) ([]T, error) {
	size := SizeOf[T]()
	if len(b)%size != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrMisaligned, len(b), size)
	}
	if len(b) == 0 {
		return []T{}, nil
	}
	var zero T
	if uintptr(unsafe.Pointer(&b[0]))%unsafe.Alignof(zero) != 0 {
		return nil, fmt.Errorf("%w: address not aligned to %d", ErrMisaligned, unsafe.Alignof(zero))
	}
	//nolint:gosec // unsafe.Slice for zero-copy reinterpretation, bounds checked above
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), len(b)/size), nil
}

// AlignedBytes allocates n zeroed bytes aligned for any Element type.
func AlignedBytes(n int) []byte {
	words := make([]uint64, (n+7)/8)
	if len(words) == 0 {
		return []byte{}
	}
	//nolint:gosec // unsafe.Slice over a uint64 backing array, n <= 8*len(words)
	return unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), n)
}
