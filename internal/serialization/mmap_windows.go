//go:build windows

package serialization

import (
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

// mmapFile memory-maps a file for reading (Windows implementation).
func mmapFile(f *os.File, size int64) ([]byte, error) {
	h, err := windows.CreateFileMapping(windows.Handle(f.Fd()), nil, windows.PAGE_READONLY, 0, 0, nil)
	if err != nil {
		return nil, err
	}
	// The view keeps its own reference to the mapping object.
	defer func() { _ = windows.CloseHandle(h) }()

	addr, err := windows.MapViewOfFile(h, windows.FILE_MAP_READ, 0, 0, uintptr(size))
	if err != nil {
		return nil, err
	}

	//nolint:gosec // G103: addr is a valid mapped address of size bytes
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), nil
}

// munmapFile unmaps a memory-mapped file (Windows implementation).
func munmapFile(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	//nolint:gosec // G103: data is the slice returned by mmapFile
	return windows.UnmapViewOfFile(uintptr(unsafe.Pointer(&data[0])))
}
