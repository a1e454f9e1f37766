// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package table provides homogeneous numeric tables and typed row/column access.
//
// # Overview
//
// A HomogenTable is a dense rows×columns block of elements of one type
// (float32, float64, int32, int64 or uint8) stored row-major or
// column-major. Callers read and write it in any supported element type;
// values are converted on the fly:
//
//	data := []float32{
//	    1, 2, 3,
//	    4, 5, 6,
//	}
//	t, _ := table.Wrap(2, 3, data, table.RowMajor)
//
//	rows, _ := table.PullRows[float64](t, nil, table.All)      // 1 2 3 4 5 6
//	col, _ := table.PullColumn[int32](t, nil, 2, table.All)    // 3 6
//
// # Ownership
//
// Wrap borrows caller memory read-only, New copies into owned memory, and
// NewFromArray adopts an array.Array according to its ownership state. An
// owning table co-owns its block with the source array; the memory is
// released when both have been released.
//
// # Row ranges
//
// Ranges are half-open [Start, End). A negative End counts from the end of
// the table (End = -1 is the last row inclusive), so All covers every row.
//
// # Persistence
//
// Save and Load store named tables in .dalt files, optionally compressed
// with zstd, lz4 or snappy. OpenMmap maps a file and returns zero-copy
// read-only tables:
//
//	err := table.Save("data.dalt", []table.Named{{Name: "x", Table: t}},
//	    table.WithCompression(table.CodecZstd))
//
//	r, err := table.OpenMmap("data.dalt")
//	defer r.Close()
//	x, err := r.Table("x")
//
// # Thread Safety
//
// Tables have no internal locking. Concurrent readers are safe; writers must
// be serialized against every other access.
package table
