// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package table_test

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/born-ml/dal/array"
	"github.com/born-ml/dal/table"
)

func ExamplePullRows() {
	data := []float32{
		1, 2, 3,
		4, 5, 6,
	}
	t, err := table.Wrap(2, 3, data, table.RowMajor)
	if err != nil {
		panic(err)
	}

	rows, _ := table.PullRows[float64](t, nil, table.Rows(1, 2))
	fmt.Println(rows)
	// Output: [4 5 6]
}

func ExamplePullColumn() {
	// The same 3x2 matrix stored column by column.
	t, err := table.Wrap(3, 2, []int64{1, 3, 5, 2, 4, 6}, table.ColumnMajor)
	if err != nil {
		panic(err)
	}

	col, _ := table.PullColumn[float32](t, nil, 1, table.All)
	fmt.Println(col)
	// Output: [2 4 6]
}

func ExampleNewFromArray() {
	a := array.New[float64](6)
	t, err := table.NewFromArray(3, a, table.RowMajor)
	if err != nil {
		panic(err)
	}
	a.Release() // the table keeps the memory alive

	_ = table.PushBackRows(t, []int32{7, 8, 9}, table.Rows(0, 1))
	rows, _ := table.PullRows[float64](t, nil, table.All)
	fmt.Println(t, rows)
	t.Release()
	// Output: HomogenTable[float64]2x3 row_major [7 8 9 0 0 0]
}

func ExampleSave() {
	dir, err := os.MkdirTemp("", "dal-example")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "iris.dalt")

	features := table.NewFilled[float32](4, 2, 0.5, table.ColumnMajor)
	if err := table.Save(path, []table.Named{{Name: "features", Table: features}},
		table.WithCompression(table.CodecZstd)); err != nil {
		panic(err)
	}

	r, err := table.OpenMmap(path)
	if err != nil {
		panic(err)
	}
	defer r.Close()

	loaded, _ := r.Table("features")
	col, _ := table.PullColumn[float64](loaded, nil, 1, table.All)
	fmt.Println(r.Names(), loaded.Layout(), col)
	// Output: [features] column_major [0.5 0.5 0.5 0.5]
}
