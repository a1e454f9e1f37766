// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package table

import (
	"github.com/born-ml/dal/array"
	"github.com/born-ml/dal/internal/parallel"
	"github.com/born-ml/dal/internal/table"
)

// Type aliases for public API

// HomogenTable is a dense table whose elements share one type.
type HomogenTable = table.HomogenTable

// DataType identifies the element type of a table.
type DataType = table.DataType

// Data type constants.
const (
	Float32 DataType = table.Float32
	Float64 DataType = table.Float64
	Int32   DataType = table.Int32
	Int64   DataType = table.Int64
	Uint8   DataType = table.Uint8
)

// Layout is the memory order of a table.
type Layout = table.Layout

// Layout constants.
const (
	RowMajor    Layout = table.RowMajor
	ColumnMajor Layout = table.ColumnMajor
)

// FeatureType describes how values of a column are interpreted.
type FeatureType = table.FeatureType

// Feature type constants.
const (
	Contiguous FeatureType = table.Contiguous
	Ordinal    FeatureType = table.Ordinal
)

// FeatureInfo describes one column.
type FeatureInfo = table.FeatureInfo

// Metadata describes all columns of a table.
type Metadata = table.Metadata

// Range is a half-open row range.
type Range = table.Range

// All selects every row.
var All = table.All

// AccessError describes a failed accessor call.
type AccessError = table.AccessError

// RowAccessor reads and writes row blocks as elements of type T.
type RowAccessor[T array.Element] = table.RowAccessor[T]

// ColumnAccessor reads and writes single columns as elements of type T.
type ColumnAccessor[T array.Element] = table.ColumnAccessor[T]

// ParallelConfig controls how conversions are split across goroutines.
type ParallelConfig = parallel.Config

// Errors.
var (
	ErrInvalidShape         = table.ErrInvalidShape
	ErrSizeMismatch         = table.ErrSizeMismatch
	ErrOutOfBounds          = table.ErrOutOfBounds
	ErrImmutable            = table.ErrImmutable
	ErrUnsupportedOwnership = table.ErrUnsupportedOwnership
	ErrTypeMismatch         = table.ErrTypeMismatch
	ErrNotContiguous        = table.ErrNotContiguous
	ErrUnsupportedType      = table.ErrUnsupportedType
	ErrReleased             = table.ErrReleased
)

// Creation functions

// Wrap creates a read-only table over data without copying.
func Wrap[T array.Element](rows, cols int, data []T, layout Layout) (*HomogenTable, error) {
	return table.Wrap(rows, cols, data, layout)
}

// New creates an owning table holding a copy of data.
func New[T array.Element](rows, cols int, data []T, layout Layout) (*HomogenTable, error) {
	return table.New(rows, cols, data, layout)
}

// NewFilled creates an owning table with every element set to value.
// It panics on an invalid shape.
func NewFilled[T array.Element](rows, cols int, value T, layout Layout) *HomogenTable {
	return table.NewFilled(rows, cols, value, layout)
}

// NewFromArray creates a table over a's memory with cols columns.
//
// An owning array yields an owning mutable table that co-owns the memory; a
// mutable view yields a mutable view; a read-only view yields a read-only
// table. An owning read-only array is rejected with ErrUnsupportedOwnership.
func NewFromArray[T array.Element](cols int, a *array.Array[T], layout Layout) (*HomogenTable, error) {
	return table.NewFromArray(cols, a, layout)
}

// NewFromBytes creates a table over the raw bytes of elements of type dtype.
func NewFromBytes(cols int, dtype DataType, a *array.Array[byte], layout Layout) (*HomogenTable, error) {
	return table.NewFromBytes(cols, dtype, a, layout)
}

// Rows returns the half-open range [start, end).
func Rows(start, end int) Range {
	return table.Rows(start, end)
}

// ParseDataType parses a data type name such as "float32".
func ParseDataType(s string) (DataType, error) {
	return table.ParseDataType(s)
}

// ParseLayout parses "row_major" or "column_major".
func ParseLayout(s string) (Layout, error) {
	return table.ParseLayout(s)
}

// DataTypeOf returns the data type of T.
func DataTypeOf[T array.Element]() DataType {
	return table.DataTypeOf[T]()
}

// Access functions

// PullRows reads rows r as elements of type T in the table's layout order.
// dst is reused when it has capacity for the result.
func PullRows[T array.Element](t *HomogenTable, dst []T, r Range) ([]T, error) {
	return table.PullRows(t, dst, r)
}

// PushBackRows writes src, in the table's layout order, to rows r.
func PushBackRows[T array.Element](t *HomogenTable, src []T, r Range) error {
	return table.PushBackRows(t, src, r)
}

// PullColumn reads rows r of one column as elements of type T.
func PullColumn[T array.Element](t *HomogenTable, dst []T, column int, r Range) ([]T, error) {
	return table.PullColumn(t, dst, column, r)
}

// PushBackColumn writes src to rows r of one column.
func PushBackColumn[T array.Element](t *HomogenTable, src []T, column int, r Range) error {
	return table.PushBackColumn(t, src, column, r)
}

// ViewRows returns a zero-copy array over rows r of a row-major table of type T.
func ViewRows[T array.Element](t *HomogenTable, r Range) (*array.Array[T], error) {
	return table.ViewRows[T](t, r)
}

// NewRowAccessor returns a row accessor for t.
func NewRowAccessor[T array.Element](t *HomogenTable) RowAccessor[T] {
	return table.NewRowAccessor[T](t)
}

// NewColumnAccessor returns a column accessor for t.
func NewColumnAccessor[T array.Element](t *HomogenTable) ColumnAccessor[T] {
	return table.NewColumnAccessor[T](t)
}

// Parallelism

// DefaultParallelConfig returns the default conversion parallelism.
func DefaultParallelConfig() ParallelConfig {
	return parallel.DefaultConfig()
}

// SequentialConfig returns a configuration that disables parallel conversion.
func SequentialConfig() ParallelConfig {
	return parallel.Sequential()
}

// SetParallelConfig sets the parallelism used by all conversions.
func SetParallelConfig(cfg ParallelConfig) {
	table.SetParallelConfig(cfg)
}

// CurrentParallelConfig returns the parallelism used by conversions.
func CurrentParallelConfig() ParallelConfig {
	return table.ParallelConfig()
}
