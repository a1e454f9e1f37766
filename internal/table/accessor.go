package table

import (
	"fmt"

	"github.com/born-ml/dal/internal/array"
)

// PullRows returns the rows of r converted to T, in the table's layout order:
// row after row for RowMajor, and for ColumnMajor each column's rows of r
// one column after another.
//
// dst is reused when its capacity suffices, otherwise a new slice is
// allocated. On error dst and the table are left untouched.
func PullRows[T array.Element](t *HomogenTable, dst []T, r Range) ([]T, error) {
	nr, err := t.checkRows(r)
	if err != nil {
		return nil, &AccessError{Op: "PullRows", Range: r, Column: -1, Err: err}
	}
	out := reuse(dst, nr.Len()*t.columnCount)
	pullInto(t.native, out, rowSegments(t.rowCount, t.columnCount, t.Layout(), nr))
	return out, nil
}

// PushBackRows writes src into the rows of r, converting T to the native type.
// src is laid out as PullRows returns it. Nothing is written on error.
func PushBackRows[T array.Element](t *HomogenTable, src []T, r Range) error {
	nr, err := t.checkWrite(r)
	if err == nil {
		err = checkLen(len(src), nr.Len()*t.columnCount)
	}
	if err != nil {
		return &AccessError{Op: "PushBackRows", Range: r, Column: -1, Err: err}
	}
	pushFrom(t.native, src, rowSegments(t.rowCount, t.columnCount, t.Layout(), nr))
	return nil
}

// PullColumn returns the rows of r of one column converted to T.
// dst is reused when its capacity suffices. On error dst and the table are
// left untouched.
func PullColumn[T array.Element](t *HomogenTable, dst []T, column int, r Range) ([]T, error) {
	nr, err := t.checkRows(r)
	if err == nil {
		err = t.checkColumn(column)
	}
	if err != nil {
		return nil, &AccessError{Op: "PullColumn", Range: r, Column: column, Err: err}
	}
	out := reuse(dst, nr.Len())
	pullInto(t.native, out, columnSegments(t.rowCount, t.columnCount, t.Layout(), column, nr))
	return out, nil
}

// PushBackColumn writes src into the rows of r of one column, converting T
// to the native type. Nothing is written on error.
func PushBackColumn[T array.Element](t *HomogenTable, src []T, column int, r Range) error {
	nr, err := t.checkWrite(r)
	if err == nil {
		err = t.checkColumn(column)
	}
	if err == nil {
		err = checkLen(len(src), nr.Len())
	}
	if err != nil {
		return &AccessError{Op: "PushBackColumn", Range: r, Column: column, Err: err}
	}
	pushFrom(t.native, src, columnSegments(t.rowCount, t.columnCount, t.Layout(), column, nr))
	return nil
}

// ViewRows returns a zero-copy view of the rows of r.
// T must be the table's native type, and the rows must be contiguous in
// memory: any range of a RowMajor or single-column table, or the full range
// of a ColumnMajor table. The view is read-only if the table is, and is valid
// only while the table's memory is.
func ViewRows[T array.Element](t *HomogenTable, r Range) (*array.Array[T], error) {
	fail := func(err error) (*array.Array[T], error) {
		return nil, &AccessError{Op: "ViewRows", Range: r, Column: -1, Err: err}
	}

	nr, err := t.checkRows(r)
	if err != nil {
		return fail(err)
	}
	if want := DataTypeOf[T](); want != t.DataType() {
		return fail(fmt.Errorf("%w: table holds %s, requested %s", ErrTypeMismatch, t.DataType(), want))
	}

	var lo, hi int
	switch {
	case t.Layout() == RowMajor || t.columnCount == 1:
		lo, hi = nr.Start*t.columnCount, nr.End*t.columnCount
	case nr.Start == 0 && nr.End == t.rowCount:
		lo, hi = 0, t.rowCount*t.columnCount
	default:
		return fail(ErrNotContiguous)
	}

	size := t.DataType().Size()
	view, err := array.Cast[T](t.data.Data()[lo*size : hi*size])
	if err != nil {
		return fail(err)
	}
	if t.IsMutable() {
		return array.WrapMutable(view), nil
	}
	return array.Wrap(view), nil
}

func (t *HomogenTable) checkRows(r Range) (Range, error) {
	if t.native == nil {
		return r, ErrReleased
	}
	nr, ok := r.normalize(t.rowCount)
	if !ok {
		return r, fmt.Errorf("%w: rows %s of %d", ErrOutOfBounds, r, t.rowCount)
	}
	return nr, nil
}

func (t *HomogenTable) checkWrite(r Range) (Range, error) {
	if t.native != nil && !t.data.HasMutableData() {
		return r, ErrImmutable
	}
	return t.checkRows(r)
}

func (t *HomogenTable) checkColumn(column int) error {
	if column < 0 || column >= t.columnCount {
		return fmt.Errorf("%w: column %d of %d", ErrOutOfBounds, column, t.columnCount)
	}
	return nil
}

func checkLen(got, want int) error {
	if got != want {
		return fmt.Errorf("%w: got %d elements, want %d", ErrSizeMismatch, got, want)
	}
	return nil
}

// reuse returns dst resized to n elements, allocating when cap(dst) < n.
func reuse[T array.Element](dst []T, n int) []T {
	if cap(dst) >= n {
		return dst[:n]
	}
	return make([]T, n)
}

// RowAccessor reads and writes whole rows of a table as T.
type RowAccessor[T array.Element] struct {
	t *HomogenTable
}

// NewRowAccessor returns a row accessor over t.
func NewRowAccessor[T array.Element](t *HomogenTable) RowAccessor[T] {
	return RowAccessor[T]{t: t}
}

// Pull returns the rows of r in a new slice.
func (a RowAccessor[T]) Pull(r Range) ([]T, error) {
	return PullRows[T](a.t, nil, r)
}

// PullInto is Pull reusing dst.
func (a RowAccessor[T]) PullInto(dst []T, r Range) ([]T, error) {
	return PullRows(a.t, dst, r)
}

// PushBack writes src into the rows of r.
func (a RowAccessor[T]) PushBack(src []T, r Range) error {
	return PushBackRows(a.t, src, r)
}

// ColumnAccessor reads and writes single columns of a table as T.
type ColumnAccessor[T array.Element] struct {
	t *HomogenTable
}

// NewColumnAccessor returns a column accessor over t.
func NewColumnAccessor[T array.Element](t *HomogenTable) ColumnAccessor[T] {
	return ColumnAccessor[T]{t: t}
}

// Pull returns the rows of r of column in a new slice.
func (a ColumnAccessor[T]) Pull(column int, r Range) ([]T, error) {
	return PullColumn[T](a.t, nil, column, r)
}

// PullInto is Pull reusing dst.
func (a ColumnAccessor[T]) PullInto(dst []T, column int, r Range) ([]T, error) {
	return PullColumn(a.t, dst, column, r)
}

// PushBack writes src into the rows of r of column.
func (a ColumnAccessor[T]) PushBack(src []T, column int, r Range) error {
	return PushBackColumn(a.t, src, column, r)
}
