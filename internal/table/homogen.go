package table

import (
	"fmt"
	"math"

	"github.com/born-ml/dal/internal/array"
)

// HomogenTable is a dense rows×columns table whose elements share one type.
//
// The table either owns its memory block or borrows it, as decided by the
// constructor. Shape and metadata never change after construction; contents
// change only through the PushBack accessors.
//
// A table has no internal locking: concurrent readers are safe, writers must
// be serialized against every other access by the caller.
type HomogenTable struct {
	rowCount    int
	columnCount int
	meta        Metadata
	data        *array.Array[byte]
	native      any // []S over data, S the native element type; nil after Release
}

// Wrap creates a read-only table over data without copying.
// data holds rows×cols elements in the given layout and must outlive the
// table and every accessor call against it.
func Wrap[T array.Element](rows, cols int, data []T, layout Layout) (*HomogenTable, error) {
	if err := validateShape(rows, cols, layout); err != nil {
		return nil, err
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("%w: %dx%d table needs %d elements, got %d",
			ErrSizeMismatch, rows, cols, rows*cols, len(data))
	}
	return newHomogen(rows, cols, DataTypeOf[T](), array.Wrap(array.BytesOf(data)), layout)
}

// New creates an owning table holding a copy of data.
func New[T array.Element](rows, cols int, data []T, layout Layout) (*HomogenTable, error) {
	if err := validateShape(rows, cols, layout); err != nil {
		return nil, err
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("%w: %dx%d table needs %d elements, got %d",
			ErrSizeMismatch, rows, cols, rows*cols, len(data))
	}
	owned := make([]T, len(data))
	copy(owned, data)
	return newHomogen(rows, cols, DataTypeOf[T](), array.NewOwning(array.BytesOf(owned), nil), layout)
}

// NewFilled creates an owning table with every element set to value.
// It panics on an invalid shape.
func NewFilled[T array.Element](rows, cols int, value T, layout Layout) *HomogenTable {
	if err := validateShape(rows, cols, layout); err != nil {
		panic(err)
	}
	data := array.Full(rows*cols, value).Data()
	t, err := newHomogen(rows, cols, DataTypeOf[T](), array.NewOwning(array.BytesOf(data), nil), layout)
	if err != nil {
		panic(err) // fresh Go allocations are always aligned
	}
	return t
}

// NewFromArray creates a table of cols columns over the elements of a.
// The row count is a.Size()/cols and must be exact.
//
// Ownership follows a:
//   - owning and mutable: the table co-owns the memory; it is released once
//     both a and the table are released, in either order
//   - mutable view: the table is a mutable view
//   - read-only view: the table is a read-only view
//   - owning and read-only: rejected with ErrUnsupportedOwnership
func NewFromArray[T array.Element](cols int, a *array.Array[T], layout Layout) (*HomogenTable, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: nil array", ErrInvalidShape)
	}
	if a.Released() {
		return nil, fmt.Errorf("adopt array: %w", ErrReleased)
	}
	rows, err := rowsFor(a.Size(), cols, layout)
	if err != nil {
		return nil, err
	}
	raw, err := adopt(a.IsDataOwner(), a.HasMutableData(), array.BytesOf(a.Data()), func() func() {
		return a.Share().Release
	})
	if err != nil {
		return nil, err
	}
	return newHomogen(rows, cols, DataTypeOf[T](), raw, layout)
}

// NewFromBytes is the type-erased form of NewFromArray: a holds the raw bytes
// of elements of type dtype. Ownership rules are those of NewFromArray.
func NewFromBytes(cols int, dtype DataType, a *array.Array[byte], layout Layout) (*HomogenTable, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: nil array", ErrInvalidShape)
	}
	if a.Released() {
		return nil, fmt.Errorf("adopt array: %w", ErrReleased)
	}
	if !dtype.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedType, int(dtype))
	}
	if a.Size()%dtype.Size() != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of %s elements",
			ErrSizeMismatch, a.Size(), dtype)
	}
	rows, err := rowsFor(a.Size()/dtype.Size(), cols, layout)
	if err != nil {
		return nil, err
	}
	raw, err := adopt(a.IsDataOwner(), a.HasMutableData(), a.Data(), func() func() {
		return a.Share().Release
	})
	if err != nil {
		return nil, err
	}
	t, err := newHomogen(rows, cols, dtype, raw, layout)
	if err != nil {
		raw.Release()
		return nil, err
	}
	return t, nil
}

// adopt builds the table's byte block for a source array's ownership state.
// retain takes a co-owning reference on the source and returns its release.
func adopt(owner, mutable bool, raw []byte, retain func() func()) (*array.Array[byte], error) {
	switch {
	case owner && mutable:
		return array.NewOwning(raw, retain()), nil
	case mutable:
		return array.WrapMutable(raw), nil
	case !owner:
		return array.Wrap(raw), nil
	default:
		return nil, ErrUnsupportedOwnership
	}
}

// maxElements bounds rows×cols so the byte size of any element type fits in an int.
const maxElements = math.MaxInt / 8

func validateShape(rows, cols int, layout Layout) error {
	if rows < 0 || cols < 1 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidShape, rows, cols)
	}
	if rows > maxElements/cols {
		return fmt.Errorf("%w: %dx%d overflows the element count", ErrInvalidShape, rows, cols)
	}
	if !layout.Valid() {
		return fmt.Errorf("%w: layout %d", ErrInvalidShape, int(layout))
	}
	return nil
}

func rowsFor(elements, cols int, layout Layout) (int, error) {
	if cols < 1 {
		return 0, fmt.Errorf("%w: column count %d", ErrInvalidShape, cols)
	}
	rows := elements / cols
	if rows*cols != elements {
		return 0, fmt.Errorf("%w: %d elements is not a multiple of %d columns",
			ErrSizeMismatch, elements, cols)
	}
	if err := validateShape(rows, cols, layout); err != nil {
		return 0, err
	}
	return rows, nil
}

func newHomogen(rows, cols int, dtype DataType, data *array.Array[byte], layout Layout) (*HomogenTable, error) {
	native, err := nativeView(dtype, data.Data())
	if err != nil {
		return nil, err
	}
	return &HomogenTable{
		rowCount:    rows,
		columnCount: cols,
		meta:        NewMetadata(cols, NewFeatureInfo(dtype), layout),
		data:        data,
		native:      native,
	}, nil
}

// nativeView reinterprets raw as a slice of the native element type.
func nativeView(dtype DataType, raw []byte) (any, error) {
	switch dtype {
	case Float32:
		return array.Cast[float32](raw)
	case Float64:
		return array.Cast[float64](raw)
	case Int32:
		return array.Cast[int32](raw)
	case Int64:
		return array.Cast[int64](raw)
	case Uint8:
		return raw, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedType, int(dtype))
	}
}

// RowCount returns the number of rows.
func (t *HomogenTable) RowCount() int {
	return t.rowCount
}

// ColumnCount returns the number of columns.
func (t *HomogenTable) ColumnCount() int {
	return t.columnCount
}

// Metadata returns the table's metadata. The result must not be modified.
func (t *HomogenTable) Metadata() *Metadata {
	return &t.meta
}

// DataType returns the native element type.
func (t *HomogenTable) DataType() DataType {
	return t.meta.DataType()
}

// Layout returns the memory layout.
func (t *HomogenTable) Layout() Layout {
	return t.meta.Layout()
}

// Data returns the raw bytes of the table for reading.
// WARNING: Writing through the returned slice bypasses mutability checks.
func (t *HomogenTable) Data() []byte {
	return t.data.Data()
}

// IsMutable reports whether the PushBack accessors may write to the table.
func (t *HomogenTable) IsMutable() bool {
	return t.data.HasMutableData() && !t.data.Released()
}

// IsDataOwner reports whether the table owns or co-owns its memory.
func (t *HomogenTable) IsDataOwner() bool {
	return t.data.IsDataOwner()
}

// Released reports whether Release was called.
func (t *HomogenTable) Released() bool {
	return t.data.Released()
}

// Release drops the table's reference to its memory. Owned memory is
// released once every co-owner has been released. Calling it again is a no-op.
func (t *HomogenTable) Release() {
	t.native = nil
	t.data.Release()
}

// String returns a short description of the table.
func (t *HomogenTable) String() string {
	return fmt.Sprintf("HomogenTable[%s]%dx%d %s", t.DataType(), t.rowCount, t.columnCount, t.Layout())
}
