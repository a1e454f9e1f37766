package table

import (
	"errors"
	"fmt"

	"github.com/born-ml/dal/internal/array"
)

// Sentinel errors. Match with errors.Is.
var (
	// ErrInvalidShape is returned for a negative row count or a column count < 1.
	ErrInvalidShape = errors.New("table: invalid shape")

	// ErrSizeMismatch is returned when a buffer does not hold exactly rows×columns elements.
	ErrSizeMismatch = errors.New("table: size mismatch")

	// ErrOutOfBounds is returned for a row range or column index outside the table.
	ErrOutOfBounds = errors.New("table: index out of bounds")

	// ErrImmutable is returned when writing to a read-only table.
	// It also matches array.ErrImmutable.
	ErrImmutable = fmt.Errorf("table: %w", array.ErrImmutable)

	// ErrUnsupportedOwnership is returned when adopting an owning read-only array.
	ErrUnsupportedOwnership = errors.New("table: cannot adopt an owning read-only array")

	// ErrTypeMismatch is returned when a zero-copy view is requested with a
	// type other than the table's native type.
	ErrTypeMismatch = errors.New("table: element type mismatch")

	// ErrNotContiguous is returned when a zero-copy view is requested over rows
	// that are not contiguous in memory.
	ErrNotContiguous = errors.New("table: rows are not contiguous")

	// ErrUnsupportedType is returned for an unknown data type.
	ErrUnsupportedType = errors.New("table: unsupported data type")

	// ErrReleased is returned when using a table or array after Release.
	ErrReleased = errors.New("table: released")
)

// AccessError describes a failed accessor call.
type AccessError struct {
	Op     string // Accessor name (e.g. "PullRows")
	Range  Range  // Requested row range
	Column int    // Requested column, -1 for row operations
	Err    error  // One of the sentinel errors
}

// Error implements the error interface.
func (e *AccessError) Error() string {
	if e.Column >= 0 {
		return fmt.Sprintf("%s column %d rows %s: %v", e.Op, e.Column, e.Range, e.Err)
	}
	return fmt.Sprintf("%s rows %s: %v", e.Op, e.Range, e.Err)
}

// Unwrap returns the underlying sentinel.
func (e *AccessError) Unwrap() error {
	return e.Err
}
