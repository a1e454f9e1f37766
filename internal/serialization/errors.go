package serialization

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrChecksumMismatch   = errors.New("checksum mismatch: file may be corrupted")
	ErrOffsetOverlap      = errors.New("table offsets overlap")
	ErrOutOfBounds        = errors.New("table extends beyond data section")
	ErrHeaderTooLarge     = errors.New("header exceeds maximum size")
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrTableNotFound      = errors.New("table not found")
	ErrDuplicateTable     = errors.New("duplicate table name")
	ErrUnknownCodec       = errors.New("unknown codec")
	ErrReaderClosed       = errors.New("reader is closed")
	ErrCorruptPayload     = errors.New("corrupt table payload")
	ErrByteOrder          = errors.New("unsupported payload byte order")
)

// ValidationError provides detailed information about validation failures.
type ValidationError struct {
	Type    string // Type of error (e.g., "offset_overlap", "shape_mismatch")
	Table   string // Primary table name involved
	Table2  string // Secondary table name (for overlap errors)
	Details string // Additional details
	Err     error  // Matching sentinel, if any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Table2 != "" {
		return fmt.Sprintf("%s: tables %q and %q: %s", e.Type, e.Table, e.Table2, e.Details)
	}
	if e.Table != "" {
		return fmt.Sprintf("%s: table %q: %s", e.Type, e.Table, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Details)
}

// Unwrap returns the matching sentinel error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}
