package serialization

import (
	"fmt"
	"sort"
	"strings"
)

// Validation limits for security and resource protection.
const (
	MaxHeaderSize   = 100 * 1024 * 1024 // 100MB - maximum header size
	MaxDataSize     = 1 << 46           // 64TB - maximum data section size
	MaxTableCount   = 100_000           // Maximum number of tables in a file
	MaxTableNameLen = 4096              // Maximum table name length
)

// ValidationLevel controls the strictness of validation.
type ValidationLevel int

const (
	// ValidationStrict performs all validation checks (default, recommended for production).
	ValidationStrict ValidationLevel = iota
	// ValidationNormal checks names and shapes but not payload placement.
	ValidationNormal
	// ValidationNone skips validation (dangerous! Use only with trusted input).
	ValidationNone
)

// ValidateTableName checks table names for path traversal and malicious patterns.
func ValidateTableName(name string) error {
	switch {
	case name == "":
		return &ValidationError{Type: "invalid_name", Details: "empty table name"}
	case len(name) > MaxTableNameLen:
		return &ValidationError{
			Type:    "name_too_long",
			Table:   name,
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxTableNameLen),
		}
	case strings.Contains(name, ".."):
		return &ValidationError{Type: "invalid_name", Table: name, Details: "contains '..' (path traversal attempt)"}
	case strings.ContainsAny(name, "/\\"):
		return &ValidationError{Type: "invalid_name", Table: name, Details: "contains path separator (/ or \\)"}
	case strings.Contains(name, "\x00"):
		return &ValidationError{Type: "invalid_name", Table: name, Details: "contains null byte"}
	}
	return nil
}

// ValidateTableMeta checks that a descriptor names a known type and layout and
// that its shape matches its decoded size.
func ValidateTableMeta(m *TableMeta) error {
	dtype, err := m.DataType()
	if err != nil {
		return &ValidationError{Type: "invalid_dtype", Table: m.Name, Details: err.Error(), Err: err}
	}
	if _, err := m.TableLayout(); err != nil {
		return &ValidationError{Type: "invalid_layout", Table: m.Name, Details: err.Error(), Err: err}
	}
	if m.Rows < 0 || m.Columns < 1 {
		return &ValidationError{
			Type:    "invalid_shape",
			Table:   m.Name,
			Details: fmt.Sprintf("%dx%d", m.Rows, m.Columns),
		}
	}
	if want := int64(m.Rows) * int64(m.Columns) * int64(dtype.Size()); want != m.RawSize {
		return &ValidationError{
			Type:    "shape_mismatch",
			Table:   m.Name,
			Details: fmt.Sprintf("%dx%d %s needs %d bytes, raw_size is %d", m.Rows, m.Columns, m.DType, want, m.RawSize),
		}
	}
	if m.Codec == CodecNone && m.Size != m.RawSize {
		return &ValidationError{
			Type:    "shape_mismatch",
			Table:   m.Name,
			Details: fmt.Sprintf("raw payload size %d != raw_size %d", m.Size, m.RawSize),
		}
	}
	return nil
}

// ValidateTableOffsets checks for overlapping payloads and out-of-bounds access.
func ValidateTableOffsets(tables []TableMeta, dataSize int64) error {
	sorted := make([]TableMeta, len(tables))
	copy(sorted, tables)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})

	for i, t := range sorted {
		if t.Offset < 0 || t.Size < 0 {
			return &ValidationError{
				Type:    "negative_offset",
				Table:   t.Name,
				Details: fmt.Sprintf("offset=%d, size=%d (negative values not allowed)", t.Offset, t.Size),
				Err:     ErrOutOfBounds,
			}
		}
		if t.Offset+t.Size > dataSize {
			return &ValidationError{
				Type:    "out_of_bounds",
				Table:   t.Name,
				Details: fmt.Sprintf("offset %d + size %d > data_size %d", t.Offset, t.Size, dataSize),
				Err:     ErrOutOfBounds,
			}
		}
		if t.Offset%HeaderAlignment != 0 {
			return &ValidationError{
				Type:    "misaligned_offset",
				Table:   t.Name,
				Details: fmt.Sprintf("offset %d is not a multiple of %d", t.Offset, HeaderAlignment),
			}
		}
		if i < len(sorted)-1 {
			next := sorted[i+1]
			if t.Offset+t.Size > next.Offset {
				return &ValidationError{
					Type:    "offset_overlap",
					Table:   t.Name,
					Table2:  next.Name,
					Details: fmt.Sprintf("regions [%d-%d] and [%d-%d] overlap", t.Offset, t.Offset+t.Size, next.Offset, next.Offset+next.Size),
					Err:     ErrOffsetOverlap,
				}
			}
		}
	}
	return nil
}

// ValidateHeader performs header validation at the given level.
func ValidateHeader(h *Header, dataSize int64, level ValidationLevel) error {
	if level == ValidationNone {
		return nil
	}

	if len(h.Tables) > MaxTableCount {
		return &ValidationError{
			Type:    "too_many_tables",
			Details: fmt.Sprintf("got %d, max %d", len(h.Tables), MaxTableCount),
		}
	}

	seen := make(map[string]struct{}, len(h.Tables))
	for i := range h.Tables {
		m := &h.Tables[i]
		if err := ValidateTableName(m.Name); err != nil {
			return err
		}
		if _, dup := seen[m.Name]; dup {
			return &ValidationError{Type: "duplicate_name", Table: m.Name, Details: "name used twice", Err: ErrDuplicateTable}
		}
		seen[m.Name] = struct{}{}
		if err := ValidateTableMeta(m); err != nil {
			return err
		}
	}

	if level == ValidationStrict {
		return ValidateTableOffsets(h.Tables, dataSize)
	}
	return nil
}
