package table

import "fmt"

// FeatureType describes how values of a feature are interpreted.
type FeatureType int

// Feature types.
const (
	Contiguous FeatureType = iota // real-valued measurements
	Ordinal                       // ordered integer levels
)

// String returns a human-readable feature type name.
func (ft FeatureType) String() string {
	switch ft {
	case Contiguous:
		return "contiguous"
	case Ordinal:
		return "ordinal"
	default:
		return "unknown"
	}
}

// FeatureInfo describes the type of a table column.
type FeatureInfo struct {
	dtype DataType
	ftype FeatureType
}

// NewFeatureInfo describes a column of dtype. Floating point columns are
// contiguous, integer columns ordinal.
func NewFeatureInfo(dtype DataType) FeatureInfo {
	ft := Ordinal
	if dtype.IsFloat() {
		ft = Contiguous
	}
	return FeatureInfo{dtype: dtype, ftype: ft}
}

// DataType returns the element type of the column.
func (f FeatureInfo) DataType() DataType {
	return f.dtype
}

// FeatureType returns how the column's values are interpreted.
func (f FeatureInfo) FeatureType() FeatureType {
	return f.ftype
}

// Metadata describes a table's columns and memory layout.
// A homogeneous table carries one FeatureInfo shared by every column.
type Metadata struct {
	columnCount int
	feature     FeatureInfo
	layout      Layout
}

// NewMetadata builds metadata for columnCount columns of one feature type.
func NewMetadata(columnCount int, feature FeatureInfo, layout Layout) Metadata {
	return Metadata{columnCount: columnCount, feature: feature, layout: layout}
}

// ColumnCount returns the number of columns.
func (m *Metadata) ColumnCount() int {
	return m.columnCount
}

// Feature returns the feature info of column i.
func (m *Metadata) Feature(i int) (FeatureInfo, error) {
	if i < 0 || i >= m.columnCount {
		return FeatureInfo{}, fmt.Errorf("%w: column %d of %d", ErrOutOfBounds, i, m.columnCount)
	}
	return m.feature, nil
}

// DataType returns the element type shared by all columns.
func (m *Metadata) DataType() DataType {
	return m.feature.dtype
}

// Layout returns the memory layout.
func (m *Metadata) Layout() Layout {
	return m.layout
}
