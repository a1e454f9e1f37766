package table

import "fmt"

// Layout is the physical ordering of a table's elements.
type Layout int

// Supported layouts.
const (
	RowMajor Layout = iota
	ColumnMajor
)

// String returns a human-readable layout name.
func (l Layout) String() string {
	switch l {
	case RowMajor:
		return "row_major"
	case ColumnMajor:
		return "column_major"
	default:
		return "unknown"
	}
}

// Valid reports whether l is a supported layout.
func (l Layout) Valid() bool {
	return l == RowMajor || l == ColumnMajor
}

// ParseLayout is the inverse of Layout.String.
func ParseLayout(s string) (Layout, error) {
	switch s {
	case "row_major":
		return RowMajor, nil
	case "column_major":
		return ColumnMajor, nil
	default:
		return 0, fmt.Errorf("table: unknown layout %q", s)
	}
}

// offset is the linear element index of (row, col) in a rows×cols table.
func offset(row, col, rows, cols int, l Layout) int {
	if l == ColumnMajor {
		return col*rows + row
	}
	return row*cols + col
}

// rowStride is the distance between (row, col) and (row+1, col).
func rowStride(rows, cols int, l Layout) int {
	return offset(1, 0, rows, cols, l) - offset(0, 0, rows, cols, l)
}

// Range is a half-open interval of rows [Start, End).
// A negative End counts from the end: End = rows + End + 1, so All covers every row.
type Range struct {
	Start int
	End   int
}

// All is the range of every row in a table.
var All = Range{Start: 0, End: -1}

// Rows returns the range [start, end).
func Rows(start, end int) Range {
	return Range{Start: start, End: end}
}

// String formats the range as [start, end).
func (r Range) String() string {
	return fmt.Sprintf("[%d, %d)", r.Start, r.End)
}

// normalize resolves a negative End against rows and checks the bounds.
func (r Range) normalize(rows int) (Range, bool) {
	if r.End < 0 {
		r.End = rows + r.End + 1
	}
	if r.Start < 0 || r.Start > r.End || r.End > rows {
		return r, false
	}
	return r, true
}

// Len returns the number of rows in a normalized range.
func (r Range) Len() int {
	return r.End - r.Start
}

// segment is a run of n elements starting at src with the given stride,
// mapped onto consecutive elements starting at dst.
type segment struct {
	src, dst, n, stride int
}

// rowSegments plans the copy of rows r in layout order.
func rowSegments(rows, cols int, l Layout, r Range) []segment {
	if l == RowMajor {
		return []segment{{src: offset(r.Start, 0, rows, cols, l), n: r.Len() * cols, stride: 1}}
	}
	segs := make([]segment, cols)
	for j := range segs {
		segs[j] = segment{src: offset(r.Start, j, rows, cols, l), dst: j * r.Len(), n: r.Len(), stride: 1}
	}
	return segs
}

// columnSegments plans the copy of rows r of column col.
func columnSegments(rows, cols int, l Layout, col int, r Range) []segment {
	return []segment{{src: offset(r.Start, col, rows, cols, l), n: r.Len(), stride: rowStride(rows, cols, l)}}
}
