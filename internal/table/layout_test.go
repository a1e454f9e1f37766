package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOffset(t *testing.T) {
	// 2x3 matrix
	//   0 1 2
	//   3 4 5
	assert.Equal(t, 5, offset(1, 2, 2, 3, RowMajor))
	assert.Equal(t, 1, offset(0, 1, 2, 3, RowMajor))
	assert.Equal(t, 5, offset(1, 2, 2, 3, ColumnMajor))
	assert.Equal(t, 2, offset(0, 1, 2, 3, ColumnMajor))
	assert.Equal(t, 1, offset(1, 0, 2, 3, ColumnMajor))

	assert.Equal(t, 3, rowStride(2, 3, RowMajor))
	assert.Equal(t, 1, rowStride(2, 3, ColumnMajor))
}

func TestLayoutParse(t *testing.T) {
	for _, l := range []Layout{RowMajor, ColumnMajor} {
		got, err := ParseLayout(l.String())
		require.NoError(t, err)
		assert.Equal(t, l, got)
	}
	_, err := ParseLayout("diagonal")
	assert.Error(t, err)
	assert.False(t, Layout(7).Valid())
}

func TestRangeNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Range
		rows int
		want Range
		ok   bool
	}{
		{"all", All, 5, Range{0, 5}, true},
		{"explicit", Rows(1, 3), 5, Range{1, 3}, true},
		{"empty", Rows(2, 2), 5, Range{2, 2}, true},
		{"to end minus one", Rows(0, -2), 5, Range{0, 4}, true},
		{"all of empty table", All, 0, Range{0, 0}, true},
		{"end past rows", Rows(0, 6), 5, Range{}, false},
		{"negative start", Rows(-1, 2), 5, Range{}, false},
		{"start after end", Rows(3, 2), 5, Range{}, false},
		{"end before start via negative", Rows(4, -3), 5, Range{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.in.normalize(tt.rows)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestRowSegments(t *testing.T) {
	segs := rowSegments(4, 3, RowMajor, Range{1, 3})
	assert.Equal(t, []segment{{src: 3, dst: 0, n: 6, stride: 1}}, segs)

	segs = rowSegments(4, 3, ColumnMajor, Range{1, 3})
	assert.Equal(t, []segment{
		{src: 1, dst: 0, n: 2, stride: 1},
		{src: 5, dst: 2, n: 2, stride: 1},
		{src: 9, dst: 4, n: 2, stride: 1},
	}, segs)
}

func TestColumnSegments(t *testing.T) {
	assert.Equal(t, []segment{{src: 5, n: 2, stride: 3}}, columnSegments(4, 3, RowMajor, 2, Range{1, 3}))
	assert.Equal(t, []segment{{src: 9, n: 2, stride: 1}}, columnSegments(4, 3, ColumnMajor, 2, Range{1, 3}))
}
