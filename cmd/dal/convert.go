package main

import (
	"fmt"

	"github.com/born-ml/dal/array"
	"github.com/born-ml/dal/table"
)

// conversion is a target layout and data type; nil fields keep the source's.
type conversion struct {
	layout *table.Layout
	dtype  *table.DataType
}

// apply returns an owning copy of src in the target layout and type.
func (c conversion) apply(src *table.HomogenTable) (*table.HomogenTable, error) {
	layout := src.Layout()
	if c.layout != nil {
		layout = *c.layout
	}
	dtype := src.DataType()
	if c.dtype != nil {
		dtype = *c.dtype
	}

	switch dtype {
	case table.Float32:
		return convertAs[float32](src, layout)
	case table.Float64:
		return convertAs[float64](src, layout)
	case table.Int32:
		return convertAs[int32](src, layout)
	case table.Int64:
		return convertAs[int64](src, layout)
	case table.Uint8:
		return convertAs[uint8](src, layout)
	default:
		return nil, fmt.Errorf("%w: %s", table.ErrUnsupportedType, dtype)
	}
}

// convertAs copies src column by column into a new table of type T.
func convertAs[T array.Element](src *table.HomogenTable, layout table.Layout) (*table.HomogenTable, error) {
	dst := table.NewFilled[T](src.RowCount(), src.ColumnCount(), 0, layout)

	var buf []T
	for col := range src.ColumnCount() {
		var err error
		if buf, err = table.PullColumn(src, buf, col, table.All); err != nil {
			dst.Release()
			return nil, err
		}
		if err := table.PushBackColumn(dst, buf, col, table.All); err != nil {
			dst.Release()
			return nil, err
		}
	}
	return dst, nil
}
