// Package loader imports tables from model weight files.
//
// This package wraps the internal SafeTensors reader and exports a small
// public API for turning tensors into homogeneous tables.
//
// Example usage:
//
//	import (
//	    "github.com/born-ml/dal/loader"
//	    "github.com/born-ml/dal/table"
//	)
//
//	tables, err := loader.Import("model.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = table.Save("model.dalt", tables, table.WithCompression(table.CodecZstd))
package loader

import (
	"github.com/born-ml/dal/internal/loader"
	"github.com/born-ml/dal/table"
)

// SafeTensorsReader reads the tensors of a SafeTensors file as tables.
type SafeTensorsReader = loader.SafeTensorsReader

// TensorInfo describes one tensor: dtype, shape and data offsets.
type TensorInfo = loader.TensorInfo

// DType is a SafeTensors element type name.
type DType = loader.DType

// SafeTensors dtypes that can be imported.
const (
	F16  = loader.F16
	BF16 = loader.BF16
	F32  = loader.F32
	F64  = loader.F64
	I32  = loader.I32
	I64  = loader.I64
	U8   = loader.U8
	Bool = loader.Bool
)

// Errors.
var (
	ErrTensorNotFound   = loader.ErrTensorNotFound
	ErrUnsupportedDType = loader.ErrUnsupportedDType
	ErrInvalidTensor    = loader.ErrInvalidTensor
)

// OpenSafeTensors opens a SafeTensors file and validates its header.
//
// The caller must Close the reader.
func OpenSafeTensors(path string) (*SafeTensorsReader, error) {
	return loader.OpenSafeTensors(path)
}

// Import reads every tensor of a SafeTensors file as an owning table,
// in the order the tensors are stored.
func Import(path string) ([]table.Named, error) {
	r, err := loader.OpenSafeTensors(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	return r.LoadAll()
}
