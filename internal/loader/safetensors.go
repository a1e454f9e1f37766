package loader

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/born-ml/dal/internal/array"
	"github.com/born-ml/dal/internal/serialization"
	"github.com/born-ml/dal/internal/table"
)

// SafeTensors format:
// [8 bytes: header_size (uint64 LE)]
// [header_size bytes: JSON header]
// [tensor data: raw bytes]

const maxHeaderSize = 100 * 1024 * 1024

// maxElements bounds a tensor's element count so its byte size fits in an int64.
const maxElements = math.MaxInt64 / 8

// Errors.
var (
	ErrTensorNotFound   = errors.New("tensor not found")
	ErrUnsupportedDType = errors.New("unsupported tensor dtype")
	ErrInvalidTensor    = errors.New("invalid tensor descriptor")
)

// DType is a SafeTensors element type name.
type DType string

// SafeTensors dtypes.
const (
	F16  DType = "F16"
	BF16 DType = "BF16"
	F32  DType = "F32"
	F64  DType = "F64"
	I32  DType = "I32"
	I64  DType = "I64"
	U8   DType = "U8"
	Bool DType = "BOOL"
)

// size returns the element size in bytes, 0 for unknown dtypes.
func (d DType) size() int {
	switch d {
	case U8, Bool:
		return 1
	case F16, BF16:
		return 2
	case F32, I32:
		return 4
	case F64, I64:
		return 8
	default:
		return 0
	}
}

// tableType returns the data type of the imported table.
func (d DType) tableType() (table.DataType, error) {
	switch d {
	case F32, F16, BF16:
		return table.Float32, nil
	case F64:
		return table.Float64, nil
	case I32:
		return table.Int32, nil
	case I64:
		return table.Int64, nil
	case U8, Bool:
		return table.Uint8, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedDType, d)
	}
}

// TensorInfo describes a tensor in a SafeTensors file.
type TensorInfo struct {
	DType       DType    `json:"dtype"`
	Shape       []int    `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"` // [start, end) relative to the data section
}

// TableShape returns the rows and columns of the table the tensor maps to.
func (i *TensorInfo) TableShape() (rows, cols int) {
	switch len(i.Shape) {
	case 0:
		return 1, 1
	case 1:
		return i.Shape[0], 1
	}
	cols = 1
	for _, d := range i.Shape[1:] {
		cols *= d
	}
	return i.Shape[0], cols
}

func (i *TensorInfo) validate(name string, dataSize int64) error {
	esize := i.DType.size()
	if esize == 0 {
		return fmt.Errorf("tensor %q: %w: %s", name, ErrUnsupportedDType, i.DType)
	}
	// Bounding the product of the nonzero dims bounds both the element
	// count and the table shape, whatever zeros the shape holds.
	elements, nonzero := int64(1), int64(1)
	for _, d := range i.Shape {
		if d < 0 {
			return fmt.Errorf("tensor %q: %w: shape %v", name, ErrInvalidTensor, i.Shape)
		}
		if d > 0 {
			if nonzero > maxElements/int64(d) {
				return fmt.Errorf("tensor %q: %w: shape %v overflows", name, ErrInvalidTensor, i.Shape)
			}
			nonzero *= int64(d)
		}
		elements *= int64(d)
	}
	start, end := i.DataOffsets[0], i.DataOffsets[1]
	if start < 0 || end < start || end > dataSize {
		return fmt.Errorf("tensor %q: %w: data offsets [%d, %d) outside data section of %d bytes",
			name, ErrInvalidTensor, start, end, dataSize)
	}
	if end-start != elements*int64(esize) {
		return fmt.Errorf("tensor %q: %w: shape %v %s needs %d bytes, offsets span %d",
			name, ErrInvalidTensor, i.Shape, i.DType, elements*int64(esize), end-start)
	}
	if rows, cols := i.TableShape(); cols == 0 && rows > 0 {
		return fmt.Errorf("tensor %q: %w: shape %v has no columns", name, ErrInvalidTensor, i.Shape)
	}
	return nil
}

// header is the JSON header of a SafeTensors file.
type header struct {
	Metadata map[string]string
	Tensors  map[string]TensorInfo
}

// UnmarshalJSON splits the "__metadata__" entry from the tensor entries.
func (h *header) UnmarshalJSON(data []byte) error {
	var rawMap map[string]json.RawMessage
	if err := json.Unmarshal(data, &rawMap); err != nil {
		return err
	}

	if metadataRaw, ok := rawMap["__metadata__"]; ok {
		if err := json.Unmarshal(metadataRaw, &h.Metadata); err != nil {
			return fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	h.Tensors = make(map[string]TensorInfo, len(rawMap))
	for key, value := range rawMap {
		if key == "__metadata__" {
			continue
		}
		var info TensorInfo
		if err := json.Unmarshal(value, &info); err != nil {
			return fmt.Errorf("failed to unmarshal tensor %s: %w", key, err)
		}
		h.Tensors[key] = info
	}
	return nil
}

// SafeTensorsReader reads tensors from a SafeTensors file as tables.
type SafeTensorsReader struct {
	file       *os.File
	header     header
	names      []string // tensor names in data order
	dataOffset int64
}

// OpenSafeTensors opens a SafeTensors file and validates its header.
func OpenSafeTensors(path string) (*SafeTensorsReader, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for importing
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	r, err := newSafeTensorsReader(file)
	if err != nil {
		_ = file.Close() // Best effort close on error
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

func newSafeTensorsReader(file *os.File) (*SafeTensorsReader, error) {
	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	var headerSize uint64
	if err := binary.Read(file, binary.LittleEndian, &headerSize); err != nil {
		return nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > maxHeaderSize || int64(8+headerSize) > stat.Size() { //nolint:gosec // G115: bounded by maxHeaderSize
		return nil, fmt.Errorf("invalid header size: %d", headerSize)
	}

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(file, headerBytes); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	var h header
	if err := json.Unmarshal(headerBytes, &h); err != nil {
		return nil, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	dataOffset := int64(8 + headerSize) //nolint:gosec // G115: bounded by maxHeaderSize
	dataSize := stat.Size() - dataOffset

	names := make([]string, 0, len(h.Tensors))
	for name, info := range h.Tensors {
		if err := info.validate(name, dataSize); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := h.Tensors[names[i]].DataOffsets[0], h.Tensors[names[j]].DataOffsets[0]
		if a != b {
			return a < b
		}
		return names[i] < names[j]
	})

	return &SafeTensorsReader{
		file:       file,
		header:     h,
		names:      names,
		dataOffset: dataOffset,
	}, nil
}

// Close closes the SafeTensors file.
func (r *SafeTensorsReader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// Metadata returns the "__metadata__" map from the header.
func (r *SafeTensorsReader) Metadata() map[string]string {
	return r.header.Metadata
}

// Names returns the tensor names in data order.
func (r *SafeTensorsReader) Names() []string {
	return append([]string(nil), r.names...)
}

// Info returns the descriptor of the named tensor.
func (r *SafeTensorsReader) Info(name string) (TensorInfo, error) {
	info, ok := r.header.Tensors[name]
	if !ok {
		return TensorInfo{}, fmt.Errorf("%w: %q", ErrTensorNotFound, name)
	}
	return info, nil
}

// ReadData reads the raw bytes of the named tensor into aligned memory.
func (r *SafeTensorsReader) ReadData(name string) ([]byte, error) {
	info, err := r.Info(name)
	if err != nil {
		return nil, err
	}

	start := r.dataOffset + info.DataOffsets[0]
	data := array.AlignedBytes(int(info.DataOffsets[1] - info.DataOffsets[0]))
	if _, err := r.file.ReadAt(data, start); err != nil {
		return nil, fmt.Errorf("failed to read tensor %s: %w", name, err)
	}
	return data, nil
}

// LoadTable reads the named tensor into an owning row-major table.
func (r *SafeTensorsReader) LoadTable(name string) (*table.HomogenTable, error) {
	info, err := r.Info(name)
	if err != nil {
		return nil, err
	}
	dtype, err := info.DType.tableType()
	if err != nil {
		return nil, fmt.Errorf("tensor %q: %w", name, err)
	}

	data, err := r.ReadData(name)
	if err != nil {
		return nil, err
	}
	switch info.DType {
	case F16:
		data = widen(data, float16ToFloat32)
	case BF16:
		data = widen(data, bfloat16ToFloat32)
	}

	// A tensor with no elements at all, e.g. shape [0, 0], becomes a 0x1 table.
	_, cols := info.TableShape()
	cols = max(cols, 1)

	a := array.NewOwning(data, nil)
	defer a.Release()
	t, err := table.NewFromBytes(cols, dtype, a, table.RowMajor)
	if err != nil {
		return nil, fmt.Errorf("tensor %q: %w", name, err)
	}
	return t, nil
}

// LoadAll reads every tensor, in data order, as named tables.
// On error the tables loaded so far are released.
func (r *SafeTensorsReader) LoadAll() ([]serialization.NamedTable, error) {
	out := make([]serialization.NamedTable, 0, len(r.names))
	for _, name := range r.names {
		t, err := r.LoadTable(name)
		if err != nil {
			for _, nt := range out {
				nt.Table.Release()
			}
			return nil, err
		}
		out = append(out, serialization.NamedTable{Name: name, Table: t})
	}
	return out, nil
}
