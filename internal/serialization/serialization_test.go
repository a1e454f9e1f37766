package serialization

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/dal/internal/table"
)

var (
	featureData = []float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
		10, 11, 12,
		13, 14, 15,
	}
	labelData = []int64{0, 1, 1, 0, 2}
	scoreData = []float64{ // 4x2, column-major
		0.5, 1.5, 2.5, 3.5,
		-1, -2, -3, -4,
	}
)

// testTables returns tables of every data type and both layouts.
func testTables(t *testing.T) []NamedTable {
	t.Helper()

	f, err := table.New(5, 3, featureData, table.RowMajor)
	require.NoError(t, err)
	l, err := table.New(5, 1, labelData, table.ColumnMajor)
	require.NoError(t, err)
	s, err := table.New(4, 2, scoreData, table.ColumnMajor)
	require.NoError(t, err)
	i, err := table.New(2, 2, []int32{-7, 8, -9, 10}, table.RowMajor)
	require.NoError(t, err)
	empty, err := table.New(0, 4, []uint8{}, table.RowMajor)
	require.NoError(t, err)

	return []NamedTable{
		{Name: "features", Table: f},
		{Name: "labels", Table: l},
		{Name: "scores", Table: s},
		{Name: "ids", Table: i},
		{Name: "empty", Table: empty},
	}
}

// compressible returns a 64x16 float32 table with few distinct values.
func compressible(t *testing.T) *table.HomogenTable {
	t.Helper()
	return table.NewFilled[float32](64, 16, 3.25, table.RowMajor)
}

func encode(t *testing.T, tables []NamedTable, opts ...Option) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, tables, opts...))
	return buf.Bytes()
}

func requireSameTables(t *testing.T, want []NamedTable, got interface {
	Table(string) (*table.HomogenTable, error)
}) {
	t.Helper()
	for _, nt := range want {
		tbl, err := got.Table(nt.Name)
		require.NoError(t, err, nt.Name)
		assert.Equal(t, nt.Table.RowCount(), tbl.RowCount(), nt.Name)
		assert.Equal(t, nt.Table.ColumnCount(), tbl.ColumnCount(), nt.Name)
		assert.Equal(t, nt.Table.DataType(), tbl.DataType(), nt.Name)
		assert.Equal(t, nt.Table.Layout(), tbl.Layout(), nt.Name)
		assert.Equal(t, nt.Table.Data(), tbl.Data(), nt.Name)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	want := testTables(t)

	f, err := Decode(bytes.NewReader(encode(t, want)))
	require.NoError(t, err)
	defer f.Release()

	assert.Equal(t, []string{"features", "labels", "scores", "ids", "empty"}, f.Names())
	requireSameTables(t, want, f)

	features, err := f.Table("features")
	require.NoError(t, err)
	row, err := table.PullRows[float64](features, nil, table.Rows(1, 2))
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 5, 6}, row)

	scores, err := f.Table("scores")
	require.NoError(t, err)
	col, err := table.PullColumn[float64](scores, nil, 1, table.All)
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, -2, -3, -4}, col)
}

func TestDecodedTablesAreOwnedAndMutable(t *testing.T) {
	f, err := Decode(bytes.NewReader(encode(t, testTables(t))))
	require.NoError(t, err)
	defer f.Release()

	labels, err := f.Table("labels")
	require.NoError(t, err)
	assert.True(t, labels.IsDataOwner())
	assert.True(t, labels.IsMutable())

	require.NoError(t, table.PushBackRows(labels, []int64{9}, table.Rows(4, 5)))
	got, err := table.PullColumn[int64](labels, nil, 0, table.All)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1, 1, 0, 9}, got)

	// Writing one table leaves its neighbours alone.
	features, err := f.Table("features")
	require.NoError(t, err)
	all, err := table.PullRows[float32](features, nil, table.All)
	require.NoError(t, err)
	assert.Equal(t, featureData, all)
}

func TestRoundTripCodecs(t *testing.T) {
	for _, codec := range []string{CodecNone, CodecZstd, CodecLZ4, CodecSnappy} {
		t.Run(codec, func(t *testing.T) {
			want := append(testTables(t), NamedTable{Name: "dense", Table: compressible(t)})

			f, err := Decode(bytes.NewReader(encode(t, want, WithCompression(codec))))
			require.NoError(t, err)
			defer f.Release()

			requireSameTables(t, want, f)

			meta := f.Header().Tables[len(want)-1]
			assert.Equal(t, codec, meta.Codec)
			assert.Equal(t, int64(64*16*4), meta.RawSize)
			if codec != CodecNone {
				assert.Less(t, meta.Size, meta.RawSize)
				assert.NotZero(t, f.Flags()&FlagCompressed)
			} else {
				assert.Zero(t, f.Flags()&FlagCompressed)
			}
		})
	}
}

func TestIncompressiblePayloadStoredRaw(t *testing.T) {
	noise := make([]uint8, 1024)
	x := uint32(2463534242)
	for i := range noise {
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		noise[i] = uint8(x)
	}
	tbl, err := table.New(64, 16, noise, table.RowMajor)
	require.NoError(t, err)

	for _, codec := range []string{CodecZstd, CodecLZ4, CodecSnappy} {
		t.Run(codec, func(t *testing.T) {
			f, err := Decode(bytes.NewReader(encode(t, []NamedTable{{Name: "noise", Table: tbl}}, WithCompression(codec))))
			require.NoError(t, err)
			defer f.Release()

			meta := f.Header().Tables[0]
			assert.Equal(t, CodecNone, meta.Codec)
			assert.Equal(t, meta.RawSize, meta.Size)

			got, err := f.Table("noise")
			require.NoError(t, err)
			assert.Equal(t, noise, got.Data())
		})
	}
}

func TestPayloadsAreAligned(t *testing.T) {
	f, err := Decode(bytes.NewReader(encode(t, testTables(t))))
	require.NoError(t, err)
	defer f.Release()

	for _, m := range f.Header().Tables {
		assert.Zero(t, m.Offset%HeaderAlignment, m.Name)
	}
}

func TestHeaderFields(t *testing.T) {
	data := encode(t, testTables(t), WithMetadata(map[string]string{"source": "iris"}))
	f, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Release()

	h := f.Header()
	assert.Equal(t, FormatVersion, h.FormatVersion)
	assert.Equal(t, hostByteOrder(), h.ByteOrder)
	assert.Len(t, h.FileID, 36)
	assert.False(t, h.CreatedAt.IsZero())
	assert.Equal(t, "iris", h.Metadata["source"])
	assert.NotZero(t, f.Flags()&FlagHasMetadata)

	m := h.Tables[2]
	assert.Equal(t, TableMeta{
		Name:    "scores",
		DType:   "float64",
		Layout:  "column_major",
		Rows:    4,
		Columns: 2,
		Offset:  m.Offset,
		Size:    64,
		RawSize: 64,
		Codec:   CodecNone,
	}, m)
}

// rewriteHeader re-encodes the JSON header of an encoded file after edit
// changes it. The data section and its checksum are kept.
func rewriteHeader(t *testing.T, file []byte, edit func(*Header)) []byte {
	t.Helper()
	fixed, err := parseFixedHeader(file)
	require.NoError(t, err)
	h, err := parseHeaderJSON(file[FixedHeaderSize : FixedHeaderSize+fixed.headerSize])
	require.NoError(t, err)
	data := file[fixed.dataOffset():]

	edit(&h)
	headerJSON, err := json.Marshal(&h)
	require.NoError(t, err)
	fixed.headerSize = uint64(len(headerJSON))

	out := append(fixed.marshal(), headerJSON...)
	out = append(out, make([]byte, fixed.dataOffset()-int64(len(out)))...)
	return append(out, data...)
}

func TestDecodeByteOrder(t *testing.T) {
	data := encode(t, testTables(t))
	foreign := ByteOrderBig
	if hostByteOrder() == ByteOrderBig {
		foreign = ByteOrderLittle
	}

	_, err := Decode(bytes.NewReader(rewriteHeader(t, data, func(h *Header) { h.ByteOrder = foreign })))
	assert.ErrorIs(t, err, ErrByteOrder)

	_, err = Decode(bytes.NewReader(rewriteHeader(t, data, func(h *Header) { h.ByteOrder = "middle" })))
	assert.ErrorIs(t, err, ErrByteOrder)

	// Unvalidated loads still refuse foreign payloads.
	_, err = Decode(bytes.NewReader(rewriteHeader(t, data, func(h *Header) { h.ByteOrder = foreign })),
		WithValidation(ValidationNone), WithVerifyChecksum(false))
	assert.ErrorIs(t, err, ErrByteOrder)

	if hostByteOrder() == ByteOrderLittle {
		f, err := Decode(bytes.NewReader(rewriteHeader(t, data, func(h *Header) { h.ByteOrder = "" })))
		require.NoError(t, err)
		f.Release()
	}
}

func TestEncodeAssignsFreshFileID(t *testing.T) {
	tables := testTables(t)
	a, err := Decode(bytes.NewReader(encode(t, tables)))
	require.NoError(t, err)
	b, err := Decode(bytes.NewReader(encode(t, tables)))
	require.NoError(t, err)
	assert.NotEqual(t, a.Header().FileID, b.Header().FileID)
}

func TestEncodeErrors(t *testing.T) {
	tbl := compressible(t)
	released := compressible(t)
	released.Release()

	tests := []struct {
		name   string
		tables []NamedTable
		opts   []Option
		target error
	}{
		{"duplicate", []NamedTable{{"a", tbl}, {"a", tbl}}, nil, ErrDuplicateTable},
		{"released", []NamedTable{{"a", released}}, nil, table.ErrReleased},
		{"unknown codec", []NamedTable{{"a", tbl}}, []Option{WithCompression("brotli")}, ErrUnknownCodec},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Encode(&bytes.Buffer{}, tt.tables, tt.opts...)
			assert.ErrorIs(t, err, tt.target)
		})
	}

	var verr *ValidationError
	err := Encode(&bytes.Buffer{}, []NamedTable{{"../etc/passwd", tbl}})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "invalid_name", verr.Type)
}

func TestDecodeChecksumMismatch(t *testing.T) {
	data := encode(t, testTables(t))
	data[len(data)-1] ^= 0xFF // last byte of the data section

	_, err := Decode(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrChecksumMismatch)

	f, err := Decode(bytes.NewReader(data), WithVerifyChecksum(false))
	require.NoError(t, err)
	f.Release()
}

func TestDecodeCorruptCompressedPayload(t *testing.T) {
	data := encode(t, []NamedTable{{Name: "dense", Table: compressible(t)}}, WithCompression(CodecZstd))
	data[len(data)-4] ^= 0xFF

	_, err := Decode(bytes.NewReader(data), WithVerifyChecksum(false))
	assert.ErrorIs(t, err, ErrCorruptPayload)
}

func TestDecodeInvalidFixedHeader(t *testing.T) {
	data := encode(t, testTables(t))

	badMagic := bytes.Clone(data)
	copy(badMagic, "BORN")
	_, err := Decode(bytes.NewReader(badMagic))
	assert.ErrorIs(t, err, ErrInvalidMagic)

	badVersion := bytes.Clone(data)
	badVersion[4] = 9
	_, err = Decode(bytes.NewReader(badVersion))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	_, err = Decode(bytes.NewReader(data[:FixedHeaderSize-1]))
	assert.Error(t, err)

	_, err = Decode(bytes.NewReader(data[:len(data)-1]))
	assert.Error(t, err)
}

func TestDecodeOversizedDataSection(t *testing.T) {
	fixed := fixedHeader{version: FormatVersion, headerSize: 2, dataSize: MaxDataSize}
	stream := append(fixed.marshal(), "{}"...)
	stream = append(stream, make([]byte, 62)...)

	_, err := Decode(bytes.NewReader(stream))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	// A few data bytes after the padding still fall short.
	_, err = Decode(bytes.NewReader(append(stream, 1, 2, 3)))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestDecodeLargeStream(t *testing.T) {
	big := table.NewFilled[float32](1000, 600, 1.5, table.ColumnMajor)
	defer big.Release()
	data := encode(t, []NamedTable{{Name: "big", Table: big}})
	require.Greater(t, len(data), 2*streamChunk)

	f, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Release()

	got, err := f.Table("big")
	require.NoError(t, err)
	col, err := table.PullColumn[float32](got, nil, 599, table.Rows(998, 1000))
	require.NoError(t, err)
	assert.Equal(t, []float32{1.5, 1.5}, col)
}

func TestFileTableNotFound(t *testing.T) {
	f, err := Decode(bytes.NewReader(encode(t, testTables(t))))
	require.NoError(t, err)
	defer f.Release()

	_, err = f.Table("missing")
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestFileRelease(t *testing.T) {
	f, err := Decode(bytes.NewReader(encode(t, testTables(t))))
	require.NoError(t, err)

	tables := f.Tables()
	require.Len(t, tables, 5)
	f.Release()

	for _, nt := range tables {
		assert.True(t, nt.Table.Released(), nt.Name)
		_, err := table.PullRows[float32](nt.Table, nil, table.All)
		assert.ErrorIs(t, err, table.ErrReleased, nt.Name)
	}
}

func TestWriteReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.dalt")
	want := testTables(t)

	require.NoError(t, WriteFile(path, want, WithCompression(CodecLZ4)))

	f, err := ReadFile(path)
	require.NoError(t, err)
	defer f.Release()
	requireSameTables(t, want, f)
}

func TestWriteFileRemovesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.dalt")
	tbl := compressible(t)

	err := WriteFile(path, []NamedTable{{"a", tbl}, {"a", tbl}})
	require.ErrorIs(t, err, ErrDuplicateTable)

	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestReadFileTruncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.dalt")
	data := encode(t, testTables(t))
	require.NoError(t, os.WriteFile(path, data[:len(data)-8], 0o600))

	_, err := ReadFile(path)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestWithLogger(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	data := encode(t, testTables(t), WithLogger(logger))
	f, err := Decode(bytes.NewReader(data), WithLogger(logger))
	require.NoError(t, err)
	f.Release()

	assert.Contains(t, logs.String(), "encoded tables")
	assert.Contains(t, logs.String(), "decoded tables")
}

func TestConcurrencyOneMatchesDefault(t *testing.T) {
	want := testTables(t)
	f, err := Decode(bytes.NewReader(encode(t, want, WithConcurrency(1))), WithConcurrency(1))
	require.NoError(t, err)
	defer f.Release()
	requireSameTables(t, want, f)
}
