package serialization

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/born-ml/dal/internal/array"
	"github.com/born-ml/dal/internal/table"
)

// File is a decoded .dalt file. Its tables own their memory and are mutable.
type File struct {
	header   Header
	flags    uint32
	checksum [ChecksumSize]byte
	tables   map[string]*table.HomogenTable
}

// Header returns the parsed JSON header.
func (f *File) Header() Header {
	return f.header
}

// Flags returns the format flags.
func (f *File) Flags() uint32 {
	return f.flags
}

// Checksum returns the SHA-256 checksum of the data section.
func (f *File) Checksum() [ChecksumSize]byte {
	return f.checksum
}

// Names returns the table names in file order.
func (f *File) Names() []string {
	return tableNames(f.header.Tables)
}

// Table returns the named table. It stays valid until Release.
func (f *File) Table(name string) (*table.HomogenTable, error) {
	t, ok := f.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTableNotFound, name)
	}
	return t, nil
}

// Tables returns all tables in file order.
func (f *File) Tables() []NamedTable {
	out := make([]NamedTable, 0, len(f.header.Tables))
	for _, m := range f.header.Tables {
		out = append(out, NamedTable{Name: m.Name, Table: f.tables[m.Name]})
	}
	return out
}

// Release releases every table of the file.
func (f *File) Release() {
	for _, t := range f.tables {
		t.Release()
	}
}

// Decode reads a .dalt file from r.
func Decode(r io.Reader, opts ...Option) (*File, error) {
	o := applyOptions(opts)
	return decode(r, -1, &o)
}

// ReadFile reads the .dalt file at path.
func ReadFile(path string, opts ...Option) (*File, error) {
	o := applyOptions(opts)

	//nolint:gosec // G304: File path comes from user input, which is expected for loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	f, err := decode(file, stat.Size(), &o)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// decode reads a file of the given size from r; size < 0 means unknown.
func decode(r io.Reader, size int64, o *options) (*File, error) {
	prefix := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r, prefix); err != nil {
		return nil, fmt.Errorf("failed to read fixed header: %w", err)
	}
	fixed, err := parseFixedHeader(prefix)
	if err != nil {
		return nil, err
	}
	//nolint:gosec // G115: both sizes are bounded by parseFixedHeader
	dataSize := int64(fixed.dataSize)
	if size >= 0 && fixed.dataOffset()+dataSize > size {
		return nil, fmt.Errorf("%w: data section [%d, %d) exceeds file size %d",
			ErrOutOfBounds, fixed.dataOffset(), fixed.dataOffset()+dataSize, size)
	}

	headerJSON, err := readSection(r, int64(fixed.headerSize), size >= 0) //nolint:gosec // G115: bounded by MaxHeaderSize
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	header, err := parseHeaderJSON(headerJSON)
	if err != nil {
		return nil, err
	}

	pad := fixed.dataOffset() - int64(FixedHeaderSize) - int64(len(headerJSON))
	if _, err := io.CopyN(io.Discard, r, pad); err != nil {
		return nil, fmt.Errorf("failed to skip header padding: %w", err)
	}

	data, err := readSection(r, dataSize, size >= 0)
	if err != nil {
		return nil, fmt.Errorf("failed to read data section: %w", err)
	}

	if err := checkFile(&header, &fixed, data, o); err != nil {
		return nil, err
	}

	tables, err := buildTables(header.Tables, data, o, ownedPayload)
	if err != nil {
		return nil, err
	}

	o.logger.Debug("decoded tables",
		"count", len(tables),
		"file_id", header.FileID,
		"data_size", dataSize,
	)
	return &File{
		header:   header,
		flags:    fixed.flags,
		checksum: fixed.checksum,
		tables:   tables,
	}, nil
}

// checkFile verifies the checksum and byte order, then validates the header as configured.
func checkFile(h *Header, fixed *fixedHeader, data []byte, o *options) error {
	if err := h.checkByteOrder(); err != nil {
		return err
	}
	if o.verifyChecksum {
		if err := VerifyChecksum(data, fixed.checksum); err != nil {
			return err
		}
	}
	if err := ValidateHeader(h, int64(len(data)), o.validation); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// streamChunk is the first buffer size used when the stream length is unknown.
const streamChunk = 1 << 20

// readSection reads exactly n bytes into aligned memory. Unless the stream
// is known to hold n bytes, the buffer grows only as data arrives; a short
// stream fails with io.ErrUnexpectedEOF.
func readSection(r io.Reader, n int64, sized bool) ([]byte, error) {
	if sized {
		buf := array.AlignedBytes(int(n))
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		return buf, nil
	}

	buf := array.AlignedBytes(int(min(n, streamChunk)))
	read := 0
	for {
		m, err := io.ReadFull(r, buf[read:])
		read += m
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
		if int64(read) == n {
			return buf, nil
		}
		next := array.AlignedBytes(int(min(n, 2*int64(len(buf)))))
		copy(next, buf)
		buf = next
	}
}

// payloadArray turns a raw payload slice of the data section into the array a
// table adopts.
type payloadArray func(raw []byte) *array.Array[byte]

// ownedPayload co-owns a slice of a decoded data section.
func ownedPayload(raw []byte) *array.Array[byte] {
	return array.NewOwning(raw, nil)
}

// mappedPayload borrows a slice of a mapped file read-only.
func mappedPayload(raw []byte) *array.Array[byte] {
	return array.Wrap(raw)
}

// buildTables builds every table described by metas concurrently.
func buildTables(metas []TableMeta, data []byte, o *options, raw payloadArray) (map[string]*table.HomogenTable, error) {
	built := make([]*table.HomogenTable, len(metas))

	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for i := range metas {
		g.Go(func() error {
			t, err := buildTable(&metas[i], data, o.registry, raw)
			if err != nil {
				return err
			}
			built[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, t := range built {
			if t != nil {
				t.Release()
			}
		}
		return nil, err
	}

	tables := make(map[string]*table.HomogenTable, len(metas))
	for i, m := range metas {
		tables[m.Name] = built[i]
	}
	return tables, nil
}

// buildTable adopts or decodes one payload of the data section.
// Raw payloads go through raw; compressed payloads are decoded into owned memory.
func buildTable(m *TableMeta, data []byte, reg *Registry, raw payloadArray) (*table.HomogenTable, error) {
	dtype, err := m.DataType()
	if err != nil {
		return nil, fmt.Errorf("table %q: %w", m.Name, err)
	}
	layout, err := m.TableLayout()
	if err != nil {
		return nil, fmt.Errorf("table %q: %w", m.Name, err)
	}
	if m.Offset < 0 || m.Size < 0 || m.Offset+m.Size > int64(len(data)) {
		return nil, fmt.Errorf("table %q: %w", m.Name, ErrOutOfBounds)
	}
	if m.RawSize < 0 || m.RawSize > MaxDataSize {
		return nil, fmt.Errorf("table %q: %w: raw_size %d", m.Name, ErrCorruptPayload, m.RawSize)
	}
	stored := data[m.Offset : m.Offset+m.Size]

	var a *array.Array[byte]
	if m.Codec == CodecNone {
		a = raw(stored)
	} else {
		codec, err := reg.Lookup(m.Codec)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", m.Name, err)
		}
		buf := array.AlignedBytes(int(m.RawSize))
		if err := codec.Decode(buf, stored); err != nil {
			return nil, fmt.Errorf("table %q: %w", m.Name, err)
		}
		a = array.NewOwning(buf, nil)
	}
	defer a.Release()

	t, err := table.NewFromBytes(m.Columns, dtype, a, layout)
	if err != nil {
		return nil, fmt.Errorf("table %q: %w", m.Name, err)
	}
	if t.RowCount() != m.Rows {
		t.Release()
		return nil, fmt.Errorf("table %q: %w: %d rows stored, header says %d",
			m.Name, ErrCorruptPayload, t.RowCount(), m.Rows)
	}
	return t, nil
}

func tableNames(metas []TableMeta) []string {
	names := make([]string, len(metas))
	for i, m := range metas {
		names[i] = m.Name
	}
	return names
}

// findMeta returns the descriptor of the named table.
func findMeta(metas []TableMeta, name string) (*TableMeta, error) {
	i := slices.IndexFunc(metas, func(m TableMeta) bool { return m.Name == name })
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrTableNotFound, name)
	}
	return &metas[i], nil
}
