package serialization

import (
	"fmt"
	"os"
	"sync"

	"github.com/born-ml/dal/internal/table"
)

// MmapReader provides memory-mapped access to .dalt files.
//
// Raw payloads are exposed as zero-copy read-only tables backed by the
// mapping; compressed payloads are decoded on first access into owned memory.
// Tables are built lazily and cached. Every table obtained from the reader is
// released by Close and must not be used afterwards.
//
// Important: Always call Close() when done to unmap the file (use defer).
type MmapReader struct {
	file     *os.File
	data     []byte // mmap'd region (read-only)
	section  []byte // data section within data
	header   Header
	flags    uint32
	checksum [ChecksumSize]byte
	opts     options

	mu     sync.Mutex
	tables map[string]*table.HomogenTable
	closed bool
}

// OpenMmap maps the .dalt file at path and parses its header.
func OpenMmap(path string, opts ...Option) (*MmapReader, error) {
	o := applyOptions(opts)

	//nolint:gosec // G304: File path comes from user input, which is expected for loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if stat.Size() < FixedHeaderSize {
		_ = file.Close()
		return nil, fmt.Errorf("file too small: %d bytes (minimum %d bytes required)", stat.Size(), FixedHeaderSize)
	}

	// Memory map the file (platform-specific implementation)
	data, err := mmapFile(file, stat.Size())
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("mmap failed: %w", err)
	}

	r := &MmapReader{
		file:   file,
		data:   data,
		opts:   o,
		tables: make(map[string]*table.HomogenTable),
	}
	if err := r.parse(); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	o.logger.Debug("mapped file",
		"path", path,
		"size", stat.Size(),
		"tables", len(r.header.Tables),
		"file_id", r.header.FileID,
	)
	return r, nil
}

func (r *MmapReader) parse() error {
	fixed, err := parseFixedHeader(r.data[:FixedHeaderSize])
	if err != nil {
		return err
	}
	size := int64(len(r.data))

	//nolint:gosec // G115: headerSize is bounded by MaxHeaderSize
	jsonEnd := int64(FixedHeaderSize) + int64(fixed.headerSize)
	if jsonEnd > size {
		return fmt.Errorf("header extends beyond file: %d > %d", jsonEnd, size)
	}
	header, err := parseHeaderJSON(r.data[FixedHeaderSize:jsonEnd])
	if err != nil {
		return err
	}

	start := fixed.dataOffset()
	//nolint:gosec // G115: dataSize is bounded by MaxDataSize
	end := start + int64(fixed.dataSize)
	if end > size {
		return fmt.Errorf("%w: data section [%d, %d) exceeds file size %d", ErrOutOfBounds, start, end, size)
	}
	section := r.data[start:end]

	if err := checkFile(&header, &fixed, section, &r.opts); err != nil {
		return err
	}

	r.header = header
	r.flags = fixed.flags
	r.checksum = fixed.checksum
	r.section = section
	return nil
}

// Header returns the parsed JSON header.
func (r *MmapReader) Header() Header {
	return r.header
}

// Flags returns the format flags.
func (r *MmapReader) Flags() uint32 {
	return r.flags
}

// Checksum returns the SHA-256 checksum stored in the file.
func (r *MmapReader) Checksum() [ChecksumSize]byte {
	return r.checksum
}

// Names returns the table names in file order.
func (r *MmapReader) Names() []string {
	return tableNames(r.header.Tables)
}

// Info returns the descriptor of the named table without touching its payload.
func (r *MmapReader) Info(name string) (TableMeta, error) {
	m, err := findMeta(r.header.Tables, name)
	if err != nil {
		return TableMeta{}, err
	}
	return *m, nil
}

// Table returns the named table, building it on first access.
func (r *MmapReader) Table(name string) (*table.HomogenTable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrReaderClosed
	}
	if t, ok := r.tables[name]; ok {
		return t, nil
	}

	m, err := findMeta(r.header.Tables, name)
	if err != nil {
		return nil, err
	}
	t, err := buildTable(m, r.section, r.opts.registry, mappedPayload)
	if err != nil {
		return nil, err
	}
	r.tables[name] = t
	return t, nil
}

// Close releases every table handed out and unmaps the file.
// Calling it again is a no-op.
func (r *MmapReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	for _, t := range r.tables {
		t.Release()
	}
	r.tables = nil

	var firstErr error
	if r.data != nil {
		if err := munmapFile(r.data); err != nil {
			firstErr = fmt.Errorf("munmap failed: %w", err)
		}
		r.data = nil
		r.section = nil
	}
	if err := r.file.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close file: %w", err)
	}
	return firstErr
}
