package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/born-ml/dal/internal/table"
)

// Format constants.
const (
	MagicBytes      = "DALT"
	FormatVersion   = 1
	FixedHeaderSize = 64   // Fixed header size (0x40 bytes)
	HeaderAlignment = 64   // Data section and every payload start on 64 bytes
	ChecksumSize    = 32   // SHA-256 checksum size
	ChecksumOffset  = 0x20 // Checksum offset in the fixed header
)

// Flags for the .dalt format.
const (
	FlagCompressed  uint32 = 1 << 0 // bit 0: at least one payload is compressed
	FlagHasMetadata uint32 = 1 << 2 // bit 2: custom metadata included
)

// Byte orders of table payloads, as recorded in Header.ByteOrder.
const (
	ByteOrderLittle = "little"
	ByteOrderBig    = "big"
)

// Header represents the JSON header of a .dalt file.
type Header struct {
	FormatVersion int               `json:"format_version"`     // Version of the .dalt format
	ByteOrder     string            `json:"byte_order"`         // Payload byte order; empty means little
	FileID        string            `json:"file_id"`            // Random UUID assigned on write
	CreatedAt     time.Time         `json:"created_at"`         // When the file was written
	Tables        []TableMeta       `json:"tables"`             // Table descriptors in file order
	Metadata      map[string]string `json:"metadata,omitempty"` // Custom metadata
}

// TableMeta describes one table in the data section.
type TableMeta struct {
	Name    string `json:"name"`     // Table name (e.g., "features")
	DType   string `json:"dtype"`    // Element type (e.g., "float32")
	Layout  string `json:"layout"`   // "row_major" or "column_major"
	Rows    int    `json:"rows"`     // Row count
	Columns int    `json:"columns"`  // Column count
	Offset  int64  `json:"offset"`   // Payload offset from the start of the data section
	Size    int64  `json:"size"`     // Stored payload size in bytes
	RawSize int64  `json:"raw_size"` // Decoded payload size in bytes
	Codec   string `json:"codec"`    // Codec name, "none" for raw payloads
}

// DataType parses the element type.
func (m *TableMeta) DataType() (table.DataType, error) {
	return table.ParseDataType(m.DType)
}

// TableLayout parses the layout.
func (m *TableMeta) TableLayout() (table.Layout, error) {
	return table.ParseLayout(m.Layout)
}

// NamedTable pairs a table with the name it is stored under.
type NamedTable struct {
	Name  string
	Table *table.HomogenTable
}

// fixedHeader is the decoded 64-byte prefix of a file.
type fixedHeader struct {
	version    uint32
	flags      uint32
	headerSize uint64
	dataSize   uint64
	checksum   [ChecksumSize]byte
}

func (h *fixedHeader) marshal() []byte {
	b := make([]byte, FixedHeaderSize)

	// 0x00-0x03: Magic bytes
	copy(b[0:4], MagicBytes)
	// 0x04-0x07: Version
	binary.LittleEndian.PutUint32(b[4:8], h.version)
	// 0x08-0x0B: Flags
	binary.LittleEndian.PutUint32(b[8:12], h.flags)
	// 0x0C-0x0F: Reserved
	// 0x10-0x17: Header size
	binary.LittleEndian.PutUint64(b[16:24], h.headerSize)
	// 0x18-0x1F: Data size
	binary.LittleEndian.PutUint64(b[24:32], h.dataSize)
	// 0x20-0x3F: SHA-256 checksum
	copy(b[ChecksumOffset:ChecksumOffset+ChecksumSize], h.checksum[:])

	return b
}

func parseFixedHeader(b []byte) (fixedHeader, error) {
	var h fixedHeader
	if len(b) < FixedHeaderSize {
		return h, fmt.Errorf("file too small: %d bytes (minimum %d bytes required)", len(b), FixedHeaderSize)
	}
	if string(b[0:4]) != MagicBytes {
		return h, ErrInvalidMagic
	}

	h.version = binary.LittleEndian.Uint32(b[4:8])
	if h.version != FormatVersion {
		return h, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, h.version, FormatVersion)
	}
	h.flags = binary.LittleEndian.Uint32(b[8:12])
	h.headerSize = binary.LittleEndian.Uint64(b[16:24])
	h.dataSize = binary.LittleEndian.Uint64(b[24:32])
	copy(h.checksum[:], b[ChecksumOffset:ChecksumOffset+ChecksumSize])

	if h.headerSize > MaxHeaderSize {
		return h, ErrHeaderTooLarge
	}
	if h.dataSize > MaxDataSize {
		return h, fmt.Errorf("data size too large: %d", h.dataSize)
	}
	return h, nil
}

// dataOffset returns where the data section starts in the file.
func (h *fixedHeader) dataOffset() int64 {
	//nolint:gosec // G115: headerSize is bounded by MaxHeaderSize
	return align(int64(FixedHeaderSize) + int64(h.headerSize))
}

func parseHeaderJSON(b []byte) (Header, error) {
	var h Header
	if err := json.Unmarshal(b, &h); err != nil {
		return h, fmt.Errorf("failed to parse header JSON: %w", err)
	}
	return h, nil
}

// hostByteOrder names the byte order payloads are written in on this machine.
func hostByteOrder() string {
	if binary.NativeEndian.Uint16([]byte{1, 0}) == 1 {
		return ByteOrderLittle
	}
	return ByteOrderBig
}

// checkByteOrder rejects payloads that were written in a byte order other than the host's.
func (h *Header) checkByteOrder() error {
	order := h.ByteOrder
	if order == "" {
		order = ByteOrderLittle
	}
	if order != ByteOrderLittle && order != ByteOrderBig {
		return fmt.Errorf("%w: %q", ErrByteOrder, h.ByteOrder)
	}
	if host := hostByteOrder(); order != host {
		return fmt.Errorf("%w: file is %s-endian, host is %s-endian", ErrByteOrder, order, host)
	}
	return nil
}

// align rounds n up to a multiple of HeaderAlignment.
func align(n int64) int64 {
	return (n + HeaderAlignment - 1) / HeaderAlignment * HeaderAlignment
}
