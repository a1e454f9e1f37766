package serialization

import (
	"bufio"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/born-ml/dal/internal/table"
)

// payload is one table's stored bytes.
type payload struct {
	data  []byte
	codec string
}

// Encode writes tables to w in .dalt format.
//
// Tables are stored in the given order under their names, which must be
// unique and pass ValidateTableName.
func Encode(w io.Writer, tables []NamedTable, opts ...Option) error {
	o := applyOptions(opts)

	codec, err := o.registry.Lookup(o.codec)
	if err != nil {
		return err
	}
	if err := checkTables(tables); err != nil {
		return err
	}

	payloads, err := encodePayloads(tables, codec, &o)
	if err != nil {
		return err
	}

	header := Header{
		FormatVersion: FormatVersion,
		ByteOrder:     hostByteOrder(),
		FileID:        uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		Tables:        make([]TableMeta, len(tables)),
		Metadata:      o.metadata,
	}

	var flags uint32
	var dataSize int64
	for i, nt := range tables {
		t := nt.Table
		offset := align(dataSize)
		header.Tables[i] = TableMeta{
			Name:    nt.Name,
			DType:   t.DataType().String(),
			Layout:  t.Layout().String(),
			Rows:    t.RowCount(),
			Columns: t.ColumnCount(),
			Offset:  offset,
			Size:    int64(len(payloads[i].data)),
			RawSize: int64(len(t.Data())),
			Codec:   payloads[i].codec,
		}
		dataSize = offset + int64(len(payloads[i].data))
		if payloads[i].codec != CodecNone {
			flags |= FlagCompressed
		}
	}
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	hasher := sha256.New()
	if err := writeData(hasher, header.Tables, payloads); err != nil {
		return fmt.Errorf("failed to hash data section: %w", err)
	}

	fixed := fixedHeader{
		version:    FormatVersion,
		flags:      flags,
		headerSize: uint64(len(headerJSON)),
		dataSize:   uint64(dataSize), //nolint:gosec // G115: dataSize is a sum of slice lengths
	}
	copy(fixed.checksum[:], hasher.Sum(nil))

	if _, err := w.Write(fixed.marshal()); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := writePadding(w, fixed.dataOffset()-int64(FixedHeaderSize+len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header padding: %w", err)
	}
	if err := writeData(w, header.Tables, payloads); err != nil {
		return err
	}

	o.logger.Debug("encoded tables",
		"count", len(tables),
		"file_id", header.FileID,
		"data_size", dataSize,
		"codec", o.codec,
	)
	return nil
}

// WriteFile writes tables to a .dalt file at path.
// A partially written file is removed on error.
func WriteFile(path string, tables []NamedTable, opts ...Option) (err error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for saving
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", cerr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	bw := bufio.NewWriterSize(f, 1<<20)
	if err := Encode(bw, tables, opts...); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush file: %w", err)
	}
	return nil
}

func checkTables(tables []NamedTable) error {
	seen := make(map[string]struct{}, len(tables))
	for _, nt := range tables {
		if err := ValidateTableName(nt.Name); err != nil {
			return err
		}
		if _, dup := seen[nt.Name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateTable, nt.Name)
		}
		seen[nt.Name] = struct{}{}
		if nt.Table == nil {
			return fmt.Errorf("table %q is nil", nt.Name)
		}
		if nt.Table.Released() {
			return fmt.Errorf("table %q: %w", nt.Name, table.ErrReleased)
		}
	}
	if len(tables) > MaxTableCount {
		return fmt.Errorf("too many tables: %d (max %d)", len(tables), MaxTableCount)
	}
	return nil
}

// encodePayloads compresses every table with codec, storing a table raw when
// compression does not shrink it.
func encodePayloads(tables []NamedTable, codec Codec, o *options) ([]payload, error) {
	payloads := make([]payload, len(tables))

	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for i, nt := range tables {
		g.Go(func() error {
			raw := nt.Table.Data()
			if codec.Name() == CodecNone || len(raw) == 0 {
				payloads[i] = payload{data: raw, codec: CodecNone}
				return nil
			}
			enc, err := codec.Encode(raw)
			switch {
			case errors.Is(err, errIncompressible):
				payloads[i] = payload{data: raw, codec: CodecNone}
			case err != nil:
				return fmt.Errorf("failed to encode table %q with %s: %w", nt.Name, codec.Name(), err)
			case len(enc) >= len(raw):
				payloads[i] = payload{data: raw, codec: CodecNone}
			default:
				payloads[i] = payload{data: enc, codec: codec.Name()}
			}
			o.logger.Debug("encoded table",
				"name", nt.Name,
				"codec", payloads[i].codec,
				"raw_size", len(raw),
				"size", len(payloads[i].data),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return payloads, nil
}

// writeData writes the data section: each payload at its offset, zero padded.
func writeData(w io.Writer, metas []TableMeta, payloads []payload) error {
	var pos int64
	for i, m := range metas {
		if err := writePadding(w, m.Offset-pos); err != nil {
			return fmt.Errorf("failed to write padding before table %q: %w", m.Name, err)
		}
		if _, err := w.Write(payloads[i].data); err != nil {
			return fmt.Errorf("failed to write table %q: %w", m.Name, err)
		}
		pos = m.Offset + m.Size
	}
	return nil
}

var zeros [HeaderAlignment]byte

func writePadding(w io.Writer, n int64) error {
	if n <= 0 {
		return nil
	}
	_, err := w.Write(zeros[:n])
	return err
}
