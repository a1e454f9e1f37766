// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package table

import (
	"io"
	"log/slog"

	"github.com/born-ml/dal/internal/serialization"
)

// Named pairs a table with the name it is stored under.
type Named = serialization.NamedTable

// File is a decoded table file; its tables own their memory.
type File = serialization.File

// MmapReader is a memory-mapped table file.
type MmapReader = serialization.MmapReader

// FileHeader is the JSON header of a table file.
type FileHeader = serialization.Header

// TableInfo describes one stored table.
type TableInfo = serialization.TableMeta

// Codec compresses table payloads.
type Codec = serialization.Codec

// CodecRegistry maps codec names to codecs.
type CodecRegistry = serialization.Registry

// Option configures saving and loading.
type Option = serialization.Option

// ValidationLevel controls how strictly loaded headers are checked.
type ValidationLevel = serialization.ValidationLevel

// Validation levels.
const (
	ValidationStrict = serialization.ValidationStrict
	ValidationNormal = serialization.ValidationNormal
	ValidationNone   = serialization.ValidationNone
)

// Built-in codecs.
const (
	CodecNone   = serialization.CodecNone
	CodecZstd   = serialization.CodecZstd
	CodecLZ4    = serialization.CodecLZ4
	CodecSnappy = serialization.CodecSnappy
)

// File errors.
var (
	ErrChecksumMismatch = serialization.ErrChecksumMismatch
	ErrTableNotFound    = serialization.ErrTableNotFound
	ErrUnknownCodec     = serialization.ErrUnknownCodec
	ErrInvalidMagic     = serialization.ErrInvalidMagic
	ErrByteOrder        = serialization.ErrByteOrder
)

// Save writes tables to a .dalt file at path.
func Save(path string, tables []Named, opts ...Option) error {
	return serialization.WriteFile(path, tables, opts...)
}

// Load reads the .dalt file at path.
func Load(path string, opts ...Option) (*File, error) {
	return serialization.ReadFile(path, opts...)
}

// Encode writes tables to w in .dalt format.
func Encode(w io.Writer, tables []Named, opts ...Option) error {
	return serialization.Encode(w, tables, opts...)
}

// Decode reads a .dalt file from r.
func Decode(r io.Reader, opts ...Option) (*File, error) {
	return serialization.Decode(r, opts...)
}

// OpenMmap maps the .dalt file at path.
func OpenMmap(path string, opts ...Option) (*MmapReader, error) {
	return serialization.OpenMmap(path, opts...)
}

// NewCodecRegistry returns a registry holding the built-in codecs.
func NewCodecRegistry() *CodecRegistry {
	return serialization.NewRegistry()
}

// WithCompression selects the payload codec on save.
func WithCompression(codec string) Option {
	return serialization.WithCompression(codec)
}

// WithMetadata attaches key/value metadata on save.
func WithMetadata(metadata map[string]string) Option {
	return serialization.WithMetadata(metadata)
}

// WithLogger sets the debug logger.
func WithLogger(logger *slog.Logger) Option {
	return serialization.WithLogger(logger)
}

// WithRegistry replaces the built-in codec registry.
func WithRegistry(r *CodecRegistry) Option {
	return serialization.WithRegistry(r)
}

// WithValidation sets the header validation level on load.
func WithValidation(level ValidationLevel) Option {
	return serialization.WithValidation(level)
}

// WithVerifyChecksum enables or disables checksum verification on load.
func WithVerifyChecksum(verify bool) Option {
	return serialization.WithVerifyChecksum(verify)
}

// WithConcurrency bounds how many payloads are processed at once.
func WithConcurrency(n int) Option {
	return serialization.WithConcurrency(n)
}
