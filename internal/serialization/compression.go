package serialization

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Built-in codec names.
const (
	CodecNone   = "none"
	CodecZstd   = "zstd"
	CodecLZ4    = "lz4"
	CodecSnappy = "snappy"
)

// errIncompressible tells the writer to store a payload raw.
var errIncompressible = errors.New("payload is incompressible")

// Codec compresses table payloads.
type Codec interface {
	// Name is the identifier stored in the file header.
	Name() string
	// Encode returns the compressed form of src.
	Encode(src []byte) ([]byte, error)
	// Decode decompresses src into dst, which has the exact decoded size.
	Decode(dst, src []byte) error
}

// Registry maps codec names to codecs.
type Registry struct {
	mu     sync.RWMutex
	codecs map[string]Codec
}

// NewRegistry returns a registry holding the built-in codecs.
func NewRegistry() *Registry {
	r := &Registry{codecs: make(map[string]Codec)}
	r.Register(noneCodec{})
	r.Register(newZstdCodec())
	r.Register(lz4Codec{})
	r.Register(snappyCodec{})
	return r
}

// defaultRegistry is shared by readers and writers without WithRegistry.
var defaultRegistry = sync.OnceValue(NewRegistry)

// Register adds c, replacing any codec of the same name.
func (r *Registry) Register(c Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[c.Name()] = c
}

// Lookup returns the codec registered under name.
func (r *Registry) Lookup(name string) (Codec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.codecs[name]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
}

// Names returns the registered codec names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.codecs))
	for name := range r.codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type noneCodec struct{}

func (noneCodec) Name() string { return CodecNone }

func (noneCodec) Encode(src []byte) ([]byte, error) { return src, nil }

func (noneCodec) Decode(dst, src []byte) error {
	if len(dst) != len(src) {
		return fmt.Errorf("%w: raw payload is %d bytes, want %d", ErrCorruptPayload, len(src), len(dst))
	}
	copy(dst, src)
	return nil
}

// zstdCodec keeps pools of encoders and decoders; both are safe for
// concurrent EncodeAll/DecodeAll but expensive to create.
type zstdCodec struct {
	encoders sync.Pool
	decoders sync.Pool
}

func newZstdCodec() *zstdCodec {
	return &zstdCodec{}
}

func (*zstdCodec) Name() string { return CodecZstd }

func (c *zstdCodec) Encode(src []byte) ([]byte, error) {
	enc, _ := c.encoders.Get().(*zstd.Encoder)
	if enc == nil {
		var err error
		enc, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, err
		}
	}
	defer c.encoders.Put(enc)
	return enc.EncodeAll(src, nil), nil
}

func (c *zstdCodec) Decode(dst, src []byte) error {
	dec, _ := c.decoders.Get().(*zstd.Decoder)
	if dec == nil {
		var err error
		dec, err = zstd.NewReader(nil)
		if err != nil {
			return err
		}
	}
	defer c.decoders.Put(dec)

	out, err := dec.DecodeAll(src, dst[:0])
	if err != nil {
		return fmt.Errorf("%w: zstd: %w", ErrCorruptPayload, err)
	}
	if len(out) != len(dst) {
		return fmt.Errorf("%w: zstd decoded %d bytes, want %d", ErrCorruptPayload, len(out), len(dst))
	}
	return nil
}

type lz4Codec struct{}

func (lz4Codec) Name() string { return CodecLZ4 }

func (lz4Codec) Encode(src []byte) ([]byte, error) {
	out := make([]byte, lz4.CompressBlockBound(len(src)))
	n, err := lz4.CompressBlock(src, out, nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, errIncompressible
	}
	return out[:n], nil
}

func (lz4Codec) Decode(dst, src []byte) error {
	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		return fmt.Errorf("%w: lz4: %w", ErrCorruptPayload, err)
	}
	if n != len(dst) {
		return fmt.Errorf("%w: lz4 decoded %d bytes, want %d", ErrCorruptPayload, n, len(dst))
	}
	return nil
}

type snappyCodec struct{}

func (snappyCodec) Name() string { return CodecSnappy }

func (snappyCodec) Encode(src []byte) ([]byte, error) {
	return snappy.Encode(nil, src), nil
}

func (snappyCodec) Decode(dst, src []byte) error {
	n, err := snappy.DecodedLen(src)
	if err != nil {
		return fmt.Errorf("%w: snappy: %w", ErrCorruptPayload, err)
	}
	if n != len(dst) {
		return fmt.Errorf("%w: snappy payload decodes to %d bytes, want %d", ErrCorruptPayload, n, len(dst))
	}
	if _, err := snappy.Decode(dst, src); err != nil {
		return fmt.Errorf("%w: snappy: %w", ErrCorruptPayload, err)
	}
	return nil
}
