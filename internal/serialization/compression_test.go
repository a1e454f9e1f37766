package serialization

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// renamedCodec registers an existing codec under another name.
type renamedCodec struct {
	Codec
	name string
}

func (c renamedCodec) Name() string { return c.name }

func TestRegistryBuiltins(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{CodecLZ4, CodecNone, CodecSnappy, CodecZstd}, r.Names())

	_, err := r.Lookup("brotli")
	assert.ErrorIs(t, err, ErrUnknownCodec)
}

func TestCodecsRoundTrip(t *testing.T) {
	src := bytes.Repeat([]byte("homogeneous table payload "), 256)

	r := NewRegistry()
	for _, name := range r.Names() {
		t.Run(name, func(t *testing.T) {
			c, err := r.Lookup(name)
			require.NoError(t, err)

			enc, err := c.Encode(src)
			require.NoError(t, err)
			if name != CodecNone {
				assert.Less(t, len(enc), len(src))
			}

			dst := make([]byte, len(src))
			require.NoError(t, c.Decode(dst, enc))
			assert.Equal(t, src, dst)

			// A destination of the wrong size is a corrupt payload.
			assert.ErrorIs(t, c.Decode(make([]byte, len(src)+1), enc), ErrCorruptPayload)
		})
	}
}

func TestCodecsRejectGarbage(t *testing.T) {
	garbage := []byte{0xff, 0xfe, 0xfd, 0xfc, 0xfb, 0xfa, 0xf9, 0xf8}
	r := NewRegistry()
	for _, name := range []string{CodecZstd, CodecLZ4, CodecSnappy} {
		c, err := r.Lookup(name)
		require.NoError(t, err)
		assert.ErrorIs(t, c.Decode(make([]byte, 64), garbage), ErrCorruptPayload, name)
	}
}

func TestCustomCodecRegistry(t *testing.T) {
	r := NewRegistry()
	zstd, err := r.Lookup(CodecZstd)
	require.NoError(t, err)
	r.Register(renamedCodec{Codec: zstd, name: "custom"})

	want := []NamedTable{{Name: "dense", Table: compressible(t)}}
	data := encode(t, want, WithRegistry(r), WithCompression("custom"))

	_, err = Decode(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrUnknownCodec)

	f, err := Decode(bytes.NewReader(data), WithRegistry(r))
	require.NoError(t, err)
	defer f.Release()
	assert.Equal(t, "custom", f.Header().Tables[0].Codec)
	requireSameTables(t, want, f)
}
