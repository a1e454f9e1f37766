package loader

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloat16ToFloat32(t *testing.T) {
	tests := []struct {
		bits uint16
		want float32
	}{
		{0x0000, 0},
		{0x3C00, 1},
		{0xBC00, -1},
		{0x4000, 2},
		{0x3555, 0.33325195},
		{0x7BFF, 65504},
		{0x0400, float32(math.Ldexp(1, -14))},
		{0x0200, float32(math.Ldexp(1, -15))},
		{0x03FF, float32(math.Ldexp(1023, -24))},
		{0x7C00, float32(math.Inf(1))},
		{0xFC00, float32(math.Inf(-1))},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, float16ToFloat32(tt.bits), "bits %#04x", tt.bits)
	}

	assert.True(t, math.IsNaN(float64(float16ToFloat32(0x7E00))))
	assert.True(t, math.Signbit(float64(float16ToFloat32(0x8000))))
}

func TestBfloat16ToFloat32(t *testing.T) {
	assert.Equal(t, float32(1), bfloat16ToFloat32(0x3F80))
	assert.Equal(t, float32(-0.5), bfloat16ToFloat32(0xBF00))
	assert.Equal(t, float32(math.Inf(1)), bfloat16ToFloat32(0x7F80))
}

func TestWiden(t *testing.T) {
	src := []byte{0x00, 0x3C, 0x00, 0xC0}
	dst := widen(src, float16ToFloat32)
	assert.Len(t, dst, 8)
	assert.Equal(t, []byte{0, 0, 0x80, 0x3F, 0, 0, 0, 0xC0}, dst)
}
