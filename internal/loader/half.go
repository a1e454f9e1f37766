package loader

import (
	"encoding/binary"
	"math"

	"github.com/born-ml/dal/internal/array"
)

// widen converts little-endian 16-bit floats to float32 bytes in host order.
func widen(src []byte, conv func(uint16) float32) []byte {
	n := len(src) / 2
	dst := array.AlignedBytes(n * 4)
	out, _ := array.Cast[float32](dst) // aligned and sized for float32
	for i := range out {
		out[i] = conv(binary.LittleEndian.Uint16(src[2*i:]))
	}
	return dst
}

// float16ToFloat32 converts IEEE 754 half precision to float32.
func float16ToFloat32(h uint16) float32 {
	sign := uint32(h>>15) & 0x1
	exp := uint32(h>>10) & 0x1F
	mant := uint32(h) & 0x3FF

	switch exp {
	case 0:
		if mant == 0 {
			return math.Float32frombits(sign << 31)
		}
		// Subnormal: shift the mantissa up until the implicit bit is set.
		e := uint32(127 - 15 + 1)
		for mant&0x400 == 0 {
			mant <<= 1
			e--
		}
		mant &= 0x3FF
		return math.Float32frombits(sign<<31 | e<<23 | mant<<13)
	case 0x1F:
		// Inf or NaN.
		return math.Float32frombits(sign<<31 | 0x7F800000 | mant<<13)
	default:
		return math.Float32frombits(sign<<31 | (exp+127-15)<<23 | mant<<13)
	}
}

// bfloat16ToFloat32 converts bfloat16, the upper half of a float32.
func bfloat16ToFloat32(b uint16) float32 {
	return math.Float32frombits(uint32(b) << 16)
}
