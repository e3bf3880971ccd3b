// Package dtype defines the primitive element types a workflow package may
// declare for its binary blobs, along with their on-disk sizes.
package dtype

import (
	"fmt"
	"math"
)

// DType identifies the primitive element type of a blob array.
type DType int

const (
	Invalid DType = iota
	I8
	I16
	I32
	I64
	U8
	U16
	U32
	U64
	F16
	F32
	F64
)

// names maps the descriptor spelling of each type to its DType.
var names = map[string]DType{
	"i8":  I8,
	"i16": I16,
	"i32": I32,
	"i64": I64,
	"u8":  U8,
	"u16": U16,
	"u32": U32,
	"u64": U64,
	"f16": F16,
	"f32": F32,
	"f64": F64,
}

// Parse returns the DType named by s, as spelled in a workflow descriptor.
func Parse(s string) (DType, error) {
	dt, ok := names[s]
	if !ok {
		return Invalid, fmt.Errorf("unknown element type %q", s)
	}
	return dt, nil
}

// String returns the descriptor spelling of the type.
func (d DType) String() string {
	for name, dt := range names {
		if dt == d {
			return name
		}
	}
	return fmt.Sprintf("dtype(%d)", int(d))
}

// Size returns the number of bytes one element of the type occupies on disk.
func (d DType) Size() int {
	switch d {
	case I8, U8:
		return 1
	case I16, U16, F16:
		return 2
	case I32, U32, F32:
		return 4
	case I64, U64, F64:
		return 8
	}
	panic(fmt.Sprintf("dtype: Size called on invalid type %d", int(d)))
}

// Float16ToFloat32 converts an IEEE 754 binary16 value, given as its raw bit
// pattern, to float32. Infinities, NaNs, and subnormals are preserved.
func Float16ToFloat32(bits uint16) float32 {
	sign := uint32(bits&0x8000) << 16
	exp := uint32(bits>>10) & 0x1f
	frac := uint32(bits & 0x3ff)

	switch exp {
	case 0:
		if frac == 0 {
			return math.Float32frombits(sign)
		}
		// Subnormal half: normalize into float32 range.
		e := uint32(127 - 15 + 1)
		for frac&0x400 == 0 {
			frac <<= 1
			e--
		}
		frac &= 0x3ff
		return math.Float32frombits(sign | e<<23 | frac<<13)
	case 0x1f:
		return math.Float32frombits(sign | 0xff<<23 | frac<<13)
	default:
		return math.Float32frombits(sign | (exp+127-15)<<23 | frac<<13)
	}
}
