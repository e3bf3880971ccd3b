// Package blob materializes the binary files a workflow descriptor
// references as typed, shape-checked arrays.
//
// On-disk blobs are headerless, contiguous, little-endian. An Array keeps
// the raw bytes it was loaded from and offers typed views that decode with
// the little-endian layout explicitly, so values come out identical on
// every host architecture. Arrays are created during loading, handed to the
// units that reference them, and live as long as the workflow does.
package blob

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/vk/flowpack/internal/dtype"
)

// Array is an owned, contiguous numeric array with its declared element
// type and shape attached as metadata. Two references to the same package
// file share one Array instance.
type Array struct {
	dt    dtype.DType
	shape []int
	raw   []byte
}

// DType returns the declared element type.
func (a *Array) DType() dtype.DType {
	return a.dt
}

// Shape returns a copy of the declared shape.
func (a *Array) Shape() []int {
	out := make([]int, len(a.shape))
	copy(out, a.shape)
	return out
}

// Len returns the number of elements.
func (a *Array) Len() int {
	return len(a.raw) / a.dt.Size()
}

// Bytes returns the raw little-endian backing buffer. Callers must not
// mutate it.
func (a *Array) Bytes() []byte {
	return a.raw
}

// view panics unless the array holds elements of the requested type.
// Asking for the wrong typed view is a programming error, not input error.
func (a *Array) view(want dtype.DType) {
	if a.dt != want {
		panic(fmt.Sprintf("blob: requested %s view of %s array", want, a.dt))
	}
}

// Int8s decodes the array as signed 8-bit integers.
func (a *Array) Int8s() []int8 {
	a.view(dtype.I8)
	out := make([]int8, len(a.raw))
	for i, b := range a.raw {
		out[i] = int8(b)
	}
	return out
}

// Uint8s decodes the array as unsigned 8-bit integers.
func (a *Array) Uint8s() []uint8 {
	a.view(dtype.U8)
	out := make([]uint8, len(a.raw))
	copy(out, a.raw)
	return out
}

// Int16s decodes the array as signed 16-bit integers.
func (a *Array) Int16s() []int16 {
	a.view(dtype.I16)
	out := make([]int16, a.Len())
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(a.raw[i*2:]))
	}
	return out
}

// Uint16s decodes the array as unsigned 16-bit integers.
func (a *Array) Uint16s() []uint16 {
	a.view(dtype.U16)
	out := make([]uint16, a.Len())
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(a.raw[i*2:])
	}
	return out
}

// Int32s decodes the array as signed 32-bit integers.
func (a *Array) Int32s() []int32 {
	a.view(dtype.I32)
	out := make([]int32, a.Len())
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(a.raw[i*4:]))
	}
	return out
}

// Uint32s decodes the array as unsigned 32-bit integers.
func (a *Array) Uint32s() []uint32 {
	a.view(dtype.U32)
	out := make([]uint32, a.Len())
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(a.raw[i*4:])
	}
	return out
}

// Int64s decodes the array as signed 64-bit integers.
func (a *Array) Int64s() []int64 {
	a.view(dtype.I64)
	out := make([]int64, a.Len())
	for i := range out {
		out[i] = int64(binary.LittleEndian.Uint64(a.raw[i*8:]))
	}
	return out
}

// Uint64s decodes the array as unsigned 64-bit integers.
func (a *Array) Uint64s() []uint64 {
	a.view(dtype.U64)
	out := make([]uint64, a.Len())
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(a.raw[i*8:])
	}
	return out
}

// Float16s decodes an f16 array into float32 values.
func (a *Array) Float16s() []float32 {
	a.view(dtype.F16)
	out := make([]float32, a.Len())
	for i := range out {
		out[i] = dtype.Float16ToFloat32(binary.LittleEndian.Uint16(a.raw[i*2:]))
	}
	return out
}

// Float32s decodes the array as 32-bit floats.
func (a *Array) Float32s() []float32 {
	a.view(dtype.F32)
	out := make([]float32, a.Len())
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(a.raw[i*4:]))
	}
	return out
}

// Float64s decodes the array as 64-bit floats.
func (a *Array) Float64s() []float64 {
	a.view(dtype.F64)
	out := make([]float64, a.Len())
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(a.raw[i*8:]))
	}
	return out
}
