package model

import (
	"math"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowpack/internal/dtype"
)

// Descriptor is the root of the parsed descriptor tree. Units appear in
// their declared order, which is the construction order the linker starts
// from before topological sorting.
type Descriptor struct {
	Name    string
	Version string
	Units   []*UnitSpec
}

// UnitSpec describes a single unit of the workflow graph before it is
// instantiated.
type UnitSpec struct {
	// ID is unique within the package.
	ID string

	// TypeName keys into the external unit registry.
	TypeName string

	// Properties holds the scalar and sequence property values, keyed by
	// property name. Values are cty primitives (bool, number, string) or
	// homogeneous lists of those.
	Properties map[string]cty.Value

	// Blobs holds the binary-reference properties, keyed by property name.
	Blobs map[string]BlobRef

	// Links names the predecessor units, in declared order. The position
	// of an entry is the input slot index it binds to.
	Links []string
}

// BlobRef points at a sibling blob file within the package. It carries the
// declared element type and shape the file must satisfy.
type BlobRef struct {
	// Path is a bare file name; directory separators are never permitted.
	Path  string
	DType dtype.DType
	Shape []int
}

// Elements returns the number of elements the declared shape describes.
// ok is false when a dimension is not positive or the product does not fit
// in an int64; only a hostile descriptor produces either.
func (r BlobRef) Elements() (int64, bool) {
	n := int64(1)
	for _, d := range r.Shape {
		dim := int64(d)
		if dim <= 0 || n > math.MaxInt64/dim {
			return 0, false
		}
		n *= dim
	}
	return n, true
}

// ByteSize returns the exact on-disk size the referenced file must have.
// ok is false when the size is not representable.
func (r BlobRef) ByteSize() (int64, bool) {
	n, ok := r.Elements()
	if !ok {
		return 0, false
	}
	size := int64(r.DType.Size())
	if n > math.MaxInt64/size {
		return 0, false
	}
	return n * size, true
}
