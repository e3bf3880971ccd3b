// Package source provides the 'source' unit: a root unit that feeds a
// package-attached array into the workflow.
package source

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/flowpack/internal/blob"
	"github.com/vk/flowpack/internal/registry"
	"github.com/vk/flowpack/internal/workflow"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register wires the 'source' unit type into the registry.
func (Module) Register(r *registry.Registry) {
	r.RegisterUnit("source", &registry.RegisteredUnit{
		New: func() workflow.Unit { return &Unit{} },
	})
}

// Unit owns the array its package blob resolved to. The array may be shared
// with other units referencing the same file.
type Unit struct {
	Label string

	data *blob.Array
}

// SetProperty accepts the optional 'label' string property.
func (u *Unit) SetProperty(name string, value cty.Value) error {
	switch name {
	case "label":
		return gocty.FromCtyValue(value, &u.Label)
	default:
		return fmt.Errorf("unsupported property %q", name)
	}
}

// AttachArray stores the 'data' array.
func (u *Unit) AttachArray(name string, arr *blob.Array) error {
	if name != "data" {
		return fmt.Errorf("unsupported array property %q", name)
	}
	u.data = arr
	return nil
}

// InputArity reports that source units are roots with no inputs.
func (u *Unit) InputArity() int { return 0 }

// Data returns the attached array, or nil if the package declared none.
func (u *Unit) Data() *blob.Array { return u.data }
