// Package scale provides the 'scale' unit: a single-input unit that
// multiplies its input by a constant factor when the workflow runs.
package scale

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

// Register wires the 'scale' unit type into the registry.
func (Module) Register(r *registry.Registry) {
	r.RegisterUnit("scale", &registry.RegisteredUnit{
		New: func() workflow.Unit { return &Unit{Factor: 1} },
	})
}

// Unit multiplies by Factor. The default factor is 1.
type Unit struct {
	Factor float64
}

// SetProperty accepts the 'factor' number property.
func (u *Unit) SetProperty(name string, value cty.Value) error {
	switch name {
	case "factor":
		return gocty.FromCtyValue(value, &u.Factor)
	default:
		return fmt.Errorf("unsupported property %q", name)
	}
}

// AttachArray rejects all arrays.
func (u *Unit) AttachArray(name string, _ *blob.Array) error {
	return fmt.Errorf("scale units take no arrays (got %q)", name)
}

// InputArity reports exactly one input slot.
func (u *Unit) InputArity() int { return 1 }
