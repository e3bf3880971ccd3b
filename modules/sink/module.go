// Package sink provides the 'sink' unit: a terminal unit that consumes any
// number of inputs and declares nothing of its own.
package sink

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowpack/internal/blob"
	"github.com/vk/flowpack/internal/registry"
	"github.com/vk/flowpack/internal/workflow"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register wires the 'sink' unit type into the registry.
func (Module) Register(r *registry.Registry) {
	r.RegisterUnit("sink", &registry.RegisteredUnit{
		New: func() workflow.Unit { return &Unit{} },
	})
}

// Unit is a property-less terminal unit.
type Unit struct{}

// SetProperty rejects every property; sinks are pure consumers.
func (u *Unit) SetProperty(name string, _ cty.Value) error {
	return fmt.Errorf("unsupported property %q", name)
}

// AttachArray rejects all arrays.
func (u *Unit) AttachArray(name string, _ *blob.Array) error {
	return fmt.Errorf("sink units take no arrays (got %q)", name)
}

// InputArity reports that sinks accept any number of inputs.
func (u *Unit) InputArity() int { return -1 }
