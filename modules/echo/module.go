// Package echo provides the 'echo' unit: a root unit that carries a single
// message property. It is mainly useful for smoke-testing packages and as
// the smallest possible unit implementation.
package echo

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

// Register wires the 'echo' unit type into the registry.
func (Module) Register(r *registry.Registry) {
	r.RegisterUnit("echo", &registry.RegisteredUnit{
		New: func() workflow.Unit { return &Unit{} },
	})
}

// Unit holds the echoed message.
type Unit struct {
	Msg string
}

// SetProperty accepts the 'msg' string property and rejects everything else.
func (u *Unit) SetProperty(name string, value cty.Value) error {
	switch name {
	case "msg":
		return gocty.FromCtyValue(value, &u.Msg)
	default:
		return fmt.Errorf("unsupported property %q", name)
	}
}

// AttachArray rejects all arrays; echo units carry no binary data.
func (u *Unit) AttachArray(name string, _ *blob.Array) error {
	return fmt.Errorf("echo units take no arrays (got %q)", name)
}

// InputArity reports that echo units are roots with no inputs.
func (u *Unit) InputArity() int { return 0 }
