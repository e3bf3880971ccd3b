// Package workflow defines the loader's output: a linked graph of
// constructed units, and the contract every unit implementation satisfies.
//
// Why a flat container?
//
// Units never hold pointers to each other. The Workflow stores them in a
// flat slice and records the links relation as index pairs, so the graph
// can be walked, serialized, or handed to a runtime without chasing object
// references, and reference cycles are structurally impossible. Ownership
// is transferred wholesale to the caller on a successful load; the loader
// retains nothing.
package workflow

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowpack/internal/blob"
)

// Unit is the contract between the loader and a unit implementation. The
// linker drives it in a fixed sequence: properties first, then attached
// arrays, then link binding against the declared input arity.
type Unit interface {
	// SetProperty applies one named scalar or sequence property. Returning
	// an error rejects the property and aborts the load.
	SetProperty(name string, value cty.Value) error

	// AttachArray hands the unit a resolved blob array. The array may be
	// shared with other units referencing the same package file.
	AttachArray(name string, arr *blob.Array) error

	// InputArity reports how many input slots the unit exposes. A negative
	// value means the unit accepts any number of inputs.
	InputArity() int
}

// Releaser is optionally implemented by units that hold resources beyond
// plain memory. The linker releases partially constructed units in reverse
// construction order when a load fails.
type Releaser interface {
	Release()
}

// Edge connects the output of one unit to an input slot of another, by
// position in the workflow's unit container.
type Edge struct {
	From int // producing unit index
	To   int // consuming unit index
	Slot int // input slot on the consuming unit
}

// Workflow is the owning result of a load.
type Workflow struct {
	name    string
	version string
	ids     []string
	units   []Unit
	index   map[string]int
	edges   []Edge
}

// New assembles a workflow from parallel id and unit slices plus the link
// relation. Slices are owned by the workflow after the call.
func New(name, version string, ids []string, units []Unit, edges []Edge) *Workflow {
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}
	return &Workflow{
		name:    name,
		version: version,
		ids:     ids,
		units:   units,
		index:   index,
		edges:   edges,
	}
}

// Name returns the package-declared workflow name, if any.
func (w *Workflow) Name() string { return w.name }

// Version returns the package-declared workflow version, if any.
func (w *Workflow) Version() string { return w.version }

// Len returns the number of units.
func (w *Workflow) Len() int { return len(w.units) }

// Unit returns the unit at index i, in construction (topological) order.
func (w *Workflow) Unit(i int) Unit { return w.units[i] }

// ID returns the identifier of the unit at index i.
func (w *Workflow) ID(i int) string { return w.ids[i] }

// UnitByID looks a unit up by its package identifier.
func (w *Workflow) UnitByID(id string) (Unit, bool) {
	i, ok := w.index[id]
	if !ok {
		return nil, false
	}
	return w.units[i], true
}

// Edges returns a copy of the links relation.
func (w *Workflow) Edges() []Edge {
	out := make([]Edge, len(w.edges))
	copy(out, w.edges)
	return out
}

// Inputs returns the edges feeding unit i, ordered by slot.
func (w *Workflow) Inputs(i int) []Edge {
	var in []Edge
	for _, e := range w.edges {
		if e.To == i {
			in = append(in, e)
		}
	}
	for a := 1; a < len(in); a++ {
		for b := a; b > 0 && in[b].Slot < in[b-1].Slot; b-- {
			in[b], in[b-1] = in[b-1], in[b]
		}
	}
	return in
}

// Release tears the workflow down, releasing units in reverse construction
// order. It is safe to call on a workflow that was never started.
func (w *Workflow) Release() {
	ReleaseUnits(w.units)
	w.units = nil
	w.edges = nil
}

// ReleaseUnits releases the given units in reverse order, skipping any that
// do not implement Releaser.
func ReleaseUnits(units []Unit) {
	for i := len(units) - 1; i >= 0; i-- {
		if r, ok := units[i].(Releaser); ok {
			r.Release()
		}
	}
}
