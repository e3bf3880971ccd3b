// Package linker assembles the final workflow from a parsed descriptor,
// the resolved blob arrays, and the injected unit registry.
//
// Construction happens in topological order of the links relation, so a
// descriptor may reference units declared later in the file. Within one
// unit the sequence is fixed: scalar properties, then attached arrays, then
// link binding against the declared input arity. The first failure aborts
// the load and releases everything built so far in reverse order.
package linker

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/vk/flowpack/internal/blob"
	"github.com/vk/flowpack/internal/ctxlog"
	"github.com/vk/flowpack/internal/dag"
	"github.com/vk/flowpack/internal/model"
	"github.com/vk/flowpack/internal/registry"
	"github.com/vk/flowpack/internal/workflow"
)

// Sentinel errors the loader maps onto its error taxonomy.
var (
	ErrUnknownUnitType  = errors.New("unknown unit type")
	ErrRejectedProperty = errors.New("unit rejected property")
	ErrArityMismatch    = errors.New("link arity mismatch")
	ErrCycle            = errors.New("links relation contains a cycle")
	ErrUnknownLink      = errors.New("link references unknown unit")
)

// Link instantiates, configures, and wires every unit of the descriptor,
// returning the assembled workflow. Ownership of the units and the attached
// arrays transfers to the returned value.
func Link(ctx context.Context, desc *model.Descriptor, arrays map[string]*blob.Array, reg *registry.Registry) (*workflow.Workflow, error) {
	logger := ctxlog.FromContext(ctx)

	specs := make(map[string]*model.UnitSpec, len(desc.Units))
	graph := dag.New()
	for _, spec := range desc.Units {
		specs[spec.ID] = spec
		graph.AddNode(spec.ID)
	}
	for _, spec := range desc.Units {
		for _, pred := range spec.Links {
			if _, ok := specs[pred]; !ok {
				return nil, fmt.Errorf("unit %q: %w: %q", spec.ID, ErrUnknownLink, pred)
			}
			if pred == spec.ID {
				return nil, fmt.Errorf("unit %q links to itself: %w", spec.ID, ErrCycle)
			}
			if err := graph.AddEdge(pred, spec.ID); err != nil {
				return nil, fmt.Errorf("unit %q: %w", spec.ID, err)
			}
		}
	}

	order, err := graph.TopoSort()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCycle, err)
	}
	logger.Debug("Unit construction order determined.", "order", order)

	index := make(map[string]int, len(order))
	units := make([]workflow.Unit, 0, len(order))
	ids := make([]string, 0, len(order))

	for _, id := range order {
		spec := specs[id]
		unit, err := construct(spec, arrays, reg)
		if err != nil {
			workflow.ReleaseUnits(units)
			return nil, err
		}
		index[id] = len(units)
		ids = append(ids, id)
		units = append(units, unit)
	}

	var edges []workflow.Edge
	for i, id := range ids {
		for slot, pred := range specs[id].Links {
			edges = append(edges, workflow.Edge{From: index[pred], To: i, Slot: slot})
		}
	}

	validate(ctx, graph)

	logger.Debug("Workflow linked.", "units", len(units), "edges", len(edges))
	return workflow.New(desc.Name, desc.Version, ids, units, edges), nil
}

// construct builds one unit: instantiate, apply properties in sorted name
// order for determinism, attach arrays, check arity.
func construct(spec *model.UnitSpec, arrays map[string]*blob.Array, reg *registry.Registry) (workflow.Unit, error) {
	registered, ok := reg.Lookup(spec.TypeName)
	if !ok {
		return nil, fmt.Errorf("unit %q: %w: %q", spec.ID, ErrUnknownUnitType, spec.TypeName)
	}
	unit := registered.New()

	for _, name := range sortedKeys(spec.Properties) {
		if err := unit.SetProperty(name, spec.Properties[name]); err != nil {
			release(unit)
			return nil, fmt.Errorf("unit %q: %w %q: %v", spec.ID, ErrRejectedProperty, name, err)
		}
	}

	for _, name := range sortedKeys(spec.Blobs) {
		ref := spec.Blobs[name]
		arr, ok := arrays[ref.Path]
		if !ok {
			release(unit)
			return nil, fmt.Errorf("unit %q: no resolved array for blob %q", spec.ID, ref.Path)
		}
		if err := unit.AttachArray(name, arr); err != nil {
			release(unit)
			return nil, fmt.Errorf("unit %q: %w %q: %v", spec.ID, ErrRejectedProperty, name, err)
		}
	}

	if arity := unit.InputArity(); arity >= 0 && arity != len(spec.Links) {
		release(unit)
		return nil, fmt.Errorf("unit %q: %w: type %q takes %d inputs, %d linked",
			spec.ID, ErrArityMismatch, spec.TypeName, arity, len(spec.Links))
	}

	return unit, nil
}

func release(unit workflow.Unit) {
	if r, ok := unit.(workflow.Releaser); ok {
		r.Release()
	}
}

// validate surfaces structural oddities that are permitted but worth a
// warning: several roots, several leaves, or a disconnected graph.
func validate(ctx context.Context, graph *dag.Graph) {
	logger := ctxlog.FromContext(ctx)

	if roots := graph.Roots(); len(roots) > 1 {
		logger.Warn("Workflow has multiple root units.", "roots", roots)
	}
	if leaves := graph.Leaves(); len(leaves) > 1 {
		logger.Warn("Workflow has multiple terminal units; extra outputs are unconsumed.", "leaves", leaves)
	}
	if comps := graph.Components(); comps > 1 {
		logger.Warn("Workflow graph is not weakly connected.", "components", comps)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
