package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/flowpack/internal/workflow"
)

// Module is the interface that all unit modules must implement to be
// registered.
type Module interface {
	Register(r *Registry)
}

// RegisteredUnit holds the compiled Go parts of a unit type.
type RegisteredUnit struct {
	// New constructs a fresh, unconfigured unit instance.
	New func() workflow.Unit
}

// Registry holds the registered unit constructors for a loader instance.
type Registry struct {
	units map[string]*RegisteredUnit
}

// New creates and initializes a new Registry instance.
func New(modules ...Module) *Registry {
	r := &Registry{
		units: make(map[string]*RegisteredUnit),
	}
	for _, mod := range modules {
		mod.Register(r)
	}
	return r
}

// RegisterUnit registers a constructor for the given descriptor type name.
func (r *Registry) RegisterUnit(name string, unit *RegisteredUnit) {
	if _, exists := r.units[name]; exists {
		panic(fmt.Sprintf("unit type with name '%s' already registered", name))
	}
	if unit == nil || unit.New == nil {
		panic(fmt.Sprintf("unit type '%s' registered without a constructor", name))
	}
	slog.Debug("Registering unit type.", "name", name)
	r.units[name] = unit
}

// Lookup returns the constructor registered for the given type name.
func (r *Registry) Lookup(name string) (*RegisteredUnit, bool) {
	unit, ok := r.units[name]
	return unit, ok
}

// Types returns all registered type names, sorted.
func (r *Registry) Types() []string {
	names := make([]string, 0, len(r.units))
	for name := range r.units {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
