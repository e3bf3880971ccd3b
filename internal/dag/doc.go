// Package dag provides the dependency graph the linker orders unit
// construction with.
//
// The graph is deliberately small: nodes are unit identifiers, edges point
// from a predecessor to its dependent, and TopoSort returns a construction
// order that is stable with respect to insertion order, so the same
// descriptor always links the same way. A load is single-threaded, so the
// graph carries no locking.
package dag
