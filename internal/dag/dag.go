package dag

import (
	"fmt"
)

type node struct {
	id         string
	deps       map[string]*node
	dependents map[string]*node
}

// Graph is a directed graph of unit identifiers. It remembers the order
// nodes were added in, which TopoSort uses to break ties deterministically.
type Graph struct {
	nodes map[string]*node
	order []string
}

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a new node with the given ID to the graph. If a node with
// the same ID already exists, the function does nothing.
func (g *Graph) AddNode(id string) {
	if _, ok := g.nodes[id]; ok {
		return
	}
	g.nodes[id] = &node{
		id:         id,
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
	g.order = append(g.order, id)
}

// AddEdge creates a directed edge from the `fromID` node to the `toID` node.
// This signifies that `toID` has a dependency on `fromID`. An error is
// returned if either node does not exist or if the edge would create a
// self-reference.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}
	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	toNode.deps[fromID] = fromNode
	fromNode.dependents[toID] = toNode
	return nil
}

// Roots returns the IDs of all nodes without dependencies, in insertion
// order.
func (g *Graph) Roots() []string {
	var roots []string
	for _, id := range g.order {
		if len(g.nodes[id].deps) == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

// Leaves returns the IDs of all nodes nothing depends on, in insertion
// order.
func (g *Graph) Leaves() []string {
	var leaves []string
	for _, id := range g.order {
		if len(g.nodes[id].dependents) == 0 {
			leaves = append(leaves, id)
		}
	}
	return leaves
}

// Components returns the number of weakly connected components. An empty
// graph has zero.
func (g *Graph) Components() int {
	seen := make(map[string]bool, len(g.nodes))
	count := 0
	for _, id := range g.order {
		if seen[id] {
			continue
		}
		count++
		stack := []*node{g.nodes[id]}
		seen[id] = true
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, m := range n.deps {
				if !seen[m.id] {
					seen[m.id] = true
					stack = append(stack, m)
				}
			}
			for _, m := range n.dependents {
				if !seen[m.id] {
					seen[m.id] = true
					stack = append(stack, m)
				}
			}
		}
	}
	return count
}

// TopoSort returns every node ID in an order where all dependencies precede
// their dependents. Ties are broken by insertion order, so the result is
// deterministic for a given construction sequence. A cycle yields an error
// naming one of the nodes involved.
func (g *Graph) TopoSort() ([]string, error) {
	indegree := make(map[string]int, len(g.nodes))
	for _, id := range g.order {
		indegree[id] = len(g.nodes[id].deps)
	}

	var queue []string
	for _, id := range g.order {
		if indegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	sorted := make([]string, 0, len(g.nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		sorted = append(sorted, id)

		n := g.nodes[id]
		// Walk dependents in insertion order to keep the result stable.
		for _, depID := range g.order {
			if _, ok := n.dependents[depID]; !ok {
				continue
			}
			indegree[depID]--
			if indegree[depID] == 0 {
				queue = append(queue, depID)
			}
		}
	}

	if len(sorted) != len(g.nodes) {
		for _, id := range g.order {
			if indegree[id] > 0 {
				return nil, fmt.Errorf("cycle detected involving node '%s'", id)
			}
		}
	}
	return sorted, nil
}
