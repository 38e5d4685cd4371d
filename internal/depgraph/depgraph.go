// Package depgraph orders modules for emission and rejects forbidden
// import topologies, grounded on the teacher's internal/modules
// package (Loader, Module.OrderedFiles, IsPackageGroup for re-export
// groups).
package depgraph

import (
	"fmt"
	"sort"

	"github.com/funvibe/tsnc/internal/ir"
)

// CycleError reports a cycle among local modules where at least one
// edge carries a value (non-type-only) import — fatal per spec §4.4.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("import cycle with a value edge: %v", e.Cycle)
}

type edge struct {
	to       string
	typeOnly bool
}

// Graph is the directed import graph over local modules. External-
// runtime imports are not graph nodes; they accumulate into each
// module's using-set instead (spec §4.4).
type Graph struct {
	nodes map[string]bool
	edges map[string][]edge
}

// Build extracts each module's local import edges (skipping imports
// whose path does not resolve to another module in the set — those
// are external-runtime imports) and constructs the dependency graph.
func Build(modules map[string]*ir.Module, resolveLocal func(fromModule, importPath string) (string, bool)) *Graph {
	g := &Graph{nodes: map[string]bool{}, edges: map[string][]edge{}}
	for path := range modules {
		g.nodes[path] = true
	}
	for path, mod := range modules {
		for _, imp := range mod.Imports {
			target, ok := resolveLocal(path, imp.Path)
			if !ok {
				continue // external-runtime import: not a graph node
			}
			g.edges[path] = append(g.edges[path], edge{to: target, typeOnly: imp.TypeOnly})
		}
	}
	return g
}

// TopoOrder computes a topological order over local modules, ties
// broken lexicographically by path, and returns a CycleError if any
// cycle contains a value edge. Cycles made entirely of type-only
// imports (erased at emission) are permitted.
func (g *Graph) TopoOrder() ([]string, error) {
	paths := make([]string, 0, len(g.nodes))
	for p := range g.nodes {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[string]int{}
	var order []string
	var stack []string

	var visit func(string) error
	visit = func(node string) error {
		color[node] = gray
		stack = append(stack, node)

		outs := append([]edge(nil), g.edges[node]...)
		sort.Slice(outs, func(i, j int) bool { return outs[i].to < outs[j].to })

		for _, e := range outs {
			switch color[e.to] {
			case white:
				if err := visit(e.to); err != nil {
					return err
				}
			case gray:
				if !e.typeOnly || cycleHasValueEdge(g, stack, e.to) {
					cycle := append(append([]string(nil), stack...), e.to)
					return &CycleError{Cycle: cycle}
				}
			}
		}

		stack = stack[:len(stack)-1]
		color[node] = black
		order = append(order, node)
		return nil
	}

	for _, p := range paths {
		if color[p] == white {
			if err := visit(p); err != nil {
				return nil, err
			}
		}
	}
	return order, nil
}

// cycleHasValueEdge checks whether the cycle closing back to target
// contains any non-type-only edge.
func cycleHasValueEdge(g *Graph, stack []string, target string) bool {
	start := -1
	for i, n := range stack {
		if n == target {
			start = i
			break
		}
	}
	if start < 0 {
		return false
	}
	for i := start; i < len(stack)-1; i++ {
		from, to := stack[i], stack[i+1]
		for _, e := range g.edges[from] {
			if e.to == to && !e.typeOnly {
				return true
			}
		}
	}
	return false
}
