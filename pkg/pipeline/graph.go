package pipeline

import (
	"sort"

	"github.com/xvc-dev/xvc/internal/xvcerr"
	"github.com/xvc-dev/xvc/pkg/ecs"
)

// Graph is a pipeline's step dependency graph. An edge (X, Y) means "step X depends on step Y":
// X cannot be considered for running until Y has finished. This direction matches both
// add_explicit_dependencies (an explicit `--step` flag names the step this one depends on) and
// add_implicit_dependencies (a dependency whose path matches another step's declared output) in
// the original pipeline module: in both cases the edge is recorded from the step declaring the
// dependency to the step that satisfies it, so a step's out-edges are exactly its prerequisites.
type Graph struct {
	edges map[ecs.Entity][]ecs.Entity // step -> steps it depends on
	nodes map[ecs.Entity]struct{}
}

// NewGraph creates an empty dependency graph.
func NewGraph() *Graph {
	return &Graph{edges: make(map[ecs.Entity][]ecs.Entity), nodes: make(map[ecs.Entity]struct{})}
}

// AddNode registers step as present in the graph even if it has no dependencies, so that
// isolated steps still appear in Steps().
func (g *Graph) AddNode(step ecs.Entity) {
	g.nodes[step] = struct{}{}
}

// AddEdge records that step depends on dependsOn.
func (g *Graph) AddEdge(step, dependsOn ecs.Entity) {
	g.AddNode(step)
	g.AddNode(dependsOn)
	for _, existing := range g.edges[step] {
		if existing == dependsOn {
			return
		}
	}
	g.edges[step] = append(g.edges[step], dependsOn)
}

// DependsOn returns the steps that step directly depends on, sorted for deterministic polling
// order.
func (g *Graph) DependsOn(step ecs.Entity) []ecs.Entity {
	out := append([]ecs.Entity(nil), g.edges[step]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Steps returns every step registered in the graph, sorted for deterministic iteration.
func (g *Graph) Steps() []ecs.Entity {
	out := make([]ecs.Entity, 0, len(g.nodes))
	for e := range g.nodes {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// visitState is the three-color marker used by Validate's depth-first cycle search.
type visitState int

const (
	unvisited visitState = iota
	visiting
	visited
)

// Validate reports xvcerr.ErrPipelineCycle if the graph contains a dependency cycle. No
// third-party graph library exists anywhere in this project's dependency corpus, so cycle
// detection is a direct, hand-rolled depth-first search rather than a library call.
func (g *Graph) Validate() error {
	state := make(map[ecs.Entity]visitState, len(g.nodes))
	var visit func(ecs.Entity) error
	visit = func(n ecs.Entity) error {
		switch state[n] {
		case visited:
			return nil
		case visiting:
			return xvcerr.ErrPipelineCycle
		}
		state[n] = visiting
		for _, dep := range g.edges[n] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[n] = visited
		return nil
	}
	for _, n := range g.Steps() {
		if err := visit(n); err != nil {
			return err
		}
	}
	return nil
}

// TopoOrder returns the graph's steps in an order where every step appears after everything it
// depends on. It assumes Validate has already reported no cycle; behavior given a cyclic graph
// is undefined.
func (g *Graph) TopoOrder() []ecs.Entity {
	state := make(map[ecs.Entity]visitState, len(g.nodes))
	var order []ecs.Entity
	var visit func(ecs.Entity)
	visit = func(n ecs.Entity) {
		if state[n] == visited {
			return
		}
		state[n] = visiting
		for _, dep := range g.edges[n] {
			visit(dep)
		}
		state[n] = visited
		order = append(order, n)
	}
	for _, n := range g.Steps() {
		visit(n)
	}
	return order
}
