package planner

import (
	"fmt"
	"sort"
)

// Plan is the resolved execution order for a graph. Order lists every
// node such that all edge sources appear before their targets; ties are
// broken by declaration order so the same declarations always produce the
// same plan. Batches partitions Order into waves whose members share no
// edge with each other and may therefore run concurrently.
type Plan struct {
	graph   *Graph
	Order   []*Node
	Batches [][]*Node
}

// NewPlan linearizes the graph with Kahn's algorithm, processing one
// in-degree-zero wave at a time. Each wave, sorted by declaration order,
// becomes a batch. The graph is validated at build time, so a cycle here
// is a programming error.
func NewPlan(g *Graph) (*Plan, error) {
	inDegrees := make([]int, len(g.nodes))
	for to, edges := range g.upstream {
		inDegrees[to] = len(edges)
	}

	var frontier []int
	for _, node := range g.nodes {
		if inDegrees[node.id] == 0 {
			frontier = append(frontier, node.id)
		}
	}

	p := &Plan{graph: g}
	processed := 0
	for len(frontier) > 0 {
		sort.Ints(frontier)

		batch := make([]*Node, 0, len(frontier))
		var next []int
		for _, u := range frontier {
			batch = append(batch, g.nodes[u])
			processed++
			for _, v := range g.downstream[u] {
				inDegrees[v]--
				if inDegrees[v] == 0 {
					next = append(next, v)
				}
			}
		}

		p.Order = append(p.Order, batch...)
		p.Batches = append(p.Batches, batch)
		frontier = next
	}

	if processed != len(g.nodes) {
		return nil, fmt.Errorf("%w: involving %v", ErrCycleDetected, g.findCycle())
	}
	return p, nil
}

// Size returns the number of nodes in the plan.
func (p *Plan) Size() int {
	return len(p.Order)
}

// Node returns the node with the given ID.
func (p *Plan) Node(id int) *Node {
	return p.graph.nodes[id]
}

// DependsOn returns the IDs of the hard prerequisites of a node. These
// are the edges whose outcome gates the node.
func (p *Plan) DependsOn(id int) []int {
	var deps []int
	for _, e := range p.graph.upstream[id] {
		if e.Kind == EdgeDependsOn {
			deps = append(deps, e.From)
		}
	}
	return deps
}

// Upstream returns the IDs of every ordering predecessor of a node,
// regardless of edge kind.
func (p *Plan) Upstream(id int) []int {
	var ids []int
	for _, e := range p.graph.upstream[id] {
		ids = append(ids, e.From)
	}
	return ids
}
