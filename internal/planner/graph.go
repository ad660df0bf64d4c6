package planner

import (
	"errors"
	"fmt"

	"github.com/sequor-org/sequor/internal/suite"
)

var (
	// ErrUnresolvedReference means a declaration names a dependency that
	// does not resolve to a declared test or a non-empty group.
	ErrUnresolvedReference = errors.New("unresolved reference")
	// ErrCycleDetected means the declarations cannot be linearized.
	ErrCycleDetected = errors.New("cycle detected")
	// ErrDuplicateName means two declarations share a name.
	ErrDuplicateName = errors.New("duplicate test name")
)

// EdgeKind distinguishes hard prerequisites from ordering-only edges.
type EdgeKind int

const (
	// EdgeDependsOn is a hard prerequisite: failure or skip of the
	// source forces a skip of the target unless the target is AlwaysRun.
	EdgeDependsOn EdgeKind = iota
	// EdgeRunsAfter orders execution without propagating outcomes.
	EdgeRunsAfter
)

// Edge is a directed ordering constraint between two nodes. Edges are
// immutable once the graph is built.
type Edge struct {
	From int
	To   int
	Kind EdgeKind
}

// Node is a single test in the graph. Its ID is the declaration index,
// which is also the tie-break key for planning.
type Node struct {
	id   int
	test suite.Test
}

func (n *Node) ID() int          { return n.id }
func (n *Node) Name() string     { return n.test.Name }
func (n *Node) Test() suite.Test { return n.test }

// Graph holds the resolved dependency structure of a test suite. Group
// references are expanded to per-member edges at build time, so the plan
// never needs to know about groups.
type Graph struct {
	nodes      []*Node
	byName     map[string]*Node
	groups     map[string][]int
	upstream   map[int][]Edge
	downstream map[int][]int
	edgeSet    map[Edge]struct{}
}

// Build resolves a set of declarations into a graph. It validates every
// DependsOn and RunsAfter reference and rejects duplicate names. Nothing
// executes here; a build error aborts the run before any action is
// invoked.
func Build(tests []suite.Test) (*Graph, error) {
	g := &Graph{
		byName:     make(map[string]*Node, len(tests)),
		groups:     make(map[string][]int),
		upstream:   make(map[int][]Edge),
		downstream: make(map[int][]int),
		edgeSet:    make(map[Edge]struct{}),
	}

	for i, t := range tests {
		if _, ok := g.byName[t.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, t.Name)
		}
		node := &Node{id: i, test: t}
		g.nodes = append(g.nodes, node)
		g.byName[t.Name] = node
		for _, group := range t.Groups {
			g.groups[group] = append(g.groups[group], i)
		}
	}

	for _, node := range g.nodes {
		test := node.test

		for _, dep := range test.DependsOn {
			from, ok := g.byName[dep]
			if !ok {
				return nil, fmt.Errorf("%w: %q depends on unknown test %q", ErrUnresolvedReference, test.Name, dep)
			}
			g.addEdge(Edge{From: from.id, To: node.id, Kind: EdgeDependsOn})
		}

		for _, after := range test.RunsAfter {
			if from, ok := g.byName[after]; ok {
				g.addEdge(Edge{From: from.id, To: node.id, Kind: EdgeRunsAfter})
				continue
			}
			members, ok := g.groups[after]
			if !ok || len(members) == 0 {
				return nil, fmt.Errorf("%w: %q runs after unknown test or group %q", ErrUnresolvedReference, test.Name, after)
			}
			g.fanIn(node.id, members)
		}

		// An edge to an empty or unknown group is vacuously satisfied.
		for _, group := range test.RunsAfterGroups {
			g.fanIn(node.id, g.groups[group])
		}
	}

	if cycle := g.findCycle(); len(cycle) > 0 {
		return nil, fmt.Errorf("%w: involving %v", ErrCycleDetected, cycle)
	}

	return g, nil
}

// fanIn adds a runs-after edge from every group member to the target,
// skipping the target itself so membership in an awaited group does not
// self-deadlock.
func (g *Graph) fanIn(to int, members []int) {
	for _, member := range members {
		if member == to {
			continue
		}
		g.addEdge(Edge{From: member, To: to, Kind: EdgeRunsAfter})
	}
}

func (g *Graph) addEdge(e Edge) {
	if _, ok := g.edgeSet[e]; ok {
		return
	}
	g.edgeSet[e] = struct{}{}
	g.upstream[e.To] = append(g.upstream[e.To], e)
	g.downstream[e.From] = append(g.downstream[e.From], e.To)
}

// findCycle runs Kahn's algorithm over all edges and returns the names of
// the nodes that could not be processed, which together contain every
// cycle. An empty result means the graph is acyclic.
func (g *Graph) findCycle() []string {
	inDegrees := make([]int, len(g.nodes))
	for to, edges := range g.upstream {
		inDegrees[to] = len(edges)
	}

	var queue []int
	for _, node := range g.nodes {
		if inDegrees[node.id] == 0 {
			queue = append(queue, node.id)
		}
	}

	processed := make([]bool, len(g.nodes))
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		processed[u] = true

		for _, v := range g.downstream[u] {
			inDegrees[v]--
			if inDegrees[v] == 0 {
				queue = append(queue, v)
			}
		}
	}

	var remaining []string
	for _, node := range g.nodes {
		if !processed[node.id] {
			remaining = append(remaining, node.Name())
		}
	}
	return remaining
}

// Nodes returns all nodes in declaration order.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, len(g.nodes))
	copy(nodes, g.nodes)
	return nodes
}

// NodeByName returns the named node, or nil.
func (g *Graph) NodeByName(name string) *Node {
	return g.byName[name]
}

// Upstream returns the edges pointing at the given node.
func (g *Graph) Upstream(id int) []Edge {
	edges := make([]Edge, len(g.upstream[id]))
	copy(edges, g.upstream[id])
	return edges
}
