package pipeline

import (
	"container/heap"
)

// Edge is a dependency: To runs only after From completed, was up to date or skipped.
type Edge struct {
	From string
	To   string
}

// Graph is an immutable, validated stage graph.
type Graph struct {
	stages   []Stage
	index    map[string]int
	outgoing [][]int
	incoming [][]int
	order    []int
}

// NewGraph builds and validates a Graph.
//
// Validation rejects empty or duplicate stage names, edges referencing
// unknown stages, duplicate edges, self-loops and cycles.
func NewGraph(stages []Stage, edges []Edge) (*Graph, error) {
	if len(stages) == 0 {
		return nil, invalidf("no stages")
	}

	g := &Graph{
		stages:   append([]Stage(nil), stages...),
		index:    make(map[string]int, len(stages)),
		outgoing: make([][]int, len(stages)),
		incoming: make([][]int, len(stages)),
	}

	for i, s := range stages {
		name := s.Name()
		if name == "" {
			return nil, invalidf("stage name is required")
		}

		if _, exists := g.index[name]; exists {
			return nil, invalidf("duplicate stage name: %q", name)
		}

		g.index[name] = i
	}

	seen := make(map[Edge]struct{}, len(edges))

	for _, e := range edges {
		from, okFrom := g.index[e.From]
		if !okFrom {
			return nil, invalidf("edge references unknown stage (from): %q", e.From)
		}

		to, okTo := g.index[e.To]
		if !okTo {
			return nil, invalidf("edge references unknown stage (to): %q", e.To)
		}

		if from == to {
			return nil, invalidf("self-loop: %q -> %q", e.From, e.To)
		}

		if _, exists := seen[e]; exists {
			return nil, invalidf("duplicate edge: %q -> %q", e.From, e.To)
		}

		seen[e] = struct{}{}
		g.outgoing[from] = append(g.outgoing[from], to)
		g.incoming[to] = append(g.incoming[to], from)
	}

	g.order = g.topoOrder()
	if len(g.order) != len(g.stages) {
		return nil, cycleError(g.findCycle())
	}

	return g, nil
}

// Stage returns a stage by name.
func (g *Graph) Stage(name string) (Stage, bool) {
	i, ok := g.index[name]
	if !ok {
		return nil, false
	}

	return g.stages[i], true
}

// Order returns every stage name in deterministic topological order.
// Ties are broken by registration order.
func (g *Graph) Order() []string {
	names := make([]string, 0, len(g.order))
	for _, i := range g.order {
		names = append(names, g.stages[i].Name())
	}

	return names
}

// Upstream returns the names of the stages target directly depends on, in registration order.
func (g *Graph) Upstream(target string) []string {
	i, ok := g.index[target]
	if !ok {
		return nil
	}

	names := make([]string, 0, len(g.incoming[i]))
	for _, p := range g.incoming[i] {
		names = append(names, g.stages[p].Name())
	}

	return names
}

// Closure returns target and everything it transitively depends on, in
// topological order. An empty target selects the whole graph.
func (g *Graph) Closure(target string) ([]string, error) {
	if target == "" {
		return g.Order(), nil
	}

	root, ok := g.index[target]
	if !ok {
		return nil, &GraphError{Kind: ErrUnknownStage, Msg: target}
	}

	needed := map[int]bool{root: true}
	stack := []int{root}

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, p := range g.incoming[n] {
			if !needed[p] {
				needed[p] = true
				stack = append(stack, p)
			}
		}
	}

	names := make([]string, 0, len(needed))
	for _, i := range g.order {
		if needed[i] {
			names = append(names, g.stages[i].Name())
		}
	}

	return names, nil
}

type intMinHeap []int

func (h intMinHeap) Len() int           { return len(h) }
func (h intMinHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intMinHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *intMinHeap) Push(x any)        { *h = append(*h, x.(int)) } //nolint:forcetypeassert // Only ints are pushed.
func (h *intMinHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]

	return x
}

// topoOrder runs Kahn's algorithm with a min-heap so the order is stable.
func (g *Graph) topoOrder() []int {
	indeg := make([]int, len(g.stages))
	for i := range g.incoming {
		indeg[i] = len(g.incoming[i])
	}

	ready := &intMinHeap{}
	for i, d := range indeg {
		if d == 0 {
			heap.Push(ready, i)
		}
	}

	out := make([]int, 0, len(indeg))
	for ready.Len() > 0 {
		n := heap.Pop(ready).(int) //nolint:forcetypeassert // Only ints are pushed.
		out = append(out, n)

		for _, m := range g.outgoing[n] {
			indeg[m]--
			if indeg[m] == 0 {
				heap.Push(ready, m)
			}
		}
	}

	return out
}

// findCycle returns one cycle as stage names, first name repeated at the end.
func (g *Graph) findCycle() []string {
	const (
		white = iota
		gray
		black
	)

	color := make([]int, len(g.stages))
	parent := make([]int, len(g.stages))

	for i := range parent {
		parent[i] = -1
	}

	var cycle []int

	var dfs func(u int) bool
	dfs = func(u int) bool {
		color[u] = gray

		for _, v := range g.outgoing[u] {
			switch color[v] {
			case white:
				parent[v] = u
				if dfs(v) {
					return true
				}
			case gray:
				// Back-edge u -> v closes the cycle v ... u -> v.
				cycle = append(cycle, v)
				for cur := u; cur != -1 && cur != v; cur = parent[cur] {
					cycle = append(cycle, cur)
				}

				cycle = append(cycle, v)

				return true
			}
		}

		color[u] = black

		return false
	}

	for i := range g.stages {
		if color[i] == white && dfs(i) {
			break
		}
	}

	names := make([]string, 0, len(cycle))
	for i := len(cycle) - 1; i >= 0; i-- {
		names = append(names, g.stages[cycle[i]].Name())
	}

	return names
}
