package smt

// diffEdge is one difference constraint val[to] - val[from] <= w, tagged
// with the SAT literal whose truth implied it and the identity of the
// atom behind that literal.
type diffEdge struct {
	from, to int
	w        int
	lit      int
	key      atomKey
}

// diffGraph holds the difference constraints implied by one propositional
// assignment.
type diffGraph struct {
	names []string
	index map[string]int
	edges []diffEdge
}

func newDiffGraph() *diffGraph {
	g := &diffGraph{index: make(map[string]int)}
	g.vertex("") // constant zero
	return g
}

func (g *diffGraph) vertex(name string) int {
	if i, ok := g.index[name]; ok {
		return i
	}
	i := len(g.names)
	g.index[name] = i
	g.names = append(g.names, name)
	return i
}

// addAtom records the difference constraint implied by an atom's truth
// value. A true atom x - y <= k contributes that inequality; a false one
// contributes y - x <= -k-1.
func (g *diffGraph) addAtom(key atomKey, satVar int, truth bool) {
	x := g.vertex(key.x)
	y := g.vertex(key.y)
	if truth {
		g.edges = append(g.edges, diffEdge{from: y, to: x, w: key.k, lit: satVar, key: key})
	} else {
		g.edges = append(g.edges, diffEdge{from: x, to: y, w: -key.k - 1, lit: -satVar, key: key})
	}
}

// solve checks the constraint graph for feasibility. On success it
// returns one integer value per vertex, normalized so the zero vertex is
// 0. Otherwise it mines the assignment for up to maxConflicts disjoint
// negative cycles, breaking each found cycle by dropping one of its edges
// before rerunning, so a single propositional model can teach the SAT
// solver several clauses at once.
func (g *diffGraph) solve(maxConflicts int) (map[string]int, [][]diffEdge) {
	var conflicts [][]diffEdge
	for {
		vals, cycle := g.run()
		if cycle == nil {
			if len(conflicts) == 0 {
				return vals, nil
			}
			return nil, conflicts
		}
		conflicts = append(conflicts, cycle)
		if len(conflicts) >= maxConflicts || len(cycle) == len(g.edges) {
			return nil, conflicts
		}
		g.remove(cycle[0])
	}
}

func (g *diffGraph) remove(e diffEdge) {
	for i := range g.edges {
		if g.edges[i] == e {
			g.edges = append(g.edges[:i], g.edges[i+1:]...)
			return
		}
	}
}

// run executes Bellman-Ford over the current edge set, returning either a
// feasible valuation or one set of conflicting edges.
func (g *diffGraph) run() (vals map[string]int, conflict []diffEdge) {
	n := len(g.names)
	dist := make([]int, n)
	pred := make([]int, n) // edge index reaching each vertex, -1 if none
	for i := range pred {
		pred[i] = -1
	}

	// All distances start at 0, equivalent to a virtual source with a
	// zero-weight edge to every vertex; n rounds then suffice.
	relaxedAt := -1
	for round := 0; round <= n; round++ {
		changed := false
		for ei, e := range g.edges {
			if d := dist[e.from] + e.w; d < dist[e.to] {
				dist[e.to] = d
				pred[e.to] = ei
				changed = true
				relaxedAt = e.to
			}
		}
		if !changed {
			relaxedAt = -1
			break
		}
	}

	if relaxedAt >= 0 {
		// Walk predecessors until a vertex repeats; the repeated vertex
		// closes the negative cycle.
		seen := make(map[int]bool, n)
		v := relaxedAt
		for pred[v] >= 0 && !seen[v] {
			seen[v] = true
			v = g.edges[pred[v]].from
		}
		if pred[v] < 0 {
			// No cycle reachable through predecessors; block the whole
			// assignment. Wider than necessary but still sound.
			return nil, g.edges
		}
		start := v
		for {
			e := g.edges[pred[v]]
			conflict = append(conflict, e)
			v = e.from
			if v == start {
				break
			}
		}
		return nil, conflict
	}

	zero := dist[g.index[""]]
	vals = make(map[string]int, n)
	for i, name := range g.names {
		vals[name] = dist[i] - zero
	}
	return vals, nil
}
