package grid

// depGraph tracks which cells feed which formulas. edges are recomputed
// from the expression tree on every raw change, so the graph is always in
// sync with the stored formulas. range references are expanded to one edge
// per covered cell before they reach the graph.
type depGraph struct {
	// precedents[k] is the set of cells k's formula reads
	precedents map[Key]map[Key]struct{}
	// dependents[k] is the set of formulas that read k
	dependents map[Key]map[Key]struct{}
}

func newDepGraph() *depGraph {
	return &depGraph{
		precedents: make(map[Key]map[Key]struct{}),
		dependents: make(map[Key]map[Key]struct{}),
	}
}

// setPrecedents replaces every outgoing edge of key with the given set,
// keeping the reverse index consistent
func (g *depGraph) setPrecedents(key Key, precedents map[Key]struct{}) {
	g.clearPrecedents(key)
	if len(precedents) == 0 {
		return
	}
	g.precedents[key] = precedents
	for p := range precedents {
		deps := g.dependents[p]
		if deps == nil {
			deps = make(map[Key]struct{})
			g.dependents[p] = deps
		}
		deps[key] = struct{}{}
	}
}

// clearPrecedents removes every outgoing edge of key. incoming edges
// (other formulas reading key) are untouched.
func (g *depGraph) clearPrecedents(key Key) {
	for p := range g.precedents[key] {
		deps := g.dependents[p]
		delete(deps, key)
		if len(deps) == 0 {
			delete(g.dependents, p)
		}
	}
	delete(g.precedents, key)
}

// dependentsOf returns the direct dependents of key
func (g *depGraph) dependentsOf(key Key) map[Key]struct{} {
	return g.dependents[key]
}

// precedentsOf returns the direct precedents of key
func (g *depGraph) precedentsOf(key Key) map[Key]struct{} {
	return g.precedents[key]
}

// transitiveDependents accumulates every cell that directly or indirectly
// reads any of the seed keys, including the seeds themselves, into out
func (g *depGraph) transitiveDependents(seeds []Key, out map[Key]struct{}) {
	stack := make([]Key, 0, len(seeds))
	for _, k := range seeds {
		if _, seen := out[k]; !seen {
			out[k] = struct{}{}
			stack = append(stack, k)
		}
	}
	for len(stack) > 0 {
		k := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for dep := range g.dependents[k] {
			if _, seen := out[dep]; !seen {
				out[dep] = struct{}{}
				stack = append(stack, dep)
			}
		}
	}
}
