package graph

import (
	"sort"
	"strings"
)

// Cycle is an ordered sequence of file paths forming a closed import loop,
// with the first path repeated at the end. Two cycles with the same member
// set are the same cycle regardless of rotation or discovery order.
type Cycle struct {
	// Path is the loop as discovered, e.g. [a, b, a].
	Path []string `json:"path"`

	// Members is the sorted unique member set, used for deduplication.
	Members []string `json:"members"`
}

// FindCycles searches the forward graph for import cycles by depth-first
// traversal from every node, recording the sub-path whenever a node already
// on the current path is revisited.
//
// Known limitation: the per-start-node visited sets make this search
// super-linear on densely connected graphs, and cycles reachable through
// multiple entry points can be missed or found more than once before
// deduplication. Tarjan's or Kosaraju's SCC algorithm would give O(V+E) and
// completeness, but it also changes the notion of a reported cycle from
// exact path to component member set, so it is left until that semantic is
// settled.
func FindCycles(g *Graph) []Cycle {
	var cycles []Cycle
	seen := make(map[string]bool)

	nodes := make([]string, 0, len(g.Forward))
	for n := range g.Forward {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	for _, start := range nodes {
		visited := make(map[string]bool)
		onPath := make(map[string]int)
		var path []string

		var visit func(node string)
		visit = func(node string) {
			if idx, ok := onPath[node]; ok {
				loop := append(append([]string{}, path[idx:]...), node)
				members := memberSet(loop)
				key := strings.Join(members, "\x00")
				if !seen[key] {
					seen[key] = true
					cycles = append(cycles, Cycle{Path: loop, Members: members})
				}
				return
			}
			if visited[node] {
				return
			}
			visited[node] = true
			onPath[node] = len(path)
			path = append(path, node)

			for _, next := range g.Forward[node] {
				visit(next)
			}

			path = path[:len(path)-1]
			delete(onPath, node)
		}

		visit(start)
	}

	return cycles
}

// memberSet returns the sorted unique members of a loop path.
func memberSet(loop []string) []string {
	uniq := make(map[string]bool, len(loop))
	for _, p := range loop {
		uniq[p] = true
	}
	members := make([]string, 0, len(uniq))
	for p := range uniq {
		members = append(members, p)
	}
	sort.Strings(members)
	return members
}
