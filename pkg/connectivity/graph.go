package connectivity

import "sort"

// Class is one set of ports joined by copper.
type Class struct {
	ID    int      `json:"id" yaml:"id"`
	Ports []string `json:"ports" yaml:"ports"`
}

// Graph tracks which ports are electrically joined using a union-find data
// structure keyed by port id.
type Graph struct {
	// Union-find data structures
	parent map[string]string // Maps port id to parent port id
	rank   map[string]int    // Rank for union-by-rank optimization

	order []string // Ports in insertion order
}

// NewGraph creates a graph in which every port starts in its own class.
func NewGraph(ids []string) *Graph {
	g := &Graph{
		parent: make(map[string]string, len(ids)),
		rank:   make(map[string]int, len(ids)),
	}
	for _, id := range ids {
		g.Add(id)
	}
	return g
}

// Add inserts an isolated port. It reports false if the port already exists.
func (g *Graph) Add(id string) bool {
	if _, ok := g.parent[id]; ok {
		return false
	}
	g.parent[id] = id
	g.rank[id] = 0
	g.order = append(g.order, id)
	return true
}

// Has reports whether the port is part of the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.parent[id]
	return ok
}

// Len returns the number of ports in the graph.
func (g *Graph) Len() int {
	return len(g.order)
}

// Connect marks two ports as electrically joined, merging their classes.
// Unknown ports are ignored. It reports whether two distinct classes merged.
func (g *Graph) Connect(a, b string) bool {
	rootA, okA := g.Find(a)
	rootB, okB := g.Find(b)
	if !okA || !okB || rootA == rootB {
		return false
	}

	// Union by rank
	switch {
	case g.rank[rootA] < g.rank[rootB]:
		g.parent[rootA] = rootB
	case g.rank[rootA] > g.rank[rootB]:
		g.parent[rootB] = rootA
	default:
		g.parent[rootB] = rootA
		g.rank[rootA]++
	}
	return true
}

// Find returns the representative port of the class containing id.
// Uses path compression for O(α(n)) amortized time complexity.
func (g *Graph) Find(id string) (string, bool) {
	if _, ok := g.parent[id]; !ok {
		return "", false
	}

	root := id
	for g.parent[root] != root {
		root = g.parent[root]
	}

	// Path compression: make all nodes on the path point directly to root
	current := id
	for current != root {
		next := g.parent[current]
		g.parent[current] = root
		current = next
	}

	return root, true
}

// Connected reports whether both ports exist and share a class.
func (g *Graph) Connected(a, b string) bool {
	rootA, okA := g.Find(a)
	rootB, okB := g.Find(b)
	return okA && okB && rootA == rootB
}

// Classes returns every class with two or more ports. Ports inside a class are
// sorted; classes are ordered by the insertion order of their first port.
func (g *Graph) Classes() []Class {
	members := make(map[string][]string)
	var roots []string
	for _, id := range g.order {
		root, _ := g.Find(id)
		if _, seen := members[root]; !seen {
			roots = append(roots, root)
		}
		members[root] = append(members[root], id)
	}

	classes := make([]Class, 0, len(roots))
	for _, root := range roots {
		ports := members[root]
		// Single-port classes are not nets
		if len(ports) < 2 {
			continue
		}
		sort.Strings(ports)
		classes = append(classes, Class{ID: len(classes), Ports: ports})
	}
	return classes
}

// Clone creates a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	clone := &Graph{
		parent: make(map[string]string, len(g.parent)),
		rank:   make(map[string]int, len(g.rank)),
		order:  make([]string, len(g.order)),
	}
	for k, v := range g.parent {
		clone.parent[k] = v
	}
	for k, v := range g.rank {
		clone.rank[k] = v
	}
	copy(clone.order, g.order)
	return clone
}
