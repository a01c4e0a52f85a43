package network

import (
	"math/rand/v2"
)

// Graph is an undirected simple graph over a fixed set of nodes 0..n-1,
// stored as a dense symmetric adjacency matrix.
//
// A Graph is owned by a single simulation run and is not safe for
// concurrent mutation.
type Graph struct {
	n   int
	adj []bool // row-major n*n
}

// Edge is an unordered node pair.
type Edge struct {
	A, B int
}

// New creates an empty graph with n nodes.
func New(n int) (*Graph, error) {
	if n <= 0 {
		return nil, ErrInvalidSize
	}
	return &Graph{n: n, adj: make([]bool, n*n)}, nil
}

// NewRandom creates a graph where every unordered pair is connected
// independently with probability p.
func NewRandom(n int, p float64, rng *rand.Rand) (*Graph, error) {
	g, err := New(n)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if rng.Float64() < p {
				g.link(i, j, true)
			}
		}
	}
	return g, nil
}

// FromEdges builds a graph from an explicit edge list.
func FromEdges(n int, edges []Edge) (*Graph, error) {
	g, err := New(n)
	if err != nil {
		return nil, err
	}
	for _, e := range edges {
		if err := g.checkPair("FromEdges", e.A, e.B); err != nil {
			return nil, err
		}
		g.link(e.A, e.B, true)
	}
	return g, nil
}

// Size returns the number of nodes.
func (g *Graph) Size() int {
	return g.n
}

// HasEdge reports whether i and j are adjacent. Panics on an out-of-range index.
func (g *Graph) HasEdge(i, j int) bool {
	g.mustNode("HasEdge", i)
	g.mustNode("HasEdge", j)
	return g.adj[i*g.n+j]
}

// SetEdge adds or removes the edge i–j, keeping the matrix symmetric.
// Panics on an out-of-range index or a self-loop.
func (g *Graph) SetEdge(i, j int, present bool) {
	if err := g.checkPair("SetEdge", i, j); err != nil {
		panic(err)
	}
	g.link(i, j, present)
}

// Degree returns the number of neighbors of i.
func (g *Graph) Degree(i int) int {
	g.mustNode("Degree", i)
	row := g.adj[i*g.n : (i+1)*g.n]
	d := 0
	for _, v := range row {
		if v {
			d++
		}
	}
	return d
}

// Degrees returns the degree of every node, indexed by node.
func (g *Graph) Degrees() []int {
	out := make([]int, g.n)
	for i := range out {
		out[i] = g.Degree(i)
	}
	return out
}

// Neighbors returns the neighbors of i in ascending order.
func (g *Graph) Neighbors(i int) []int {
	g.mustNode("Neighbors", i)
	out := make([]int, 0)
	for j := 0; j < g.n; j++ {
		if g.adj[i*g.n+j] {
			out = append(out, j)
		}
	}
	return out
}

// NonNeighbors returns every node other than i that is not adjacent to i,
// in ascending order.
func (g *Graph) NonNeighbors(i int) []int {
	g.mustNode("NonNeighbors", i)
	out := make([]int, 0)
	for j := 0; j < g.n; j++ {
		if j != i && !g.adj[i*g.n+j] {
			out = append(out, j)
		}
	}
	return out
}

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int {
	total := 0
	for _, v := range g.adj {
		if v {
			total++
		}
	}
	return total / 2
}

// Edges lists every edge once with A < B.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0)
	for i := 0; i < g.n; i++ {
		for j := i + 1; j < g.n; j++ {
			if g.adj[i*g.n+j] {
				out = append(out, Edge{A: i, B: j})
			}
		}
	}
	return out
}

// Clone returns a deep copy.
func (g *Graph) Clone() *Graph {
	adj := make([]bool, len(g.adj))
	copy(adj, g.adj)
	return &Graph{n: g.n, adj: adj}
}

// Validate checks the zero diagonal and symmetry invariants.
func (g *Graph) Validate() error {
	for i := 0; i < g.n; i++ {
		if g.adj[i*g.n+i] {
			return &InvariantError{Op: "Validate", Node: i, Other: i, Cause: ErrNonZeroDiagonal}
		}
		for j := i + 1; j < g.n; j++ {
			if g.adj[i*g.n+j] != g.adj[j*g.n+i] {
				return &InvariantError{Op: "Validate", Node: i, Other: j, Cause: ErrAsymmetric}
			}
		}
	}
	return nil
}

func (g *Graph) link(i, j int, present bool) {
	g.adj[i*g.n+j] = present
	g.adj[j*g.n+i] = present
}

func (g *Graph) checkPair(op string, i, j int) error {
	if i < 0 || i >= g.n {
		return &InvariantError{Op: op, Node: i, Other: j, Cause: ErrNodeOutOfRange}
	}
	if j < 0 || j >= g.n {
		return &InvariantError{Op: op, Node: i, Other: j, Cause: ErrNodeOutOfRange}
	}
	if i == j {
		return &InvariantError{Op: op, Node: i, Other: j, Cause: ErrSelfLoop}
	}
	return nil
}

func (g *Graph) mustNode(op string, i int) {
	if i < 0 || i >= g.n {
		panic(&InvariantError{Op: op, Node: i, Other: -1, Cause: ErrNodeOutOfRange})
	}
}
