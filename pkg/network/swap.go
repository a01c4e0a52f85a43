package network

import (
	"math/rand/v2"
)

// Swap records a long-range edge relocation: the edge Node–From was moved to Node–To.
type Swap struct {
	Node int
	From int
	To   int
}

// RandomSwap relocates one existing edge to a uniformly chosen unconnected
// node, leaving the edge count unchanged.
//
// Preconditions are checked up front instead of by retry:
//   - Node is drawn among nodes with 0 < degree < n-1
//   - To is drawn among Node's non-neighbors (never Node itself)
//   - From is drawn among Node's current neighbors
//
// Returns ErrExhaustedSearch when no node satisfies the degree condition.
func RandomSwap(g *Graph, rng *rand.Rand) (Swap, error) {
	candidates := make([]int, 0, g.n)
	for i := 0; i < g.n; i++ {
		d := g.Degree(i)
		if d > 0 && d < g.n-1 {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return Swap{}, ErrExhaustedSearch
	}

	n1 := candidates[rng.IntN(len(candidates))]
	free := g.NonNeighbors(n1)
	linked := g.Neighbors(n1)
	n2 := free[rng.IntN(len(free))]
	n3 := linked[rng.IntN(len(linked))]

	g.SetEdge(n1, n3, false)
	g.SetEdge(n1, n2, true)

	return Swap{Node: n1, From: n3, To: n2}, nil
}
