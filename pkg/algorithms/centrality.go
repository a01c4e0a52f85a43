package algorithms

import (
	"sort"

	"github.com/dd0wney/adapnet/pkg/network"
)

// RankedNode represents a node with its rank score
type RankedNode struct {
	NodeID int
	Score  float64
}

// Closeness returns the sum of reciprocal distances from i to every other
// node it can reach. Unreachable and self pairs contribute nothing, so an
// isolated node scores 0.
func Closeness(i int, d *DistanceMatrix) float64 {
	total := 0.0
	row := d.data[i*d.n : (i+1)*d.n]
	for j, dist := range row {
		if j == i || dist == 0 || !d.Reachable(i, j) {
			continue
		}
		total += 1 / dist
	}
	return total
}

// ClosenessAll returns Closeness for every node, indexed by node.
func ClosenessAll(d *DistanceMatrix) []float64 {
	out := make([]float64, d.n)
	for i := range out {
		out[i] = Closeness(i, d)
	}
	return out
}

// RankByDegree orders nodes by degree, highest first. Ties keep ascending
// node ID order.
func RankByDegree(g *network.Graph) []RankedNode {
	degrees := g.Degrees()
	scores := make([]float64, len(degrees))
	for i, deg := range degrees {
		scores[i] = float64(deg)
	}
	return rankDescending(scores)
}

// RankByCloseness orders nodes by closeness centrality, highest first. Ties
// keep ascending node ID order.
func RankByCloseness(d *DistanceMatrix) []RankedNode {
	return rankDescending(ClosenessAll(d))
}

func rankDescending(scores []float64) []RankedNode {
	ranked := make([]RankedNode, len(scores))
	for i, s := range scores {
		ranked[i] = RankedNode{NodeID: i, Score: s}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].Score > ranked[b].Score
	})
	return ranked
}

// Rankings is the ranking snapshot consumed by the rewiring strategies.
type Rankings struct {
	ByDegree    []RankedNode
	ByCloseness []RankedNode
}

// ComputeRankings ranks the current graph by degree and the current distance
// matrix by closeness.
func ComputeRankings(g *network.Graph, d *DistanceMatrix) Rankings {
	return Rankings{
		ByDegree:    RankByDegree(g),
		ByCloseness: RankByCloseness(d),
	}
}
