package algorithms

import (
	"math"
	"testing"

	"github.com/dd0wney/adapnet/pkg/network"
)

// TestCloseness_Star tests closeness on a star with an isolated node
func TestCloseness_Star(t *testing.T) {
	// Hub 0 linked to 1,2,3; node 4 isolated
	g, err := network.FromEdges(5, []network.Edge{{A: 0, B: 1}, {A: 0, B: 2}, {A: 0, B: 3}})
	if err != nil {
		t.Fatalf("FromEdges failed: %v", err)
	}
	d := ComputeAllPairs(g)

	tests := []struct {
		node int
		want float64
	}{
		{0, 3},             // three neighbors at distance 1
		{1, 1 + 0.5 + 0.5}, // hub at 1, two leaves at 2
		{4, 0},             // isolated
	}

	for _, tt := range tests {
		if got := Closeness(tt.node, d); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Closeness(%d) = %v, want %v", tt.node, got, tt.want)
		}
	}
}

// TestRankByDegree_StableTies tests descending order with node-ID tie-break
func TestRankByDegree_StableTies(t *testing.T) {
	// Degrees: 0→1, 1→3, 2→1, 3→2, 4→1
	g, err := network.FromEdges(5, []network.Edge{{A: 1, B: 0}, {A: 1, B: 2}, {A: 1, B: 3}, {A: 3, B: 4}})
	if err != nil {
		t.Fatalf("FromEdges failed: %v", err)
	}

	ranked := RankByDegree(g)
	wantOrder := []int{1, 3, 0, 2, 4}
	for i, id := range wantOrder {
		if ranked[i].NodeID != id {
			t.Fatalf("rank %d = node %d, want %d (full: %v)", i, ranked[i].NodeID, id, ranked)
		}
	}
	if ranked[0].Score != 3 {
		t.Errorf("top score = %v, want 3", ranked[0].Score)
	}
}

// TestRankByCloseness_Cycle tests that a vertex-transitive graph keeps ID order
func TestRankByCloseness_Cycle(t *testing.T) {
	g, _ := network.FromEdges(4, []network.Edge{{A: 0, B: 1}, {A: 1, B: 2}, {A: 2, B: 3}, {A: 3, B: 0}})
	ranked := RankByCloseness(ComputeAllPairs(g))

	for i, r := range ranked {
		if r.NodeID != i {
			t.Errorf("rank %d = node %d, want %d", i, r.NodeID, i)
		}
		if r.Score != 2.5 {
			t.Errorf("node %d closeness = %v, want 2.5", r.NodeID, r.Score)
		}
	}
}

func TestComputeRankings_TracksGraphChanges(t *testing.T) {
	g, _ := network.FromEdges(4, []network.Edge{{A: 0, B: 1}})
	before := ComputeRankings(g, ComputeAllPairs(g))
	if before.ByDegree[0].NodeID != 0 {
		t.Fatalf("top degree node = %d, want 0", before.ByDegree[0].NodeID)
	}

	g.SetEdge(2, 3, true)
	g.SetEdge(3, 1, true)
	after := ComputeRankings(g, ComputeAllPairs(g))
	if after.ByDegree[0].NodeID != 1 {
		t.Errorf("top degree node after rewiring = %d, want 1", after.ByDegree[0].NodeID)
	}
	if len(after.ByCloseness) != 4 {
		t.Errorf("closeness ranking has %d entries, want 4", len(after.ByCloseness))
	}
}
