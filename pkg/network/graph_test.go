package network

import (
	"errors"
	"math/rand/v2"
	"testing"
)

func newTestRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func TestNew_InvalidSize(t *testing.T) {
	for _, n := range []int{0, -1} {
		if _, err := New(n); !errors.Is(err, ErrInvalidSize) {
			t.Errorf("New(%d) error = %v, want ErrInvalidSize", n, err)
		}
	}
}

func TestSetEdge_Symmetric(t *testing.T) {
	g, err := New(4)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	g.SetEdge(0, 2, true)
	if !g.HasEdge(0, 2) || !g.HasEdge(2, 0) {
		t.Fatal("expected edge 0-2 in both directions")
	}
	if g.Degree(0) != 1 || g.Degree(2) != 1 {
		t.Errorf("degrees = %d,%d, want 1,1", g.Degree(0), g.Degree(2))
	}

	g.SetEdge(2, 0, false)
	if g.HasEdge(0, 2) || g.HasEdge(2, 0) {
		t.Fatal("expected edge 0-2 removed in both directions")
	}
	if g.EdgeCount() != 0 {
		t.Errorf("EdgeCount = %d, want 0", g.EdgeCount())
	}
}

func TestSetEdge_PanicsOnProgrammingErrors(t *testing.T) {
	tests := []struct {
		name  string
		i, j  int
		cause error
	}{
		{"self loop", 1, 1, ErrSelfLoop},
		{"negative", -1, 2, ErrNodeOutOfRange},
		{"too large", 0, 4, ErrNodeOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := New(4)
			defer func() {
				r := recover()
				if r == nil {
					t.Fatal("expected panic")
				}
				err, ok := r.(error)
				if !ok {
					t.Fatalf("panic value %v is not an error", r)
				}
				if !errors.Is(err, tt.cause) {
					t.Errorf("panic error = %v, want %v", err, tt.cause)
				}
				if !IsInvariantViolation(err) {
					t.Errorf("expected InvariantError, got %T", err)
				}
			}()
			g.SetEdge(tt.i, tt.j, true)
		})
	}
}

func TestHasEdge_PanicsOutOfRange(t *testing.T) {
	g, _ := New(3)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for HasEdge(0,-1)")
		}
	}()
	g.HasEdge(0, -1)
}

func TestFromEdges(t *testing.T) {
	g, err := FromEdges(4, []Edge{{0, 1}, {1, 2}, {2, 3}, {3, 0}})
	if err != nil {
		t.Fatalf("FromEdges failed: %v", err)
	}

	if g.EdgeCount() != 4 {
		t.Errorf("EdgeCount = %d, want 4", g.EdgeCount())
	}
	for i := 0; i < 4; i++ {
		if g.Degree(i) != 2 {
			t.Errorf("Degree(%d) = %d, want 2", i, g.Degree(i))
		}
	}

	if got := g.Neighbors(0); len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("Neighbors(0) = %v, want [1 3]", got)
	}
	if got := g.NonNeighbors(0); len(got) != 1 || got[0] != 2 {
		t.Errorf("NonNeighbors(0) = %v, want [2]", got)
	}

	if _, err := FromEdges(3, []Edge{{0, 0}}); !errors.Is(err, ErrSelfLoop) {
		t.Errorf("FromEdges self loop error = %v, want ErrSelfLoop", err)
	}
	if _, err := FromEdges(3, []Edge{{0, 3}}); !errors.Is(err, ErrNodeOutOfRange) {
		t.Errorf("FromEdges out of range error = %v, want ErrNodeOutOfRange", err)
	}
}

func TestNewRandom_Extremes(t *testing.T) {
	rng := newTestRNG(1)

	empty, err := NewRandom(10, 0, rng)
	if err != nil {
		t.Fatalf("NewRandom failed: %v", err)
	}
	if empty.EdgeCount() != 0 {
		t.Errorf("p=0 EdgeCount = %d, want 0", empty.EdgeCount())
	}

	full, err := NewRandom(10, 1, rng)
	if err != nil {
		t.Fatalf("NewRandom failed: %v", err)
	}
	if full.EdgeCount() != 45 {
		t.Errorf("p=1 EdgeCount = %d, want 45", full.EdgeCount())
	}
	if err := full.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestValidate_DetectsCorruption(t *testing.T) {
	g, _ := New(3)
	g.adj[0*3+1] = true // one direction only

	err := g.Validate()
	if !errors.Is(err, ErrAsymmetric) {
		t.Fatalf("Validate error = %v, want ErrAsymmetric", err)
	}

	h, _ := New(3)
	h.adj[2*3+2] = true
	if err := h.Validate(); !errors.Is(err, ErrNonZeroDiagonal) {
		t.Fatalf("Validate error = %v, want ErrNonZeroDiagonal", err)
	}
}

func TestClone_Independent(t *testing.T) {
	g, _ := FromEdges(3, []Edge{{0, 1}})
	c := g.Clone()
	c.SetEdge(1, 2, true)

	if g.HasEdge(1, 2) {
		t.Error("mutating the clone changed the original")
	}
	if len(g.Edges()) != 1 || len(c.Edges()) != 2 {
		t.Errorf("Edges = %v / %v", g.Edges(), c.Edges())
	}
}
