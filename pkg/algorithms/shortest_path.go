package algorithms

import (
	"errors"
	"fmt"
	"math"

	"github.com/dd0wney/adapnet/pkg/network"
	"github.com/dd0wney/adapnet/pkg/parallel"
)

// ErrNegativeDistance is reported when a distance matrix holds a negative entry.
var ErrNegativeDistance = errors.New("negative distance")

// DistanceMatrix holds all-pairs shortest-path costs in row-major order.
// Unreachable pairs are +Inf and the diagonal is 0.
type DistanceMatrix struct {
	n    int
	data []float64
}

// NewDistanceMatrix seeds a matrix from the graph: 0 on the diagonal, 1 for
// each edge and +Inf elsewhere.
func NewDistanceMatrix(g *network.Graph) *DistanceMatrix {
	n := g.Size()
	inf := math.Inf(1)
	data := make([]float64, n*n)
	for i := 0; i < n; i++ {
		base := i * n
		for j := 0; j < n; j++ {
			switch {
			case i == j:
				data[base+j] = 0
			case g.HasEdge(i, j):
				data[base+j] = 1
			default:
				data[base+j] = inf
			}
		}
	}
	return &DistanceMatrix{n: n, data: data}
}

// Size returns the matrix order.
func (d *DistanceMatrix) Size() int {
	return d.n
}

// At returns the distance from i to j.
func (d *DistanceMatrix) At(i, j int) float64 {
	return d.data[i*d.n+j]
}

// Reachable reports whether j can be reached from i.
func (d *DistanceMatrix) Reachable(i, j int) bool {
	return !math.IsInf(d.data[i*d.n+j], 1)
}

// Equal reports whether both matrices hold identical values.
func (d *DistanceMatrix) Equal(other *DistanceMatrix) bool {
	if other == nil || d.n != other.n {
		return false
	}
	for i, v := range d.data {
		if v != other.data[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (d *DistanceMatrix) Clone() *DistanceMatrix {
	data := make([]float64, len(d.data))
	copy(data, d.data)
	return &DistanceMatrix{n: d.n, data: data}
}

// Validate rejects negative entries and a non-zero diagonal.
func (d *DistanceMatrix) Validate() error {
	for i := 0; i < d.n; i++ {
		if d.data[i*d.n+i] != 0 {
			return &network.InvariantError{Op: "DistanceMatrix.Validate", Node: i, Other: i, Cause: network.ErrNonZeroDiagonal}
		}
		for j := 0; j < d.n; j++ {
			if d.data[i*d.n+j] < 0 {
				return &network.InvariantError{Op: "DistanceMatrix.Validate", Node: i, Other: j, Cause: ErrNegativeDistance}
			}
		}
	}
	return nil
}

// ComputeAllPairs runs Floyd–Warshall over the graph.
// Loop order is fixed (k → i → j); unreachable intermediates are skipped so
// +Inf never takes part in an addition.
// Time: O(n^3).
func ComputeAllPairs(g *network.Graph) *DistanceMatrix {
	d := NewDistanceMatrix(g)
	Relax(d)
	return d
}

// Relax applies the Floyd–Warshall closure to d in place. Running it on an
// already closed matrix leaves it unchanged.
func Relax(d *DistanceMatrix) {
	for k := 0; k < d.n; k++ {
		relaxRows(d, k, 0, d.n)
	}
}

// ComputeAllPairsParallel is ComputeAllPairs with rows fanned out across the
// pool for each intermediate k. For a fixed k neither row k nor column k
// changes, so rows are independent and the result equals the sequential run.
func ComputeAllPairsParallel(g *network.Graph, pool *parallel.WorkerPool) (*DistanceMatrix, error) {
	d := NewDistanceMatrix(g)
	if pool == nil || pool.Workers() <= 1 {
		Relax(d)
		return d, nil
	}
	for k := 0; k < d.n; k++ {
		k := k
		if err := pool.Range(d.n, func(lo, hi int) {
			relaxRows(d, k, lo, hi)
		}); err != nil {
			return nil, fmt.Errorf("floyd-warshall k=%d: %w", k, err)
		}
	}
	return d, nil
}

func relaxRows(d *DistanceMatrix, k, lo, hi int) {
	n := d.n
	data := d.data
	baseK := k * n
	for i := lo; i < hi; i++ {
		ik := data[i*n+k]
		if math.IsInf(ik, 1) {
			continue
		}
		baseI := i * n
		for j := 0; j < n; j++ {
			kj := data[baseK+j]
			if math.IsInf(kj, 1) {
				continue
			}
			if cand := ik + kj; cand < data[baseI+j] {
				data[baseI+j] = cand
			}
		}
	}
}
