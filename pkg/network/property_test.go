package network

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestGraphInvariants uses property-based testing to verify that random
// construction and edge mutation never break symmetry or the zero diagonal.
func TestGraphInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("random graphs are symmetric with zero diagonal", prop.ForAll(
		func(n int, p float64, seed uint64) bool {
			g, err := NewRandom(n, p, newTestRNG(seed))
			if err != nil {
				return false
			}
			return g.Validate() == nil
		},
		gen.IntRange(1, 40),
		gen.Float64Range(0, 1),
		gen.UInt64(),
	))

	properties.Property("degree sum is twice the edge count", prop.ForAll(
		func(n int, p float64, seed uint64) bool {
			g, err := NewRandom(n, p, newTestRNG(seed))
			if err != nil {
				return false
			}
			sum := 0
			for _, d := range g.Degrees() {
				sum += d
			}
			return sum == 2*g.EdgeCount()
		},
		gen.IntRange(1, 40),
		gen.Float64Range(0, 1),
		gen.UInt64(),
	))

	properties.Property("random swaps keep the graph valid", prop.ForAll(
		func(seed uint64, swaps int) bool {
			rng := newTestRNG(seed)
			g, err := NewRandom(20, 0.15, rng)
			if err != nil {
				return false
			}
			edges := g.EdgeCount()
			for i := 0; i < swaps; i++ {
				if _, err := RandomSwap(g, rng); err != nil {
					return edges == 0
				}
			}
			return g.Validate() == nil && g.EdgeCount() == edges
		},
		gen.UInt64(),
		gen.IntRange(1, 50),
	))

	properties.TestingRun(t)
}
