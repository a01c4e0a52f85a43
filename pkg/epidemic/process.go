package epidemic

import (
	"fmt"
	"math/rand/v2"

	"github.com/dd0wney/adapnet/pkg/network"
)

// Seed infects count distinct Susceptible nodes chosen uniformly at random,
// each with duration 1. When fewer than count nodes are Susceptible, all of
// them are infected and ErrExhaustedSearch is returned alongside the number
// actually seeded.
func Seed(pop *Population, count int, rng *rand.Rand) (int, error) {
	candidates := make([]int, 0, pop.Size())
	for i := range pop.Status {
		if pop.IsSusceptible(i) {
			candidates = append(candidates, i)
		}
	}

	seeded := 0
	for seeded < count && len(candidates) > 0 {
		k := rng.IntN(len(candidates))
		pop.Infect(candidates[k], 1)
		candidates[k] = candidates[len(candidates)-1]
		candidates = candidates[:len(candidates)-1]
		seeded++
	}

	if seeded < count {
		return seeded, fmt.Errorf("seeded %d of %d: %w", seeded, count, network.ErrExhaustedSearch)
	}
	return seeded, nil
}

// Transmit lets every Infectious node with duration > 0 infect each
// Susceptible neighbor with probability rate. Newly infected nodes get
// duration 0, so they do not transmit again within the same pass.
// Returns the number of new infections.
func Transmit(g *network.Graph, pop *Population, rate float64, rng *rand.Rand) int {
	infected := 0
	n := pop.Size()
	for i := 0; i < n; i++ {
		if !pop.IsInfectious(i) || pop.Duration[i] == 0 {
			continue
		}
		for j := 0; j < n; j++ {
			if j == i || !g.HasEdge(i, j) || !pop.IsSusceptible(j) {
				continue
			}
			if rng.Float64() < rate {
				pop.Infect(j, 0)
				infected++
			}
		}
	}
	return infected
}

// AdvanceAndRecover increments every Infectious duration; nodes whose duration
// exceeds recovery return to Susceptible with duration 0. Returns the
// post-recovery infectious count and the number of recoveries.
func AdvanceAndRecover(pop *Population, recovery int) (infectious, recovered int) {
	for i := range pop.Status {
		if !pop.IsInfectious(i) {
			continue
		}
		pop.Duration[i]++
		if pop.Duration[i] > recovery {
			pop.Status[i] = Susceptible
			pop.Duration[i] = 0
			recovered++
			continue
		}
		infectious++
	}
	return infectious, recovered
}
