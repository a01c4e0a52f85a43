package rewiring

import (
	"fmt"
	"math/rand/v2"

	"github.com/dd0wney/adapnet/pkg/algorithms"
	"github.com/dd0wney/adapnet/pkg/epidemic"
	"github.com/dd0wney/adapnet/pkg/network"
	"github.com/dd0wney/adapnet/pkg/strategy"
)

// Report summarises one rewiring pass.
type Report struct {
	// Attempts counts (node, infectious neighbor) pairs that won the rewire coin flip.
	Attempts int
	// Rewired counts attempts that formed a replacement edge, by strategy.
	Rewired [strategy.Count]int
	// Exhausted counts attempts whose strategy found no eligible target, by
	// strategy. The old edge is dropped in that case too.
	Exhausted [strategy.Count]int
}

// TotalRewired returns the number of replacement edges formed.
func (r Report) TotalRewired() int {
	total := 0
	for _, v := range r.Rewired {
		total += v
	}
	return total
}

// TotalExhausted returns the number of attempts without a replacement edge.
func (r Report) TotalExhausted() int {
	total := 0
	for _, v := range r.Exhausted {
		total += v
	}
	return total
}

// Pass runs one rewiring sweep. Every Susceptible node i looks at each
// neighbor j that is Infectious (duration > 0) in ascending j order; with
// probability rate it drops i–j and tries to add one edge chosen by its
// strategy. Rankings are the snapshot taken before this sweep started.
func Pass(
	g *network.Graph,
	pop *epidemic.Population,
	assignments []strategy.Strategy,
	rankings algorithms.Rankings,
	rate float64,
	rng *rand.Rand,
) Report {
	var report Report
	n := g.Size()

	for i := 0; i < n; i++ {
		if !pop.IsSusceptible(i) {
			continue
		}
		for j := 0; j < n; j++ {
			if j == i || !g.HasEdge(i, j) || !pop.IsInfectious(j) || pop.Duration[j] == 0 {
				continue
			}
			if rng.Float64() >= rate {
				continue
			}

			report.Attempts++
			s := assignments[i]
			target, err := ChooseTarget(s, i, g, pop, rankings, rng)

			g.SetEdge(i, j, false)
			if err != nil {
				report.Exhausted[s]++
				continue
			}
			g.SetEdge(i, target, true)
			report.Rewired[s]++
		}
	}

	return report
}

// ChooseTarget returns the node that i connects to under strategy s, or
// ErrExhaustedSearch when no node qualifies. A target qualifies when it is
// not i, not already adjacent to i and not Infectious.
func ChooseTarget(
	s strategy.Strategy,
	i int,
	g *network.Graph,
	pop *epidemic.Population,
	rankings algorithms.Rankings,
	rng *rand.Rand,
) (int, error) {
	eligible := func(k int) bool {
		return k != i && !g.HasEdge(i, k) && !pop.IsInfectious(k)
	}

	switch s {
	case strategy.RandomTarget:
		return randomTarget(g.Size(), eligible, rng)
	case strategy.HighestDegreeTarget:
		return scanFromTop(rankings.ByDegree, eligible)
	case strategy.LowestDegreeTarget:
		return scanFromBottom(rankings.ByDegree, eligible)
	case strategy.HighestCentralityTarget:
		return scanFromTop(rankings.ByCloseness, eligible)
	case strategy.LowestCentralityTarget:
		return scanFromBottom(rankings.ByCloseness, eligible)
	default:
		panic(fmt.Sprintf("rewiring: unhandled %v", s))
	}
}

func randomTarget(n int, eligible func(int) bool, rng *rand.Rand) (int, error) {
	candidates := make([]int, 0, n)
	for k := 0; k < n; k++ {
		if eligible(k) {
			candidates = append(candidates, k)
		}
	}
	if len(candidates) == 0 {
		return -1, network.ErrExhaustedSearch
	}
	return candidates[rng.IntN(len(candidates))], nil
}

func scanFromTop(ranking []algorithms.RankedNode, eligible func(int) bool) (int, error) {
	for _, r := range ranking {
		if eligible(r.NodeID) {
			return r.NodeID, nil
		}
	}
	return -1, network.ErrExhaustedSearch
}

func scanFromBottom(ranking []algorithms.RankedNode, eligible func(int) bool) (int, error) {
	for k := len(ranking) - 1; k >= 0; k-- {
		if eligible(ranking[k].NodeID) {
			return ranking[k].NodeID, nil
		}
	}
	return -1, network.ErrExhaustedSearch
}
