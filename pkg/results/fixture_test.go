package results

import (
	"time"

	"github.com/dd0wney/adapnet/pkg/config"
	"github.com/dd0wney/adapnet/pkg/strategy"
)

// fixture returns a three-step, two-generation series.
func fixture() *Series {
	params := config.Default().Model
	params.Nodes = 10
	params.Steps = 3
	params.GenerationLength = 2
	params.EliteCount = 2

	s := NewSeries("run-1", 12345678901234567890, params)
	s.StartedAt = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	s.FinishedAt = s.StartedAt.Add(1500 * time.Millisecond)
	copy(s.Prevalence, []float64{0.5, 0.25, 0.125})
	s.SetShares(0, [strategy.Count]float64{0.2, 0.2, 0.2, 0.2, 0.2})
	s.SetShares(1, [strategy.Count]float64{0.1, 0.5, 0, 0.4, 0})
	s.Totals.Rewired[strategy.HighestDegreeTarget] = 4
	s.Totals.Exhausted[strategy.RandomTarget] = 1
	s.Totals.Reseeds = 1
	s.Totals.Swaps = 2
	s.Totals.Generations = 1
	return s
}
