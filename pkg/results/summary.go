package results

import (
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/dd0wney/adapnet/pkg/strategy"
)

// Summary condenses a series into headline numbers.
type Summary struct {
	RunID            string                  `json:"run_id"`
	Steps            int                     `json:"steps"`
	MeanPrevalence   float64                 `json:"mean_prevalence"`
	StdPrevalence    float64                 `json:"std_prevalence"`
	MedianPrevalence float64                 `json:"median_prevalence"`
	PeakPrevalence   float64                 `json:"peak_prevalence"`
	PeakStep         int                     `json:"peak_step"`
	FinalPrevalence  float64                 `json:"final_prevalence"`
	FinalShares      [strategy.Count]float64 `json:"final_shares"`
	Dominant         strategy.Strategy       `json:"-"`
	DominantName     string                  `json:"dominant"`
	TotalRewired     int                     `json:"total_rewired"`
	TotalExhausted   int                     `json:"total_exhausted"`
	Reseeds          int                     `json:"reseeds"`
	Swaps            int                     `json:"swaps"`
}

// Summarize computes a Summary. Prevalence statistics are taken over every
// recorded step.
func Summarize(s *Series) Summary {
	sum := Summary{
		RunID:   s.RunID,
		Steps:   len(s.Prevalence),
		Reseeds: s.Totals.Reseeds,
		Swaps:   s.Totals.Swaps,
	}
	for k := range s.Totals.Rewired {
		sum.TotalRewired += s.Totals.Rewired[k]
		sum.TotalExhausted += s.Totals.Exhausted[k]
	}

	if n := len(s.Prevalence); n > 0 {
		sum.MeanPrevalence, sum.StdPrevalence = stat.MeanStdDev(s.Prevalence, nil)
		if n == 1 {
			sum.StdPrevalence = 0
		}
		sorted := slices.Clone(s.Prevalence)
		slices.Sort(sorted)
		sum.MedianPrevalence = stat.Quantile(0.5, stat.Empirical, sorted, nil)

		sum.PeakStep = 0
		for i, v := range s.Prevalence {
			if v > s.Prevalence[sum.PeakStep] {
				sum.PeakStep = i
			}
		}
		sum.PeakPrevalence = s.Prevalence[sum.PeakStep]
		sum.FinalPrevalence = s.Prevalence[n-1]
	}

	if g := len(s.Generations); g > 0 {
		sum.FinalShares = s.Shares(g - 1)
		best := 0
		for k, v := range sum.FinalShares {
			if v > sum.FinalShares[best] {
				best = k
			}
		}
		sum.Dominant = strategy.Strategy(best)
	}
	sum.DominantName = sum.Dominant.String()

	return sum
}
