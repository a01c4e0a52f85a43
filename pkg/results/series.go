// Package results holds the time series a run produces and the sinks that
// persist it.
package results

import (
	"errors"
	"fmt"
	"time"

	"github.com/dd0wney/adapnet/pkg/config"
	"github.com/dd0wney/adapnet/pkg/strategy"
)

// ErrShape is returned when a series' lengths disagree with its parameters.
var ErrShape = errors.New("series shape mismatch")

// Totals are run-wide event counts.
type Totals struct {
	Rewired        [strategy.Count]int `json:"rewired"`
	Exhausted      [strategy.Count]int `json:"exhausted"`
	Transmissions  int                 `json:"transmissions"`
	Recoveries     int                 `json:"recoveries"`
	Reseeds        int                 `json:"reseeds"`
	Swaps          int                 `json:"swaps"`
	SwapsExhausted int                 `json:"swaps_exhausted"`

	// Generations counts the generation boundaries the run reached.
	// Strategy samples above it hold the end-of-run shares.
	Generations int `json:"generations"`
}

// Series is everything a run emits.
type Series struct {
	RunID      string       `json:"run_id"`
	Seed       uint64       `json:"seed"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Params     config.Model `json:"params"`

	// Prevalence has one entry per step 0..T-1.
	Prevalence []float64 `json:"prevalence"`
	// Strategies[s] has one entry per generation 0..T/G.
	Strategies  [strategy.Count][]float64 `json:"strategies"`
	Steps       []int                     `json:"steps"`
	Generations []int                     `json:"generations"`

	Totals Totals `json:"totals"`
}

// NewSeries allocates a series sized for params with index vectors filled.
func NewSeries(runID string, seed uint64, params config.Model) *Series {
	gens := params.Generations()
	s := &Series{
		RunID:       runID,
		Seed:        seed,
		Params:      params,
		Prevalence:  make([]float64, params.Steps),
		Steps:       make([]int, params.Steps),
		Generations: make([]int, gens),
	}
	for i := range s.Steps {
		s.Steps[i] = i
	}
	for g := range s.Generations {
		s.Generations[g] = g
	}
	for k := range s.Strategies {
		s.Strategies[k] = make([]float64, gens)
	}
	return s
}

// SetShares records strategy fractions for generation g.
func (s *Series) SetShares(g int, shares [strategy.Count]float64) {
	for k, v := range shares {
		s.Strategies[k][g] = v
	}
}

// Shares returns the strategy fractions recorded for generation g.
func (s *Series) Shares(g int) [strategy.Count]float64 {
	var out [strategy.Count]float64
	for k := range out {
		out[k] = s.Strategies[k][g]
	}
	return out
}

// Validate checks that every vector matches the recorded parameters.
func (s *Series) Validate() error {
	t := s.Params.Steps
	if len(s.Prevalence) != t || len(s.Steps) != t {
		return fmt.Errorf("prevalence %d, steps %d, want %d: %w", len(s.Prevalence), len(s.Steps), t, ErrShape)
	}
	g := s.Params.Generations()
	if len(s.Generations) != g {
		return fmt.Errorf("generations %d, want %d: %w", len(s.Generations), g, ErrShape)
	}
	for k, v := range s.Strategies {
		if len(v) != g {
			return fmt.Errorf("strategy %s has %d samples, want %d: %w", strategy.Strategy(k), len(v), g, ErrShape)
		}
	}
	if s.Totals.Generations < 0 || s.Totals.Generations >= g {
		return fmt.Errorf("reached generation %d outside 0..%d: %w", s.Totals.Generations, g-1, ErrShape)
	}
	return nil
}

// Synthesized reports whether the strategy sample for generation g was
// filled from the end-of-run shares rather than recorded at a boundary.
func (s *Series) Synthesized(g int) bool {
	return g > s.Totals.Generations
}

// Duration returns the wall-clock length of the run.
func (s *Series) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
