// Package evolution holds per-node rewiring strategies and the fitness they
// earn, and applies the generational elitist update.
package evolution

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/dd0wney/adapnet/pkg/algorithms"
	"github.com/dd0wney/adapnet/pkg/strategy"
)

var (
	// ErrEliteTooLarge is returned when the elite count exceeds half the population.
	ErrEliteTooLarge = errors.New("elite count exceeds half the population")

	// ErrStrategyCount is returned for a strategy count outside [2, strategy.Count].
	ErrStrategyCount = errors.New("strategy count out of range")

	// ErrSizeMismatch is returned when a distance matrix does not match the population.
	ErrSizeMismatch = errors.New("distance matrix size mismatch")
)

// Engine owns the strategy assignment and accumulated fitness of every node.
type Engine struct {
	strategies []strategy.Strategy
	fitness    []float64
	elite      int
	k          int
}

// GenerationReport describes one generational update.
type GenerationReport struct {
	// Replaced counts bottom-ranked nodes that copied an elite strategy.
	Replaced int
	// Mutated counts nodes whose strategy was changed by mutation.
	Mutated int
	// Shares holds the post-update strategy fractions.
	Shares [strategy.Count]float64
	// BestFitness and WorstFitness are taken before the reset.
	BestFitness  float64
	WorstFitness float64
}

// NewEngine assigns each of n nodes a strategy drawn uniformly from the
// first k strategies.
func NewEngine(n, k, elite int, rng *rand.Rand) (*Engine, error) {
	if k < 2 || k > strategy.Count {
		return nil, fmt.Errorf("k=%d: %w", k, ErrStrategyCount)
	}
	if elite < 0 || elite > n/2 {
		return nil, fmt.Errorf("elite=%d n=%d: %w", elite, n, ErrEliteTooLarge)
	}

	e := &Engine{
		strategies: make([]strategy.Strategy, n),
		fitness:    make([]float64, n),
		elite:      elite,
		k:          k,
	}
	for i := range e.strategies {
		e.strategies[i] = strategy.Random(rng, k)
	}
	return e, nil
}

// NewEngineWith wraps an explicit assignment. The slice is copied.
func NewEngineWith(assignments []strategy.Strategy, k, elite int) (*Engine, error) {
	if k < 2 || k > strategy.Count {
		return nil, fmt.Errorf("k=%d: %w", k, ErrStrategyCount)
	}
	if elite < 0 || elite > len(assignments)/2 {
		return nil, fmt.Errorf("elite=%d n=%d: %w", elite, len(assignments), ErrEliteTooLarge)
	}
	for i, s := range assignments {
		if int(s) < 0 || int(s) >= k {
			return nil, fmt.Errorf("node %d has strategy %d: %w", i, s, strategy.ErrUnknown)
		}
	}
	return &Engine{
		strategies: append([]strategy.Strategy(nil), assignments...),
		fitness:    make([]float64, len(assignments)),
		elite:      elite,
		k:          k,
	}, nil
}

// Size returns the number of nodes.
func (e *Engine) Size() int { return len(e.strategies) }

// Strategies returns the live assignment. Callers must not modify it.
func (e *Engine) Strategies() []strategy.Strategy { return e.strategies }

// Fitness returns the live fitness vector. Callers must not modify it.
func (e *Engine) Fitness() []float64 { return e.fitness }

// Shares returns the current per-strategy fractions.
func (e *Engine) Shares() [strategy.Count]float64 { return strategy.Shares(e.strategies) }

// Accrue adds every node's closeness under d to its fitness.
func (e *Engine) Accrue(d *algorithms.DistanceMatrix) error {
	if d.Size() != len(e.fitness) {
		return fmt.Errorf("matrix %d, population %d: %w", d.Size(), len(e.fitness), ErrSizeMismatch)
	}
	for i := range e.fitness {
		e.fitness[i] += algorithms.Closeness(i, d)
	}
	return nil
}

// Order returns node ids sorted by fitness descending; ties keep id order.
func (e *Engine) Order() []int {
	order := make([]int, len(e.fitness))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return e.fitness[order[a]] > e.fitness[order[b]]
	})
	return order
}

// Replicate copies the strategies of the top elite nodes onto the bottom
// elite nodes, pairing rank i with rank N-1-i. Donor strategies are read
// from a snapshot taken before any replacement.
func (e *Engine) Replicate(order []int) int {
	n := len(e.strategies)
	snapshot := append([]strategy.Strategy(nil), e.strategies...)
	for i := 0; i < e.elite; i++ {
		e.strategies[order[n-1-i]] = snapshot[order[i]]
	}
	return e.elite
}

// Mutate switches each node, with probability rate, to a different strategy
// drawn uniformly from the remaining k-1.
func (e *Engine) Mutate(rate float64, rng *rand.Rand) int {
	mutated := 0
	for i, s := range e.strategies {
		if rng.Float64() < rate {
			e.strategies[i] = strategy.RandomOther(rng, s, e.k)
			mutated++
		}
	}
	return mutated
}

// ResetFitness zeroes every node's fitness.
func (e *Engine) ResetFitness() {
	clear(e.fitness)
}

// Generation runs the full update: rank, replicate, mutate, reset.
func (e *Engine) Generation(mutationRate float64, rng *rand.Rand) GenerationReport {
	order := e.Order()

	var report GenerationReport
	if len(order) > 0 {
		report.BestFitness = e.fitness[order[0]]
		report.WorstFitness = e.fitness[order[len(order)-1]]
	}

	report.Replaced = e.Replicate(order)
	report.Mutated = e.Mutate(mutationRate, rng)
	e.ResetFitness()
	report.Shares = e.Shares()

	return report
}
