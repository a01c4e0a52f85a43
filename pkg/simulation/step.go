package simulation

import (
	"errors"
	"fmt"

	"github.com/dd0wney/adapnet/pkg/algorithms"
	"github.com/dd0wney/adapnet/pkg/epidemic"
	"github.com/dd0wney/adapnet/pkg/logging"
	"github.com/dd0wney/adapnet/pkg/metrics"
	"github.com/dd0wney/adapnet/pkg/network"
	"github.com/dd0wney/adapnet/pkg/pubsub"
	"github.com/dd0wney/adapnet/pkg/rewiring"
	"github.com/dd0wney/adapnet/pkg/strategy"
)

// Phase names used for timing metrics and debug logs.
const (
	PhaseFitness    = "fitness"
	PhaseGeneration = "generation"
	PhaseRankings   = "rankings"
	PhaseRewire     = "rewire"
	PhaseTransmit   = "transmit"
	PhaseRecover    = "recover"
	PhaseDistances  = "distances"
	PhaseRandomSwap = "random_swap"
	PhaseInvariants = "invariants"
)

// Step executes the next step of the run. The phase order is fixed:
// fitness accrual, generation boundary, rankings, rewiring, transmission,
// recovery, reseeding, distances, the long-range swap, rankings again.
func (r *Runner) Step() error {
	m := r.model
	if r.step >= m.Steps-1 {
		return ErrFinished
	}
	r.step++
	step := r.step

	var accrueErr error
	r.phase(PhaseFitness, func() {
		accrueErr = r.engine.Accrue(r.dist)
	})
	if accrueErr != nil {
		return fmt.Errorf("step %d: %w", step, accrueErr)
	}

	if step%m.GenerationLength == 0 {
		r.phase(PhaseGeneration, r.runGeneration)
	}

	r.phase(PhaseRankings, r.refreshRankings)

	var report rewiring.Report
	r.phase(PhaseRewire, func() {
		report = rewiring.Pass(r.graph, r.pop, r.engine.Strategies(), r.rankings, m.RewireRate, r.rng)
	})

	var transmitted int
	r.phase(PhaseTransmit, func() {
		transmitted = epidemic.Transmit(r.graph, r.pop, m.TransmissionRate, r.rng)
	})

	var infectious, recovered int
	r.phase(PhaseRecover, func() {
		infectious, recovered = epidemic.AdvanceAndRecover(r.pop, m.RecoveryDuration)
	})
	prevalence := r.pop.Prevalence()
	r.series.Prevalence[step] = prevalence

	reseeded := false
	if infectious == 0 {
		reseeded = true
		r.reseed()
	}

	var distErr error
	r.phase(PhaseDistances, func() {
		distErr = r.computeDistances()
	})
	if distErr != nil {
		return fmt.Errorf("step %d: %w", step, distErr)
	}

	swapped := false
	if r.rng.Float64() < m.RandomRewireProb {
		r.phase(PhaseRandomSwap, func() {
			swapped = r.randomSwap()
		})
	}

	r.phase(PhaseRankings, r.refreshRankings)

	if r.runtime.CheckInvariants {
		var checkErr error
		r.phase(PhaseInvariants, func() {
			checkErr = r.checkInvariants()
		})
		if checkErr != nil {
			return fmt.Errorf("step %d: %w", step, checkErr)
		}
	}

	r.recordStep(report, transmitted, recovered, prevalence, reseeded, swapped)
	return nil
}

// runGeneration applies selection and mutation and records the new shares.
func (r *Runner) runGeneration() {
	r.generation++
	rep := r.engine.Generation(r.model.MutationRate, r.rng)
	r.series.SetShares(r.generation, rep.Shares)
	r.series.Totals.Generations = r.generation

	labels := shareLabels(rep.Shares)
	r.metrics.RecordGeneration(labels, rep.BestFitness)
	r.logger.Info("generation complete",
		logging.Step(r.step),
		logging.Generation(r.generation),
		logging.Int("replaced", rep.Replaced),
		logging.Int("mutated", rep.Mutated),
		logging.Float64("best_fitness", rep.BestFitness),
		logging.Float64("worst_fitness", rep.WorstFitness),
		logging.Any("shares", labels),
	)
	r.publisher.Publish(pubsub.Event{
		Kind:        pubsub.KindGeneration,
		RunID:       r.series.RunID,
		Time:        r.now(),
		Step:        r.step,
		TotalSteps:  r.model.Steps,
		Generation:  r.generation,
		Shares:      sharesSlice(rep.Shares),
		BestFitness: rep.BestFitness,
	})
}

// reseed infects fresh nodes once the epidemic has died out.
func (r *Runner) reseed() {
	seeded, err := epidemic.Seed(r.pop, r.model.SeedCount, r.rng)
	r.series.Totals.Reseeds++
	r.metrics.RecordReseed()
	if err != nil {
		r.logger.Warn("reseed short of target",
			logging.Step(r.step),
			logging.Count(seeded),
			logging.Error(err),
		)
		return
	}
	r.logger.Debug("epidemic reseeded", logging.Step(r.step), logging.Count(seeded))
}

// randomSwap performs the long-range edge relocation and reports whether an
// edge moved.
func (r *Runner) randomSwap() bool {
	sw, err := network.RandomSwap(r.graph, r.rng)
	if err != nil {
		r.series.Totals.SwapsExhausted++
		r.metrics.RecordRandomSwap(false)
		r.logger.Debug("random swap skipped", logging.Step(r.step), logging.Error(err))
		return false
	}
	r.series.Totals.Swaps++
	r.metrics.RecordRandomSwap(true)
	r.logger.Debug("random swap",
		logging.Step(r.step),
		logging.Node(sw.Node),
		logging.Int("from", sw.From),
		logging.Int("to", sw.To),
	)
	return true
}

func (r *Runner) refreshRankings() {
	r.rankings = algorithms.ComputeRankings(r.graph, r.dist)
}

// computeDistances recomputes all-pairs distances, fanning rows across the
// pool when one is configured.
func (r *Runner) computeDistances() error {
	if r.pool == nil {
		r.dist = algorithms.ComputeAllPairs(r.graph)
		return nil
	}
	d, err := algorithms.ComputeAllPairsParallel(r.graph, r.pool)
	if err != nil {
		return fmt.Errorf("distances: %w", err)
	}
	r.dist = d
	return nil
}

// checkInvariants validates adjacency, infection state and distances.
func (r *Runner) checkInvariants() error {
	err := errors.Join(
		r.graph.Validate(),
		r.pop.Validate(r.model.RecoveryDuration),
		r.dist.Validate(),
	)
	r.metrics.RecordInvariantCheck(err == nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvariant, err)
	}
	return nil
}

func (r *Runner) recordStep(report rewiring.Report, transmitted, recovered int, prevalence float64, reseeded, swapped bool) {
	totals := &r.series.Totals
	totals.Transmissions += transmitted
	totals.Recoveries += recovered
	for k := range strategy.Count {
		totals.Rewired[k] += report.Rewired[k]
		totals.Exhausted[k] += report.Exhausted[k]
		if report.Rewired[k] > 0 || report.Exhausted[k] > 0 {
			r.metrics.RecordRewires(strategy.Strategy(k).String(), report.Rewired[k], report.Exhausted[k])
		}
	}

	infectious := r.pop.InfectiousCount()
	edges := r.graph.EdgeCount()
	r.metrics.RecordStep(metrics.StepStats{
		Step:          r.step,
		Prevalence:    prevalence,
		Infectious:    infectious,
		Transmissions: transmitted,
		Recoveries:    recovered,
		Edges:         edges,
	})

	if exhausted := report.TotalExhausted(); exhausted > 0 {
		r.logger.Debug("rewire targets exhausted", logging.Step(r.step), logging.Count(exhausted))
	}

	r.publisher.Publish(pubsub.Event{
		Kind:       pubsub.KindStep,
		RunID:      r.series.RunID,
		Time:       r.now(),
		Step:       r.step,
		TotalSteps: r.model.Steps,
		Prevalence: prevalence,
		Infectious: infectious,
		Edges:      edges,
		Rewired:    report.TotalRewired(),
		Exhausted:  report.TotalExhausted(),
		Reseeded:   reseeded,
		Swapped:    swapped,
		Generation: r.generation,
	})
}

// phase runs fn and records its wall time under name.
func (r *Runner) phase(name string, fn func()) {
	timer := logging.StartTimer(r.logger, "phase", logging.Phase(name), logging.Int("step", r.step))
	fn()
	r.metrics.RecordPhase(name, timer.EndWithLevel(logging.DebugLevel))
}

func shareLabels(shares [strategy.Count]float64) map[string]float64 {
	out := make(map[string]float64, strategy.Count)
	for k, v := range shares {
		out[strategy.Strategy(k).String()] = v
	}
	return out
}

func sharesSlice(shares [strategy.Count]float64) []float64 {
	out := make([]float64, strategy.Count)
	copy(out, shares[:])
	return out
}
