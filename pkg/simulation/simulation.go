// Package simulation drives one run of the adaptive-network epidemic: the
// graph, the infection state and the strategy population advance together
// step by step, and the recorded series is handed to a sink at the end.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/adapnet/pkg/algorithms"
	"github.com/dd0wney/adapnet/pkg/config"
	"github.com/dd0wney/adapnet/pkg/epidemic"
	"github.com/dd0wney/adapnet/pkg/evolution"
	"github.com/dd0wney/adapnet/pkg/logging"
	"github.com/dd0wney/adapnet/pkg/metrics"
	"github.com/dd0wney/adapnet/pkg/network"
	"github.com/dd0wney/adapnet/pkg/parallel"
	"github.com/dd0wney/adapnet/pkg/pubsub"
	"github.com/dd0wney/adapnet/pkg/results"
)

var (
	// ErrFinished is returned by Step once every step of the run has executed.
	ErrFinished = errors.New("simulation finished")

	// ErrInvariant wraps a failed per-step consistency check.
	ErrInvariant = errors.New("invariant check failed")

	// ErrEmit wraps a sink failure after a completed run.
	ErrEmit = errors.New("emit results")
)

// Run status labels used for metrics and the run_finished event.
const (
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusFailed    = "failed"
)

// pcgStream is the second PCG word; the first is the run seed.
const pcgStream = 0x9e3779b97f4a7c15

// Deps are the collaborators of a run. Every field is optional.
type Deps struct {
	Logger    logging.Logger
	Metrics   *metrics.Registry
	Publisher pubsub.Publisher
	Sink      results.Sink
	// RunID overrides the generated run identifier.
	RunID string
	// Now overrides the clock used for timestamps and seed derivation.
	Now func() time.Time
}

// Runner owns all state of a single run. It is not safe for concurrent use.
type Runner struct {
	model   config.Model
	runtime config.Runtime

	logger    logging.Logger
	metrics   *metrics.Registry
	publisher pubsub.Publisher
	sink      results.Sink
	now       func() time.Time

	seed uint64
	rng  *rand.Rand
	pool *parallel.WorkerPool

	graph    *network.Graph
	pop      *epidemic.Population
	engine   *evolution.Engine
	dist     *algorithms.DistanceMatrix
	rankings algorithms.Rankings

	series     *results.Series
	step       int
	generation int
	started    time.Time
}

// NewRNG returns the PCG generator a run with this seed uses.
func NewRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^pcgStream))
}

// New validates cfg and builds the initial state: random graph, random
// strategies, seeded infections, distances, rankings, and the step-0 and
// generation-0 entries of the series.
func New(cfg config.Config, deps Deps) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Runner{
		model:     cfg.Model,
		runtime:   cfg.Runtime,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
		publisher: deps.Publisher,
		sink:      deps.Sink,
		now:       deps.Now,
	}
	if r.logger == nil {
		r.logger = logging.NewNopLogger()
	}
	if r.publisher == nil {
		r.publisher = pubsub.NopPublisher{}
	}
	if r.now == nil {
		r.now = time.Now
	}

	r.seed = cfg.Runtime.Seed
	if r.seed == 0 {
		r.seed = uint64(r.now().UnixNano())
		if r.seed == 0 {
			r.seed = 1
		}
	}
	r.rng = NewRNG(r.seed)

	runID := deps.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	r.logger = r.logger.With(logging.Component("simulation"), logging.RunID(runID))

	if cfg.Runtime.Workers > 1 {
		pool, err := parallel.NewWorkerPool(cfg.Runtime.Workers)
		if err != nil {
			return nil, fmt.Errorf("worker pool: %w", err)
		}
		r.pool = pool
	}

	if err := r.init(runID); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *Runner) init(runID string) error {
	m := r.model

	g, err := network.NewRandom(m.Nodes, m.EdgeProbability, r.rng)
	if err != nil {
		return fmt.Errorf("initial graph: %w", err)
	}
	r.graph = g

	engine, err := evolution.NewEngine(m.Nodes, m.Strategies, m.EliteCount, r.rng)
	if err != nil {
		return fmt.Errorf("strategies: %w", err)
	}
	r.engine = engine

	r.pop = epidemic.NewPopulation(m.Nodes)
	if _, err := epidemic.Seed(r.pop, m.SeedCount, r.rng); err != nil {
		return fmt.Errorf("initial seed: %w", err)
	}

	if err := r.computeDistances(); err != nil {
		return err
	}
	r.rankings = algorithms.ComputeRankings(r.graph, r.dist)

	r.started = r.now()
	r.series = results.NewSeries(runID, r.seed, m)
	r.series.StartedAt = r.started
	r.series.Prevalence[0] = r.pop.Prevalence()
	r.series.SetShares(0, r.engine.Shares())

	if r.runtime.CheckInvariants {
		if err := r.checkInvariants(); err != nil {
			return err
		}
	}
	return nil
}

// Seed returns the effective RNG seed.
func (r *Runner) Seed() uint64 { return r.seed }

// RunID returns the identifier stamped on the series.
func (r *Runner) RunID() string { return r.series.RunID }

// Graph returns the live contact network.
func (r *Runner) Graph() *network.Graph { return r.graph }

// Population returns the live infection state.
func (r *Runner) Population() *epidemic.Population { return r.pop }

// Engine returns the live strategy population.
func (r *Runner) Engine() *evolution.Engine { return r.engine }

// Distances returns the distance matrix computed at the end of the last step.
func (r *Runner) Distances() *algorithms.DistanceMatrix { return r.dist }

// Series returns the series recorded so far.
func (r *Runner) Series() *results.Series { return r.series }

// StepIndex returns the last executed step; 0 before the first call to Step.
func (r *Runner) StepIndex() int { return r.step }

// Close releases the worker pool.
func (r *Runner) Close() {
	if r.pool != nil {
		r.pool.Close()
		r.pool = nil
	}
}

// Run executes steps 1..T-1, completes the series and writes it to the sink.
// A cancelled context stops the loop between steps and nothing is emitted.
func (r *Runner) Run(ctx context.Context) (*results.Series, error) {
	defer r.Close()

	m := r.model
	r.logger.Info("run started",
		logging.Seed(r.seed),
		logging.Int("nodes", m.Nodes),
		logging.Int("steps", m.Steps),
		logging.Int("generation_length", m.GenerationLength),
		logging.Int("strategies", m.Strategies),
		logging.Int("workers", r.runtime.Workers),
	)
	r.metrics.SetStrategyShares(shareLabels(r.engine.Shares()))
	r.publisher.Publish(pubsub.Event{
		Kind:       pubsub.KindRunStarted,
		RunID:      r.series.RunID,
		Time:       r.started,
		TotalSteps: m.Steps,
		Prevalence: r.series.Prevalence[0],
		Infectious: r.pop.InfectiousCount(),
		Edges:      r.graph.EdgeCount(),
		Shares:     sharesSlice(r.engine.Shares()),
	})

	for r.step < m.Steps-1 {
		if err := ctx.Err(); err != nil {
			r.finish(StatusCancelled, err)
			return nil, err
		}
		if err := r.Step(); err != nil {
			r.finish(StatusFailed, err)
			return nil, err
		}
	}

	r.fillTrailingGenerations()
	r.series.FinishedAt = r.now()

	if r.sink != nil {
		if err := r.sink.Write(ctx, r.series); err != nil {
			err = fmt.Errorf("%w: %w", ErrEmit, err)
			r.finish(StatusFailed, err)
			return r.series, err
		}
	}

	r.finish(StatusCompleted, nil)
	return r.series, nil
}

// Run builds a Runner for cfg and executes it to completion.
func Run(ctx context.Context, cfg config.Config, deps Deps) (*results.Series, error) {
	r, err := New(cfg, deps)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx)
}

// fillTrailingGenerations copies the end-of-run shares into generation
// slots the loop never reached.
func (r *Runner) fillTrailingGenerations() {
	shares := r.engine.Shares()
	for g := r.generation + 1; g < len(r.series.Generations); g++ {
		r.series.SetShares(g, shares)
	}
}

func (r *Runner) finish(status string, err error) {
	elapsed := r.now().Sub(r.started)
	r.metrics.RecordRun(status, elapsed)

	ev := pubsub.Event{
		Kind:       pubsub.KindRunFinished,
		RunID:      r.series.RunID,
		Time:       r.now(),
		Step:       r.step,
		TotalSteps: r.model.Steps,
		Prevalence: r.series.Prevalence[r.step],
		Infectious: r.pop.InfectiousCount(),
		Edges:      r.graph.EdgeCount(),
		Generation: r.generation,
		Shares:     sharesSlice(r.engine.Shares()),
	}

	fields := []logging.Field{
		logging.String("status", status),
		logging.Step(r.step),
		logging.Latency(elapsed),
	}
	switch status {
	case StatusCompleted:
		t := r.series.Totals
		r.logger.Info("run finished", append(fields,
			logging.Int("transmissions", t.Transmissions),
			logging.Int("recoveries", t.Recoveries),
			logging.Int("reseeds", t.Reseeds),
			logging.Int("swaps", t.Swaps),
		)...)
	case StatusCancelled:
		ev.Error = err.Error()
		r.logger.Warn("run cancelled", append(fields, logging.Error(err))...)
	default:
		ev.Error = err.Error()
		r.logger.Error("run failed", append(fields, logging.Error(err))...)
	}
	r.publisher.Publish(ev)
}
