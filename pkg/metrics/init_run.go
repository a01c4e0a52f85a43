package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initRunMetrics() {
	r.RunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "adapnet_runs_total",
			Help: "Total number of simulation runs by final status",
		},
		[]string{"status"}, // completed, cancelled, failed
	)

	r.RunDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "adapnet_run_duration_seconds",
			Help:    "Wall-clock duration of simulation runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		},
	)

	r.StepsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "adapnet_steps_total",
			Help: "Total number of simulation steps executed",
		},
	)

	r.CurrentStep = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "adapnet_current_step",
			Help: "Index of the most recently completed step",
		},
	)

	r.PhaseDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adapnet_phase_duration_seconds",
			Help:    "Duration of each step phase in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
		[]string{"phase"}, // fitness, evolve, rank, rewire, transmit, recover, distances, swap
	)

	r.InvariantChecks = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "adapnet_invariant_checks_total",
			Help: "Per-step invariant checks by result",
		},
		[]string{"result"}, // ok, violated
	)
}
