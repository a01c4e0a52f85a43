package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initEpidemicMetrics() {
	r.Prevalence = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "adapnet_prevalence_ratio",
			Help: "Infectious fraction of the population after the latest step",
		},
	)

	r.InfectiousNodes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "adapnet_infectious_nodes",
			Help: "Number of infectious nodes after the latest step",
		},
	)

	r.TransmissionsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "adapnet_transmissions_total",
			Help: "Total number of new infections",
		},
	)

	r.RecoveriesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "adapnet_recoveries_total",
			Help: "Total number of recoveries",
		},
	)

	r.ReseedsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "adapnet_reseeds_total",
			Help: "Number of times the epidemic died out and was reseeded",
		},
	)
}

func (r *Registry) initNetworkMetrics() {
	r.EdgesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "adapnet_edges",
			Help: "Number of undirected edges in the contact network",
		},
	)

	r.RewiresTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "adapnet_rewires_total",
			Help: "Rewiring attempts by strategy and outcome",
		},
		[]string{"strategy", "outcome"}, // outcome: rewired, exhausted
	)

	r.RandomSwapsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "adapnet_random_swaps_total",
			Help: "Long-range random edge swaps by result",
		},
		[]string{"result"}, // swapped, exhausted
	)
}

func (r *Registry) initEvolutionMetrics() {
	r.GenerationsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "adapnet_generations_total",
			Help: "Total number of generational strategy updates",
		},
	)

	r.StrategyShare = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "adapnet_strategy_share_ratio",
			Help: "Fraction of nodes using each rewiring strategy",
		},
		[]string{"strategy"},
	)

	r.BestFitness = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "adapnet_best_fitness",
			Help: "Highest accumulated fitness at the latest generation boundary",
		},
	)
}

func (r *Registry) initSinkMetrics() {
	r.SinkWritesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "adapnet_sink_writes_total",
			Help: "Result emissions by sink and status",
		},
		[]string{"sink", "status"},
	)

	r.SinkWriteDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adapnet_sink_write_duration_seconds",
			Help:    "Result emission latency by sink",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"sink"},
	)

	r.SinkBytesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "adapnet_sink_bytes_total",
			Help: "Bytes written by byte-oriented sinks",
		},
		[]string{"sink"},
	)
}
