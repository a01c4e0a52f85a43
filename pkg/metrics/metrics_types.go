// Package metrics exposes Prometheus instrumentation for simulation runs.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// Run Metrics
	RunsTotal       *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	StepsTotal      prometheus.Counter
	CurrentStep     prometheus.Gauge
	PhaseDuration   *prometheus.HistogramVec
	InvariantChecks *prometheus.CounterVec

	// Epidemic Metrics
	Prevalence         prometheus.Gauge
	InfectiousNodes    prometheus.Gauge
	TransmissionsTotal prometheus.Counter
	RecoveriesTotal    prometheus.Counter
	ReseedsTotal       prometheus.Counter

	// Network Metrics
	EdgesTotal       prometheus.Gauge
	RewiresTotal     *prometheus.CounterVec
	RandomSwapsTotal *prometheus.CounterVec

	// Evolution Metrics
	GenerationsTotal prometheus.Counter
	StrategyShare    *prometheus.GaugeVec
	BestFitness      prometheus.Gauge

	// Sink Metrics
	SinkWritesTotal   *prometheus.CounterVec
	SinkWriteDuration *prometheus.HistogramVec
	SinkBytesTotal    *prometheus.CounterVec

	// System Metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge
	MemorySysBytes   prometheus.Gauge

	registry *prometheus.Registry
	started  time.Time
	mu       sync.Mutex
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		started:  time.Now(),
	}

	r.initRunMetrics()
	r.initEpidemicMetrics()
	r.initNetworkMetrics()
	r.initEvolutionMetrics()
	r.initSinkMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
