package metrics

import (
	"runtime"
	"time"
)

// All Record and Update methods accept a nil *Registry and do nothing, so
// callers can run uninstrumented without branching.

// StepStats is the per-step snapshot published after recovery.
type StepStats struct {
	Step          int
	Prevalence    float64
	Infectious    int
	Transmissions int
	Recoveries    int
	Edges         int
}

// RecordStep records the outcome of one completed simulation step
func (r *Registry) RecordStep(s StepStats) {
	if r == nil {
		return
	}
	r.StepsTotal.Inc()
	r.CurrentStep.Set(float64(s.Step))
	r.Prevalence.Set(s.Prevalence)
	r.InfectiousNodes.Set(float64(s.Infectious))
	r.TransmissionsTotal.Add(float64(s.Transmissions))
	r.RecoveriesTotal.Add(float64(s.Recoveries))
	r.EdgesTotal.Set(float64(s.Edges))
}

// RecordPhase records how long one phase of a step took
func (r *Registry) RecordPhase(phase string, duration time.Duration) {
	if r == nil {
		return
	}
	r.PhaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

// RecordRewires adds rewiring outcomes for one strategy
func (r *Registry) RecordRewires(strategy string, rewired, exhausted int) {
	if r == nil {
		return
	}
	if rewired > 0 {
		r.RewiresTotal.WithLabelValues(strategy, "rewired").Add(float64(rewired))
	}
	if exhausted > 0 {
		r.RewiresTotal.WithLabelValues(strategy, "exhausted").Add(float64(exhausted))
	}
}

// RecordRandomSwap records a long-range swap attempt
func (r *Registry) RecordRandomSwap(swapped bool) {
	if r == nil {
		return
	}
	if swapped {
		r.RandomSwapsTotal.WithLabelValues("swapped").Inc()
	} else {
		r.RandomSwapsTotal.WithLabelValues("exhausted").Inc()
	}
}

// RecordReseed records that the epidemic was reseeded
func (r *Registry) RecordReseed() {
	if r == nil {
		return
	}
	r.ReseedsTotal.Inc()
}

// RecordGeneration records a generational update and the resulting shares,
// keyed by strategy name
func (r *Registry) RecordGeneration(shares map[string]float64, bestFitness float64) {
	if r == nil {
		return
	}
	r.GenerationsTotal.Inc()
	r.BestFitness.Set(bestFitness)
	r.SetStrategyShares(shares)
}

// SetStrategyShares sets the strategy share gauges
func (r *Registry) SetStrategyShares(shares map[string]float64) {
	if r == nil {
		return
	}
	for name, v := range shares {
		r.StrategyShare.WithLabelValues(name).Set(v)
	}
}

// RecordInvariantCheck records the result of a per-step invariant check
func (r *Registry) RecordInvariantCheck(ok bool) {
	if r == nil {
		return
	}
	if ok {
		r.InvariantChecks.WithLabelValues("ok").Inc()
	} else {
		r.InvariantChecks.WithLabelValues("violated").Inc()
	}
}

// RecordRun records a finished run with its status
func (r *Registry) RecordRun(status string, duration time.Duration) {
	if r == nil {
		return
	}
	r.RunsTotal.WithLabelValues(status).Inc()
	r.RunDuration.Observe(duration.Seconds())
}

// RecordSinkWrite records one result emission
func (r *Registry) RecordSinkWrite(sink string, err error, duration time.Duration, bytes int) {
	if r == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	r.SinkWritesTotal.WithLabelValues(sink, status).Inc()
	r.SinkWriteDuration.WithLabelValues(sink).Observe(duration.Seconds())
	if bytes > 0 {
		r.SinkBytesTotal.WithLabelValues(sink).Add(float64(bytes))
	}
}

// UpdateSystemMetrics refreshes uptime, goroutine and memory gauges
func (r *Registry) UpdateSystemMetrics() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	r.UptimeSeconds.Set(time.Since(r.started).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(m.Alloc))
	r.MemorySysBytes.Set(float64(m.Sys))
}
