package health

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/dd0wney/adapnet/pkg/pubsub"
)

// StoreCheck reports a result store as unhealthy when ping fails
func StoreCheck(name string, ping func(ctx context.Context) error) CheckFunc {
	return func(ctx context.Context) Check {
		check := Check{Name: name}
		if err := ping(ctx); err != nil {
			check.Status = StatusUnhealthy
			check.Message = fmt.Sprintf("store unreachable: %v", err)
			return check
		}
		check.Status = StatusHealthy
		check.Message = "store reachable"
		return check
	}
}

// MemoryCheck reports degraded when allocated memory exceeds 90% of what
// the runtime obtained from the OS
func MemoryCheck(getUsage func() (alloc, sys uint64)) CheckFunc {
	return func(ctx context.Context) Check {
		alloc, sys := getUsage()
		check := Check{
			Name: "memory",
			Details: map[string]any{
				"alloc_bytes": alloc,
				"sys_bytes":   sys,
			},
		}

		if sys > 0 && float64(alloc)/float64(sys) > 0.9 {
			check.Status = StatusDegraded
			check.Message = "High memory usage"
		} else {
			check.Status = StatusHealthy
			check.Message = "Memory usage normal"
		}
		return check
	}
}

// RuntimeMemory reads heap usage from the Go runtime
func RuntimeMemory() (alloc, sys uint64) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapAlloc, ms.HeapSys
}

// ProgressState is a snapshot of the tracked run
type ProgressState struct {
	RunID      string
	Step       int
	TotalSteps int
	Generation int
	Started    bool
	Finished   bool
	Error      string
	LastEvent  time.Time
}

// Progress tracks a run from its event stream
type Progress struct {
	mu    sync.RWMutex
	state ProgressState
	now   func() time.Time
}

// NewProgress creates an empty tracker
func NewProgress() *Progress {
	return &Progress{now: time.Now}
}

// Observe folds one event into the tracked state
func (p *Progress) Observe(ev pubsub.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := &p.state
	s.LastEvent = p.now()
	if ev.RunID != "" {
		s.RunID = ev.RunID
	}
	if ev.TotalSteps > 0 {
		s.TotalSteps = ev.TotalSteps
	}
	switch ev.Kind {
	case pubsub.KindRunStarted:
		s.Started = true
	case pubsub.KindStep:
		s.Step = ev.Step
	case pubsub.KindGeneration:
		s.Generation = ev.Generation
	case pubsub.KindRunFinished:
		s.Step = ev.Step
		s.Finished = true
		s.Error = ev.Error
	}
}

// Follow observes events until the channel closes or ctx is cancelled
func (p *Progress) Follow(ctx context.Context, events <-chan pubsub.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			p.Observe(ev)
		}
	}
}

// State returns a copy of the tracked state
func (p *Progress) State() ProgressState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// ProgressCheck reports the tracked run. A run with no event for longer
// than stallAfter is degraded; a failed run is unhealthy.
func ProgressCheck(p *Progress, stallAfter time.Duration) CheckFunc {
	return func(ctx context.Context) Check {
		s := p.State()
		check := Check{
			Name: "run",
			Details: map[string]any{
				"run_id":      s.RunID,
				"step":        s.Step,
				"total_steps": s.TotalSteps,
				"generation":  s.Generation,
			},
		}

		switch {
		case !s.Started:
			check.Status = StatusDegraded
			check.Message = "run not started"
		case s.Finished && s.Error != "":
			check.Status = StatusUnhealthy
			check.Message = "run failed: " + s.Error
		case s.Finished:
			check.Status = StatusHealthy
			check.Message = "run completed"
		case stallAfter > 0 && p.now().Sub(s.LastEvent) > stallAfter:
			check.Status = StatusDegraded
			check.Message = fmt.Sprintf("no progress for %s", p.now().Sub(s.LastEvent).Round(time.Second))
		default:
			check.Status = StatusHealthy
			check.Message = fmt.Sprintf("step %d of %d", s.Step, max(s.TotalSteps-1, 0))
		}
		return check
	}
}
