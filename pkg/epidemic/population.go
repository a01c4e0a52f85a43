package epidemic

import (
	"errors"
	"fmt"
)

// Status is a node's compartment.
type Status int

const (
	// Susceptible nodes can be infected
	Susceptible Status = iota
	// Infectious nodes transmit to susceptible neighbors
	Infectious
)

// String returns the string representation of a status
func (s Status) String() string {
	switch s {
	case Susceptible:
		return "susceptible"
	case Infectious:
		return "infectious"
	default:
		return "unknown"
	}
}

// Model defaults.
const (
	DefaultRecoveryDuration = 5
	DefaultSeedCount        = 5
)

// ErrInconsistentState is reported when a node's status and duration disagree.
var ErrInconsistentState = errors.New("inconsistent infection state")

// Population holds per-node infection state. Duration counts ticks since
// infection onset and is meaningful only while Infectious.
type Population struct {
	Status   []Status
	Duration []int
}

// NewPopulation creates n susceptible nodes.
func NewPopulation(n int) *Population {
	return &Population{
		Status:   make([]Status, n),
		Duration: make([]int, n),
	}
}

// Size returns the number of nodes.
func (p *Population) Size() int {
	return len(p.Status)
}

// IsInfectious reports whether node i is Infectious.
func (p *Population) IsInfectious(i int) bool {
	return p.Status[i] == Infectious
}

// IsSusceptible reports whether node i is Susceptible.
func (p *Population) IsSusceptible(i int) bool {
	return p.Status[i] == Susceptible
}

// Infect marks node i Infectious with the given duration.
func (p *Population) Infect(i, duration int) {
	p.Status[i] = Infectious
	p.Duration[i] = duration
}

// InfectiousCount returns the number of Infectious nodes.
func (p *Population) InfectiousCount() int {
	count := 0
	for _, s := range p.Status {
		if s == Infectious {
			count++
		}
	}
	return count
}

// Prevalence returns the Infectious fraction of the population.
func (p *Population) Prevalence() float64 {
	if len(p.Status) == 0 {
		return 0
	}
	return float64(p.InfectiousCount()) / float64(len(p.Status))
}

// Validate checks the step-boundary invariant: Susceptible nodes carry
// duration 0 and Infectious nodes carry a duration in [1, recovery].
func (p *Population) Validate(recovery int) error {
	for i, s := range p.Status {
		d := p.Duration[i]
		switch s {
		case Susceptible:
			if d != 0 {
				return fmt.Errorf("node %d susceptible with duration %d: %w", i, d, ErrInconsistentState)
			}
		case Infectious:
			if d < 1 || d > recovery {
				return fmt.Errorf("node %d infectious with duration %d: %w", i, d, ErrInconsistentState)
			}
		default:
			return fmt.Errorf("node %d has status %d: %w", i, s, ErrInconsistentState)
		}
	}
	return nil
}
