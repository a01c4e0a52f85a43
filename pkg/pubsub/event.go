package pubsub

import (
	"time"
)

// Kind identifies the progress event type. It doubles as the topic name.
type Kind string

const (
	KindRunStarted  Kind = "run_started"
	KindStep        Kind = "step"
	KindGeneration  Kind = "generation"
	KindRunFinished Kind = "run_finished"
)

// TopicAll receives every event regardless of kind.
const TopicAll = "*"

// Event is one progress notification from a running simulation.
type Event struct {
	Kind  Kind      `json:"kind"`
	RunID string    `json:"run_id"`
	Time  time.Time `json:"time"`

	Step       int     `json:"step"`
	TotalSteps int     `json:"total_steps,omitempty"`
	Prevalence float64 `json:"prevalence"`
	Infectious int     `json:"infectious"`
	Edges      int     `json:"edges,omitempty"`
	Rewired    int     `json:"rewired,omitempty"`
	Exhausted  int     `json:"exhausted,omitempty"`
	Reseeded   bool    `json:"reseeded,omitempty"`
	Swapped    bool    `json:"swapped,omitempty"`

	Generation  int       `json:"generation,omitempty"`
	Shares      []float64 `json:"shares,omitempty"`
	BestFitness float64   `json:"best_fitness,omitempty"`

	// Error is set on run_finished when the run did not complete.
	Error string `json:"error,omitempty"`
}

// Publisher accepts progress events. Implementations must not block the
// simulation loop.
type Publisher interface {
	Publish(ev Event)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}
