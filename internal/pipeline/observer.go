package pipeline

import "time"

type EventKind string

const (
	EventStarted   EventKind = "started"
	EventFinished  EventKind = "finished"
	EventFailed    EventKind = "failed"
	EventCorrected EventKind = "corrected"
)

// Event is a progress notification emitted while a run is in flight.
type Event struct {
	RunID   string        `json:"run_id"`
	Stage   string        `json:"stage"`
	Kind    EventKind     `json:"kind"`
	Calls   int           `json:"calls,omitempty"`
	Elapsed time.Duration `json:"elapsed_ns,omitempty"`
	Error   string        `json:"error,omitempty"`
	// Score is the overall quality that triggered a correction.
	Score int `json:"score,omitempty"`
}

// Observer receives events synchronously on the run's goroutine.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }
