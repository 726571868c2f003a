package main

import (
	"sync"

	"revamp/internal/pipeline"
)

// Event is one progress update for a watched run.
type Event struct {
	Type   string `json:"type"` // "stage", "complete", "error"
	RunID  string `json:"runId"`
	Stage  string `json:"stage,omitempty"`
	Before int    `json:"before,omitempty"`
	After  int    `json:"after,omitempty"`
	Error  string `json:"error,omitempty"`
}

const (
	eventTypeStage    = "stage"
	eventTypeComplete = "complete"
	eventTypeError    = "error"
)

// runRegistry tracks in-flight runs and their event channels. Each run
// has one buffered channel; it is closed when the run finishes.
type runRegistry struct {
	sync.RWMutex
	runs map[string]chan Event
}

func newRunRegistry() *runRegistry {
	return &runRegistry{runs: make(map[string]chan Event)}
}

func (r *runRegistry) open(runID string) chan Event {
	ch := make(chan Event, 32)
	r.Lock()
	r.runs[runID] = ch
	r.Unlock()
	return ch
}

func (r *runRegistry) lookup(runID string) (chan Event, bool) {
	r.RLock()
	ch, ok := r.runs[runID]
	r.RUnlock()
	return ch, ok
}

func (r *runRegistry) finish(runID string, ch chan Event) {
	close(ch)
	r.Lock()
	delete(r.runs, runID)
	r.Unlock()
}

// push drops the event if the channel buffer is full; a slow watcher
// must not stall the pipeline.
func push(ch chan Event, ev Event) {
	select {
	case ch <- ev:
	default:
	}
}

func stageEvent(runID string, s pipeline.State) Event {
	return Event{Type: eventTypeStage, RunID: runID, Stage: string(s)}
}
