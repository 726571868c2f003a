package history

import (
	"strings"
	"time"
)

// Run is one recorded pipeline run.
type Run struct {
	RunID     string    `json:"run_id"`
	URL       string    `json:"url"`
	Status    string    `json:"status"` // "done" or "failed"
	Before    int       `json:"before"`
	After     int       `json:"after"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	StatusDone   = "done"
	StatusFailed = "failed"
)

func normalizeRun(r Run) Run {
	r.RunID = strings.TrimSpace(r.RunID)
	r.URL = strings.TrimSpace(r.URL)
	if r.Status != StatusDone && r.Status != StatusFailed {
		r.Status = StatusFailed
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	return r
}
