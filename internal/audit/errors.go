package audit

import (
	"fmt"
	"time"
)

// NavigationError reports that the target URL was unreachable or its
// document response carried no renderable content.
type NavigationError struct {
	URL    string
	Status int
	Err    error
}

func (e *NavigationError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("audit: navigation to %s failed: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("audit: navigation to %s failed: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// TimeoutError reports that the page never reached network quiescence
// within the configured wait.
type TimeoutError struct {
	URL  string
	Wait time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("audit: %s did not reach network quiescence within %s", e.URL, e.Wait)
}

// EngineError reports that injecting or running the audit engine threw
// inside the page.
type EngineError struct {
	Err error
}

func (e *EngineError) Error() string { return fmt.Sprintf("audit: engine: %v", e.Err) }
func (e *EngineError) Unwrap() error { return e.Err }
