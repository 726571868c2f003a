// Package audit loads a URL in a headless browser, runs the axe-core
// accessibility engine inside the page, and reduces the outcome to a
// bounded score.
package audit

import (
	"context"
	"errors"
	"time"

	"revamp/internal/browser"
)

const (
	// DefaultQuiescenceTimeout bounds the wait for network idle.
	// Auditing before deferred resources settle produces false
	// negatives, so the runner always waits.
	DefaultQuiescenceTimeout = 15 * time.Second
	// DefaultIdleInterval is how long the network must stay quiet
	// before the page counts as quiescent.
	DefaultIdleInterval = 500 * time.Millisecond
)

// runScript invokes the engine's asynchronous entry point and resolves
// with its full output.
const runScript = `axe.run(document)`

// Runner drives one audit pass per call. The zero value is usable.
type Runner struct {
	Engine            EngineConfig
	Browser           browser.Options
	QuiescenceTimeout time.Duration
	IdleInterval      time.Duration
}

// Audit loads url, injects the engine, runs it, and decodes its output.
// The browser session is released on every path. Failures map to the
// taxonomy: *NavigationError, *TimeoutError, *EngineError. No failure
// is retried here; retry policy belongs to the caller.
func (r *Runner) Audit(ctx context.Context, url string) (*Result, error) {
	script, err := LoadEngineScript(ctx, r.Engine)
	if err != nil {
		return nil, err
	}

	sess, err := browser.New(ctx, r.Browser)
	if err != nil {
		return nil, &NavigationError{URL: url, Err: err}
	}
	defer sess.Close()

	timeout := r.QuiescenceTimeout
	if timeout <= 0 {
		timeout = DefaultQuiescenceTimeout
	}
	idle := r.IdleInterval
	if idle <= 0 {
		idle = DefaultIdleInterval
	}

	load, err := sess.Load(url, timeout, idle)
	if err := classifyLoad(url, timeout, load, err); err != nil {
		return nil, err
	}

	if err := sess.Evaluate(script, nil, false); err != nil {
		return nil, &EngineError{Err: err}
	}
	var res Result
	if err := sess.Evaluate(runScript, &res, true); err != nil {
		return nil, &EngineError{Err: err}
	}
	if err := res.Validate(); err != nil {
		return nil, &EngineError{Err: err}
	}
	return &res, nil
}

// classifyLoad maps a page-load outcome onto the failure taxonomy.
func classifyLoad(url string, wait time.Duration, load *browser.LoadResult, err error) error {
	switch {
	case errors.Is(err, browser.ErrQuiescenceTimeout):
		return &TimeoutError{URL: url, Wait: wait}
	case err != nil:
		return &NavigationError{URL: url, Err: err}
	case load != nil && load.Status >= 400:
		return &NavigationError{URL: url, Status: int(load.Status)}
	}
	return nil
}
