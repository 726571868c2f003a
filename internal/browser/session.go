// Package browser owns headless Chrome session lifecycle and the
// network-quiescence wait shared by capture and audit. Exactly one
// session is alive per pipeline stage; Close releases the tab and the
// browser process.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// ErrQuiescenceTimeout reports that a page still had in-flight network
// activity when the configured wait expired.
var ErrQuiescenceTimeout = errors.New("browser: page never reached network quiescence")

// Options configures session startup.
type Options struct {
	// ExecPath overrides the Chrome binary location. Empty means
	// chromedp's default lookup.
	ExecPath string
}

// Session is one isolated headless browser tab.
type Session struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc

	closeOnce sync.Once
}

// sessionCount tracks live sessions so callers can assert it returns
// to baseline after a run.
var (
	sessionMu    sync.Mutex
	sessionCount int
)

func LiveSessions() int {
	sessionMu.Lock()
	defer sessionMu.Unlock()
	return sessionCount
}

// New launches a sandboxed headless browser and waits for it to be
// ready. The caller must Close the session on every path.
func New(parent context.Context, opts Options) (*Session, error) {
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	// Force the browser process to start now so startup failures
	// surface here instead of on first navigation.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("browser: launch: %w", err)
	}

	sessionMu.Lock()
	sessionCount++
	sessionMu.Unlock()

	return &Session{ctx: tabCtx, cancelTab: cancelTab, cancelAlloc: cancelAlloc}, nil
}

// Close tears down the tab and the browser process. Idempotent.
func (s *Session) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		s.cancelTab()
		s.cancelAlloc()
		sessionMu.Lock()
		sessionCount--
		sessionMu.Unlock()
	})
}

// LoadResult reports what a page load observed.
type LoadResult struct {
	// Status is the HTTP status of the main document response, or 0
	// if no document response was seen.
	Status int64
}

// Load navigates to pageURL and blocks until the page has had no
// in-flight network activity for idleInterval, or quiescenceTimeout
// elapses (ErrQuiescenceTimeout). The listener is registered before
// navigation so no request is missed.
func (s *Session) Load(pageURL string, quiescenceTimeout, idleInterval time.Duration) (*LoadResult, error) {
	if s == nil {
		return nil, errors.New("browser: nil session")
	}

	tracker := newIdleTracker()
	var (
		statusMu sync.Mutex
		status   int64
	)

	listenCtx, stopListen := context.WithCancel(s.ctx)
	defer stopListen()
	chromedp.ListenTarget(listenCtx, func(ev any) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			tracker.Begin(string(e.RequestID))
		case *network.EventLoadingFinished:
			tracker.End(string(e.RequestID))
		case *network.EventLoadingFailed:
			tracker.End(string(e.RequestID))
		case *network.EventResponseReceived:
			if e.Type == network.ResourceTypeDocument {
				statusMu.Lock()
				if status == 0 {
					status = e.Response.Status
				}
				statusMu.Unlock()
			}
		}
	})

	if err := chromedp.Run(s.ctx, network.Enable(), chromedp.Navigate(pageURL)); err != nil {
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}

	err := tracker.AwaitIdle(s.ctx, quiescenceTimeout, idleInterval)
	statusMu.Lock()
	res := &LoadResult{Status: status}
	statusMu.Unlock()
	return res, err
}

// Evaluate runs a script in the page. When awaitPromise is set the
// call resolves the returned promise before decoding into out; a
// thrown exception comes back as an error either way.
func (s *Session) Evaluate(script string, out any, awaitPromise bool) error {
	if s == nil {
		return errors.New("browser: nil session")
	}
	opt := func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		if awaitPromise {
			p = p.WithAwaitPromise(true)
		}
		return p.WithReturnByValue(true)
	}
	return chromedp.Run(s.ctx, chromedp.Evaluate(script, out, opt))
}

// OuterHTML returns the rendered document markup.
func (s *Session) OuterHTML() (string, error) {
	if s == nil {
		return "", errors.New("browser: nil session")
	}
	var html string
	if err := chromedp.Run(s.ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("browser: outer html: %w", err)
	}
	return html, nil
}
