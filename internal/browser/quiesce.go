package browser

import (
	"context"
	"sync"
	"time"
)

const idlePollInterval = 50 * time.Millisecond

// idleTracker counts in-flight network requests and remembers when the
// count last dropped to zero. It is fed from the CDP event listener and
// polled by AwaitIdle.
type idleTracker struct {
	mu         sync.Mutex
	inflight   map[string]struct{}
	lastChange time.Time
}

func newIdleTracker() *idleTracker {
	return &idleTracker{
		inflight:   make(map[string]struct{}),
		lastChange: time.Now(),
	}
}

func (t *idleTracker) Begin(requestID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inflight[requestID] = struct{}{}
	t.lastChange = time.Now()
}

func (t *idleTracker) End(requestID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.inflight[requestID]; !ok {
		return
	}
	delete(t.inflight, requestID)
	t.lastChange = time.Now()
}

// IdleFor reports whether no request has been in flight for at least d.
func (t *idleTracker) IdleFor(now time.Time, d time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight) == 0 && now.Sub(t.lastChange) >= d
}

// AwaitIdle blocks until the page is quiescent (IdleFor idleInterval)
// or timeout elapses, in which case it returns ErrQuiescenceTimeout.
func (t *idleTracker) AwaitIdle(ctx context.Context, timeout, idleInterval time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(idlePollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if t.IdleFor(now, idleInterval) {
				return nil
			}
			if now.After(deadline) {
				return ErrQuiescenceTimeout
			}
		}
	}
}
