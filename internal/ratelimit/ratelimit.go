// Package ratelimit implements the per-client sliding-window admission
// check the dispatcher runs before anything else.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter tracks request timestamps per client identity and admits or
// denies calls within a sliding window. The check-and-append runs under a
// single lock, so concurrent calls from the same identity cannot both
// slip under the quota.
type Limiter struct {
	mu      sync.Mutex
	quota   int
	window  time.Duration
	now     func() time.Time
	windows map[string][]time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// NewLimiter creates a Limiter admitting at most quota calls per client
// within window. Quota 0 denies everything; window 0 means every recorded
// entry expires immediately, so calls are effectively unthrottled.
func NewLimiter(quota int, window time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		quota:   quota,
		window:  window,
		now:     time.Now,
		windows: make(map[string][]time.Time),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Admit reports whether the client may proceed. Admitted calls are
// recorded; denied attempts are not. Entries older than the window are
// pruned on every check, so after any call the retained timestamps all
// satisfy now-ts < window.
func (l *Limiter) Admit(clientID string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.windows[clientID][:0]
	for _, ts := range l.windows[clientID] {
		if now.Sub(ts) < l.window {
			recent = append(recent, ts)
		}
	}

	if len(recent) >= l.quota {
		l.windows[clientID] = recent
		return false
	}

	l.windows[clientID] = append(recent, now)
	return true
}

// Active returns the number of retained timestamps for a client, after
// pruning. Used by tests and diagnostics.
func (l *Limiter) Active(clientID string) int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	count := 0
	for _, ts := range l.windows[clientID] {
		if now.Sub(ts) < l.window {
			count++
		}
	}
	return count
}
