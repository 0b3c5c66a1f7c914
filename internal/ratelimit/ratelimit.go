// Package ratelimit implements a process-local fixed-window request counter.
// Distributed or shared-state limiting across processes is out of scope.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter counts hits per opaque key in fixed wall-clock windows. Construct
// one per process and hand it to whoever needs it; there is no package-level
// singleton. Keys are never evicted, which is acceptable at the key
// cardinality this service sees.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

type window struct {
	count   int
	resetAt time.Time
}

// New constructs a Limiter using the wall clock.
func New() *Limiter {
	return NewWithClock(time.Now)
}

// NewWithClock constructs a Limiter with an injected clock, for tests.
func NewWithClock(now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{windows: make(map[string]*window), now: now}
}

// Allow records a hit against key and reports whether it fits within max
// hits per windowSize. The first hit for a key, or the first after the
// window elapsed, restarts the counter at one. Once the cap is reached the
// call returns false without counting further.
func (l *Limiter) Allow(key string, max int, windowSize time.Duration) bool {
	if max <= 0 {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.After(w.resetAt) {
		l.windows[key] = &window{count: 1, resetAt: now.Add(windowSize)}
		return true
	}
	if w.count >= max {
		return false
	}
	w.count++
	return true
}

// Len reports the number of tracked keys. Exposed for tests and diagnostics.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
