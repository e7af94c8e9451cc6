package share

import (
	"sync"
	"time"
)

// RateLimiter is a keyed sliding-window limiter.
//
// Each key owns an ordered window of event timestamps over the trailing window
// duration, pruned lazily on every check. A rejected attempt is NOT recorded.
// Windows must be evicted on disconnect so budgets do not leak across
// reconnects with fresh session ids. This is advisory throttling, not a
// security boundary: a client can reconnect under a new identity to reset its
// budget.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	limit   int
	window  time.Duration
}

// NewRateLimiter constructs a RateLimiter with safe defaults when inputs are invalid.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = contentRateEvents
	}
	if window <= 0 {
		window = contentRateWindow
	}
	return &RateLimiter{
		windows: make(map[string][]time.Time),
		limit:   limit,
		window:  window,
	}
}

// Allow reports whether an event for key at time "now" should be permitted,
// recording it when it is.
func (r *RateLimiter) Allow(key string, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cut := now.Add(-r.window)
	events := r.windows[key]

	dst := events[:0]
	for _, t := range events {
		if t.After(cut) {
			dst = append(dst, t)
		}
	}

	if len(dst) >= r.limit {
		r.windows[key] = dst
		return false
	}

	r.windows[key] = append(dst, now)
	return true
}

// Evict discards the window for key entirely.
func (r *RateLimiter) Evict(key string) {
	r.mu.Lock()
	delete(r.windows, key)
	r.mu.Unlock()
}
