package queue

import (
	"sync"
	"time"
)

// rateLimiter enforces a rolling-window cap on dequeue operations. Unlike a
// fixed-window counter it never admits a burst of 2x the limit across a
// window boundary.
type rateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	grants []time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{limit: limit, window: window}
}

// Allow reports whether another dequeue may proceed at now, recording the
// grant when it does.
func (r *rateLimiter) Allow(now time.Time) bool {
	if r.limit <= 0 {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := now.Add(-r.window)
	kept := r.grants[:0]
	for _, t := range r.grants {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	r.grants = kept

	if len(r.grants) >= r.limit {
		return false
	}
	r.grants = append(r.grants, now)
	return true
}

// Refund returns the most recent grant. Callers reserve a grant before
// attempting a dequeue and give it back when no job was actually claimed,
// so polling an empty queue never consumes the window.
func (r *rateLimiter) Refund() {
	if r.limit <= 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if n := len(r.grants); n > 0 {
		r.grants = r.grants[:n-1]
	}
}
