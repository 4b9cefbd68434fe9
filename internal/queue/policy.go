package queue

import "time"

// Policy bundles the queue's retry, concurrency and retention knobs. It is a
// plain value so tests can shrink the timings without touching config.
type Policy struct {
	// MaxAttempts is the total attempt ceiling per job, first run included.
	MaxAttempts int
	// InitialBackoff is the delay before the first retry; it doubles per
	// subsequent retry.
	InitialBackoff time.Duration
	// Concurrency is the number of jobs processed simultaneously.
	Concurrency int
	// RateLimit caps dequeues per RateWindow, measured on a rolling window.
	RateLimit  int
	RateWindow time.Duration
	// Retention windows for terminal jobs.
	CompletedRetention time.Duration
	FailedRetention    time.Duration
	// PollInterval is the idle wait between claim attempts.
	PollInterval time.Duration
}

// DefaultPolicy returns the production queue settings.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:        3,
		InitialBackoff:     60 * time.Second,
		Concurrency:        2,
		RateLimit:          10,
		RateWindow:         60 * time.Second,
		CompletedRetention: time.Hour,
		FailedRetention:    24 * time.Hour,
		PollInterval:       time.Second,
	}
}

// Backoff returns the retry delay after the given attempt number (1-based):
// the initial backoff doubled for each attempt beyond the first.
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return p.InitialBackoff << (attempt - 1)
}

// Exhausted reports whether a job that just failed its given attempt has no
// retries left.
func (p Policy) Exhausted(attempt int) bool {
	return attempt >= p.MaxAttempts
}
