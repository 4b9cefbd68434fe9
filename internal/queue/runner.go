package queue

import (
	"context"
	"sync"
	"time"

	"github.com/timmy/reelscout/internal/domain"
	"github.com/timmy/reelscout/internal/logger"
	"github.com/timmy/reelscout/internal/repository"
)

// Handler executes one job attempt. Attempts always run from the beginning;
// a retried job repeats all work regardless of how far the failed attempt
// got. The progress callback receives percentages in [0, 100].
type Handler interface {
	Handle(ctx context.Context, job *domain.Job, progress func(int)) error
}

// Runner drains the job table with a fixed-size worker pool. Dequeues are
// gated by the rolling-window rate limiter; failed attempts are redelivered
// with exponential backoff until the attempt ceiling, then parked as failed.
type Runner struct {
	jobs    *repository.JobRepository
	handler Handler
	policy  Policy
	limiter *rateLimiter
}

// NewRunner creates a Runner.
// Parameters:
//   - jobs: job repository shared with the Queue.
//   - handler: job execution logic.
//   - policy: retry, concurrency, rate and retention settings.
//
// Returns:
//   - *Runner: configured runner; call Run to start it.
func NewRunner(jobs *repository.JobRepository, handler Handler, policy Policy) *Runner {
	return &Runner{
		jobs:    jobs,
		handler: handler,
		policy:  policy,
		limiter: newRateLimiter(policy.RateLimit, policy.RateWindow),
	}
}

// Run starts the worker pool and the retention janitor, blocking until ctx
// is cancelled and all in-flight jobs have finished.
func (r *Runner) Run(ctx context.Context) {
	var wg sync.WaitGroup

	for i := 0; i < r.policy.Concurrency; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r.workLoop(logger.WithField(ctx, "worker", worker))
		}(i)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		r.janitorLoop(ctx)
	}()

	wg.Wait()
}

// workLoop claims and processes jobs until ctx is cancelled.
func (r *Runner) workLoop(ctx context.Context) {
	ticker := time.NewTicker(r.policy.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if !r.limiter.Allow(time.Now()) {
			continue
		}

		// The limit counts dequeues, not polls. A grant reserved for a
		// claim that yields nothing goes back to the window.
		job, err := r.jobs.ClaimNext(ctx, time.Now())
		if err != nil {
			r.limiter.Refund()
			logger.CtxError(ctx, "Failed to claim job: %v", err)
			continue
		}
		if job == nil {
			r.limiter.Refund()
			continue
		}

		r.process(ctx, job)
	}
}

// process runs one claimed attempt and records its outcome.
func (r *Runner) process(ctx context.Context, job *domain.Job) {
	jobCtx := logger.SetJobID(ctx, job.ID)
	logger.CtxInfo(jobCtx, "Processing job (attempt %d/%d)", job.Attempts, r.policy.MaxAttempts)

	// Attempts restart from zero; stale progress from a failed attempt
	// must not leak into status reads.
	if err := r.jobs.UpdateProgress(jobCtx, job.ID, 0); err != nil {
		logger.CtxWarn(jobCtx, "Failed to reset job progress: %v", err)
	}

	report := func(pct int) {
		if err := r.jobs.UpdateProgress(jobCtx, job.ID, pct); err != nil {
			logger.CtxWarn(jobCtx, "Failed to update job progress to %d: %v", pct, err)
		}
	}

	if err := r.handler.Handle(jobCtx, job, report); err != nil {
		r.recordFailure(jobCtx, job, err)
		return
	}

	if err := r.jobs.MarkCompleted(jobCtx, job.ID); err != nil {
		logger.CtxError(jobCtx, "Failed to mark job completed: %v", err)
		return
	}
	logger.CtxInfo(jobCtx, "Job completed")
}

// recordFailure either schedules a retry with exponential backoff or parks
// the job as terminally failed.
func (r *Runner) recordFailure(ctx context.Context, job *domain.Job, jobErr error) {
	if r.policy.Exhausted(job.Attempts) {
		logger.CtxError(ctx, "Job failed permanently after %d attempts: %v", job.Attempts, jobErr)
		if err := r.jobs.MarkFailed(ctx, job.ID, jobErr.Error()); err != nil {
			logger.CtxError(ctx, "Failed to mark job failed: %v", err)
		}
		return
	}

	delay := r.policy.Backoff(job.Attempts)
	nextRun := time.Now().Add(delay)
	logger.CtxWarn(ctx, "Job attempt %d failed, retrying in %s: %v", job.Attempts, delay, jobErr)
	if err := r.jobs.MarkDelayed(ctx, job.ID, nextRun, jobErr.Error()); err != nil {
		logger.CtxError(ctx, "Failed to delay job: %v", err)
	}
}

// janitorLoop purges terminal jobs past their retention windows.
func (r *Runner) janitorLoop(ctx context.Context) {
	interval := r.policy.CompletedRetention / 4
	if interval > time.Minute || interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		now := time.Now()
		purged, err := r.jobs.PurgeTerminal(ctx,
			now.Add(-r.policy.CompletedRetention),
			now.Add(-r.policy.FailedRetention),
		)
		if err != nil {
			logger.CtxError(ctx, "Failed to purge terminal jobs: %v", err)
			continue
		}
		if purged > 0 {
			logger.CtxInfo(ctx, "Purged %d terminal jobs", purged)
		}
	}
}
