package queue

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/timmy/reelscout/internal/domain"
	"github.com/timmy/reelscout/internal/logger"
	"github.com/timmy/reelscout/internal/repository"
)

// ValidationError indicates a submission payload that can never run.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid job payload: %s %s", e.Field, e.Reason)
}

// Queue accepts reel-processing jobs and exposes their status. Execution is
// handled by Runner; the two share only the job table.
type Queue struct {
	jobs *repository.JobRepository
}

// New creates a Queue over the job repository.
func New(jobs *repository.JobRepository) *Queue {
	return &Queue{jobs: jobs}
}

// Submit validates and enqueues a reel-processing job.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - payload: job payload; needs a reel ID, a user ID, and a video source.
//
// Returns:
//   - *domain.Job: the persisted waiting job.
//   - error: *ValidationError for bad payloads, otherwise a storage error.
func (q *Queue) Submit(ctx context.Context, payload domain.JobPayload) (*domain.Job, error) {
	if payload.ReelID == "" {
		return nil, &ValidationError{Field: "reel_id", Reason: "is required"}
	}
	if payload.UserID == "" {
		return nil, &ValidationError{Field: "user_id", Reason: "is required"}
	}
	if payload.VideoPath == "" && payload.SourceURL == "" {
		return nil, &ValidationError{Field: "video_path", Reason: "or source_url is required"}
	}

	job := &domain.Job{
		ID:      uuid.New().String(),
		Type:    domain.JobTypeProcessReel,
		Payload: payload,
		State:   domain.JobStateWaiting,
	}
	if err := q.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	logger.CtxInfo(ctx, "Enqueued job %s for reel %s", job.ID, payload.ReelID)
	return job, nil
}

// Status returns the current job record.
func (q *Queue) Status(ctx context.Context, id string) (*domain.Job, error) {
	return q.jobs.GetByID(ctx, id)
}

// Counts reports the number of jobs per queue state.
func (q *Queue) Counts(ctx context.Context) (map[domain.JobState]int64, error) {
	counts := make(map[domain.JobState]int64, 5)
	for _, state := range []domain.JobState{
		domain.JobStateWaiting,
		domain.JobStateActive,
		domain.JobStateDelayed,
		domain.JobStateCompleted,
		domain.JobStateFailed,
	} {
		n, err := q.jobs.CountByState(ctx, state)
		if err != nil {
			return nil, err
		}
		counts[state] = n
	}
	return counts, nil
}
