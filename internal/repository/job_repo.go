package repository

import (
	"context"
	"errors"
	"time"

	"github.com/timmy/reelscout/internal/domain"
	"gorm.io/gorm"
)

// JobRepository handles queue job persistence. State transitions are driven
// exclusively by the queue and the worker holding the active attempt.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new JobRepository.
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new job record.
func (r *JobRepository) Create(ctx context.Context, job *domain.Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// GetByID retrieves a job by its ID.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	var job domain.Job
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// ClaimNext atomically claims the next runnable job: waiting jobs, or
// delayed jobs whose backoff has elapsed. The claimed job moves to active
// with its attempt counter incremented, guaranteeing at most one worker
// holds it.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - now: claim timestamp used for delay comparison.
// Returns:
//   - *domain.Job: claimed job, or nil when none is runnable.
//   - error: non-nil if the transaction fails.
func (r *JobRepository) ClaimNext(ctx context.Context, now time.Time) (*domain.Job, error) {
	var job domain.Job
	claimed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("state = ? OR (state = ? AND next_run_at <= ?)",
				domain.JobStateWaiting, domain.JobStateDelayed, now).
			Order("priority DESC, created_at ASC").
			First(&job).Error; err != nil {
			return err
		}

		// The state guard makes the claim atomic under concurrent
		// workers: a rival that selected the same row and committed
		// first leaves it active, and this update matches nothing.
		res := tx.Model(&domain.Job{}).
			Where("id = ? AND state IN ?", job.ID,
				[]domain.JobState{domain.JobStateWaiting, domain.JobStateDelayed}).
			Updates(map[string]interface{}{
				"state":       domain.JobStateActive,
				"attempts":    gorm.Expr("attempts + 1"),
				"started_at":  now,
				"next_run_at": nil,
				"updated_at":  now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		claimed = true
		return tx.First(&job, "id = ?", job.ID).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !claimed {
		return nil, nil
	}
	return &job, nil
}

// UpdateProgress sets the job progress percentage.
func (r *JobRepository) UpdateProgress(ctx context.Context, id string, progress int) error {
	return r.db.WithContext(ctx).Model(&domain.Job{}).Where("id = ?", id).Updates(map[string]interface{}{
		"progress":   progress,
		"updated_at": time.Now(),
	}).Error
}

// MarkCompleted transitions an active job to completed.
func (r *JobRepository) MarkCompleted(ctx context.Context, id string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&domain.Job{}).Where("id = ?", id).Updates(map[string]interface{}{
		"state":       domain.JobStateCompleted,
		"progress":    100,
		"finished_at": now,
		"updated_at":  now,
	}).Error
}

// MarkDelayed schedules a failed attempt for retry after its backoff delay.
func (r *JobRepository) MarkDelayed(ctx context.Context, id string, nextRun time.Time, errMsg string) error {
	return r.db.WithContext(ctx).Model(&domain.Job{}).Where("id = ?", id).Updates(map[string]interface{}{
		"state":       domain.JobStateDelayed,
		"next_run_at": nextRun,
		"error":       errMsg,
		"updated_at":  time.Now(),
	}).Error
}

// MarkFailed transitions a job to terminally failed after its attempt
// ceiling is exhausted. No further automatic retry occurs.
func (r *JobRepository) MarkFailed(ctx context.Context, id string, errMsg string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&domain.Job{}).Where("id = ?", id).Updates(map[string]interface{}{
		"state":       domain.JobStateFailed,
		"error":       errMsg,
		"finished_at": now,
		"updated_at":  now,
	}).Error
}

// PurgeTerminal deletes terminal jobs past their retention window.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - completedBefore: completed jobs finished before this time are purged.
//   - failedBefore: failed jobs finished before this time are purged.
// Returns:
//   - int64: number of purged rows.
//   - error: non-nil if the delete fails.
func (r *JobRepository) PurgeTerminal(ctx context.Context, completedBefore, failedBefore time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("(state = ? AND finished_at < ?) OR (state = ? AND finished_at < ?)",
			domain.JobStateCompleted, completedBefore,
			domain.JobStateFailed, failedBefore).
		Delete(&domain.Job{})
	return res.RowsAffected, res.Error
}

// CountByState counts jobs in the given state.
func (r *JobRepository) CountByState(ctx context.Context, state domain.JobState) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Job{}).Where("state = ?", state).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
