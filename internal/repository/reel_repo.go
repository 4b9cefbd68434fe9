package repository

import (
	"context"
	"time"

	"github.com/timmy/reelscout/internal/domain"
	"gorm.io/gorm"
)

// ReelRepository handles reel data operations.
type ReelRepository struct {
	db *gorm.DB
}

// NewReelRepository creates a new ReelRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *ReelRepository: repository instance bound to db.
func NewReelRepository(db *gorm.DB) *ReelRepository {
	return &ReelRepository{db: db}
}

// Create inserts a new reel record.
func (r *ReelRepository) Create(ctx context.Context, reel *domain.Reel) error {
	return r.db.WithContext(ctx).Create(reel).Error
}

// GetByID retrieves a reel by its ID.
func (r *ReelRepository) GetByID(ctx context.Context, id string) (*domain.Reel, error) {
	var reel domain.Reel
	if err := r.db.WithContext(ctx).First(&reel, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reel, nil
}

// Update persists all fields of an existing reel record.
func (r *ReelRepository) Update(ctx context.Context, reel *domain.Reel) error {
	reel.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(reel).Error
}

// UpdateProgress sets the processing checkpoint, optionally transitioning
// status at the same time. Progress is monotonically non-decreasing within
// one attempt; callers own that invariant.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: reel ID.
//   - progress: checkpoint percentage in [0,100].
//   - status: new status, or empty to leave unchanged.
// Returns:
//   - error: non-nil if the update fails.
func (r *ReelRepository) UpdateProgress(ctx context.Context, id string, progress int, status domain.ReelStatus) error {
	updates := map[string]interface{}{
		"progress":   progress,
		"updated_at": time.Now(),
	}
	if status != "" {
		updates["status"] = status
	}
	return r.db.WithContext(ctx).Model(&domain.Reel{}).Where("id = ?", id).Updates(updates).Error
}

// MarkFailed transitions the reel to failed with the triggering error message.
func (r *ReelRepository) MarkFailed(ctx context.Context, id string, errMsg string) error {
	return r.db.WithContext(ctx).Model(&domain.Reel{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     domain.ReelStatusFailed,
		"error":      errMsg,
		"updated_at": time.Now(),
	}).Error
}

// MarkCompleted transitions the reel to completed at full progress.
func (r *ReelRepository) MarkCompleted(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&domain.Reel{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     domain.ReelStatusCompleted,
		"progress":   100,
		"updated_at": time.Now(),
	}).Error
}

// ListByUser retrieves reels for a user, newest first.
func (r *ReelRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Reel, error) {
	var reels []domain.Reel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&reels).Error; err != nil {
		return nil, err
	}
	return reels, nil
}
