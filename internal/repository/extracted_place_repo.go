package repository

import (
	"context"

	"github.com/timmy/reelscout/internal/domain"
	"gorm.io/gorm"
)

// ExtractedPlaceRepository handles resolution audit records.
type ExtractedPlaceRepository struct {
	db *gorm.DB
}

// NewExtractedPlaceRepository creates a new ExtractedPlaceRepository.
func NewExtractedPlaceRepository(db *gorm.DB) *ExtractedPlaceRepository {
	return &ExtractedPlaceRepository{db: db}
}

// Create inserts a new audit record. Records are immutable after creation.
func (r *ExtractedPlaceRepository) Create(ctx context.Context, ep *domain.ExtractedPlace) error {
	return r.db.WithContext(ctx).Create(ep).Error
}

// ListByReel retrieves audit records for a reel, newest first.
func (r *ExtractedPlaceRepository) ListByReel(ctx context.Context, reelID string) ([]domain.ExtractedPlace, error) {
	var records []domain.ExtractedPlace
	if err := r.db.WithContext(ctx).
		Where("reel_id = ?", reelID).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ListNeedingReview retrieves low-confidence or unmatched extractions for
// manual curation.
func (r *ExtractedPlaceRepository) ListNeedingReview(ctx context.Context, limit, offset int) ([]domain.ExtractedPlace, error) {
	var records []domain.ExtractedPlace
	if err := r.db.WithContext(ctx).
		Where("needs_review = ?", true).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
