package repository

import (
	"context"
	"errors"
	"time"

	"github.com/timmy/reelscout/internal/domain"
	"gorm.io/gorm"
)

// PlaceRepository handles canonical place data operations.
type PlaceRepository struct {
	db *gorm.DB
}

// NewPlaceRepository creates a new PlaceRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *PlaceRepository: repository instance bound to db.
func NewPlaceRepository(db *gorm.DB) *PlaceRepository {
	return &PlaceRepository{db: db}
}

// GetByExternalID retrieves a place by its external place identifier.
func (r *PlaceRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Place, error) {
	var place domain.Place
	if err := r.db.WithContext(ctx).First(&place, "external_id = ?", externalID).Error; err != nil {
		return nil, err
	}
	return &place, nil
}

// GetByID retrieves a place by its ID.
func (r *PlaceRepository) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	var place domain.Place
	if err := r.db.WithContext(ctx).First(&place, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &place, nil
}

// Upsert creates the place on first resolution of its external ID, or merges
// newly observed specialties into the existing record. Existing fields are
// never overwritten destructively.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - place: candidate place record; Specialties holds the newly observed set.
// Returns:
//   - *domain.Place: the canonical record after create or merge.
//   - error: non-nil if the lookup or write fails.
func (r *PlaceRepository) Upsert(ctx context.Context, place *domain.Place) (*domain.Place, error) {
	existing, err := r.GetByExternalID(ctx, place.ExternalID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if err := r.db.WithContext(ctx).Create(place).Error; err != nil {
			return nil, err
		}
		return place, nil
	}

	// Merge: union new specialties, skip duplicates.
	changed := false
	for _, s := range place.Specialties {
		if !existing.Specialties.Contains(s) {
			existing.Specialties = append(existing.Specialties, s)
			changed = true
		}
	}
	if changed {
		existing.UpdatedAt = time.Now()
		if err := r.db.WithContext(ctx).Save(existing).Error; err != nil {
			return nil, err
		}
	}
	return existing, nil
}

// List retrieves places with pagination, newest first.
func (r *PlaceRepository) List(ctx context.Context, category domain.Category, limit, offset int) ([]domain.Place, error) {
	var places []domain.Place
	query := r.db.WithContext(ctx)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&places).Error; err != nil {
		return nil, err
	}
	return places, nil
}
