package domain

import "time"

// ExtractedPlace is the immutable audit record of one place-resolution
// attempt for a reel. One row is created per completed resolution regardless
// of outcome; NeedsReview routes unmatched or low-confidence extractions to
// manual curation.
type ExtractedPlace struct {
	ID              string    `gorm:"type:text;primaryKey" json:"id"`
	ReelID          string    `gorm:"type:text;not null;index:idx_extracted_places_reel" json:"reel_id"`
	RawName         string    `gorm:"type:text;not null" json:"raw_name"`
	RawAddress      string    `gorm:"type:text" json:"raw_address,omitempty"`
	Confidence      float64   `gorm:"index:idx_extracted_places_confidence" json:"confidence"`
	ResolvedPlaceID string    `gorm:"type:text" json:"resolved_place_id,omitempty"`
	NeedsReview     bool      `gorm:"index:idx_extracted_places_review" json:"needs_review"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName returns the database table name for ExtractedPlace.
func (ExtractedPlace) TableName() string {
	return "extracted_places"
}
