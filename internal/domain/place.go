package domain

import "time"

// Place represents a canonical, deduplicated venue keyed by the external
// place identifier. Once created it is only merged, never overwritten.
type Place struct {
	ID           string      `gorm:"type:text;primaryKey" json:"id"`
	Name         string      `gorm:"type:text;not null" json:"name"`
	Address      string      `gorm:"type:text;not null" json:"address"`
	Longitude    float64     `json:"longitude"`
	Latitude     float64     `json:"latitude"`
	ExternalID   string      `gorm:"type:text;not null;uniqueIndex:idx_places_external" json:"external_id"`
	Rating       *float64    `json:"rating,omitempty"`
	Specialties  StringArray `gorm:"type:text" json:"specialties"`
	Category     Category    `gorm:"type:text;index:idx_places_category;default:other" json:"category"`
	Photos       StringArray `gorm:"type:text" json:"photos"`
	ExternalData JSONMap     `gorm:"type:text" json:"external_data"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// TableName returns the database table name for Place.
func (Place) TableName() string {
	return "places"
}
