package domain

import "time"

// ReelStatus represents the processing status of a reel.
// Transitions are strictly pending -> processing -> completed|failed.
type ReelStatus string

const (
	ReelStatusPending    ReelStatus = "pending"
	ReelStatusProcessing ReelStatus = "processing"
	ReelStatusCompleted  ReelStatus = "completed"
	ReelStatusFailed     ReelStatus = "failed"
)

// Reel represents a short video submitted for venue extraction.
// The worker owning the active attempt is the only mutator after submission.
type Reel struct {
	ID              string         `gorm:"type:text;primaryKey" json:"id"`
	UserID          string         `gorm:"type:text;not null;index:idx_reels_user" json:"user_id"`
	SourceURL       string         `gorm:"type:text" json:"source_url,omitempty"`
	VideoPath       string         `gorm:"type:text;not null" json:"video_path"`
	Status          ReelStatus     `gorm:"type:text;index:idx_reels_status;default:pending" json:"status"`
	Progress        int            `gorm:"default:0" json:"progress"`
	Transcript      string         `gorm:"type:text" json:"transcript,omitempty"`
	RecognizedTexts StringArray    `gorm:"type:text" json:"recognized_texts"`
	RawEntities     *VenueEntities `gorm:"type:text" json:"raw_entities,omitempty"`
	Error           string         `gorm:"type:text" json:"error,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// TableName returns the database table name for Reel.
func (Reel) TableName() string {
	return "reels"
}

// Terminal reports whether the reel has reached a terminal status.
func (r *Reel) Terminal() bool {
	return r.Status == ReelStatusCompleted || r.Status == ReelStatusFailed
}
