package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// JobType identifies the kind of work a job carries.
const JobTypeProcessReel = "PROCESS_REEL"

// JobState represents the queue lifecycle of a job.
type JobState string

const (
	JobStateWaiting   JobState = "waiting"
	JobStateActive    JobState = "active"
	JobStateDelayed   JobState = "delayed"
	JobStateCompleted JobState = "completed"
	JobStateFailed    JobState = "failed"
)

// JobPayload is the submission payload for a reel-processing job.
// Either VideoPath (direct upload) or SourceURL must be set.
type JobPayload struct {
	ReelID    string `json:"reel_id"`
	VideoPath string `json:"video_path,omitempty"`
	SourceURL string `json:"source_url,omitempty"`
	UserID    string `json:"user_id"`
}

// Value implements the driver.Valuer interface for database serialization.
func (p JobPayload) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements the sql.Scanner interface for database deserialization.
func (p *JobPayload) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan JobPayload")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, p)
}

// Job represents one queued reel-processing request and its retry
// accounting. Rows are mutated only by the queue and the worker holding
// the active attempt, and are purged after the retention window.
type Job struct {
	ID         string     `gorm:"type:text;primaryKey" json:"id"`
	Type       string     `gorm:"type:text;not null" json:"type"`
	Payload    JobPayload `gorm:"type:text" json:"payload"`
	State      JobState   `gorm:"type:text;index:idx_jobs_state;default:waiting" json:"state"`
	Priority   int        `gorm:"default:0" json:"priority"`
	Attempts   int        `gorm:"default:0" json:"attempts"`
	Progress   int        `gorm:"default:0" json:"progress"`
	Error      string     `gorm:"type:text" json:"error,omitempty"`
	NextRunAt  *time.Time `gorm:"index:idx_jobs_next_run" json:"next_run_at,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName returns the database table name for Job.
func (Job) TableName() string {
	return "jobs"
}

// Terminal reports whether the job has reached a terminal state.
func (j *Job) Terminal() bool {
	return j.State == JobStateCompleted || j.State == JobStateFailed
}
