package models

import "time"

// JobStatus represents the current state of a processing job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// IsTerminal reports whether the job has reached a final state.
// Jobs are append-only history and are never mutated after this.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ProcessingJob is one auditable execution of the ingestion pipeline
// against one source
type ProcessingJob struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	SourceID       uint       `gorm:"index;not null" json:"source_id"`
	JobType        string     `gorm:"not null" json:"job_type"` // fetch, cleanup
	Status         JobStatus  `gorm:"index;default:'pending'" json:"status"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ItemsProcessed int        `json:"items_processed"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	Metadata       JSON       `gorm:"type:json" json:"metadata"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// Source is a registered upstream data provider
type Source struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	Type      string    `gorm:"not null" json:"type"` // repository, rss
	Enabled   bool      `gorm:"default:true" json:"enabled"`
	Config    JSON      `gorm:"type:json" json:"config"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Timespan selects the trailing window a sync run covers
type Timespan string

const (
	TimespanDaily   Timespan = "daily"
	TimespanWeekly  Timespan = "weekly"
	TimespanMonthly Timespan = "monthly"
)

// Valid reports whether the timespan is one of the supported windows
func (t Timespan) Valid() bool {
	switch t {
	case TimespanDaily, TimespanWeekly, TimespanMonthly:
		return true
	}
	return false
}

// Days returns the window length in days
func (t Timespan) Days() int {
	switch t {
	case TimespanWeekly:
		return 7
	case TimespanMonthly:
		return 30
	default:
		return 1
	}
}
