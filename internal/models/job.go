package models

import "time"

// JobListing is a canonical stored listing. URL is the normalized form
// (no query, no fragment, no trailing slash) and is globally unique.
// Rows are immutable after insertion; only the stale-job cleanup and the
// user-deletion cascade remove them.
type JobListing struct {
	BaseModel
	Source      string `gorm:"not null"`
	Title       string `gorm:"not null"`
	Company     string `gorm:"not null;index"`
	Location    string
	URL         string `gorm:"uniqueIndex;not null"`
	Description string `gorm:"type:text"`
	SalaryMin   *int
}

// UserJob is the per-(user,job) ledger row. One row per pair; created the
// first time a job scores for a user, never duplicated on re-match.
type UserJob struct {
	BaseModel
	UserID     string    `gorm:"not null;uniqueIndex:idx_user_job"`
	JobID      string    `gorm:"not null;uniqueIndex:idx_user_job;index"`
	Score      int       `gorm:"not null"` // 0..10
	Status     JobStatus `gorm:"type:varchar(20);default:'new';not null;index"`
	ViewedAt   *time.Time
	NotifiedAt *time.Time `gorm:"index"`

	Job *JobListing `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE"`
}

// JobSearchRun records one automatic or forced search cycle for a user.
// Only the 8 most recent rows per user are kept.
type JobSearchRun struct {
	BaseModel
	UserID       string `gorm:"not null;index"`
	Inserted     int    `gorm:"not null"`
	TriedQueries string `gorm:"type:text"` // JSON list
	Sources      string `gorm:"type:text"` // JSON object, source -> count
}
