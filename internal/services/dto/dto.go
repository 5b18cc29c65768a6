package dto

import "time"

// ScoredJob is a listing decorated with per-user match data, the shape
// handed to digests and to the on-demand search trigger.
type ScoredJob struct {
	JobID        string     `json:"job_id"`
	Source       string     `json:"source"`
	Title        string     `json:"title"`
	Company      string     `json:"company"`
	Location     string     `json:"location"`
	URL          string     `json:"url"`
	Description  string     `json:"description"`
	SalaryMin    *int       `json:"salary_min,omitempty"`
	Score        int        `json:"score"` // 0..10
	IsNew        bool       `json:"is_new"`
	IsRemote     bool       `json:"is_remote"`
	Status       string     `json:"status"`
	MatchReasons []string   `json:"match_reasons,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	NotifiedAt   *time.Time `json:"notified_at,omitempty"`
}

// SearchSummary aggregates one search cycle for a user.
type SearchSummary struct {
	Ran       bool           `json:"ran"`
	Queries   []string       `json:"queries"`
	Fetched   int            `json:"fetched"`
	Inserted  int            `json:"inserted"`
	Attached  int            `json:"attached"`
	BySource  map[string]int `json:"by_source"`
	Digest    []ScoredJob    `json:"digest,omitempty"`
	SkipCause string         `json:"skip_cause,omitempty"`
}
