package models

// JobStatus is the review state of a ledger row.
type JobStatus string

const (
	JobStatusNew     JobStatus = "new"
	JobStatusViewed  JobStatus = "viewed"
	JobStatusSaved   JobStatus = "saved"
	JobStatusDeleted JobStatus = "deleted" // terminal, soft
)

// Notification frequencies a user can pick.
const (
	FrequencyDaily      = "daily"
	FrequencyWeekly     = "weekly"
	FrequencyEvery3Days = "every_3_days"
)

// DefaultMaxDigestJobs bounds a digest when the preference row predates
// the max_jobs column.
const DefaultMaxDigestJobs = 5

func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusNew, JobStatusViewed, JobStatusSaved, JobStatusDeleted:
		return true
	}
	return false
}

// Active reports whether the row still shows on the dashboard.
func (s JobStatus) Active() bool {
	return s != JobStatusDeleted
}
