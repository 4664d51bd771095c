package model

import "time"

// Job statuses. A job is terminal once completed or failed.
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// PlatformAll selects every supported platform in one fetch.
const PlatformAll = "all"

// SupportedPlatforms lists the platform selectors the scraper understands.
var SupportedPlatforms = []string{"meta", "google", "linkedin", "tiktok", PlatformAll}

// Job represents one ad-fetch request's lifecycle: a single row in
// ads_fetch_jobs identified by an opaque JobID.
type Job struct {
	ID               int64      `db:"id" json:"-"`
	JobID            string     `db:"job_id" json:"job_id"`
	UserID           string     `db:"user_id" json:"user_id"`
	Status           string     `db:"status" json:"status"`
	Platform         string     `db:"platform" json:"platform"`
	TotalCompetitors int        `db:"total_competitors" json:"total_competitors"`
	AdsFetched       int        `db:"ads_fetched" json:"ads_fetched"`
	Logs             *string    `db:"logs" json:"logs,omitempty"`
	ErrorMessage     *string    `db:"error_message" json:"error_message,omitempty"`
	StartTime        *time.Time `db:"start_time" json:"start_time,omitempty"`
	EndTime          *time.Time `db:"end_time" json:"end_time,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`

	// DurationSeconds is derived from StartTime/EndTime on read; it is not a
	// column of its own.
	DurationSeconds *int `db:"-" json:"duration_seconds,omitempty"`
}

// Terminal reports whether the job reached a final state.
func (j *Job) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// ComputeDuration fills DurationSeconds when both timestamps are present.
func (j *Job) ComputeDuration() {
	if j.StartTime == nil || j.EndTime == nil {
		return
	}
	secs := int(j.EndTime.Sub(*j.StartTime).Seconds())
	j.DurationSeconds = &secs
}

// JobUpdate carries the fields of a partial job update. Nil fields are left
// untouched; any provided field overwrites the prior value.
type JobUpdate struct {
	Status       *string
	AdsFetched   *int
	Logs         *string
	ErrorMessage *string
	EndTime      *time.Time
}

// JobStatistics aggregates job rows, optionally scoped to one user.
type JobStatistics struct {
	TotalJobs            int     `json:"total_jobs"`
	Completed            int     `json:"completed"`
	Failed               int     `json:"failed"`
	Running              int     `json:"running"`
	Pending              int     `json:"pending"`
	TotalAdsFetched      int     `json:"total_ads_fetched"`
	TotalDurationSeconds int     `json:"total_duration_seconds"`
	AvgDurationSeconds   float64 `json:"avg_duration_seconds"`
}
