package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"app/internal/model"
	"app/internal/repository"
)

// platformCount maps a platform selector to the number of scraper passes it
// triggers. "all" fans out to every supported platform.
var platformCount = map[string]int{
	"meta":            1,
	"google":          1,
	"linkedin":        1,
	"tiktok":          1,
	model.PlatformAll: 4,
}

const stuckJobMessage = "Job was stuck and automatically failed"

// JobDisplay is the presentation form of a job: status glyph, human duration
// and a coarse progress estimate for the frontend poller.
type JobDisplay struct {
	JobID            string  `json:"job_id"`
	Status           string  `json:"status"`
	StatusEmoji      string  `json:"status_emoji"`
	Platform         string  `json:"platform"`
	TotalCompetitors int     `json:"total_competitors"`
	AdsFetched       int     `json:"ads_fetched"`
	Duration         string  `json:"duration"`
	Progress         float64 `json:"progress"`
	ErrorMessage     *string `json:"error_message,omitempty"`
	StartTime        *string `json:"start_time,omitempty"`
	EndTime          *string `json:"end_time,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

// JobTracker owns ads_fetch_jobs bookkeeping. It keeps a small in-memory
// cache of recently touched jobs in front of the table so the frontend's
// status poller does not hammer the database mid-fetch.
type JobTracker interface {
	Register(ctx context.Context, jobID, userID, platform string, totalCompetitors int) (*model.Job, error)
	Update(ctx context.Context, jobID string, update model.JobUpdate) error
	Get(ctx context.Context, jobID string) (*model.Job, error)
	UserJobs(ctx context.Context, userID string, limit int) ([]model.Job, error)
	RunningCount(ctx context.Context, userID string) (int, error)
	StuckJobs(ctx context.Context, maxAge time.Duration) ([]model.Job, error)
	MarkStuck(ctx context.Context, jobID string) error
	Statistics(ctx context.Context, userID string) (*model.JobStatistics, error)
	CleanupOldJobs(ctx context.Context, olderThan time.Duration) (int64, error)
	FormatForDisplay(job *model.Job, now time.Time) JobDisplay
	EstimateSeconds(totalCompetitors int, platform string) int
}

type jobTracker struct {
	repo   repository.JobRepository
	logger zerolog.Logger

	mu    sync.Mutex
	cache map[string]model.Job
}

func NewJobTracker(repo repository.JobRepository, logger zerolog.Logger) JobTracker {
	return &jobTracker{
		repo:   repo,
		logger: logger,
		cache:  make(map[string]model.Job),
	}
}

// Register inserts a pending job row and primes the cache.
func (t *jobTracker) Register(ctx context.Context, jobID, userID, platform string, totalCompetitors int) (*model.Job, error) {
	now := time.Now().UTC()
	job := &model.Job{
		JobID:            jobID,
		UserID:           userID,
		Status:           model.JobStatusPending,
		Platform:         platform,
		TotalCompetitors: totalCompetitors,
		AdsFetched:       0,
		StartTime:        &now,
	}
	if err := t.repo.Insert(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to register job: %w", err)
	}

	t.mu.Lock()
	t.cache[jobID] = *job
	t.mu.Unlock()

	t.logger.Info().Str("job_id", jobID).Str("user_id", userID).
		Str("platform", platform).Int("total_competitors", totalCompetitors).
		Msg("registered ads fetch job")
	return job, nil
}

// Update writes a partial update to the row and merges it into the cached
// copy. Moving to a terminal status stamps end_time unless the caller set one.
func (t *jobTracker) Update(ctx context.Context, jobID string, update model.JobUpdate) error {
	if update.Status != nil && update.EndTime == nil {
		if *update.Status == model.JobStatusCompleted || *update.Status == model.JobStatusFailed {
			now := time.Now().UTC()
			update.EndTime = &now
		}
	}
	if err := t.repo.Update(ctx, jobID, update); err != nil {
		return fmt.Errorf("failed to update job %s: %w", jobID, err)
	}

	t.mu.Lock()
	if cached, ok := t.cache[jobID]; ok {
		if update.Status != nil {
			cached.Status = *update.Status
		}
		if update.AdsFetched != nil {
			cached.AdsFetched = *update.AdsFetched
		}
		if update.Logs != nil {
			cached.Logs = update.Logs
		}
		if update.ErrorMessage != nil {
			cached.ErrorMessage = update.ErrorMessage
		}
		if update.EndTime != nil {
			cached.EndTime = update.EndTime
		}
		cached.UpdatedAt = time.Now().UTC()
		if cached.Terminal() {
			// Terminal jobs no longer need low-latency reads.
			delete(t.cache, jobID)
		} else {
			t.cache[jobID] = cached
		}
	}
	t.mu.Unlock()
	return nil
}

// Get returns the cached copy when the job is still in flight, otherwise the
// database row. A missing job yields (nil, nil).
func (t *jobTracker) Get(ctx context.Context, jobID string) (*model.Job, error) {
	t.mu.Lock()
	cached, ok := t.cache[jobID]
	t.mu.Unlock()
	if ok {
		job := cached
		job.ComputeDuration()
		return &job, nil
	}
	return t.repo.GetByJobID(ctx, jobID)
}

func (t *jobTracker) UserJobs(ctx context.Context, userID string, limit int) ([]model.Job, error) {
	return t.repo.ListByUserID(ctx, userID, limit)
}

// RunningCount reports how many of the user's jobs are currently running.
func (t *jobTracker) RunningCount(ctx context.Context, userID string) (int, error) {
	return t.repo.CountRunningByUserID(ctx, userID)
}

// StuckJobs returns running jobs whose start_time is older than maxAge.
func (t *jobTracker) StuckJobs(ctx context.Context, maxAge time.Duration) ([]model.Job, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	return t.repo.ListRunningStartedBefore(ctx, cutoff)
}

// MarkStuck fails a job that stopped reporting progress.
func (t *jobTracker) MarkStuck(ctx context.Context, jobID string) error {
	status := model.JobStatusFailed
	msg := stuckJobMessage
	if err := t.Update(ctx, jobID, model.JobUpdate{Status: &status, ErrorMessage: &msg}); err != nil {
		return err
	}
	t.logger.Warn().Str("job_id", jobID).Msg("marked stuck job as failed")
	return nil
}

func (t *jobTracker) Statistics(ctx context.Context, userID string) (*model.JobStatistics, error) {
	return t.repo.Statistics(ctx, userID)
}

// CleanupOldJobs deletes job rows created before now-olderThan.
func (t *jobTracker) CleanupOldJobs(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	deleted, err := t.repo.DeleteCreatedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		t.logger.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("cleaned up old jobs")
	}
	return deleted, nil
}

// EstimateSeconds guesses how long a fetch will run: thirty seconds per
// competitor per platform, capped at five minutes.
func (t *jobTracker) EstimateSeconds(totalCompetitors int, platform string) int {
	count, ok := platformCount[platform]
	if !ok {
		count = 1
	}
	estimate := totalCompetitors * 30 * count
	if estimate > 300 {
		estimate = 300
	}
	return estimate
}

// FormatForDisplay renders a job for the status endpoints. now is injected so
// running-job progress is testable.
func (t *jobTracker) FormatForDisplay(job *model.Job, now time.Time) JobDisplay {
	d := JobDisplay{
		JobID:            job.JobID,
		Status:           job.Status,
		StatusEmoji:      statusEmoji(job.Status),
		Platform:         job.Platform,
		TotalCompetitors: job.TotalCompetitors,
		AdsFetched:       job.AdsFetched,
		Duration:         "N/A",
		Progress:         t.progress(job, now),
		ErrorMessage:     job.ErrorMessage,
		CreatedAt:        job.CreatedAt.Format(time.RFC3339),
	}
	if job.StartTime != nil {
		s := job.StartTime.Format(time.RFC3339)
		d.StartTime = &s
		end := now
		if job.EndTime != nil {
			end = *job.EndTime
			e := job.EndTime.Format(time.RFC3339)
			d.EndTime = &e
		}
		if secs := int(end.Sub(*job.StartTime).Seconds()); secs >= 0 {
			d.Duration = formatDuration(secs)
		}
	}
	return d
}

// progress is a coarse percentage: terminal jobs are pinned, running jobs
// interpolate elapsed time against the estimate and never report done.
func (t *jobTracker) progress(job *model.Job, now time.Time) float64 {
	switch job.Status {
	case model.JobStatusCompleted:
		return 100
	case model.JobStatusFailed:
		return 0
	case model.JobStatusRunning:
		if job.StartTime == nil {
			return 50
		}
		estimated := t.EstimateSeconds(job.TotalCompetitors, job.Platform)
		if estimated == 0 {
			return 50
		}
		elapsed := now.Sub(*job.StartTime).Seconds()
		pct := elapsed / float64(estimated) * 100
		if pct > 95 {
			pct = 95
		}
		if pct < 0 {
			pct = 0
		}
		return math.Round(pct*10) / 10
	default:
		return 0
	}
}

func statusEmoji(status string) string {
	switch status {
	case model.JobStatusCompleted:
		return "✅"
	case model.JobStatusRunning:
		return "🔄"
	case model.JobStatusFailed:
		return "❌"
	case model.JobStatusPending:
		return "⏳"
	default:
		return "❓"
	}
}

// formatDuration renders whole seconds as "45s", "2m 5s" or "1h 1m".
func formatDuration(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	if seconds < 3600 {
		return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
	}
	return fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60)
}
