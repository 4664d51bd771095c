package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"app/internal/model"
	"app/internal/pubsub"
	"app/internal/repository"
)

var (
	ErrFetcherUnavailable = errors.New("ads fetching is currently disabled")
	ErrJobAlreadyRunning  = errors.New("an ads fetch is already in progress")
	ErrJobNotFound        = errors.New("job not found")
	ErrJobForbidden       = errors.New("job belongs to another user")
	ErrJobNotCancellable  = errors.New("job is already finished")
)

const (
	maxLogsLength  = 10000
	maxErrorLength = 500
	userJobsLimit  = 20
)

// StartResult is what the refresh endpoint returns right away while the fetch
// keeps running in the background.
type StartResult struct {
	JobID            string    `json:"job_id"`
	Status           string    `json:"status"`
	Message          string    `json:"message"`
	EstimatedTime    int       `json:"estimated_time"`
	CompetitorsCount int       `json:"competitors_count"`
	Platform         string    `json:"platform"`
	StartTime        time.Time `json:"start_time"`
}

// TimeEstimate predicts a fetch's duration before starting one.
type TimeEstimate struct {
	EstimatedSeconds int     `json:"estimated_seconds"`
	EstimatedMinutes float64 `json:"estimated_minutes"`
	CompetitorsCount int     `json:"competitors_count"`
	Platform         string  `json:"platform"`
	PlatformsCount   int     `json:"platforms_count"`
}

// FetchStats summarizes historical fetch outcomes.
type FetchStats struct {
	TotalJobs       int     `json:"total_jobs"`
	CompletedJobs   int     `json:"completed_jobs"`
	SuccessRate     float64 `json:"success_rate"`
	TotalAdsFetched int     `json:"total_ads_fetched"`
}

// LogArchiver stores a job's full transcript outside the database. Archival
// is best-effort; failures never fail the job.
type LogArchiver interface {
	Archive(ctx context.Context, jobID string, logs string) error
}

// RefreshService orchestrates ad-fetch jobs: it starts them, runs the scraper
// in a supervised goroutine, records the outcome and answers cancel requests.
type RefreshService interface {
	Start(ctx context.Context, userID, platform string, force bool) (*StartResult, error)
	Cancel(ctx context.Context, userID, jobID string) error
	EstimateTime(ctx context.Context, userID, platform string) (*TimeEstimate, error)
	UserJobs(ctx context.Context, userID string) ([]JobDisplay, bool, error)
	JobStatus(ctx context.Context, userID, jobID string) (*JobDisplay, error)
	Stats(ctx context.Context) (*FetchStats, error)
	Shutdown(ctx context.Context) error
}

type refreshService struct {
	tracker     JobTracker
	fetcher     AdsFetcher
	competitors repository.CompetitorRepository
	publisher   pubsub.Publisher
	archiver    LogArchiver
	logger      zerolog.Logger

	wg sync.WaitGroup
}

// NewRefreshService wires the orchestrator. publisher and archiver may be nil
// when the deployment has neither configured.
func NewRefreshService(tracker JobTracker, fetcher AdsFetcher, competitors repository.CompetitorRepository,
	publisher pubsub.Publisher, archiver LogArchiver, logger zerolog.Logger) RefreshService {
	return &refreshService{
		tracker:     tracker,
		fetcher:     fetcher,
		competitors: competitors,
		publisher:   publisher,
		archiver:    archiver,
		logger:      logger,
	}
}

// Start registers a pending job and launches the background fetch. Unless
// force is set, a user with a running job gets ErrJobAlreadyRunning.
func (s *refreshService) Start(ctx context.Context, userID, platform string, force bool) (*StartResult, error) {
	if ok, _ := s.fetcher.VerifyEnvironment(); !ok {
		return nil, ErrFetcherUnavailable
	}

	if !force {
		running, err := s.tracker.RunningCount(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to check running jobs: %w", err)
		}
		if running > 0 {
			return nil, ErrJobAlreadyRunning
		}
	}

	count, err := s.competitors.CountActiveByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count competitors: %w", err)
	}

	jobID := uuid.New().String()
	job, err := s.tracker.Register(ctx, jobID, userID, platform, count)
	if err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		// The request context dies with the response; background work gets
		// its own.
		s.runFetch(context.Background(), jobID, userID, platform)
	}()

	s.publishEvent(ctx, jobID, userID, model.JobStatusPending, 0)

	return &StartResult{
		JobID:            jobID,
		Status:           "started",
		Message:          fmt.Sprintf("Started fetching ads from %s for %d competitors", platform, count),
		EstimatedTime:    s.tracker.EstimateSeconds(count, platform),
		CompetitorsCount: count,
		Platform:         platform,
		StartTime:        *job.StartTime,
	}, nil
}

// runFetch is the body of one supervised fetch goroutine.
func (s *refreshService) runFetch(ctx context.Context, jobID, userID, platform string) {
	running := model.JobStatusRunning
	if err := s.tracker.Update(ctx, jobID, model.JobUpdate{Status: &running}); err != nil {
		s.logger.Error().Err(err).Str("job_id", jobID).Msg("failed to mark job running")
		return
	}
	s.publishEvent(ctx, jobID, userID, model.JobStatusRunning, 0)

	result := s.fetcher.RunForUser(ctx, userID, platform)

	if s.archiver != nil && result.Logs != "" {
		if err := s.archiver.Archive(ctx, jobID, result.Logs); err != nil {
			s.logger.Warn().Err(err).Str("job_id", jobID).Msg("failed to archive job logs")
		}
	}

	status := model.JobStatusFailed
	if result.Success {
		status = model.JobStatusCompleted
	}
	update := model.JobUpdate{Status: &status, AdsFetched: &result.AdsCount}
	if result.Logs != "" {
		logs := truncate(result.Logs, maxLogsLength, "\n...[truncated]")
		update.Logs = &logs
		if !result.Success {
			errMsg := truncate(result.Logs, maxErrorLength, "")
			update.ErrorMessage = &errMsg
		}
	}
	if err := s.tracker.Update(ctx, jobID, update); err != nil {
		s.logger.Error().Err(err).Str("job_id", jobID).Msg("failed to record job outcome")
		return
	}
	s.publishEvent(ctx, jobID, userID, status, result.AdsCount)

	s.logger.Info().Str("job_id", jobID).Str("status", status).
		Int("ads_fetched", result.AdsCount).Msg("background fetch finished")
}

// Cancel fails a pending or running job at the user's request. The scraper
// process itself is not interrupted; its eventual outcome update still lands
// but the job is already terminal in the UI.
func (s *refreshService) Cancel(ctx context.Context, userID, jobID string) error {
	job, err := s.tracker.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return ErrJobNotFound
	}
	if job.UserID != userID {
		return ErrJobForbidden
	}
	if job.Terminal() {
		return ErrJobNotCancellable
	}

	status := model.JobStatusFailed
	msg := "Cancelled by user"
	if err := s.tracker.Update(ctx, jobID, model.JobUpdate{Status: &status, ErrorMessage: &msg}); err != nil {
		return err
	}
	s.publishEvent(ctx, jobID, userID, "cancelled", job.AdsFetched)
	s.logger.Info().Str("job_id", jobID).Str("user_id", userID).Msg("job cancelled by user")
	return nil
}

func (s *refreshService) EstimateTime(ctx context.Context, userID, platform string) (*TimeEstimate, error) {
	count, err := s.competitors.CountActiveByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count competitors: %w", err)
	}
	platforms := platformCount[platform]
	if platforms == 0 {
		platforms = 1
	}
	seconds := s.tracker.EstimateSeconds(count, platform)
	return &TimeEstimate{
		EstimatedSeconds: seconds,
		EstimatedMinutes: float64(seconds*10/60) / 10,
		CompetitorsCount: count,
		Platform:         platform,
		PlatformsCount:   platforms,
	}, nil
}

// UserJobs returns the user's recent jobs formatted for display, plus whether
// any of them is still running.
func (s *refreshService) UserJobs(ctx context.Context, userID string) ([]JobDisplay, bool, error) {
	jobs, err := s.tracker.UserJobs(ctx, userID, userJobsLimit)
	if err != nil {
		return nil, false, err
	}
	now := time.Now().UTC()
	displays := make([]JobDisplay, 0, len(jobs))
	hasActive := false
	for i := range jobs {
		if jobs[i].Status == model.JobStatusRunning {
			hasActive = true
		}
		displays = append(displays, s.tracker.FormatForDisplay(&jobs[i], now))
	}
	return displays, hasActive, nil
}

func (s *refreshService) JobStatus(ctx context.Context, userID, jobID string) (*JobDisplay, error) {
	job, err := s.tracker.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	// A job belonging to someone else looks identical to a missing one.
	if job == nil || job.UserID != userID {
		return nil, ErrJobNotFound
	}
	display := s.tracker.FormatForDisplay(job, time.Now().UTC())
	return &display, nil
}

func (s *refreshService) Stats(ctx context.Context) (*FetchStats, error) {
	stats, err := s.tracker.Statistics(ctx, "")
	if err != nil {
		return nil, err
	}
	rate := 0.0
	if stats.TotalJobs > 0 {
		rate = float64(stats.Completed) / float64(stats.TotalJobs) * 100
	}
	return &FetchStats{
		TotalJobs:       stats.TotalJobs,
		CompletedJobs:   stats.Completed,
		SuccessRate:     rate,
		TotalAdsFetched: stats.TotalAdsFetched,
	}, nil
}

// Shutdown waits for in-flight fetch goroutines to finish or for ctx to
// expire, whichever comes first.
func (s *refreshService) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timed out waiting for fetch jobs: %w", ctx.Err())
	}
}

func (s *refreshService) publishEvent(ctx context.Context, jobID, userID, status string, adsFetched int) {
	if s.publisher == nil {
		return
	}
	event := pubsub.JobEvent{
		JobID:      jobID,
		UserID:     userID,
		Status:     status,
		AdsFetched: adsFetched,
		Timestamp:  time.Now().UTC(),
	}
	if err := s.publisher.PublishJobEvent(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("job_id", jobID).Msg("failed to publish job event")
	}
}

func truncate(s string, limit int, suffix string) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + suffix
}
