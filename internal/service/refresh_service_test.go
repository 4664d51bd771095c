package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"app/internal/logger"
	"app/internal/model"
)

type refreshFixture struct {
	svc         RefreshService
	jobs        *fakeJobRepo
	fetcher     *fakeFetcher
	publisher   *fakePublisher
	archiver    *fakeArchiver
	competitors *fakeCompetitorRepo
}

func newRefreshFixture(t *testing.T, fetcher *fakeFetcher) *refreshFixture {
	t.Helper()
	jobs := newFakeJobRepo()
	competitors := &fakeCompetitorRepo{competitors: []model.Competitor{
		{ID: "c-1", UserID: "user-1", Name: "Acme"},
		{ID: "c-2", UserID: "user-1", Name: "Globex"},
	}}
	publisher := &fakePublisher{}
	archiver := &fakeArchiver{}
	log := logger.New()
	tracker := NewJobTracker(jobs, log)
	svc := NewRefreshService(tracker, fetcher, competitors, publisher, archiver, log)
	return &refreshFixture{
		svc: svc, jobs: jobs, fetcher: fetcher,
		publisher: publisher, archiver: archiver, competitors: competitors,
	}
}

func waitForJobStatus(t *testing.T, fx *refreshFixture, jobID string, want string) *model.Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := fx.jobs.GetByJobID(context.Background(), jobID)
		require.NoError(t, err)
		if job != nil && job.Status == want {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached status %s", jobID, want)
	return nil
}

func TestRefreshStartSuccess(t *testing.T) {
	fetcher := &fakeFetcher{
		envOK:  true,
		result: FetchResult{Success: true, Logs: "Fetched 9 ads", AdsCount: 9},
	}
	fx := newRefreshFixture(t, fetcher)

	res, err := fx.svc.Start(context.Background(), "user-1", "meta", false)
	require.NoError(t, err)
	assert.Equal(t, "started", res.Status)
	assert.Equal(t, 2, res.CompetitorsCount)
	assert.Equal(t, 60, res.EstimatedTime)
	assert.Contains(t, res.Message, "2 competitors")

	job := waitForJobStatus(t, fx, res.JobID, model.JobStatusCompleted)
	assert.Equal(t, 9, job.AdsFetched)
	require.NotNil(t, job.Logs)
	assert.Equal(t, "Fetched 9 ads", *job.Logs)
	assert.Nil(t, job.ErrorMessage)

	require.NoError(t, fx.svc.Shutdown(context.Background()))
	assert.Equal(t, 1, fetcher.runCount())
	// "pending" is published from the request goroutine, so its order
	// relative to "running" is not guaranteed.
	assert.ElementsMatch(t, []string{"pending", "running", "completed"}, fx.publisher.statuses())
	assert.Equal(t, "Fetched 9 ads", fx.archiver.archived[res.JobID])
}

func TestRefreshStartFetcherUnavailable(t *testing.T) {
	fetcher := &fakeFetcher{envOK: false, envMsg: "Node.js is not installed"}
	fx := newRefreshFixture(t, fetcher)

	_, err := fx.svc.Start(context.Background(), "user-1", "meta", false)
	assert.ErrorIs(t, err, ErrFetcherUnavailable)
	assert.Equal(t, 0, fetcher.runCount())
}

func TestRefreshStartConflict(t *testing.T) {
	fetcher := &fakeFetcher{envOK: true, release: make(chan struct{}), started: make(chan struct{})}
	fx := newRefreshFixture(t, fetcher)
	ctx := context.Background()

	_, err := fx.svc.Start(ctx, "user-1", "meta", false)
	require.NoError(t, err)
	<-fetcher.started

	t.Run("second start is rejected", func(t *testing.T) {
		_, err := fx.svc.Start(ctx, "user-1", "meta", false)
		assert.ErrorIs(t, err, ErrJobAlreadyRunning)
	})

	t.Run("force bypasses the check", func(t *testing.T) {
		res, err := fx.svc.Start(ctx, "user-1", "meta", true)
		require.NoError(t, err)
		assert.NotEmpty(t, res.JobID)
	})

	close(fetcher.release)
	require.NoError(t, fx.svc.Shutdown(ctx))
}

func TestRefreshFailureTruncatesLogs(t *testing.T) {
	longLogs := strings.Repeat("x", 12000)
	fetcher := &fakeFetcher{envOK: true, result: FetchResult{Success: false, Logs: longLogs}}
	fx := newRefreshFixture(t, fetcher)

	res, err := fx.svc.Start(context.Background(), "user-1", "all", false)
	require.NoError(t, err)

	job := waitForJobStatus(t, fx, res.JobID, model.JobStatusFailed)
	require.NotNil(t, job.Logs)
	assert.Len(t, *job.Logs, 10000+len("\n...[truncated]"))
	assert.True(t, strings.HasSuffix(*job.Logs, "\n...[truncated]"))
	require.NotNil(t, job.ErrorMessage)
	assert.Len(t, *job.ErrorMessage, 500)

	require.NoError(t, fx.svc.Shutdown(context.Background()))
}

func TestRefreshCancel(t *testing.T) {
	fetcher := &fakeFetcher{envOK: true, release: make(chan struct{}), started: make(chan struct{})}
	fx := newRefreshFixture(t, fetcher)
	ctx := context.Background()

	res, err := fx.svc.Start(ctx, "user-1", "meta", false)
	require.NoError(t, err)
	<-fetcher.started

	t.Run("unknown job", func(t *testing.T) {
		assert.ErrorIs(t, fx.svc.Cancel(ctx, "user-1", "no-such-job"), ErrJobNotFound)
	})

	t.Run("someone else's job", func(t *testing.T) {
		assert.ErrorIs(t, fx.svc.Cancel(ctx, "user-2", res.JobID), ErrJobForbidden)
	})

	t.Run("owner cancels a running job", func(t *testing.T) {
		require.NoError(t, fx.svc.Cancel(ctx, "user-1", res.JobID))
		job, err := fx.jobs.GetByJobID(ctx, res.JobID)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusFailed, job.Status)
		require.NotNil(t, job.ErrorMessage)
		assert.Equal(t, "Cancelled by user", *job.ErrorMessage)
	})

	close(fetcher.release)
	require.NoError(t, fx.svc.Shutdown(ctx))
}

func TestRefreshCancelTerminalJob(t *testing.T) {
	fetcher := &fakeFetcher{envOK: true, result: FetchResult{Success: true, Logs: "ok", AdsCount: 1}}
	fx := newRefreshFixture(t, fetcher)
	ctx := context.Background()

	res, err := fx.svc.Start(ctx, "user-1", "meta", false)
	require.NoError(t, err)
	waitForJobStatus(t, fx, res.JobID, model.JobStatusCompleted)
	require.NoError(t, fx.svc.Shutdown(ctx))

	err = fx.svc.Cancel(ctx, "user-1", res.JobID)
	assert.ErrorIs(t, err, ErrJobNotCancellable)

	// The row is untouched.
	job, err := fx.jobs.GetByJobID(ctx, res.JobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, job.Status)
}

func TestRefreshJobStatusOwnership(t *testing.T) {
	fetcher := &fakeFetcher{envOK: true, result: FetchResult{Success: true, AdsCount: 2, Logs: "ok"}}
	fx := newRefreshFixture(t, fetcher)
	ctx := context.Background()

	res, err := fx.svc.Start(ctx, "user-1", "meta", false)
	require.NoError(t, err)
	waitForJobStatus(t, fx, res.JobID, model.JobStatusCompleted)
	require.NoError(t, fx.svc.Shutdown(ctx))

	display, err := fx.svc.JobStatus(ctx, "user-1", res.JobID)
	require.NoError(t, err)
	assert.Equal(t, res.JobID, display.JobID)
	assert.Equal(t, 100.0, display.Progress)

	// Foreign jobs are indistinguishable from missing ones.
	_, err = fx.svc.JobStatus(ctx, "user-2", res.JobID)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestRefreshEstimateTime(t *testing.T) {
	fetcher := &fakeFetcher{envOK: true}
	fx := newRefreshFixture(t, fetcher)

	est, err := fx.svc.EstimateTime(context.Background(), "user-1", "all")
	require.NoError(t, err)
	assert.Equal(t, 240, est.EstimatedSeconds)
	assert.Equal(t, 4.0, est.EstimatedMinutes)
	assert.Equal(t, 2, est.CompetitorsCount)
	assert.Equal(t, 4, est.PlatformsCount)
}

func TestRefreshStats(t *testing.T) {
	fetcher := &fakeFetcher{envOK: true}
	fx := newRefreshFixture(t, fetcher)
	ctx := context.Background()

	require.NoError(t, fx.jobs.Insert(ctx, &model.Job{JobID: "a", UserID: "user-1", Status: model.JobStatusCompleted, AdsFetched: 10}))
	require.NoError(t, fx.jobs.Insert(ctx, &model.Job{JobID: "b", UserID: "user-1", Status: model.JobStatusFailed}))
	require.NoError(t, fx.jobs.Insert(ctx, &model.Job{JobID: "c", UserID: "user-2", Status: model.JobStatusCompleted, AdsFetched: 5}))

	stats, err := fx.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalJobs)
	assert.Equal(t, 2, stats.CompletedJobs)
	assert.InDelta(t, 66.7, stats.SuccessRate, 0.1)
	assert.Equal(t, 15, stats.TotalAdsFetched)
}

func TestRefreshUserJobs(t *testing.T) {
	fetcher := &fakeFetcher{envOK: true, release: make(chan struct{}), started: make(chan struct{})}
	fx := newRefreshFixture(t, fetcher)
	ctx := context.Background()

	res, err := fx.svc.Start(ctx, "user-1", "meta", false)
	require.NoError(t, err)
	<-fetcher.started
	waitForJobStatus(t, fx, res.JobID, model.JobStatusRunning)

	jobs, hasActive, err := fx.svc.UserJobs(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.True(t, hasActive)
	assert.Equal(t, "🔄", jobs[0].StatusEmoji)

	close(fetcher.release)
	require.NoError(t, fx.svc.Shutdown(ctx))
}
