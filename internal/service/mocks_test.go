package service

import (
	"context"
	"sync"
	"time"

	"app/internal/model"
	"app/internal/pubsub"
)

// fakeJobRepo is an in-memory JobRepository for service tests.
type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*model.Job

	insertErr error
	updateErr error
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[string]*model.Job)}
}

func (r *fakeJobRepo) Insert(ctx context.Context, j *model.Job) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	j.CreatedAt = now
	j.UpdatedAt = now
	cp := *j
	r.jobs[j.JobID] = &cp
	return nil
}

func (r *fakeJobRepo) Update(ctx context.Context, jobID string, update model.JobUpdate) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[jobID]
	if !ok {
		return nil
	}
	if update.Status != nil {
		j.Status = *update.Status
	}
	if update.AdsFetched != nil {
		j.AdsFetched = *update.AdsFetched
	}
	if update.Logs != nil {
		j.Logs = update.Logs
	}
	if update.ErrorMessage != nil {
		j.ErrorMessage = update.ErrorMessage
	}
	if update.EndTime != nil {
		j.EndTime = update.EndTime
	}
	j.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeJobRepo) GetByJobID(ctx context.Context, jobID string) (*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[jobID]
	if !ok {
		return nil, nil
	}
	cp := *j
	cp.ComputeDuration()
	return &cp, nil
}

func (r *fakeJobRepo) ListByUserID(ctx context.Context, userID string, limit int) ([]model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Job
	for _, j := range r.jobs {
		if j.UserID == userID {
			out = append(out, *j)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeJobRepo) CountRunningByUserID(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, j := range r.jobs {
		if j.UserID == userID && j.Status == model.JobStatusRunning {
			count++
		}
	}
	return count, nil
}

func (r *fakeJobRepo) ListRunningStartedBefore(ctx context.Context, cutoff time.Time) ([]model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Job
	for _, j := range r.jobs {
		if j.Status == model.JobStatusRunning && j.StartTime != nil && j.StartTime.Before(cutoff) {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (r *fakeJobRepo) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, j := range r.jobs {
		if j.CreatedAt.Before(cutoff) {
			delete(r.jobs, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *fakeJobRepo) Statistics(ctx context.Context, userID string) (*model.JobStatistics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &model.JobStatistics{}
	for _, j := range r.jobs {
		if userID != "" && j.UserID != userID {
			continue
		}
		stats.TotalJobs++
		stats.TotalAdsFetched += j.AdsFetched
		switch j.Status {
		case model.JobStatusCompleted:
			stats.Completed++
		case model.JobStatusFailed:
			stats.Failed++
		case model.JobStatusRunning:
			stats.Running++
		case model.JobStatusPending:
			stats.Pending++
		}
	}
	return stats, nil
}

// fakeCompetitorRepo serves a fixed roster for one user.
type fakeCompetitorRepo struct {
	competitors []model.Competitor
	listErr     error
}

func (r *fakeCompetitorRepo) ListActiveByUserID(ctx context.Context, userID string) ([]model.Competitor, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []model.Competitor
	for _, c := range r.competitors {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCompetitorRepo) CountActiveByUserID(ctx context.Context, userID string) (int, error) {
	list, err := r.ListActiveByUserID(ctx, userID)
	return len(list), err
}

func (r *fakeCompetitorRepo) FindActiveByName(ctx context.Context, userID, name string) (*model.Competitor, error) {
	for i := range r.competitors {
		if r.competitors[i].UserID == userID && r.competitors[i].Name == name {
			return &r.competitors[i], nil
		}
	}
	return nil, nil
}

func (r *fakeCompetitorRepo) GetByID(ctx context.Context, id, userID string) (*model.Competitor, error) {
	for i := range r.competitors {
		if r.competitors[i].ID == id && r.competitors[i].UserID == userID {
			return &r.competitors[i], nil
		}
	}
	return nil, nil
}

func (r *fakeCompetitorRepo) Create(ctx context.Context, c *model.Competitor) error {
	r.competitors = append(r.competitors, *c)
	return nil
}

func (r *fakeCompetitorRepo) Update(ctx context.Context, id, userID string, update model.CompetitorUpdate) (*model.Competitor, error) {
	return r.GetByID(ctx, id, userID)
}

func (r *fakeCompetitorRepo) SoftDelete(ctx context.Context, id, userID string) error {
	for i := range r.competitors {
		if r.competitors[i].ID == id && r.competitors[i].UserID == userID {
			r.competitors = append(r.competitors[:i], r.competitors[i+1:]...)
			return nil
		}
	}
	return nil
}

// fakeFetcher returns a canned result without spawning a process.
type fakeFetcher struct {
	envOK   bool
	envMsg  string
	result      FetchResult
	mu          sync.Mutex
	runs        int
	started     chan struct{}
	startedOnce sync.Once
	release     chan struct{}
}

func (f *fakeFetcher) VerifyEnvironment() (bool, string) {
	return f.envOK, f.envMsg
}

func (f *fakeFetcher) RunForUser(ctx context.Context, userID, platform string) FetchResult {
	f.mu.Lock()
	f.runs++
	f.mu.Unlock()
	if f.started != nil {
		f.startedOnce.Do(func() { close(f.started) })
	}
	if f.release != nil {
		<-f.release
	}
	return f.result
}

func (f *fakeFetcher) Info() EnvironmentInfo {
	return EnvironmentInfo{EnvironmentOK: f.envOK, EnvironmentMessage: f.envMsg}
}

func (f *fakeFetcher) runCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runs
}

// fakePublisher records published events.
type fakePublisher struct {
	mu     sync.Mutex
	events []pubsub.JobEvent
}

func (p *fakePublisher) PublishJobEvent(ctx context.Context, event pubsub.JobEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) statuses() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Status)
	}
	return out
}

// fakeArchiver records archived transcripts.
type fakeArchiver struct {
	mu       sync.Mutex
	archived map[string]string
	err      error
}

func (a *fakeArchiver) Archive(ctx context.Context, jobID, logs string) error {
	if a.err != nil {
		return a.err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.archived == nil {
		a.archived = make(map[string]string)
	}
	a.archived[jobID] = logs
	return nil
}
