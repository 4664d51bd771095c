package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"app/internal/model"
)

// JobRepository persists ads_fetch_jobs rows. The store is authoritative for
// job state; callers may layer caches on top.
type JobRepository interface {
	Insert(ctx context.Context, j *model.Job) error
	Update(ctx context.Context, jobID string, update model.JobUpdate) error
	GetByJobID(ctx context.Context, jobID string) (*model.Job, error)
	ListByUserID(ctx context.Context, userID string, limit int) ([]model.Job, error)
	CountRunningByUserID(ctx context.Context, userID string) (int, error)
	ListRunningStartedBefore(ctx context.Context, cutoff time.Time) ([]model.Job, error)
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Statistics(ctx context.Context, userID string) (*model.JobStatistics, error)
}

type jobRepo struct {
	db *sql.DB
}

func NewJobRepo(db *sql.DB) JobRepository {
	return &jobRepo{db: db}
}

const jobColumns = `id, job_id, user_id, status, platform, total_competitors,
	ads_fetched, logs, error_message, start_time, end_time, created_at, updated_at`

func scanJob(scan func(dest ...any) error) (*model.Job, error) {
	var j model.Job
	err := scan(&j.ID, &j.JobID, &j.UserID, &j.Status, &j.Platform, &j.TotalCompetitors,
		&j.AdsFetched, &j.Logs, &j.ErrorMessage, &j.StartTime, &j.EndTime, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	j.ComputeDuration()
	return &j, nil
}

func (r *jobRepo) Insert(ctx context.Context, j *model.Job) error {
	query := `INSERT INTO ads_fetch_jobs (job_id, user_id, status, platform, total_competitors, ads_fetched, start_time)
              VALUES ($1, $2, $3, $4, $5, $6, $7)
              RETURNING id, created_at, updated_at`
	return r.db.QueryRowContext(ctx, query,
		j.JobID, j.UserID, j.Status, j.Platform, j.TotalCompetitors, j.AdsFetched, j.StartTime).
		Scan(&j.ID, &j.CreatedAt, &j.UpdatedAt)
}

// Update merges the supplied fields into the row; unspecified fields are left
// untouched. updated_at is always stamped.
func (r *jobRepo) Update(ctx context.Context, jobID string, update model.JobUpdate) error {
	sets := []string{"updated_at = NOW()"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if update.Status != nil {
		sets = append(sets, "status = "+arg(*update.Status))
	}
	if update.AdsFetched != nil {
		sets = append(sets, "ads_fetched = "+arg(*update.AdsFetched))
	}
	if update.Logs != nil {
		sets = append(sets, "logs = "+arg(*update.Logs))
	}
	if update.ErrorMessage != nil {
		sets = append(sets, "error_message = "+arg(*update.ErrorMessage))
	}
	if update.EndTime != nil {
		sets = append(sets, "end_time = "+arg(*update.EndTime))
	}

	query := `UPDATE ads_fetch_jobs SET ` + strings.Join(sets, ", ") +
		` WHERE job_id = ` + arg(jobID)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *jobRepo) GetByJobID(ctx context.Context, jobID string) (*model.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM ads_fetch_jobs WHERE job_id = $1`
	return scanJob(r.db.QueryRowContext(ctx, query, jobID).Scan)
}

func (r *jobRepo) ListByUserID(ctx context.Context, userID string, limit int) ([]model.Job, error) {
	query := `SELECT ` + jobColumns + `
              FROM ads_fetch_jobs
              WHERE user_id = $1
              ORDER BY created_at DESC
              LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectJobs(rows)
}

func (r *jobRepo) CountRunningByUserID(ctx context.Context, userID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM ads_fetch_jobs WHERE user_id = $1 AND status = $2`
	if err := r.db.QueryRowContext(ctx, query, userID, model.JobStatusRunning).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *jobRepo) ListRunningStartedBefore(ctx context.Context, cutoff time.Time) ([]model.Job, error) {
	query := `SELECT ` + jobColumns + `
              FROM ads_fetch_jobs
              WHERE status = $1 AND start_time < $2`
	rows, err := r.db.QueryContext(ctx, query, model.JobStatusRunning, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectJobs(rows)
}

func (r *jobRepo) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ads_fetch_jobs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Statistics aggregates job rows; userID scopes the aggregation when
// non-empty.
func (r *jobRepo) Statistics(ctx context.Context, userID string) (*model.JobStatistics, error) {
	query := `SELECT COUNT(*),
                     COUNT(*) FILTER (WHERE status = 'completed'),
                     COUNT(*) FILTER (WHERE status = 'failed'),
                     COUNT(*) FILTER (WHERE status = 'running'),
                     COUNT(*) FILTER (WHERE status = 'pending'),
                     COALESCE(SUM(ads_fetched), 0),
                     COALESCE(SUM(EXTRACT(EPOCH FROM (end_time - start_time)))
                         FILTER (WHERE end_time IS NOT NULL AND start_time IS NOT NULL), 0),
                     COUNT(*) FILTER (WHERE end_time IS NOT NULL AND start_time IS NOT NULL)
              FROM ads_fetch_jobs
              WHERE ($1 = '' OR user_id::text = $1)`
	var stats model.JobStatistics
	var totalDuration float64
	var withDuration int
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&stats.TotalJobs, &stats.Completed, &stats.Failed, &stats.Running, &stats.Pending,
		&stats.TotalAdsFetched, &totalDuration, &withDuration)
	if err != nil {
		return nil, err
	}
	if withDuration > 0 {
		stats.TotalDurationSeconds = int(totalDuration)
		stats.AvgDurationSeconds = totalDuration / float64(withDuration)
	}
	return &stats, nil
}

func collectJobs(rows *sql.Rows) ([]model.Job, error) {
	jobs := []model.Job{}
	for rows.Next() {
		j, err := scanJob(rows.Scan)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return jobs, nil
}
