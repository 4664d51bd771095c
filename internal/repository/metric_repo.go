package repository

import (
	"context"
	"database/sql"
	"time"

	"app/internal/model"
)

// MetricRepository reads the append-only daily_metrics table.
type MetricRepository interface {
	ListByCompetitorIDs(ctx context.Context, competitorIDs []string, limit int) ([]model.MetricRecord, error)
	ListByCompetitorIDsSince(ctx context.Context, competitorIDs []string, since time.Time) ([]model.MetricRecord, error)
}

type metricRepo struct {
	db *sql.DB
}

func NewMetricRepo(db *sql.DB) MetricRepository {
	return &metricRepo{db: db}
}

const metricColumns = `id, competitor_id, platform, date, daily_spend,
	daily_impressions, daily_clicks, daily_ctr, creative`

func (r *metricRepo) ListByCompetitorIDs(ctx context.Context, competitorIDs []string, limit int) ([]model.MetricRecord, error) {
	if len(competitorIDs) == 0 {
		return []model.MetricRecord{}, nil
	}
	query := `SELECT ` + metricColumns + `
              FROM daily_metrics
              WHERE competitor_id = ANY($1::uuid[])
              ORDER BY date DESC
              LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, competitorIDs, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMetrics(rows)
}

func (r *metricRepo) ListByCompetitorIDsSince(ctx context.Context, competitorIDs []string, since time.Time) ([]model.MetricRecord, error) {
	if len(competitorIDs) == 0 {
		return []model.MetricRecord{}, nil
	}
	query := `SELECT ` + metricColumns + `
              FROM daily_metrics
              WHERE competitor_id = ANY($1::uuid[]) AND date >= $2
              ORDER BY date DESC`
	rows, err := r.db.QueryContext(ctx, query, competitorIDs, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMetrics(rows)
}

func collectMetrics(rows *sql.Rows) ([]model.MetricRecord, error) {
	records := []model.MetricRecord{}
	for rows.Next() {
		var m model.MetricRecord
		if err := rows.Scan(&m.ID, &m.CompetitorID, &m.Platform, &m.Date,
			&m.DailySpend, &m.DailyImpressions, &m.DailyClicks, &m.DailyCTR, &m.Creative); err != nil {
			return nil, err
		}
		records = append(records, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
