package model

import "time"

// MetricRecord is one per-competitor, per-platform, per-day snapshot in the
// append-only daily_metrics table.
type MetricRecord struct {
	ID               int64     `db:"id" json:"id"`
	CompetitorID     string    `db:"competitor_id" json:"competitor_id"`
	Platform         string    `db:"platform" json:"platform"`
	Date             time.Time `db:"date" json:"date"`
	DailySpend       float64   `db:"daily_spend" json:"daily_spend"`
	DailyImpressions int64     `db:"daily_impressions" json:"daily_impressions"`
	DailyClicks      int64     `db:"daily_clicks" json:"daily_clicks"`
	DailyCTR         float64   `db:"daily_ctr" json:"daily_ctr"`
	Creative         *string   `db:"creative" json:"creative,omitempty"`
}
