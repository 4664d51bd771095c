package model

import "time"

// Competitor belongs to exactly one user and is soft-deleted via IsActive.
// AdsCount and LastFetchStatus are denormalized display fields maintained by
// the fetch pipeline.
type Competitor struct {
	ID                    string    `db:"id" json:"id"`
	UserID                string    `db:"user_id" json:"user_id"`
	Name                  string    `db:"name" json:"name"`
	Domain                *string   `db:"domain" json:"domain,omitempty"`
	Industry              *string   `db:"industry" json:"industry,omitempty"`
	Platform              *string   `db:"platform" json:"platform,omitempty"`
	EstimatedMonthlySpend float64   `db:"estimated_monthly_spend" json:"estimated_monthly_spend"`
	IsActive              bool      `db:"is_active" json:"is_active"`
	AdsCount              int       `db:"ads_count" json:"ads_count"`
	LastFetchStatus       string    `db:"last_fetch_status" json:"last_fetch_status"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time `db:"updated_at" json:"updated_at"`
}

// CompetitorUpdate carries the fields of a partial competitor update. Nil
// fields are left untouched.
type CompetitorUpdate struct {
	Name                  *string
	Domain                *string
	Industry              *string
	EstimatedMonthlySpend *float64
}

// Empty reports whether the update carries no fields at all.
func (u CompetitorUpdate) Empty() bool {
	return u.Name == nil && u.Domain == nil && u.Industry == nil && u.EstimatedMonthlySpend == nil
}
