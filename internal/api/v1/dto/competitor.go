package dto

import "time"

// CompetitorCreateDTO is used for incoming competitor creation requests
type CompetitorCreateDTO struct {
	Name                  string  `json:"name" validate:"required"`
	Domain                string  `json:"domain,omitempty"`
	Industry              string  `json:"industry,omitempty"`
	EstimatedMonthlySpend float64 `json:"estimated_monthly_spend" validate:"gte=0"`
}

// CompetitorUpdateDTO is used for incoming competitor update requests
type CompetitorUpdateDTO struct {
	Name                  *string  `json:"name,omitempty"`
	Domain                *string  `json:"domain,omitempty"`
	Industry              *string  `json:"industry,omitempty"`
	EstimatedMonthlySpend *float64 `json:"estimated_monthly_spend,omitempty" validate:"omitempty,gte=0"`
}

// CompetitorResponseDTO is returned in API responses for competitors
type CompetitorResponseDTO struct {
	ID                    string    `json:"id"`
	UserID                string    `json:"user_id"`
	Name                  string    `json:"name"`
	Domain                *string   `json:"domain,omitempty"`
	Industry              *string   `json:"industry,omitempty"`
	Platform              *string   `json:"platform,omitempty"`
	EstimatedMonthlySpend float64   `json:"estimated_monthly_spend"`
	AdsCount              int       `json:"ads_count"`
	LastFetchStatus       string    `json:"last_fetch_status"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}
