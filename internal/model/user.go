package model

import "time"

// User represents a user in the system. Users are never hard-deleted;
// deactivation flips IsActive.
type User struct {
	UserID              string     `db:"user_id" json:"user_id"`
	Name                string     `db:"name" json:"name"`
	Email               string     `db:"email" json:"email"`
	PasswordHash        string     `db:"password_hash" json:"-"`
	OnboardingCompleted bool       `db:"onboarding_completed" json:"onboarding_completed"`
	BusinessType        *string    `db:"business_type" json:"business_type,omitempty"`
	Industry            *string    `db:"industry" json:"industry,omitempty"`
	Goals               *string    `db:"goals" json:"goals,omitempty"`
	IsActive            bool       `db:"is_active" json:"is_active"`
	LastLogin           *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}
