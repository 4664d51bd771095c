package dto

import "time"

// SignupDTO is used for incoming registration requests
type SignupDTO struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// LoginDTO is used for incoming login requests
type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// VerifyDTO carries a raw token for verification
type VerifyDTO struct {
	Token string `json:"token" validate:"required"`
}

// OnboardingDTO is used for the onboarding questionnaire
type OnboardingDTO struct {
	BusinessType string `json:"businessType" validate:"required"`
	Industry     string `json:"industry" validate:"required"`
	Goals        string `json:"goals" validate:"required"`
}

// UserResponseDTO is returned in API responses
type UserResponseDTO struct {
	UserID              string     `json:"user_id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	OnboardingCompleted bool       `json:"onboarding_completed"`
	BusinessType        *string    `json:"business_type,omitempty"`
	Industry            *string    `json:"industry,omitempty"`
	Goals               *string    `json:"goals,omitempty"`
	CreatedAt           *time.Time `json:"created_at,omitempty"`
}

// AuthResponseDTO is returned from signup and login
type AuthResponseDTO struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Token   string          `json:"token"`
	User    UserResponseDTO `json:"user"`
}
