package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"app/internal/model"
	"app/internal/repository"
	"app/internal/util"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDeactivated = errors.New("account has been deactivated")
)

// AuthService issues and verifies stateless tokens over the users table.
// Logout has no server side; tokens expire on their own.
type AuthService interface {
	Signup(ctx context.Context, name, email, password string) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	Verify(ctx context.Context, token string) (*model.User, error)
	CompleteOnboarding(ctx context.Context, userID, businessType, industry, goals string) (*model.User, error)
	Profile(ctx context.Context, userID string) (*model.User, error)
}

type authService struct {
	repo      repository.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
	logger    zerolog.Logger
}

func NewAuthService(repo repository.UserRepository, jwtSecret string, tokenTTL time.Duration, logger zerolog.Logger) AuthService {
	return &authService{
		repo:      repo,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger.With().Str("service", "AuthService").Logger(),
	}
}

// Signup creates the user and returns a signed token so the frontend can log
// them in immediately. Emails are stored lowercased.
func (s *authService) Signup(ctx context.Context, name, email, password string) (*model.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, "", ErrEmailTaken
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := util.GenerateToken(s.jwtSecret, user.UserID, user.Email, user.Name, s.tokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign token: %w", err)
	}

	s.logger.Info().Str("user_id", user.UserID).Msg("user signed up")
	return user, token, nil
}

// Login checks the password and stamps last_login. A wrong email and a wrong
// password return the same error so the response does not leak which one it was.
func (s *authService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, "", ErrAccountDeactivated
	}
	if !util.CheckPassword(user.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, user.UserID, now); err != nil {
		// Login still succeeds; last_login is advisory.
		s.logger.Warn().Err(err).Str("user_id", user.UserID).Msg("failed to update last_login")
	}
	user.LastLogin = &now

	token, err := util.GenerateToken(s.jwtSecret, user.UserID, user.Email, user.Name, s.tokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign token: %w", err)
	}

	s.logger.Info().Str("user_id", user.UserID).Msg("user logged in")
	return user, token, nil
}

// Verify validates the token signature and expiry, then confirms the subject
// still exists.
func (s *authService) Verify(ctx context.Context, token string) (*model.User, error) {
	claims, err := util.ValidateToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *authService) CompleteOnboarding(ctx context.Context, userID, businessType, industry, goals string) (*model.User, error) {
	user, err := s.repo.CompleteOnboarding(ctx, userID, businessType, industry, goals)
	if err != nil {
		return nil, fmt.Errorf("failed to complete onboarding: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	s.logger.Info().Str("user_id", userID).Msg("onboarding completed")
	return user, nil
}

func (s *authService) Profile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
