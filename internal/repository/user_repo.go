package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"app/internal/model"
)

type UserRepository interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	CompleteOnboarding(ctx context.Context, id, businessType, industry, goals string) (*model.User, error)
}

type userRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) UserRepository {
	return &userRepo{db: db}
}

const userColumns = `user_id, name, email, password_hash, onboarding_completed,
	business_type, industry, goals, is_active, last_login, created_at, updated_at`

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.UserID, &u.Name, &u.Email, &u.PasswordHash, &u.OnboardingCompleted,
		&u.BusinessType, &u.Industry, &u.Goals, &u.IsActive, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) CreateUser(ctx context.Context, u *model.User) error {
	query := `INSERT INTO users (name, email, password_hash, onboarding_completed)
              VALUES ($1, $2, $3, $4)
              RETURNING user_id, created_at, updated_at`
	return r.db.QueryRowContext(ctx, query, u.Name, u.Email, u.PasswordHash, u.OnboardingCompleted).
		Scan(&u.UserID, &u.CreatedAt, &u.UpdatedAt)
}

func (r *userRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *userRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *userRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE users SET last_login = $1, updated_at = NOW() WHERE user_id = $2`
	_, err := r.db.ExecContext(ctx, query, at, id)
	return err
}

func (r *userRepo) CompleteOnboarding(ctx context.Context, id, businessType, industry, goals string) (*model.User, error) {
	query := `UPDATE users
              SET business_type = $1, industry = $2, goals = $3,
                  onboarding_completed = TRUE, updated_at = NOW()
              WHERE user_id = $4
              RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query, businessType, industry, goals, id))
}
