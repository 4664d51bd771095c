package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"app/internal/model"

	"github.com/rs/zerolog"
)

// CompetitorRepository defines the interface for interacting with competitor
// rows. Deletes are soft: is_active is flipped, the row stays.
type CompetitorRepository interface {
	ListActiveByUserID(ctx context.Context, userID string) ([]model.Competitor, error)
	CountActiveByUserID(ctx context.Context, userID string) (int, error)
	FindActiveByName(ctx context.Context, userID, name string) (*model.Competitor, error)
	GetByID(ctx context.Context, id, userID string) (*model.Competitor, error)
	Create(ctx context.Context, c *model.Competitor) error
	Update(ctx context.Context, id, userID string, update model.CompetitorUpdate) (*model.Competitor, error)
	SoftDelete(ctx context.Context, id, userID string) error
}

type competitorRepo struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewCompetitorRepo(db *sql.DB, logger zerolog.Logger) CompetitorRepository {
	return &competitorRepo{db: db, logger: logger}
}

const competitorColumns = `id, user_id, name, domain, industry, platform,
	estimated_monthly_spend, is_active, ads_count, last_fetch_status, created_at, updated_at`

func scanCompetitor(scan func(dest ...any) error) (*model.Competitor, error) {
	var c model.Competitor
	err := scan(&c.ID, &c.UserID, &c.Name, &c.Domain, &c.Industry, &c.Platform,
		&c.EstimatedMonthlySpend, &c.IsActive, &c.AdsCount, &c.LastFetchStatus, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *competitorRepo) ListActiveByUserID(ctx context.Context, userID string) ([]model.Competitor, error) {
	query := `SELECT ` + competitorColumns + `
              FROM competitors
              WHERE user_id = $1 AND is_active
              ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	competitors := []model.Competitor{}
	for rows.Next() {
		c, err := scanCompetitor(rows.Scan)
		if err != nil {
			return nil, err
		}
		competitors = append(competitors, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return competitors, nil
}

func (r *competitorRepo) CountActiveByUserID(ctx context.Context, userID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM competitors WHERE user_id = $1 AND is_active`
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *competitorRepo) FindActiveByName(ctx context.Context, userID, name string) (*model.Competitor, error) {
	query := `SELECT ` + competitorColumns + `
              FROM competitors
              WHERE user_id = $1 AND name = $2 AND is_active`
	return scanCompetitor(r.db.QueryRowContext(ctx, query, userID, name).Scan)
}

func (r *competitorRepo) GetByID(ctx context.Context, id, userID string) (*model.Competitor, error) {
	query := `SELECT ` + competitorColumns + `
              FROM competitors
              WHERE id = $1 AND user_id = $2 AND is_active`
	return scanCompetitor(r.db.QueryRowContext(ctx, query, id, userID).Scan)
}

func (r *competitorRepo) Create(ctx context.Context, c *model.Competitor) error {
	query := `INSERT INTO competitors (user_id, name, domain, industry, estimated_monthly_spend, ads_count, last_fetch_status)
              VALUES ($1, $2, $3, $4, $5, 0, 'pending')
              RETURNING id, is_active, ads_count, last_fetch_status, created_at, updated_at`
	return r.db.QueryRowContext(ctx, query, c.UserID, c.Name, c.Domain, c.Industry, c.EstimatedMonthlySpend).
		Scan(&c.ID, &c.IsActive, &c.AdsCount, &c.LastFetchStatus, &c.CreatedAt, &c.UpdatedAt)
}

// Update applies a partial update; nil fields keep their prior value.
func (r *competitorRepo) Update(ctx context.Context, id, userID string, update model.CompetitorUpdate) (*model.Competitor, error) {
	sets := []string{}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if update.Name != nil {
		sets = append(sets, "name = "+arg(*update.Name))
	}
	if update.Domain != nil {
		sets = append(sets, "domain = "+arg(*update.Domain))
	}
	if update.Industry != nil {
		sets = append(sets, "industry = "+arg(*update.Industry))
	}
	if update.EstimatedMonthlySpend != nil {
		sets = append(sets, "estimated_monthly_spend = "+arg(*update.EstimatedMonthlySpend))
	}
	if len(sets) == 0 {
		return nil, errors.New("no fields to update")
	}
	sets = append(sets, "updated_at = NOW()")

	query := `UPDATE competitors SET ` + strings.Join(sets, ", ") +
		` WHERE id = ` + arg(id) + ` AND user_id = ` + arg(userID) + ` AND is_active
          RETURNING ` + competitorColumns
	return scanCompetitor(r.db.QueryRowContext(ctx, query, args...).Scan)
}

func (r *competitorRepo) SoftDelete(ctx context.Context, id, userID string) error {
	query := `UPDATE competitors SET is_active = FALSE, updated_at = NOW()
              WHERE id = $1 AND user_id = $2 AND is_active`
	res, err := r.db.ExecContext(ctx, query, id, userID)
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
