package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"app/internal/model"
	"app/internal/repository"
)

var (
	ErrCompetitorNotFound = errors.New("competitor not found")
	ErrCompetitorExists   = errors.New("competitor already exists")
	ErrNoFieldsToUpdate   = errors.New("no valid fields to update")
)

// CompetitorStats summarizes a user's competitor roster for the dashboard.
type CompetitorStats struct {
	TotalCompetitors      int            `json:"total_competitors"`
	CompetitorsWithAds    int            `json:"competitors_with_ads"`
	CompetitorsWithoutAds int            `json:"competitors_without_ads"`
	FetchStatus           map[string]int `json:"fetch_status"`
	SuccessRate           float64        `json:"success_rate"`
}

// PlatformBreakdown groups competitor names by advertising platform.
type PlatformBreakdown struct {
	Platforms    map[string][]string `json:"platforms"`
	Distribution map[string]int      `json:"distribution"`
}

// CompetitorService owns the competitor roster: user-scoped CRUD with soft
// deletes plus the roster aggregations the dashboard shows.
type CompetitorService interface {
	List(ctx context.Context, userID string) ([]model.Competitor, error)
	Add(ctx context.Context, userID, name, domain, industry string, estimatedMonthlySpend float64) (*model.Competitor, error)
	Update(ctx context.Context, userID, competitorID string, update model.CompetitorUpdate) (*model.Competitor, error)
	Delete(ctx context.Context, userID, competitorID string) (string, error)
	Stats(ctx context.Context, userID string) (*CompetitorStats, error)
	Platforms(ctx context.Context, userID string) (*PlatformBreakdown, error)
}

type competitorService struct {
	repo   repository.CompetitorRepository
	logger zerolog.Logger
}

func NewCompetitorService(repo repository.CompetitorRepository, logger zerolog.Logger) CompetitorService {
	return &competitorService{
		repo:   repo,
		logger: logger.With().Str("service", "CompetitorService").Logger(),
	}
}

func (s *competitorService) List(ctx context.Context, userID string) ([]model.Competitor, error) {
	return s.repo.ListActiveByUserID(ctx, userID)
}

// Add creates a competitor, rejecting a duplicate active name for the same
// user.
func (s *competitorService) Add(ctx context.Context, userID, name, domain, industry string, estimatedMonthlySpend float64) (*model.Competitor, error) {
	name = strings.TrimSpace(name)

	existing, err := s.repo.FindActiveByName(ctx, userID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing competitor: %w", err)
	}
	if existing != nil {
		return existing, ErrCompetitorExists
	}

	c := &model.Competitor{
		UserID:                userID,
		Name:                  name,
		EstimatedMonthlySpend: estimatedMonthlySpend,
		IsActive:              true,
		LastFetchStatus:       "pending",
	}
	if domain = strings.TrimSpace(domain); domain != "" {
		c.Domain = &domain
	}
	if industry = strings.TrimSpace(industry); industry != "" {
		c.Industry = &industry
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create competitor: %w", err)
	}
	s.logger.Info().Str("user_id", userID).Str("competitor_id", c.ID).Str("name", name).Msg("competitor added")
	return c, nil
}

func (s *competitorService) Update(ctx context.Context, userID, competitorID string, update model.CompetitorUpdate) (*model.Competitor, error) {
	if update.Empty() {
		return nil, ErrNoFieldsToUpdate
	}
	updated, err := s.repo.Update(ctx, competitorID, userID, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update competitor: %w", err)
	}
	if updated == nil {
		return nil, ErrCompetitorNotFound
	}
	return updated, nil
}

// Delete soft-deletes the competitor and returns its name for the response
// message.
func (s *competitorService) Delete(ctx context.Context, userID, competitorID string) (string, error) {
	c, err := s.repo.GetByID(ctx, competitorID, userID)
	if err != nil {
		return "", fmt.Errorf("failed to look up competitor: %w", err)
	}
	if c == nil {
		return "", ErrCompetitorNotFound
	}
	if err := s.repo.SoftDelete(ctx, competitorID, userID); err != nil {
		return "", fmt.Errorf("failed to delete competitor: %w", err)
	}
	s.logger.Info().Str("user_id", userID).Str("competitor_id", competitorID).Msg("competitor deleted")
	return c.Name, nil
}

func (s *competitorService) Stats(ctx context.Context, userID string) (*CompetitorStats, error) {
	competitors, err := s.repo.ListActiveByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitors: %w", err)
	}

	stats := &CompetitorStats{
		TotalCompetitors: len(competitors),
		FetchStatus:      map[string]int{"success": 0, "failed": 0, "pending": 0, "no_ads": 0},
	}
	for _, c := range competitors {
		if c.AdsCount > 0 {
			stats.CompetitorsWithAds++
		}
		if _, known := stats.FetchStatus[c.LastFetchStatus]; known {
			stats.FetchStatus[c.LastFetchStatus]++
		} else {
			stats.FetchStatus["pending"]++
		}
	}
	stats.CompetitorsWithoutAds = stats.TotalCompetitors - stats.CompetitorsWithAds
	if stats.TotalCompetitors > 0 {
		rate := float64(stats.FetchStatus["success"]) / float64(stats.TotalCompetitors) * 100
		stats.SuccessRate = float64(int(rate*10+0.5)) / 10
	}
	return stats, nil
}

func (s *competitorService) Platforms(ctx context.Context, userID string) (*PlatformBreakdown, error) {
	competitors, err := s.repo.ListActiveByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitors: %w", err)
	}

	breakdown := &PlatformBreakdown{
		Platforms:    map[string][]string{},
		Distribution: map[string]int{},
	}
	for _, c := range competitors {
		platform := "unknown"
		if c.Platform != nil && *c.Platform != "" {
			platform = *c.Platform
		}
		breakdown.Platforms[platform] = append(breakdown.Platforms[platform], c.Name)
	}
	for platform, names := range breakdown.Platforms {
		sort.Strings(names)
		breakdown.Distribution[platform] = len(names)
	}
	return breakdown, nil
}
