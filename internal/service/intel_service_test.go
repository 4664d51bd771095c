package service

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"app/internal/logger"
	"app/internal/model"
)

// fakeMetricRepo serves canned metric rows.
type fakeMetricRepo struct {
	records []model.MetricRecord
	err     error
}

func (r *fakeMetricRepo) ListByCompetitorIDs(ctx context.Context, ids []string, limit int) ([]model.MetricRecord, error) {
	if r.err != nil {
		return nil, r.err
	}
	if len(r.records) > limit {
		return r.records[:limit], nil
	}
	return r.records, nil
}

func (r *fakeMetricRepo) ListByCompetitorIDsSince(ctx context.Context, ids []string, since time.Time) ([]model.MetricRecord, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.records, nil
}

func newTestIntelService(competitors *fakeCompetitorRepo, metrics *fakeMetricRepo) IntelService {
	return NewIntelService(competitors, metrics, rand.New(rand.NewSource(42)), logger.New())
}

func TestAudienceInsightsDefaultsOnEmptyRoster(t *testing.T) {
	svc := newTestIntelService(&fakeCompetitorRepo{}, &fakeMetricRepo{})

	insights, err := svc.AudienceInsights(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, insights.IsDefaultData)
	assert.Equal(t, 0.3, insights.ConfidenceScore)
	assert.NotEmpty(t, insights.PrimaryAudiences)
}

func TestAudienceInsightsFromMetrics(t *testing.T) {
	creative := "Grow your software business with cloud solutions today"
	competitors := &fakeCompetitorRepo{competitors: []model.Competitor{
		{ID: "c-1", UserID: "user-1", Name: "Acme", Industry: strPtr("Tech")},
		{ID: "c-2", UserID: "user-1", Name: "Globex", Industry: strPtr("Retail")},
	}}
	metrics := &fakeMetricRepo{records: []model.MetricRecord{
		{CompetitorID: "c-1", Platform: "meta", Creative: &creative},
		{CompetitorID: "c-1", Platform: "meta"},
		{CompetitorID: "c-2", Platform: "linkedin"},
	}}
	svc := newTestIntelService(competitors, metrics)

	insights, err := svc.AudienceInsights(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, insights.IsDefaultData)
	assert.Equal(t, 3, insights.SampleSize)
	assert.ElementsMatch(t, []string{"Acme", "Globex"}, insights.CompetitorsAnalyzed)
	assert.Equal(t, []string{"Retail", "Tech"}, insights.IndustriesTargeted)
	assert.Equal(t, 2, insights.PlatformDistribution["meta"])
	assert.Equal(t, 1, insights.PlatformDistribution["linkedin"])

	// Keywords come from the creative text, stopwords and short words dropped.
	var words []string
	for _, kw := range insights.TopKeywords {
		words = append(words, kw.Keyword)
	}
	assert.Contains(t, words, "software")
	assert.Contains(t, words, "cloud")
	assert.NotContains(t, words, "your")
	assert.NotContains(t, words, "with")
}

func TestAudienceInsightsDeterministicWithSeed(t *testing.T) {
	competitors := &fakeCompetitorRepo{competitors: []model.Competitor{
		{ID: "c-1", UserID: "user-1", Name: "Acme", Industry: strPtr("Tech")},
	}}
	metrics := &fakeMetricRepo{records: []model.MetricRecord{
		{CompetitorID: "c-1", Platform: "meta"},
	}}

	a, err := newTestIntelService(competitors, metrics).AudienceInsights(context.Background(), "user-1")
	require.NoError(t, err)
	b, err := newTestIntelService(competitors, metrics).AudienceInsights(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestConfidenceScore(t *testing.T) {
	tests := []struct {
		name        string
		ads         int
		competitors int
		want        float64
	}{
		{"no ads floors at 0.3", 0, 10, 0.3},
		{"scales with ads", 20, 1, 0.5},
		{"capped at 0.9", 200, 1, 0.9},
		{"large roster bonus", 20, 5, 0.6},
		{"bonus capped at 0.95", 200, 5, 0.95},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, confidenceScore(tt.ads, tt.competitors))
		})
	}
}

func TestCompetitiveAnalysisDefaults(t *testing.T) {
	svc := newTestIntelService(&fakeCompetitorRepo{}, &fakeMetricRepo{})

	analysis, err := svc.CompetitiveAnalysis(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, analysis.IsDefaultData)
	assert.Equal(t, "stable", analysis.SpendingPatterns.Trend)
}

func TestCompetitiveAnalysisFromMetrics(t *testing.T) {
	urgent := "Limited offer, save now before it expires"
	competitors := &fakeCompetitorRepo{competitors: []model.Competitor{
		{ID: "c-1", UserID: "user-1", Name: "Acme", Industry: strPtr("Tech")},
		{ID: "c-2", UserID: "user-1", Name: "Globex", Industry: strPtr("Retail")},
	}}
	metrics := &fakeMetricRepo{records: []model.MetricRecord{
		{CompetitorID: "c-1", Platform: "meta", DailySpend: 50, DailyImpressions: 10000, Creative: &urgent},
		{CompetitorID: "c-1", Platform: "meta", DailySpend: 500, DailyImpressions: 20000},
		{CompetitorID: "c-2", Platform: "google", DailySpend: 1500, DailyImpressions: 5000},
	}}
	svc := newTestIntelService(competitors, metrics)

	analysis, err := svc.CompetitiveAnalysis(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, analysis.IsDefaultData)

	assert.Equal(t, 2, analysis.MarketCoverage.TotalMarketPresence)
	assert.Equal(t, 2, analysis.MarketCoverage.ActiveCompetitors)
	assert.Equal(t, []string{"Retail", "Tech"}, analysis.MarketCoverage.MarketSegments)
	assert.Equal(t, 20.0, analysis.MarketCoverage.CoverageScore)

	assert.Equal(t, 2050.0, analysis.SpendingPatterns.TotalSpend)
	assert.InDelta(t, 683.33, analysis.SpendingPatterns.AvgDailySpend, 0.01)
	assert.Equal(t, "low", analysis.SpendingPatterns.Trend)

	// One of three creatives carries urgency tokens.
	assert.InDelta(t, 33.3, analysis.CreativeStrategies["urgency"], 0.1)
	assert.Equal(t, 0.0, analysis.CreativeStrategies["educational"])

	// Meta has the cheaper impressions, so it scores higher.
	require.Len(t, analysis.PlatformEffectiveness, 2)
	assert.Equal(t, "meta", analysis.PlatformEffectiveness[0].Platform)
	assert.Equal(t, "google", analysis.PlatformEffectiveness[1].Platform)

	// Untouched platforms show up as a gap, and three ads is thin coverage.
	require.Len(t, analysis.OpportunityAreas, 2)
	assert.Equal(t, "platform_gap", analysis.OpportunityAreas[0].Type)
	assert.Contains(t, analysis.OpportunityAreas[0].Description, "Linkedin")
	assert.NotContains(t, analysis.OpportunityAreas[0].Description, "Meta")
	assert.Equal(t, "content_gap", analysis.OpportunityAreas[1].Type)

	// 2 unique competitors * 15 + 3/10 records.
	assert.Equal(t, 30.3, analysis.CompetitiveIntensity.Score)
	assert.Equal(t, "low", analysis.CompetitiveIntensity.Level)

	assert.False(t, analysis.Trends.DataBased)
}

func TestRecommendations(t *testing.T) {
	svc := newTestIntelService(&fakeCompetitorRepo{}, &fakeMetricRepo{})

	recs, err := svc.Recommendations(context.Background(), "user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, recs.AudienceExpansion)
	assert.NotEmpty(t, recs.CreativeOptimization)
	assert.NotEmpty(t, recs.BudgetAllocation)
	assert.NotEmpty(t, recs.TestingPriorities)
	assert.Equal(t, "Next 30-60 days", recs.TimeHorizon)
	assert.WithinDuration(t, time.Now(), recs.GeneratedAt, time.Minute)
}

func TestExtractKeywords(t *testing.T) {
	t.Run("fallback when nothing usable", func(t *testing.T) {
		keywords := extractKeywords([]string{"now get the best"})
		require.NotEmpty(t, keywords)
		assert.Equal(t, "technology", keywords[0].Keyword)
	})

	t.Run("frequency ordering", func(t *testing.T) {
		keywords := extractKeywords([]string{
			"cloud cloud cloud platform platform scale",
		})
		require.True(t, len(keywords) >= 3)
		assert.Equal(t, KeywordCount{Keyword: "cloud", Frequency: 3}, keywords[0])
		assert.Equal(t, KeywordCount{Keyword: "platform", Frequency: 2}, keywords[1])
	})

	t.Run("punctuation and digits stripped", func(t *testing.T) {
		keywords := extractKeywords([]string{"amazing! deals2024 (really)"})
		var words []string
		for _, kw := range keywords {
			words = append(words, kw.Keyword)
		}
		assert.Contains(t, words, "amazing")
		assert.Contains(t, words, "really")
		assert.NotContains(t, words, "deals2024")
	})
}
