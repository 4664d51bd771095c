package service

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"app/internal/model"
	"app/internal/repository"
)

// stopwords excluded from creative keyword extraction.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "this": true,
	"that": true, "your": true, "you": true, "are": true, "get": true,
	"free": true, "now": true, "best": true, "new": true,
}

var platformBehaviors = map[string][]string{
	"meta":      {"Social media engagement", "Visual content consumption", "Mobile-first usage"},
	"facebook":  {"Community participation", "News consumption", "Event engagement"},
	"instagram": {"Visual storytelling", "Influencer following", "Discovery mode"},
	"linkedin":  {"Professional networking", "Industry news", "B2B engagement"},
	"google":    {"Search-driven", "Problem-solving", "Research-oriented"},
	"tiktok":    {"Short-form content", "Trend participation", "Entertainment focus"},
}

type KeywordCount struct {
	Keyword   string `json:"keyword"`
	Frequency int    `json:"frequency"`
}

type AudienceSegment struct {
	Segment            string   `json:"segment"`
	Size               int      `json:"size"`
	GrowthRate         float64  `json:"growth_rate"`
	KeyCharacteristics []string `json:"key_characteristics"`
}

type Demographics struct {
	AgeDistribution    map[string]int `json:"age_distribution"`
	GenderDistribution map[string]int `json:"gender_distribution"`
	IncomeLevels       map[string]int `json:"income_levels"`
	EducationLevels    map[string]int `json:"education_levels"`
}

type InterestCategory struct {
	Category           string `json:"category"`
	AffinityScore      int    `json:"affinity_score"`
	RelatedCompetitors int    `json:"related_competitors"`
}

type BehavioralPattern struct {
	Platform        string   `json:"platform"`
	PrimaryBehavior string   `json:"primary_behavior"`
	EngagementLevel string   `json:"engagement_level"`
	Traits          []string `json:"behavioral_traits"`
}

// AudienceInsights is the synthesized audience picture for a user's roster.
// IsDefaultData marks responses fabricated without any metric rows behind them.
type AudienceInsights struct {
	PrimaryAudiences     []AudienceSegment   `json:"primary_audiences"`
	Demographics         Demographics        `json:"demographics"`
	Interests            []InterestCategory  `json:"interests"`
	BehavioralPatterns   []BehavioralPattern `json:"behavioral_patterns"`
	TopKeywords          []KeywordCount      `json:"top_keywords"`
	PlatformDistribution map[string]int      `json:"platform_distribution"`
	CompetitorsAnalyzed  []string            `json:"competitors_analyzed"`
	SampleSize           int                 `json:"sample_size"`
	IndustriesTargeted   []string            `json:"industries_targeted"`
	ConfidenceScore      float64             `json:"confidence_score"`
	IsDefaultData        bool                `json:"is_default_data,omitempty"`
}

type MarketCoverage struct {
	TotalMarketPresence int      `json:"total_market_presence"`
	ActiveCompetitors   int      `json:"active_competitors"`
	MarketSegments      []string `json:"market_segments"`
	CoverageScore       float64  `json:"coverage_score"`
}

type SpendingPatterns struct {
	TotalSpend           float64            `json:"total_spend"`
	AvgDailySpend        float64            `json:"avg_daily_spend"`
	SpendingDistribution map[string]float64 `json:"spending_distribution"`
	Trend                string             `json:"trend"`
}

type PlatformEffectiveness struct {
	Platform           string  `json:"platform"`
	EffectivenessScore float64 `json:"effectiveness_score"`
	SpendShare         float64 `json:"spend_share"`
	AdsCount           int     `json:"ads_count"`
}

type OpportunityArea struct {
	Type            string `json:"type"`
	Description     string `json:"description"`
	PotentialImpact string `json:"potential_impact"`
	Difficulty      string `json:"difficulty"`
}

type CompetitiveIntensity struct {
	Score       float64 `json:"score"`
	Level       string  `json:"level"`
	Description string  `json:"description"`
}

type AdTrends struct {
	EmergingFormats []string `json:"emerging_formats"`
	ContentThemes   []string `json:"content_themes"`
	PredictedShifts []string `json:"predicted_shifts"`
	DataBased       bool     `json:"data_based"`
}

// CompetitiveAnalysis is the 30-day landscape view built from metric rows.
type CompetitiveAnalysis struct {
	MarketCoverage        MarketCoverage          `json:"market_coverage"`
	SpendingPatterns      SpendingPatterns        `json:"spending_patterns"`
	CreativeStrategies    map[string]float64      `json:"creative_strategies"`
	PlatformEffectiveness []PlatformEffectiveness `json:"platform_effectiveness"`
	OpportunityAreas      []OpportunityArea       `json:"opportunity_areas"`
	CompetitiveIntensity  CompetitiveIntensity    `json:"competitive_intensity"`
	Trends                AdTrends                `json:"trends"`
	IsDefaultData         bool                    `json:"is_default_data,omitempty"`
}

type Recommendation struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Expected    string `json:"expected"`
	Priority    string `json:"priority"`
}

// Recommendations is static playbook content; there is no model behind it.
type Recommendations struct {
	AudienceExpansion    []Recommendation `json:"audience_expansion"`
	CreativeOptimization []Recommendation `json:"creative_optimization"`
	BudgetAllocation     []Recommendation `json:"budget_allocation"`
	TestingPriorities    []Recommendation `json:"testing_priorities"`
	GeneratedAt          time.Time        `json:"generated_at"`
	TimeHorizon          string           `json:"time_horizon"`
}

// IntelService fabricates targeting intelligence from whatever metric rows
// exist, degrading to canned defaults flagged is_default_data when the data
// is thin. The randomness only dresses up ranges; it carries no model.
type IntelService interface {
	AudienceInsights(ctx context.Context, userID string) (*AudienceInsights, error)
	CompetitiveAnalysis(ctx context.Context, userID string) (*CompetitiveAnalysis, error)
	Recommendations(ctx context.Context, userID string) (*Recommendations, error)
}

type intelService struct {
	competitors repository.CompetitorRepository
	metrics     repository.MetricRepository
	logger      zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewIntelService wires the analytics generators. rng is injected so tests
// can seed it.
func NewIntelService(competitors repository.CompetitorRepository, metrics repository.MetricRepository,
	rng *rand.Rand, logger zerolog.Logger) IntelService {
	return &intelService{
		competitors: competitors,
		metrics:     metrics,
		rng:         rng,
		logger:      logger.With().Str("service", "IntelService").Logger(),
	}
}

// intn is rand.Intn guarded for concurrent handlers.
func (s *intelService) intn(lo, hi int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo + s.rng.Intn(hi-lo+1)
}

func (s *intelService) uniform(lo, hi float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo + s.rng.Float64()*(hi-lo)
}

func (s *intelService) AudienceInsights(ctx context.Context, userID string) (*AudienceInsights, error) {
	competitors, err := s.competitors.ListActiveByUserID(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("falling back to default audience insights")
		return defaultAudienceInsights(), nil
	}
	if len(competitors) == 0 {
		return defaultAudienceInsights(), nil
	}

	ids := make([]string, 0, len(competitors))
	names := make([]string, 0, len(competitors))
	industrySet := map[string]bool{}
	for _, c := range competitors {
		ids = append(ids, c.ID)
		names = append(names, c.Name)
		if c.Industry != nil && *c.Industry != "" {
			industrySet[*c.Industry] = true
		}
	}
	industries := sortedKeys(industrySet)

	records, err := s.metrics.ListByCompetitorIDs(ctx, ids, 50)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("falling back to default audience insights")
		return defaultAudienceInsights(), nil
	}

	creatives := make([]string, 0, len(records))
	platforms := map[string]int{}
	for _, r := range records {
		if r.Creative != nil {
			creatives = append(creatives, *r.Creative)
		}
		platforms[r.Platform]++
	}
	keywords := extractKeywords(creatives)

	insights := &AudienceInsights{
		PrimaryAudiences:     s.primaryAudiences(industries),
		Demographics:         s.demographics(industries),
		Interests:            s.interests(keywords),
		BehavioralPatterns:   behavioralPatterns(platforms),
		TopKeywords:          firstN(keywords, 10),
		PlatformDistribution: platforms,
		CompetitorsAnalyzed:  names,
		SampleSize:           len(records),
		IndustriesTargeted:   industries,
		ConfidenceScore:      confidenceScore(len(records), len(ids)),
	}
	return insights, nil
}

func (s *intelService) primaryAudiences(industries []string) []AudienceSegment {
	if len(industries) == 0 {
		return defaultAudienceInsights().PrimaryAudiences
	}
	if len(industries) > 3 {
		industries = industries[:3]
	}
	segments := make([]AudienceSegment, 0, len(industries))
	for _, industry := range industries {
		segments = append(segments, AudienceSegment{
			Segment:    industry + " Professionals",
			Size:       s.intn(10000, 500000),
			GrowthRate: math.Round(s.uniform(0.1, 0.3)*100) / 100,
			KeyCharacteristics: []string{
				"Interest in " + industry + " solutions",
				"Decision makers",
				"Industry-specific pain points",
			},
		})
	}
	return segments
}

func (s *intelService) demographics(industries []string) Demographics {
	d := Demographics{
		AgeDistribution: map[string]int{
			"18-24": s.intn(5, 15),
			"25-34": s.intn(25, 40),
			"35-44": s.intn(20, 35),
			"45-54": s.intn(10, 25),
			"55+":   s.intn(5, 15),
		},
		GenderDistribution: map[string]int{
			"male":   s.intn(40, 60),
			"female": s.intn(35, 55),
			"other":  s.intn(1, 5),
		},
		IncomeLevels: map[string]int{
			"low":    s.intn(10, 20),
			"middle": s.intn(50, 70),
			"high":   s.intn(20, 40),
		},
		EducationLevels: map[string]int{
			"high_school":  s.intn(10, 25),
			"bachelors":    s.intn(40, 60),
			"masters_plus": s.intn(20, 40),
		},
	}
	for _, industry := range industries {
		if strings.Contains(strings.ToLower(industry), "tech") {
			d.AgeDistribution["25-34"] = s.intn(35, 50)
			d.IncomeLevels["high"] = s.intn(30, 50)
			d.EducationLevels["masters_plus"] = s.intn(30, 50)
			break
		}
	}
	return d
}

func (s *intelService) interests(keywords []KeywordCount) []InterestCategory {
	techTokens := []string{"tech", "software", "ai", "digital", "cloud", "data"}
	businessTokens := []string{"business", "growth", "solution", "strategy", "enterprise"}

	techCount, businessCount := 0, 0
	for _, kw := range keywords {
		lower := strings.ToLower(kw.Keyword)
		if containsAny(lower, techTokens) {
			techCount++
		}
		if containsAny(lower, businessTokens) {
			businessCount++
		}
	}

	var interests []InterestCategory
	if techCount > 0 {
		interests = append(interests, InterestCategory{
			Category:           "Technology",
			AffinityScore:      minInt(95, 60+techCount*5),
			RelatedCompetitors: s.intn(3, 8),
		})
	}
	if businessCount > 0 {
		interests = append(interests, InterestCategory{
			Category:           "Business & Entrepreneurship",
			AffinityScore:      minInt(90, 55+businessCount*5),
			RelatedCompetitors: s.intn(2, 6),
		})
	}
	if len(interests) == 0 {
		interests = defaultAudienceInsights().Interests
	}
	return interests
}

func behavioralPatterns(platforms map[string]int) []BehavioralPattern {
	var patterns []BehavioralPattern
	for _, platform := range sortedKeys2(platforms) {
		traits, ok := platformBehaviors[strings.ToLower(platform)]
		if !ok {
			continue
		}
		count := platforms[platform]
		level := "low"
		if count > 10 {
			level = "high"
		} else if count > 5 {
			level = "medium"
		}
		patterns = append(patterns, BehavioralPattern{
			Platform:        platform,
			PrimaryBehavior: traits[0],
			EngagementLevel: level,
			Traits:          traits,
		})
	}
	if len(patterns) == 0 {
		patterns = defaultAudienceInsights().BehavioralPatterns
	}
	return patterns
}

func (s *intelService) CompetitiveAnalysis(ctx context.Context, userID string) (*CompetitiveAnalysis, error) {
	competitors, err := s.competitors.ListActiveByUserID(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("falling back to default competitive analysis")
		return defaultCompetitiveAnalysis(), nil
	}
	if len(competitors) == 0 {
		return defaultCompetitiveAnalysis(), nil
	}

	ids := make([]string, 0, len(competitors))
	for _, c := range competitors {
		ids = append(ids, c.ID)
	}
	since := time.Now().UTC().AddDate(0, 0, -30)
	records, err := s.metrics.ListByCompetitorIDsSince(ctx, ids, since)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("falling back to default competitive analysis")
		return defaultCompetitiveAnalysis(), nil
	}

	return &CompetitiveAnalysis{
		MarketCoverage:        marketCoverage(competitors, records),
		SpendingPatterns:      spendingPatterns(records),
		CreativeStrategies:    creativeStrategies(records),
		PlatformEffectiveness: platformEffectiveness(records),
		OpportunityAreas:      opportunityAreas(records),
		CompetitiveIntensity:  competitiveIntensity(records),
		Trends:                adTrends(records),
	}, nil
}

func marketCoverage(competitors []model.Competitor, records []model.MetricRecord) MarketCoverage {
	active := map[string]bool{}
	for _, r := range records {
		active[r.CompetitorID] = true
	}
	segments := map[string]bool{}
	for _, c := range competitors {
		if c.Industry != nil && *c.Industry != "" {
			segments[*c.Industry] = true
		}
	}
	score := float64(len(competitors) * 10)
	if score > 100 {
		score = 100
	}
	return MarketCoverage{
		TotalMarketPresence: len(competitors),
		ActiveCompetitors:   len(active),
		MarketSegments:      sortedKeys(segments),
		CoverageScore:       score,
	}
}

func spendingPatterns(records []model.MetricRecord) SpendingPatterns {
	if len(records) == 0 {
		return SpendingPatterns{
			SpendingDistribution: map[string]float64{"low": 100, "medium": 0, "high": 0},
			Trend:                "stable",
		}
	}
	total := 0.0
	low, medium, high := 0, 0, 0
	for _, r := range records {
		total += r.DailySpend
		switch {
		case r.DailySpend < 100:
			low++
		case r.DailySpend < 1000:
			medium++
		default:
			high++
		}
	}
	n := float64(len(records))
	trend := "low"
	if total > 10000 {
		trend = "increasing"
	} else if total > 5000 {
		trend = "stable"
	}
	return SpendingPatterns{
		TotalSpend:    round2(total),
		AvgDailySpend: round2(total / n),
		SpendingDistribution: map[string]float64{
			"low":    round1(float64(low) / n * 100),
			"medium": round1(float64(medium) / n * 100),
			"high":   round1(float64(high) / n * 100),
		},
		Trend: trend,
	}
}

func creativeStrategies(records []model.MetricRecord) map[string]float64 {
	strategyTokens := map[string][]string{
		"value_proposition": {"save", "get", "free", "offer", "deal", "discount"},
		"urgency":           {"now", "today", "limited", "hurry", "expire", "last"},
		"social_proof":      {"testimonial", "review", "rating", "popular", "trusted", "award"},
		"educational":       {"guide", "how", "tips", "learn", "master", "understand"},
	}
	counts := map[string]int{}
	for _, r := range records {
		if r.Creative == nil {
			continue
		}
		creative := strings.ToLower(*r.Creative)
		for strategy, tokens := range strategyTokens {
			if containsAny(creative, tokens) {
				counts[strategy]++
			}
		}
	}
	strategies := map[string]float64{
		"value_proposition": 0, "urgency": 0, "social_proof": 0, "educational": 0,
	}
	if len(records) > 0 {
		for strategy := range strategies {
			strategies[strategy] = round1(float64(counts[strategy]) / float64(len(records)) * 100)
		}
	}
	return strategies
}

func platformEffectiveness(records []model.MetricRecord) []PlatformEffectiveness {
	type agg struct {
		spend       float64
		impressions int64
		count       int
	}
	byPlatform := map[string]*agg{}
	totalSpend := 0.0
	for _, r := range records {
		a, ok := byPlatform[r.Platform]
		if !ok {
			a = &agg{}
			byPlatform[r.Platform] = a
		}
		a.spend += r.DailySpend
		a.impressions += r.DailyImpressions
		a.count++
		totalSpend += r.DailySpend
	}

	result := make([]PlatformEffectiveness, 0, len(byPlatform))
	for platform, a := range byPlatform {
		score := 50.0
		if a.impressions > 0 {
			cpm := a.spend / float64(a.impressions) * 1000
			score = 100 - cpm
			if score > 100 {
				score = 100
			}
			if score < 1 {
				score = 1
			}
		}
		share := 0.0
		if totalSpend > 0 {
			share = round1(a.spend / totalSpend * 100)
		}
		result = append(result, PlatformEffectiveness{
			Platform:           platform,
			EffectivenessScore: round1(score),
			SpendShare:         share,
			AdsCount:           a.count,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].EffectivenessScore != result[j].EffectivenessScore {
			return result[i].EffectivenessScore > result[j].EffectivenessScore
		}
		return result[i].Platform < result[j].Platform
	})
	return result
}

func opportunityAreas(records []model.MetricRecord) []OpportunityArea {
	used := map[string]bool{}
	for _, r := range records {
		used[strings.ToLower(r.Platform)] = true
	}
	var unused []string
	for _, p := range []string{"meta", "facebook", "instagram", "linkedin", "google", "tiktok"} {
		if !used[p] {
			unused = append(unused, strings.ToUpper(p[:1])+p[1:])
		}
	}

	var opportunities []OpportunityArea
	if len(unused) > 0 {
		opportunities = append(opportunities, OpportunityArea{
			Type:            "platform_gap",
			Description:     fmt.Sprintf("Opportunity on %s platform(s)", strings.Join(unused, ", ")),
			PotentialImpact: "high",
			Difficulty:      "medium",
		})
	}
	if len(records) < 10 {
		opportunities = append(opportunities, OpportunityArea{
			Type:            "content_gap",
			Description:     "Limited creative variety in current ads",
			PotentialImpact: "medium",
			Difficulty:      "low",
		})
	}
	return opportunities
}

func competitiveIntensity(records []model.MetricRecord) CompetitiveIntensity {
	if len(records) == 0 {
		return CompetitiveIntensity{Score: 30, Level: "low", Description: "Limited competition detected"}
	}
	unique := map[string]bool{}
	for _, r := range records {
		unique[r.CompetitorID] = true
	}
	score := float64(len(unique)*15) + float64(len(records))/10
	if score > 100 {
		score = 100
	}
	level, desc := "low", "Limited competition"
	if score >= 70 {
		level, desc = "high", "Highly competitive landscape"
	} else if score >= 40 {
		level, desc = "medium", "Moderate competition"
	}
	return CompetitiveIntensity{Score: round1(score), Level: level, Description: desc}
}

func adTrends(records []model.MetricRecord) AdTrends {
	if len(records) < 5 {
		return AdTrends{
			EmergingFormats: []string{"Video content", "Interactive ads"},
			ContentThemes:   []string{"Value-driven messaging", "Problem-solution approach"},
			PredictedShifts: []string{"Increased video adoption", "More personalized content"},
		}
	}
	return AdTrends{
		EmergingFormats: []string{"Short-form video", "Interactive stories", "Carousel ads"},
		ContentThemes:   []string{"Authentic storytelling", "User-generated content", "Educational value"},
		PredictedShifts: []string{
			"Higher video ad spend",
			"Increased AR/VR experimentation",
			"More personalized retargeting",
		},
		DataBased: len(records) >= 10,
	}
}

func (s *intelService) Recommendations(ctx context.Context, userID string) (*Recommendations, error) {
	return &Recommendations{
		AudienceExpansion: []Recommendation{
			{
				Title:       "Lookalike Audiences",
				Description: "Target users similar to your current converters",
				Expected:    "2-3x current audience",
				Priority:    "low",
			},
			{
				Title:       "Interest-based Expansion",
				Description: "Expand to related interest categories",
				Expected:    "1.5-2x current audience",
				Priority:    "medium",
			},
		},
		CreativeOptimization: []Recommendation{
			{
				Title:       "Video Content",
				Description: "Incorporate short-form video in ad creatives",
				Expected:    "Increase CTR by 15-25%",
				Priority:    "high",
			},
			{
				Title:       "Social Proof",
				Description: "Add testimonials and ratings to ads",
				Expected:    "Increase conversion by 10-20%",
				Priority:    "medium",
			},
		},
		BudgetAllocation: []Recommendation{
			{
				Title:       "Meta",
				Description: "High engagement and proven ROI",
				Expected:    "12-18% ROI improvement with a 15-20% budget increase",
				Priority:    "high",
			},
			{
				Title:       "LinkedIn",
				Description: "Strong B2B conversion rates",
				Expected:    "8-12% ROI improvement with a 10-15% budget increase",
				Priority:    "medium",
			},
		},
		TestingPriorities: []Recommendation{
			{
				Title:       "Audience Segment",
				Description: "Test new interest-based audience segments over 2-3 weeks",
				Expected:    "low budget required",
				Priority:    "high",
			},
			{
				Title:       "Creative Format",
				Description: "Test video vs. image vs. carousel formats over 3-4 weeks",
				Expected:    "medium budget required",
				Priority:    "medium",
			},
		},
		GeneratedAt: time.Now().UTC(),
		TimeHorizon: "Next 30-60 days",
	}, nil
}

// extractKeywords pulls the most frequent meaningful words out of creative
// texts, with a canned fallback when nothing usable is found.
func extractKeywords(creatives []string) []KeywordCount {
	counts := map[string]int{}
	for _, creative := range creatives {
		for _, word := range strings.Fields(strings.ToLower(creative)) {
			word = strings.Trim(word, `.,!?;:"'()[]{}`)
			if len(word) <= 3 || stopwords[word] || !isAlpha(word) {
				continue
			}
			counts[word]++
		}
	}
	if len(counts) == 0 {
		return []KeywordCount{
			{Keyword: "technology", Frequency: 15},
			{Keyword: "business", Frequency: 12},
			{Keyword: "solution", Frequency: 10},
			{Keyword: "growth", Frequency: 8},
			{Keyword: "innovation", Frequency: 7},
		}
	}
	keywords := make([]KeywordCount, 0, len(counts))
	for word, n := range counts {
		keywords = append(keywords, KeywordCount{Keyword: word, Frequency: n})
	}
	sort.Slice(keywords, func(i, j int) bool {
		if keywords[i].Frequency != keywords[j].Frequency {
			return keywords[i].Frequency > keywords[j].Frequency
		}
		return keywords[i].Keyword < keywords[j].Keyword
	})
	return firstN(keywords, 20)
}

func confidenceScore(adsCount, competitorCount int) float64 {
	if adsCount == 0 {
		return 0.3
	}
	score := 0.3 + float64(adsCount)*0.01
	if score > 0.9 {
		score = 0.9
	}
	if competitorCount >= 5 {
		score += 0.1
		if score > 0.95 {
			score = 0.95
		}
	}
	return round2(score)
}

func defaultAudienceInsights() *AudienceInsights {
	return &AudienceInsights{
		PrimaryAudiences: []AudienceSegment{
			{
				Segment:            "Business Decision Makers",
				Size:               250000,
				GrowthRate:         0.15,
				KeyCharacteristics: []string{"C-level executives", "Budget holders", "Strategic planners"},
			},
			{
				Segment:            "Marketing Professionals",
				Size:               180000,
				GrowthRate:         0.22,
				KeyCharacteristics: []string{"Digital marketing experience", "ROI-focused", "Platform savvy"},
			},
		},
		Demographics: Demographics{
			AgeDistribution:    map[string]int{"18-24": 12, "25-34": 35, "35-44": 28, "45-54": 18, "55+": 7},
			GenderDistribution: map[string]int{"male": 52, "female": 45, "other": 3},
			IncomeLevels:       map[string]int{"low": 15, "middle": 60, "high": 25},
			EducationLevels:    map[string]int{"high_school": 20, "bachelors": 50, "masters_plus": 30},
		},
		Interests: []InterestCategory{
			{Category: "Digital Marketing", AffinityScore: 75, RelatedCompetitors: 5},
			{Category: "Business Solutions", AffinityScore: 68, RelatedCompetitors: 4},
		},
		BehavioralPatterns: []BehavioralPattern{
			{
				Platform:        "Meta",
				PrimaryBehavior: "Social media engagement",
				EngagementLevel: "high",
				Traits:          []string{"Community building", "Content sharing", "Brand interaction"},
			},
			{
				Platform:        "LinkedIn",
				PrimaryBehavior: "Professional networking",
				EngagementLevel: "medium",
				Traits:          []string{"Industry discussions", "Professional development", "B2B networking"},
			},
		},
		TopKeywords: []KeywordCount{
			{Keyword: "business", Frequency: 15},
			{Keyword: "solution", Frequency: 12},
			{Keyword: "growth", Frequency: 10},
			{Keyword: "digital", Frequency: 8},
			{Keyword: "marketing", Frequency: 7},
		},
		PlatformDistribution: map[string]int{"meta": 8, "linkedin": 5, "google": 3},
		CompetitorsAnalyzed:  []string{"Sample Competitors"},
		IndustriesTargeted:   []string{"General Business"},
		ConfidenceScore:      0.3,
		IsDefaultData:        true,
	}
}

func defaultCompetitiveAnalysis() *CompetitiveAnalysis {
	return &CompetitiveAnalysis{
		MarketCoverage: MarketCoverage{
			MarketSegments: []string{"General"},
		},
		SpendingPatterns: SpendingPatterns{
			SpendingDistribution: map[string]float64{"low": 100, "medium": 0, "high": 0},
			Trend:                "stable",
		},
		CreativeStrategies: map[string]float64{
			"value_proposition": 40, "urgency": 25, "social_proof": 20, "educational": 15,
		},
		PlatformEffectiveness: []PlatformEffectiveness{
			{Platform: "Meta", EffectivenessScore: 75, SpendShare: 40, AdsCount: 8},
			{Platform: "LinkedIn", EffectivenessScore: 65, SpendShare: 30, AdsCount: 5},
			{Platform: "Google", EffectivenessScore: 60, SpendShare: 30, AdsCount: 3},
		},
		OpportunityAreas: []OpportunityArea{
			{
				Type:            "platform_gap",
				Description:     "Opportunity on TikTok and Instagram platforms",
				PotentialImpact: "high",
				Difficulty:      "medium",
			},
		},
		CompetitiveIntensity: CompetitiveIntensity{Score: 30, Level: "low", Description: "Limited competition detected"},
		Trends: AdTrends{
			EmergingFormats: []string{"Video content", "Interactive ads"},
			ContentThemes:   []string{"Value-driven messaging", "Problem-solution approach"},
			PredictedShifts: []string{"Increased video adoption", "More personalized content"},
		},
		IsDefaultData: true,
	}
}

func containsAny(s string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(s, token) {
			return true
		}
	}
	return false
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return len(s) > 0
}

func firstN(keywords []KeywordCount, n int) []KeywordCount {
	if len(keywords) > n {
		return keywords[:n]
	}
	return keywords
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeys2(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
