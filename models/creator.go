package models

// Platform is a channel the strategy engine can reason about
type Platform string

const (
	PlatformTikTok     Platform = "tiktok"
	PlatformInstagram  Platform = "instagram"
	PlatformYouTube    Platform = "youtube"
	PlatformTwitter    Platform = "twitter"
	PlatformNewsletter Platform = "newsletter"
)

// AllPlatforms lists every known platform in display order
var AllPlatforms = []Platform{
	PlatformTikTok,
	PlatformInstagram,
	PlatformYouTube,
	PlatformTwitter,
	PlatformNewsletter,
}

// ContentPillar is a recurring content theme of a creator's brand
type ContentPillar string

const (
	PillarDigitalNomad ContentPillar = "digital_nomad"
	PillarHipHop       ContentPillar = "hip_hop"
	PillarRevOpsAI     ContentPillar = "revops_ai"
	PillarMentalHealth ContentPillar = "mental_health"
	PillarMusic        ContentPillar = "music"
)

// Priority ranks platforms and goals
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities, higher is more important. Unknown values rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Confidence is how sure the engine is about a recommendation
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// GoalType categorizes a creator goal
type GoalType string

const (
	GoalGrowth          GoalType = "growth"
	GoalMonetization    GoalType = "monetization"
	GoalConsistency     GoalType = "consistency"
	GoalExperimentation GoalType = "experimentation"
)

// PlatformPreference is one ranked platform choice
type PlatformPreference struct {
	Platform Platform `json:"platform" yaml:"platform"`
	Priority Priority `json:"priority" yaml:"priority"`
}

// CreatorProfile is the static description of a creator
type CreatorProfile struct {
	ID                 string               `json:"id" yaml:"id"`
	UserID             string               `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	DisplayName        string               `json:"display_name" yaml:"display_name"`
	Handle             string               `json:"handle" yaml:"handle"`
	PrimaryPlatforms   []Platform           `json:"primary_platforms" yaml:"primary_platforms"`
	PreferredPlatforms []PlatformPreference `json:"preferred_platforms,omitempty" yaml:"preferred_platforms,omitempty"`
	BrandPillars       []ContentPillar      `json:"brand_pillars" yaml:"brand_pillars"`
	Bio                string               `json:"bio" yaml:"bio"`
	PrimaryTimezone    string               `json:"primary_timezone,omitempty" yaml:"primary_timezone,omitempty"`
}

// CreatorGoal is one prioritized goal
type CreatorGoal struct {
	ID       string   `json:"id" yaml:"id"`
	Label    string   `json:"label" yaml:"label"`
	Type     GoalType `json:"type" yaml:"type"`
	Priority Priority `json:"priority" yaml:"priority"`
}

// CreatorGoals is the ordered goal list of a creator
type CreatorGoals []CreatorGoal

// PlatformMetricsSummary is the per-platform view of the dashboard the strategy engine consumes
type PlatformMetricsSummary struct {
	Platform Platform `json:"platform"`

	PostsInRange       int     `json:"posts_in_range"`
	PlaysInRange       int64   `json:"plays_in_range"`
	EngagementsInRange int64   `json:"engagements_in_range"`
	VideosPerWeek      float64 `json:"videos_per_week"`

	SharesInRange        int64   `json:"shares_in_range"`
	SavesInRange         int64   `json:"saves_in_range"`
	DownloadsInRange     int64   `json:"downloads_in_range"`
	AvgEngagementRatePct float64 `json:"avg_engagement_rate_pct"`
}

// WeeklyContentPlan is a one-week posting plan for a platform
type WeeklyContentPlan struct {
	Platform     Platform        `json:"platform"`
	PostsPerWeek int             `json:"posts_per_week"`
	PillarsToHit []ContentPillar `json:"pillars_to_hit"`
	ContentTypes []string        `json:"content_types"`
	Notes        string          `json:"notes,omitempty"`
}

// NextPostRecommendation is the single "what to post next" suggestion
type NextPostRecommendation struct {
	Headline            string        `json:"headline"`
	Platform            Platform      `json:"platform"`
	Pillar              ContentPillar `json:"pillar,omitempty"`
	Reasoning           []string      `json:"reasoning"`
	SuggestedTags       []string      `json:"suggested_tags,omitempty"`
	SuggestedCTA        string        `json:"suggested_cta,omitempty"`
	Confidence          Confidence    `json:"confidence"`
	DataRequirementsMet bool          `json:"data_requirements_met"`
}

// StrategyContext bundles the strategy engine inputs
type StrategyContext struct {
	CreatorProfile  CreatorProfile                       `json:"creator_profile"`
	Goals           CreatorGoals                         `json:"goals"`
	PlatformMetrics map[Platform]*PlatformMetricsSummary `json:"platform_metrics"`
}

// ComputedStrategy is the strategy engine output
type ComputedStrategy struct {
	Context          StrategyContext        `json:"context"`
	PrimaryPlatform  Platform               `json:"primary_platform"`
	NarrativeSummary string                 `json:"narrative_summary"`
	WeeklyPlans      []WeeklyContentPlan    `json:"weekly_plans"`
	NextPost         NextPostRecommendation `json:"next_post"`
}
