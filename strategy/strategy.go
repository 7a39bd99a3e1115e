package strategy

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/brettboylen/creator-tracker/models"
)

const (
	// FallbackPlatform is used when there are neither preferences nor metrics
	FallbackPlatform = models.PlatformTikTok

	// minPostsForPatterns is where the engine leaves learning mode
	minPostsForPatterns = 10
	// minPostsForHighConfidence is where a recommendation counts as high confidence
	minPostsForHighConfidence = 25
	// earlyDataPosts is the post count below which the primary plan stays at two a week
	earlyDataPosts = 5

	minSteadyCadence    = 3
	maxSteadyCadence    = 6
	defaultCadence      = 3
	maxPrimaryPillars   = 3
	maxSatellitePillars = 2
	maxNarrativePillars = 3
)

// satellitePlatforms get a light plan when they have metrics
var satellitePlatforms = []models.Platform{models.PlatformInstagram, models.PlatformYouTube}

var primaryContentTypes = []string{
	"story-driven verticals",
	"quick performance clips",
	"behind-the-scenes moments",
}

var satelliteContentTypes = []string{
	"reposted winners from primary",
	"short experiments tailored to the platform",
}

// placeholder suggestions until tags and CTAs are derived from data
var suggestedTags = []string{
	"#digitalnomad",
	"#independentartist",
	"#behindthescenes",
}

const suggestedCTA = "End the clip with a simple ask like “If this hits you, save this and I’ll keep posting from the next city.”"

// Compute derives the strategy for a creator from per-platform metrics.
// It never fails: every step falls back to an insufficient-data answer.
func Compute(profile models.CreatorProfile, goals models.CreatorGoals, platformMetrics []models.PlatformMetricsSummary) models.ComputedStrategy {
	metricsMap := make(map[models.Platform]*models.PlatformMetricsSummary, len(platformMetrics))
	for i := range platformMetrics {
		m := platformMetrics[i]
		metricsMap[m.Platform] = &m
	}

	ctx := models.StrategyContext{
		CreatorProfile:  profile,
		Goals:           goals,
		PlatformMetrics: metricsMap,
	}

	primary := ChoosePrimaryPlatform(profile, platformMetrics)

	return models.ComputedStrategy{
		Context:          ctx,
		PrimaryPlatform:  primary,
		NarrativeSummary: BuildNarrative(ctx, primary),
		WeeklyPlans:      BuildWeeklyPlans(ctx, primary),
		NextPost:         BuildNextPostRecommendation(ctx, primary),
	}
}

// ChoosePrimaryPlatform picks the highest-priority preferred platform, then the
// platform with the most plays, then FallbackPlatform. Ties keep declaration order.
func ChoosePrimaryPlatform(profile models.CreatorProfile, metrics []models.PlatformMetricsSummary) models.Platform {
	if len(profile.PreferredPlatforms) > 0 {
		prefs := make([]models.PlatformPreference, len(profile.PreferredPlatforms))
		copy(prefs, profile.PreferredPlatforms)
		sort.SliceStable(prefs, func(i, j int) bool {
			return prefs[i].Priority.Rank() > prefs[j].Priority.Rank()
		})
		return prefs[0].Platform
	}

	if len(metrics) > 0 {
		sorted := make([]models.PlatformMetricsSummary, len(metrics))
		copy(sorted, metrics)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].PlaysInRange > sorted[j].PlaysInRange
		})
		return sorted[0].Platform
	}

	return FallbackPlatform
}

// TopGoal is the first high-priority goal, else the first goal
func TopGoal(goals models.CreatorGoals) (models.CreatorGoal, bool) {
	for _, g := range goals {
		if g.Priority == models.PriorityHigh {
			return g, true
		}
	}
	if len(goals) > 0 {
		return goals[0], true
	}
	return models.CreatorGoal{}, false
}

// BuildNarrative writes the strategy summary paragraph
func BuildNarrative(ctx models.StrategyContext, primary models.Platform) string {
	primaryLabel := PlatformLabel(primary)

	m := ctx.PlatformMetrics[primary]
	if m == nil {
		return fmt.Sprintf("Right now I’m treating %s as your main channel, but I don’t have enough data in this range to say much yet. As you post more, I’ll shape a clearer strategy around your goals.", primaryLabel)
	}

	pillarText := "your core story"
	if pillars := ctx.CreatorProfile.BrandPillars; len(pillars) > 0 {
		names := make([]string, 0, maxNarrativePillars)
		for _, p := range pillars[:min(len(pillars), maxNarrativePillars)] {
			names = append(names, HumanizePillar(p))
		}
		pillarText = strings.Join(names, ", ")
	}

	goalText := "growing a consistent audience"
	if goal, ok := TopGoal(ctx.Goals); ok {
		goalText = strings.ToLower(goal.Label)
	}

	return strings.Join([]string{
		fmt.Sprintf("For this time range, I’m treating %s as your primary channel.", primaryLabel),
		fmt.Sprintf("You’ve posted %d %s here, generating about %s plays at a cadence of ~%.1f videos per week.",
			m.PostsInRange, videoNoun(m.PostsInRange), humanize.Comma(m.PlaysInRange), m.VideosPerWeek),
		fmt.Sprintf("Given your focus on %s, I want you doubling down on %s while we steadily increase volume and tighten the feedback loop on what works.",
			goalText, pillarText),
	}, " ")
}

// primaryCadence returns the target posts per week and the framing note for the primary platform
func primaryCadence(m *models.PlatformMetricsSummary) (int, string) {
	if m == nil {
		return defaultCadence, "Once more data comes in for this channel, I’ll tighten this weekly plan around your real cadence and winners."
	}

	switch {
	case m.PostsInRange == 0:
		return 1, "I don’t see posts in this range yet, so aim for 1 strong post this week to get a clean baseline. Once we see how it performs, we’ll ramp the cadence."
	case m.PostsInRange < earlyDataPosts:
		return 2, "You’re still in early data-gathering mode. Target 2 thoughtful posts this week so we can start to see patterns and then bias more content toward what spikes."
	}

	target := int(math.Round(m.VideosPerWeek))
	if target == 0 {
		target = defaultCadence
	}
	target = min(maxSteadyCadence, max(minSteadyCadence, target))
	return target, "Treat this as your baseline. If a format takes off, we’ll bias more of the week toward that pattern."
}

// BuildWeeklyPlans returns the primary plan followed by satellite plans for platforms with metrics
func BuildWeeklyPlans(ctx models.StrategyContext, primary models.Platform) []models.WeeklyContentPlan {
	pillars := ctx.CreatorProfile.BrandPillars
	if len(pillars) == 0 {
		pillars = []models.ContentPillar{models.PillarDigitalNomad}
	}

	cadence, notes := primaryCadence(ctx.PlatformMetrics[primary])

	plans := []models.WeeklyContentPlan{
		{
			Platform:     primary,
			PostsPerWeek: cadence,
			PillarsToHit: firstPillars(pillars, maxPrimaryPillars),
			ContentTypes: append([]string(nil), primaryContentTypes...),
			Notes:        notes,
		},
	}

	for _, platform := range satellitePlatforms {
		if platform == primary {
			continue
		}
		m := ctx.PlatformMetrics[platform]
		if m == nil {
			continue
		}

		plans = append(plans, models.WeeklyContentPlan{
			Platform:     platform,
			PostsPerWeek: max(1, int(math.Round(m.VideosPerWeek))),
			PillarsToHit: firstPillars(pillars, maxSatellitePillars),
			ContentTypes: append([]string(nil), satelliteContentTypes...),
			Notes:        "Use this as a satellite channel: recycle what works and occasionally try native experiments.",
		})
	}

	return plans
}

// ConfidenceFor maps an in-range post count to a confidence tier
func ConfidenceFor(posts int) models.Confidence {
	switch {
	case posts >= minPostsForHighConfidence:
		return models.ConfidenceHigh
	case posts >= minPostsForPatterns:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// BuildNextPostRecommendation produces the single next-post suggestion
func BuildNextPostRecommendation(ctx models.StrategyContext, primary models.Platform) models.NextPostRecommendation {
	var (
		posts       int
		plays       int64
		engagements int64
	)
	if m := ctx.PlatformMetrics[primary]; m != nil {
		posts = m.PostsInRange
		plays = m.PlaysInRange
		engagements = m.EngagementsInRange
	}

	var engagementRate float64
	if plays > 0 {
		engagementRate = float64(engagements) / float64(plays) * 100
	}

	dataRequirementsMet := posts >= minPostsForPatterns
	platformNice := PlatformLabel(primary)

	var primaryPillar models.ContentPillar
	if len(ctx.CreatorProfile.BrandPillars) > 0 {
		primaryPillar = ctx.CreatorProfile.BrandPillars[0]
	}

	headline := fmt.Sprintf("Post something real on %s that connects your music to what you’re actually doing today.", platformNice)
	if primaryPillar != "" {
		headline = fmt.Sprintf("Post a %s clip on %s that ties music, travel, and a real moment you’re living through right now.",
			HumanizePillar(primaryPillar), platformNice)
	}

	reasoning := make([]string, 0, 3)
	if posts == 0 {
		reasoning = append(reasoning, "I don’t see posts in this range yet, so the first goal is to get a clean baseline by publishing something simple and honest.")
	} else {
		reasoning = append(reasoning, fmt.Sprintf("You’ve published %d %s in this range. The next post should build on that momentum rather than resetting the experiment.",
			posts, videoNoun(posts)))
	}

	if plays > 0 {
		reasoning = append(reasoning, fmt.Sprintf("Across this range you’ve driven ~%s plays on %s, with an estimated engagement rate around %.1f%%. We want to keep that pattern but tighten the theme and call-to-action.",
			humanize.Comma(plays), platformNice, engagementRate))
	}

	if dataRequirementsMet {
		reasoning = append(reasoning, "You’ve crossed the threshold where patterns start to show up, so this post leans into what’s already working while testing one new angle.")
	} else {
		reasoning = append(reasoning, "Because there isn’t a huge amount of data yet, I’m in learning mode — the main goal is to ship, watch what spikes, and then bias more content in that direction.")
	}

	return models.NextPostRecommendation{
		Headline:            headline,
		Platform:            primary,
		Pillar:              primaryPillar,
		Reasoning:           reasoning,
		SuggestedTags:       append([]string(nil), suggestedTags...),
		SuggestedCTA:        suggestedCTA,
		Confidence:          ConfidenceFor(posts),
		DataRequirementsMet: dataRequirementsMet,
	}
}

func firstPillars(pillars []models.ContentPillar, n int) []models.ContentPillar {
	return append([]models.ContentPillar(nil), pillars[:min(len(pillars), n)]...)
}

func videoNoun(n int) string {
	if n == 1 {
		return "video"
	}
	return "videos"
}
