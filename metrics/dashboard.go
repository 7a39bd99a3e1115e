package metrics

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/brettboylen/creator-tracker/models"
)

const shortDateLayout = "Jan 2"

// ComputeDashboardMetrics builds the full dashboard bundle.
// allPosts is the unfiltered history, filtered the in-range subset, and now the single
// instant (in the account's location) the whole computation is anchored to.
func ComputeDashboardMetrics(
	allPosts []models.Post,
	filtered []models.Post,
	profile *models.ProfileSnapshot,
	tr models.TimeRange,
	now time.Time,
) models.DashboardMetrics {
	totals := Aggregate(filtered)

	dailyPoints := BuildDailyPoints(filtered)
	weeklyCadence := BuildWeeklyCadencePoints(filtered, now.Location())
	baselineAvgPlays := totals.AvgPlays()
	hashtagStats := BuildHashtagStats(filtered, baselineAvgPlays)

	rangeDays := DaysForRange(tr)
	activeDays := EffectiveActiveDays(rangeDays, dailyPoints)
	videosPerWeek := VideosPerWeek(totals.Videos, activeDays)
	baselineVideosPerWeek := BaselineVideosPerWeek(allPosts)

	leftLabel, rightLabel := rangeLabels(rangeDays, dailyPoints, now)

	return models.DashboardMetrics{
		TotalVideos:          totals.Videos,
		TotalPlays:           totals.Plays,
		TotalLikes:           totals.Likes,
		TotalComments:        totals.Comments,
		TotalShares:          totals.Shares,
		TotalEngagements:     totals.Engagements,
		TotalCollects:        totals.Collects,
		TotalDownloads:       totals.Downloads,
		TotalForwardShares:   totals.ForwardShares,
		TotalAllShares:       totals.AllShares,
		AvgEngagementRatePct: totals.AvgEngagementRatePct,

		BaselineAvgPlays:      baselineAvgPlays,
		VideosPerWeek:         videosPerWeek,
		BaselineVideosPerWeek: baselineVideosPerWeek,
		EffectiveActiveDays:   activeDays,

		DailyPoints:   dailyPoints,
		WeeklyCadence: weeklyCadence,
		HashtagStats:  hashtagStats,

		CadenceSentence: CadenceSentence(len(allPosts), videosPerWeek, baselineVideosPerWeek),
		AISummaryMain:   SummarySentence(totals.Videos, totals.Plays, profile),
		HashtagSentence: HashtagSentence(hashtagStats),

		LeftLabel:  leftLabel,
		RightLabel: rightLabel,
	}
}

// SummarySentence is the one-line range headline
func SummarySentence(videos int, plays int64, profile *models.ProfileSnapshot) string {
	noun := "posts"
	if videos == 1 {
		noun = "post"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "This range: %d %s • %s plays", videos, noun, humanize.Comma(plays))
	if profile != nil {
		if followers := models.Count(profile.FollowerCount); followers > 0 {
			fmt.Fprintf(&b, " • %s followers", humanize.Comma(followers))
		}
	}
	b.WriteString(".")
	return b.String()
}

// HashtagSentence suggests which of the top tags to keep using
func HashtagSentence(stats []models.HashtagStat) string {
	top := make([]string, 0, 3)
	for i := 0; i < len(stats) && i < 3; i++ {
		tag := stats[i].Tag
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		top = append(top, tag)
	}

	switch len(top) {
	case 0:
		return "Use a few consistent hashtags across multiple posts so I can spot which tags actually move the needle."
	case 1:
		return fmt.Sprintf("Re-use %s in this next wave of posts to keep testing momentum.", top[0])
	default:
		return fmt.Sprintf("Lean on %s in this range.", strings.Join(top, ", "))
	}
}

// rangeLabels returns the chart edge labels
func rangeLabels(rangeDays *int, dailyPoints []models.DailyPoint, now time.Time) (string, string) {
	if rangeDays != nil && *rangeDays > 0 {
		start := now.AddDate(0, 0, -*rangeDays+1)
		return start.Format(shortDateLayout), now.Format(shortDateLayout)
	}

	if len(dailyPoints) == 0 {
		return "", ""
	}
	return formatShortDate(dailyPoints[0].Date), formatShortDate(dailyPoints[len(dailyPoints)-1].Date)
}

func formatShortDate(date string) string {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return date
	}
	return t.Format(shortDateLayout)
}

// BuildPlatformMetricsSummary projects dashboard metrics onto the strategy engine's input shape
func BuildPlatformMetricsSummary(platform models.Platform, m models.DashboardMetrics) []models.PlatformMetricsSummary {
	return []models.PlatformMetricsSummary{
		{
			Platform:             platform,
			PostsInRange:         m.TotalVideos,
			PlaysInRange:         m.TotalPlays,
			EngagementsInRange:   m.TotalEngagements,
			VideosPerWeek:        m.VideosPerWeek,
			SharesInRange:        m.TotalAllShares,
			SavesInRange:         m.TotalCollects,
			DownloadsInRange:     m.TotalDownloads,
			AvgEngagementRatePct: m.AvgEngagementRatePct,
		},
	}
}
