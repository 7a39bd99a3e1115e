package metrics

import (
	"fmt"
	"math"
	"time"

	"github.com/brettboylen/creator-tracker/models"
)

const (
	// cadenceBand is the relative delta beyond which pace counts as above or below baseline
	cadenceBand = 0.15
	// singleDaySpan stands in for the span when only one day has posts
	singleDaySpan = 7
)

const (
	sentenceNoHistory   = "You haven’t posted on this account yet. Once you start posting, I’ll benchmark your cadence."
	sentenceEmptyRange  = "This range doesn’t include any posts. Try expanding the window or posting again."
	sentenceFirstWindow = "This range is the start of your posting history, so I’m treating this cadence as your baseline."
)

// EffectiveActiveDays is the denominator used for in-range velocity
func EffectiveActiveDays(rangeDays *int, dailyPoints []models.DailyPoint) int {
	if rangeDays != nil && *rangeDays > 0 {
		return *rangeDays
	}

	switch len(dailyPoints) {
	case 0:
		return 0
	case 1:
		return singleDaySpan
	}

	first, errFirst := time.Parse(dateLayout, dailyPoints[0].Date)
	last, errLast := time.Parse(dateLayout, dailyPoints[len(dailyPoints)-1].Date)
	if errFirst != nil || errLast != nil {
		return singleDaySpan
	}

	diffDays := int(math.Round(last.Sub(first).Hours() / 24))
	return max(diffDays+1, 1)
}

// VideosPerWeek converts a post count over activeDays into a weekly rate
func VideosPerWeek(videos, activeDays int) float64 {
	if activeDays <= 0 {
		return 0
	}
	return float64(videos) / float64(activeDays) * 7
}

// BaselineVideosPerWeek is the weekly posting rate over the full history.
// Only posts with a parseable effective timestamp take part.
func BaselineVideosPerWeek(allPosts []models.Post) float64 {
	var (
		earliest, latest time.Time
		dated            int
	)

	for _, post := range allPosts {
		t, ok := post.EffectiveTime()
		if !ok {
			continue
		}
		if dated == 0 || t.Before(earliest) {
			earliest = t
		}
		if dated == 0 || t.After(latest) {
			latest = t
		}
		dated++
	}

	if dated < 2 {
		return 0
	}

	daysSpan := latest.Sub(earliest).Hours()/24 + 1
	weeksSpan := daysSpan / 7
	if weeksSpan <= 0 {
		return 0
	}
	return float64(dated) / weeksSpan
}

// CadenceSentence narrates in-range velocity against the historical baseline
func CadenceSentence(historyPosts int, videosPerWeek, baselineVideosPerWeek float64) string {
	switch {
	case historyPosts == 0:
		return sentenceNoHistory
	case videosPerWeek == 0:
		return sentenceEmptyRange
	case baselineVideosPerWeek == 0:
		return sentenceFirstWindow
	}

	relDelta := (videosPerWeek - baselineVideosPerWeek) / baselineVideosPerWeek

	switch {
	case relDelta >= cadenceBand:
		return fmt.Sprintf("You’re posting above your typical pace (~%.2f videos/week historically).", baselineVideosPerWeek)
	case relDelta <= -cadenceBand:
		return fmt.Sprintf("You’re posting below your usual cadence (baseline ~%.2f videos/week).", baselineVideosPerWeek)
	default:
		return fmt.Sprintf("You’re roughly on pace with your normal cadence (~%.2f videos/week).", baselineVideosPerWeek)
	}
}
