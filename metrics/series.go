package metrics

import (
	"sort"
	"time"

	"github.com/brettboylen/creator-tracker/models"
)

const dateLayout = "2006-01-02"

// BuildDailyPoints groups posts by the UTC date of their effective timestamp.
// Days without posts produce no point.
func BuildDailyPoints(posts []models.Post) []models.DailyPoint {
	byDate := make(map[string]*models.DailyPoint)

	for _, post := range posts {
		t, ok := post.EffectiveTime()
		if !ok {
			continue
		}

		key := t.UTC().Format(dateLayout)
		point, exists := byDate[key]
		if !exists {
			point = &models.DailyPoint{Date: key}
			byDate[key] = point
		}

		point.TotalPlays += models.Count(post.Plays)
		point.TotalEngagements += post.Engagements()
		point.VideoCount++
	}

	points := make([]models.DailyPoint, 0, len(byDate))
	for _, point := range byDate {
		points = append(points, *point)
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date < points[j].Date
	})

	return points
}

// WeekStart returns local midnight of the Monday on or before t
func WeekStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	sinceMonday := (int(local.Weekday()) + 6) % 7
	return time.Date(local.Year(), local.Month(), local.Day()-sinceMonday, 0, 0, 0, 0, loc)
}

// BuildWeeklyCadencePoints groups posts into Monday-anchored weeks in loc
func BuildWeeklyCadencePoints(posts []models.Post, loc *time.Location) []models.WeeklyCadencePoint {
	byWeek := make(map[string]*models.WeeklyCadencePoint)

	for _, post := range posts {
		t, ok := post.EffectiveTime()
		if !ok {
			continue
		}

		key := WeekStart(t, loc).Format(dateLayout)
		point, exists := byWeek[key]
		if !exists {
			point = &models.WeeklyCadencePoint{WeekStart: key}
			byWeek[key] = point
		}

		point.PostCount++
		point.TotalPlays += models.Count(post.Plays)
	}

	points := make([]models.WeeklyCadencePoint, 0, len(byWeek))
	for _, point := range byWeek {
		if point.PostCount > 0 {
			point.AvgPlaysPerPost = float64(point.TotalPlays) / float64(point.PostCount)
		}
		points = append(points, *point)
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].WeekStart < points[j].WeekStart
	})

	return points
}
