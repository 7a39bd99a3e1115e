package metrics

import (
	"time"

	"github.com/brettboylen/creator-tracker/models"
)

func intPtr(n int) *int {
	return &n
}

// FixedTimeRanges is the preset catalogue shown in the range picker
var FixedTimeRanges = []models.TimeRangeOption{
	{Key: models.Range7d, Label: "Last 7 days", Days: intPtr(7)},
	{Key: models.Range14d, Label: "Last 14 days", Days: intPtr(14)},
	{Key: models.Range30d, Label: "Last 30 days", Days: intPtr(30)},
	{Key: models.Range90d, Label: "Last 90 days", Days: intPtr(90)},
	{Key: models.Range180d, Label: "Last 6 months", Days: intPtr(180)},
	{Key: models.Range365d, Label: "Last 12 months", Days: intPtr(365)},
	{Key: models.RangeAll, Label: "All time", Days: nil},
}

// TimeRangeOptions returns a copy of FixedTimeRanges that callers may modify
func TimeRangeOptions() []models.TimeRangeOption {
	options := make([]models.TimeRangeOption, len(FixedTimeRanges))
	for i, option := range FixedTimeRanges {
		options[i] = option
		if option.Days != nil {
			options[i].Days = intPtr(*option.Days)
		}
	}
	return options
}

// IsKnownRange reports whether key is a preset or custom
func IsKnownRange(key models.TimeRangeKey) bool {
	if key == models.RangeCustom {
		return true
	}
	for _, option := range FixedTimeRanges {
		if option.Key == key {
			return true
		}
	}
	return false
}

// DaysForRange resolves a range to a trailing day count. nil means unbounded.
// Custom day counts pass through unvalidated.
func DaysForRange(tr models.TimeRange) *int {
	switch tr.Key {
	case models.RangeAll:
		return nil
	case models.RangeCustom:
		return tr.CustomDays
	}

	for _, option := range FixedTimeRanges {
		if option.Key == tr.Key {
			return option.Days
		}
	}
	return nil
}

// FilterPostsByTimeRange keeps posts whose effective timestamp is at or after now minus the range.
// Posts without a parseable timestamp are dropped while a bound is active and kept otherwise.
func FilterPostsByTimeRange(posts []models.Post, tr models.TimeRange, now time.Time) []models.Post {
	if tr.Key == models.RangeAll {
		return posts
	}

	days := DaysForRange(tr)
	if days == nil {
		return posts
	}

	cutoff := now.AddDate(0, 0, -*days)

	filtered := make([]models.Post, 0, len(posts))
	for _, post := range posts {
		t, ok := post.EffectiveTime()
		if !ok {
			continue
		}
		if !t.Before(cutoff) {
			filtered = append(filtered, post)
		}
	}
	return filtered
}
