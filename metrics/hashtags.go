package metrics

import (
	"sort"
	"strings"

	"github.com/brettboylen/creator-tracker/models"
)

const maxHashtagStats = 10

// BuildHashtagStats ranks tags by average plays and computes lift over baselineAvgPlays.
// Every entry in a post's tag list counts, so a tag repeated on one post counts twice.
func BuildHashtagStats(posts []models.Post, baselineAvgPlays float64) []models.HashtagStat {
	byTag := make(map[string]*models.HashtagStat)
	order := make([]string, 0)

	for _, post := range posts {
		if len(post.Hashtags) == 0 {
			continue
		}

		plays := models.Count(post.Plays)
		engagements := post.Engagements()

		for _, rawTag := range post.Hashtags {
			tag := strings.TrimSpace(rawTag)
			if tag == "" {
				continue
			}

			stat, exists := byTag[tag]
			if !exists {
				stat = &models.HashtagStat{Tag: tag}
				byTag[tag] = stat
				order = append(order, tag)
			}

			stat.Videos++
			stat.TotalPlays += plays
			stat.TotalEngagements += engagements
		}
	}

	stats := make([]models.HashtagStat, 0, len(order))
	for _, tag := range order {
		stat := byTag[tag]
		if stat.Videos > 0 {
			stat.AvgPlays = float64(stat.TotalPlays) / float64(stat.Videos)
		}
		if baselineAvgPlays > 0 {
			stat.LiftVsBaseline = (stat.AvgPlays/baselineAvgPlays - 1) * 100
		}
		stats = append(stats, *stat)
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].AvgPlays > stats[j].AvgPlays
	})

	if len(stats) > maxHashtagStats {
		stats = stats[:maxHashtagStats]
	}
	return stats
}
