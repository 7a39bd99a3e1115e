package metrics

import "github.com/brettboylen/creator-tracker/models"

// Totals holds the scalar sums over a post collection
type Totals struct {
	Videos               int
	Plays                int64
	Likes                int64
	Comments             int64
	Shares               int64
	Collects             int64
	Downloads            int64
	ForwardShares        int64
	AllShares            int64
	Engagements          int64
	AvgEngagementRatePct float64
}

// Aggregate sums every counter across posts. Missing counters count as zero.
func Aggregate(posts []models.Post) Totals {
	var t Totals
	t.Videos = len(posts)

	for _, post := range posts {
		t.Plays += models.Count(post.Plays)
		t.Likes += models.Count(post.Likes)
		t.Comments += models.Count(post.Comments)
		t.Shares += models.Count(post.Shares)
		t.Collects += models.Count(post.Collects)
		t.Downloads += models.Count(post.Downloads)
		t.ForwardShares += post.ForwardShares()
	}

	// saves and downloads are not engagements
	t.Engagements = t.Likes + t.Comments + t.Shares
	t.AllShares = t.Shares + t.ForwardShares
	t.AvgEngagementRatePct = engagementRate(t.Engagements, t.Plays)

	return t
}

// AvgPlays is plays per video, or zero with no videos
func (t Totals) AvgPlays() float64 {
	if t.Videos == 0 {
		return 0
	}
	return float64(t.Plays) / float64(t.Videos)
}

func engagementRate(engagements, plays int64) float64 {
	if plays <= 0 {
		return 0
	}
	return float64(engagements) / float64(plays) * 100
}
