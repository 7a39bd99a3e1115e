package models

import (
	"strings"
	"time"
)

// Post represents a single published video on a tracked account
type Post struct {
	ID             string   `json:"id"`
	ExternalID     string   `json:"external_id"`
	Platform       Platform `json:"platform"`
	Username       string   `json:"username"`
	Caption        string   `json:"caption"`
	CreatedAt      string   `json:"created_at"`
	IngestedAt     string   `json:"p_created_at"`
	Plays          *int64   `json:"play_count"`
	Likes          *int64   `json:"like_count"`
	Comments       *int64   `json:"comment_count"`
	Shares         *int64   `json:"share_count"`
	Collects       *int64   `json:"collect_count"`
	Downloads      *int64   `json:"download_count"`
	Forwards       *int64   `json:"forward_count"`
	Reposts        *int64   `json:"repost_count"`
	WhatsAppShares *int64   `json:"whatsapp_share_count"`
	VideoURL       string   `json:"video_url"`
	ThumbnailURL   string   `json:"thumbnail_url"`
	Hashtags       []string `json:"hashtags"`
}

// timestampLayouts are tried in order when parsing stored timestamps
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// EffectiveTimestamp returns the raw creation timestamp, or the ingestion timestamp when the former is absent
func (p Post) EffectiveTimestamp() string {
	if strings.TrimSpace(p.CreatedAt) != "" {
		return p.CreatedAt
	}
	return p.IngestedAt
}

// EffectiveTime parses the effective timestamp. ok is false when it is absent or unparseable.
func (p Post) EffectiveTime() (time.Time, bool) {
	return ParseTimestamp(p.EffectiveTimestamp())
}

// ParseTimestamp parses a stored timestamp string
func ParseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Count dereferences a nullable counter, treating nil as zero
func Count(n *int64) int64 {
	if n == nil {
		return 0
	}
	return *n
}

// Engagements is likes + comments + native shares
func (p Post) Engagements() int64 {
	return Count(p.Likes) + Count(p.Comments) + Count(p.Shares)
}

// ForwardShares sums the forward, repost and messaging-app share counters
func (p Post) ForwardShares() int64 {
	return Count(p.Forwards) + Count(p.Reposts) + Count(p.WhatsAppShares)
}

// ProfileSnapshot holds the latest account-level counters for a username
type ProfileSnapshot struct {
	Username       string    `json:"username"`
	Platform       Platform  `json:"platform"`
	FollowerCount  *int64    `json:"follower_count"`
	HeartCount     *int64    `json:"heart_count"`
	VideoCount     *int64    `json:"video_count"`
	DiggCount      *int64    `json:"digg_count"`
	FollowingCount *int64    `json:"following_count"`
	AvatarURL      string    `json:"avatar_url"`
	Bio            string    `json:"bio"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TimeRangeKey identifies a dashboard time window
type TimeRangeKey string

const (
	Range7d     TimeRangeKey = "7d"
	Range14d    TimeRangeKey = "14d"
	Range30d    TimeRangeKey = "30d"
	Range90d    TimeRangeKey = "90d"
	Range180d   TimeRangeKey = "180d"
	Range365d   TimeRangeKey = "365d"
	RangeAll    TimeRangeKey = "all"
	RangeCustom TimeRangeKey = "custom"
)

// TimeRange is either a preset key or RangeCustom with an explicit day count
type TimeRange struct {
	Key        TimeRangeKey `json:"key"`
	CustomDays *int         `json:"custom_days,omitempty"`
}

// TimeRangeOption describes one preset in the range picker
type TimeRangeOption struct {
	Key   TimeRangeKey `json:"key"`
	Label string       `json:"label"`
	Days  *int         `json:"days"`
}

// DailyPoint aggregates one UTC calendar day
type DailyPoint struct {
	Date             string `json:"date"`
	TotalPlays       int64  `json:"total_plays"`
	TotalEngagements int64  `json:"total_engagements"`
	VideoCount       int    `json:"video_count"`
}

// WeeklyCadencePoint aggregates one Monday-anchored week
type WeeklyCadencePoint struct {
	WeekStart       string  `json:"week_start"`
	PostCount       int     `json:"post_count"`
	TotalPlays      int64   `json:"total_plays"`
	AvgPlaysPerPost float64 `json:"avg_plays_per_post"`
}

// HashtagStat holds per-tag performance within the filtered window
type HashtagStat struct {
	Tag              string  `json:"tag"`
	Videos           int     `json:"videos"`
	TotalPlays       int64   `json:"total_plays"`
	TotalEngagements int64   `json:"total_engagements"`
	AvgPlays         float64 `json:"avg_plays"`
	LiftVsBaseline   float64 `json:"lift_vs_baseline"`
}

// DashboardMetrics is everything the dashboard renders for one account and window
type DashboardMetrics struct {
	TotalVideos          int     `json:"total_videos"`
	TotalPlays           int64   `json:"total_plays"`
	TotalLikes           int64   `json:"total_likes"`
	TotalComments        int64   `json:"total_comments"`
	TotalShares          int64   `json:"total_shares"`
	TotalEngagements     int64   `json:"total_engagements"`
	TotalCollects        int64   `json:"total_collects"`
	TotalDownloads       int64   `json:"total_downloads"`
	TotalForwardShares   int64   `json:"total_forward_shares"`
	TotalAllShares       int64   `json:"total_all_shares"`
	AvgEngagementRatePct float64 `json:"avg_engagement_rate_pct"`

	BaselineAvgPlays      float64 `json:"baseline_avg_plays"`
	VideosPerWeek         float64 `json:"videos_per_week"`
	BaselineVideosPerWeek float64 `json:"baseline_videos_per_week"`
	EffectiveActiveDays   int     `json:"effective_active_days"`

	DailyPoints   []DailyPoint         `json:"daily_points"`
	WeeklyCadence []WeeklyCadencePoint `json:"weekly_cadence"`
	HashtagStats  []HashtagStat        `json:"hashtag_stats"`

	CadenceSentence string `json:"cadence_sentence"`
	AISummaryMain   string `json:"ai_summary_main"`
	HashtagSentence string `json:"hashtag_sentence"`

	LeftLabel  string `json:"left_label"`
	RightLabel string `json:"right_label"`
}

// IngestRun records one fetch of an account's posts
type IngestRun struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	Platform        Platform  `json:"platform"`
	PostCount       int       `json:"post_count"`
	ProfileCaptured bool      `json:"profile_captured"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	Error           string    `json:"error,omitempty"`
}

// NormalizeUsername canonicalizes an account handle: trimmed, without a leading @, lowercased.
// Handles are case-insensitive upstream, so every store key goes through this.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(username), "@"))
}
