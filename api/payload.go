package api

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/brettboylen/creator-tracker/models"
)

// The upstream payload shape drifts between endpoint versions, so every field
// is read from a list of candidate paths and the first present value wins.

func lookup(m map[string]any, path string) (any, bool) {
	var current any = m
	for _, part := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok || current == nil {
			return nil, false
		}
	}
	return current, true
}

func firstString(m map[string]any, paths ...string) string {
	for _, path := range paths {
		value, ok := lookup(m, path)
		if !ok {
			continue
		}
		switch v := value.(type) {
		case string:
			if v != "" {
				return v
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}

func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
		if f, err := v.Float64(); err == nil {
			return int64(f), true
		}
	case float64:
		return int64(v), true
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

func firstInt(m map[string]any, paths ...string) *int64 {
	for _, path := range paths {
		value, ok := lookup(m, path)
		if !ok {
			continue
		}
		if n, ok := toInt64(value); ok {
			return &n
		}
	}
	return nil
}

func firstObject(m map[string]any, paths ...string) map[string]any {
	for _, path := range paths {
		value, ok := lookup(m, path)
		if !ok {
			continue
		}
		if obj, ok := value.(map[string]any); ok {
			return obj
		}
	}
	return nil
}

// extractPostList finds the post array inside a response envelope
func extractPostList(payload any) []map[string]any {
	var list []any

	switch v := payload.(type) {
	case []any:
		list = v
	case map[string]any:
		if arr, ok := v["data"].([]any); ok {
			list = arr
		} else if data, ok := v["data"].(map[string]any); ok {
			list, _ = data["data"].([]any)
		}
		if list == nil {
			list, _ = v["posts"].([]any)
		}
	}

	posts := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			posts = append(posts, obj)
		}
	}
	return posts
}

// extractHashtags reads tags from the known tag fields
func extractHashtags(raw map[string]any) []string {
	for _, key := range []string{"hashtags", "challenge_names"} {
		if arr, ok := raw[key].([]any); ok {
			return stringsFrom(arr, "")
		}
	}
	if arr, ok := raw["challenges"].([]any); ok {
		return stringsFrom(arr, "title")
	}
	if arr, ok := raw["cha_list"].([]any); ok {
		return stringsFrom(arr, "cha_name")
	}
	return []string{}
}

func stringsFrom(arr []any, field string) []string {
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if field == "" {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
			continue
		}
		if obj, ok := item.(map[string]any); ok {
			if s, ok := obj[field].(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

func extractVideoURL(raw map[string]any) string {
	if url := firstString(raw, "video_url", "playUrl"); url != "" {
		return url
	}
	if value, ok := lookup(raw, "video.play_addr.url_list"); ok {
		if urls, ok := value.([]any); ok && len(urls) > 0 {
			if s, ok := urls[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

// createdAt converts the epoch-seconds create time, falling back to a preformatted string
func createdAt(raw map[string]any) string {
	for _, key := range []string{"createTime", "create_time"} {
		if value, ok := raw[key]; ok {
			if secs, ok := toInt64(value); ok && secs > 0 {
				return time.Unix(secs, 0).UTC().Format(time.RFC3339)
			}
		}
	}
	return firstString(raw, "created_at")
}

// toPost maps one raw post object. fetchedAt stands in for the ingestion timestamp.
func toPost(raw map[string]any, username string, fetchedAt time.Time) models.Post {
	ingestedAt := firstString(raw, "p_created_at")
	if ingestedAt == "" {
		ingestedAt = fetchedAt.UTC().Format(time.RFC3339)
	}

	return models.Post{
		ExternalID: firstString(raw, "id", "aweme_id"),
		Platform:   models.PlatformTikTok,
		Username:   username,
		Caption:    firstString(raw, "caption", "desc"),
		CreatedAt:  createdAt(raw),
		IngestedAt: ingestedAt,

		Plays:          firstInt(raw, "play_count", "stats.playCount", "stats.play_count", "statistics.play_count"),
		Likes:          firstInt(raw, "like_count", "stats.diggCount", "stats.likeCount", "statistics.digg_count"),
		Comments:       firstInt(raw, "comment_count", "stats.commentCount", "stats.comment_count", "statistics.comment_count"),
		Shares:         firstInt(raw, "share_count", "stats.shareCount", "stats.share_count", "statistics.share_count"),
		Collects:       firstInt(raw, "collect_count", "stats.collectCount", "statistics.collect_count"),
		Downloads:      firstInt(raw, "download_count", "stats.downloadCount", "statistics.download_count"),
		Forwards:       firstInt(raw, "forward_count", "statistics.forward_count"),
		Reposts:        firstInt(raw, "repost_count", "statistics.repost_count"),
		WhatsAppShares: firstInt(raw, "whatsapp_share_count", "statistics.whatsapp_share_count"),

		VideoURL:     extractVideoURL(raw),
		ThumbnailURL: firstString(raw, "thumbnail_url", "cover", "dynamicCover"),
		Hashtags:     extractHashtags(raw),
	}
}

// toProfileSnapshot maps a raw user object plus an optional separate stats object
func toProfileSnapshot(user, stats map[string]any, username string, fetchedAt time.Time) *models.ProfileSnapshot {
	if user == nil && stats == nil {
		return nil
	}
	if user == nil {
		user = map[string]any{}
	}
	if stats == nil {
		stats = firstObject(user, "stats")
	}
	if stats == nil {
		stats = map[string]any{}
	}

	pick := func(userKeys []string, statKeys []string) *int64 {
		if n := firstInt(user, userKeys...); n != nil {
			return n
		}
		return firstInt(stats, statKeys...)
	}

	return &models.ProfileSnapshot{
		Username:       username,
		Platform:       models.PlatformTikTok,
		FollowerCount:  pick([]string{"follower_count", "followers", "followerCount"}, []string{"followerCount", "follower_count"}),
		HeartCount:     pick([]string{"heart_count", "heartCount", "likes", "total_favorited"}, []string{"heartCount", "heart", "heart_count"}),
		VideoCount:     pick([]string{"video_count", "videoCount", "videos", "aweme_count"}, []string{"videoCount", "video_count"}),
		DiggCount:      pick([]string{"digg_count"}, []string{"diggCount", "digg_count"}),
		FollowingCount: pick([]string{"following_count", "following"}, []string{"followingCount", "following_count"}),
		AvatarURL:      firstString(user, "avatar_url", "avatarThumb", "avatarMedium"),
		Bio:            firstString(user, "bio", "signature", "description"),
		UpdatedAt:      fetchedAt,
	}
}
