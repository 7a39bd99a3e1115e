package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brettboylen/creator-tracker/models"
)

var fetchTime = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestAPI(t *testing.T, handler http.HandlerFunc) *EnsembleAPI {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewEnsembleAPI(server.URL+"/apis/", "secret-token", 6000, quietLogger())
	client.now = func() time.Time { return fetchTime }
	return client
}

func TestGetHeaderAsInt(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string][]string
		key      string
		expected int
	}{
		{
			name:     "Valid integer header",
			headers:  map[string][]string{"Retry-After": {"42"}},
			key:      "Retry-After",
			expected: 42,
		},
		{
			name:     "Empty header value",
			headers:  map[string][]string{"Retry-After": {""}},
			key:      "Retry-After",
			expected: 0,
		},
		{
			name:     "Missing header",
			headers:  map[string][]string{"Content-Type": {"application/json"}},
			key:      "Retry-After",
			expected: 0,
		},
		{
			name:     "Non-integer header value",
			headers:  map[string][]string{"Retry-After": {"Wed, 21 Oct 2026 07:28:00 GMT"}},
			key:      "Retry-After",
			expected: 0,
		},
		{
			name:     "Multiple values for same header (should use first)",
			headers:  map[string][]string{"Retry-After": {"100", "200"}},
			key:      "Retry-After",
			expected: 100,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			header := http.Header(tc.headers)
			assert.Equal(t, tc.expected, getHeaderAsInt(header, tc.key))
		})
	}
}

func TestFetchUserPosts(t *testing.T) {
	client := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/apis/tt/user/posts", r.URL.Path)
		assert.Equal(t, "creator", r.URL.Query().Get("username"))
		assert.Equal(t, "secret-token", r.URL.Query().Get("token"))
		assert.Equal(t, "2", r.URL.Query().Get("depth"))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"units_charged": 2,
			"user": {"followerCount": 1500, "signature": "hello", "stats": {"heartCount": 9000, "videoCount": 2}},
			"data": [
				{
					"aweme_id": "7300000000000000001",
					"desc": "first post #launch",
					"createTime": 1773489600,
					"statistics": {"play_count": 1200, "digg_count": 80, "comment_count": 5, "share_count": 3, "collect_count": 9, "download_count": 1, "whatsapp_share_count": 2},
					"challenges": [{"title": "launch"}, {"title": "music"}],
					"video": {"play_addr": {"url_list": ["https://cdn.example/v1.mp4"]}},
					"cover": "https://cdn.example/c1.jpg"
				},
				{
					"id": "2",
					"caption": "second",
					"created_at": "2026-03-01T10:00:00Z",
					"p_created_at": "2026-03-02T10:00:00Z",
					"stats": {"playCount": "300", "diggCount": 10},
					"hashtags": ["travel"]
				}
			]
		}`)
	})

	result, err := client.FetchUserPosts(context.Background(), "creator", 2)
	require.NoError(t, err)
	require.Len(t, result.Posts, 2)

	first := result.Posts[0]
	assert.Equal(t, "7300000000000000001", first.ExternalID)
	assert.Equal(t, models.PlatformTikTok, first.Platform)
	assert.Equal(t, "creator", first.Username)
	assert.Equal(t, "first post #launch", first.Caption)
	assert.Equal(t, "2026-03-14T12:00:00Z", first.CreatedAt)
	assert.Equal(t, "2026-03-15T12:00:00Z", first.IngestedAt)
	assert.Equal(t, int64(1200), models.Count(first.Plays))
	assert.Equal(t, int64(80), models.Count(first.Likes))
	assert.Equal(t, int64(9), models.Count(first.Collects))
	assert.Equal(t, int64(2), models.Count(first.WhatsAppShares))
	assert.Nil(t, first.Forwards)
	assert.Equal(t, []string{"launch", "music"}, first.Hashtags)
	assert.Equal(t, "https://cdn.example/v1.mp4", first.VideoURL)
	assert.Equal(t, "https://cdn.example/c1.jpg", first.ThumbnailURL)

	second := result.Posts[1]
	assert.Equal(t, "2", second.ExternalID)
	assert.Equal(t, "2026-03-01T10:00:00Z", second.CreatedAt)
	assert.Equal(t, "2026-03-02T10:00:00Z", second.IngestedAt)
	assert.Equal(t, int64(300), models.Count(second.Plays))
	assert.Nil(t, second.Comments)
	assert.Equal(t, []string{"travel"}, second.Hashtags)

	require.NotNil(t, result.Profile)
	assert.Equal(t, int64(1500), models.Count(result.Profile.FollowerCount))
	assert.Equal(t, int64(9000), models.Count(result.Profile.HeartCount))
	assert.Equal(t, int64(2), models.Count(result.Profile.VideoCount))
	assert.Equal(t, "hello", result.Profile.Bio)

	assert.Equal(t, 2, client.UnitsCharged())
}

func TestFetchUserPostsEnvelopes(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		count int
	}{
		{"bare array", `[{"id": "1"}, {"id": "2"}]`, 2},
		{"nested data", `{"data": {"data": [{"id": "1"}]}}`, 1},
		{"posts key", `{"posts": [{"id": "1"}, {"id": "2"}, {"id": "3"}]}`, 3},
		{"unknown shape", `{"data": {"items": []}}`, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tc.body)
			})

			result, err := client.FetchUserPosts(context.Background(), "creator", 0)
			require.NoError(t, err)
			assert.Len(t, result.Posts, tc.count)
			assert.Nil(t, result.Profile)
		})
	}
}

func TestFetchUserPostsErrors(t *testing.T) {
	client := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"detail": "bad username"}`)
	})

	_, err := client.FetchUserPosts(context.Background(), "creator", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EnsembleData error 400")

	limited := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err = limited.FetchUserPosts(context.Background(), "creator", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retry after 30s")

	broken := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{not json`)
	})

	_, err = broken.FetchUserPosts(context.Background(), "creator", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
}

func TestFetchUserInfo(t *testing.T) {
	client := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/apis/tt/user/info", r.URL.Path)
		io.WriteString(w, `{"data": {"user": {"avatarThumb": "https://cdn.example/a.jpg"}, "stats": {"followerCount": 321, "heartCount": 654, "videoCount": 12, "followingCount": 7, "diggCount": 3}}}`)
	})

	profile, err := client.FetchUserInfo(context.Background(), "creator")
	require.NoError(t, err)

	assert.Equal(t, "creator", profile.Username)
	assert.Equal(t, int64(321), models.Count(profile.FollowerCount))
	assert.Equal(t, int64(654), models.Count(profile.HeartCount))
	assert.Equal(t, int64(12), models.Count(profile.VideoCount))
	assert.Equal(t, int64(7), models.Count(profile.FollowingCount))
	assert.Equal(t, int64(3), models.Count(profile.DiggCount))
	assert.Equal(t, "https://cdn.example/a.jpg", profile.AvatarURL)
	assert.Equal(t, fetchTime, profile.UpdatedAt)
}

func TestFetchUserInfoEmpty(t *testing.T) {
	client := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data": {}}`)
	})

	_, err := client.FetchUserInfo(context.Background(), "creator")
	assert.Error(t, err)
}

func TestFetchHonorsContext(t *testing.T) {
	client := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchUserPosts(ctx, "creator", 1)
	assert.Error(t, err)
}
