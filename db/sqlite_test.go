package db

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brettboylen/creator-tracker/models"
)

func i64(n int64) *int64 {
	return &n
}

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	database, err := NewDatabase(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestSaveAndGetPosts(t *testing.T) {
	ctx := context.Background()
	database := newTestDatabase(t)

	posts := []models.Post{
		{
			ExternalID: "a",
			Platform:   models.PlatformTikTok,
			Username:   "creator",
			Caption:    "older",
			CreatedAt:  "2026-03-01T10:00:00Z",
			Plays:      i64(100),
			Likes:      i64(10),
			Hashtags:   []string{"launch", "music"},
		},
		{
			ExternalID: "b",
			Username:   "creator",
			IngestedAt: "2026-03-05T10:00:00Z",
			Plays:      i64(50),
		},
		{ExternalID: "c", Username: "someone-else", Plays: i64(1)},
		{Username: "creator", Caption: "no external id"},
	}

	saved, err := database.SavePosts(ctx, posts)
	require.NoError(t, err)
	assert.Equal(t, 3, saved)

	stored, err := database.GetPostsByUsername(ctx, "creator")
	require.NoError(t, err)
	require.Len(t, stored, 2)

	// newest effective timestamp first
	assert.Equal(t, "b", stored[0].ExternalID)
	assert.Equal(t, "", stored[0].CreatedAt)
	assert.Equal(t, "2026-03-05T10:00:00Z", stored[0].IngestedAt)
	assert.Nil(t, stored[0].Likes)
	assert.Equal(t, []string{}, stored[0].Hashtags)
	assert.Equal(t, models.PlatformTikTok, stored[0].Platform)

	assert.Equal(t, "a", stored[1].ExternalID)
	assert.NotEmpty(t, stored[1].ID)
	assert.Equal(t, int64(100), models.Count(stored[1].Plays))
	assert.Equal(t, int64(10), models.Count(stored[1].Likes))
	assert.Nil(t, stored[1].Comments)
	assert.Equal(t, []string{"launch", "music"}, stored[1].Hashtags)

	total, err := database.GetTotalPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestSavePostsUpsertsCounters(t *testing.T) {
	ctx := context.Background()
	database := newTestDatabase(t)

	_, err := database.SavePosts(ctx, []models.Post{{ExternalID: "a", Username: "creator", Plays: i64(100)}})
	require.NoError(t, err)

	first, err := database.GetPostsByUsername(ctx, "creator")
	require.NoError(t, err)
	require.Len(t, first, 1)

	_, err = database.SavePosts(ctx, []models.Post{{ExternalID: "a", Username: "creator", Plays: i64(250), Shares: i64(4)}})
	require.NoError(t, err)

	second, err := database.GetPostsByUsername(ctx, "creator")
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, int64(250), models.Count(second[0].Plays))
	assert.Equal(t, int64(4), models.Count(second[0].Shares))
}

func TestSavePostsInBatches(t *testing.T) {
	ctx := context.Background()
	database := newTestDatabase(t)

	posts := make([]models.Post, 0, 650)
	for i := 0; i < 650; i++ {
		posts = append(posts, models.Post{ExternalID: fmt.Sprintf("p%d", i), Username: "creator"})
	}

	saved, err := database.SavePosts(ctx, posts)
	require.NoError(t, err)
	assert.Equal(t, 650, saved)

	total, err := database.GetTotalPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 650, total)
}

func TestProfileSnapshot(t *testing.T) {
	ctx := context.Background()
	database := newTestDatabase(t)

	missing, err := database.GetLatestProfile(ctx, "creator")
	require.NoError(t, err)
	assert.Nil(t, missing)

	updated := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	require.NoError(t, database.SaveProfileSnapshot(ctx, &models.ProfileSnapshot{
		Username:      "creator",
		FollowerCount: i64(1200),
		VideoCount:    i64(40),
		Bio:           "hello",
		UpdatedAt:     updated,
	}))
	require.NoError(t, database.SaveProfileSnapshot(ctx, &models.ProfileSnapshot{
		Username:      "creator",
		FollowerCount: i64(1300),
		UpdatedAt:     updated.Add(time.Hour),
	}))

	profile, err := database.GetLatestProfile(ctx, "creator")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, models.PlatformTikTok, profile.Platform)
	assert.Equal(t, int64(1300), models.Count(profile.FollowerCount))
	assert.Nil(t, profile.VideoCount)
	assert.Equal(t, updated.Add(time.Hour), profile.UpdatedAt)
}

func TestIngestRuns(t *testing.T) {
	ctx := context.Background()
	database := newTestDatabase(t)

	started := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	older := &models.IngestRun{
		Username:   "creator",
		Platform:   models.PlatformTikTok,
		PostCount:  3,
		StartedAt:  started,
		FinishedAt: started.Add(time.Second),
	}
	newer := &models.IngestRun{
		Username:   "creator",
		Platform:   models.PlatformTikTok,
		StartedAt:  started.Add(time.Hour),
		FinishedAt: started.Add(time.Hour + time.Second),
		Error:      "upstream down",
	}

	require.NoError(t, database.SaveIngestRun(ctx, older, []byte(`{"data": []}`)))
	require.NoError(t, database.SaveIngestRun(ctx, newer, nil))
	assert.NotEmpty(t, older.ID)

	runs, err := database.GetIngestRuns(ctx, "creator", 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newer.ID, runs[0].ID)
	assert.Equal(t, "upstream down", runs[0].Error)
	assert.Equal(t, 3, runs[1].PostCount)
	assert.Equal(t, started, runs[1].StartedAt)
}

func TestTimezones(t *testing.T) {
	ctx := context.Background()
	database := newTestDatabase(t)

	tz, err := database.GetTimezone(ctx, "creator")
	require.NoError(t, err)
	assert.Equal(t, "", tz)

	require.NoError(t, database.SetTimezone(ctx, "creator", "Europe/Lisbon"))
	require.NoError(t, database.SetTimezone(ctx, "creator", "Asia/Bangkok"))

	tz, err = database.GetTimezone(ctx, "creator")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Bangkok", tz)
}
