package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/brettboylen/creator-tracker/models"
)

// upsertBatchSize bounds how many posts go into one transaction
const upsertBatchSize = 300

// Database stores ingested posts, profile snapshots, ingest runs and account timezones
type Database struct {
	db    *sql.DB
	mutex sync.RWMutex
	log   *logrus.Logger
}

// NewDatabase creates a new SQLite database connection
func NewDatabase(dbPath string, log *logrus.Logger) (*Database, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// a single connection keeps :memory: databases coherent and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &Database{
		db:  db,
		log: log,
	}

	if err := database.initTables(); err != nil {
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	return database, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.db.Close()
}

// initTables creates the necessary tables if they don't exist
func (d *Database) initTables() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	query := `
	CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		external_id TEXT NOT NULL,
		platform TEXT NOT NULL,
		username TEXT NOT NULL,
		caption TEXT,
		created_at TEXT,
		p_created_at TEXT,
		play_count INTEGER,
		like_count INTEGER,
		comment_count INTEGER,
		share_count INTEGER,
		collect_count INTEGER,
		download_count INTEGER,
		forward_count INTEGER,
		repost_count INTEGER,
		whatsapp_share_count INTEGER,
		video_url TEXT,
		thumbnail_url TEXT,
		hashtags TEXT NOT NULL DEFAULT '[]',
		UNIQUE (platform, username, external_id)
	);
	CREATE INDEX IF NOT EXISTS idx_posts_username ON posts(username);

	CREATE TABLE IF NOT EXISTS profile_stats (
		platform TEXT NOT NULL,
		username TEXT NOT NULL,
		follower_count INTEGER,
		heart_count INTEGER,
		video_count INTEGER,
		digg_count INTEGER,
		following_count INTEGER,
		avatar_url TEXT,
		bio TEXT,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (platform, username)
	);

	CREATE TABLE IF NOT EXISTS ingest_runs (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		platform TEXT NOT NULL,
		post_count INTEGER NOT NULL,
		profile_captured BOOLEAN NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		error TEXT,
		raw_json TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_ingest_runs_username ON ingest_runs(username, started_at DESC);

	CREATE TABLE IF NOT EXISTS account_timezones (
		username TEXT PRIMARY KEY,
		timezone TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	_, err := d.db.Exec(query)
	return err
}

func nullInt(n *int64) any {
	if n == nil {
		return nil
	}
	return *n
}

func fromNullInt(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// SavePosts upserts posts keyed on platform, username and external id
func (d *Database) SavePosts(ctx context.Context, posts []models.Post) (int, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	query := `
	INSERT INTO posts (
		id, external_id, platform, username, caption, created_at, p_created_at,
		play_count, like_count, comment_count, share_count, collect_count,
		download_count, forward_count, repost_count, whatsapp_share_count,
		video_url, thumbnail_url, hashtags
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (platform, username, external_id) DO UPDATE SET
		caption = excluded.caption,
		created_at = excluded.created_at,
		p_created_at = excluded.p_created_at,
		play_count = excluded.play_count,
		like_count = excluded.like_count,
		comment_count = excluded.comment_count,
		share_count = excluded.share_count,
		collect_count = excluded.collect_count,
		download_count = excluded.download_count,
		forward_count = excluded.forward_count,
		repost_count = excluded.repost_count,
		whatsapp_share_count = excluded.whatsapp_share_count,
		video_url = excluded.video_url,
		thumbnail_url = excluded.thumbnail_url,
		hashtags = excluded.hashtags
	`

	saved := 0
	for start := 0; start < len(posts); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(posts))

		n, err := d.saveBatch(ctx, query, posts[start:end])
		saved += n
		if err != nil {
			return saved, err
		}
	}

	return saved, nil
}

func (d *Database) saveBatch(ctx context.Context, query string, batch []models.Post) (int, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	saved := 0
	for _, post := range batch {
		if post.ExternalID == "" {
			d.log.WithField("username", post.Username).Warn("Skipping post without external id")
			continue
		}

		id := post.ID
		if id == "" {
			id = uuid.NewString()
		}
		platform := post.Platform
		if platform == "" {
			platform = models.PlatformTikTok
		}
		hashtags := post.Hashtags
		if hashtags == nil {
			hashtags = []string{}
		}
		tags, err := json.Marshal(hashtags)
		if err != nil {
			return 0, fmt.Errorf("failed to encode hashtags: %w", err)
		}

		_, err = stmt.ExecContext(ctx,
			id, post.ExternalID, platform, post.Username, post.Caption,
			nullString(post.CreatedAt), nullString(post.IngestedAt),
			nullInt(post.Plays), nullInt(post.Likes), nullInt(post.Comments), nullInt(post.Shares),
			nullInt(post.Collects), nullInt(post.Downloads), nullInt(post.Forwards),
			nullInt(post.Reposts), nullInt(post.WhatsAppShares),
			post.VideoURL, post.ThumbnailURL, string(tags),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to save post %s: %w", post.ExternalID, err)
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit posts: %w", err)
	}
	return saved, nil
}

// GetPostsByUsername returns every stored post of a username, newest first
func (d *Database) GetPostsByUsername(ctx context.Context, username string) ([]models.Post, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	query := `
	SELECT id, external_id, platform, username, caption, created_at, p_created_at,
		play_count, like_count, comment_count, share_count, collect_count,
		download_count, forward_count, repost_count, whatsapp_share_count,
		video_url, thumbnail_url, hashtags
	FROM posts
	WHERE username = ?
	ORDER BY COALESCE(created_at, p_created_at) DESC
	`

	rows, err := d.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts for %s: %w", username, err)
	}
	defer rows.Close()

	posts := make([]models.Post, 0)
	for rows.Next() {
		var (
			post                                     models.Post
			caption, createdAt, ingestedAt           sql.NullString
			videoURL, thumbnailURL                   sql.NullString
			plays, likes, comments, shares, collects sql.NullInt64
			downloads, forwards, reposts, whatsapp   sql.NullInt64
			tags                                     string
		)

		err := rows.Scan(
			&post.ID, &post.ExternalID, &post.Platform, &post.Username, &caption,
			&createdAt, &ingestedAt,
			&plays, &likes, &comments, &shares, &collects,
			&downloads, &forwards, &reposts, &whatsapp,
			&videoURL, &thumbnailURL, &tags,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}

		post.Caption = caption.String
		post.CreatedAt = createdAt.String
		post.IngestedAt = ingestedAt.String
		post.VideoURL = videoURL.String
		post.ThumbnailURL = thumbnailURL.String
		post.Plays = fromNullInt(plays)
		post.Likes = fromNullInt(likes)
		post.Comments = fromNullInt(comments)
		post.Shares = fromNullInt(shares)
		post.Collects = fromNullInt(collects)
		post.Downloads = fromNullInt(downloads)
		post.Forwards = fromNullInt(forwards)
		post.Reposts = fromNullInt(reposts)
		post.WhatsAppShares = fromNullInt(whatsapp)

		if err := json.Unmarshal([]byte(tags), &post.Hashtags); err != nil {
			d.log.WithError(err).WithField("post_id", post.ID).Warn("Unreadable hashtags, treating as none")
			post.Hashtags = []string{}
		}

		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return posts, nil
}

// GetTotalPosts returns the total number of posts in the database
func (d *Database) GetTotalPosts(ctx context.Context) (int, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	var count int
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get total posts: %w", err)
	}

	return count, nil
}

// SaveProfileSnapshot replaces the stored snapshot for the snapshot's platform and username
func (d *Database) SaveProfileSnapshot(ctx context.Context, profile *models.ProfileSnapshot) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	platform := profile.Platform
	if platform == "" {
		platform = models.PlatformTikTok
	}

	query := `
	INSERT OR REPLACE INTO profile_stats (
		platform, username, follower_count, heart_count, video_count,
		digg_count, following_count, avatar_url, bio, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := d.db.ExecContext(ctx, query,
		platform, profile.Username,
		nullInt(profile.FollowerCount), nullInt(profile.HeartCount), nullInt(profile.VideoCount),
		nullInt(profile.DiggCount), nullInt(profile.FollowingCount),
		profile.AvatarURL, profile.Bio, profile.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save profile snapshot: %w", err)
	}

	return nil
}

// GetLatestProfile returns the stored snapshot for a username, or nil when none exists
func (d *Database) GetLatestProfile(ctx context.Context, username string) (*models.ProfileSnapshot, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	query := `
	SELECT platform, username, follower_count, heart_count, video_count,
		digg_count, following_count, avatar_url, bio, updated_at
	FROM profile_stats
	WHERE username = ?
	ORDER BY updated_at DESC
	LIMIT 1
	`

	var (
		profile                                  models.ProfileSnapshot
		followers, hearts, videos, digg, follows sql.NullInt64
		avatar, bio                              sql.NullString
		updatedAt                                string
	)

	err := d.db.QueryRowContext(ctx, query, username).Scan(
		&profile.Platform, &profile.Username, &followers, &hearts, &videos,
		&digg, &follows, &avatar, &bio, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile for %s: %w", username, err)
	}

	profile.FollowerCount = fromNullInt(followers)
	profile.HeartCount = fromNullInt(hearts)
	profile.VideoCount = fromNullInt(videos)
	profile.DiggCount = fromNullInt(digg)
	profile.FollowingCount = fromNullInt(follows)
	profile.AvatarURL = avatar.String
	profile.Bio = bio.String
	profile.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &profile, nil
}

// SaveIngestRun records an ingest run along with the raw upstream payload
func (d *Database) SaveIngestRun(ctx context.Context, run *models.IngestRun, raw []byte) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	var rawJSON any
	if len(raw) > 0 {
		rawJSON = string(raw)
	}

	query := `
	INSERT INTO ingest_runs (
		id, username, platform, post_count, profile_captured,
		started_at, finished_at, error, raw_json
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := d.db.ExecContext(ctx, query,
		run.ID, run.Username, run.Platform, run.PostCount, run.ProfileCaptured,
		run.StartedAt.UTC().Format(time.RFC3339Nano), run.FinishedAt.UTC().Format(time.RFC3339Nano),
		nullString(run.Error), rawJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save ingest run: %w", err)
	}

	return nil
}

// GetIngestRuns returns the latest ingest runs of a username, newest first
func (d *Database) GetIngestRuns(ctx context.Context, username string, limit int) ([]models.IngestRun, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	query := `
	SELECT id, username, platform, post_count, profile_captured, started_at, finished_at, error
	FROM ingest_runs
	WHERE username = ?
	ORDER BY started_at DESC
	LIMIT ?
	`

	rows, err := d.db.QueryContext(ctx, query, username, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingest runs: %w", err)
	}
	defer rows.Close()

	runs := make([]models.IngestRun, 0, limit)
	for rows.Next() {
		var (
			run                   models.IngestRun
			startedAt, finishedAt string
			runErr                sql.NullString
		)

		if err := rows.Scan(&run.ID, &run.Username, &run.Platform, &run.PostCount,
			&run.ProfileCaptured, &startedAt, &finishedAt, &runErr); err != nil {
			return nil, fmt.Errorf("failed to scan ingest run: %w", err)
		}

		run.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		run.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedAt)
		run.Error = runErr.String
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// SetTimezone stores the IANA timezone of an account
func (d *Database) SetTimezone(ctx context.Context, username, timezone string) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	query := `
	INSERT INTO account_timezones (username, timezone, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT (username) DO UPDATE SET
		timezone = excluded.timezone,
		updated_at = excluded.updated_at
	`

	if _, err := d.db.ExecContext(ctx, query, username, timezone, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to save timezone: %w", err)
	}
	return nil
}

// GetTimezone returns the stored timezone of an account, or "" when none is stored
func (d *Database) GetTimezone(ctx context.Context, username string) (string, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	var timezone string
	err := d.db.QueryRowContext(ctx, "SELECT timezone FROM account_timezones WHERE username = ?", username).Scan(&timezone)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get timezone for %s: %w", username, err)
	}
	return timezone, nil
}
