package stats

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/brettboylen/creator-tracker/api"
	"github.com/brettboylen/creator-tracker/models"
)

// PostSource fetches posts and account counters from the upstream data provider
type PostSource interface {
	FetchUserPosts(ctx context.Context, username string, depth int) (*api.FetchResult, error)
	FetchUserInfo(ctx context.Context, username string) (*models.ProfileSnapshot, error)
}

// IngestStore persists what an ingest run produces
type IngestStore interface {
	SavePosts(ctx context.Context, posts []models.Post) (int, error)
	SaveProfileSnapshot(ctx context.Context, profile *models.ProfileSnapshot) error
	SaveIngestRun(ctx context.Context, run *models.IngestRun, raw []byte) error
	GetIngestRuns(ctx context.Context, username string, limit int) ([]models.IngestRun, error)
	GetTotalPosts(ctx context.Context) (int, error)
}

// maxRunHistory caps how many stored runs one history request returns
const maxRunHistory = 100

// Collector polls the tracked accounts and stores their posts
type Collector struct {
	source          PostSource
	store           IngestStore
	usernames       []string
	depth           int
	pollingInterval time.Duration
	log             *logrus.Logger
	now             func() time.Time

	mutex     sync.RWMutex
	lastRuns  map[string]models.IngestRun
	startTime time.Time
}

// NewCollector creates a new collector
func NewCollector(
	source PostSource,
	store IngestStore,
	usernames []string,
	depth int,
	pollingInterval int,
	log *logrus.Logger,
) *Collector {
	return &Collector{
		source:          source,
		store:           store,
		usernames:       usernames,
		depth:           depth,
		pollingInterval: time.Duration(pollingInterval) * time.Second,
		log:             log,
		now:             time.Now,
		lastRuns:        make(map[string]models.IngestRun),
		startTime:       time.Now(),
	}
}

// Start runs one ingest pass immediately, then one per polling interval until ctx is done.
// With a zero interval only the initial pass runs.
func (c *Collector) Start(ctx context.Context) error {
	c.collectAll(ctx)

	if c.pollingInterval <= 0 {
		c.log.Info("Polling disabled, initial ingest finished")
		return nil
	}

	ticker := time.NewTicker(c.pollingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.collectAll(ctx)
		}
	}
}

// collectAll ingests every tracked account concurrently
func (c *Collector) collectAll(ctx context.Context) {
	if len(c.usernames) == 0 {
		c.log.Debug("No tracked usernames configured")
		return
	}

	c.log.WithField("usernames", c.usernames).Info("Ingesting posts for all tracked accounts")

	var wg sync.WaitGroup
	errorsCh := make(chan error, len(c.usernames))

	for _, username := range c.usernames {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			if _, err := c.IngestOnce(ctx, u); err != nil {
				errorsCh <- err
			}
		}(username)
	}

	wg.Wait()
	close(errorsCh)

	for err := range errorsCh {
		c.log.WithError(err).Error("Error while ingesting account")
	}

	c.logStatistics(ctx)
}

// IngestOnce fetches and stores one account's latest posts and profile counters.
// The returned run is recorded even when the fetch fails.
func (c *Collector) IngestOnce(ctx context.Context, username string) (*models.IngestRun, error) {
	username = models.NormalizeUsername(username)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}

	run := &models.IngestRun{
		Username:  username,
		Platform:  models.PlatformTikTok,
		StartedAt: c.now().UTC(),
	}

	result, err := c.source.FetchUserPosts(ctx, username, c.depth)
	if err != nil {
		c.finishRun(ctx, run, nil, err)
		return run, fmt.Errorf("failed to fetch posts for %s: %w", username, err)
	}

	saved, err := c.store.SavePosts(ctx, result.Posts)
	if err != nil {
		c.finishRun(ctx, run, result.Raw, err)
		return run, fmt.Errorf("failed to save posts for %s: %w", username, err)
	}
	run.PostCount = saved

	profile := result.Profile
	if profile == nil {
		profile, err = c.source.FetchUserInfo(ctx, username)
		if err != nil {
			// posts are already stored; the dashboard works without follower counts
			c.log.WithError(err).WithField("username", username).Warn("Failed to fetch user info")
		}
	}

	if profile != nil {
		if err := c.store.SaveProfileSnapshot(ctx, profile); err != nil {
			c.log.WithError(err).WithField("username", username).Error("Failed to save profile snapshot")
		} else {
			run.ProfileCaptured = true
		}
	}

	c.finishRun(ctx, run, result.Raw, nil)
	return run, nil
}

// finishRun stamps, persists and remembers a run
func (c *Collector) finishRun(ctx context.Context, run *models.IngestRun, raw []byte, runErr error) {
	run.FinishedAt = c.now().UTC()
	if runErr != nil {
		run.Error = runErr.Error()
	}

	if err := c.store.SaveIngestRun(ctx, run, raw); err != nil {
		c.log.WithError(err).WithField("username", run.Username).Error("Failed to record ingest run")
	}

	c.mutex.Lock()
	c.lastRuns[run.Username] = *run
	c.mutex.Unlock()

	c.log.WithFields(logrus.Fields{
		"username":         run.Username,
		"post_count":       run.PostCount,
		"profile_captured": run.ProfileCaptured,
		"duration":         run.FinishedAt.Sub(run.StartedAt).String(),
		"failed":           runErr != nil,
	}).Info("Ingest run finished")
}

// LastRuns returns a copy of the most recent run per account
func (c *Collector) LastRuns() map[string]models.IngestRun {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	runs := make(map[string]models.IngestRun, len(c.lastRuns))
	for k, v := range c.lastRuns {
		runs[k] = v
	}
	return runs
}

// Runs returns the stored ingest history of username, newest first.
// limit is clamped to 1..maxRunHistory.
func (c *Collector) Runs(ctx context.Context, username string, limit int) ([]models.IngestRun, error) {
	limit = min(max(limit, 1), maxRunHistory)

	runs, err := c.store.GetIngestRuns(ctx, models.NormalizeUsername(username), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load ingest runs for %s: %w", username, err)
	}
	return runs, nil
}

// logStatistics logs a one-line summary of the store after a pass
func (c *Collector) logStatistics(ctx context.Context) {
	totalPosts, err := c.store.GetTotalPosts(ctx)
	if err != nil {
		c.log.WithError(err).Error("Failed to get total posts")
		return
	}

	c.mutex.RLock()
	accountsWithData := len(c.lastRuns)
	c.mutex.RUnlock()

	c.log.WithFields(logrus.Fields{
		"total_posts":        totalPosts,
		"account_count":      len(c.usernames),
		"accounts_with_runs": accountsWithData,
		"running_since":      time.Since(c.startTime).String(),
	}).Info("Statistics updated")
}
