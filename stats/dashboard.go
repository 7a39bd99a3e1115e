package stats

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/brettboylen/creator-tracker/metrics"
	"github.com/brettboylen/creator-tracker/models"
	"github.com/brettboylen/creator-tracker/strategy"
)

var (
	// ErrInvalidRange is returned for unknown range keys and custom ranges without a positive day count
	ErrInvalidRange = errors.New("invalid time range")
	// ErrInvalidTimezone is returned for names time.LoadLocation rejects
	ErrInvalidTimezone = errors.New("invalid timezone")
)

// DashboardStore is the read side the dashboard needs
type DashboardStore interface {
	GetPostsByUsername(ctx context.Context, username string) ([]models.Post, error)
	GetLatestProfile(ctx context.Context, username string) (*models.ProfileSnapshot, error)
	GetTimezone(ctx context.Context, username string) (string, error)
	SetTimezone(ctx context.Context, username, timezone string) error
}

// ProfileResolver returns the creator profile and goals of an account
type ProfileResolver interface {
	ForUsername(username string) (models.CreatorProfile, models.CreatorGoals)
}

// DashboardResult is what one dashboard request returns
type DashboardResult struct {
	Username    string                  `json:"username"`
	Range       models.TimeRange        `json:"range"`
	Timezone    string                  `json:"timezone"`
	GeneratedAt time.Time               `json:"generated_at"`
	Metrics     models.DashboardMetrics `json:"metrics"`
	Strategy    models.ComputedStrategy `json:"strategy"`
}

// Dashboard computes metrics and strategy for stored accounts
type Dashboard struct {
	store           DashboardStore
	profiles        ProfileResolver
	defaultTimezone string
	log             *logrus.Logger
	now             func() time.Time
}

// NewDashboard creates a dashboard service. An empty defaultTimezone means UTC.
func NewDashboard(store DashboardStore, profiles ProfileResolver, defaultTimezone string, log *logrus.Logger) *Dashboard {
	if defaultTimezone == "" {
		defaultTimezone = "UTC"
	}
	return &Dashboard{
		store:           store,
		profiles:        profiles,
		defaultTimezone: defaultTimezone,
		log:             log,
		now:             time.Now,
	}
}

// Ranges returns the preset range catalogue
func (d *Dashboard) Ranges() []models.TimeRangeOption {
	return metrics.TimeRangeOptions()
}

// ValidateRange rejects unknown keys and custom ranges without a positive day count
func ValidateRange(tr models.TimeRange) error {
	if !metrics.IsKnownRange(tr.Key) {
		return fmt.Errorf("%w: unknown key %q", ErrInvalidRange, tr.Key)
	}
	if tr.Key == models.RangeCustom && (tr.CustomDays == nil || *tr.CustomDays < 1) {
		return fmt.Errorf("%w: custom range needs days >= 1", ErrInvalidRange)
	}
	return nil
}

// Compute builds the dashboard of username for tr. tzOverride, when set, replaces the stored timezone.
func (d *Dashboard) Compute(ctx context.Context, username string, tr models.TimeRange, tzOverride string) (*DashboardResult, error) {
	if err := ValidateRange(tr); err != nil {
		return nil, err
	}
	username = models.NormalizeUsername(username)

	loc, err := d.location(ctx, username, tzOverride)
	if err != nil {
		return nil, err
	}

	posts, err := d.store.GetPostsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to load posts for %s: %w", username, err)
	}

	snapshot, err := d.store.GetLatestProfile(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile for %s: %w", username, err)
	}

	// one instant anchors filtering, cadence and labels
	now := d.now().In(loc)

	filtered := metrics.FilterPostsByTimeRange(posts, tr, now)
	dashboardMetrics := metrics.ComputeDashboardMetrics(posts, filtered, snapshot, tr, now)

	profile, goals := d.profiles.ForUsername(username)
	computed := strategy.Compute(profile, goals, metrics.BuildPlatformMetricsSummary(models.PlatformTikTok, dashboardMetrics))

	d.log.WithFields(logrus.Fields{
		"username":       username,
		"range":          tr.Key,
		"timezone":       loc.String(),
		"posts_total":    len(posts),
		"posts_in_range": len(filtered),
		"primary":        computed.PrimaryPlatform,
	}).Debug("Dashboard computed")

	return &DashboardResult{
		Username:    username,
		Range:       tr,
		Timezone:    loc.String(),
		GeneratedAt: now,
		Metrics:     dashboardMetrics,
		Strategy:    computed,
	}, nil
}

// Posts returns the stored posts of username that fall in tr, newest first
func (d *Dashboard) Posts(ctx context.Context, username string, tr models.TimeRange) ([]models.Post, error) {
	if err := ValidateRange(tr); err != nil {
		return nil, err
	}
	username = models.NormalizeUsername(username)

	loc, err := d.location(ctx, username, "")
	if err != nil {
		return nil, err
	}

	posts, err := d.store.GetPostsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to load posts for %s: %w", username, err)
	}

	return metrics.FilterPostsByTimeRange(posts, tr, d.now().In(loc)), nil
}

// SetTimezone validates and stores the timezone of username
func (d *Dashboard) SetTimezone(ctx context.Context, username, timezone string) error {
	timezone = strings.TrimSpace(timezone)
	if timezone == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidTimezone)
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTimezone, timezone)
	}

	username = models.NormalizeUsername(username)
	if err := d.store.SetTimezone(ctx, username, timezone); err != nil {
		return err
	}

	d.log.WithFields(logrus.Fields{
		"username": username,
		"timezone": timezone,
	}).Info("Account timezone updated")
	return nil
}

// location resolves override, then the stored timezone, then the default
func (d *Dashboard) location(ctx context.Context, username, override string) (*time.Location, error) {
	name := strings.TrimSpace(override)
	if name == "" {
		stored, err := d.store.GetTimezone(ctx, username)
		if err != nil {
			return nil, fmt.Errorf("failed to load timezone for %s: %w", username, err)
		}
		name = stored
	}

	if name == "" {
		name = d.defaultTimezone
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		if override != "" {
			return nil, fmt.Errorf("%w: %s", ErrInvalidTimezone, name)
		}
		// a stale stored name should not take the dashboard down
		d.log.WithError(err).WithField("username", username).Warn("Stored timezone is invalid, using UTC")
		return time.UTC, nil
	}
	return loc, nil
}
