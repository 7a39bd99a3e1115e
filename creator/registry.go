package creator

import (
	"fmt"
	"os"
	"slices"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/brettboylen/creator-tracker/models"
)

// Entry is the static strategy input for one tracked account
type Entry struct {
	Profile models.CreatorProfile `yaml:"profile"`
	Goals   models.CreatorGoals   `yaml:"goals"`
}

// profilesFile is the on-disk layout, keyed by username
type profilesFile struct {
	Creators map[string]Entry `yaml:"creators"`
}

// Registry resolves creator profiles and goals per username
type Registry struct {
	entries map[string]Entry
}

// NewRegistry builds a registry from username-keyed entries
func NewRegistry(entries map[string]Entry) *Registry {
	normalized := make(map[string]Entry, len(entries))
	for username, entry := range entries {
		normalized[models.NormalizeUsername(username)] = entry
	}
	return &Registry{entries: normalized}
}

// LoadRegistry reads a YAML profiles file. An empty path yields a registry
// that serves the default profile for every account.
func LoadRegistry(path string, log *logrus.Logger) (*Registry, error) {
	if path == "" {
		log.Info("No creator profiles file configured, using default profile for all accounts")
		return NewRegistry(nil), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read creator profiles: %w", err)
	}

	var parsed profilesFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse creator profiles %s: %w", path, err)
	}

	for username, entry := range parsed.Creators {
		if err := validateEntry(entry); err != nil {
			return nil, fmt.Errorf("invalid creator profile for %s: %w", username, err)
		}
	}

	log.WithFields(logrus.Fields{
		"file":     path,
		"creators": len(parsed.Creators),
	}).Info("Creator profiles loaded")

	return NewRegistry(parsed.Creators), nil
}

// ForUsername returns the configured profile and goals, or the defaults
func (r *Registry) ForUsername(username string) (models.CreatorProfile, models.CreatorGoals) {
	if entry, ok := r.entries[models.NormalizeUsername(username)]; ok {
		return entry.Profile, entry.Goals
	}
	entry := DefaultEntry(username)
	return entry.Profile, entry.Goals
}

// DefaultEntry is used for accounts without a configured profile
func DefaultEntry(username string) Entry {
	handle := models.NormalizeUsername(username)
	if handle == "" {
		handle = "creator"
	}

	return Entry{
		Profile: models.CreatorProfile{
			ID:               handle,
			DisplayName:      handle,
			Handle:           handle,
			PrimaryPlatforms: []models.Platform{models.PlatformTikTok},
			BrandPillars:     []models.ContentPillar{models.PillarDigitalNomad, models.PillarMusic},
		},
		Goals: models.CreatorGoals{
			{
				ID:       "default-growth",
				Label:    "Grow a consistent audience",
				Type:     models.GoalGrowth,
				Priority: models.PriorityHigh,
			},
		},
	}
}

func validateEntry(entry Entry) error {
	for _, platform := range entry.Profile.PrimaryPlatforms {
		if !slices.Contains(models.AllPlatforms, platform) {
			return fmt.Errorf("unknown platform %q", platform)
		}
	}
	for _, pref := range entry.Profile.PreferredPlatforms {
		if !slices.Contains(models.AllPlatforms, pref.Platform) {
			return fmt.Errorf("unknown platform %q", pref.Platform)
		}
		if pref.Priority.Rank() == 0 {
			return fmt.Errorf("platform %s has unknown priority %q", pref.Platform, pref.Priority)
		}
	}
	for _, goal := range entry.Goals {
		if goal.Priority.Rank() == 0 {
			return fmt.Errorf("goal %s has unknown priority %q", goal.ID, goal.Priority)
		}
	}
	return nil
}
