package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/brettboylen/creator-tracker/models"
)

// Config holds all configuration for the application
type Config struct {
	App      AppConfig
	Ensemble EnsembleConfig
	Tracker  TrackerConfig
	Database DatabaseConfig
	Server   ServerConfig
}

// AppConfig holds application-level configuration
type AppConfig struct {
	Name    string
	Version string
}

// EnsembleConfig holds EnsembleData API configuration
type EnsembleConfig struct {
	Root                 string
	Token                string
	Depth                int
	MaxRequestsPerMinute int
}

// TrackerConfig holds ingestion and dashboard configuration
type TrackerConfig struct {
	Usernames           []string
	PollingInterval     int // seconds; 0 disables background polling
	CreatorProfilesPath string
	DefaultTimezone     string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port                 int
	MaxRequestsPerMinute int
}

// LoadConfig loads configuration from a .env file and the process environment.
// A missing .env file is not an error; values then come from the environment alone.
func LoadConfig(envPath string, log *logrus.Logger) (*Config, error) {
	if envPath == "" {
		envPath = ".env"
	}

	if err := godotenv.Load(envPath); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
		log.WithField("file", envPath).Warn("No .env file found, using process environment")
	}

	config := &Config{
		App: AppConfig{
			Name:    getEnv("APP_NAME", "Creator Tracker"),
			Version: getEnv("APP_VERSION", "1.0.0"),
		},
		Ensemble: EnsembleConfig{
			Root:                 getEnv("ENSEMBLEDATA_ROOT", ""),
			Token:                getEnv("ENSEMBLEDATA_TOKEN", ""),
			Depth:                getEnvAsInt("ENSEMBLEDATA_DEPTH", 1),
			MaxRequestsPerMinute: getEnvAsInt("ENSEMBLEDATA_MAX_REQUESTS_PER_MINUTE", 30),
		},
		Tracker: TrackerConfig{
			Usernames:           parseUsernames(getEnv("TRACKED_USERNAMES", "")),
			PollingInterval:     getEnvAsInt("POLLING_INTERVAL", 3600),
			CreatorProfilesPath: getEnv("CREATOR_PROFILES_PATH", ""),
			DefaultTimezone:     getEnv("DEFAULT_TIMEZONE", "UTC"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./creator.db"),
		},
		Server: ServerConfig{
			Port:                 getEnvAsInt("SERVER_PORT", 8080),
			MaxRequestsPerMinute: getEnvAsInt("SERVER_MAX_REQUESTS_PER_MINUTE", 120),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	log.WithField("file", envPath).Info("Config loaded successfully")
	return config, nil
}

// parseUsernames parses a comma-separated list of account handles into normalized, unique usernames
func parseUsernames(usernamesStr string) []string {
	parts := strings.Split(usernamesStr, ",")

	usernames := make([]string, 0, len(parts))
	for _, part := range parts {
		username := models.NormalizeUsername(part)
		if username != "" && !slices.Contains(usernames, username) {
			usernames = append(usernames, username)
		}
	}

	return usernames
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.Ensemble.Root == "" {
		return fmt.Errorf("ENSEMBLEDATA_ROOT environment variable is required")
	}
	if u, err := url.Parse(config.Ensemble.Root); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("ENSEMBLEDATA_ROOT must be an absolute URL")
	}
	if config.Ensemble.Token == "" {
		return fmt.Errorf("ENSEMBLEDATA_TOKEN environment variable is required")
	}
	if config.Ensemble.Depth < 1 {
		return fmt.Errorf("ENSEMBLEDATA_DEPTH must be positive")
	}
	if config.Tracker.PollingInterval < 0 {
		return fmt.Errorf("POLLING_INTERVAL must not be negative")
	}
	if _, err := time.LoadLocation(config.Tracker.DefaultTimezone); err != nil {
		return fmt.Errorf("DEFAULT_TIMEZONE is not a valid IANA timezone: %w", err)
	}

	// if we are storing the db in a nested directory, create the directory
	dbDir := filepath.Dir(config.Database.Path)
	if dbDir != "." && dbDir != "" {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	return nil
}
