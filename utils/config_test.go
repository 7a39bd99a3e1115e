package utils

import (
	"io"
	"os"
	"reflect"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEnvPath = "./test.env"

func cleanup() {
	os.Remove(testEnvPath)
}

// TestMain handles test setup and cleanup for all tests in this package
func TestMain(m *testing.M) {
	exitCode := m.Run()

	cleanup()

	os.Exit(exitCode)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func validConfig() *Config {
	return &Config{
		Ensemble: EnsembleConfig{
			Root:  "https://ensembledata.com/apis",
			Token: "token",
			Depth: 1,
		},
		Tracker: TrackerConfig{
			PollingInterval: 60,
			DefaultTimezone: "UTC",
		},
		Database: DatabaseConfig{
			Path: "./test.db",
		},
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_ENV_VAR", "test-value")

	value := getEnv("TEST_ENV_VAR", "default-value")
	assert.Equal(t, "test-value", value)

	value = getEnv("NON_EXISTENT_VAR", "default-value")
	assert.Equal(t, "default-value", value)
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("TEST_INT_VAR", "42")
	t.Setenv("TEST_INVALID_INT_VAR", "not-an-int")

	assert.Equal(t, 42, getEnvAsInt("TEST_INT_VAR", 10))
	assert.Equal(t, 10, getEnvAsInt("TEST_INVALID_INT_VAR", 10))
	assert.Equal(t, 10, getEnvAsInt("NON_EXISTENT_VAR", 10))
}

func TestValidateConfig(t *testing.T) {
	assert.NoError(t, validateConfig(validConfig()))

	tests := []struct {
		name     string
		mutate   func(c *Config)
		contains string
	}{
		{"missing root", func(c *Config) { c.Ensemble.Root = "" }, "ENSEMBLEDATA_ROOT"},
		{"relative root", func(c *Config) { c.Ensemble.Root = "ensembledata.com/apis" }, "absolute URL"},
		{"missing token", func(c *Config) { c.Ensemble.Token = "" }, "ENSEMBLEDATA_TOKEN"},
		{"bad depth", func(c *Config) { c.Ensemble.Depth = 0 }, "ENSEMBLEDATA_DEPTH"},
		{"negative polling", func(c *Config) { c.Tracker.PollingInterval = -1 }, "POLLING_INTERVAL"},
		{"bad timezone", func(c *Config) { c.Tracker.DefaultTimezone = "Mars/Olympus" }, "DEFAULT_TIMEZONE"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			config := validConfig()
			tc.mutate(config)

			err := validateConfig(config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.contains)
		})
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	content := "ENSEMBLEDATA_ROOT=https://ensembledata.com/apis\n" +
		"ENSEMBLEDATA_TOKEN=from-file\n" +
		"TRACKED_USERNAMES=@first, second\n" +
		"POLLING_INTERVAL=900\n"
	require.NoError(t, os.WriteFile(testEnvPath, []byte(content), 0644))

	// godotenv does not override variables that are already set
	for _, key := range []string{"ENSEMBLEDATA_ROOT", "ENSEMBLEDATA_TOKEN", "TRACKED_USERNAMES", "POLLING_INTERVAL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	config, err := LoadConfig(testEnvPath, quietLogger())
	require.NoError(t, err)

	assert.Equal(t, "from-file", config.Ensemble.Token)
	assert.Equal(t, []string{"first", "second"}, config.Tracker.Usernames)
	assert.Equal(t, 900, config.Tracker.PollingInterval)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "UTC", config.Tracker.DefaultTimezone)
	assert.Equal(t, "./creator.db", config.Database.Path)
}

func TestLoadConfigWithoutFile(t *testing.T) {
	t.Setenv("ENSEMBLEDATA_ROOT", "https://ensembledata.com/apis")
	t.Setenv("ENSEMBLEDATA_TOKEN", "from-env")

	config, err := LoadConfig("./does-not-exist.env", quietLogger())
	require.NoError(t, err)
	assert.Equal(t, "from-env", config.Ensemble.Token)
	assert.Empty(t, config.Tracker.Usernames)
}

func TestParseUsernames(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "Single username",
			input:    "bigdealjfk",
			expected: []string{"bigdealjfk"},
		},
		{
			name:     "Multiple usernames",
			input:    "one,two,three",
			expected: []string{"one", "two", "three"},
		},
		{
			name:     "Usernames with whitespace",
			input:    "  one  ,  two  ,  three  ",
			expected: []string{"one", "two", "three"},
		},
		{
			name:     "Usernames with extra commas",
			input:    ",one,,two,",
			expected: []string{"one", "two"},
		},
		{
			name:     "At-prefixed handles",
			input:    "@one, @two",
			expected: []string{"one", "two"},
		},
		{
			name:     "Underscores and dots",
			input:    "the_creator,the.creator",
			expected: []string{"the_creator", "the.creator"},
		},
		{
			name:     "Mixed case and duplicates",
			input:    "BigDeal,@bigdeal, BIGDEAL ,other",
			expected: []string{"bigdeal", "other"},
		},
		{
			name:     "Empty input",
			input:    "",
			expected: []string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := parseUsernames(tc.input)
			if !reflect.DeepEqual(result, tc.expected) {
				t.Errorf("parseUsernames(%q) = %v; want %v", tc.input, result, tc.expected)
			}
		})
	}
}
