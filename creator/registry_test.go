package creator

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brettboylen/creator-tracker/models"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "creators.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadRegistryExampleFile(t *testing.T) {
	registry, err := LoadRegistry("../creators.example.yaml", quietLogger())
	require.NoError(t, err)

	profile, goals := registry.ForUsername("@BigDealJFK")

	assert.Equal(t, "jay", profile.ID)
	assert.Equal(t, []models.ContentPillar{models.PillarDigitalNomad, models.PillarMusic, models.PillarMentalHealth}, profile.BrandPillars)
	require.Len(t, profile.PreferredPlatforms, 3)
	assert.Equal(t, models.PriorityHigh, profile.PreferredPlatforms[0].Priority)
	require.Len(t, goals, 3)
	assert.Equal(t, models.GoalConsistency, goals[1].Type)
}

func TestRegistryFallsBackToDefault(t *testing.T) {
	registry, err := LoadRegistry("", quietLogger())
	require.NoError(t, err)

	profile, goals := registry.ForUsername("newcomer")

	assert.Equal(t, "newcomer", profile.Handle)
	assert.Empty(t, profile.PreferredPlatforms)
	assert.Equal(t, []models.ContentPillar{models.PillarDigitalNomad, models.PillarMusic}, profile.BrandPillars)
	require.Len(t, goals, 1)
	assert.Equal(t, "Grow a consistent audience", goals[0].Label)
	assert.Equal(t, models.PriorityHigh, goals[0].Priority)
}

func TestDefaultEntryBlankUsername(t *testing.T) {
	assert.Equal(t, "creator", DefaultEntry("  ").Profile.Handle)
}

func TestLoadRegistryErrors(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "missing.yaml"), quietLogger())
	assert.Error(t, err)

	_, err = LoadRegistry(writeFile(t, "creators: [not, a, map"), quietLogger())
	assert.Error(t, err)

	_, err = LoadRegistry(writeFile(t, `
creators:
  someone:
    goals:
      - id: g1
        label: Grow
        type: growth
        priority: urgent
`), quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown priority")

	_, err = LoadRegistry(writeFile(t, `
creators:
  someone:
    profile:
      preferred_platforms:
        - platform: myspace
          priority: high
`), quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown platform "myspace"`)

	_, err = LoadRegistry(writeFile(t, `
creators:
  someone:
    profile:
      primary_platforms: [tiktok, vine]
`), quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown platform "vine"`)
}
