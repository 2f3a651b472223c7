package config

import (
	"os"
	"path/filepath"
	"testing"

	"resbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validConfig = `
app:
  name: resbook
  environment: test
database:
  path: data/test.db
auth:
  jwt_secret: test-secret
resources:
  - id: 1
    type: room
    name: Meeting Room A
    capacity: 8
    is_active: true
  - id: 2
    type: transport
    name: Van 1
    vehicle: Toyota HiAce
    driver: Pak Budi
    capacity: 12
    is_active: true
`

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, validConfig)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "resbook", cfg.App.Name)
	assert.Equal(t, "data/test.db", cfg.Database.Path)
	assert.Len(t, cfg.Resources, 2)
	assert.Equal(t, models.ResourceTransport, cfg.Resources[1].Type)

	// Defaults applied
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, models.DefaultTokenTTLHours, cfg.Auth.TokenTTLHours)
	assert.Equal(t, models.DefaultMaxBookingDays, cfg.Booking.MaxBookingDays)
	assert.Equal(t, "exports", cfg.Exports.Path)
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("RESBOOK_TEST_SECRET", "from-env")
	path := writeConfig(t, `
database:
  path: data/test.db
auth:
  jwt_secret: ${RESBOOK_TEST_SECRET}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
}

func TestLoadMissingSecret(t *testing.T) {
	path := writeConfig(t, `
database:
  path: data/test.db
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt secret")
}

func TestValidateResources(t *testing.T) {
	err := ValidateResources([]models.Resource{
		{ID: 1, Type: models.ResourceRoom, Name: "A"},
		{ID: 1, Type: models.ResourceRoom, Name: "B"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate resource ID")

	err = ValidateResources([]models.Resource{{ID: 0, Type: models.ResourceRoom, Name: "A"}})
	require.Error(t, err)

	err = ValidateResources([]models.Resource{{ID: 3, Type: "bike", Name: "A"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown type")

	require.NoError(t, ValidateResources(nil))
}
