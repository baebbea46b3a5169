package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unsetAll(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "ENV", "LOG_LEVEL", "DATABASE_URL", "DATA_PATH", "JWT_SECRET",
		"API_MASTER_SECRET", "ADMIN_USERNAME", "ADMIN_PASSWORD", "SESSION_TTL",
	} {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	unsetAll(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "production", cfg.Env)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, "intervention_scheduler.db", cfg.DataPath)
	assert.Equal(t, "admin", cfg.AdminUsername)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
}

func TestValidate_UnsetEnvironmentRefused(t *testing.T) {
	unsetAll(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.ErrorContains(t, cfg.Validate(), "JWT_SECRET")
}

func TestValidate_DevelopmentOptIn(t *testing.T) {
	unsetAll(t)
	t.Setenv("ENV", "development")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.IsDev())
	assert.NoError(t, cfg.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_TTL", "15m")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestFromEnv_BadTTL(t *testing.T) {
	t.Setenv("SESSION_TTL", "soon")
	_, err := FromEnv()
	assert.Error(t, err)
}

func TestValidate_Production(t *testing.T) {
	cfg := &Config{Env: "production", SessionTTL: time.Hour, AdminPassword: "admin123"}
	assert.ErrorContains(t, cfg.Validate(), "JWT_SECRET")

	cfg.JWTSecret = "jwt"
	assert.ErrorContains(t, cfg.Validate(), "API_MASTER_SECRET")

	cfg.APIMasterSecret = "master"
	assert.ErrorContains(t, cfg.Validate(), "ADMIN_PASSWORD")

	cfg.AdminPassword = "s3cret"
	assert.NoError(t, cfg.Validate())
}
