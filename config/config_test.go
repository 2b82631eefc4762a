package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_URL", "postgres://localhost:5432/portal")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, 5*time.Second, cfg.QueryTimeout)
	assert.Equal(t, 10, cfg.LoginRateMax)
	assert.Equal(t, 15*time.Minute, cfg.LoginRateWindow)
	assert.Equal(t, 5, cfg.RegisterRateMax)
	assert.Equal(t, time.Hour, cfg.RegisterRateWindow)
	assert.False(t, cfg.Production())
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ENV", "production")
	t.Setenv("PORT", "9000")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("LOGIN_RATE_MAX", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Production())
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 3, cfg.LoginRateMax)
}

func TestLoadRejectsMissingRequired(t *testing.T) {
	t.Setenv("DB_URL", "")
	t.Setenv("JWT_SECRET", "test-secret")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_URL")

	t.Setenv("DB_URL", "postgres://localhost:5432/portal")
	t.Setenv("JWT_SECRET", "")

	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestMalformedValuesFallBackToDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("LOGIN_RATE_MAX", "lots")
	t.Setenv("ACCESS_TOKEN_TTL", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.LoginRateMax)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
}
