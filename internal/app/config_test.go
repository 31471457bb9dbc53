package app_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atrium-hq/atrium/internal/app"
	_ "github.com/atrium-hq/atrium/testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("IDENTITY_URL", "http://identity.test")

	cfg, err := app.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, "pretty", cfg.LogFormat)
	assert.Equal(t, "http://identity.test", cfg.IdentityURL)
	assert.Equal(t, "atrium_access_token", cfg.AccessCookie)
	assert.Equal(t, "atrium_refresh_token", cfg.RefreshCookie)
	assert.Equal(t, "atrium_expires_at", cfg.ExpiryCookie)
	assert.Equal(t, time.Hour, cfg.SessionLifetime)
	assert.Equal(t, 30*time.Minute, cfg.RefreshWindow)
	assert.Equal(t, "/auth", cfg.LoginPath)
	assert.Equal(t, time.Hour, cfg.BackfillGuardTTL)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("IDENTITY_URL", "http://identity.test")
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_LIFETIME", "2h")
	t.Setenv("REFRESH_WINDOW", "45m")
	t.Setenv("LOGIN_PATH", "/signin")

	cfg, err := app.LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 2*time.Hour, cfg.SessionLifetime)
	assert.Equal(t, 45*time.Minute, cfg.RefreshWindow)
	assert.Equal(t, "/signin", cfg.LoginPath)
}

func TestLoadConfigRejectsRefreshWindowAtOrAboveLifetime(t *testing.T) {
	t.Setenv("IDENTITY_URL", "http://identity.test")
	t.Setenv("SESSION_LIFETIME", "30m")
	t.Setenv("REFRESH_WINDOW", "30m")

	_, err := app.LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refresh window")
}

func TestTestModeRefresh(t *testing.T) {
	t.Setenv("ATRIUM_TEST_MODE", "1")
	app.RefreshTestMode()
	assert.True(t, app.InTestMode())

	t.Setenv("ATRIUM_TEST_MODE", "0")
	app.RefreshTestMode()
	assert.False(t, app.InTestMode())

	t.Setenv("ATRIUM_TEST_MODE", "1")
	app.RefreshTestMode()
}
