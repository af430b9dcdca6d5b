package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("REMOTE_API_URL", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, StorageJSON, cfg.StorageDriver)
	assert.Equal(t, 5*time.Second, cfg.RemoteTimeout)
	assert.False(t, cfg.RemoteEnabled())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("REMOTE_API_URL", "http://localhost:8000/api/auth")
	t.Setenv("REMOTE_TIMEOUT", "2s")
	t.Setenv("SESSION_TTL", "not-a-duration")
	t.Setenv("LOGIN_RATE_LIMIT", "5")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.RemoteEnabled())
	assert.Equal(t, 2*time.Second, cfg.RemoteTimeout)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 5, cfg.LoginRateLimit)
}

func TestLoadConfigReplacesMissingJWTSecret(t *testing.T) {
	for _, value := range []string{"", "secret"} {
		t.Setenv("JWT_SECRET", value)

		first, err := LoadConfig()
		require.NoError(t, err)
		second, err := LoadConfig()
		require.NoError(t, err)

		assert.Len(t, first.JWTSecret, 64)
		assert.NotEqual(t, "secret", first.JWTSecret)
		assert.NotEqual(t, first.JWTSecret, second.JWTSecret)
	}

	t.Setenv("JWT_SECRET", "configured-secret")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "configured-secret", cfg.JWTSecret)
}

func TestAdminEnabled(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD", "")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.False(t, cfg.AdminEnabled())

	t.Setenv("ADMIN_PASSWORD", "adminpass")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.AdminEnabled())
}
