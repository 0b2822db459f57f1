package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 12*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "formsession", cfg.Session.KeyPrefix)
	assert.Equal(t, 1024, cfg.Upload.MaxDimension)
	assert.Equal(t, 512*1024, cfg.Upload.MaxBytes)
	assert.EqualValues(t, 20<<20, cfg.Upload.MaxFileBytes)
	assert.Equal(t, 40_000_000, cfg.Upload.MaxPixels)
	assert.False(t, cfg.S3.CleanupReplaced)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "https://backend.test")
	t.Setenv("SESSION_DRIVER", "memory")
	t.Setenv("S3_CLEANUP_REPLACED", "true")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "https://backend.test", cfg.Backend.BaseURL)
	assert.Equal(t, "memory", cfg.Session.Driver)
	assert.True(t, cfg.S3.CleanupReplaced)
}
