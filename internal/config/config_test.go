package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.Read("does_not_exist.json"))

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(16), cfg.Upload.MaxRequestBodyMB)
	assert.Equal(t, 3, cfg.Audit.FetchConcurrency)
	assert.Equal(t, "seolyze-imageaudit/1.0", cfg.Audit.UserAgent)
	assert.Equal(t, 3, cfg.Convert.BatchSize)
	assert.Zero(t, cfg.Convert.GlobalConcurrency, "global ceiling disabled by default")
	assert.Equal(t, "local", cfg.Static.Backend)
}

func TestRead_ValidFile(t *testing.T) {
	content := []byte(`{
		"server": {"port": 9090, "read_timeout": 5000000000},
		"audit": {"fetch_concurrency": 8, "user_agent": "custom-bot/2.0"},
		"convert": {"batch_size": 5, "global_concurrency": 12},
		"static": {"backend": "r2"},
		"r2": {"account_id": "acc", "bucket_name": "images"}
	}`)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg := NewConfig()
	require.NoError(t, cfg.Read(path))

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 8, cfg.Audit.FetchConcurrency)
	assert.Equal(t, "custom-bot/2.0", cfg.Audit.UserAgent)
	assert.Equal(t, 5, cfg.Convert.BatchSize)
	assert.Equal(t, 12, cfg.Convert.GlobalConcurrency)
	assert.Equal(t, "r2", cfg.Static.Backend)
	assert.Equal(t, "images", cfg.R2.BucketName)

	// Untouched sections still get defaults.
	assert.Equal(t, int64(16), cfg.Upload.MaxRequestBodyMB)
}

func TestRead_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server": [broken`), 0o644))

	cfg := NewConfig()
	assert.Error(t, cfg.Read(path))
}
