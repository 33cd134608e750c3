package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("MIKRODESK_API_URL", "")
	t.Setenv("MIKRODESK_LOG_LEVEL", "")
	t.Setenv("MIKRODESK_PAGE_SIZE", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3001/api", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Poll.Telemetry)
	assert.Equal(t, 30*time.Second, cfg.Poll.Report)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Empty(t, cfg.ConfigPath)
}

func TestSaveThenLoad(t *testing.T) {
	t.Setenv("MIKRODESK_API_URL", "")
	t.Setenv("MIKRODESK_LOG_LEVEL", "")
	t.Setenv("MIKRODESK_PAGE_SIZE", "")

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.API.BaseURL = "http://10.0.0.2:3001/api"
	cfg.PageSize = 25
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.2:3001/api", loaded.API.BaseURL)
	assert.Equal(t, 25, loaded.PageSize)
	assert.Equal(t, path, loaded.ConfigPath)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MIKRODESK_API_URL", "http://backend:9000/api")
	t.Setenv("MIKRODESK_LOG_LEVEL", "debug")
	t.Setenv("MIKRODESK_PAGE_SIZE", "50")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://backend:9000/api", cfg.API.BaseURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 50, cfg.PageSize)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("MIKRODESK_API_URL", "")
	t.Setenv("MIKRODESK_PAGE_SIZE", "")

	tests := []struct {
		name string
		body string
	}{
		{"zero page size", "page_size: 0\n"},
		{"negative poll", "poll:\n  telemetry: -1s\n"},
		{"malformed yaml", "api: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}
