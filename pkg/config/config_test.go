package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soshbru/soshbru/pkg/common/errors"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.PlacesEnabled())
	assert.False(t, cfg.SupabaseEnabled())
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "soshbru.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9000"
data_dir: /var/lib/soshbru
places:
  api_key: file-key
  timeout: 3s
http:
  rate_limit: 5
  rate_burst: 10
`), 0o644))

	t.Setenv("GOOGLE_PLACES_API_KEY", "env-key")
	t.Setenv("SOSHBRU_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "/var/lib/soshbru", cfg.DataDir)
	assert.Equal(t, "env-key", cfg.Places.APIKey)
	assert.Equal(t, 3*time.Second, cfg.Places.Timeout)
	assert.Equal(t, 15*time.Minute, cfg.Places.CacheTTL)
	assert.Equal(t, 5.0, cfg.HTTP.RateLimit)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.CORSOrigins)
	assert.True(t, cfg.PlacesEnabled())
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("SOSHBRU_RATE_LIMIT", "fast")
	_, err := Load("")
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty port", func(c *Config) { c.Port = "" }},
		{"negative rate", func(c *Config) { c.HTTP.RateLimit = -1 }},
		{"zero burst", func(c *Config) { c.HTTP.RateBurst = 0 }},
		{"no sessions", func(c *Config) { c.Sessions.MaxSessions = 0 }},
		{"cafe table without url", func(c *Config) { c.Supabase.UseCafeTable = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), errors.ErrInvalidInput)
		})
	}
}
