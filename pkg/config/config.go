// Package config loads runtime settings from defaults, an optional YAML
// file, a .env file and the process environment, in that order of
// increasing precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/soshbru/soshbru/pkg/common/errors"
)

// Config is the top-level service configuration.
type Config struct {
	Port string `yaml:"port"`
	// DataDir holds the embedded database. Empty runs in memory.
	DataDir string `yaml:"data_dir"`
	// Dataset is a YAML cafe dataset; empty uses the built-in one.
	Dataset string `yaml:"dataset"`

	Places   PlacesConfig   `yaml:"places"`
	Supabase SupabaseConfig `yaml:"supabase"`
	HTTP     HTTPConfig     `yaml:"http"`
	Sessions SessionConfig  `yaml:"sessions"`
}

// PlacesConfig configures the Google Places client.
type PlacesConfig struct {
	APIKey   string        `yaml:"api_key"`
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// Location biases text searches, as "lat,lng".
	Location string `yaml:"location"`
	Radius   int    `yaml:"radius"`
}

// SupabaseConfig configures auth and the remote cafe table.
type SupabaseConfig struct {
	URL       string `yaml:"url"`
	AnonKey   string `yaml:"anon_key"`
	JWTSecret string `yaml:"jwt_secret"`
	// UseCafeTable reads cafes from Supabase instead of the dataset.
	UseCafeTable bool `yaml:"use_cafe_table"`
}

// HTTPConfig holds API server settings.
type HTTPConfig struct {
	// RateLimit is requests per second per client; 0 disables limiting.
	RateLimit   float64  `yaml:"rate_limit"`
	RateBurst   int      `yaml:"rate_burst"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// SessionConfig bounds the in-memory browsing sessions.
type SessionConfig struct {
	MaxSessions int           `yaml:"max_sessions"`
	SnapshotTTL time.Duration `yaml:"snapshot_ttl"`
}

// DefaultConfig returns a configuration that runs fully offline on the
// built-in dataset.
func DefaultConfig() Config {
	return Config{
		Port: "8080",
		Places: PlacesConfig{
			BaseURL:  "https://maps.googleapis.com/maps/api/place",
			Timeout:  10 * time.Second,
			CacheTTL: 15 * time.Minute,
			Radius:   1609,
		},
		HTTP: HTTPConfig{
			RateLimit:   20,
			RateBurst:   40,
			CORSOrigins: []string{"*"},
		},
		Sessions: SessionConfig{
			MaxSessions: 1024,
			SnapshotTTL: 30 * time.Second,
		},
	}
}

// Load builds the configuration. path may be empty. A missing .env file is
// not an error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	setString(&c.Port, "PORT")
	setString(&c.DataDir, "SOSHBRU_DATA_DIR")
	setString(&c.Dataset, "SOSHBRU_DATASET")
	setString(&c.Places.APIKey, "GOOGLE_PLACES_API_KEY")
	setString(&c.Places.Location, "SOSHBRU_PLACES_LOCATION")
	setString(&c.Supabase.URL, "SUPABASE_URL")
	setString(&c.Supabase.AnonKey, "SUPABASE_ANON_KEY")
	setString(&c.Supabase.JWTSecret, "SUPABASE_JWT_SECRET")

	if v := os.Getenv("SOSHBRU_RATE_LIMIT"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: SOSHBRU_RATE_LIMIT: %v", errors.ErrInvalidInput, err)
		}
		c.HTTP.RateLimit = rps
	}
	if v := os.Getenv("SOSHBRU_CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.HTTP.CORSOrigins = origins
	}
	if v := os.Getenv("SOSHBRU_SUPABASE_CAFES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: SOSHBRU_SUPABASE_CAFES: %v", errors.ErrInvalidInput, err)
		}
		c.Supabase.UseCafeTable = b
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("%w: port is required", errors.ErrInvalidInput)
	}
	if c.HTTP.RateLimit < 0 {
		return fmt.Errorf("%w: rate limit must be >= 0", errors.ErrInvalidInput)
	}
	if c.HTTP.RateLimit > 0 && c.HTTP.RateBurst < 1 {
		return fmt.Errorf("%w: rate burst must be >= 1", errors.ErrInvalidInput)
	}
	if c.Sessions.MaxSessions <= 0 {
		return fmt.Errorf("%w: max sessions must be > 0", errors.ErrInvalidInput)
	}
	if c.Supabase.UseCafeTable && c.Supabase.URL == "" {
		return fmt.Errorf("%w: supabase cafe table requires SUPABASE_URL", errors.ErrInvalidInput)
	}
	return nil
}

// PlacesEnabled reports whether remote search can be offered.
func (c Config) PlacesEnabled() bool {
	return c.Places.APIKey != ""
}

// SupabaseEnabled reports whether auth endpoints can be offered.
func (c Config) SupabaseEnabled() bool {
	return c.Supabase.URL != "" && c.Supabase.AnonKey != ""
}
