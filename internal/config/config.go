// Package config loads the marketsched configuration from YAML with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for marketsched.
type Config struct {
	Cache   CacheConfig `yaml:"cache"`
	Fetch   FetchConfig `yaml:"fetch"`
	Server  Server      `yaml:"server"`
	Logging Logging     `yaml:"logging"`
}

// CacheConfig holds the reference-data cache location and freshness policy.
type CacheConfig struct {
	// Dir is the cache directory for the parquet backend.
	Dir string `yaml:"dir"`
	// Backend selects the storage backend: "parquet" or "sqlite".
	Backend string `yaml:"backend"`
	// SQLitePath is the database file used when Backend is "sqlite".
	SQLitePath string `yaml:"sqlite_path"`
	// ExpiryHours is how long fetched data stays valid.
	ExpiryHours int `yaml:"expiry_hours"`
}

// FetchConfig holds the JPX download endpoints and politeness settings.
type FetchConfig struct {
	BaseURL         string `yaml:"base_url"`
	SQDatesPath     string `yaml:"sq_dates_path"`
	HolidayURL      string `yaml:"holiday_url"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	MaxRetries      int    `yaml:"max_retries"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min"`
}

// Server holds network listener configuration for the HTTP API.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ---------------------------------------------------------------------------
// Defaults and loading
// ---------------------------------------------------------------------------

// Default returns the configuration used when no file is given. The cache
// lives under the OS user cache directory; a relative fallback is used when
// that cannot be resolved (e.g. HOME unset in a container).
func Default() *Config {
	cacheDir := ".marketsched-cache"
	if userCache, err := os.UserCacheDir(); err == nil {
		cacheDir = filepath.Join(userCache, "marketsched")
	}
	return &Config{
		Cache: CacheConfig{
			Dir:         cacheDir,
			Backend:     "parquet",
			SQLitePath:  filepath.Join(cacheDir, "marketsched.db"),
			ExpiryHours: 24,
		},
		Fetch: FetchConfig{
			TimeoutSeconds:  30,
			MaxRetries:      3,
			RateLimitPerMin: 30,
		},
		Server: Server{
			Host: "127.0.0.1",
			Port: 8420,
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the YAML configuration file at the given path, merges it over
// the defaults, and applies environment variable overrides. An empty path
// yields the defaults (still subject to env overrides).
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Cache.Backend {
	case "parquet", "sqlite":
	default:
		return fmt.Errorf("unknown cache backend %q (use parquet or sqlite)", c.Cache.Backend)
	}
	if c.Cache.ExpiryHours < 1 {
		return fmt.Errorf("cache expiry_hours must be >= 1, got %d", c.Cache.ExpiryHours)
	}
	return nil
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MKS_CACHE_DIR"); v != "" {
		cfg.Cache.Dir = v
	}
	if v := os.Getenv("MKS_CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = v
	}
	if v := os.Getenv("MKS_SQLITE_PATH"); v != "" {
		cfg.Cache.SQLitePath = v
	}
	if v := os.Getenv("MKS_CACHE_EXPIRY_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cache.ExpiryHours = n
		}
	}
	if v := os.Getenv("MKS_FETCH_BASE_URL"); v != "" {
		cfg.Fetch.BaseURL = v
	}
	if v := os.Getenv("MKS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
