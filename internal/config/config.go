// Package config loads configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fruitsalade/explorer/pkg/models"
)

// Config holds client and dev server configuration.
type Config struct {
	// Remote API
	APIURL  string
	Timeout time.Duration

	// Navigation
	RootFolderID int64
	PageLimit    int

	// Dev server
	ListenAddr  string
	MetricsAddr string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		APIURL:       strings.TrimRight(envOr("EXPLORER_API_URL", "http://localhost:3000/api"), "/"),
		Timeout:      envDuration("EXPLORER_TIMEOUT", 30*time.Second),
		RootFolderID: envInt64("EXPLORER_ROOT_ID", models.RootFolderID),
		PageLimit:    envInt("EXPLORER_PAGE_LIMIT", 50),
		ListenAddr:   envOr("LISTEN_ADDR", ":3000"),
		MetricsAddr:  envOr("METRICS_ADDR", ":9090"),
		LogLevel:     envOr("LOG_LEVEL", "info"),
		LogFormat:    envOr("LOG_FORMAT", "console"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that have no sensible fallback.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("EXPLORER_API_URL is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("EXPLORER_TIMEOUT must be positive")
	}
	if c.PageLimit <= 0 {
		return fmt.Errorf("EXPLORER_PAGE_LIMIT must be positive")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
