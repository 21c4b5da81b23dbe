// Package config provides configuration for the vidgate watch UI.
package config

import (
	"os"
	"time"
)

// Config holds the watch UI configuration.
type Config struct {
	// API server to watch
	APIURL string
	APIKey string

	// Refresh interval
	StatusRefresh time.Duration

	// How many recent checks to show
	ChecksLimit int
}

// Load returns configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		APIURL:        getEnv("VIDGATE_API_URL", "http://localhost:9614"),
		APIKey:        getEnv("VIDGATE_API_KEY", ""),
		StatusRefresh: getDuration("VIDGATE_STATUS_REFRESH", 5*time.Second),
		ChecksLimit:   50,
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
