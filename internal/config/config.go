// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all configuration values for the ingestion API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// ExtractionAPIURL is the chat-completions endpoint of the extraction
	// collaborator. Required.
	ExtractionAPIURL string

	// ExtractionAPIKey authenticates against the extraction API. Required.
	ExtractionAPIKey string

	// ExtractionModel optionally pins a model. Empty uses the account default.
	ExtractionModel string

	// PushAPIURL is the push gateway endpoint. Empty disables push sends
	// (in-app notification rows are still written).
	PushAPIURL string

	// ClaimStaleAfter is how long a claim may sit in "processing" before a
	// new delivery may reclaim it as a crashed prior attempt. Defaults to 10m.
	ClaimStaleAfter time.Duration

	// ClaimReforwardAfter is how long after a successful run a direct
	// forward of the same message is treated as deliberate resubmission
	// rather than duplicate delivery. Defaults to 24h.
	ClaimReforwardAfter time.Duration

	// MaxBodyBytes caps inbound webhook body sizes. Defaults to 2 MiB.
	MaxBodyBytes int64
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set.
func Load() (Config, error) {
	cfg := Config{
		Port:            getEnv("PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CORSOrigins:     splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		ExtractionModel: os.Getenv("EXTRACTION_MODEL"),
		PushAPIURL:      os.Getenv("PUSH_API_URL"),
		MaxBodyBytes:    2 << 20,
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	cfg.ExtractionAPIURL = os.Getenv("EXTRACTION_API_URL")
	if cfg.ExtractionAPIURL == "" {
		missing = append(missing, "EXTRACTION_API_URL")
	}
	cfg.ExtractionAPIKey = os.Getenv("EXTRACTION_API_KEY")
	if cfg.ExtractionAPIKey == "" {
		missing = append(missing, "EXTRACTION_API_KEY")
	}

	var err error
	if cfg.ClaimStaleAfter, err = getDuration("CLAIM_STALE_AFTER", 10*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.ClaimReforwardAfter, err = getDuration("CLAIM_REFORWARD_AFTER", 24*time.Hour); err != nil {
		return Config{}, err
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getDuration parses the environment variable named by key as a Go duration
// string (e.g. "10m", "24h"), falling back when unset.
func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
