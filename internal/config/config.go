package config

import (
	"os"
	"strings"
	"time"

	"ncsresearch/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Backend  BackendConfig
	Locale   LocaleConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// DSN returns the connection string with the configured sslmode applied when
// the URL does not carry one itself.
func (d DatabaseConfig) DSN() string {
	if strings.Contains(d.URL, "sslmode=") {
		return d.URL
	}
	sep := "?"
	if strings.Contains(d.URL, "?") {
		sep = "&"
	}
	return d.URL + sep + "sslmode=" + d.SSLMode
}

// BackendConfig holds settings for the external statistics backend
// (the R integration service the analysis requests are delegated to).
type BackendConfig struct {
	BaseURL          string
	RequestTimeout   time.Duration
	PreflightTimeout time.Duration
	PollInterval     time.Duration
}

// LocaleConfig holds language settings for user-facing messages
type LocaleConfig struct {
	Default string // "en" or "vi"
}

// DefaultBackendURL is the origin the statistics backend listens on unless
// overridden through the environment. User-facing unreachable messages name it.
const DefaultBackendURL = "http://localhost:8000"

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "debug"),
		},
		Database: DatabaseConfig{
			URL:     os.Getenv("DATABASE_URL"),
			SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
		},
		Backend: BackendConfig{
			BaseURL:          getEnvOrDefault("BACKEND_URL", DefaultBackendURL),
			RequestTimeout:   getEnvDurationOrDefault("BACKEND_TIMEOUT", 120*time.Second),
			PreflightTimeout: getEnvDurationOrDefault("BACKEND_PREFLIGHT_TIMEOUT", 3*time.Second),
			PollInterval:     getEnvDurationOrDefault("BACKEND_POLL_INTERVAL", 30*time.Second),
		},
		Locale: LocaleConfig{
			Default: getEnvOrDefault("LANGUAGE", "en"),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.Database.URL == "" {
		return errors.ConfigInvalid("DATABASE_URL is required")
	}
	if config.Backend.BaseURL == "" {
		return errors.ConfigInvalid("backend URL must not be empty")
	}
	if config.Locale.Default != "en" && config.Locale.Default != "vi" {
		return errors.ConfigInvalid("LANGUAGE must be \"en\" or \"vi\"")
	}
	if config.Backend.PreflightTimeout <= 0 {
		return errors.ConfigInvalid("backend preflight timeout must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
