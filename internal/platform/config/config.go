// Package config loads application configuration from environment variables.
// All variables use the PLAN_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Cache       CacheConfig
	Share       ShareConfig
	Log         LogConfig
	CatalogPath string
	Contexts    []string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
	Host string
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL
// means no durable persistence: the server runs in-memory only.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Redis connection settings for draft scratch storage.
// An empty URL falls back to the in-process scratch store.
type CacheConfig struct {
	URL string
}

// ShareConfig holds the lesson share service settings.
type ShareConfig struct {
	BaseURL string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with PLAN_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("PLAN_SERVER_PORT", 8080),
			Host: envStr("PLAN_SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			URL:      envStr("PLAN_DATABASE_URL", ""),
			MaxConns: envInt("PLAN_DATABASE_MAX_CONNS", 10),
			MinConns: envInt("PLAN_DATABASE_MIN_CONNS", 2),
		},
		Cache: CacheConfig{
			URL: envStr("PLAN_CACHE_URL", ""),
		},
		Share: ShareConfig{
			BaseURL: envStr("PLAN_SHARE_BASE_URL", ""),
		},
		Log: LogConfig{
			Level:  envStr("PLAN_LOG_LEVEL", "info"),
			Format: envStr("PLAN_LOG_FORMAT", "json"),
		},
		CatalogPath: envStr("PLAN_CATALOG_PATH", "./catalog"),
		Contexts:    envList("PLAN_CONTEXTS", []string{"Reception", "Lower Kindergarten", "Upper Kindergarten"}),
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("PLAN_SERVER_PORT must be a valid port, got %d", c.Server.Port)
	}

	if len(c.Contexts) == 0 {
		return fmt.Errorf("PLAN_CONTEXTS must name at least one teaching context")
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("PLAN_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}

	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
