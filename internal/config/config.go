// Package config loads application configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Upstream UpstreamConfig
	CORS     CORSConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds SQLite settings. EncryptionKey is the base64 fernet
// key protecting stored secrets; without one, secrets are encrypted with an
// ephemeral key and do not survive a restart.
type DatabaseConfig struct {
	Path          string
	EncryptionKey string
}

// UpstreamConfig holds the connection to the data source. An empty BaseURL
// disables pull refresh; the dashboard then runs on push updates alone.
type UpstreamConfig struct {
	BaseURL          string
	EntryID          string
	Timeout          time.Duration
	RefreshInterval  time.Duration
	SnapshotInterval time.Duration
}

// CORSConfig holds cross-origin settings for the API.
type CORSConfig struct {
	AllowedOrigins []string
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string
	Pretty bool
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	// Missing .env is fine; the environment may be fully set already.
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:            envString("PPREADER_SERVER_HOST", "0.0.0.0"),
			Port:            envInt("PPREADER_SERVER_PORT", 8089),
			ReadTimeout:     envDuration("PPREADER_SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    envDuration("PPREADER_SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: envDuration("PPREADER_SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Path:          envString("PPREADER_DB_PATH", "data/ppreader.db"),
			EncryptionKey: envString("PPREADER_ENCRYPTION_KEY", ""),
		},
		Upstream: UpstreamConfig{
			BaseURL:          envString("PPREADER_UPSTREAM_URL", ""),
			EntryID:          envString("PPREADER_ENTRY_ID", ""),
			Timeout:          envDuration("PPREADER_UPSTREAM_TIMEOUT", 10*time.Second),
			RefreshInterval:  envDuration("PPREADER_REFRESH_INTERVAL", 5*time.Minute),
			SnapshotInterval: envDuration("PPREADER_SNAPSHOT_INTERVAL", 5*time.Minute),
		},
		CORS: CORSConfig{
			AllowedOrigins: envList("PPREADER_CORS_ORIGINS", []string{"*"}),
		},
		Logging: LoggingConfig{
			Level:  envString("PPREADER_LOG_LEVEL", "info"),
			Pretty: envBool("PPREADER_LOG_PRETTY", false),
		},
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	return cfg, nil
}

// Addr returns the host:port the server listens on.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
