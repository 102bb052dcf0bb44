// Package common provides shared utilities for YDRX
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for YDRX
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Clients     ClientsConfig `toml:"clients"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig selects and configures the blob store backend that holds the
// application document.
type StorageConfig struct {
	Backend     string        `toml:"backend"`      // "file" (default) or "surrealdb"
	DocumentKey string        `toml:"document_key"` // blob key for the single application document
	File        FileConfig    `toml:"file"`
	Surreal     SurrealConfig `toml:"surreal"`
}

// FileConfig holds file-based blob store configuration.
type FileConfig struct {
	BasePath string `toml:"base_path"`
}

// SurrealConfig holds SurrealDB connection configuration.
type SurrealConfig struct {
	Address   string `toml:"address"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
}

// ClientsConfig holds external client configurations
type ClientsConfig struct {
	Supabase SupabaseConfig `toml:"supabase"`
}

// SupabaseConfig holds identity provider configuration. An empty URL means no
// external provider is configured and auth runs in local mode.
type SupabaseConfig struct {
	URL       string `toml:"url"`
	AnonKey   string `toml:"anon_key"`
	JWTSecret string `toml:"jwt_secret"` // optional; enables local token verification
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// Enabled reports whether an external identity provider is configured.
func (c *SupabaseConfig) Enabled() bool {
	return c.URL != ""
}

// GetTimeout parses and returns the timeout duration
func (c *SupabaseConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string `toml:"level"`
	Format   string `toml:"format"`
	FilePath string `toml:"file_path"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Backend:     "file",
			DocumentKey: "ydrx_db_v1",
			File:        FileConfig{BasePath: "data"},
			Surreal: SurrealConfig{
				Address:   "ws://localhost:8000/rpc",
				Username:  "root",
				Password:  "root",
				Namespace: "ydrx",
				Database:  "ydrx",
			},
		},
		Clients: ClientsConfig{
			Supabase: SupabaseConfig{
				RateLimit: 10,
				Timeout:   "10s",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("YDRX_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("YDRX_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("YDRX_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("YDRX_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if backend := os.Getenv("YDRX_STORAGE_BACKEND"); backend != "" {
		config.Storage.Backend = backend
	}

	if path := os.Getenv("YDRX_DATA_PATH"); path != "" {
		config.Storage.File.BasePath = path
	}

	if key := os.Getenv("YDRX_DOCUMENT_KEY"); key != "" {
		config.Storage.DocumentKey = key
	}

	if addr := os.Getenv("YDRX_SURREAL_ADDRESS"); addr != "" {
		config.Storage.Surreal.Address = addr
	}

	// Identity provider overrides follow the conventional Supabase names.
	if v := os.Getenv("SUPABASE_URL"); v != "" {
		config.Clients.Supabase.URL = v
	}
	if v := os.Getenv("SUPABASE_ANON_KEY"); v != "" {
		config.Clients.Supabase.AnonKey = v
	}
	if v := os.Getenv("SUPABASE_JWT_SECRET"); v != "" {
		config.Clients.Supabase.JWTSecret = v
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
