// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

// Package config loads and validates the application configuration from
// layered sources: built-in defaults, an optional YAML file, and
// environment variables, in ascending precedence.
package config

import (
	"fmt"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	GenAI     GenAIConfig     `koanf:"genai"`
	Recommend RecommendConfig `koanf:"recommend"`
	Profile   ProfileConfig   `koanf:"profile"`
	API       APIConfig       `koanf:"api"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// DatabaseConfig configures the DuckDB store.
type DatabaseConfig struct {
	// Path is the database file path. ":memory:" for an in-memory
	// database.
	Path string `koanf:"path"`

	// MaxMemory is the DuckDB memory budget, e.g. "1GB".
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB thread count. 0 uses runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// GenAIConfig configures the generative completion provider.
type GenAIConfig struct {
	Enabled           bool          `koanf:"enabled"`
	BaseURL           string        `koanf:"base_url"`
	APIKey            string        `koanf:"api_key"`
	Model             string        `koanf:"model"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerMinute int           `koanf:"requests_per_minute"`
}

// RecommendConfig configures the recommendation engine.
type RecommendConfig struct {
	SimilarityWeight float64 `koanf:"similarity_weight"`
	RuleWeight       float64 `koanf:"rule_weight"`
	GenerativeWeight float64 `koanf:"generative_weight"`

	DefaultCount     int `koanf:"default_count"`
	MindfulnessCount int `koanf:"mindfulness_count"`
	MaxCount         int `koanf:"max_count"`

	SourceTimeout     time.Duration `koanf:"source_timeout"`
	GenerativeTimeout time.Duration `koanf:"generative_timeout"`

	CacheEnabled    bool          `koanf:"cache_enabled"`
	CacheTTL        time.Duration `koanf:"cache_ttl"`
	CacheMaxEntries int           `koanf:"cache_max_entries"`
}

// ProfileConfig configures the profile builder.
type ProfileConfig struct {
	// CacheTTL is the profile freshness window.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// SweepInterval is how often the cache janitor runs.
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// APIConfig configures the HTTP API surface.
type APIConfig struct {
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is "json" or "console".
	Format string `koanf:"format"`

	// Caller adds the caller field to every event.
	Caller bool `koanf:"caller"`
}

// defaultConfig returns a Config with all defaults applied. These are
// layered under the config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Database: DatabaseConfig{
			Path:      "/data/vitalcoach.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		GenAI: GenAIConfig{
			Enabled:           false, // opt-in: requires a provider key
			BaseURL:           "https://api.groq.com/openai/v1/chat/completions",
			APIKey:            "",
			Model:             "llama-3.3-70b-versatile",
			Timeout:           30 * time.Second,
			RequestsPerMinute: 30,
		},
		Recommend: RecommendConfig{
			SimilarityWeight:  0.4,
			RuleWeight:        0.4,
			GenerativeWeight:  0.2,
			DefaultCount:      5,
			MindfulnessCount:  8,
			MaxCount:          20,
			SourceTimeout:     2 * time.Second,
			GenerativeTimeout: 10 * time.Second,
			CacheEnabled:      true,
			CacheTTL:          time.Hour,
			CacheMaxEntries:   10000,
		},
		Profile: ProfileConfig{
			CacheTTL:      time.Hour,
			SweepInterval: 10 * time.Minute,
		},
		API: APIConfig{
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
			CORSOrigins:       []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1, 65535], got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %v", c.Server.Timeout)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.GenAI.Enabled {
		if c.GenAI.BaseURL == "" {
			return fmt.Errorf("genai.base_url required when genai is enabled")
		}
		if c.GenAI.APIKey == "" {
			return fmt.Errorf("genai.api_key required when genai is enabled")
		}
	}
	if c.Recommend.SimilarityWeight < 0 || c.Recommend.RuleWeight < 0 || c.Recommend.GenerativeWeight < 0 {
		return fmt.Errorf("recommend weights must be non-negative")
	}
	if c.Recommend.DefaultCount < 1 || c.Recommend.MaxCount < c.Recommend.DefaultCount {
		return fmt.Errorf("recommend counts invalid: default %d, max %d", c.Recommend.DefaultCount, c.Recommend.MaxCount)
	}
	if c.Profile.CacheTTL <= 0 {
		return fmt.Errorf("profile.cache_ttl must be positive, got %v", c.Profile.CacheTTL)
	}
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q not recognized", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format %q not recognized", c.Logging.Format)
	}
	return nil
}
