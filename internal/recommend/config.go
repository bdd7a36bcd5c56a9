// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

package recommend

import (
	"fmt"
	"time"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Weights defines the relative contribution of each source.
	// Weights are normalized at runtime, so they don't need to sum to 1.0.
	Weights SourceWeights `json:"weights" koanf:"weights"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits" koanf:"limits"`

	// Cache contains bundle caching parameters.
	Cache CacheConfig `json:"cache" koanf:"cache"`
}

// SourceWeights defines the relative contribution of each source.
type SourceWeights struct {
	// Similarity is the weight of the peer-similarity source.
	Similarity float64 `json:"similarity" koanf:"similarity"`

	// Rule is the weight of the curated rule source.
	Rule float64 `json:"rule" koanf:"rule"`

	// Generative is the weight of the external generative source.
	Generative float64 `json:"generative" koanf:"generative"`
}

// Normalize returns a copy with weights normalized to sum to 1.0.
func (w SourceWeights) Normalize() SourceWeights {
	sum := w.Similarity + w.Rule + w.Generative
	if sum == 0 {
		const equalWeight = 1.0 / 3.0
		return SourceWeights{Similarity: equalWeight, Rule: equalWeight, Generative: equalWeight}
	}
	return SourceWeights{
		Similarity: w.Similarity / sum,
		Rule:       w.Rule / sum,
		Generative: w.Generative / sum,
	}
}

// ToMap returns the weights keyed by source name.
func (w SourceWeights) ToMap() map[string]float64 {
	return map[string]float64{
		SourceSimilarity: w.Similarity,
		SourceRule:       w.Rule,
		SourceGenerative: w.Generative,
	}
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// DefaultCount is the per-category candidate count when the
	// request does not specify one.
	// Default: 5.
	DefaultCount int `json:"default_count" koanf:"default_count"`

	// MindfulnessCount is the default count for the mindfulness
	// category, which ranks shorter practices.
	// Default: 8.
	MindfulnessCount int `json:"mindfulness_count" koanf:"mindfulness_count"`

	// MaxCount is the maximum allowed per-category count.
	// Default: 20.
	MaxCount int `json:"max_count" koanf:"max_count"`

	// SourceTimeout bounds one similarity or rule source run.
	// Default: 2s.
	SourceTimeout time.Duration `json:"source_timeout" koanf:"source_timeout"`

	// GenerativeTimeout bounds one generative source run. The
	// generative source has materially higher latency than the local
	// sources. On timeout the source is treated as unavailable.
	// Default: 10s.
	GenerativeTimeout time.Duration `json:"generative_timeout" koanf:"generative_timeout"`
}

// CacheConfig contains bundle caching parameters.
type CacheConfig struct {
	// Enabled controls whether bundle caching is active.
	// Default: true.
	Enabled bool `json:"enabled" koanf:"enabled"`

	// TTL is the bundle freshness window.
	// Default: 1h.
	TTL time.Duration `json:"ttl" koanf:"ttl"`

	// MaxEntries is the maximum number of cached users.
	// Default: 10000.
	MaxEntries int `json:"max_entries" koanf:"max_entries"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		Weights: SourceWeights{
			Similarity: 0.4,
			Rule:       0.4,
			Generative: 0.2,
		},
		Limits: LimitsConfig{
			DefaultCount:      5,
			MindfulnessCount:  8,
			MaxCount:          20,
			SourceTimeout:     2 * time.Second,
			GenerativeTimeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        time.Hour,
			MaxEntries: 10000,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Weights.Similarity < 0 || c.Weights.Rule < 0 || c.Weights.Generative < 0 {
		return fmt.Errorf("weights must be non-negative, got %+v", c.Weights)
	}
	if c.Limits.DefaultCount < 1 {
		return fmt.Errorf("limits.default_count must be positive, got %d", c.Limits.DefaultCount)
	}
	if c.Limits.MindfulnessCount < 1 {
		return fmt.Errorf("limits.mindfulness_count must be positive, got %d", c.Limits.MindfulnessCount)
	}
	if c.Limits.MaxCount < c.Limits.DefaultCount {
		return fmt.Errorf("limits.max_count must be >= limits.default_count, got %d < %d", c.Limits.MaxCount, c.Limits.DefaultCount)
	}
	if c.Limits.SourceTimeout <= 0 {
		return fmt.Errorf("limits.source_timeout must be positive, got %v", c.Limits.SourceTimeout)
	}
	if c.Limits.GenerativeTimeout <= 0 {
		return fmt.Errorf("limits.generative_timeout must be positive, got %v", c.Limits.GenerativeTimeout)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %v", c.Cache.TTL)
	}
	if c.Cache.MaxEntries < 1 {
		return fmt.Errorf("cache.max_entries must be positive, got %d", c.Cache.MaxEntries)
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	// All nested structs contain only value types.
	return &Config{
		Weights: c.Weights,
		Limits:  c.Limits,
		Cache:   c.Cache,
	}
}

// countFor resolves the per-category candidate count for a request.
func (c *Config) countFor(category Category, requested int) int {
	count := requested
	if count <= 0 {
		if category == CategoryMindfulness {
			count = c.Limits.MindfulnessCount
		} else {
			count = c.Limits.DefaultCount
		}
	}
	if count > c.Limits.MaxCount {
		count = c.Limits.MaxCount
	}
	return count
}
