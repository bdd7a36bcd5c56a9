// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

package recommend

import (
	"math"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
}

func TestWeightsNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   SourceWeights
		want SourceWeights
	}{
		{
			"already normalized",
			SourceWeights{Similarity: 0.4, Rule: 0.4, Generative: 0.2},
			SourceWeights{Similarity: 0.4, Rule: 0.4, Generative: 0.2},
		},
		{
			"scaled down",
			SourceWeights{Similarity: 4, Rule: 4, Generative: 2},
			SourceWeights{Similarity: 0.4, Rule: 0.4, Generative: 0.2},
		},
		{
			"all zero falls back to equal",
			SourceWeights{},
			SourceWeights{Similarity: 1.0 / 3, Rule: 1.0 / 3, Generative: 1.0 / 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			if math.Abs(got.Similarity-tt.want.Similarity) > 1e-9 ||
				math.Abs(got.Rule-tt.want.Rule) > 1e-9 ||
				math.Abs(got.Generative-tt.want.Generative) > 1e-9 {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
			sum := got.Similarity + got.Rule + got.Generative
			if math.Abs(sum-1.0) > 1e-9 {
				t.Errorf("normalized sum = %f, want 1.0", sum)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"negative weight", func(c *Config) { c.Weights.Rule = -0.1 }, true},
		{"zero default count", func(c *Config) { c.Limits.DefaultCount = 0 }, true},
		{"max below default", func(c *Config) { c.Limits.MaxCount = 1 }, true},
		{"zero source timeout", func(c *Config) { c.Limits.SourceTimeout = 0 }, true},
		{"zero generative timeout", func(c *Config) { c.Limits.GenerativeTimeout = 0 }, true},
		{"zero cache ttl", func(c *Config) { c.Cache.TTL = 0 }, true},
		{"zero max entries", func(c *Config) { c.Cache.MaxEntries = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %t", err, tt.wantErr)
			}
		})
	}
}

func TestCountFor(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name      string
		category  Category
		requested int
		want      int
	}{
		{"workout default", CategoryWorkout, 0, 5},
		{"mindfulness default", CategoryMindfulness, 0, 8},
		{"explicit count", CategoryWorkout, 3, 3},
		{"capped at max", CategoryWorkout, 100, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfg.countFor(tt.category, tt.requested); got != tt.want {
				t.Errorf("countFor(%s, %d) = %d, want %d", tt.category, tt.requested, got, tt.want)
			}
		})
	}
}

func TestConfigClone(t *testing.T) {
	cfg := DefaultConfig()
	clone := cfg.Clone()

	clone.Cache.TTL = time.Minute
	clone.Weights.Rule = 0.9

	if cfg.Cache.TTL != time.Hour {
		t.Error("clone mutation leaked into original TTL")
	}
	if cfg.Weights.Rule != 0.4 {
		t.Error("clone mutation leaked into original weights")
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{"", CategoryAll, false},
		{"all", CategoryAll, false},
		{"workout", CategoryWorkout, false},
		{"nutrition", CategoryNutrition, false},
		{"mindfulness", CategoryMindfulness, false},
		{"goals", CategoryGoals, false},
		{"bogus", CategoryAll, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCategory(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCategory(%q) error = %v", tt.in, err)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseCategory(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}
