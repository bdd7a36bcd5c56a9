// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/vitalcoach/config.yaml",
	"/etc/vitalcoach/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "VITALCOACH_CONFIG"

// envPrefix is the prefix for all configuration environment variables,
// e.g. VITALCOACH_SERVER_PORT -> server.port.
const envPrefix = "VITALCOACH_"

// Load builds the configuration from layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps VITALCOACH_SECTION_FIELD to section.field.
// Fields containing underscores are handled by an explicit table;
// everything else maps positionally on the first underscore.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))

	// Multi-word field names cannot be split positionally.
	explicit := map[string]string{
		"database_max_memory":            "database.max_memory",
		"genai_base_url":                 "genai.base_url",
		"genai_api_key":                  "genai.api_key",
		"genai_requests_per_minute":      "genai.requests_per_minute",
		"recommend_similarity_weight":    "recommend.similarity_weight",
		"recommend_rule_weight":          "recommend.rule_weight",
		"recommend_generative_weight":    "recommend.generative_weight",
		"recommend_default_count":        "recommend.default_count",
		"recommend_mindfulness_count":    "recommend.mindfulness_count",
		"recommend_max_count":            "recommend.max_count",
		"recommend_source_timeout":       "recommend.source_timeout",
		"recommend_generative_timeout":   "recommend.generative_timeout",
		"recommend_cache_enabled":        "recommend.cache_enabled",
		"recommend_cache_ttl":            "recommend.cache_ttl",
		"recommend_cache_max_entries":    "recommend.cache_max_entries",
		"profile_cache_ttl":              "profile.cache_ttl",
		"profile_sweep_interval":         "profile.sweep_interval",
		"api_rate_limit_requests":        "api.rate_limit_requests",
		"api_rate_limit_window":          "api.rate_limit_window",
		"api_cors_origins":               "api.cors_origins",
	}
	if mapped, ok := explicit[key]; ok {
		return mapped
	}

	if idx := strings.Index(key, "_"); idx > 0 {
		return key[:idx] + "." + key[idx+1:]
	}
	return ""
}

// sliceConfigPaths are parsed as comma-separated lists when supplied
// via environment variables.
var sliceConfigPaths = []string{
	"api.cors_origins",
}

// processSliceFields converts comma-separated env strings to slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("set %s: %w", path, err)
			}
		}
	}
	return nil
}
