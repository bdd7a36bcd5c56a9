// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

// Package main is the entry point for the VitalCoach server.
//
// VitalCoach serves personalized workout, nutrition, mindfulness, and
// goal recommendations derived from user biometrics. Startup order:
//
//  1. Configuration: defaults, optional YAML file, environment (koanf)
//  2. Logging: zerolog, JSON or console
//  3. Database: DuckDB store for users, samples, and preferences
//  4. Profile builder: derived metrics with a TTL cache
//  5. Recommendation engine: similarity, rule, and generative sources
//  6. Event bus: preference updates fan out to cache invalidation
//  7. Supervisor tree: background workers and the HTTP server
//
// Configuration comes from environment variables prefixed VITALCOACH_
// (see internal/config). The generative source is opt-in and needs
// VITALCOACH_GENAI_ENABLED=true plus VITALCOACH_GENAI_API_KEY.
//
// The server shuts down gracefully on SIGINT and SIGTERM: it stops
// accepting connections, drains in-flight requests within the server
// timeout, then closes the bus and the database.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vitalcoach/vitalcoach/internal/api"
	"github.com/vitalcoach/vitalcoach/internal/config"
	"github.com/vitalcoach/vitalcoach/internal/database"
	"github.com/vitalcoach/vitalcoach/internal/events"
	"github.com/vitalcoach/vitalcoach/internal/genai"
	"github.com/vitalcoach/vitalcoach/internal/logging"
	"github.com/vitalcoach/vitalcoach/internal/profile"
	"github.com/vitalcoach/vitalcoach/internal/recommend"
	"github.com/vitalcoach/vitalcoach/internal/recommend/sources"
	"github.com/vitalcoach/vitalcoach/internal/supervisor"
	"github.com/vitalcoach/vitalcoach/internal/supervisor/services"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("db_path", cfg.Database.Path).
		Bool("genai_enabled", cfg.GenAI.Enabled).
		Msg("Starting VitalCoach")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, &cfg.Database, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	builder := profile.NewBuilder(db, db, cfg.Profile.CacheTTL, logging.Logger())

	engine, err := buildEngine(cfg, builder)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize recommendation engine")
	}

	bus := events.NewBus(logging.Logger())
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	handler := api.NewHandler(engine, db, bus, version)
	router := api.NewRouter(handler, api.NewMiddleware(&api.MiddlewareConfig{
		CORSOrigins:       cfg.API.CORSOrigins,
		RateLimitRequests: cfg.API.RateLimitRequests,
		RateLimitWindow:   cfg.API.RateLimitWindow,
	}))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddBackgroundService(services.NewJanitorService(cfg.Profile.SweepInterval, logging.Logger(), builder, engine))
	tree.AddBackgroundService(services.NewInvalidatorService(bus, engine))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}

// buildEngine assembles the recommendation engine with its sources in
// priority order. The generative source is registered only when the
// provider is configured.
func buildEngine(cfg *config.Config, builder *profile.Builder) (*recommend.Engine, error) {
	engineCfg := &recommend.Config{
		Weights: recommend.SourceWeights{
			Similarity: cfg.Recommend.SimilarityWeight,
			Rule:       cfg.Recommend.RuleWeight,
			Generative: cfg.Recommend.GenerativeWeight,
		},
		Limits: recommend.LimitsConfig{
			DefaultCount:      cfg.Recommend.DefaultCount,
			MindfulnessCount:  cfg.Recommend.MindfulnessCount,
			MaxCount:          cfg.Recommend.MaxCount,
			SourceTimeout:     cfg.Recommend.SourceTimeout,
			GenerativeTimeout: cfg.Recommend.GenerativeTimeout,
		},
		Cache: recommend.CacheConfig{
			Enabled:    cfg.Recommend.CacheEnabled,
			TTL:        cfg.Recommend.CacheTTL,
			MaxEntries: cfg.Recommend.CacheMaxEntries,
		},
	}

	engine, err := recommend.NewEngine(engineCfg, builder, logging.Logger())
	if err != nil {
		return nil, err
	}

	index := sources.NewMemoryPeerIndex()
	sources.SeedDefaultCohorts(index)
	engine.RegisterSource(sources.NewSimilarity(index))
	engine.RegisterSource(sources.NewRule())

	if cfg.GenAI.Enabled {
		client := genai.NewClient(genai.Config{
			BaseURL:           cfg.GenAI.BaseURL,
			APIKey:            cfg.GenAI.APIKey,
			Model:             cfg.GenAI.Model,
			Timeout:           cfg.GenAI.Timeout,
			RequestsPerMinute: cfg.GenAI.RequestsPerMinute,
		}, logging.Logger())
		engine.RegisterSource(sources.NewGenerative(client))
		logging.Info().Str("model", cfg.GenAI.Model).Msg("Generative source enabled")
	}

	return engine, nil
}
