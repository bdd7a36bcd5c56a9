// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

package recommend

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/vitalcoach/vitalcoach/internal/metrics"
	"github.com/vitalcoach/vitalcoach/internal/models"
	"github.com/vitalcoach/vitalcoach/internal/profile"
)

// ProfileProvider supplies the built user profile the sources operate
// on. Implemented by the profile package.
type ProfileProvider interface {
	Build(ctx context.Context, userID string, opts profile.BuildOptions) (*models.UserProfile, error)
	Invalidate(userID string)
}

// Engine coordinates the recommendation sources and produces final
// ranked bundles. It is safe for concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger

	sources  []Source
	sourceMu sync.RWMutex

	profiles ProfileProvider

	// Per-user bundle cache. The outer key is the user ID so that a
	// single invalidation clears every cached shape for that user.
	cache   map[string]map[string]bundleEntry
	cacheMu sync.RWMutex

	requestCount  atomic.Int64
	cacheHits     atomic.Int64
	cacheMisses   atomic.Int64
	fallbackCount atomic.Int64
}

// bundleEntry holds one cached bundle shape for a user.
type bundleEntry struct {
	bundle    *Bundle
	expiresAt time.Time
}

// Stats is a point-in-time snapshot of engine counters.
type Stats struct {
	RequestCount int64 `json:"request_count"`
	CacheHits    int64 `json:"cache_hits"`
	CacheMisses  int64 `json:"cache_misses"`
	Fallbacks    int64 `json:"fallbacks"`
}

// NewEngine creates a recommendation engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, profiles ProfileProvider, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if profiles == nil {
		return nil, fmt.Errorf("profile provider not set")
	}

	return &Engine{
		config:   cfg,
		logger:   logger.With().Str("component", "recommend").Logger(),
		sources:  make([]Source, 0),
		profiles: profiles,
		cache:    make(map[string]map[string]bundleEntry),
	}, nil
}

// RegisterSource adds a source to the ensemble. Registration order is
// preserved and should follow source priority (similarity, rule,
// generative) so tie-breaking stays deterministic.
func (e *Engine) RegisterSource(src Source) {
	e.sourceMu.Lock()
	defer e.sourceMu.Unlock()

	e.sources = append(e.sources, src)
	e.logger.Info().
		Str("source", src.Name()).
		Msg("registered source")
}

// Generate produces a recommendation bundle for a user. CategoryAll
// expands to every concrete category. Only an unknown user is a hard
// error; source failures degrade to fallback flags on the bundle.
func (e *Engine) Generate(ctx context.Context, userID string, category Category, opts Options) (*Bundle, error) {
	start := time.Now()
	e.requestCount.Add(1)

	logger := e.logger.With().
		Str("user_id", userID).
		Str("category", category.String()).
		Logger()
	logger.Debug().Msg("processing recommendation request")

	key := e.bundleKey(category, opts)
	if e.config.Cache.Enabled && !opts.ForceRefresh {
		if b := e.checkCache(userID, key); b != nil {
			e.cacheHits.Add(1)
			metrics.RecordCacheHit("bundle")
			b.Cached = true
			b.LatencyMS = time.Since(start).Milliseconds()
			metrics.RecordRecommendation(category.String(), true, time.Since(start))
			logger.Debug().Msg("bundle cache hit")
			return b, nil
		}
		e.cacheMisses.Add(1)
		metrics.RecordCacheMiss("bundle")
	}

	p, err := e.profiles.Build(ctx, userID, profile.BuildOptions{ForceRefresh: opts.ForceRefresh})
	if err != nil {
		return nil, fmt.Errorf("build profile: %w", err)
	}

	if p.Preferences.GenerativeOptOut {
		opts.DisableGenerative = true
	}

	// An explicit single-category request always runs; opted-out
	// categories are dropped only from the "all" expansion.
	categories := []Category{category}
	if category == CategoryAll {
		categories = activeCategories(p.Preferences.ExcludedCategories)
	}

	bundle := &Bundle{
		UserID:      userID,
		Categories:  make(map[string][]Candidate, len(categories)),
		Reasoning:   make(map[string]string),
		GeneratedAt: start,
	}

	fallbacks := make(map[string]struct{})
	for _, cat := range categories {
		ranked, catFallbacks := e.generateCategory(ctx, cat, p, opts, logger)
		bundle.Categories[cat.String()] = ranked
		if len(ranked) == 0 {
			bundle.Reasoning[cat.String()] = fmt.Sprintf("no recommendation source produced candidates for %s", cat)
		}
		for _, f := range catFallbacks {
			fallbacks[f] = struct{}{}
		}
	}
	for f := range fallbacks {
		bundle.Fallbacks = append(bundle.Fallbacks, f)
	}
	if len(bundle.Reasoning) == 0 {
		bundle.Reasoning = nil
	}
	if len(bundle.Fallbacks) > 0 {
		e.fallbackCount.Add(1)
	}
	bundle.LatencyMS = time.Since(start).Milliseconds()
	metrics.RecordRecommendation(category.String(), false, time.Since(start))

	if e.config.Cache.Enabled {
		e.storeCache(userID, key, bundle)
	}

	logger.Debug().
		Int("categories", len(bundle.Categories)).
		Strs("fallbacks", bundle.Fallbacks).
		Int64("latency_ms", bundle.LatencyMS).
		Msg("recommendation complete")

	return bundle, nil
}

// InvalidateUser clears every cached bundle and the cached profile for
// a user. Called on preference updates; must leave no partial-category
// staleness behind.
func (e *Engine) InvalidateUser(userID string) {
	e.cacheMu.Lock()
	delete(e.cache, userID)
	e.cacheMu.Unlock()

	e.profiles.Invalidate(userID)
	metrics.RecordCacheInvalidation("bundle")
	e.logger.Debug().Str("user_id", userID).Msg("user caches invalidated")
}

// GetStats returns a snapshot of engine counters.
func (e *Engine) GetStats() Stats {
	return Stats{
		RequestCount: e.requestCount.Load(),
		CacheHits:    e.cacheHits.Load(),
		CacheMisses:  e.cacheMisses.Load(),
		Fallbacks:    e.fallbackCount.Load(),
	}
}

// GetConfig returns a copy of the current configuration.
func (e *Engine) GetConfig() *Config {
	return e.config.Clone()
}

// SweepExpired removes expired bundles. Called by the cache janitor;
// read-time freshness checks keep correctness independent of it.
func (e *Engine) SweepExpired() int {
	now := time.Now()
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	var evicted int
	for userID, shapes := range e.cache {
		for key, entry := range shapes {
			if now.After(entry.expiresAt) {
				delete(shapes, key)
				evicted++
			}
		}
		if len(shapes) == 0 {
			delete(e.cache, userID)
		}
	}
	metrics.RecordCacheEvictions("bundle", evicted)
	return evicted
}

// sourceResult holds the outcome of one source run for one category.
type sourceResult struct {
	name       string
	candidates []Candidate
	err        error
}

// generateCategory runs all sources for one category concurrently,
// joins their results, and blends. Source errors and timeouts are
// absorbed: the source contributes zero candidates and its name lands
// in the returned fallback list.
func (e *Engine) generateCategory(ctx context.Context, category Category, p *models.UserProfile, opts Options, logger zerolog.Logger) ([]Candidate, []string) {
	sources := e.getSources()
	results := e.runSources(ctx, sources, category, p, opts)

	weights := e.config.Weights.Normalize().ToMap()
	var fallbacks []string
	lists := make([][]Candidate, 0, len(results))
	generativeEmpty := true

	for _, r := range results {
		if r.err != nil {
			logger.Warn().
				Str("source", r.name).
				Str("category", category.String()).
				Err(r.err).
				Msg("source failed, absorbing as empty")
			fallbacks = append(fallbacks, r.name)
			continue
		}
		if r.name == SourceGenerative && len(r.candidates) > 0 {
			generativeEmpty = false
		}
		lists = append(lists, r.candidates)
	}

	count := e.config.countFor(category, opts.Count)
	ranked := blend(lists, weights, count)

	// The nutrition category never goes hungry: substitute the
	// deterministic metabolic fallback when the generative source
	// contributed nothing.
	if category == CategoryNutrition && generativeEmpty {
		ranked = append(ranked, nutritionFallback(p))
		if len(ranked) > count {
			ranked = ranked[:count]
		}
		if opts.DisableGenerative {
			fallbacks = append(fallbacks, SourceGenerative)
		}
		metrics.RecordFallback(category.String())
	}

	return ranked, fallbacks
}

// activeCategories returns the concrete categories minus the ones the
// user excluded in preferences.
func activeCategories(excluded []string) []Category {
	all := ConcreteCategories()
	if len(excluded) == 0 {
		return all
	}
	kept := all[:0]
	for _, cat := range all {
		skip := false
		for _, e := range excluded {
			if e == cat.String() {
				skip = true
				break
			}
		}
		if !skip {
			kept = append(kept, cat)
		}
	}
	return kept
}

// getSources snapshots the registered sources under the read lock.
// Per-request filtering (generative opt-out) happens in runSources.
func (e *Engine) getSources() []Source {
	e.sourceMu.RLock()
	defer e.sourceMu.RUnlock()
	return e.sources
}

// runSources fans out to all sources in parallel with per-source
// timeouts, then joins. The blend step never starts before every
// source has completed or explicitly failed.
func (e *Engine) runSources(ctx context.Context, sources []Source, category Category, p *models.UserProfile, opts Options) []sourceResult {
	active := make([]Source, 0, len(sources))
	for _, src := range sources {
		if opts.DisableGenerative && src.Name() == SourceGenerative {
			continue
		}
		active = append(active, src)
	}

	results := make([]sourceResult, len(active))

	var wg sync.WaitGroup
	for i, src := range active {
		wg.Add(1)
		go func(idx int, s Source) {
			defer wg.Done()
			results[idx] = e.runSingleSource(ctx, s, category, p, opts)
		}(i, src)
	}
	wg.Wait()
	return results
}

// runSingleSource runs one source under its timeout. No lock is held
// across the call.
func (e *Engine) runSingleSource(ctx context.Context, src Source, category Category, p *models.UserProfile, opts Options) sourceResult {
	timeout := e.config.Limits.SourceTimeout
	if src.Name() == SourceGenerative {
		timeout = e.config.Limits.GenerativeTimeout
	}
	srcCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	candidates, err := src.Generate(srcCtx, category, p, opts)
	metrics.RecordSourceResult(src.Name(), time.Since(started), err)
	return sourceResult{name: src.Name(), candidates: candidates, err: err}
}

// bundleKey identifies one cached bundle shape within a user's entry.
func (e *Engine) bundleKey(category Category, opts Options) string {
	return fmt.Sprintf("%s:%d:%t", category, opts.Count, opts.DisableGenerative)
}

// checkCache returns a fresh cached bundle copy or nil.
func (e *Engine) checkCache(userID, key string) *Bundle {
	e.cacheMu.RLock()
	defer e.cacheMu.RUnlock()

	shapes, ok := e.cache[userID]
	if !ok {
		return nil
	}
	entry, ok := shapes[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil
	}
	return copyBundle(entry.bundle)
}

// copyBundle clones a bundle so cached state is never mutated by
// callers.
func copyBundle(b *Bundle) *Bundle {
	out := &Bundle{
		UserID:      b.UserID,
		Categories:  make(map[string][]Candidate, len(b.Categories)),
		GeneratedAt: b.GeneratedAt,
		Cached:      b.Cached,
		LatencyMS:   b.LatencyMS,
	}
	for cat, list := range b.Categories {
		cloned := make([]Candidate, len(list))
		copy(cloned, list)
		out.Categories[cat] = cloned
	}
	if len(b.Reasoning) > 0 {
		out.Reasoning = make(map[string]string, len(b.Reasoning))
		for k, v := range b.Reasoning {
			out.Reasoning[k] = v
		}
	}
	if len(b.Fallbacks) > 0 {
		out.Fallbacks = append([]string(nil), b.Fallbacks...)
	}
	return out
}

// storeCache stores a bundle under the user's entry.
func (e *Engine) storeCache(userID, key string, b *Bundle) {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	if len(e.cache) >= e.config.Cache.MaxEntries {
		e.evictExpiredLocked()
	}

	shapes, ok := e.cache[userID]
	if !ok {
		shapes = make(map[string]bundleEntry, 2)
		e.cache[userID] = shapes
	}
	shapes[key] = bundleEntry{
		bundle:    b,
		expiresAt: time.Now().Add(e.config.Cache.TTL),
	}
}

// evictExpiredLocked removes expired entries. Must be called with
// cacheMu held.
func (e *Engine) evictExpiredLocked() {
	now := time.Now()
	for userID, shapes := range e.cache {
		for key, entry := range shapes {
			if now.After(entry.expiresAt) {
				delete(shapes, key)
			}
		}
		if len(shapes) == 0 {
			delete(e.cache, userID)
		}
	}
}
