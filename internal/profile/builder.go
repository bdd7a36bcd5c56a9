// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

// Package profile assembles the denormalized UserProfile snapshot the
// recommendation sources operate on, and owns its per-user TTL cache.
//
// The builder degrades rather than fails: a missing user record is the
// only hard error (models.ErrNotFound). Any other gap, such as a missing
// biometric window or absent preferences, resolves to a documented
// default recorded in UserProfile.Degradations.
package profile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vitalcoach/vitalcoach/internal/health"
	"github.com/vitalcoach/vitalcoach/internal/metrics"
	"github.com/vitalcoach/vitalcoach/internal/models"
)

// Store is the persistence collaborator the builder reads from.
// Implemented by the database package; tests supply mocks.
type Store interface {
	// GetUser returns the stored record or an error wrapping
	// models.ErrNotFound when the user does not exist.
	GetUser(ctx context.Context, id string) (*models.UserRecord, error)

	// GetSamplesInRange returns the user's biometric samples within
	// [start, end), ordered by recording time ascending.
	GetSamplesInRange(ctx context.Context, userID string, start, end time.Time) ([]models.BiometricSample, error)
}

// PreferenceStore reads per-user recommendation preferences.
type PreferenceStore interface {
	GetPreferences(ctx context.Context, userID string) (*models.UserPreferences, error)
}

// BuildOptions controls a single build request.
type BuildOptions struct {
	// ForceRefresh bypasses the cache and rebuilds unconditionally.
	ForceRefresh bool
}

// DefaultTTL is the profile freshness window.
const DefaultTTL = time.Hour

// sampleWindow is how far back the biometric window reaches.
const sampleWindow = 30 * 24 * time.Hour

// cacheEntry pairs a built profile with its build time. Freshness is
// checked at read time against the builder TTL.
type cacheEntry struct {
	profile *models.UserProfile
	builtAt time.Time
}

// Builder constructs and caches user profiles. Safe for concurrent use;
// writes are last-write-wins per user key and readers observe either
// the old or the new entry atomically.
type Builder struct {
	store  Store
	prefs  PreferenceStore
	ttl    time.Duration
	logger zerolog.Logger

	// now is swapped in tests for deterministic freshness checks.
	now func() time.Time

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// NewBuilder creates a profile builder with the given collaborators.
// A zero ttl uses DefaultTTL. prefs may be nil; preferences then
// degrade to their zero value.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBuilder(store Store, prefs PreferenceStore, ttl time.Duration, logger zerolog.Logger) *Builder {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Builder{
		store:  store,
		prefs:  prefs,
		ttl:    ttl,
		logger: logger.With().Str("component", "profile").Logger(),
		now:    time.Now,
		cache:  make(map[string]cacheEntry),
	}
}

// Build returns the user's profile, served from cache when a fresh
// entry exists and opts.ForceRefresh is false. A cache hit returns the
// identical cached value (same BuiltAt).
func (b *Builder) Build(ctx context.Context, userID string, opts BuildOptions) (*models.UserProfile, error) {
	if !opts.ForceRefresh {
		if p := b.cached(userID); p != nil {
			metrics.RecordCacheHit("profile")
			b.logger.Debug().Str("user_id", userID).Msg("profile cache hit")
			return p, nil
		}
		metrics.RecordCacheMiss("profile")
	}

	started := b.now()
	p, err := b.build(ctx, userID)
	if err != nil {
		return nil, err
	}
	metrics.RecordProfileBuild(time.Since(started), len(p.Degradations) > 0)

	b.mu.Lock()
	b.cache[userID] = cacheEntry{profile: p, builtAt: p.BuiltAt}
	b.mu.Unlock()

	return p, nil
}

// Invalidate drops the cached profile for a user, if any.
func (b *Builder) Invalidate(userID string) {
	b.mu.Lock()
	delete(b.cache, userID)
	b.mu.Unlock()
	metrics.RecordCacheInvalidation("profile")
}

// SweepExpired removes entries past the freshness window. Called by the
// cache janitor service; correctness does not depend on it because
// freshness is also checked at read time.
func (b *Builder) SweepExpired() int {
	now := b.now()
	b.mu.Lock()
	defer b.mu.Unlock()

	var evicted int
	for id, entry := range b.cache {
		if now.Sub(entry.builtAt) >= b.ttl {
			delete(b.cache, id)
			evicted++
		}
	}
	metrics.RecordCacheEvictions("profile", evicted)
	return evicted
}

// cached returns a fresh cached profile or nil.
func (b *Builder) cached(userID string) *models.UserProfile {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entry, ok := b.cache[userID]
	if !ok {
		return nil
	}
	if b.now().Sub(entry.builtAt) >= b.ttl {
		return nil
	}
	return entry.profile
}

// build fetches the record and biometric window and assembles a fresh
// profile.
func (b *Builder) build(ctx context.Context, userID string) (*models.UserProfile, error) {
	record, err := b.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}

	now := b.now()
	var degradations []string

	samples, err := b.store.GetSamplesInRange(ctx, userID, now.Add(-sampleWindow), now)
	if err != nil {
		// Biometric history is an enrichment, not a requirement.
		b.logger.Warn().Err(err).Str("user_id", userID).Msg("biometric window unavailable, building partial profile")
		degradations = append(degradations, "biometric window unavailable")
		samples = nil
	}

	prefs := b.loadPreferences(ctx, userID, &degradations)
	summary := health.Summarize(samples)

	age := health.Age(record.BirthDate, now)
	if age == 0 {
		degradations = append(degradations, "age unknown")
	}

	heightCm, weightKg := b.resolveMeasurements(record, samples, &degradations)

	bmi := health.BMI(record.HeightCm, record.WeightKg, record.Units)
	if bmi == nil {
		degradations = append(degradations, "bmi unavailable: missing height or weight")
	}

	bmr := health.BMR(age, record.Sex, weightKg, heightCm)
	tdee := health.TDEE(bmr, record.ActivityLevel)

	var avgSteps, avgHRV *float64
	if summary.AvgDailySteps > 0 {
		avgSteps = &summary.AvgDailySteps
	}
	if summary.AvgHRVMs > 0 {
		avgHRV = &summary.AvgHRVMs
	}
	score, level := health.FitnessLevel(record.ActivityLevel, avgSteps, avgHRV)

	return &models.UserProfile{
		UserID:        record.ID,
		Age:           age,
		Sex:           record.Sex,
		Goals:         record.Goals,
		ActivityLevel: record.ActivityLevel,
		FitnessLevel:  level,
		FitnessScore:  score,
		HealthTrends:  health.AggregateTrends(samples),
		Preferences:   prefs,
		Constraints: models.ProfileConstraints{
			DietaryRestrictions: record.DietaryRestrictions,
			Allergies:           record.Allergies,
			HealthConditions:    record.HealthConditions,
		},
		RecentActivity: summary,
		BMI:            bmi,
		BMR:            bmr,
		TDEE:           tdee,
		SleepScore:     health.SleepQualityScore(samples),
		StressScore:    health.StressScore(samples),
		Degradations:   degradations,
		BuiltAt:        now,
	}, nil
}

// loadPreferences fetches preferences, degrading to the zero value.
func (b *Builder) loadPreferences(ctx context.Context, userID string, degradations *[]string) models.UserPreferences {
	if b.prefs == nil {
		return models.UserPreferences{UserID: userID}
	}
	prefs, err := b.prefs.GetPreferences(ctx, userID)
	if err != nil || prefs == nil {
		if err != nil {
			b.logger.Warn().Err(err).Str("user_id", userID).Msg("preferences unavailable, using defaults")
			*degradations = append(*degradations, "preferences unavailable")
		}
		return models.UserPreferences{UserID: userID}
	}
	return *prefs
}

// resolveMeasurements picks the metabolic inputs: the latest body
// reading in the window wins, then the declared record values
// (converted from imperial), then the reference constants.
func (b *Builder) resolveMeasurements(record *models.UserRecord, samples []models.BiometricSample, degradations *[]string) (heightCm, weightKg float64) {
	heightCm = health.DefaultHeightCm
	weightKg = health.DefaultWeightKg

	if record.HeightCm != nil && *record.HeightCm > 0 {
		heightCm = *record.HeightCm
		if record.Units == models.UnitsImperial {
			heightCm = health.InchesToCm(heightCm)
		}
	} else {
		*degradations = append(*degradations, "height unknown: using 170 cm reference")
	}

	haveWeight := false
	if record.WeightKg != nil && *record.WeightKg > 0 {
		weightKg = *record.WeightKg
		if record.Units == models.UnitsImperial {
			weightKg = health.PoundsToKg(weightKg)
		}
		haveWeight = true
	}

	// Latest body reading supersedes the declared weight.
	for i := len(samples) - 1; i >= 0; i-- {
		if samples[i].Body != nil && samples[i].Body.WeightKg > 0 {
			weightKg = samples[i].Body.WeightKg
			haveWeight = true
			break
		}
	}

	if !haveWeight {
		*degradations = append(*degradations, "weight unknown: using 70 kg reference")
	}
	return heightCm, weightKg
}
