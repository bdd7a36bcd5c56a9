// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vitalcoach/vitalcoach/internal/models"
)

type mockStore struct {
	user       *models.UserRecord
	userErr    error
	samples    []models.BiometricSample
	samplesErr error

	userCalls   atomic.Int64
	sampleCalls atomic.Int64
}

func (m *mockStore) GetUser(_ context.Context, id string) (*models.UserRecord, error) {
	m.userCalls.Add(1)
	if m.userErr != nil {
		return nil, m.userErr
	}
	if m.user == nil || m.user.ID != id {
		return nil, fmt.Errorf("user %s: %w", id, models.ErrNotFound)
	}
	return m.user, nil
}

func (m *mockStore) GetSamplesInRange(_ context.Context, _ string, _, _ time.Time) ([]models.BiometricSample, error) {
	m.sampleCalls.Add(1)
	if m.samplesErr != nil {
		return nil, m.samplesErr
	}
	return m.samples, nil
}

type mockPrefStore struct {
	prefs *models.UserPreferences
	err   error
}

func (m *mockPrefStore) GetPreferences(_ context.Context, _ string) (*models.UserPreferences, error) {
	return m.prefs, m.err
}

func fptr(v float64) *float64 { return &v }

func testUser() *models.UserRecord {
	return &models.UserRecord{
		ID:            "u1",
		BirthDate:     time.Date(1990, 3, 15, 0, 0, 0, 0, time.UTC),
		Sex:           models.SexFemale,
		Goals:         []string{models.GoalWeightLoss},
		ActivityLevel: models.ActivityModeratelyActive,
		Units:         models.UnitsMetric,
		HeightCm:      fptr(168),
		WeightKg:      fptr(72),
	}
}

func newTestBuilder(store Store, prefs PreferenceStore, ttl time.Duration) *Builder {
	return NewBuilder(store, prefs, ttl, zerolog.Nop())
}

func TestBuildAssemblesProfile(t *testing.T) {
	store := &mockStore{user: testUser()}
	b := newTestBuilder(store, nil, 0)

	p, err := b.Build(context.Background(), "u1", BuildOptions{})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if p.UserID != "u1" {
		t.Errorf("UserID = %q", p.UserID)
	}
	if p.Age < 35 {
		t.Errorf("Age = %d, want >= 35", p.Age)
	}
	if p.BMI == nil {
		t.Fatal("BMI missing despite height and weight present")
	}
	if p.BMR <= 0 || p.TDEE <= p.BMR {
		t.Errorf("metabolic values implausible: BMR %.0f TDEE %.0f", p.BMR, p.TDEE)
	}
	if p.FitnessLevel == "" {
		t.Error("fitness level empty")
	}
	if !p.HasGoal(models.GoalWeightLoss) {
		t.Error("goals not carried over")
	}
}

func TestBuildConvertsImperialMeasurements(t *testing.T) {
	user := testUser()
	user.Units = models.UnitsImperial
	user.HeightCm = fptr(66)  // inches
	user.WeightKg = fptr(158) // pounds
	store := &mockStore{user: user}
	b := newTestBuilder(store, nil, 0)

	p, err := b.Build(context.Background(), "u1", BuildOptions{})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if p.BMI == nil {
		t.Fatal("BMI missing")
	}
	// 66 in / 158 lb is about 167.6 cm / 71.7 kg, BMI ~25.5.
	if *p.BMI < 25.0 || *p.BMI > 26.0 {
		t.Errorf("BMI = %.1f, want ~25.5 after imperial conversion", *p.BMI)
	}
}

func TestBuildNotFoundPropagates(t *testing.T) {
	store := &mockStore{}
	b := newTestBuilder(store, nil, 0)

	_, err := b.Build(context.Background(), "missing", BuildOptions{})
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("error = %v, want models.ErrNotFound", err)
	}
}

func TestBuildCacheHitWithinTTL(t *testing.T) {
	store := &mockStore{user: testUser()}
	b := newTestBuilder(store, nil, time.Hour)

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	first, err := b.Build(context.Background(), "u1", BuildOptions{})
	if err != nil {
		t.Fatalf("first Build() error: %v", err)
	}

	now = now.Add(30 * time.Minute)
	second, err := b.Build(context.Background(), "u1", BuildOptions{})
	if err != nil {
		t.Fatalf("second Build() error: %v", err)
	}

	if !second.BuiltAt.Equal(first.BuiltAt) {
		t.Errorf("cache miss within TTL: BuiltAt %v vs %v", second.BuiltAt, first.BuiltAt)
	}
	if store.userCalls.Load() != 1 {
		t.Errorf("store hit %d times, want 1", store.userCalls.Load())
	}
}

func TestBuildExpiryRebuilds(t *testing.T) {
	store := &mockStore{user: testUser()}
	b := newTestBuilder(store, nil, time.Hour)

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	first, _ := b.Build(context.Background(), "u1", BuildOptions{})

	now = now.Add(time.Hour) // exactly at TTL: stale
	second, err := b.Build(context.Background(), "u1", BuildOptions{})
	if err != nil {
		t.Fatalf("Build() after expiry error: %v", err)
	}
	if second.BuiltAt.Equal(first.BuiltAt) {
		t.Error("expired entry served from cache")
	}
}

func TestBuildForceRefreshBypassesCache(t *testing.T) {
	store := &mockStore{user: testUser()}
	b := newTestBuilder(store, nil, time.Hour)

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	first, _ := b.Build(context.Background(), "u1", BuildOptions{})

	now = now.Add(time.Minute)
	second, err := b.Build(context.Background(), "u1", BuildOptions{ForceRefresh: true})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if second.BuiltAt.Equal(first.BuiltAt) {
		t.Error("ForceRefresh served the cached profile")
	}
	if store.userCalls.Load() != 2 {
		t.Errorf("store hit %d times, want 2", store.userCalls.Load())
	}
}

func TestInvalidateDropsEntry(t *testing.T) {
	store := &mockStore{user: testUser()}
	b := newTestBuilder(store, nil, time.Hour)

	if _, err := b.Build(context.Background(), "u1", BuildOptions{}); err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	b.Invalidate("u1")
	if _, err := b.Build(context.Background(), "u1", BuildOptions{}); err != nil {
		t.Fatalf("Build() after invalidate error: %v", err)
	}
	if store.userCalls.Load() != 2 {
		t.Errorf("store hit %d times, want 2 after invalidation", store.userCalls.Load())
	}
}

func TestBuildDegradesOnSampleFailure(t *testing.T) {
	store := &mockStore{
		user:       testUser(),
		samplesErr: errors.New("query timeout"),
	}
	b := newTestBuilder(store, nil, 0)

	p, err := b.Build(context.Background(), "u1", BuildOptions{})
	if err != nil {
		t.Fatalf("Build() should degrade, got error: %v", err)
	}
	if !hasDegradation(p.Degradations, "biometric window") {
		t.Errorf("degradations = %v, want biometric window note", p.Degradations)
	}
	if p.BMR <= 0 {
		t.Error("metabolic defaults missing on degraded build")
	}
}

func TestBuildDegradesOnMissingMeasurements(t *testing.T) {
	user := testUser()
	user.HeightCm = nil
	user.WeightKg = nil
	store := &mockStore{user: user}
	b := newTestBuilder(store, nil, 0)

	p, err := b.Build(context.Background(), "u1", BuildOptions{})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if p.BMI != nil {
		t.Error("BMI computed without measurements")
	}
	if !hasDegradation(p.Degradations, "height unknown") || !hasDegradation(p.Degradations, "weight unknown") {
		t.Errorf("degradations = %v, want height and weight notes", p.Degradations)
	}
	// Reference measurements keep BMR positive.
	if p.BMR <= 0 {
		t.Errorf("BMR = %.0f, want > 0 from reference measurements", p.BMR)
	}
}

func TestBuildPrefersLatestBodyWeight(t *testing.T) {
	store := &mockStore{
		user: testUser(),
		samples: []models.BiometricSample{
			{
				UserID:     "u1",
				RecordedAt: time.Date(2026, 7, 20, 8, 0, 0, 0, time.UTC),
				Body:       &models.BodyReading{WeightKg: 71},
			},
			{
				UserID:     "u1",
				RecordedAt: time.Date(2026, 7, 28, 8, 0, 0, 0, time.UTC),
				Body:       &models.BodyReading{WeightKg: 69.5},
			},
		},
	}
	b := newTestBuilder(store, nil, 0)

	p, err := b.Build(context.Background(), "u1", BuildOptions{})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	// BMR for a female at 69.5 kg vs the declared 72 kg differs by
	// 9.247 kcal per kg.
	at72 := 447.593 + 9.247*72 + 3.098*168 - 4.330*float64(p.Age)
	if p.BMR >= at72 {
		t.Errorf("BMR %.1f should reflect the latest 69.5 kg reading, not the declared 72 kg (%.1f)", p.BMR, at72)
	}
}

func TestBuildPreferenceDegradation(t *testing.T) {
	store := &mockStore{user: testUser()}
	prefs := &mockPrefStore{err: errors.New("connection refused")}
	b := newTestBuilder(store, prefs, 0)

	p, err := b.Build(context.Background(), "u1", BuildOptions{})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if !hasDegradation(p.Degradations, "preferences unavailable") {
		t.Errorf("degradations = %v, want preferences note", p.Degradations)
	}
	if p.Preferences.UserID != "u1" {
		t.Errorf("degraded preferences not keyed to user: %+v", p.Preferences)
	}
}

func TestBuildCarriesPreferences(t *testing.T) {
	store := &mockStore{user: testUser()}
	prefs := &mockPrefStore{prefs: &models.UserPreferences{
		UserID:                "u1",
		PreferredWorkoutTypes: []string{"yoga"},
		MaxWorkoutMinutes:     30,
	}}
	b := newTestBuilder(store, prefs, 0)

	p, err := b.Build(context.Background(), "u1", BuildOptions{})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if p.Preferences.MaxWorkoutMinutes != 30 {
		t.Errorf("MaxWorkoutMinutes = %d, want 30", p.Preferences.MaxWorkoutMinutes)
	}
	if len(p.Preferences.PreferredWorkoutTypes) != 1 {
		t.Errorf("preferred types = %v", p.Preferences.PreferredWorkoutTypes)
	}
}

func TestSweepExpired(t *testing.T) {
	store := &mockStore{user: testUser()}
	b := newTestBuilder(store, nil, time.Hour)

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	if _, err := b.Build(context.Background(), "u1", BuildOptions{}); err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if evicted := b.SweepExpired(); evicted != 0 {
		t.Errorf("evicted %d fresh entries", evicted)
	}

	now = now.Add(2 * time.Hour)
	if evicted := b.SweepExpired(); evicted != 1 {
		t.Errorf("evicted = %d, want 1", evicted)
	}
}

func hasDegradation(notes []string, substr string) bool {
	for _, n := range notes {
		if strings.Contains(n, substr) {
			return true
		}
	}
	return false
}
