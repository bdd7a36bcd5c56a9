// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vitalcoach/vitalcoach/internal/logging"
	"github.com/vitalcoach/vitalcoach/internal/models"
	"github.com/vitalcoach/vitalcoach/internal/recommend"
)

// requestTimeout bounds handler work beyond the server-level timeout.
const requestTimeout = 15 * time.Second

// Recommender is the engine surface the handlers depend on.
// Implemented by *recommend.Engine.
type Recommender interface {
	Generate(ctx context.Context, userID string, category recommend.Category, opts recommend.Options) (*recommend.Bundle, error)
	InvalidateUser(userID string)
	GetStats() recommend.Stats
}

// Store is the persistence surface the handlers depend on.
// Implemented by *database.DB.
type Store interface {
	GetUser(ctx context.Context, id string) (*models.UserRecord, error)
	UpsertUser(ctx context.Context, rec *models.UserRecord) error
	InsertBiometricSample(ctx context.Context, sample *models.BiometricSample) error
	GetPreferences(ctx context.Context, userID string) (*models.UserPreferences, error)
	PutPreferences(ctx context.Context, prefs *models.UserPreferences) error
	Ping(ctx context.Context) error
}

// Publisher emits cache-invalidation events after preference writes.
// Implemented by *events.Bus.
type Publisher interface {
	PublishPreferencesUpdated(userID string) error
}

// Handler holds the HTTP handlers and their collaborators.
type Handler struct {
	engine    Recommender
	store     Store
	publisher Publisher
	validate  *validator.Validate
	startTime time.Time
	version   string
}

// NewHandler creates the handler set. publisher may be nil; preference
// writes then invalidate the engine directly.
func NewHandler(engine Recommender, store Store, publisher Publisher, version string) *Handler {
	return &Handler{
		engine:    engine,
		store:     store,
		publisher: publisher,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		startTime: time.Now(),
		version:   version,
	}
}

// healthStatus is the health endpoint payload.
type healthStatus struct {
	Status            string  `json:"status"`
	Version           string  `json:"version"`
	DatabaseConnected bool    `json:"database_connected"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.store != nil && h.store.Ping(r.Context()) == nil

	status := "healthy"
	if !dbConnected {
		status = "degraded"
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: healthStatus{
			Status:            status,
			Version:           h.version,
			DatabaseConnected: dbConnected,
			UptimeSeconds:     time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// GetRecommendations handles
// GET /api/v1/users/{userID}/recommendations.
//
// Query parameters: category (default "all"), count, refresh,
// no_generative.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_USER_ID", "User ID is required", nil)
		return
	}

	category, err := recommend.ParseCategory(r.URL.Query().Get("category"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_CATEGORY", "Unknown recommendation category", err)
		return
	}

	count := getIntParam(r, "count", 0)
	if count < 0 {
		respondError(w, http.StatusBadRequest, "INVALID_COUNT", "count must be positive", nil)
		return
	}

	opts := recommend.Options{
		Count:             count,
		ForceRefresh:      getBoolParam(r, "refresh"),
		DisableGenerative: getBoolParam(r, "no_generative"),
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	bundle, err := h.engine.Generate(ctx, userID, category, opts)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "RECOMMENDATION_ERROR", "Failed to generate recommendations", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   bundle,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: bundle.LatencyMS,
			Cached:      bundle.Cached,
		},
	})
}

// InvalidateRecommendations handles
// DELETE /api/v1/users/{userID}/recommendations/cache.
func (h *Handler) InvalidateRecommendations(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_USER_ID", "User ID is required", nil)
		return
	}

	h.engine.InvalidateUser(userID)

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     map[string]string{"user_id": userID, "result": "invalidated"},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// userRequest is the PUT user payload.
type userRequest struct {
	BirthDate           time.Time `json:"birth_date" validate:"required"`
	Sex                 string    `json:"sex" validate:"required,oneof=male female other"`
	Goals               []string  `json:"goals" validate:"max=6,dive,oneof=weight-loss muscle-gain endurance general-fitness stress-reduction better-sleep"`
	ActivityLevel       string    `json:"activity_level" validate:"omitempty,oneof=sedentary lightly-active moderately-active very-active extremely-active"`
	DietaryRestrictions []string  `json:"dietary_restrictions" validate:"max=20,dive,max=60"`
	Allergies           []string  `json:"allergies" validate:"max=20,dive,max=60"`
	HealthConditions    []string  `json:"health_conditions" validate:"max=20,dive,max=120"`
	Units               string    `json:"units" validate:"omitempty,oneof=metric imperial"`
	HeightCm            *float64  `json:"height_cm" validate:"omitempty,gt=0,lt=300"`
	WeightKg            *float64  `json:"weight_kg" validate:"omitempty,gt=0,lt=700"`
}

// PutUser handles PUT /api/v1/users/{userID}.
func (h *Handler) PutUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_USER_ID", "User ID is required", nil)
		return
	}

	var req userRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "Malformed request body", err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", fmt.Sprintf("Invalid user record: %v", err), nil)
		return
	}

	units := models.UnitSystem(req.Units)
	if units == "" {
		units = models.UnitsMetric
	}
	rec := &models.UserRecord{
		ID:                  userID,
		BirthDate:           req.BirthDate,
		Sex:                 models.Sex(req.Sex),
		Goals:               req.Goals,
		ActivityLevel:       req.ActivityLevel,
		DietaryRestrictions: req.DietaryRestrictions,
		Allergies:           req.Allergies,
		HealthConditions:    req.HealthConditions,
		Units:               units,
		HeightCm:            req.HeightCm,
		WeightKg:            req.WeightKg,
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.store.UpsertUser(ctx, rec); err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to store user", err)
		return
	}

	// The profile depends on the record, so cached state is stale now.
	h.engine.InvalidateUser(userID)

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     map[string]string{"user_id": userID, "result": "stored"},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// GetUser handles GET /api/v1/users/{userID}.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_USER_ID", "User ID is required", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rec, err := h.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load user", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     rec,
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// PostBiometrics handles POST /api/v1/users/{userID}/biometrics.
func (h *Handler) PostBiometrics(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_USER_ID", "User ID is required", nil)
		return
	}

	var sample models.BiometricSample
	if err := decodeBody(r, &sample); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "Malformed request body", err)
		return
	}
	sample.UserID = userID
	if err := validateSample(&sample); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.store.InsertBiometricSample(ctx, &sample); err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to store sample", err)
		return
	}

	respondJSON(w, http.StatusCreated, &models.APIResponse{
		Status:   "success",
		Data:     map[string]string{"user_id": userID, "result": "recorded"},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// validateSample applies range checks to a decoded biometric sample.
func validateSample(s *models.BiometricSample) error {
	if !s.RecordedAt.IsZero() && s.RecordedAt.After(time.Now().Add(5*time.Minute)) {
		return fmt.Errorf("recorded_at is in the future")
	}
	if s.Vitals != nil {
		if s.Vitals.RestingHeartRate < 0 || s.Vitals.RestingHeartRate > 300 {
			return fmt.Errorf("resting heart rate out of range")
		}
		if s.Vitals.HRVMs < 0 || s.Vitals.HRVMs > 500 {
			return fmt.Errorf("hrv out of range")
		}
	}
	if s.Body != nil && (s.Body.WeightKg < 0 || s.Body.WeightKg > 700) {
		return fmt.Errorf("weight out of range")
	}
	if s.Activity != nil && s.Activity.Steps < 0 {
		return fmt.Errorf("steps must be non-negative")
	}
	if s.Sleep != nil {
		if s.Sleep.DurationHours < 0 || s.Sleep.DurationHours > 24 {
			return fmt.Errorf("sleep duration out of range")
		}
		if s.Sleep.Quality < 0 || s.Sleep.Quality > 10 {
			return fmt.Errorf("sleep quality out of range")
		}
	}
	if s.Stress != nil && (s.Stress.Level < 0 || s.Stress.Level > 10) {
		return fmt.Errorf("stress level out of range")
	}
	if s.Mood != nil && (s.Mood.Score < 0 || s.Mood.Score > 10) {
		return fmt.Errorf("mood score out of range")
	}
	return nil
}

// preferencesRequest is the PUT preferences payload.
type preferencesRequest struct {
	PreferredWorkoutTypes []string `json:"preferred_workout_types" validate:"max=10,dive,max=60"`
	ExcludedCategories    []string `json:"excluded_categories" validate:"max=4,dive,oneof=workout nutrition mindfulness goals"`
	MaxWorkoutMinutes     int      `json:"max_workout_minutes" validate:"gte=0,lte=600"`
	GenerativeOptOut      bool     `json:"generative_opt_out"`
}

// PutPreferences handles PUT /api/v1/users/{userID}/preferences.
// A successful write invalidates every cached bundle and the cached
// profile for the user.
func (h *Handler) PutPreferences(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_USER_ID", "User ID is required", nil)
		return
	}

	var req preferencesRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "Malformed request body", err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", fmt.Sprintf("Invalid preferences: %v", err), nil)
		return
	}

	prefs := &models.UserPreferences{
		UserID:                userID,
		PreferredWorkoutTypes: req.PreferredWorkoutTypes,
		ExcludedCategories:    req.ExcludedCategories,
		MaxWorkoutMinutes:     req.MaxWorkoutMinutes,
		GenerativeOptOut:      req.GenerativeOptOut,
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.store.PutPreferences(ctx, prefs); err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to store preferences", err)
		return
	}

	// Invalidation rides the event bus; fall back to a direct call so
	// the write never leaves stale caches behind.
	if h.publisher != nil {
		if err := h.publisher.PublishPreferencesUpdated(userID); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Str("user_id", userID).
				Msg("Publish failed, invalidating directly")
			h.engine.InvalidateUser(userID)
		}
	} else {
		h.engine.InvalidateUser(userID)
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     map[string]string{"user_id": userID, "result": "stored"},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// GetPreferences handles GET /api/v1/users/{userID}/preferences.
func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_USER_ID", "User ID is required", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	prefs, err := h.store.GetPreferences(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "No preferences stored", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load preferences", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     prefs,
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// Stats handles GET /api/v1/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     h.engine.GetStats(),
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}
