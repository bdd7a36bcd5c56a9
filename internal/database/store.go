// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/vitalcoach/vitalcoach/internal/metrics"
	"github.com/vitalcoach/vitalcoach/internal/models"
)

// maxSamplesPerQuery bounds a single biometric window read.
const maxSamplesPerQuery = 10000

// GetUser returns the stored user record, or a wrapped
// models.ErrNotFound when no row exists.
func (db *DB) GetUser(ctx context.Context, id string) (*models.UserRecord, error) {
	const query = `SELECT id, birth_date, sex, goals, activity_level,
		dietary_restrictions, allergies, health_conditions, units,
		height_cm, weight_kg, created_at
		FROM users WHERE id = ?`

	var (
		rec      models.UserRecord
		goals    string
		diets    string
		allergy  string
		cond     string
		heightCm sql.NullFloat64
		weightKg sql.NullFloat64
	)
	start := time.Now()
	err := db.conn.QueryRowContext(ctx, query, id).Scan(
		&rec.ID, &rec.BirthDate, &rec.Sex, &goals, &rec.ActivityLevel,
		&diets, &allergy, &cond, &rec.Units,
		&heightCm, &weightKg, &rec.CreatedAt,
	)
	metrics.RecordDBQuery("SELECT", "users", time.Since(start), ignoreNoRows(err))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query user %s: %w", id, err)
	}

	for _, f := range []struct {
		raw  string
		dest *[]string
	}{
		{goals, &rec.Goals},
		{diets, &rec.DietaryRestrictions},
		{allergy, &rec.Allergies},
		{cond, &rec.HealthConditions},
	} {
		if err := unmarshalStringList(f.raw, f.dest); err != nil {
			return nil, fmt.Errorf("decode user %s: %w", id, err)
		}
	}
	if heightCm.Valid {
		rec.HeightCm = &heightCm.Float64
	}
	if weightKg.Valid {
		rec.WeightKg = &weightKg.Float64
	}
	return &rec, nil
}

// UpsertUser inserts or replaces a user record. A zero ID is rejected;
// CreatedAt is stamped on first insert and preserved on update.
func (db *DB) UpsertUser(ctx context.Context, rec *models.UserRecord) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("user record requires an id")
	}

	goals, err := marshalStringList(rec.Goals)
	if err != nil {
		return fmt.Errorf("encode goals: %w", err)
	}
	diets, err := marshalStringList(rec.DietaryRestrictions)
	if err != nil {
		return fmt.Errorf("encode dietary restrictions: %w", err)
	}
	allergy, err := marshalStringList(rec.Allergies)
	if err != nil {
		return fmt.Errorf("encode allergies: %w", err)
	}
	cond, err := marshalStringList(rec.HealthConditions)
	if err != nil {
		return fmt.Errorf("encode health conditions: %w", err)
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	const query = `INSERT INTO users (id, birth_date, sex, goals,
		activity_level, dietary_restrictions, allergies, health_conditions,
		units, height_cm, weight_kg, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			birth_date = excluded.birth_date,
			sex = excluded.sex,
			goals = excluded.goals,
			activity_level = excluded.activity_level,
			dietary_restrictions = excluded.dietary_restrictions,
			allergies = excluded.allergies,
			health_conditions = excluded.health_conditions,
			units = excluded.units,
			height_cm = excluded.height_cm,
			weight_kg = excluded.weight_kg`

	start := time.Now()
	_, err = db.conn.ExecContext(ctx, query,
		rec.ID, rec.BirthDate, string(rec.Sex), goals,
		rec.ActivityLevel, diets, allergy, cond,
		string(rec.Units), nullableFloat(rec.HeightCm), nullableFloat(rec.WeightKg),
		createdAt,
	)
	metrics.RecordDBQuery("UPSERT", "users", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("upsert user %s: %w", rec.ID, err)
	}
	return nil
}

// InsertBiometricSample stores one observation. The sample's RecordedAt
// defaults to now when zero.
func (db *DB) InsertBiometricSample(ctx context.Context, sample *models.BiometricSample) error {
	if sample == nil || sample.UserID == "" {
		return fmt.Errorf("biometric sample requires a user id")
	}

	recordedAt := sample.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}

	args := []any{uuid.New().String(), sample.UserID, recordedAt}
	for _, encode := range []func() (any, error){
		func() (any, error) { return marshalReading(sample.Vitals) },
		func() (any, error) { return marshalReading(sample.Body) },
		func() (any, error) { return marshalReading(sample.Activity) },
		func() (any, error) { return marshalReading(sample.Sleep) },
		func() (any, error) { return marshalReading(sample.Stress) },
		func() (any, error) { return marshalReading(sample.Nutrition) },
		func() (any, error) { return marshalReading(sample.Mood) },
	} {
		encoded, err := encode()
		if err != nil {
			return fmt.Errorf("encode sample for user %s: %w", sample.UserID, err)
		}
		args = append(args, encoded)
	}

	const query = `INSERT INTO biometric_samples (id, user_id, recorded_at,
		vitals, body, activity, sleep, stress, nutrition, mood)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, query, args...)
	metrics.RecordDBQuery("INSERT", "biometric_samples", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("insert sample for user %s: %w", sample.UserID, err)
	}
	return nil
}

// GetSamplesInRange returns a user's samples with recorded_at in
// [start, end), oldest first.
func (db *DB) GetSamplesInRange(ctx context.Context, userID string, start, end time.Time) ([]models.BiometricSample, error) {
	const query = `SELECT user_id, recorded_at,
		vitals, body, activity, sleep, stress, nutrition, mood
		FROM biometric_samples
		WHERE user_id = ? AND recorded_at >= ? AND recorded_at < ?
		ORDER BY recorded_at ASC
		LIMIT ?`

	queryStart := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, userID, start, end, maxSamplesPerQuery)
	metrics.RecordDBQuery("SELECT", "biometric_samples", time.Since(queryStart), err)
	if err != nil {
		return nil, fmt.Errorf("query samples for user %s: %w", userID, err)
	}
	defer func() { _ = rows.Close() }()

	var samples []models.BiometricSample
	for rows.Next() {
		var (
			s                                                 models.BiometricSample
			vitals, body, activity, sleep, stress, nutr, mood sql.NullString
		)
		if err := rows.Scan(&s.UserID, &s.RecordedAt,
			&vitals, &body, &activity, &sleep, &stress, &nutr, &mood); err != nil {
			return nil, fmt.Errorf("scan sample for user %s: %w", userID, err)
		}
		if err := decodeReadings(&s, vitals, body, activity, sleep, stress, nutr, mood); err != nil {
			return nil, fmt.Errorf("decode sample for user %s: %w", userID, err)
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples for user %s: %w", userID, err)
	}
	return samples, nil
}

// GetPreferences returns a user's recommendation preferences, or a
// wrapped models.ErrNotFound when none have been stored.
func (db *DB) GetPreferences(ctx context.Context, userID string) (*models.UserPreferences, error) {
	const query = `SELECT user_id, preferred_workout_types,
		excluded_categories, max_workout_minutes, generative_opt_out,
		updated_at
		FROM user_preferences WHERE user_id = ?`

	var (
		prefs    models.UserPreferences
		workouts string
		excluded string
	)
	start := time.Now()
	err := db.conn.QueryRowContext(ctx, query, userID).Scan(
		&prefs.UserID, &workouts, &excluded,
		&prefs.MaxWorkoutMinutes, &prefs.GenerativeOptOut, &prefs.UpdatedAt,
	)
	metrics.RecordDBQuery("SELECT", "user_preferences", time.Since(start), ignoreNoRows(err))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("preferences for user %s: %w", userID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query preferences for user %s: %w", userID, err)
	}
	if err := unmarshalStringList(workouts, &prefs.PreferredWorkoutTypes); err != nil {
		return nil, fmt.Errorf("decode preferences for user %s: %w", userID, err)
	}
	if err := unmarshalStringList(excluded, &prefs.ExcludedCategories); err != nil {
		return nil, fmt.Errorf("decode preferences for user %s: %w", userID, err)
	}
	return &prefs, nil
}

// PutPreferences inserts or replaces a user's preferences and stamps
// UpdatedAt.
func (db *DB) PutPreferences(ctx context.Context, prefs *models.UserPreferences) error {
	if prefs == nil || prefs.UserID == "" {
		return fmt.Errorf("preferences require a user id")
	}

	workouts, err := marshalStringList(prefs.PreferredWorkoutTypes)
	if err != nil {
		return fmt.Errorf("encode workout types: %w", err)
	}
	excluded, err := marshalStringList(prefs.ExcludedCategories)
	if err != nil {
		return fmt.Errorf("encode excluded categories: %w", err)
	}

	const query = `INSERT INTO user_preferences (user_id,
		preferred_workout_types, excluded_categories, max_workout_minutes,
		generative_opt_out, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			preferred_workout_types = excluded.preferred_workout_types,
			excluded_categories = excluded.excluded_categories,
			max_workout_minutes = excluded.max_workout_minutes,
			generative_opt_out = excluded.generative_opt_out,
			updated_at = excluded.updated_at`

	start := time.Now()
	_, err = db.conn.ExecContext(ctx, query,
		prefs.UserID, workouts, excluded,
		prefs.MaxWorkoutMinutes, prefs.GenerativeOptOut, time.Now().UTC(),
	)
	metrics.RecordDBQuery("UPSERT", "user_preferences", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("put preferences for user %s: %w", prefs.UserID, err)
	}
	return nil
}

// decodeReadings fills the sample's reading groups from their stored
// JSON columns.
func decodeReadings(s *models.BiometricSample, vitals, body, activity, sleep, stress, nutr, mood sql.NullString) error {
	if vitals.Valid {
		s.Vitals = &models.VitalsReading{}
		if err := json.Unmarshal([]byte(vitals.String), s.Vitals); err != nil {
			return fmt.Errorf("vitals: %w", err)
		}
	}
	if body.Valid {
		s.Body = &models.BodyReading{}
		if err := json.Unmarshal([]byte(body.String), s.Body); err != nil {
			return fmt.Errorf("body: %w", err)
		}
	}
	if activity.Valid {
		s.Activity = &models.ActivityReading{}
		if err := json.Unmarshal([]byte(activity.String), s.Activity); err != nil {
			return fmt.Errorf("activity: %w", err)
		}
	}
	if sleep.Valid {
		s.Sleep = &models.SleepReading{}
		if err := json.Unmarshal([]byte(sleep.String), s.Sleep); err != nil {
			return fmt.Errorf("sleep: %w", err)
		}
	}
	if stress.Valid {
		s.Stress = &models.StressReading{}
		if err := json.Unmarshal([]byte(stress.String), s.Stress); err != nil {
			return fmt.Errorf("stress: %w", err)
		}
	}
	if nutr.Valid {
		s.Nutrition = &models.NutritionReading{}
		if err := json.Unmarshal([]byte(nutr.String), s.Nutrition); err != nil {
			return fmt.Errorf("nutrition: %w", err)
		}
	}
	if mood.Valid {
		s.Mood = &models.MoodReading{}
		if err := json.Unmarshal([]byte(mood.String), s.Mood); err != nil {
			return fmt.Errorf("mood: %w", err)
		}
	}
	return nil
}

// marshalReading encodes a reading pointer to JSON text, mapping nil
// readings to SQL NULL.
func marshalReading[T any](reading *T) (any, error) {
	if reading == nil {
		return nil, nil //nolint:nilnil // nil maps to SQL NULL
	}
	data, err := json.Marshal(reading)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func marshalStringList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalStringList(raw string, dest *[]string) error {
	if raw == "" {
		*dest = nil
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return err
	}
	if len(list) == 0 {
		*dest = nil
		return nil
	}
	*dest = list
	return nil
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// ignoreNoRows keeps an absent row from counting as a query error.
func ignoreNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}
