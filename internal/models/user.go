// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

package models

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested user does not exist.
// It is the only error the recommendation engine surfaces to callers
// as a hard failure; everything else degrades.
var ErrNotFound = errors.New("user not found")

// Sex is the declared sex used for metabolic rate estimation.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
	SexOther  Sex = "other"
)

// Activity levels recognized by the TDEE multiplier table.
// Unrecognized values fall back to moderately-active.
const (
	ActivitySedentary        = "sedentary"
	ActivityLightlyActive    = "lightly-active"
	ActivityModeratelyActive = "moderately-active"
	ActivityVeryActive       = "very-active"
	ActivityExtremelyActive  = "extremely-active"
)

// Goals a user can declare. Goals drive both the rule source's candidate
// tables and the deterministic nutrition fallback's calorie adjustment.
const (
	GoalWeightLoss      = "weight-loss"
	GoalMuscleGain      = "muscle-gain"
	GoalEndurance       = "endurance"
	GoalGeneralFitness  = "general-fitness"
	GoalStressReduction = "stress-reduction"
	GoalBetterSleep     = "better-sleep"
)

// UnitSystem selects how raw height/weight measurements are interpreted.
type UnitSystem string

const (
	UnitsMetric   UnitSystem = "metric"
	UnitsImperial UnitSystem = "imperial"
)

// UserRecord is the stored user document. It is owned by the persistence
// layer; the engine never mutates it.
type UserRecord struct {
	// ID is the user identifier (UUID in practice).
	ID string `json:"id"`

	// BirthDate is used to derive age; zero value means unknown.
	BirthDate time.Time `json:"birth_date"`

	// Sex is the declared sex.
	Sex Sex `json:"sex"`

	// Goals are the declared training/lifestyle goals.
	Goals []string `json:"goals"`

	// ActivityLevel is the declared activity category.
	ActivityLevel string `json:"activity_level"`

	// DietaryRestrictions are diets the user follows (vegetarian, vegan, ...).
	DietaryRestrictions []string `json:"dietary_restrictions,omitempty"`

	// Allergies are ingredients to exclude from nutrition candidates.
	Allergies []string `json:"allergies,omitempty"`

	// HealthConditions are declared conditions that constrain candidates.
	HealthConditions []string `json:"health_conditions,omitempty"`

	// Units selects metric or imperial interpretation of raw measurements.
	Units UnitSystem `json:"units"`

	// HeightCm is the declared height. In imperial records the raw value
	// is inches; converted at computation time, never in storage.
	HeightCm *float64 `json:"height_cm,omitempty"`

	// WeightKg is the declared weight (pounds for imperial records).
	WeightKg *float64 `json:"weight_kg,omitempty"`

	// CreatedAt is when the record was first stored.
	CreatedAt time.Time `json:"created_at"`
}

// UserPreferences holds per-user recommendation preferences. Updating
// preferences invalidates both the profile and recommendation caches.
type UserPreferences struct {
	UserID string `json:"user_id"`

	// PreferredWorkoutTypes biases the rule source (e.g. "strength", "yoga").
	PreferredWorkoutTypes []string `json:"preferred_workout_types,omitempty"`

	// ExcludedCategories are categories the user opted out of. They
	// are dropped from all-category requests; an explicit request for
	// a single category still runs.
	ExcludedCategories []string `json:"excluded_categories,omitempty"`

	// MaxWorkoutMinutes caps suggested session length; 0 means no cap.
	MaxWorkoutMinutes int `json:"max_workout_minutes,omitempty"`

	// GenerativeOptOut disables the generative source for this user.
	GenerativeOptOut bool `json:"generative_opt_out,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}
