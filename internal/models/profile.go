// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

package models

import "time"

// TrendDirection classifies the slope of a metric over time.
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
)

// TrendResult is the output of a linear trend fit over an ordered
// numeric sequence. Stateless value type.
type TrendResult struct {
	// Direction is increasing for slope > 0.1, decreasing for < -0.1,
	// stable otherwise.
	Direction TrendDirection `json:"direction"`

	// Strength is min(|slope| * 10, 5), always clamped to [0, 5].
	Strength float64 `json:"strength"`

	// Slope is the raw least-squares slope over index positions.
	Slope float64 `json:"slope"`
}

// Fitness levels derived from the weighted fitness score.
const (
	FitnessBeginner     = "beginner"
	FitnessBeginnerPlus = "beginner-plus"
	FitnessIntermediate = "intermediate"
	FitnessAdvanced     = "advanced"
)

// ActivitySummary aggregates the recent biometric window for prompt
// building and similarity lookups. Averages are zero when no samples
// carried the underlying reading.
type ActivitySummary struct {
	SampleCount   int     `json:"sample_count"`
	AvgDailySteps float64 `json:"avg_daily_steps,omitempty"`
	AvgSleepHours float64 `json:"avg_sleep_hours,omitempty"`
	AvgHRVMs      float64 `json:"avg_hrv_ms,omitempty"`
	AvgStress     float64 `json:"avg_stress,omitempty"`
}

// ProfileConstraints collects the record attributes that filter or
// exclude recommendation candidates.
type ProfileConstraints struct {
	DietaryRestrictions []string `json:"dietary_restrictions,omitempty"`
	Allergies           []string `json:"allergies,omitempty"`
	HealthConditions    []string `json:"health_conditions,omitempty"`
}

// UserProfile is the denormalized snapshot the recommendation sources
// operate on. It is assembled by the profile builder from the stored
// record, the recent biometric window, computed metrics and trends, and
// cached for one hour. A profile is immutable once built; a refresh
// produces a new value.
type UserProfile struct {
	UserID        string   `json:"user_id"`
	Age           int      `json:"age"`
	Sex           Sex      `json:"sex"`
	Goals         []string `json:"goals"`
	ActivityLevel string   `json:"activity_level"`

	// FitnessLevel is the ordinal level derived from FitnessScore.
	FitnessLevel string  `json:"fitness_level"`
	FitnessScore float64 `json:"fitness_score"`

	// HealthTrends maps metric family (weight, steps, sleep) to its
	// trend. Families with fewer than three samples are absent.
	HealthTrends map[string]TrendResult `json:"health_trends,omitempty"`

	Preferences    UserPreferences    `json:"preferences"`
	Constraints    ProfileConstraints `json:"constraints"`
	RecentActivity ActivitySummary    `json:"recent_activity"`

	// BMI is nil when height or weight is unavailable.
	BMI *float64 `json:"bmi,omitempty"`

	// BMR and TDEE are always present; missing measurements degrade to
	// documented reference constants and are noted in Degradations.
	BMR  float64 `json:"bmr"`
	TDEE float64 `json:"tdee"`

	// SleepScore and StressScore are 0-100 derived scores; nil when the
	// window had no samples for them.
	SleepScore  *float64 `json:"sleep_score,omitempty"`
	StressScore *float64 `json:"stress_score,omitempty"`

	// Degradations lists the defaults applied where data was missing or
	// a computation could not run. Informational, never an error.
	Degradations []string `json:"degradations,omitempty"`

	// BuiltAt is the cache freshness anchor.
	BuiltAt time.Time `json:"built_at"`
}

// HasGoal reports whether the profile declares the given goal.
func (p *UserProfile) HasGoal(goal string) bool {
	for _, g := range p.Goals {
		if g == goal {
			return true
		}
	}
	return false
}
