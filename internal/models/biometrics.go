// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

package models

import "time"

// BiometricSample is one timestamped observation for a user. Every
// sub-group is optional; a sample carries whatever the recording device
// or manual entry provided. Samples are immutable once recorded.
type BiometricSample struct {
	UserID     string    `json:"user_id"`
	RecordedAt time.Time `json:"recorded_at"`

	Vitals    *VitalsReading    `json:"vitals,omitempty"`
	Body      *BodyReading      `json:"body,omitempty"`
	Activity  *ActivityReading  `json:"activity,omitempty"`
	Sleep     *SleepReading     `json:"sleep,omitempty"`
	Stress    *StressReading    `json:"stress,omitempty"`
	Nutrition *NutritionReading `json:"nutrition,omitempty"`
	Mood      *MoodReading      `json:"mood,omitempty"`
}

// VitalsReading holds cardiovascular measurements.
type VitalsReading struct {
	// RestingHeartRate in beats per minute.
	RestingHeartRate float64 `json:"resting_heart_rate,omitempty"`

	// HRVMs is heart-rate variability (RMSSD) in milliseconds.
	HRVMs float64 `json:"hrv_ms,omitempty"`

	BloodPressureSystolic  int `json:"blood_pressure_systolic,omitempty"`
	BloodPressureDiastolic int `json:"blood_pressure_diastolic,omitempty"`
}

// BodyReading holds body composition measurements.
type BodyReading struct {
	WeightKg   float64 `json:"weight_kg,omitempty"`
	BodyFatPct float64 `json:"body_fat_pct,omitempty"`
}

// ActivityReading holds daily movement totals.
type ActivityReading struct {
	Steps          int     `json:"steps,omitempty"`
	ActiveMinutes  int     `json:"active_minutes,omitempty"`
	CaloriesBurned float64 `json:"calories_burned,omitempty"`
}

// SleepReading holds one night of sleep.
type SleepReading struct {
	DurationHours float64 `json:"duration_hours,omitempty"`

	// Quality is a 1-10 subjective or device-derived rating.
	Quality int `json:"quality,omitempty"`

	// BedtimeMinutes is minutes after midnight (negative for before).
	BedtimeMinutes int `json:"bedtime_minutes,omitempty"`
}

// StressReading holds a 1-10 stress level observation.
type StressReading struct {
	Level int `json:"level,omitempty"`
}

// NutritionReading holds logged daily intake.
type NutritionReading struct {
	Calories float64 `json:"calories,omitempty"`
	ProteinG float64 `json:"protein_g,omitempty"`
	CarbsG   float64 `json:"carbs_g,omitempty"`
	FatG     float64 `json:"fat_g,omitempty"`
}

// MoodReading holds a 1-10 mood score observation.
type MoodReading struct {
	Score int `json:"score,omitempty"`
}
