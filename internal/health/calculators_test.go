// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

package health

import (
	"math"
	"testing"
	"time"

	"github.com/vitalcoach/vitalcoach/internal/models"
)

func fptr(v float64) *float64 { return &v }

func TestAge(t *testing.T) {
	asOf := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		birthDate time.Time
		want      int
	}{
		{"birthday passed this year", time.Date(1990, 3, 1, 0, 0, 0, 0, time.UTC), 36},
		{"birthday not yet reached", time.Date(1990, 9, 1, 0, 0, 0, 0, time.UTC), 35},
		{"birthday today", time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC), 36},
		{"zero birth date", time.Time{}, 0},
		{"future birth date", time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Age(tt.birthDate, asOf); got != tt.want {
				t.Errorf("Age() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBMI(t *testing.T) {
	tests := []struct {
		name   string
		height *float64
		weight *float64
		units  models.UnitSystem
		want   *float64
	}{
		{"metric", fptr(175), fptr(70), models.UnitsMetric, fptr(22.9)},
		{"missing height", nil, fptr(70), models.UnitsMetric, nil},
		{"missing weight", fptr(175), nil, models.UnitsMetric, nil},
		{"zero height", fptr(0), fptr(70), models.UnitsMetric, nil},
		{"imperial", fptr(68.9), fptr(154.3), models.UnitsImperial, fptr(22.9)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BMI(tt.height, tt.weight, tt.units)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("BMI() = %v, want %v", got, tt.want)
			}
			if got != nil && math.Abs(*got-*tt.want) > 0.05 {
				t.Errorf("BMI() = %.1f, want %.1f", *got, *tt.want)
			}
		})
	}
}

// BMI must agree regardless of unit system for equivalent measurements.
func TestBMIUnitRoundTrip(t *testing.T) {
	pairs := []struct {
		heightCm, weightKg float64
	}{
		{160, 55},
		{175, 70},
		{182, 95},
		{199, 120},
	}

	for _, p := range pairs {
		metric := BMI(fptr(p.heightCm), fptr(p.weightKg), models.UnitsMetric)

		inches := p.heightCm / 2.54
		pounds := p.weightKg * 2.20462
		imperial := BMI(fptr(inches), fptr(pounds), models.UnitsImperial)

		if metric == nil || imperial == nil {
			t.Fatalf("nil BMI for %+v", p)
		}
		if math.Abs(*metric-*imperial) > 0.1 {
			t.Errorf("unit mismatch for %+v: metric %.1f, imperial %.1f", p, *metric, *imperial)
		}
	}
}

func TestUnitConversions(t *testing.T) {
	if got := InchesToCm(66); math.Abs(got-167.64) > 0.01 {
		t.Errorf("InchesToCm(66) = %.2f, want 167.64", got)
	}
	if got := PoundsToKg(158); math.Abs(got-71.67) > 0.01 {
		t.Errorf("PoundsToKg(158) = %.2f, want 71.67", got)
	}
	// Inverse of the factors the BMI round trip uses.
	if got := PoundsToKg(2.20462); math.Abs(got-1) > 1e-9 {
		t.Errorf("PoundsToKg(2.20462) = %v, want 1", got)
	}
}

func TestBMR(t *testing.T) {
	// Harris-Benedict, 30yo 70kg 175cm.
	male := BMR(30, models.SexMale, 70, 175)
	female := BMR(30, models.SexFemale, 70, 175)
	other := BMR(30, models.SexOther, 70, 175)

	if male <= female {
		t.Errorf("male BMR %.0f should exceed female %.0f at equal measurements", male, female)
	}
	if math.Abs(other-(male+female)/2) > 0.001 {
		t.Errorf("other BMR %.0f should be midpoint of %.0f and %.0f", other, male, female)
	}

	wantMale := 88.362 + 13.397*70 + 4.799*175 - 5.677*30
	if math.Abs(male-wantMale) > 0.001 {
		t.Errorf("male BMR = %.3f, want %.3f", male, wantMale)
	}
}

func TestTDEE(t *testing.T) {
	tests := []struct {
		level string
		mult  float64
	}{
		{models.ActivitySedentary, 1.2},
		{models.ActivityLightlyActive, 1.375},
		{models.ActivityModeratelyActive, 1.55},
		{models.ActivityVeryActive, 1.725},
		{models.ActivityExtremelyActive, 1.9},
		{"couch-potato", 1.55}, // unrecognized falls back
	}

	const bmr = 1600.0
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := TDEE(bmr, tt.level); math.Abs(got-bmr*tt.mult) > 0.001 {
				t.Errorf("TDEE(%s) = %.1f, want %.1f", tt.level, got, bmr*tt.mult)
			}
		})
	}
}

func TestFitnessLevel(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		steps     *float64
		hrv       *float64
		wantLevel string
	}{
		{"sedentary no data", models.ActivitySedentary, nil, nil, models.FitnessBeginner},
		{"all factors high", models.ActivityExtremelyActive, fptr(13000), fptr(70), models.FitnessAdvanced},
		{"moderate with good steps", models.ActivityModeratelyActive, fptr(9000), nil, models.FitnessIntermediate},
		{"missing factors omitted not zeroed", models.ActivityVeryActive, nil, nil, models.FitnessIntermediate},
		{"unknown level no data", "unknown", nil, nil, models.FitnessBeginner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, level := FitnessLevel(tt.level, tt.steps, tt.hrv)
			if level != tt.wantLevel {
				t.Errorf("FitnessLevel() = %q (score %.2f), want %q", level, score, tt.wantLevel)
			}
		})
	}
}

// A factor with no data must not drag the average toward zero.
func TestFitnessLevelOmitsMissingFactors(t *testing.T) {
	withAll, _ := FitnessLevel(models.ActivityVeryActive, fptr(500), fptr(10))
	onlyActivity, _ := FitnessLevel(models.ActivityVeryActive, nil, nil)

	if onlyActivity != 4.0 {
		t.Errorf("single-factor score = %.2f, want 4.0", onlyActivity)
	}
	if withAll >= onlyActivity {
		t.Errorf("low extra factors should lower the score: %.2f >= %.2f", withAll, onlyActivity)
	}
}
