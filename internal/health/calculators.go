// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

package health

import (
	"math"
	"time"

	"github.com/vitalcoach/vitalcoach/internal/models"
)

// Reference constants applied when a user has no recorded measurements.
// The resulting BMR is a documented approximation, not a measurement;
// the profile builder records a degradation note when these are used.
const (
	DefaultHeightCm = 170.0
	DefaultWeightKg = 70.0
)

// Unit conversion factors for imperial records.
const (
	cmPerInch = 2.54
	lbsPerKg  = 2.20462
)

// InchesToCm converts a declared imperial height to centimeters.
func InchesToCm(inches float64) float64 { return inches * cmPerInch }

// PoundsToKg converts a declared imperial weight to kilograms.
func PoundsToKg(pounds float64) float64 { return pounds / lbsPerKg }

// activityMultipliers maps activity levels to their TDEE multiplier.
// Single source of truth: also consulted for the activity rank used in
// the fitness score.
var activityMultipliers = map[string]float64{
	models.ActivitySedentary:        1.2,
	models.ActivityLightlyActive:    1.375,
	models.ActivityModeratelyActive: 1.55,
	models.ActivityVeryActive:       1.725,
	models.ActivityExtremelyActive:  1.9,
}

// activityRanks maps activity levels to the 1-5 rank used as a fitness
// score factor.
var activityRanks = map[string]float64{
	models.ActivitySedentary:        1,
	models.ActivityLightlyActive:    2,
	models.ActivityModeratelyActive: 3,
	models.ActivityVeryActive:       4,
	models.ActivityExtremelyActive:  5,
}

// Age returns whole years between birthDate and asOf, floor-adjusted
// when the birthday has not yet occurred in the asOf year. Returns 0
// for a zero or future birth date.
func Age(birthDate, asOf time.Time) int {
	if birthDate.IsZero() || birthDate.After(asOf) {
		return 0
	}
	years := asOf.Year() - birthDate.Year()
	if asOf.Before(birthDate.AddDate(years, 0, 0)) {
		years--
	}
	return years
}

// BMI computes body mass index from height and weight, converting
// imperial inputs (inches, pounds) to metric first. The result is
// rounded to one decimal. Returns nil when either measurement is
// absent or non-positive; it never fails.
func BMI(height, weight *float64, units models.UnitSystem) *float64 {
	if height == nil || weight == nil || *height <= 0 || *weight <= 0 {
		return nil
	}

	heightCm := *height
	weightKg := *weight
	if units == models.UnitsImperial {
		heightCm *= cmPerInch
		weightKg /= lbsPerKg
	}

	heightM := heightCm / 100.0
	bmi := math.Round(weightKg/(heightM*heightM)*10) / 10
	return &bmi
}

// BMR estimates basal metabolic rate (kcal/day) using the
// Harris-Benedict equations, branching on declared sex. Sex "other" or
// unknown uses the midpoint of the male and female estimates. Callers
// pass DefaultHeightCm/DefaultWeightKg when measurements are missing.
func BMR(age int, sex models.Sex, weightKg, heightCm float64) float64 {
	male := 88.362 + 13.397*weightKg + 4.799*heightCm - 5.677*float64(age)
	female := 447.593 + 9.247*weightKg + 3.098*heightCm - 4.330*float64(age)

	switch sex {
	case models.SexMale:
		return male
	case models.SexFemale:
		return female
	default:
		return (male + female) / 2
	}
}

// TDEE scales a basal rate by the activity multiplier. Unrecognized
// activity levels use the moderately-active multiplier (1.55).
func TDEE(bmr float64, activityLevel string) float64 {
	mult, ok := activityMultipliers[activityLevel]
	if !ok {
		mult = activityMultipliers[models.ActivityModeratelyActive]
	}
	return bmr * mult
}

// FitnessLevel derives a 1-5 fitness score and its ordinal level from
// up to three normalized factors: declared activity rank, recent daily
// step volume, and heart-rate variability. Factors with no data are
// omitted from the average rather than defaulted to zero, so a user
// with only a declared activity level is scored on that alone.
func FitnessLevel(activityLevel string, avgDailySteps, hrvMs *float64) (float64, string) {
	var sum float64
	var n int

	if rank, ok := activityRanks[activityLevel]; ok {
		sum += rank
		n++
	}
	if avgDailySteps != nil && *avgDailySteps > 0 {
		sum += stepBucket(*avgDailySteps)
		n++
	}
	if hrvMs != nil && *hrvMs > 0 {
		sum += hrvBucket(*hrvMs)
		n++
	}

	if n == 0 {
		return 1, models.FitnessBeginner
	}

	score := sum / float64(n)
	return score, fitnessLevelFor(score)
}

// fitnessLevelFor maps a 1-5 score to its ordinal level.
func fitnessLevelFor(score float64) string {
	switch {
	case score >= 4.5:
		return models.FitnessAdvanced
	case score >= 3.5:
		return models.FitnessIntermediate
	case score >= 2.5:
		return models.FitnessBeginnerPlus
	default:
		return models.FitnessBeginner
	}
}

// stepBucket maps average daily steps to a 1-5 rank.
func stepBucket(steps float64) float64 {
	switch {
	case steps >= 12000:
		return 5
	case steps >= 8000:
		return 4
	case steps >= 5000:
		return 3
	case steps >= 2000:
		return 2
	default:
		return 1
	}
}

// hrvBucket maps RMSSD heart-rate variability (ms) to a 1-5 rank.
// Bucket edges follow common wearable recovery bands.
func hrvBucket(hrv float64) float64 {
	switch {
	case hrv >= 65:
		return 5
	case hrv >= 50:
		return 4
	case hrv >= 35:
		return 3
	case hrv >= 20:
		return 2
	default:
		return 1
	}
}
