// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

package health

import (
	"math"
	"sort"

	"github.com/vitalcoach/vitalcoach/internal/models"
)

// Metric families emitted by AggregateTrends.
const (
	TrendFamilyWeight = "weight"
	TrendFamilySteps  = "steps"
	TrendFamilySleep  = "sleep"
)

// minTrendPoints is the minimum chronological points a family needs
// before a trend is emitted. Below this the family is omitted entirely
// rather than reported stable, to avoid implying signal where none
// exists.
const minTrendPoints = 3

// slopeThreshold separates increasing/decreasing from stable.
const slopeThreshold = 0.1

// LinearTrend fits y = a + b*x over index positions by ordinary least
// squares and classifies the slope. Fewer than two points yields a
// stable zero trend. Strength is min(|b|*10, 5), clamped to [0, 5].
func LinearTrend(values []float64) models.TrendResult {
	n := len(values)
	if n < 2 {
		return models.TrendResult{Direction: models.TrendStable}
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return models.TrendResult{Direction: models.TrendStable}
	}
	slope := (fn*sumXY - sumX*sumY) / denom

	direction := models.TrendStable
	switch {
	case slope > slopeThreshold:
		direction = models.TrendIncreasing
	case slope < -slopeThreshold:
		direction = models.TrendDecreasing
	}

	return models.TrendResult{
		Direction: direction,
		Strength:  math.Min(math.Abs(slope)*10, 5),
		Slope:     slope,
	}
}

// AggregateTrends groups a biometric window by metric family (weight,
// steps, sleep duration), sorts each family chronologically, and emits
// a LinearTrend per family with at least minTrendPoints points.
// Families below the threshold are absent from the result map.
func AggregateTrends(samples []models.BiometricSample) map[string]models.TrendResult {
	sorted := make([]models.BiometricSample, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].RecordedAt.Before(sorted[j].RecordedAt)
	})

	var weight, steps, sleep []float64
	for _, s := range sorted {
		if s.Body != nil && s.Body.WeightKg > 0 {
			weight = append(weight, s.Body.WeightKg)
		}
		if s.Activity != nil && s.Activity.Steps > 0 {
			steps = append(steps, float64(s.Activity.Steps))
		}
		if s.Sleep != nil && s.Sleep.DurationHours > 0 {
			sleep = append(sleep, s.Sleep.DurationHours)
		}
	}

	trends := make(map[string]models.TrendResult)
	if len(weight) >= minTrendPoints {
		trends[TrendFamilyWeight] = LinearTrend(weight)
	}
	if len(steps) >= minTrendPoints {
		trends[TrendFamilySteps] = LinearTrend(steps)
	}
	if len(sleep) >= minTrendPoints {
		trends[TrendFamilySleep] = LinearTrend(sleep)
	}
	return trends
}
