// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

package health

import "github.com/vitalcoach/vitalcoach/internal/models"

// sleepTargetHours is the sufficiency target used by the sleep score.
const sleepTargetHours = 7.0

// SleepQualityScore derives a 0-100 score from the sleep readings in a
// biometric window: 60% duration sufficiency (share of nights meeting
// the 7h target) and 40% average subjective quality. Returns nil when
// the window contains no sleep readings.
func SleepQualityScore(samples []models.BiometricSample) *float64 {
	var nights, meetingTarget int
	var qualitySum float64
	var qualityCount int

	for _, s := range samples {
		if s.Sleep == nil || s.Sleep.DurationHours <= 0 {
			continue
		}
		nights++
		if s.Sleep.DurationHours >= sleepTargetHours {
			meetingTarget++
		}
		if s.Sleep.Quality > 0 {
			qualitySum += float64(s.Sleep.Quality)
			qualityCount++
		}
	}

	if nights == 0 {
		return nil
	}

	sufficiency := float64(meetingTarget) / float64(nights) * 100

	// Without quality ratings, sufficiency carries the whole score.
	score := sufficiency
	if qualityCount > 0 {
		avgQuality := qualitySum / float64(qualityCount) * 10 // 1-10 -> 0-100
		score = 0.6*sufficiency + 0.4*avgQuality
	}

	score = clamp(score, 0, 100)
	return &score
}

// StressScore derives a 0-100 score (higher is calmer) from 1-10 stress
// level readings. Returns nil when the window has no stress readings.
func StressScore(samples []models.BiometricSample) *float64 {
	var sum float64
	var n int
	for _, s := range samples {
		if s.Stress == nil || s.Stress.Level <= 0 {
			continue
		}
		sum += float64(s.Stress.Level)
		n++
	}
	if n == 0 {
		return nil
	}
	score := clamp(100-(sum/float64(n))*10, 0, 100)
	return &score
}

// Summarize aggregates a biometric window into the averages used for
// prompts and similarity lookups.
func Summarize(samples []models.BiometricSample) models.ActivitySummary {
	var steps, sleep, hrv, stress float64
	var stepN, sleepN, hrvN, stressN int

	for _, s := range samples {
		if s.Activity != nil && s.Activity.Steps > 0 {
			steps += float64(s.Activity.Steps)
			stepN++
		}
		if s.Sleep != nil && s.Sleep.DurationHours > 0 {
			sleep += s.Sleep.DurationHours
			sleepN++
		}
		if s.Vitals != nil && s.Vitals.HRVMs > 0 {
			hrv += s.Vitals.HRVMs
			hrvN++
		}
		if s.Stress != nil && s.Stress.Level > 0 {
			stress += float64(s.Stress.Level)
			stressN++
		}
	}

	out := models.ActivitySummary{SampleCount: len(samples)}
	if stepN > 0 {
		out.AvgDailySteps = steps / float64(stepN)
	}
	if sleepN > 0 {
		out.AvgSleepHours = sleep / float64(sleepN)
	}
	if hrvN > 0 {
		out.AvgHRVMs = hrv / float64(hrvN)
	}
	if stressN > 0 {
		out.AvgStress = stress / float64(stressN)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
