// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

package sources

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vitalcoach/vitalcoach/internal/models"
	"github.com/vitalcoach/vitalcoach/internal/recommend"
)

// PeerIndex looks up recommendations popular among users whose
// profiles resemble the subject's. Abstractly a k-nearest-profile
// lookup; the in-memory implementation buckets by fitness level and
// goal.
type PeerIndex interface {
	Lookup(ctx context.Context, fitnessLevel string, goals []string, category recommend.Category) ([]recommend.Candidate, error)
}

// Similarity produces candidates from peers with comparable profiles.
type Similarity struct {
	index PeerIndex
}

// NewSimilarity creates the similarity source over the given index.
func NewSimilarity(index PeerIndex) *Similarity {
	return &Similarity{index: index}
}

// Name implements recommend.Source.
func (s *Similarity) Name() string { return recommend.SourceSimilarity }

// Generate implements recommend.Source.
func (s *Similarity) Generate(ctx context.Context, category recommend.Category, p *models.UserProfile, _ recommend.Options) ([]recommend.Candidate, error) {
	if s.index == nil {
		return nil, fmt.Errorf("peer index not configured")
	}

	candidates, err := s.index.Lookup(ctx, p.FitnessLevel, p.Goals, category)
	if err != nil {
		return nil, fmt.Errorf("peer lookup: %w", err)
	}

	for i := range candidates {
		candidates[i].Source = recommend.SourceSimilarity
		candidates[i].Category = category
		if candidates[i].Reason == "" {
			candidates[i].Reason = "popular among users with a similar profile"
		}
	}
	return candidates, nil
}

// cohortKey buckets peers by fitness level and goal.
type cohortKey struct {
	fitnessLevel string
	goal         string
	category     recommend.Category
}

// cohortEntry is one item with its peer adoption rate.
type cohortEntry struct {
	candidate recommend.Candidate
	adoption  float64
}

// MemoryPeerIndex is an in-memory cohort index. Entries are scored by
// peer adoption rate within the cohort. Safe for concurrent use.
type MemoryPeerIndex struct {
	mu      sync.RWMutex
	cohorts map[cohortKey][]cohortEntry
}

// NewMemoryPeerIndex creates an empty index.
func NewMemoryPeerIndex() *MemoryPeerIndex {
	return &MemoryPeerIndex{cohorts: make(map[cohortKey][]cohortEntry)}
}

// Add records a candidate for a cohort with its adoption rate in
// (0, 1].
func (m *MemoryPeerIndex) Add(fitnessLevel, goal string, category recommend.Category, c recommend.Candidate, adoption float64) {
	key := cohortKey{fitnessLevel: fitnessLevel, goal: goal, category: category}
	m.mu.Lock()
	m.cohorts[key] = append(m.cohorts[key], cohortEntry{candidate: c, adoption: adoption})
	m.mu.Unlock()
}

// Lookup implements PeerIndex. Candidates from all matching cohorts are
// merged, deduplicated by title keeping the highest adoption, and
// returned ordered by adoption descending with the adoption rate as the
// intrinsic score.
func (m *MemoryPeerIndex) Lookup(ctx context.Context, fitnessLevel string, goals []string, category recommend.Category) ([]recommend.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	best := make(map[string]cohortEntry)
	for _, goal := range goals {
		key := cohortKey{fitnessLevel: fitnessLevel, goal: goal, category: category}
		for _, entry := range m.cohorts[key] {
			if prev, ok := best[entry.candidate.Title]; !ok || entry.adoption > prev.adoption {
				best[entry.candidate.Title] = entry
			}
		}
	}
	m.mu.RUnlock()

	merged := make([]cohortEntry, 0, len(best))
	for _, entry := range best {
		merged = append(merged, entry)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].adoption != merged[j].adoption {
			return merged[i].adoption > merged[j].adoption
		}
		return merged[i].candidate.Title < merged[j].candidate.Title
	})

	out := make([]recommend.Candidate, 0, len(merged))
	for _, entry := range merged {
		c := entry.candidate
		c.Score = entry.adoption
		out = append(out, c)
	}
	return out, nil
}

// SeedDefaultCohorts populates the index with the curated cohort
// dataset shipped with the engine. Real deployments replace this with
// aggregated usage data.
func SeedDefaultCohorts(idx *MemoryPeerIndex) {
	type seed struct {
		level    string
		goal     string
		category recommend.Category
		c        recommend.Candidate
		adoption float64
	}

	seeds := []seed{
		{models.FitnessBeginner, models.GoalWeightLoss, recommend.CategoryWorkout,
			recommend.Candidate{Title: "Daily brisk walking", Description: "30 minute brisk walk, five days a week.",
				Workout: &recommend.WorkoutDetail{Type: "walking", DurationMinutes: 30, Intensity: "low"}}, 0.82},
		{models.FitnessBeginner, models.GoalWeightLoss, recommend.CategoryWorkout,
			recommend.Candidate{Title: "Beginner circuit", Description: "Bodyweight circuit with generous rest.",
				Workout: &recommend.WorkoutDetail{Type: "circuit", DurationMinutes: 20, Intensity: "low"}}, 0.61},
		{models.FitnessIntermediate, models.GoalWeightLoss, recommend.CategoryWorkout,
			recommend.Candidate{Title: "Interval running", Description: "Alternating run/walk intervals.",
				Workout: &recommend.WorkoutDetail{Type: "running", DurationMinutes: 35, Intensity: "moderate"}}, 0.74},
		{models.FitnessIntermediate, models.GoalMuscleGain, recommend.CategoryWorkout,
			recommend.Candidate{Title: "Upper/lower split", Description: "Four day upper/lower strength split.",
				Workout: &recommend.WorkoutDetail{Type: "strength", DurationMinutes: 50, Intensity: "moderate"}}, 0.79},
		{models.FitnessAdvanced, models.GoalEndurance, recommend.CategoryWorkout,
			recommend.Candidate{Title: "Tempo run block", Description: "Weekly tempo run with long-run progression.",
				Workout: &recommend.WorkoutDetail{Type: "running", DurationMinutes: 60, Intensity: "high"}}, 0.71},
		{models.FitnessBeginner, models.GoalStressReduction, recommend.CategoryMindfulness,
			recommend.Candidate{Title: "Guided body scan", Description: "Evening guided body scan recording.",
				Mindfulness: &recommend.MindfulnessDetail{Technique: "body-scan", DurationMinutes: 10}}, 0.68},
		{models.FitnessIntermediate, models.GoalBetterSleep, recommend.CategoryMindfulness,
			recommend.Candidate{Title: "Wind-down breathing", Description: "4-7-8 breathing before bed.",
				Mindfulness: &recommend.MindfulnessDetail{Technique: "breathing", DurationMinutes: 5}}, 0.64},
		{models.FitnessBeginner, models.GoalWeightLoss, recommend.CategoryNutrition,
			recommend.Candidate{Title: "Meal-prep Sundays", Description: "Batch-cook lunches to avoid takeout."}, 0.57},
		{models.FitnessBeginner, models.GoalWeightLoss, recommend.CategoryGoals,
			recommend.Candidate{Title: "Step goal ramp", Description: "Raise the daily step goal by 500 every two weeks.",
				Goal: &recommend.GoalDetail{Metric: "steps", Suggestion: "increase by 500 every two weeks"}}, 0.66},
	}

	for _, s := range seeds {
		idx.Add(s.level, s.goal, s.category, s.c, s.adoption)
	}
}
