// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

package sources

import (
	"context"
	"testing"

	"github.com/vitalcoach/vitalcoach/internal/models"
	"github.com/vitalcoach/vitalcoach/internal/recommend"
)

func beginnerProfile() *models.UserProfile {
	return &models.UserProfile{
		UserID:       "u1",
		FitnessLevel: models.FitnessBeginner,
		Goals:        []string{models.GoalWeightLoss},
	}
}

func TestSimilarityLooksUpCohort(t *testing.T) {
	idx := NewMemoryPeerIndex()
	SeedDefaultCohorts(idx)
	src := NewSimilarity(idx)

	got, err := src.Generate(context.Background(), recommend.CategoryWorkout, beginnerProfile(), recommend.Options{})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("no candidates for a seeded cohort")
	}
	for _, c := range got {
		if c.Source != recommend.SourceSimilarity {
			t.Errorf("source = %q", c.Source)
		}
		if c.Score <= 0 || c.Score > 1 {
			t.Errorf("intrinsic score %f out of (0,1]", c.Score)
		}
	}
	// Highest adoption first.
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("candidates not ordered by adoption: %f after %f", got[i].Score, got[i-1].Score)
		}
	}
}

func TestSimilarityUnknownCohortIsEmpty(t *testing.T) {
	idx := NewMemoryPeerIndex()
	src := NewSimilarity(idx)

	got, err := src.Generate(context.Background(), recommend.CategoryWorkout, beginnerProfile(), recommend.Options{})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d candidates from an empty index", len(got))
	}
}

func TestSimilarityDeduplicatesAcrossGoals(t *testing.T) {
	idx := NewMemoryPeerIndex()
	c := recommend.Candidate{Title: "Daily walk"}
	idx.Add(models.FitnessBeginner, models.GoalWeightLoss, recommend.CategoryWorkout, c, 0.5)
	idx.Add(models.FitnessBeginner, models.GoalGeneralFitness, recommend.CategoryWorkout, c, 0.8)

	p := beginnerProfile()
	p.Goals = []string{models.GoalWeightLoss, models.GoalGeneralFitness}

	got, err := NewSimilarity(idx).Generate(context.Background(), recommend.CategoryWorkout, p, recommend.Options{})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1 after dedup", len(got))
	}
	if got[0].Score != 0.8 {
		t.Errorf("score = %f, want the higher adoption 0.8", got[0].Score)
	}
}

func TestSimilarityNilIndexFails(t *testing.T) {
	src := NewSimilarity(nil)
	if _, err := src.Generate(context.Background(), recommend.CategoryWorkout, beginnerProfile(), recommend.Options{}); err == nil {
		t.Fatal("expected error without an index")
	}
}

func TestSimilarityHonorsContextCancellation(t *testing.T) {
	idx := NewMemoryPeerIndex()
	SeedDefaultCohorts(idx)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewSimilarity(idx).Generate(ctx, recommend.CategoryWorkout, beginnerProfile(), recommend.Options{}); err == nil {
		t.Fatal("expected error from canceled context")
	}
}
