// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/vitalcoach/vitalcoach/internal/models"
)

// Category identifies a recommendation category.
type Category int

// Recommendation categories. CategoryAll expands to every concrete
// category in one bundle.
const (
	CategoryAll Category = iota
	CategoryWorkout
	CategoryNutrition
	CategoryMindfulness
	CategoryGoals
)

// String returns the wire name of the category.
func (c Category) String() string {
	switch c {
	case CategoryAll:
		return "all"
	case CategoryWorkout:
		return "workout"
	case CategoryNutrition:
		return "nutrition"
	case CategoryMindfulness:
		return "mindfulness"
	case CategoryGoals:
		return "goals"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// ParseCategory converts a wire name to a Category.
func ParseCategory(s string) (Category, error) {
	switch s {
	case "", "all":
		return CategoryAll, nil
	case "workout":
		return CategoryWorkout, nil
	case "nutrition":
		return CategoryNutrition, nil
	case "mindfulness":
		return CategoryMindfulness, nil
	case "goals":
		return CategoryGoals, nil
	default:
		return CategoryAll, fmt.Errorf("unknown category %q", s)
	}
}

// ConcreteCategories lists the categories CategoryAll expands to, in
// bundle order.
func ConcreteCategories() []Category {
	return []Category{CategoryWorkout, CategoryNutrition, CategoryMindfulness, CategoryGoals}
}

// Source names as they appear in Candidate.Source and the weight map.
const (
	SourceSimilarity = "similarity"
	SourceRule       = "rule"
	SourceGenerative = "generative"
)

// WorkoutDetail is the payload of a workout candidate.
type WorkoutDetail struct {
	Type            string `json:"type"`
	DurationMinutes int    `json:"duration_minutes"`
	Intensity       string `json:"intensity"`
}

// NutritionDetail is the payload of a nutrition candidate.
type NutritionDetail struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

// MindfulnessDetail is the payload of a mindfulness candidate.
type MindfulnessDetail struct {
	Technique       string `json:"technique"`
	DurationMinutes int    `json:"duration_minutes"`
}

// GoalDetail is the payload of a goal-adjustment candidate.
type GoalDetail struct {
	Metric     string `json:"metric"`
	Suggestion string `json:"suggestion"`
}

// Candidate is one recommendation item produced by a source. Ephemeral:
// produced and consumed within one blend pass, then carried in the
// bundle with its final fused score.
type Candidate struct {
	Source   string   `json:"source"`
	Category Category `json:"-"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Reason      string `json:"reason,omitempty"`

	// Score is the source's intrinsic score in (0, 1]. Zero means the
	// source does not rank independently and is treated as 1.0.
	Score float64 `json:"score"`

	// FinalScore is sourceWeight x intrinsic, set by the blender.
	FinalScore float64 `json:"final_score"`

	Workout     *WorkoutDetail     `json:"workout,omitempty"`
	Nutrition   *NutritionDetail   `json:"nutrition,omitempty"`
	Mindfulness *MindfulnessDetail `json:"mindfulness,omitempty"`
	Goal        *GoalDetail        `json:"goal,omitempty"`
}

// Bundle is the final ranked output for a user. Immutable once
// produced: refresh builds a new bundle, never mutates in place.
type Bundle struct {
	UserID string `json:"user_id"`

	// Categories maps category wire name to its ranked candidates.
	Categories map[string][]Candidate `json:"categories"`

	// Reasoning carries a per-category explanation when a category
	// came back empty.
	Reasoning map[string]string `json:"reasoning,omitempty"`

	// Fallbacks records sources that contributed zero candidates due
	// to failure, timeout, or deliberate substitution.
	Fallbacks []string `json:"fallbacks,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
	Cached      bool      `json:"cached"`
	LatencyMS   int64     `json:"latency_ms"`
}

// Options tunes a single recommendation request.
type Options struct {
	// Count caps candidates per category. Zero uses the per-category
	// default.
	Count int

	// ForceRefresh bypasses both the recommendation cache and the
	// profile cache.
	ForceRefresh bool

	// DisableGenerative skips the generative source for this request,
	// e.g. when the user opted out.
	DisableGenerative bool
}

// Source produces candidates for one category from a built profile.
// Implementations are read-only and safe to run concurrently; a failed
// source returns an error and contributes nothing to the blend.
type Source interface {
	Name() string
	Generate(ctx context.Context, category Category, p *models.UserProfile, opts Options) ([]Candidate, error)
}
