// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

package sources

import (
	"context"
	"strings"

	"github.com/vitalcoach/vitalcoach/internal/models"
	"github.com/vitalcoach/vitalcoach/internal/recommend"
)

// preferredTypeBoost is the intrinsic score given to workout candidates
// whose type matches a preferred workout type, against the 1.0 default
// the blender assumes for unscored candidates.
const preferredTypeBoost = 1.25

// Rule maps profile attributes to curated candidate tables by direct
// attribute matching. Stateless and deterministic.
type Rule struct{}

// NewRule creates the rule source.
func NewRule() *Rule { return &Rule{} }

// Name implements recommend.Source.
func (r *Rule) Name() string { return recommend.SourceRule }

// Generate implements recommend.Source.
func (r *Rule) Generate(ctx context.Context, category recommend.Category, p *models.UserProfile, _ recommend.Options) ([]recommend.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []recommend.Candidate
	switch category {
	case recommend.CategoryWorkout:
		out = workoutRules(p)
	case recommend.CategoryNutrition:
		out = nutritionRules(p)
	case recommend.CategoryMindfulness:
		out = mindfulnessRules(p)
	case recommend.CategoryGoals:
		out = goalRules(p)
	}

	out = filterByConstraints(out, p)
	for i := range out {
		out[i].Source = recommend.SourceRule
		out[i].Category = category
	}
	return out, nil
}

// workoutRules selects workouts by goal and fitness level, respecting
// the user's workout duration cap.
func workoutRules(p *models.UserProfile) []recommend.Candidate {
	var out []recommend.Candidate
	lowImpact := hasCondition(p, "joint") || hasCondition(p, "arthritis")

	if p.HasGoal(models.GoalWeightLoss) {
		if lowImpact || p.FitnessLevel == models.FitnessBeginner {
			out = append(out, recommend.Candidate{
				Title:       "Low-impact cardio",
				Description: "Swimming, cycling, or brisk walking for steady calorie burn.",
				Reason:      "matches a weight-loss goal without joint strain",
				Workout:     &recommend.WorkoutDetail{Type: "cardio", DurationMinutes: 30, Intensity: "low"},
			})
		} else {
			out = append(out, recommend.Candidate{
				Title:       "Interval cardio",
				Description: "Alternate two minutes hard, two minutes easy.",
				Reason:      "intervals raise total burn for a weight-loss goal",
				Workout:     &recommend.WorkoutDetail{Type: "intervals", DurationMinutes: 30, Intensity: "moderate"},
			})
		}
	}
	if p.HasGoal(models.GoalMuscleGain) {
		out = append(out, recommend.Candidate{
			Title:       "Progressive strength training",
			Description: "Compound lifts three times a week with progressive overload.",
			Reason:      "resistance volume drives the muscle-gain goal",
			Workout:     &recommend.WorkoutDetail{Type: "strength", DurationMinutes: 45, Intensity: "moderate"},
		})
	}
	if p.HasGoal(models.GoalEndurance) {
		out = append(out, recommend.Candidate{
			Title:       "Long steady-state sessions",
			Description: "One weekly long session at conversational pace.",
			Reason:      "aerobic base work underpins the endurance goal",
			Workout:     &recommend.WorkoutDetail{Type: "endurance", DurationMinutes: 60, Intensity: "moderate"},
		})
	}
	if len(out) == 0 {
		out = append(out, recommend.Candidate{
			Title:       "General fitness mix",
			Description: "Two cardio and two strength sessions a week.",
			Reason:      "balanced default for general fitness",
			Workout:     &recommend.WorkoutDetail{Type: "mixed", DurationMinutes: 30, Intensity: "moderate"},
		})
	}

	if limit := p.Preferences.MaxWorkoutMinutes; limit > 0 {
		kept := out[:0]
		for _, c := range out {
			if c.Workout == nil || c.Workout.DurationMinutes <= limit {
				kept = append(kept, c)
			}
		}
		out = kept
	}

	// Preferred workout types rank ahead of the rest of the table.
	for i := range out {
		if out[i].Workout != nil && prefersWorkoutType(p, out[i].Workout.Type) {
			out[i].Score = preferredTypeBoost
			out[i].Reason += "; matches a preferred workout type"
		}
	}
	return out
}

func prefersWorkoutType(p *models.UserProfile, workoutType string) bool {
	for _, t := range p.Preferences.PreferredWorkoutTypes {
		if strings.EqualFold(t, workoutType) {
			return true
		}
	}
	return false
}

// nutritionRules selects nutrition guidance by goal and restrictions.
func nutritionRules(p *models.UserProfile) []recommend.Candidate {
	var out []recommend.Candidate

	if p.HasGoal(models.GoalWeightLoss) {
		out = append(out, recommend.Candidate{
			Title:       "Protein-forward plates",
			Description: "Build each meal around a lean protein and vegetables.",
			Reason:      "protein preserves lean mass in a calorie deficit",
		})
	}
	if p.HasGoal(models.GoalMuscleGain) {
		out = append(out, recommend.Candidate{
			Title:       "Post-workout protein",
			Description: "20-40 g of protein within a couple hours of training.",
			Reason:      "supports recovery for the muscle-gain goal",
		})
	}
	if hasRestriction(p, "vegetarian") || hasRestriction(p, "vegan") {
		out = append(out, recommend.Candidate{
			Title:       "Plant protein rotation",
			Description: "Rotate legumes, tofu, and tempeh across the week.",
			Reason:      "keeps protein intake up within a plant-based diet",
		})
	}
	if p.SleepScore != nil && *p.SleepScore < 50 {
		out = append(out, recommend.Candidate{
			Title:       "Cut late caffeine",
			Description: "No caffeine after early afternoon.",
			Reason:      "recent sleep quality has been low",
		})
	}
	if len(out) == 0 {
		out = append(out, recommend.Candidate{
			Title:       "Half-plate vegetables",
			Description: "Fill half of each plate with vegetables or fruit.",
			Reason:      "simple baseline for balanced intake",
		})
	}
	return out
}

// mindfulnessRules selects practices by stress and sleep signals.
func mindfulnessRules(p *models.UserProfile) []recommend.Candidate {
	var out []recommend.Candidate

	stressed := p.StressScore != nil && *p.StressScore < 60
	if stressed || p.HasGoal(models.GoalStressReduction) {
		out = append(out,
			recommend.Candidate{
				Title:       "Box breathing breaks",
				Description: "Four-count box breathing, twice a day.",
				Reason:      "recent stress readings have been elevated",
				Mindfulness: &recommend.MindfulnessDetail{Technique: "breathing", DurationMinutes: 5},
			},
			recommend.Candidate{
				Title:       "Ten-minute guided meditation",
				Description: "Short guided session after lunch.",
				Reason:      "brief daily practice lowers baseline stress",
				Mindfulness: &recommend.MindfulnessDetail{Technique: "meditation", DurationMinutes: 10},
			})
	}
	if p.HasGoal(models.GoalBetterSleep) || (p.SleepScore != nil && *p.SleepScore < 60) {
		out = append(out, recommend.Candidate{
			Title:       "Screen-free wind-down",
			Description: "Thirty minutes without screens before bed.",
			Reason:      "supports the better-sleep goal",
			Mindfulness: &recommend.MindfulnessDetail{Technique: "wind-down", DurationMinutes: 30},
		})
	}
	if len(out) == 0 {
		out = append(out, recommend.Candidate{
			Title:       "Daily gratitude note",
			Description: "Write one line about the day each evening.",
			Reason:      "low-effort default mindfulness habit",
			Mindfulness: &recommend.MindfulnessDetail{Technique: "journaling", DurationMinutes: 3},
		})
	}
	return out
}

// goalRules proposes goal adjustments from observed trends.
func goalRules(p *models.UserProfile) []recommend.Candidate {
	var out []recommend.Candidate

	if t, ok := p.HealthTrends["steps"]; ok && t.Direction == models.TrendDecreasing {
		out = append(out, recommend.Candidate{
			Title:       "Rebuild the step habit",
			Description: "Set a reachable step goal slightly above the recent average.",
			Reason:      "step volume has been trending down",
			Goal:        &recommend.GoalDetail{Metric: "steps", Suggestion: "reset goal near the recent average, then ramp"},
		})
	}
	if t, ok := p.HealthTrends["weight"]; ok && t.Direction == models.TrendIncreasing && p.HasGoal(models.GoalWeightLoss) {
		out = append(out, recommend.Candidate{
			Title:       "Revisit the calorie target",
			Description: "Weight is trending up against a weight-loss goal.",
			Reason:      "weight trend opposes the declared goal",
			Goal:        &recommend.GoalDetail{Metric: "weight", Suggestion: "review intake or add one weekly session"},
		})
	}
	if t, ok := p.HealthTrends["sleep"]; ok && t.Direction == models.TrendDecreasing {
		out = append(out, recommend.Candidate{
			Title:       "Protect the sleep window",
			Description: "Sleep duration is trending down.",
			Reason:      "shrinking sleep undermines every other goal",
			Goal:        &recommend.GoalDetail{Metric: "sleep", Suggestion: "fix a consistent bedtime this week"},
		})
	}
	if len(out) == 0 {
		out = append(out, recommend.Candidate{
			Title:       "Hold the current goals",
			Description: "Recent data shows no trend that warrants a change.",
			Reason:      "no adverse trend detected",
			Goal:        &recommend.GoalDetail{Metric: "overall", Suggestion: "keep current targets"},
		})
	}
	return out
}

// filterByConstraints drops candidates that collide with declared
// allergies or health conditions mentioned in their text.
func filterByConstraints(candidates []recommend.Candidate, p *models.UserProfile) []recommend.Candidate {
	if len(p.Constraints.Allergies) == 0 && len(p.Constraints.HealthConditions) == 0 {
		return candidates
	}

	kept := candidates[:0]
	for _, c := range candidates {
		if mentionsAny(c, p.Constraints.Allergies) {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

func mentionsAny(c recommend.Candidate, terms []string) bool {
	text := strings.ToLower(c.Title + " " + c.Description)
	for _, t := range terms {
		if t != "" && strings.Contains(text, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

func hasRestriction(p *models.UserProfile, restriction string) bool {
	for _, r := range p.Constraints.DietaryRestrictions {
		if strings.EqualFold(r, restriction) {
			return true
		}
	}
	return false
}

func hasCondition(p *models.UserProfile, substr string) bool {
	for _, c := range p.Constraints.HealthConditions {
		if strings.Contains(strings.ToLower(c), substr) {
			return true
		}
	}
	return false
}
