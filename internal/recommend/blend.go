// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

package recommend

import (
	"fmt"
	"math"
	"sort"

	"github.com/vitalcoach/vitalcoach/internal/models"
)

// sourcePriority orders tie-breaking between equally scored candidates.
// Lower wins.
var sourcePriority = map[string]int{
	SourceSimilarity: 0,
	SourceRule:       1,
	SourceGenerative: 2,
}

// Macro split of the deterministic nutrition fallback, as fractions of
// total calories.
const (
	fallbackProteinShare = 0.25
	fallbackCarbsShare   = 0.45
	fallbackFatShare     = 0.30

	caloriesPerGramProtein = 4.0
	caloriesPerGramCarbs   = 4.0
	caloriesPerGramFat     = 9.0
)

// Goal-driven calorie adjustments applied to TDEE by the nutrition
// fallback.
const (
	weightLossDeficit = 500.0
	muscleGainSurplus = 300.0
)

// blend fuses per-source candidate lists into one ranked list. Lists
// must be passed in source priority order so insertion order survives
// the stable sort. Each candidate's final score is sourceWeight x
// intrinsic, with intrinsic defaulting to 1.0 when the source does not
// rank independently. Ties fall to source priority, then insertion
// order.
func blend(lists [][]Candidate, weights map[string]float64, count int) []Candidate {
	var merged []Candidate
	for _, list := range lists {
		merged = append(merged, list...)
	}

	for i := range merged {
		intrinsic := merged[i].Score
		if intrinsic <= 0 {
			intrinsic = 1.0
		}
		merged[i].FinalScore = weights[merged[i].Source] * intrinsic
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].FinalScore != merged[j].FinalScore {
			return merged[i].FinalScore > merged[j].FinalScore
		}
		return sourcePriority[merged[i].Source] < sourcePriority[merged[j].Source]
	})

	if len(merged) > count {
		merged = merged[:count]
	}
	return merged
}

// nutritionFallback builds the deterministic nutrition candidate used
// when the generative source contributes nothing: daily calories from
// TDEE adjusted for the primary goal, split 25/45/30 across protein,
// carbs, and fat.
func nutritionFallback(p *models.UserProfile) Candidate {
	calories := p.TDEE
	reason := "daily target derived from estimated energy expenditure"

	switch {
	case p.HasGoal(models.GoalWeightLoss):
		calories -= weightLossDeficit
		reason = "daily target set 500 kcal below expenditure for gradual weight loss"
	case p.HasGoal(models.GoalMuscleGain):
		calories += muscleGainSurplus
		reason = "daily target set 300 kcal above expenditure to support muscle gain"
	}
	calories = math.Max(calories, 1200) // floor against aggressive deficits

	return Candidate{
		Source:      SourceRule,
		Category:    CategoryNutrition,
		Title:       "Daily nutrition targets",
		Description: fmt.Sprintf("Aim for about %.0f kcal per day with a balanced macro split.", calories),
		Reason:      reason,
		Nutrition: &NutritionDetail{
			Calories: math.Round(calories),
			ProteinG: math.Round(calories * fallbackProteinShare / caloriesPerGramProtein),
			CarbsG:   math.Round(calories * fallbackCarbsShare / caloriesPerGramCarbs),
			FatG:     math.Round(calories * fallbackFatShare / caloriesPerGramFat),
		},
	}
}
