// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

package sources

import (
	"context"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/go-playground/validator/v10"

	"github.com/vitalcoach/vitalcoach/internal/genai"
	"github.com/vitalcoach/vitalcoach/internal/models"
	"github.com/vitalcoach/vitalcoach/internal/recommend"
)

// maxGenerativeItems caps how many items one completion may contribute.
const maxGenerativeItems = 10

const systemPrompt = `You are a cautious health coach. Respond with JSON only, no prose,
matching exactly: {"items":[{"title":"...","description":"...","reason":"..."}]}.
Titles under 60 characters. Never give medical diagnoses or medication advice.`

// Generative delegates a bounded profile summary to the completion
// service and strictly validates the structured response. Parse or
// schema failure is a normal unavailability outcome for this source,
// never a request failure.
type Generative struct {
	completer genai.Completer
	validate  *validator.Validate
}

// NewGenerative creates the generative source. completer may be nil
// when the provider is unconfigured; the source then always reports
// unavailability.
func NewGenerative(completer genai.Completer) *Generative {
	return &Generative{
		completer: completer,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Name implements recommend.Source.
func (g *Generative) Name() string { return recommend.SourceGenerative }

// generativeItem is the strict schema one completion item must satisfy.
type generativeItem struct {
	Title       string `json:"title" validate:"required,max=120"`
	Description string `json:"description" validate:"required,max=600"`
	Reason      string `json:"reason" validate:"omitempty,max=300"`

	DurationMinutes int     `json:"duration_minutes" validate:"omitempty,gte=1,lte=240"`
	Intensity       string  `json:"intensity" validate:"omitempty,oneof=low moderate high"`
	Technique       string  `json:"technique" validate:"omitempty,max=60"`
	Calories        float64 `json:"calories" validate:"omitempty,gte=0,lte=6000"`
	ProteinG        float64 `json:"protein_g" validate:"omitempty,gte=0,lte=500"`
	CarbsG          float64 `json:"carbs_g" validate:"omitempty,gte=0,lte=1000"`
	FatG            float64 `json:"fat_g" validate:"omitempty,gte=0,lte=400"`
	Metric          string  `json:"metric" validate:"omitempty,max=40"`
	Suggestion      string  `json:"suggestion" validate:"omitempty,max=300"`
}

type generativeResponse struct {
	Items []generativeItem `json:"items" validate:"required,min=1,dive"`
}

// Generate implements recommend.Source.
func (g *Generative) Generate(ctx context.Context, category recommend.Category, p *models.UserProfile, _ recommend.Options) ([]recommend.Candidate, error) {
	if g.completer == nil {
		return nil, fmt.Errorf("completion service not configured")
	}

	raw, err := g.completer.Complete(ctx, systemPrompt, userPromptFor(category, p), genai.Options{
		Temperature: 0.6,
		MaxTokens:   1024,
	})
	if err != nil {
		return nil, fmt.Errorf("complete: %w", err)
	}

	items, err := g.parseResponse(raw)
	if err != nil {
		// Any schema violation is full unavailability for this source.
		return nil, fmt.Errorf("response rejected: %w", err)
	}

	out := make([]recommend.Candidate, 0, len(items))
	for _, item := range items {
		out = append(out, item.toCandidate(category))
	}
	return out, nil
}

// parseResponse decodes and validates the completion text. The
// provider returns free-form text expected to be JSON; a fenced code
// block wrapper is tolerated, nothing else.
func (g *Generative) parseResponse(raw string) ([]generativeItem, error) {
	cleaned := stripCodeFence(strings.TrimSpace(raw))

	var resp generativeResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := g.validate.Struct(&resp); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	if len(resp.Items) > maxGenerativeItems {
		resp.Items = resp.Items[:maxGenerativeItems]
	}
	return resp.Items, nil
}

func (it generativeItem) toCandidate(category recommend.Category) recommend.Candidate {
	c := recommend.Candidate{
		Source:      recommend.SourceGenerative,
		Category:    category,
		Title:       it.Title,
		Description: it.Description,
		Reason:      it.Reason,
	}

	switch category {
	case recommend.CategoryWorkout:
		if it.DurationMinutes > 0 || it.Intensity != "" {
			c.Workout = &recommend.WorkoutDetail{
				Type:            it.Technique,
				DurationMinutes: it.DurationMinutes,
				Intensity:       it.Intensity,
			}
		}
	case recommend.CategoryNutrition:
		if it.Calories > 0 {
			c.Nutrition = &recommend.NutritionDetail{
				Calories: it.Calories,
				ProteinG: it.ProteinG,
				CarbsG:   it.CarbsG,
				FatG:     it.FatG,
			}
		}
	case recommend.CategoryMindfulness:
		if it.Technique != "" || it.DurationMinutes > 0 {
			c.Mindfulness = &recommend.MindfulnessDetail{
				Technique:       it.Technique,
				DurationMinutes: it.DurationMinutes,
			}
		}
	case recommend.CategoryGoals:
		if it.Metric != "" || it.Suggestion != "" {
			c.Goal = &recommend.GoalDetail{
				Metric:     it.Metric,
				Suggestion: it.Suggestion,
			}
		}
	}
	return c
}

// userPromptFor serializes a bounded profile summary. Only derived
// aggregates are shared with the provider, never raw samples.
func userPromptFor(category recommend.Category, p *models.UserProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Suggest %s recommendations for this person.\n", category)
	fmt.Fprintf(&b, "Age: %d. Fitness level: %s. Activity level: %s.\n", p.Age, p.FitnessLevel, p.ActivityLevel)
	if len(p.Goals) > 0 {
		fmt.Fprintf(&b, "Goals: %s.\n", strings.Join(p.Goals, ", "))
	}
	if p.TDEE > 0 {
		fmt.Fprintf(&b, "Estimated daily energy expenditure: %.0f kcal.\n", p.TDEE)
	}
	if p.SleepScore != nil {
		fmt.Fprintf(&b, "Sleep quality score: %.0f/100.\n", *p.SleepScore)
	}
	if p.StressScore != nil {
		fmt.Fprintf(&b, "Calmness score: %.0f/100.\n", *p.StressScore)
	}
	if len(p.Constraints.DietaryRestrictions) > 0 {
		fmt.Fprintf(&b, "Dietary restrictions: %s.\n", strings.Join(p.Constraints.DietaryRestrictions, ", "))
	}
	if len(p.Constraints.Allergies) > 0 {
		fmt.Fprintf(&b, "Allergies: %s.\n", strings.Join(p.Constraints.Allergies, ", "))
	}
	if len(p.Constraints.HealthConditions) > 0 {
		fmt.Fprintf(&b, "Health conditions to respect: %s.\n", strings.Join(p.Constraints.HealthConditions, ", "))
	}
	for family, trend := range p.HealthTrends {
		fmt.Fprintf(&b, "Trend %s: %s (strength %.1f).\n", family, trend.Direction, trend.Strength)
	}
	return b.String()
}

// stripCodeFence removes a single surrounding markdown code fence.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
