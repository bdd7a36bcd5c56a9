// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

package sources

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vitalcoach/vitalcoach/internal/genai"
	"github.com/vitalcoach/vitalcoach/internal/models"
	"github.com/vitalcoach/vitalcoach/internal/recommend"
)

type stubCompleter struct {
	response   string
	err        error
	lastSystem string
	lastUser   string
}

func (s *stubCompleter) Complete(_ context.Context, systemPrompt, userPrompt string, _ genai.Options) (string, error) {
	s.lastSystem = systemPrompt
	s.lastUser = userPrompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func generativeProfile() *models.UserProfile {
	return &models.UserProfile{
		UserID:        "u1",
		Age:           41,
		FitnessLevel:  models.FitnessIntermediate,
		ActivityLevel: models.ActivityModeratelyActive,
		Goals:         []string{models.GoalBetterSleep},
		TDEE:          2100,
		Constraints:   models.ProfileConstraints{Allergies: []string{"peanuts"}},
	}
}

func TestGenerativeParsesValidResponse(t *testing.T) {
	stub := &stubCompleter{response: `{"items":[
		{"title":"Evening walk","description":"Short walk after dinner.","reason":"gentle movement aids sleep","duration_minutes":20,"intensity":"low"},
		{"title":"Morning light","description":"Ten minutes of daylight on waking.","reason":"anchors the sleep rhythm"}
	]}`}

	got, err := NewGenerative(stub).Generate(context.Background(), recommend.CategoryWorkout, generativeProfile(), recommend.Options{})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Source != recommend.SourceGenerative {
		t.Errorf("source = %q", got[0].Source)
	}
	if got[0].Workout == nil || got[0].Workout.DurationMinutes != 20 {
		t.Errorf("workout payload not mapped: %+v", got[0].Workout)
	}
}

func TestGenerativeToleratesCodeFence(t *testing.T) {
	stub := &stubCompleter{response: "```json\n{\"items\":[{\"title\":\"T\",\"description\":\"D\"}]}\n```"}

	got, err := NewGenerative(stub).Generate(context.Background(), recommend.CategoryGoals, generativeProfile(), recommend.Options{})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
}

func TestGenerativeRejectsMalformedResponses(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"not json", "here are some ideas: walk more"},
		{"empty items", `{"items":[]}`},
		{"missing title", `{"items":[{"description":"D"}]}`},
		{"missing description", `{"items":[{"title":"T"}]}`},
		{"bad intensity", `{"items":[{"title":"T","description":"D","intensity":"extreme"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubCompleter{response: tt.response}
			_, err := NewGenerative(stub).Generate(context.Background(), recommend.CategoryWorkout, generativeProfile(), recommend.Options{})
			if err == nil {
				t.Fatal("schema violation accepted")
			}
		})
	}
}

func TestGenerativeCompleterErrorPropagates(t *testing.T) {
	stub := &stubCompleter{err: genai.ErrUnavailable}
	_, err := NewGenerative(stub).Generate(context.Background(), recommend.CategoryWorkout, generativeProfile(), recommend.Options{})
	if !errors.Is(err, genai.ErrUnavailable) {
		t.Fatalf("error = %v, want wrapped ErrUnavailable", err)
	}
}

func TestGenerativeNilCompleterFails(t *testing.T) {
	if _, err := NewGenerative(nil).Generate(context.Background(), recommend.CategoryWorkout, generativeProfile(), recommend.Options{}); err == nil {
		t.Fatal("expected error without a completer")
	}
}

func TestGenerativePromptIsBoundedSummary(t *testing.T) {
	stub := &stubCompleter{response: `{"items":[{"title":"T","description":"D"}]}`}

	if _, err := NewGenerative(stub).Generate(context.Background(), recommend.CategoryNutrition, generativeProfile(), recommend.Options{}); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if !strings.Contains(stub.lastUser, "nutrition") {
		t.Error("prompt missing category")
	}
	if !strings.Contains(stub.lastUser, "peanuts") {
		t.Error("prompt missing allergy constraint")
	}
	if !strings.Contains(stub.lastUser, "2100") {
		t.Error("prompt missing energy expenditure")
	}
	if !strings.Contains(stub.lastSystem, "JSON only") {
		t.Error("system prompt missing JSON instruction")
	}
}

func TestGenerativeCapsItemCount(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(`{"items":[`)
	for i := 0; i < 15; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(`{"title":"T","description":"D"}`)
	}
	sb.WriteString(`]}`)

	stub := &stubCompleter{response: sb.String()}
	got, err := NewGenerative(stub).Generate(context.Background(), recommend.CategoryWorkout, generativeProfile(), recommend.Options{})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if len(got) != maxGenerativeItems {
		t.Errorf("len = %d, want capped at %d", len(got), maxGenerativeItems)
	}
}
