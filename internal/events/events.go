// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

// Package events provides the in-process event bus connecting preference
// writes to cache invalidation. The HTTP layer publishes a
// PreferencesUpdated event after a successful preference write; a
// subscriber invalidates the user's profile and recommendation caches.
package events

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// TopicPreferencesUpdated carries PreferencesUpdated events.
const TopicPreferencesUpdated = "preferences.updated"

// SchemaVersion is the current event schema version.
const SchemaVersion = 1

// PreferencesUpdated signals that a user's recommendation preferences
// changed and all cached state derived from them is stale.
type PreferencesUpdated struct {
	SchemaVersion int       `json:"schema_version"`
	EventID       string    `json:"event_id"`
	UserID        string    `json:"user_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NewPreferencesUpdated creates an event with a fresh ID and timestamp.
func NewPreferencesUpdated(userID string) *PreferencesUpdated {
	return &PreferencesUpdated{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		UserID:        userID,
		OccurredAt:    time.Now().UTC(),
	}
}

// Validate checks required fields.
func (e *PreferencesUpdated) Validate() error {
	if e.UserID == "" {
		return fmt.Errorf("preferences event requires a user id")
	}
	return nil
}

// Marshal encodes the event for transport.
func (e *PreferencesUpdated) Marshal() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// UnmarshalPreferencesUpdated decodes an event from transport bytes.
func UnmarshalPreferencesUpdated(data []byte) (*PreferencesUpdated, error) {
	var e PreferencesUpdated
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
