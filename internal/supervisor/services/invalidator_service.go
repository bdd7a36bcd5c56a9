// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

package services

import (
	"context"

	"github.com/vitalcoach/vitalcoach/internal/events"
)

// InvalidatorService runs the preferences-updated consumer that drops
// cached profiles and bundles when a user's preferences change.
type InvalidatorService struct {
	bus         *events.Bus
	invalidator events.Invalidator
}

// NewInvalidatorService wraps the event-bus consumer as a supervised
// service.
func NewInvalidatorService(bus *events.Bus, invalidator events.Invalidator) *InvalidatorService {
	return &InvalidatorService{
		bus:         bus,
		invalidator: invalidator,
	}
}

// Serve implements suture.Service.
func (s *InvalidatorService) Serve(ctx context.Context) error {
	return s.bus.RunInvalidator(ctx, s.invalidator)
}

// String identifies the service in suture logs.
func (s *InvalidatorService) String() string {
	return "preferences-invalidator"
}
