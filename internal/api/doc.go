// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

// Package api provides the HTTP surface: chi routing, middleware, and
// handlers for users, biometrics, preferences, and recommendation
// bundles. All responses use the models.APIResponse envelope.
package api
