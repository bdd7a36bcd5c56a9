// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

// Package services wraps long-running components as suture.Service
// implementations: the HTTP server, the cache janitor, and the
// preferences-invalidation consumer.
package services
