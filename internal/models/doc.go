// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

// Package models defines the core data types shared across VitalCoach:
// stored user records, timestamped biometric samples, and the derived
// user profile the recommendation engine operates on.
//
// UserRecord and BiometricSample are owned by the persistence layer and
// are read-only to the engine. UserProfile is engine-owned, derived on
// demand and cached with a freshness window; it is never persisted.
package models
