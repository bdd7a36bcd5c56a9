// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

// Package health implements the pure metric calculators and the trend
// analyzer. Every function here is a deterministic function of its
// inputs: no I/O, no clocks (callers pass the reference time), no
// side effects. The profile builder composes these into a UserProfile.
package health
