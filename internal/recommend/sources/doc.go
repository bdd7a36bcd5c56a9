// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

// Package sources provides the three candidate producers the engine
// composes: a peer-similarity source backed by a cohort index, a rule
// source backed by curated tables, and a generative source that
// delegates a bounded profile summary to an external completion
// service and strictly validates the structured response.
package sources
