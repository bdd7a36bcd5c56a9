// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

// Package recommend implements the recommendation engine: it fans a
// user profile out to independent candidate sources, fuses the weighted
// results into ranked per-category lists, and caches the resulting
// bundle per user with a freshness window.
//
// Sources are independent implementations of the Source interface
// (similarity, rule, generative) registered on the Engine. A source
// failure or timeout is absorbed as zero candidates plus a recorded
// fallback flag; only an unknown user is a hard error. The nutrition
// category additionally has a deterministic metabolic fallback applied
// at blend time when the generative source contributes nothing.
package recommend
