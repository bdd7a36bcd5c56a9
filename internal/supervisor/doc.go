// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

// Package supervisor builds the suture supervision tree for the
// process. The tree has two layers: background (cache janitor and the
// preferences-invalidation consumer) and api (the HTTP server). A
// crash in a background worker restarts that worker without taking
// down the API.
package supervisor
