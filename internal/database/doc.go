// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

// Package database provides the DuckDB-backed persistence layer for
// user records, biometric samples, and recommendation preferences.
//
// The store satisfies the profile package's Store and PreferenceStore
// interfaces. All queries are parameterized and all list reads are
// bounded by an explicit time range.
package database
