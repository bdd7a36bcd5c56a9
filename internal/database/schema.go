// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

package database

import (
	"context"
	"fmt"
)

// schemaStatements create the tables and indexes. DuckDB executes each
// statement separately; every statement is idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR PRIMARY KEY,
		birth_date TIMESTAMP NOT NULL,
		sex VARCHAR NOT NULL DEFAULT 'other',
		goals VARCHAR NOT NULL DEFAULT '[]',
		activity_level VARCHAR NOT NULL DEFAULT '',
		dietary_restrictions VARCHAR NOT NULL DEFAULT '[]',
		allergies VARCHAR NOT NULL DEFAULT '[]',
		health_conditions VARCHAR NOT NULL DEFAULT '[]',
		units VARCHAR NOT NULL DEFAULT 'metric',
		height_cm DOUBLE,
		weight_kg DOUBLE,
		created_at TIMESTAMP NOT NULL
	)`,

	// One row per observation. Each reading group is a nullable JSON
	// document so a sample carries only what was actually measured.
	`CREATE TABLE IF NOT EXISTS biometric_samples (
		id VARCHAR PRIMARY KEY,
		user_id VARCHAR NOT NULL,
		recorded_at TIMESTAMP NOT NULL,
		vitals VARCHAR,
		body VARCHAR,
		activity VARCHAR,
		sleep VARCHAR,
		stress VARCHAR,
		nutrition VARCHAR,
		mood VARCHAR
	)`,

	`CREATE INDEX IF NOT EXISTS idx_samples_user_time
		ON biometric_samples (user_id, recorded_at)`,

	`CREATE TABLE IF NOT EXISTS user_preferences (
		user_id VARCHAR PRIMARY KEY,
		preferred_workout_types VARCHAR NOT NULL DEFAULT '[]',
		excluded_categories VARCHAR NOT NULL DEFAULT '[]',
		max_workout_minutes INTEGER NOT NULL DEFAULT 0,
		generative_opt_out BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at TIMESTAMP NOT NULL
	)`,
}

// initSchema creates all tables and indexes if they do not exist.
func (db *DB) initSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}
	db.logger.Debug().Int("statements", len(schemaStatements)).Msg("Schema initialized")
	return nil
}
