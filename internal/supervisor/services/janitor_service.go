// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper is a cache that can evict its expired entries.
// Implemented by *profile.Builder and *recommend.Engine.
type Sweeper interface {
	SweepExpired() int
}

// JanitorService periodically sweeps expired entries out of the
// profile and bundle caches. Expired entries are already invisible to
// readers; the sweep only reclaims memory.
type JanitorService struct {
	sweepers []Sweeper
	interval time.Duration
	logger   zerolog.Logger
}

// NewJanitorService creates the janitor.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewJanitorService(interval time.Duration, logger zerolog.Logger, sweepers ...Sweeper) *JanitorService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &JanitorService{
		sweepers: sweepers,
		interval: interval,
		logger:   logger.With().Str("component", "cache-janitor").Logger(),
	}
}

// Serve implements suture.Service.
func (j *JanitorService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			evicted := 0
			for _, s := range j.sweepers {
				evicted += s.SweepExpired()
			}
			if evicted > 0 {
				j.logger.Debug().Int("evicted", evicted).Msg("Swept expired cache entries")
			}
		}
	}
}

// String identifies the service in suture logs.
func (j *JanitorService) String() string {
	return "cache-janitor"
}
