// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type countingSweeper struct {
	calls atomic.Int64
}

func (c *countingSweeper) SweepExpired() int {
	c.calls.Add(1)
	return 2
}

func TestJanitorSweepsAllCaches(t *testing.T) {
	first := &countingSweeper{}
	second := &countingSweeper{}
	svc := NewJanitorService(10*time.Millisecond, zerolog.Nop(), first, second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	deadline := time.After(2 * time.Second)
	for first.calls.Load() < 2 || second.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("sweeps = %d/%d, want at least 2 each",
				first.calls.Load(), second.calls.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestJanitorDefaultsInterval(t *testing.T) {
	svc := NewJanitorService(0, zerolog.Nop())
	if svc.interval != 10*time.Minute {
		t.Errorf("interval = %v, want 10m", svc.interval)
	}
	if svc.String() != "cache-janitor" {
		t.Errorf("String() = %q", svc.String())
	}
}
