// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newCapturingSlogger(buf *bytes.Buffer) *slog.Logger {
	zl := zerolog.New(buf).Level(zerolog.DebugLevel)
	return slog.New(&slogHandler{logger: zl})
}

func TestSlogHandlerLevels(t *testing.T) {
	tests := []struct {
		name string
		log  func(l *slog.Logger)
		want string
	}{
		{"debug", func(l *slog.Logger) { l.Debug("m") }, `"level":"debug"`},
		{"info", func(l *slog.Logger) { l.Info("m") }, `"level":"info"`},
		{"warn", func(l *slog.Logger) { l.Warn("m") }, `"level":"warn"`},
		{"error", func(l *slog.Logger) { l.Error("m") }, `"level":"error"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(newCapturingSlogger(&buf))
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output = %s, want %s", buf.String(), tt.want)
			}
		})
	}
}

func TestSlogHandlerAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := newCapturingSlogger(&buf)

	l.Info("restarting", slog.String("service", "http-server"), slog.Int("restarts", 3))

	out := buf.String()
	if !strings.Contains(out, `"service":"http-server"`) || !strings.Contains(out, `"restarts":3`) {
		t.Errorf("output = %s", out)
	}
}

func TestSlogHandlerWithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	l := newCapturingSlogger(&buf).With(slog.String("layer", "api")).WithGroup("suture")

	l.Info("event", slog.String("kind", "backoff"))

	out := buf.String()
	if !strings.Contains(out, `"layer":"api"`) {
		t.Errorf("pre-set attr missing: %s", out)
	}
	if !strings.Contains(out, `"suture.kind":"backoff"`) {
		t.Errorf("grouped attr missing: %s", out)
	}
}

func TestNewSlogLoggerNotNil(t *testing.T) {
	if NewSlogLogger() == nil {
		t.Fatal("NewSlogLogger() = nil")
	}
}
