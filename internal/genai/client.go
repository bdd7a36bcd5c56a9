// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

package genai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/vitalcoach/vitalcoach/internal/metrics"
)

// Sentinel errors returned by Complete. Callers treat both as a
// recoverable source outage.
var (
	// ErrUnavailable indicates the provider cannot serve requests:
	// transport failure, 5xx response, or an open circuit breaker.
	ErrUnavailable = errors.New("genai: provider unavailable")

	// ErrRateLimited indicates the provider or the client-side limiter
	// rejected the request for pacing reasons.
	ErrRateLimited = errors.New("genai: rate limited")
)

// Defaults applied when Config fields are zero.
const (
	DefaultModel       = "llama-3.3-70b-versatile"
	DefaultMaxTokens   = 1024
	DefaultTemperature = 0.7
	defaultHTTPTimeout = 30 * time.Second
)

// Options tunes a single completion request.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Completer is the minimal completion surface the recommendation
// sources depend on.
type Completer interface {
	// Complete sends a system/user prompt pair and returns the first
	// choice's content. Errors wrap ErrUnavailable or ErrRateLimited
	// when the failure is an outage rather than a caller bug.
	Complete(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error)
}

// Config configures the HTTP completion client.
type Config struct {
	// BaseURL is the chat completions endpoint, e.g.
	// https://api.groq.com/openai/v1/chat/completions.
	BaseURL string
	APIKey  string
	Model   string

	// Timeout bounds a single HTTP round trip.
	Timeout time.Duration

	// RequestsPerMinute caps outbound calls client-side. Zero disables
	// the limiter.
	RequestsPerMinute int

	// BreakerThreshold is the consecutive-failure count that opens the
	// circuit. Zero uses 5.
	BreakerThreshold uint32

	// BreakerCooldown is how long the circuit stays open. Zero uses 60s.
	BreakerCooldown time.Duration
}

// Client is an OpenAI-compatible chat completions client. Safe for
// concurrent use.
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[string]
	limiter *rate.Limiter
	logger  zerolog.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewClient creates a completion client with breaker and limiter wired.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}
	threshold := cfg.BreakerThreshold
	if threshold == 0 {
		threshold = 5
	}
	cooldown := cfg.BreakerCooldown
	if cooldown <= 0 {
		cooldown = time.Minute
	}

	log := logger.With().Str("component", "genai").Logger()

	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    "genai-completions",
		Timeout: cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("completion breaker state change")
		},
	})

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), cfg.RequestsPerMinute)
	}

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		limiter: limiter,
		logger:  log,
	}
}

// Complete implements Completer.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error) {
	start := time.Now()
	if c.limiter != nil && !c.limiter.Allow() {
		metrics.RecordGenAIRequest("rate_limited", time.Since(start))
		return "", fmt.Errorf("client-side limit exceeded: %w", ErrRateLimited)
	}

	content, err := c.breaker.Execute(func() (string, error) {
		return c.complete(ctx, systemPrompt, userPrompt, opts)
	})
	metrics.CircuitBreakerState.WithLabelValues("genai-completions").Set(float64(c.breaker.State()))
	if err != nil {
		metrics.RecordGenAIRequest(resultLabel(err), time.Since(start))
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("circuit open: %w", ErrUnavailable)
		}
		return "", err
	}
	metrics.RecordGenAIRequest("success", time.Since(start))
	return content, nil
}

// resultLabel maps a completion error to its metric label.
func resultLabel(err error) string {
	switch {
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrUnavailable),
		errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests):
		return "unavailable"
	default:
		return "error"
	}
}

func (c *Client) complete(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error) {
	temperature := opts.Temperature
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	payload, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", errors.Join(ErrUnavailable, err))
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read completion response: %w", errors.Join(ErrUnavailable, err))
	}

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("completion round trip")

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("provider returned 429: %w", ErrRateLimited)
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("provider returned %d: %w", resp.StatusCode, ErrUnavailable)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("provider returned %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var chat chatResponse
	if err := json.Unmarshal(body, &chat); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if chat.Error != nil {
		return "", fmt.Errorf("provider error %s: %s", chat.Error.Type, chat.Error.Message)
	}
	if len(chat.Choices) == 0 {
		return "", fmt.Errorf("empty choices: %w", ErrUnavailable)
	}
	return chat.Choices[0].Message.Content, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
