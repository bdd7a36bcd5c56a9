// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

// Package genai provides the chat-completion client used by the
// generative recommendation source.
//
// The client speaks the OpenAI-compatible chat completions protocol and
// wraps every call in a circuit breaker and a client-side rate limiter
// so that provider outages degrade the recommendation blend instead of
// failing it. Callers depend on the Completer interface; tests supply
// stubs.
package genai
