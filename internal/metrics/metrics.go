// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

// Package metrics provides Prometheus instrumentation for the
// recommendation pipeline: API latency, source fan-out, cache
// efficiency, generative provider health, and profile builds.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Recommendation Engine Metrics
	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_requests_total",
			Help: "Total number of recommendation bundle requests",
		},
		[]string{"category"},
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "End-to-end bundle generation duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 15},
		},
		[]string{"category", "cached"},
	)

	SourceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_source_duration_seconds",
			Help:    "Per-source candidate generation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	SourceErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_source_errors_total",
			Help: "Total number of source failures absorbed by the blender",
		},
		[]string{"source"},
	)

	FallbacksServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_fallbacks_total",
			Help: "Total number of deterministic fallback candidates served",
		},
		[]string{"category"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "profile", "bundle"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_invalidations_total",
			Help: "Total number of explicit cache invalidations",
		},
		[]string{"cache_type"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache evictions (TTL expiry)",
		},
		[]string{"cache_type"},
	)

	// Profile Builder Metrics
	ProfileBuilds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "profile_builds_total",
			Help: "Total number of profile assemblies from stored data",
		},
	)

	ProfileBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "profile_build_duration_seconds",
			Help:    "Profile assembly duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ProfileDegradations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "profile_degradations_total",
			Help: "Total number of profiles built with degraded inputs",
		},
	)

	// Generative Provider Metrics
	GenAIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genai_requests_total",
			Help: "Total number of generative completion requests",
		},
		[]string{"result"}, // "success", "rate_limited", "unavailable", "error"
	)

	GenAIRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "genai_request_duration_seconds",
			Help:    "Generative completion duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)
)

// RecordAPIRequest records one completed API request.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordRecommendation records one bundle generation.
func RecordRecommendation(category string, cached bool, duration time.Duration) {
	RecommendationRequests.WithLabelValues(category).Inc()
	RecommendationDuration.WithLabelValues(category, strconv.FormatBool(cached)).Observe(duration.Seconds())
}

// RecordSourceResult records a source's latency, and its failure when
// err is non-nil.
func RecordSourceResult(source string, duration time.Duration, err error) {
	SourceDuration.WithLabelValues(source).Observe(duration.Seconds())
	if err != nil {
		SourceErrors.WithLabelValues(source).Inc()
	}
}

// RecordFallback records a deterministic fallback serving a category.
func RecordFallback(category string) {
	FallbacksServed.WithLabelValues(category).Inc()
}

// RecordCacheHit records a hit for the named cache.
func RecordCacheHit(cacheType string) {
	CacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a miss for the named cache.
func RecordCacheMiss(cacheType string) {
	CacheMisses.WithLabelValues(cacheType).Inc()
}

// RecordCacheInvalidation records an explicit invalidation.
func RecordCacheInvalidation(cacheType string) {
	CacheInvalidations.WithLabelValues(cacheType).Inc()
}

// RecordCacheEvictions records TTL-expiry evictions.
func RecordCacheEvictions(cacheType string, count int) {
	if count > 0 {
		CacheEvictions.WithLabelValues(cacheType).Add(float64(count))
	}
}

// RecordProfileBuild records one profile assembly.
func RecordProfileBuild(duration time.Duration, degraded bool) {
	ProfileBuilds.Inc()
	ProfileBuildDuration.Observe(duration.Seconds())
	if degraded {
		ProfileDegradations.Inc()
	}
}

// RecordGenAIRequest records one completion attempt with its outcome.
func RecordGenAIRequest(result string, duration time.Duration) {
	GenAIRequests.WithLabelValues(result).Inc()
	GenAIRequestDuration.Observe(duration.Seconds())
}

// RecordDBQuery records a database query's latency, and its failure
// when err is non-nil.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}
