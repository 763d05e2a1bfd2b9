// CourseCompass - Course Discovery and Recommendation Engine
// Copyright 2026 CourseCompass contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursecompass/coursecompass

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides instrumentation for:
// - API endpoint latency and throughput
// - Recommendation engine behavior (candidates, scoring, cache)
// - Vector index queries
// - Topic clustering runs
// - Embedding provider calls and circuit breaker state
// - Snapshot persistence

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
	RecommendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Total number of recommendation requests",
		},
		[]string{"mode", "result"}, // result: "success", "empty_profile", "no_candidates", "error"
	)

	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_duration_seconds",
			Help:    "Duration of recommendation generation in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	RecommendCandidatePoolSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_candidate_pool_size",
			Help:    "Number of candidates assembled per recommendation request",
			Buckets: []float64{5, 10, 25, 50, 100, 200, 500},
		},
	)

	RecommendCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_cache_hits_total",
			Help: "Total number of recommendation response cache hits",
		},
	)

	RecommendCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_cache_misses_total",
			Help: "Total number of recommendation response cache misses",
		},
	)

	// Vector Index Metrics
	IndexQueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "index_query_duration_seconds",
			Help:    "Duration of vector index similarity queries in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
	)

	IndexSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "index_vectors",
			Help: "Current number of vectors in the similarity index",
		},
	)

	IndexGeneration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "index_generation",
			Help: "Monotonic generation counter of the similarity index",
		},
	)

	IndexRebuildsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "index_rebuilds_total",
			Help: "Total number of index rebuilds",
		},
	)

	// Clustering Metrics
	ClusterRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cluster_run_duration_seconds",
			Help:    "Duration of topic clustering runs in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	ClusterIterations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cluster_iterations",
			Help:    "Number of k-means iterations until convergence",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		},
	)

	ClusterCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cluster_count",
			Help: "Current number of topic clusters",
		},
	)

	ClusterRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cluster_runs_total",
			Help: "Total number of clustering runs",
		},
		[]string{"result"}, // "success", "insufficient_data", "error"
	)

	// Embedding Provider Metrics
	EmbeddingRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_requests_total",
			Help: "Total number of embedding provider requests",
		},
		[]string{"result"}, // "success", "rate_limited", "unavailable", "error"
	)

	EmbeddingRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "embedding_request_duration_seconds",
			Help:    "Duration of embedding provider requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	EmbeddingRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "embedding_retries_total",
			Help: "Total number of embedding request retries",
		},
	)

	EmbeddingCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "embedding_cache_hits_total",
			Help: "Total number of embedding cache hits",
		},
	)

	EmbeddingCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "embedding_cache_misses_total",
			Help: "Total number of embedding cache misses",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Snapshot Metrics
	SnapshotOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_operations_total",
			Help: "Total number of snapshot save/load operations",
		},
		[]string{"operation", "result"}, // operation: "save", "load"; result: "success", "error"
	)

	SnapshotSizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapshot_size_bytes",
			Help: "Size of the most recent snapshot in bytes",
		},
	)

	// Catalog Metrics
	CatalogCourses = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_courses",
			Help: "Current number of courses in the catalog",
		},
	)

	CatalogVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_version",
			Help: "Monotonic version counter of the catalog store",
		},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRecommendation records the outcome of a recommendation request
func RecordRecommendation(mode, result string, duration time.Duration) {
	RecommendRequestsTotal.WithLabelValues(mode, result).Inc()
	RecommendDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordIndexQuery records a similarity query against the index
func RecordIndexQuery(duration time.Duration) {
	IndexQueryDuration.Observe(duration.Seconds())
}

// RecordIndexRebuild records an index rebuild and updates the size gauges
func RecordIndexRebuild(vectors int, generation uint64) {
	IndexRebuildsTotal.Inc()
	IndexSize.Set(float64(vectors))
	IndexGeneration.Set(float64(generation))
}

// RecordClusterRun records a clustering run and its outcome
func RecordClusterRun(result string, duration time.Duration, iterations, clusters int) {
	ClusterRunsTotal.WithLabelValues(result).Inc()
	if result == "success" {
		ClusterRunDuration.Observe(duration.Seconds())
		ClusterIterations.Observe(float64(iterations))
		ClusterCount.Set(float64(clusters))
	}
}

// RecordEmbeddingRequest records an embedding provider call
func RecordEmbeddingRequest(result string, duration time.Duration) {
	EmbeddingRequestsTotal.WithLabelValues(result).Inc()
	EmbeddingRequestDuration.Observe(duration.Seconds())
}

// RecordBreakerTransition records a circuit breaker state change.
// States map to: 0=closed, 1=half-open, 2=open.
func RecordBreakerTransition(name, from, to string, toValue float64) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(toValue)
}

// RecordSnapshot records a snapshot save or load
func RecordSnapshot(operation string, sizeBytes int64, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	SnapshotOperations.WithLabelValues(operation, result).Inc()
	if err == nil && sizeBytes > 0 {
		SnapshotSizeBytes.Set(float64(sizeBytes))
	}
}

// UpdateCatalog updates catalog gauges after a load or cluster assignment
func UpdateCatalog(courses int, version uint64) {
	CatalogCourses.Set(float64(courses))
	CatalogVersion.Set(float64(version))
}
