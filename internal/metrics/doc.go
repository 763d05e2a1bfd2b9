// CourseCompass - Course Discovery and Recommendation Engine
// Copyright 2026 CourseCompass contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursecompass/coursecompass

// Package metrics provides Prometheus instrumentation for CourseCompass.
//
// All metrics are registered with the default registry via promauto and
// exposed on the /metrics endpoint by the API server.
//
// # Metric Groups
//
// API:
//   - api_requests_total{method,endpoint,status_code}
//   - api_request_duration_seconds{method,endpoint}
//   - api_active_requests
//
// Recommendation engine:
//   - recommend_requests_total{mode,result}
//   - recommend_duration_seconds{mode}
//   - recommend_candidate_pool_size
//   - recommend_cache_hits_total / recommend_cache_misses_total
//
// Vector index:
//   - index_query_duration_seconds
//   - index_vectors, index_generation, index_rebuilds_total
//
// Clustering:
//   - cluster_run_duration_seconds, cluster_iterations
//   - cluster_count, cluster_runs_total{result}
//
// Embedding provider:
//   - embedding_requests_total{result}
//   - embedding_request_duration_seconds, embedding_retries_total
//   - embedding_cache_hits_total / embedding_cache_misses_total
//   - circuit_breaker_state{name}, circuit_breaker_state_transitions_total
//
// Persistence:
//   - snapshot_operations_total{operation,result}, snapshot_size_bytes
//   - catalog_courses, catalog_version
//
// # Usage
//
// Prefer the Record* helpers over direct metric access so label values stay
// consistent across call sites:
//
//	start := time.Now()
//	result, err := engine.Recommend(ctx, req)
//	metrics.RecordRecommendation(req.Mode, outcomeLabel(err), time.Since(start))
package metrics
