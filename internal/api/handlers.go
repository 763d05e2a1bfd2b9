// CourseCompass - Course Discovery and Recommendation Engine
// Copyright 2026 CourseCompass contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursecompass/coursecompass

package api

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/coursecompass/coursecompass/internal/catalog"
	"github.com/coursecompass/coursecompass/internal/embedding"
	"github.com/coursecompass/coursecompass/internal/recommend"
	"github.com/coursecompass/coursecompass/internal/recommend/cluster"
	"github.com/coursecompass/coursecompass/internal/validation"
)

// Handlers bundles the HTTP handlers with their dependencies.
type Handlers struct {
	engine  *recommend.Engine
	catalog *catalog.Store
	search  *catalog.Search
	logger  zerolog.Logger
}

// NewHandlers creates the handler set.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewHandlers(engine *recommend.Engine, store *catalog.Store, logger zerolog.Logger) *Handlers {
	return &Handlers{
		engine:  engine,
		catalog: store,
		search:  catalog.NewSearch(store),
		logger:  logger.With().Str("component", "api").Logger(),
	}
}

// Recommend handles POST /api/v1/recommendations.
func (h *Handlers) Recommend(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req recommend.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("Invalid JSON request body")
		return
	}

	if verr := validation.ValidateStruct(&req.Profile); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	resp, err := h.engine.Recommend(r.Context(), req)
	if err != nil {
		h.writeEngineError(rw, err)
		return
	}

	rw.Success(resp)
}

// Similar handles GET /api/v1/recommendations/similar/{code}.
func (h *Handlers) Similar(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	code := chi.URLParam(r, "code")
	limit := queryInt(r, "limit", 10)

	courses, err := h.engine.Similar(r.Context(), code, limit)
	if err != nil {
		h.writeEngineError(rw, err)
		return
	}

	rw.Success(map[string]interface{}{
		"code":    catalog.NormalizeCode(code),
		"similar": courses,
	})
}

// GetCourse handles GET /api/v1/courses/{code}.
func (h *Handlers) GetCourse(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	code := catalog.NormalizeCode(chi.URLParam(r, "code"))
	course := h.catalog.Get(code)
	if course == nil {
		rw.NotFound("Course not found: " + code)
		return
	}

	// The embedding vector is an internal artifact, not part of the
	// public course representation.
	public := *course
	public.Embedding = nil

	rw.Success(&public)
}

// Eligibility handles GET /api/v1/courses/{code}/eligibility.
// Completed courses are passed as a comma-separated "completed" query
// parameter.
func (h *Handlers) Eligibility(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	code := chi.URLParam(r, "code")
	completed := splitCodes(r.URL.Query().Get("completed"))

	result, err := h.engine.Eligibility(code, completed)
	if err != nil {
		h.writeEngineError(rw, err)
		return
	}

	rw.Success(result)
}

// SearchCourses handles GET /api/v1/courses/search. Matches course codes
// and title words by prefix.
func (h *Handlers) SearchCourses(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	query := r.URL.Query().Get("q")
	if query == "" {
		rw.BadRequest("Missing required query parameter: q")
		return
	}
	limit := queryInt(r, "limit", 10)

	suggestions := h.search.Suggest(query, limit)
	if suggestions == nil {
		suggestions = []catalog.Suggestion{}
	}

	rw.Success(map[string]interface{}{
		"query":   query,
		"results": suggestions,
	})
}

// clusterSummary describes one topic cluster in the clusters listing.
type clusterSummary struct {
	ClusterID int      `json:"cluster_id"`
	Size      int      `json:"size"`
	Courses   []string `json:"courses"`
}

// Clusters handles GET /api/v1/clusters. Courses without a cluster
// assignment are omitted.
func (h *Handlers) Clusters(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	byCluster := make(map[int][]string)
	for _, course := range h.catalog.All() {
		if course.ClusterID < 0 {
			continue
		}
		byCluster[course.ClusterID] = append(byCluster[course.ClusterID], course.Code)
	}

	summaries := make([]clusterSummary, 0, len(byCluster))
	for id, codes := range byCluster {
		sort.Strings(codes)
		summaries = append(summaries, clusterSummary{
			ClusterID: id,
			Size:      len(codes),
			Courses:   codes,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ClusterID < summaries[j].ClusterID
	})

	rw.Success(map[string]interface{}{
		"clusters":        summaries,
		"catalog_version": h.catalog.Version(),
	})
}

// RebuildIndex handles POST /api/v1/maintenance/rebuild-index.
// Returns 409 when another maintenance operation is already running.
func (h *Handlers) RebuildIndex(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	started, err := h.engine.RebuildIndex(r.Context())
	if err != nil {
		rw.InternalError("Index rebuild failed: " + err.Error())
		return
	}
	if !started {
		rw.Conflict(ErrCodeConflict, "A maintenance operation is already in progress")
		return
	}

	rw.Success(map[string]interface{}{
		"rebuilt": true,
	})
}

// reclusterRequest is the optional body for the recluster endpoint.
type reclusterRequest struct {
	Clusters      int `json:"clusters,omitempty"`
	MaxIterations int `json:"max_iterations,omitempty"`
}

// Recluster handles POST /api/v1/maintenance/recluster.
func (h *Handlers) Recluster(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	cfg := cluster.DefaultConfig()
	if r.Body != nil && r.ContentLength != 0 {
		var req reclusterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			rw.BadRequest("Invalid JSON request body")
			return
		}
		if req.Clusters > 0 {
			cfg.Clusters = req.Clusters
		}
		if req.MaxIterations > 0 {
			cfg.MaxIterations = req.MaxIterations
		}
	}

	if err := cfg.Validate(); err != nil {
		rw.BadRequest("Invalid clustering configuration: " + err.Error())
		return
	}

	started, err := h.engine.Recluster(r.Context(), cfg)
	if err != nil {
		if errors.Is(err, cluster.ErrInsufficientData) {
			rw.Conflict(ErrCodeConflict, "Not enough indexed courses for the requested cluster count")
			return
		}
		rw.InternalError("Reclustering failed: " + err.Error())
		return
	}
	if !started {
		rw.Conflict(ErrCodeConflict, "A maintenance operation is already in progress")
		return
	}

	rw.Success(map[string]interface{}{
		"reclustered": true,
		"clusters":    cfg.Clusters,
	})
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	rw.Success(map[string]interface{}{
		"status":          "ok",
		"courses":         h.catalog.Len(),
		"catalog_version": h.catalog.Version(),
	})
}

// writeEngineError maps engine errors onto API error responses.
func (h *Handlers) writeEngineError(rw *ResponseWriter, err error) {
	switch {
	case errors.Is(err, recommend.ErrEmptyProfile):
		rw.Error(http.StatusBadRequest, ErrCodeEmptyProfile, "Profile must contain at least one of interests, completed courses, or favorites")
	case errors.Is(err, recommend.ErrInvalidWeights):
		rw.Error(http.StatusBadRequest, ErrCodeInvalidWeights, err.Error())
	case errors.Is(err, recommend.ErrUnknownMode):
		rw.Error(http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, recommend.ErrNoEligibleCandidates):
		rw.Error(http.StatusConflict, ErrCodeEmptyIndex, "No courses are indexed for recommendation")
	case errors.Is(err, recommend.ErrCourseNotFound):
		rw.NotFound(err.Error())
	case errors.Is(err, embedding.ErrEmbeddingFailed):
		rw.ExternalServiceError(err)
	default:
		h.logger.Error().Err(err).Msg("Unhandled engine error")
		rw.InternalError("Internal server error")
	}
}

// queryInt parses an integer query parameter with a fallback default.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// splitCodes splits a comma-separated code list, trimming whitespace
// and dropping empty entries.
func splitCodes(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	codes := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			codes = append(codes, trimmed)
		}
	}
	return codes
}
