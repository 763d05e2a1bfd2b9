// CourseCompass - Course Discovery and Recommendation Engine
// Copyright 2026 CourseCompass contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursecompass/coursecompass

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter assembles the HTTP router with the full middleware stack.
func NewRouter(h *Handlers, mw *Middleware) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(mw.RequestID)
	r.Use(mw.Logging)
	r.Use(mw.Metrics)
	r.Use(mw.SecurityHeaders)
	r.Use(mw.CORS())
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.RateLimit())

		r.Post("/recommendations", h.Recommend)
		r.Get("/recommendations/similar/{code}", h.Similar)

		r.Get("/courses/search", h.SearchCourses)
		r.Get("/courses/{code}", h.GetCourse)
		r.Get("/courses/{code}/eligibility", h.Eligibility)

		r.Get("/clusters", h.Clusters)

		r.Route("/maintenance", func(r chi.Router) {
			r.Post("/rebuild-index", h.RebuildIndex)
			r.Post("/recluster", h.Recluster)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusNotFound, ErrCodeNotFound, "Endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
	})

	return r
}

// routePattern resolves the chi route pattern for metrics labels so
// parameterized paths do not explode label cardinality.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
