// CourseCompass - Course Discovery and Recommendation Engine
// Copyright 2026 CourseCompass contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursecompass/coursecompass

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/coursecompass/coursecompass/internal/logging"
	"github.com/coursecompass/coursecompass/internal/metrics"
)

// MiddlewareConfig holds configuration for the HTTP middleware stack.
type MiddlewareConfig struct {
	// CORSAllowedOrigins is the list of allowed CORS origins
	CORSAllowedOrigins []string

	// CORSMaxAge is the max age for CORS preflight caching in seconds
	CORSMaxAge int

	// RateLimitRequests is the number of requests allowed per window
	RateLimitRequests int

	// RateLimitWindow is the rate limit window duration
	RateLimitWindow time.Duration

	// EnableHSTS enables the Strict-Transport-Security header
	EnableHSTS bool

	Logger zerolog.Logger
}

// DefaultMiddlewareConfig returns sensible middleware defaults.
func DefaultMiddlewareConfig() MiddlewareConfig {
	return MiddlewareConfig{
		CORSAllowedOrigins: []string{"*"},
		CORSMaxAge:         300,
		RateLimitRequests:  120,
		RateLimitWindow:    time.Minute,
		Logger:             logging.Logger(),
	}
}

// Middleware provides the middleware stack for the API router.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
type Middleware struct {
	cfg    MiddlewareConfig
	logger zerolog.Logger
}

// NewMiddleware creates the middleware factory.
func NewMiddleware(cfg MiddlewareConfig) *Middleware {
	return &Middleware{
		cfg:    cfg,
		logger: cfg.Logger.With().Str("component", "api").Logger(),
	}
}

// CORS returns the CORS middleware configured from MiddlewareConfig.
func (m *Middleware) CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   m.cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           m.cfg.CORSMaxAge,
	})
}

// RateLimit returns an IP-keyed rate limiting middleware.
func (m *Middleware) RateLimit() func(http.Handler) http.Handler {
	return httprate.Limit(
		m.cfg.RateLimitRequests,
		m.cfg.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			WriteError(w, r, http.StatusTooManyRequests, ErrCodeTooManyRequests, "Rate limit exceeded")
		}),
	)
}

// RequestID attaches a request ID to the context and response headers.
// An incoming X-Request-ID header is honored so callers can correlate
// their own traces with server logs.
func (m *Middleware) RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = logging.GenerateRequestID()
		}

		ctx := logging.ContextWithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SecurityHeaders sets standard security headers on every response.
func (m *Middleware) SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		if m.cfg.EnableHSTS {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

// Logging logs every request with method, path, status and duration.
func (m *Middleware) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusResponseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(srw, r)

		m.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", srw.status).
			Dur("duration", time.Since(start)).
			Str("request_id", logging.RequestIDFromContext(r.Context())).
			Str("remote_addr", r.RemoteAddr).
			Msg("HTTP request")
	})
}

// Metrics records Prometheus metrics for every request.
func (m *Middleware) Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.TrackActiveRequest(true)
		defer metrics.TrackActiveRequest(false)

		srw := &statusResponseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(srw, r)

		metrics.RecordAPIRequest(r.Method, routePattern(r), strconv.Itoa(srw.status), time.Since(start))
	})
}

// statusResponseWriter captures the response status code for logging
// and metrics.
type statusResponseWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusResponseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
