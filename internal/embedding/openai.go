// CourseCompass - Course Discovery and Recommendation Engine
// Copyright 2026 CourseCompass contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursecompass/coursecompass

package embedding

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
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/coursecompass/coursecompass/internal/metrics"
)

// ClientConfig tunes the embeddings API client.
type ClientConfig struct {
	// BaseURL is the API root, e.g. "https://api.openai.com".
	BaseURL string `json:"base_url"`

	// APIKey is the bearer token. Empty disables the Authorization header.
	APIKey string `json:"-"`

	// Model is the embedding model name.
	Model string `json:"model"`

	// Dimension is the expected vector length. Responses with a different
	// length are rejected.
	Dimension int `json:"dimension"`

	// Timeout bounds one HTTP request.
	Timeout time.Duration `json:"timeout"`

	// MaxRetries bounds retry attempts for retryable failures.
	MaxRetries int `json:"max_retries"`

	// RequestsPerSecond throttles outbound requests.
	RequestsPerSecond float64 `json:"requests_per_second"`
}

// Client calls an OpenAI-compatible POST /v1/embeddings endpoint.
type Client struct {
	cfg     ClientConfig
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]float64]
	logger  zerolog.Logger
}

var _ Provider = (*Client)(nil)

// NewClient creates an embeddings API client.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewClient(cfg ClientConfig, logger zerolog.Logger) *Client {
	componentLogger := logger.With().Str("component", "embedding").Logger()

	breaker := gobreaker.NewCircuitBreaker[[]float64](gobreaker.Settings{
		Name:        "embedding-provider",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && counts.TotalFailures*2 > counts.Requests
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordBreakerTransition(name, from.String(), to.String(), breakerStateValue(to))
			componentLogger.Warn().
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("embedding circuit breaker state changed")
		},
	})

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		breaker: breaker,
		logger:  componentLogger,
	}
}

// Dimension returns the configured vector length.
func (c *Client) Dimension() int {
	return c.cfg.Dimension
}

// Embed requests an embedding, retrying transient failures with exponential
// backoff up to the configured attempt budget.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	start := time.Now()

	vec, err := c.breaker.Execute(func() ([]float64, error) {
		return c.embedWithRetry(ctx, text)
	})
	if err != nil {
		metrics.RecordEmbeddingRequest(resultLabel(err), time.Since(start))
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open", ErrProviderUnavailable)
		}
		return nil, err
	}

	metrics.RecordEmbeddingRequest("success", time.Since(start))
	return vec, nil
}

// embedWithRetry runs the request loop. Rate-limit and server errors retry
// with exponential backoff; other client errors fail immediately.
func (c *Client) embedWithRetry(ctx context.Context, text string) ([]float64, error) {
	attempts := c.cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			metrics.EmbeddingRetriesTotal.Inc()
			backoff := time.Duration(1<<uint(attempt-1)) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, ctx.Err())
			case <-time.After(backoff):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
		}

		vec, retryable, err := c.doRequest(ctx, text)
		if err == nil {
			return vec, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
		c.logger.Debug().Err(err).Int("attempt", attempt+1).Msg("embedding request failed, retrying")
	}
	return nil, lastErr
}

// embeddingRequest is the wire request body.
type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// embeddingResponse is the wire response body.
type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// doRequest performs one HTTP round trip. The second return reports whether
// the failure is worth retrying.
func (c *Client) doRequest(ctx context.Context, text string) ([]float64, bool, error) {
	body, err := json.Marshal(embeddingRequest{
		Model: c.cfg.Model,
		Input: []string{text},
	})
	if err != nil {
		return nil, false, fmt.Errorf("%w: encoding request: %v", ErrEmbeddingFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("%w: building request: %v", ErrEmbeddingFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, resp.Body) //nolint:errcheck // draining for connection reuse
		return nil, true, ErrRateLimited
	case resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body) //nolint:errcheck // draining for connection reuse
		return nil, true, fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("%w: status %d", ErrEmbeddingFailed, resp.StatusCode)
	}

	var parsed embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, true, fmt.Errorf("%w: decoding response: %v", ErrEmbeddingFailed, err)
	}
	if parsed.Error != nil {
		return nil, false, fmt.Errorf("%w: %s", ErrEmbeddingFailed, parsed.Error.Message)
	}
	if len(parsed.Data) == 0 {
		return nil, false, fmt.Errorf("%w: empty response", ErrEmbeddingFailed)
	}

	vec := parsed.Data[0].Embedding
	if c.cfg.Dimension > 0 && len(vec) != c.cfg.Dimension {
		return nil, false, fmt.Errorf("%w: got %d dimensions, expected %d", ErrEmbeddingFailed, len(vec), c.cfg.Dimension)
	}
	return vec, false, nil
}

// resultLabel maps an error to a metrics result label.
func resultLabel(err error) string {
	switch {
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrProviderUnavailable),
		errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests):
		return "unavailable"
	default:
		return "error"
	}
}

// breakerStateValue maps breaker states onto the gauge scale.
func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}
