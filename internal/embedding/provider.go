// CourseCompass - Course Discovery and Recommendation Engine
// Copyright 2026 CourseCompass contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursecompass/coursecompass

// Package embedding turns free text into fixed-length semantic vectors via
// an OpenAI-compatible embeddings API.
//
// The client is defensive about the provider: requests are rate limited,
// retried a bounded number of times with exponential backoff, and guarded by
// a circuit breaker so a struggling provider degrades recommendations
// instead of stalling them. A badger-backed cache keyed by model and text
// keeps repeat embeddings off the network entirely.
package embedding

import (
	"context"
	"errors"
)

// Sentinel errors. ErrRateLimited and ErrProviderUnavailable wrap
// ErrEmbeddingFailed so callers can match either the specific cause or the
// general failure.
var (
	// ErrEmbeddingFailed is the general embedding failure.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrRateLimited indicates the provider rejected the request with 429.
	ErrRateLimited = wrap("provider rate limited")

	// ErrProviderUnavailable indicates the provider returned a server
	// error or the circuit breaker is open.
	ErrProviderUnavailable = wrap("provider unavailable")
)

func wrap(msg string) error {
	return errors.Join(errors.New(msg), ErrEmbeddingFailed)
}

// Provider produces a fixed-length vector for a piece of text.
type Provider interface {
	// Embed returns the embedding for text. The vector length is fixed per
	// provider configuration.
	Embed(ctx context.Context, text string) ([]float64, error)

	// Dimension returns the fixed vector length.
	Dimension() int
}
