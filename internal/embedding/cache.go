// CourseCompass - Course Discovery and Recommendation Engine
// Copyright 2026 CourseCompass contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursecompass/coursecompass

package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/coursecompass/coursecompass/internal/metrics"
)

// CachedProvider wraps a Provider with a persistent badger cache keyed by
// model and text. Cache failures degrade to provider calls, never to errors.
type CachedProvider struct {
	inner  Provider
	db     *badger.DB
	model  string
	logger zerolog.Logger
}

var _ Provider = (*CachedProvider)(nil)

// NewCachedProvider opens (or creates) the cache at path. An empty path uses
// an in-memory cache, useful for tests.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewCachedProvider(inner Provider, model, path string, logger zerolog.Logger) (*CachedProvider, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening embedding cache: %w", err)
	}

	return &CachedProvider{
		inner:  inner,
		db:     db,
		model:  model,
		logger: logger.With().Str("component", "embedding_cache").Logger(),
	}, nil
}

// Close releases the cache database.
func (p *CachedProvider) Close() error {
	return p.db.Close()
}

// Dimension returns the wrapped provider's vector length.
func (p *CachedProvider) Dimension() int {
	return p.inner.Dimension()
}

// Embed serves from the cache when possible, falling through to the wrapped
// provider and caching its answer.
func (p *CachedProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	key := p.cacheKey(text)

	if vec, ok := p.lookup(key); ok {
		metrics.EmbeddingCacheHits.Inc()
		return vec, nil
	}
	metrics.EmbeddingCacheMisses.Inc()

	vec, err := p.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	p.store(key, vec)
	return vec, nil
}

// cacheKey hashes model and text so a model change never serves stale vectors.
func (p *CachedProvider) cacheKey(text string) []byte {
	h := sha256.New()
	h.Write([]byte(p.model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return h.Sum(nil)
}

func (p *CachedProvider) lookup(key []byte) ([]float64, bool) {
	var raw []byte
	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			p.logger.Warn().Err(err).Msg("embedding cache read failed")
		}
		return nil, false
	}

	vec, err := decodeVector(raw)
	if err != nil {
		p.logger.Warn().Err(err).Msg("corrupt embedding cache entry, ignoring")
		return nil, false
	}
	return vec, true
}

func (p *CachedProvider) store(key []byte, vec []float64) {
	err := p.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, encodeVector(vec))
	})
	if err != nil {
		p.logger.Warn().Err(err).Msg("embedding cache write failed")
	}
}

// encodeVector packs a vector as big-endian float64 bits, which round-trips
// exactly.
func encodeVector(vec []float64) []byte {
	out := make([]byte, 8*len(vec))
	for i, v := range vec {
		binary.BigEndian.PutUint64(out[i*8:], math.Float64bits(v))
	}
	return out
}

func decodeVector(raw []byte) ([]float64, error) {
	if len(raw)%8 != 0 {
		return nil, fmt.Errorf("invalid vector encoding length %d", len(raw))
	}
	vec := make([]float64, len(raw)/8)
	for i := range vec {
		vec[i] = math.Float64frombits(binary.BigEndian.Uint64(raw[i*8:]))
	}
	return vec, nil
}
