// CourseCompass - Course Discovery and Recommendation Engine
// Copyright 2026 CourseCompass contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursecompass/coursecompass

// Package index implements an exact cosine-similarity vector index.
//
// The index stores one fixed-dimension embedding per item and answers
// top-k nearest-neighbor queries with an exact linear scan. Readers never
// block each other: the item set is an immutable generation swapped
// atomically by mutations, so a query sees either the old complete
// generation or the new one, never a partial rebuild.
package index

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
)

// ErrDimensionMismatch is returned when a vector's length differs from the
// index's fixed dimension.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Result is a single query hit.
type Result struct {
	// ID is the item identifier (canonical course code).
	ID string `json:"id"`

	// Similarity is the cosine similarity in [-1, 1].
	Similarity float64 `json:"similarity"`
}

// entry pairs an item id with its embedding and precomputed norm.
type entry struct {
	id     string
	vector []float64
	norm   float64
}

// generation is an immutable snapshot of the index contents.
type generation struct {
	entries []entry
	byID    map[string]int
	version uint64
}

// Index is an exact cosine-similarity index over fixed-dimension vectors.
// Queries are lock-free against an atomically swapped generation; mutations
// are serialized by an internal mutex.
type Index struct {
	dimension int

	mu      sync.Mutex // serializes mutations
	current atomic.Pointer[generation]
}

// New creates an empty index with the given fixed dimension.
func New(dimension int) (*Index, error) {
	if dimension < 1 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dimension)
	}

	idx := &Index{dimension: dimension}
	idx.current.Store(&generation{
		entries: nil,
		byID:    make(map[string]int),
		version: 0,
	})
	return idx, nil
}

// Dimension returns the fixed vector dimension of the index.
func (idx *Index) Dimension() int {
	return idx.dimension
}

// Len returns the number of vectors currently indexed.
func (idx *Index) Len() int {
	return len(idx.current.Load().entries)
}

// Version returns the generation counter, incremented on every mutation.
func (idx *Index) Version() uint64 {
	return idx.current.Load().version
}

// Upsert inserts or replaces the vector for an item.
// Returns ErrDimensionMismatch if the vector length differs from the index dimension.
func (idx *Index) Upsert(id string, vector []float64) error {
	if len(vector) != idx.dimension {
		return fmt.Errorf("%w: got %d, index dimension %d", ErrDimensionMismatch, len(vector), idx.dimension)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	cur := idx.current.Load()
	next := cur.clone()

	vec := make([]float64, len(vector))
	copy(vec, vector)
	e := entry{id: id, vector: vec, norm: norm(vec)}

	if pos, ok := next.byID[id]; ok {
		next.entries[pos] = e
	} else {
		next.byID[id] = len(next.entries)
		next.entries = append(next.entries, e)
	}

	next.version = cur.version + 1
	idx.current.Store(next)
	return nil
}

// Remove deletes an item from the index. Removing an absent id is a no-op.
func (idx *Index) Remove(id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	cur := idx.current.Load()
	if _, ok := cur.byID[id]; !ok {
		return
	}

	next := &generation{
		entries: make([]entry, 0, len(cur.entries)-1),
		byID:    make(map[string]int, len(cur.entries)-1),
		version: cur.version + 1,
	}
	for _, e := range cur.entries {
		if e.id == id {
			continue
		}
		next.byID[e.id] = len(next.entries)
		next.entries = append(next.entries, e)
	}

	idx.current.Store(next)
}

// Rebuild atomically replaces the entire index contents.
// Returns ErrDimensionMismatch if any vector has the wrong length; on error
// the previous generation stays installed.
func (idx *Index) Rebuild(vectors map[string][]float64) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	cur := idx.current.Load()
	next := &generation{
		entries: make([]entry, 0, len(vectors)),
		byID:    make(map[string]int, len(vectors)),
		version: cur.version + 1,
	}

	// Deterministic layout: ids ascending.
	ids := make([]string, 0, len(vectors))
	for id := range vectors {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		v := vectors[id]
		if len(v) != idx.dimension {
			return fmt.Errorf("%w: item %s has %d components, index dimension %d",
				ErrDimensionMismatch, id, len(v), idx.dimension)
		}
		vec := make([]float64, len(v))
		copy(vec, v)
		next.byID[id] = len(next.entries)
		next.entries = append(next.entries, entry{id: id, vector: vec, norm: norm(vec)})
	}

	idx.current.Store(next)
	return nil
}

// Vector returns a copy of the stored vector for an item, or false if absent.
func (idx *Index) Vector(id string) ([]float64, bool) {
	cur := idx.current.Load()
	pos, ok := cur.byID[id]
	if !ok {
		return nil, false
	}
	v := make([]float64, len(cur.entries[pos].vector))
	copy(v, cur.entries[pos].vector)
	return v, true
}

// IDs returns all indexed item ids in ascending order.
func (idx *Index) IDs() []string {
	cur := idx.current.Load()
	ids := make([]string, 0, len(cur.entries))
	for _, e := range cur.entries {
		ids = append(ids, e.id)
	}
	sort.Strings(ids)
	return ids
}

// Query returns the top-k items by cosine similarity to the query vector,
// sorted by descending similarity with ties broken by item id ascending.
// An empty index or k<=0 yields an empty result, never an error.
// Returns ErrDimensionMismatch if the query vector has the wrong length.
func (idx *Index) Query(vector []float64, k int) ([]Result, error) {
	if len(vector) != idx.dimension {
		return nil, fmt.Errorf("%w: query has %d components, index dimension %d",
			ErrDimensionMismatch, len(vector), idx.dimension)
	}

	cur := idx.current.Load()
	if k <= 0 || len(cur.entries) == 0 {
		return []Result{}, nil
	}

	qnorm := norm(vector)

	results := make([]Result, 0, len(cur.entries))
	for _, e := range cur.entries {
		results = append(results, Result{
			ID:         e.id,
			Similarity: cosine(vector, qnorm, e.vector, e.norm),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].ID < results[j].ID
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Snapshot returns a deep copy of the index contents keyed by item id.
// Used for persistence; the copy is detached from live generations.
func (idx *Index) Snapshot() map[string][]float64 {
	cur := idx.current.Load()
	out := make(map[string][]float64, len(cur.entries))
	for _, e := range cur.entries {
		v := make([]float64, len(e.vector))
		copy(v, e.vector)
		out[e.id] = v
	}
	return out
}

// Cosine computes the cosine similarity of two equal-length vectors.
// Zero vectors have zero similarity to everything.
func Cosine(a, b []float64) float64 {
	return cosine(a, norm(a), b, norm(b))
}

// clone copies a generation for copy-on-write mutation.
func (g *generation) clone() *generation {
	next := &generation{
		entries: make([]entry, len(g.entries)),
		byID:    make(map[string]int, len(g.byID)),
		version: g.version,
	}
	copy(next.entries, g.entries)
	for id, pos := range g.byID {
		next.byID[id] = pos
	}
	return next
}

// norm computes the Euclidean norm of a vector.
func norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// cosine computes cosine similarity given precomputed norms.
// Zero vectors have zero similarity to everything.
func cosine(a []float64, aNorm float64, b []float64, bNorm float64) float64 {
	if aNorm == 0 || bNorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot / (aNorm * bNorm)
}
