// CourseCompass - Course Discovery and Recommendation Engine
// Copyright 2026 CourseCompass contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursecompass/coursecompass

// Package cluster groups course embeddings with seeded k-means.
//
// Cluster assignments feed serendipity scoring and the cluster browsing
// endpoint. Runs are deterministic: the same vectors, seed, and k always
// produce the same assignment.
package cluster

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// ErrInsufficientData is returned when fewer vectors than clusters are supplied.
var ErrInsufficientData = errors.New("insufficient data for clustering")

// Config controls a clustering run.
type Config struct {
	// Clusters is the number of clusters (k).
	Clusters int `json:"clusters"`

	// MaxIterations caps Lloyd iterations when convergence is slow.
	MaxIterations int `json:"max_iterations"`

	// Seed initializes centroid selection for reproducible runs.
	Seed int64 `json:"seed"`
}

// DefaultConfig returns the standard clustering configuration.
func DefaultConfig() Config {
	return Config{
		Clusters:      50,
		MaxIterations: 100,
		Seed:          42, // Default seed for determinism
	}
}

// Validate checks configuration bounds.
func (c Config) Validate() error {
	if c.Clusters < 1 {
		return fmt.Errorf("clusters must be at least 1, got %d", c.Clusters)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("max iterations must be at least 1, got %d", c.MaxIterations)
	}
	return nil
}

// Assignment is the result of a clustering run.
type Assignment struct {
	// ByID maps item id to cluster label in [0, Clusters).
	ByID map[string]int `json:"by_id"`

	// Centroids holds the final cluster centers.
	Centroids [][]float64 `json:"centroids"`

	// Iterations is the number of Lloyd iterations performed.
	Iterations int `json:"iterations"`
}

// Cluster returns the member ids of one cluster in ascending order.
func (a *Assignment) Cluster(label int) []string {
	var members []string
	for id, l := range a.ByID {
		if l == label {
			members = append(members, id)
		}
	}
	sort.Strings(members)
	return members
}

// Size returns the number of clusters.
func (a *Assignment) Size() int {
	return len(a.Centroids)
}

// Fit runs seeded k-means over the given vectors.
// Returns ErrInsufficientData when len(vectors) < cfg.Clusters.
func Fit(vectors map[string][]float64, cfg Config) (*Assignment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(vectors) < cfg.Clusters {
		return nil, fmt.Errorf("%w: %d vectors for %d clusters", ErrInsufficientData, len(vectors), cfg.Clusters)
	}

	// Deterministic iteration order over map input.
	ids := make([]string, 0, len(vectors))
	for id := range vectors {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	dim := len(vectors[ids[0]])
	for _, id := range ids {
		if len(vectors[id]) != dim {
			return nil, fmt.Errorf("inconsistent vector dimensions: item %s has %d, expected %d", id, len(vectors[id]), dim)
		}
	}

	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // deterministic clustering, not crypto

	centroids := initCentroids(ids, vectors, cfg.Clusters, rng)
	labels := make([]int, len(ids))

	iterations := 0
	for ; iterations < cfg.MaxIterations; iterations++ {
		changed := assignAll(ids, vectors, centroids, labels)
		recompute(ids, vectors, centroids, labels, dim)
		if !changed {
			iterations++
			break
		}
	}

	byID := make(map[string]int, len(ids))
	for i, id := range ids {
		byID[id] = labels[i]
	}

	return &Assignment{
		ByID:       byID,
		Centroids:  centroids,
		Iterations: iterations,
	}, nil
}

// initCentroids picks k distinct items as initial centers.
func initCentroids(ids []string, vectors map[string][]float64, k int, rng *rand.Rand) [][]float64 {
	perm := rng.Perm(len(ids))
	centroids := make([][]float64, k)
	for i := 0; i < k; i++ {
		src := vectors[ids[perm[i]]]
		c := make([]float64, len(src))
		copy(c, src)
		centroids[i] = c
	}
	return centroids
}

// assignAll labels every item with its nearest centroid.
// Reports whether any label changed.
func assignAll(ids []string, vectors map[string][]float64, centroids [][]float64, labels []int) bool {
	changed := false
	for i, id := range ids {
		best := nearest(vectors[id], centroids)
		if labels[i] != best {
			labels[i] = best
			changed = true
		}
	}
	return changed
}

// nearest returns the index of the closest centroid by squared Euclidean
// distance, ties broken by lowest index.
func nearest(v []float64, centroids [][]float64) int {
	best := 0
	bestDist := math.Inf(1)
	for i, c := range centroids {
		d := sqDist(v, c)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// recompute moves each centroid to the mean of its members.
// Empty clusters keep their previous center.
func recompute(ids []string, vectors map[string][]float64, centroids [][]float64, labels []int, dim int) {
	sums := make([][]float64, len(centroids))
	counts := make([]int, len(centroids))
	for i := range sums {
		sums[i] = make([]float64, dim)
	}

	for i, id := range ids {
		l := labels[i]
		counts[l]++
		for d, x := range vectors[id] {
			sums[l][d] += x
		}
	}

	for i := range centroids {
		if counts[i] == 0 {
			continue
		}
		for d := range centroids[i] {
			centroids[i][d] = sums[i][d] / float64(counts[i])
		}
	}
}

// sqDist computes squared Euclidean distance.
func sqDist(a, b []float64) float64 {
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}
