// CourseCompass - Course Discovery and Recommendation Engine
// Copyright 2026 CourseCompass contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursecompass/coursecompass

package catalog

import (
	"sort"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// generation is one immutable snapshot of the catalog contents.
type generation struct {
	byCode  map[string]*Course
	ordered []*Course // sorted by code for deterministic iteration
	version uint64
}

// Store is the in-memory course catalog. Reads are lock-free against the
// current generation; BulkLoad installs a fully-built replacement generation
// atomically, so readers see either the old or the new catalog, never a mix.
type Store struct {
	current atomic.Pointer[generation]
	logger  zerolog.Logger
}

// NewStore creates an empty catalog store.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewStore(logger zerolog.Logger) *Store {
	s := &Store{
		logger: logger.With().Str("component", "catalog").Logger(),
	}
	s.current.Store(&generation{byCode: map[string]*Course{}})
	return s
}

// BulkLoad replaces the catalog contents with the given courses.
// Codes are normalized; later duplicates win. Every loaded course starts
// with cluster -1 (unassigned); SetClusters is the only writer of real
// cluster labels. Returns the number of courses that are not indexable
// (non-empty description but no embedding); those are kept in the catalog
// for metadata lookups but must be skipped by the index.
func (s *Store) BulkLoad(courses []Course) int {
	prev := s.current.Load()

	byCode := make(map[string]*Course, len(courses))
	skipped := 0
	for i := range courses {
		c := courses[i]
		c.Code = NormalizeCode(c.Code)
		if c.Code == "" {
			continue
		}
		c.ClusterID = -1
		if c.Description != "" && !c.Indexable() {
			skipped++
		}
		byCode[c.Code] = &c
	}

	ordered := make([]*Course, 0, len(byCode))
	for _, c := range byCode {
		ordered = append(ordered, c)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Code < ordered[j].Code })

	s.current.Store(&generation{
		byCode:  byCode,
		ordered: ordered,
		version: prev.version + 1,
	})

	s.logger.Info().
		Int("courses", len(byCode)).
		Int("not_indexable", skipped).
		Uint64("version", prev.version+1).
		Msg("catalog loaded")

	return skipped
}

// Get returns the course for a code (normalized first), or nil.
func (s *Store) Get(code string) *Course {
	return s.current.Load().byCode[NormalizeCode(code)]
}

// All returns the courses in code order. The returned slice is shared with
// the current generation and must not be modified.
func (s *Store) All() []*Course {
	return s.current.Load().ordered
}

// Len returns the number of courses in the catalog.
func (s *Store) Len() int {
	return len(s.current.Load().ordered)
}

// Version returns the current catalog generation number.
func (s *Store) Version() uint64 {
	return s.current.Load().version
}

// SetClusters commits a reclustering result: a new generation with the given
// course code -> cluster id assignment applied. Courses absent from the
// assignment get cluster -1. Course records are copied, not mutated, so
// in-flight readers of the previous generation are unaffected.
func (s *Store) SetClusters(assignment map[string]int) {
	prev := s.current.Load()

	byCode := make(map[string]*Course, len(prev.byCode))
	ordered := make([]*Course, 0, len(prev.ordered))
	for _, old := range prev.ordered {
		c := *old
		if id, ok := assignment[c.Code]; ok {
			c.ClusterID = id
		} else {
			c.ClusterID = -1
		}
		byCode[c.Code] = &c
		ordered = append(ordered, &c)
	}

	s.current.Store(&generation{
		byCode:  byCode,
		ordered: ordered,
		version: prev.version + 1,
	})
}

// Departments returns the set of departments present in the catalog.
func (s *Store) Departments() map[string]int {
	counts := make(map[string]int)
	for _, c := range s.current.Load().ordered {
		counts[c.Department]++
	}
	return counts
}
