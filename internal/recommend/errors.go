// CourseCompass - Course Discovery and Recommendation Engine
// Copyright 2026 CourseCompass contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursecompass/coursecompass

package recommend

import "errors"

// Sentinel errors returned by the recommendation engine. API handlers map
// these onto stable response codes.
var (
	// ErrEmptyProfile indicates the profile carries no favorites, interests,
	// or completed courses, so no query vector can be seeded.
	ErrEmptyProfile = errors.New("profile has no favorites, interests, or completed courses")

	// ErrInvalidWeights indicates factor weights are negative or sum to a
	// non-positive total.
	ErrInvalidWeights = errors.New("invalid factor weights")

	// ErrNoEligibleCandidates indicates the vector index is empty. An empty
	// ranked list after normal filtering is a successful result, not this error.
	ErrNoEligibleCandidates = errors.New("vector index is empty")

	// ErrUnknownMode indicates an unrecognized recommendation mode.
	ErrUnknownMode = errors.New("unknown recommendation mode")

	// ErrCourseNotFound indicates a referenced course code is not in the catalog.
	ErrCourseNotFound = errors.New("course not found")
)
