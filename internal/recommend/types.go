// CourseCompass - Course Discovery and Recommendation Engine
// Copyright 2026 CourseCompass contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursecompass/coursecompass

// Package recommend implements the course recommendation engine: candidate
// generation from the vector index, per-course prerequisite evaluation,
// multi-factor scoring, and diversity-aware ranking.
package recommend

import (
	"time"

	"github.com/coursecompass/coursecompass/internal/catalog"
	"github.com/coursecompass/coursecompass/internal/recommend/prereq"
)

// Mode selects which scoring factors participate and whether callers may
// override weights.
type Mode string

// Recognized recommendation modes.
const (
	// ModeBasic scores with similarity and prerequisite readiness only.
	ModeBasic Mode = "basic"

	// ModeAdvanced scores with all six factors at default weights.
	ModeAdvanced Mode = "advanced"

	// ModeSuperAdvanced scores with all six factors and accepts
	// caller-supplied weight overrides.
	ModeSuperAdvanced Mode = "super_advanced"
)

// Candidate source tags, surfaced in results so callers can see why a course
// entered the pool.
const (
	SourceFavorite    = "favorite_similarity"
	SourceInterest    = "interest_match"
	SourceLevel       = "level_match"
	SourceSerendipity = "serendipity_discovery"
)

// Profile describes the student a recommendation is for. Profiles are
// request-scoped and never persisted.
type Profile struct {
	// Program is the student's program name, informational only.
	Program string `json:"program" validate:"max=120"`

	// Year is the current academic year, 1 through 5 or higher.
	// Zero means unknown.
	Year int `json:"year" validate:"omitempty,gte=1,lte=8"`

	// GPA is the optional grade point average on a 4.0 scale. When absent,
	// difficulty fit scores a neutral value.
	GPA *float64 `json:"gpa,omitempty" validate:"omitempty,gte=0,lte=4"`

	// Interests holds free-text interest phrases embedded as query seeds.
	Interests []string `json:"interests,omitempty" validate:"max=20,dive,min=1,max=200"`

	// Completed lists completed course codes. Normalized before lookup.
	Completed []string `json:"completed,omitempty" validate:"max=200,dive,coursecode"`

	// Favorites lists favorite course codes used as similarity seeds.
	Favorites []string `json:"favorites,omitempty" validate:"max=50,dive,coursecode"`
}

// IsEmpty reports whether the profile has nothing to seed a query from.
func (p *Profile) IsEmpty() bool {
	return len(p.Favorites) == 0 && len(p.Interests) == 0 && len(p.Completed) == 0
}

// Request is one recommendation request.
type Request struct {
	// Profile is the student profile to recommend for.
	Profile Profile `json:"profile"`

	// Mode selects the factor set. Empty uses the configured default.
	Mode Mode `json:"mode,omitempty" validate:"omitempty,oneof=basic advanced super_advanced"`

	// WeightOverrides adjusts factor weights by name. Honored only in
	// super_advanced mode; weights are normalized to sum to 1.
	WeightOverrides map[string]float64 `json:"weight_overrides,omitempty"`

	// IncludeMissingPrereqs keeps ineligible courses in the ranked output,
	// annotated with their missing requirements, instead of filtering them.
	IncludeMissingPrereqs bool `json:"include_missing_prereqs,omitempty"`

	// Limit caps the ranked output length. Zero uses the configured default.
	Limit int `json:"limit,omitempty" validate:"gte=0"`
}

// ScoredCourse is one ranked recommendation with its scoring breakdown.
type ScoredCourse struct {
	// Code is the canonical course code.
	Code string `json:"code"`

	// Title is the course title.
	Title string `json:"title"`

	// Department is the offering department.
	Department string `json:"department"`

	// Level is the difficulty tier (100-500).
	Level int `json:"level"`

	// Score is the weighted composite in [0,1].
	Score float64 `json:"score"`

	// Scores breaks the composite down by factor name, each in [0,1].
	Scores map[string]float64 `json:"scores"`

	// Confidence expresses how much to trust this recommendation, in
	// [0.1, 0.95]. High composites with agreeing factors score higher.
	Confidence float64 `json:"confidence"`

	// Reason names the top contributing factors in prose.
	Reason string `json:"reason"`

	// Source tags how the course entered the candidate pool.
	Source string `json:"source"`

	// Eligible reports whether prerequisites are satisfied.
	Eligible bool `json:"eligible"`

	// MissingPrereqs lists minimal unsatisfied requirement groups when
	// ineligible. Each group is closed by completing all codes in it.
	MissingPrereqs [][]string `json:"missing_prereqs,omitempty"`

	// Warnings carries advisory prerequisite conditions (grade minimums,
	// level restrictions).
	Warnings []string `json:"warnings,omitempty"`
}

// ResponseMetadata describes how a response was produced.
type ResponseMetadata struct {
	// Mode is the effective mode used.
	Mode Mode `json:"mode"`

	// Weights is the normalized factor weighting applied.
	Weights map[string]float64 `json:"weights"`

	// IndexVersion is the index generation the response was computed against.
	IndexVersion uint64 `json:"index_version"`

	// CandidateCount is the pool size before ranking.
	CandidateCount int `json:"candidate_count"`

	// Cached reports whether the response was served from the response cache.
	Cached bool `json:"cached"`

	// Took is the server-side processing duration.
	Took time.Duration `json:"took"`
}

// Response is a ranked recommendation list with provenance metadata.
type Response struct {
	// Courses is the ranked output, best first.
	Courses []ScoredCourse `json:"courses"`

	// Metadata describes the computation.
	Metadata ResponseMetadata `json:"metadata"`

	// Warnings carries request-level degradations, such as interests that
	// could not be embedded.
	Warnings []string `json:"warnings,omitempty"`
}

// SimilarCourse is one hit from a course-to-course similarity lookup.
type SimilarCourse struct {
	Code       string  `json:"code"`
	Title      string  `json:"title"`
	Department string  `json:"department"`
	Level      int     `json:"level"`
	Similarity float64 `json:"similarity"`
}

// EligibilityResult is the outcome of checking one course against a
// completed-course set.
type EligibilityResult struct {
	// Code is the canonical course code checked.
	Code string `json:"code"`

	// Eligible reports whether prerequisites are satisfied.
	Eligible bool `json:"eligible"`

	// Missing lists minimal unsatisfied requirement groups.
	Missing [][]string `json:"missing,omitempty"`

	// SuggestedPath orders the missing prerequisites for planning,
	// lower-level courses first. Advisory only.
	SuggestedPath []string `json:"suggested_path,omitempty"`

	// Warnings carries advisory conditions from the prerequisite text.
	Warnings []string `json:"warnings,omitempty"`
}

// candidate is a pool entry carrying evaluation state through the pipeline.
type candidate struct {
	course     *catalog.Course
	similarity float64 // cosine similarity to the profile centroid, in [-1,1]
	source     string

	// Filled during the evaluation stage.
	eval          prereq.Evaluation
	requiredCount int // literal count in the prerequisite expression
}
