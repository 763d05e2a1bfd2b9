// CourseCompass - Course Discovery and Recommendation Engine
// Copyright 2026 CourseCompass contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursecompass/coursecompass

// Package catalog holds the course catalog: immutable course records keyed by
// canonical course code, loaded in bulk from the ingestion pipeline.
package catalog

import (
	"regexp"
	"strings"
)

// Term identifies when a course is offered.
type Term string

// Recognized terms.
const (
	TermFall   Term = "Fall"
	TermWinter Term = "Winter"
	TermSpring Term = "Spring"
)

// Course is a single catalog entry. Courses are immutable once indexed;
// only the ClusterID changes, and only during a full reclustering pass.
type Course struct {
	// Code is the canonical course code, e.g. "CS 135".
	Code string `json:"code" validate:"required,coursecode"`

	// Title is the course title.
	Title string `json:"title" validate:"required"`

	// Description is the calendar description used for embedding.
	Description string `json:"description"`

	// Credits is the credit weight (e.g. 0.5).
	Credits float64 `json:"credits" validate:"gte=0"`

	// Prerequisites is the raw prerequisite text, possibly empty.
	Prerequisites string `json:"prerequisites,omitempty"`

	// Corequisites is the raw corequisite text, possibly empty.
	Corequisites string `json:"corequisites,omitempty"`

	// Antirequisites is the raw antirequisite text, possibly empty.
	Antirequisites string `json:"antirequisites,omitempty"`

	// TermsOffered lists the terms the course is typically offered.
	TermsOffered []Term `json:"terms_offered,omitempty"`

	// Department is the offering department code, e.g. "CS".
	Department string `json:"department" validate:"required"`

	// Level is the difficulty tier: 100, 200, 300, 400, 500.
	Level int `json:"level" validate:"gte=100,lte=900"`

	// Embedding is the semantic vector for the course description.
	// Required before the course is eligible for indexing when the
	// description is non-empty.
	Embedding []float64 `json:"embedding,omitempty"`

	// ClusterID is the topic cluster assigned by the clusterer.
	// Valid only within one clustering generation; -1 means unassigned.
	ClusterID int `json:"cluster_id"`
}

// YearTier returns the course level as a year tier (100 -> 1, 400 -> 4).
func (c *Course) YearTier() int {
	if c.Level < 100 {
		return 1
	}
	return c.Level / 100
}

// Indexable reports whether the course may enter the vector index.
// A course with a non-empty description must carry an embedding.
func (c *Course) Indexable() bool {
	return len(c.Embedding) > 0
}

// codePattern matches course codes in free-form input: a department prefix of
// 2-5 letters followed by a 3-digit number with an optional letter suffix.
var codePattern = regexp.MustCompile(`^([A-Z]{2,5})\s*(\d{3}[A-Z]?)$`)

// NormalizeCode converts a course code to canonical "DEPT NNN" form.
// Accepts "CS135", "cs 135", "cs-135" and similar variants. Input that does
// not look like a course code is uppercased and whitespace-trimmed as-is.
func NormalizeCode(code string) string {
	cleaned := strings.ToUpper(strings.TrimSpace(code))
	cleaned = strings.NewReplacer("-", " ", "_", " ", ".", " ").Replace(cleaned)
	cleaned = strings.Join(strings.Fields(cleaned), " ")

	compact := strings.ReplaceAll(cleaned, " ", "")
	if m := codePattern.FindStringSubmatch(compact); m != nil {
		return m[1] + " " + m[2]
	}
	if m := codePattern.FindStringSubmatch(cleaned); m != nil {
		return m[1] + " " + m[2]
	}
	return cleaned
}

// NormalizeCodes normalizes a set of course codes, dropping empties and
// duplicates while preserving first-seen order.
func NormalizeCodes(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		n := NormalizeCode(c)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// CodeSet builds a membership set of normalized course codes.
func CodeSet(codes []string) map[string]struct{} {
	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		n := NormalizeCode(c)
		if n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}
