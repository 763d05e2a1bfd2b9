// CourseCompass - Course Discovery and Recommendation Engine
// Copyright 2026 CourseCompass contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursecompass/coursecompass

// Package prereq parses prerequisite text into boolean expression trees and
// evaluates them against a student's completed courses.
//
// Prerequisite text is natural-language-adjacent ("CS 135 or CS 145; MATH 137"),
// so parsing degrades gracefully: text that yields no recognizable course
// references is treated as "no prerequisites" with a warning rather than
// blocking recommendations. Level restrictions and minimum-grade qualifiers
// are surfaced as advisory warnings, never as hard eligibility blocks.
package prereq

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ErrUnparsableExpression is returned only when prerequisite text is present
// but structurally corrupt beyond the graceful fallback. Callers should treat
// it as "assume no prerequisites" with reduced confidence.
var ErrUnparsableExpression = errors.New("unparsable prerequisite expression")

// NodeKind discriminates expression tree nodes.
type NodeKind string

const (
	// KindLiteral is a single course-code requirement.
	KindLiteral NodeKind = "literal"

	// KindAll requires every child to be satisfied.
	KindAll NodeKind = "all"

	// KindAny requires at least one child to be satisfied.
	KindAny NodeKind = "any"
)

// Node is one node of a prerequisite expression tree.
type Node struct {
	// Kind selects which fields are meaningful.
	Kind NodeKind `json:"kind"`

	// Code is the canonical course code for KindLiteral nodes.
	Code string `json:"code,omitempty"`

	// Children holds subexpressions for KindAll and KindAny nodes.
	Children []*Node `json:"children,omitempty"`
}

// Expression is a parsed prerequisite with parse-time advisories attached.
type Expression struct {
	// Root is nil when the course has no (recognizable) prerequisites.
	Root *Node `json:"root,omitempty"`

	// Raw preserves the original text for display and re-parse detection.
	Raw string `json:"raw"`

	// Warnings carries advisory conditions that do not block eligibility,
	// such as minimum-grade or level restrictions, plus parse degradations.
	Warnings []string `json:"warnings,omitempty"`
}

// Evaluation is the outcome of checking an expression against completed courses.
type Evaluation struct {
	// Eligible reports whether the expression is satisfied.
	Eligible bool `json:"eligible"`

	// Missing lists minimal unsatisfied groups. Each group is a set of
	// course codes; completing every code in any single group closes that
	// group. Empty iff Eligible.
	Missing [][]string `json:"missing,omitempty"`

	// Warnings echoes parse-time advisories.
	Warnings []string `json:"warnings,omitempty"`
}

// courseRefRegex matches course references like "CS 135", "MATH135", "CS 145L".
var courseRefRegex = regexp.MustCompile(`([A-Z]{2,5})\s*(\d{3}[A-Z]?)`)

// minGradeRegex matches minimum-grade qualifiers like "at least 60%" or
// "a grade of 70".
var minGradeRegex = regexp.MustCompile(`(?i)(?:at least|minimum(?:\s+grade)?\s+of|grade of(?:\s+at least)?)\s+(\d{2,3})\s*%?`)

// levelRegex matches academic-level restrictions like "Level at least 2A".
var levelRegex = regexp.MustCompile(`(?i)level\s+at\s+least\s+(\d[AB]?)`)

// conjunctSplitRegex splits text into top-level AND segments. Commas stay
// inside segments so list forms like "One of CS 116, CS 136" keep their
// disjunctive reading.
var conjunctSplitRegex = regexp.MustCompile(`(?i);|,?\s+and\s+`)

// orKeywordRegex detects disjunction markers inside a segment.
var orKeywordRegex = regexp.MustCompile(`(?i)\bor\b|/|\beither\b|\bone of\b`)

// Parse converts raw prerequisite text into an expression tree.
//
// Segments separated by semicolons or "and" combine with AND; course
// references inside a segment containing "or", "/", "either", or "one of"
// combine with OR, otherwise with AND. Text with no recognizable course
// references parses to an empty expression with a warning.
func Parse(raw string) (*Expression, error) {
	expr := &Expression{Raw: raw}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return expr, nil
	}

	expr.Warnings = append(expr.Warnings, collectAdvisories(trimmed)...)

	var conjuncts []*Node
	for _, segment := range conjunctSplitRegex.Split(trimmed, -1) {
		node := parseSegment(segment)
		if node != nil {
			conjuncts = append(conjuncts, node)
		}
	}

	switch len(conjuncts) {
	case 0:
		expr.Warnings = append(expr.Warnings,
			"prerequisite text could not be interpreted, treating as no prerequisites")
	case 1:
		expr.Root = conjuncts[0]
	default:
		expr.Root = &Node{Kind: KindAll, Children: conjuncts}
	}

	return expr, nil
}

// parseSegment builds a node for one AND-separated segment, or nil when the
// segment contains no course references.
func parseSegment(segment string) *Node {
	matches := courseRefRegex.FindAllStringSubmatch(strings.ToUpper(segment), -1)
	if len(matches) == 0 {
		return nil
	}

	literals := make([]*Node, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		code := m[1] + " " + m[2]
		if seen[code] {
			continue
		}
		seen[code] = true
		literals = append(literals, &Node{Kind: KindLiteral, Code: code})
	}

	if len(literals) == 1 {
		return literals[0]
	}

	// Multiple references in one segment: "or" markers make alternatives,
	// otherwise all are required.
	if orKeywordRegex.MatchString(segment) {
		return &Node{Kind: KindAny, Children: literals}
	}
	return &Node{Kind: KindAll, Children: literals}
}

// collectAdvisories extracts grade and level qualifiers as warnings.
func collectAdvisories(text string) []string {
	var warnings []string

	for _, m := range minGradeRegex.FindAllStringSubmatch(text, -1) {
		if grade, err := strconv.Atoi(m[1]); err == nil && grade >= 40 && grade <= 100 {
			warnings = append(warnings, fmt.Sprintf("minimum grade requirement: %d%%", grade))
		}
	}

	for _, m := range levelRegex.FindAllStringSubmatch(text, -1) {
		warnings = append(warnings, fmt.Sprintf("level requirement: at least %s", strings.ToUpper(m[1])))
	}

	if strings.Contains(strings.ToLower(text), "students only") {
		warnings = append(warnings, "program restriction: "+strings.TrimSpace(text))
	}

	return warnings
}

// Evaluate checks an expression against a set of completed course codes.
// Codes in completed must already be in canonical form (uppercase,
// single-space separated); use catalog.NormalizeCode for raw input.
func Evaluate(expr *Expression, completed map[string]bool) Evaluation {
	eval := Evaluation{Eligible: true}
	if expr != nil {
		eval.Warnings = expr.Warnings
	}
	if expr == nil || expr.Root == nil {
		return eval
	}

	satisfied, missing := walk(expr.Root, completed)
	eval.Eligible = satisfied
	if !satisfied {
		eval.Missing = missing
	}
	return eval
}

// walk evaluates a node, returning satisfaction and the minimal missing
// groups when unsatisfied.
func walk(node *Node, completed map[string]bool) (bool, [][]string) {
	switch node.Kind {
	case KindLiteral:
		if completed[node.Code] {
			return true, nil
		}
		return false, [][]string{{node.Code}}

	case KindAll:
		var missing [][]string
		satisfied := true
		for _, child := range node.Children {
			ok, childMissing := walk(child, completed)
			if !ok {
				satisfied = false
				missing = append(missing, childMissing...)
			}
		}
		return satisfied, missing

	case KindAny:
		// Satisfied if any alternative holds; otherwise report the
		// smallest unsatisfied alternative, ties broken lexicographically.
		var best [][]string
		bestSize := -1
		for _, child := range node.Children {
			ok, childMissing := walk(child, completed)
			if ok {
				return true, nil
			}
			size := groupSize(childMissing)
			if bestSize == -1 || size < bestSize ||
				(size == bestSize && lessGroups(childMissing, best)) {
				best = childMissing
				bestSize = size
			}
		}
		return false, best

	default:
		return true, nil
	}
}

// groupSize counts the literals across a set of missing groups.
func groupSize(groups [][]string) int {
	n := 0
	for _, g := range groups {
		n += len(g)
	}
	return n
}

// lessGroups compares flattened missing groups lexicographically.
func lessGroups(a, b [][]string) bool {
	return strings.Join(flatten(a), "|") < strings.Join(flatten(b), "|")
}

func flatten(groups [][]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// SuggestPath returns a best-effort ordering of the missing prerequisites in
// an expression, lower-level courses first as a proxy for dependency depth,
// ties broken lexicographically. Advisory only.
func SuggestPath(expr *Expression, completed map[string]bool) []string {
	eval := Evaluate(expr, completed)
	if eval.Eligible {
		return nil
	}

	seen := make(map[string]bool)
	var codes []string
	for _, group := range eval.Missing {
		for _, code := range group {
			if !seen[code] {
				seen[code] = true
				codes = append(codes, code)
			}
		}
	}

	sort.Slice(codes, func(i, j int) bool {
		ti, tj := codeTier(codes[i]), codeTier(codes[j])
		if ti != tj {
			return ti < tj
		}
		return codes[i] < codes[j]
	})
	return codes
}

// codeTier extracts the hundreds tier from a canonical course code.
// Unparsable codes sort last.
func codeTier(code string) int {
	m := courseRefRegex.FindStringSubmatch(code)
	if m == nil {
		return 1 << 20
	}
	num, err := strconv.Atoi(strings.TrimRight(m[2], "ABCDEFGHIJKLMNOPQRSTUVWXYZ"))
	if err != nil {
		return 1 << 20
	}
	return num / 100
}
