// CourseCompass - Course Discovery and Recommendation Engine
// Copyright 2026 CourseCompass contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursecompass/coursecompass

package prereq

import (
	"reflect"
	"strings"
	"testing"
)

func TestParse_Empty(t *testing.T) {
	t.Parallel()

	expr, err := Parse("")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if expr.Root != nil {
		t.Error("expected nil root for empty text")
	}
	if len(expr.Warnings) != 0 {
		t.Errorf("expected no warnings for empty text, got %v", expr.Warnings)
	}
}

func TestParse_SingleCourse(t *testing.T) {
	t.Parallel()

	expr, err := Parse("CS 135")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if expr.Root == nil || expr.Root.Kind != KindLiteral || expr.Root.Code != "CS 135" {
		t.Fatalf("expected literal CS 135, got %+v", expr.Root)
	}
}

func TestParse_NoSpaceAndLowercase(t *testing.T) {
	t.Parallel()

	expr, err := Parse("cs135")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if expr.Root == nil || expr.Root.Code != "CS 135" {
		t.Fatalf("expected canonical CS 135, got %+v", expr.Root)
	}
}

func TestParse_Disjunction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
	}{
		{name: "or keyword", text: "CS 135 or CS 145"},
		{name: "slash", text: "CS 135/CS 145"},
		{name: "either", text: "either CS 135, CS 145"},
		{name: "one of", text: "One of CS 135, CS 145"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			expr, err := Parse(tt.text)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if expr.Root == nil || expr.Root.Kind != KindAny {
				t.Fatalf("expected any-node, got %+v", expr.Root)
			}
			if len(expr.Root.Children) != 2 {
				t.Fatalf("expected 2 alternatives, got %d", len(expr.Root.Children))
			}
		})
	}
}

func TestParse_Conjunction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
	}{
		{name: "and keyword", text: "CS 135 and MATH 137"},
		{name: "semicolon", text: "CS 135; MATH 137"},
		{name: "comma list", text: "CS 135, MATH 137"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			expr, err := Parse(tt.text)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if expr.Root == nil || expr.Root.Kind != KindAll {
				t.Fatalf("expected all-node, got %+v", expr.Root)
			}
			if len(expr.Root.Children) != 2 {
				t.Fatalf("expected 2 requirements, got %d", len(expr.Root.Children))
			}
		})
	}
}

func TestParse_MixedAndOfOrs(t *testing.T) {
	t.Parallel()

	expr, err := Parse("One of CS 116, CS 136, CS 145; MATH 135 or MATH 145")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if expr.Root == nil || expr.Root.Kind != KindAll {
		t.Fatalf("expected all-node root, got %+v", expr.Root)
	}
	if len(expr.Root.Children) != 2 {
		t.Fatalf("expected 2 conjuncts, got %d", len(expr.Root.Children))
	}
	for i, child := range expr.Root.Children {
		if child.Kind != KindAny {
			t.Errorf("conjunct %d: expected any-node, got %s", i, child.Kind)
		}
	}
}

func TestParse_UnrecognizableFallsBack(t *testing.T) {
	t.Parallel()

	expr, err := Parse("Instructor consent required")
	if err != nil {
		t.Fatalf("Parse should degrade gracefully, got %v", err)
	}
	if expr.Root != nil {
		t.Error("expected nil root for unrecognizable text")
	}
	if len(expr.Warnings) == 0 {
		t.Error("expected a degradation warning")
	}
}

func TestParse_GradeAndLevelAdvisories(t *testing.T) {
	t.Parallel()

	expr, err := Parse("CS 246 with a grade of at least 60%; Level at least 2A")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if expr.Root == nil || expr.Root.Code != "CS 246" {
		t.Fatalf("expected literal CS 246, got %+v", expr.Root)
	}

	joined := strings.Join(expr.Warnings, " | ")
	if !strings.Contains(joined, "minimum grade requirement: 60%") {
		t.Errorf("expected grade warning, got %v", expr.Warnings)
	}
	if !strings.Contains(joined, "level requirement: at least 2A") {
		t.Errorf("expected level warning, got %v", expr.Warnings)
	}
}

func TestParse_DeduplicatesReferences(t *testing.T) {
	t.Parallel()

	expr, err := Parse("CS 135 or CS135")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if expr.Root == nil || expr.Root.Kind != KindLiteral {
		t.Fatalf("expected duplicate references collapsed to one literal, got %+v", expr.Root)
	}
}

func TestEvaluate_OrSatisfied(t *testing.T) {
	t.Parallel()

	expr := mustParse(t, "CS 135 OR CS 145")
	eval := Evaluate(expr, completed("CS 145"))

	if !eval.Eligible {
		t.Error("expected eligible with one alternative completed")
	}
	if len(eval.Missing) != 0 {
		t.Errorf("expected empty missing, got %v", eval.Missing)
	}
}

func TestEvaluate_AndPartial(t *testing.T) {
	t.Parallel()

	expr := mustParse(t, "CS 135 AND MATH 137")
	eval := Evaluate(expr, completed("CS 135"))

	if eval.Eligible {
		t.Error("expected ineligible with one requirement missing")
	}
	want := [][]string{{"MATH 137"}}
	if !reflect.DeepEqual(eval.Missing, want) {
		t.Errorf("expected missing %v, got %v", want, eval.Missing)
	}
}

func TestEvaluate_AndBothMissing(t *testing.T) {
	t.Parallel()

	expr := mustParse(t, "CS 135 AND MATH 137")
	eval := Evaluate(expr, completed())

	if eval.Eligible {
		t.Error("expected ineligible")
	}
	if len(eval.Missing) != 2 {
		t.Fatalf("expected both requirements reported, got %v", eval.Missing)
	}
}

func TestEvaluate_OrUnsatisfiedReportsSmallestAlternative(t *testing.T) {
	t.Parallel()

	// Both alternatives are single literals; ties break lexicographically.
	expr := mustParse(t, "CS 135 or CS 145")
	eval := Evaluate(expr, completed())

	if eval.Eligible {
		t.Error("expected ineligible")
	}
	want := [][]string{{"CS 135"}}
	if !reflect.DeepEqual(eval.Missing, want) {
		t.Errorf("expected missing %v, got %v", want, eval.Missing)
	}
}

func TestEvaluate_NilExpression(t *testing.T) {
	t.Parallel()

	eval := Evaluate(nil, completed())
	if !eval.Eligible {
		t.Error("expected nil expression to be eligible")
	}

	eval = Evaluate(&Expression{}, completed())
	if !eval.Eligible {
		t.Error("expected empty expression to be eligible")
	}
}

func TestEvaluate_MissingEmptyIffEligible(t *testing.T) {
	t.Parallel()

	expr := mustParse(t, "CS 135; MATH 135 or MATH 145")

	tests := []struct {
		name         string
		completed    map[string]bool
		wantEligible bool
	}{
		{name: "all satisfied", completed: completed("CS 135", "MATH 145"), wantEligible: true},
		{name: "or missing", completed: completed("CS 135"), wantEligible: false},
		{name: "and missing", completed: completed("MATH 135"), wantEligible: false},
		{name: "none", completed: completed(), wantEligible: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			eval := Evaluate(expr, tt.completed)
			if eval.Eligible != tt.wantEligible {
				t.Errorf("Eligible = %v, want %v", eval.Eligible, tt.wantEligible)
			}
			if eval.Eligible != (len(eval.Missing) == 0) {
				t.Errorf("missing must be empty iff eligible, got eligible=%v missing=%v",
					eval.Eligible, eval.Missing)
			}
		})
	}
}

func TestEvaluate_PropagatesWarnings(t *testing.T) {
	t.Parallel()

	expr := mustParse(t, "CS 246 with a grade of at least 60%")
	eval := Evaluate(expr, completed("CS 246"))

	if !eval.Eligible {
		t.Error("expected eligible, grade qualifiers are advisory")
	}
	if len(eval.Warnings) == 0 {
		t.Error("expected grade warning propagated to evaluation")
	}
}

func TestSuggestPath_OrdersByTierThenCode(t *testing.T) {
	t.Parallel()

	expr := mustParse(t, "CS 341 and CS 136 and MATH 239 and CS 245")
	path := SuggestPath(expr, completed())

	want := []string{"CS 136", "CS 245", "MATH 239", "CS 341"}
	if !reflect.DeepEqual(path, want) {
		t.Errorf("expected %v, got %v", want, path)
	}
}

func TestSuggestPath_EligibleReturnsNil(t *testing.T) {
	t.Parallel()

	expr := mustParse(t, "CS 135")
	if path := SuggestPath(expr, completed("CS 135")); path != nil {
		t.Errorf("expected nil path when eligible, got %v", path)
	}
}

func mustParse(t *testing.T, text string) *Expression {
	t.Helper()

	expr, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse(%q): %v", text, err)
	}
	return expr
}

func completed(codes ...string) map[string]bool {
	set := make(map[string]bool, len(codes))
	for _, c := range codes {
		set[c] = true
	}
	return set
}
