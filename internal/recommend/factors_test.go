// CourseCompass - Course Discovery and Recommendation Engine
// Copyright 2026 CourseCompass contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursecompass/coursecompass

package recommend

import (
	"math"
	"testing"

	"github.com/coursecompass/coursecompass/internal/catalog"
	"github.com/coursecompass/coursecompass/internal/recommend/prereq"
)

func testContext(profile *Profile, seen []*catalogCourseRef) *scoringContext {
	completed := make(map[string]bool, len(profile.Completed))
	for _, c := range profile.Completed {
		completed[c] = true
	}
	return newScoringContext(profile, completed, seen)
}

func courseCandidate(course catalog.Course) *candidate {
	return &candidate{course: &course, eval: prereq.Evaluation{Eligible: true}}
}

func TestSimilarityFactor_Rescaling(t *testing.T) {
	t.Parallel()

	sctx := testContext(&Profile{Year: 1}, nil)
	f := similarityFactor{}

	tests := []struct {
		similarity float64
		want       float64
	}{
		{similarity: 1, want: 1},
		{similarity: 0, want: 0.5},
		{similarity: -1, want: 0},
		{similarity: 0.5, want: 0.75},
	}

	for _, tt := range tests {
		c := courseCandidate(catalog.Course{Code: "CS 135"})
		c.similarity = tt.similarity
		if got := f.Score(sctx, c); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("similarity %f: expected %f, got %f", tt.similarity, tt.want, got)
		}
	}
}

func TestReadinessFactor(t *testing.T) {
	t.Parallel()

	sctx := testContext(&Profile{Year: 1}, nil)
	f := readinessFactor{}

	eligible := courseCandidate(catalog.Course{Code: "CS 135"})
	if got := f.Score(sctx, eligible); got != 1.0 {
		t.Errorf("eligible course: expected 1.0, got %f", got)
	}

	// One of three requirements missing.
	partial := courseCandidate(catalog.Course{Code: "CS 341"})
	partial.eval = prereq.Evaluation{Eligible: false, Missing: [][]string{{"CS 240"}}}
	partial.requiredCount = 3
	want := 1.0 - 1.0/3.0
	if got := f.Score(sctx, partial); math.Abs(got-want) > 1e-9 {
		t.Errorf("partial readiness: expected %f, got %f", want, got)
	}

	// Everything missing floors at 0.
	none := courseCandidate(catalog.Course{Code: "CS 452"})
	none.eval = prereq.Evaluation{Eligible: false, Missing: [][]string{{"CS 350"}, {"CS 343"}}}
	none.requiredCount = 2
	if got := f.Score(sctx, none); got != 0 {
		t.Errorf("fully missing: expected 0, got %f", got)
	}
}

func TestProgressionFactor(t *testing.T) {
	t.Parallel()

	sctx := testContext(&Profile{Year: 2}, nil)
	f := progressionFactor{}

	tests := []struct {
		level int
		want  float64
	}{
		{level: 200, want: 1.0},  // exact match
		{level: 300, want: 0.8},  // natural next step
		{level: 100, want: 0.7},  // one behind
		{level: 400, want: 0.4},  // two ahead
		{level: 500, want: 0.1},  // three ahead, floored
	}

	for _, tt := range tests {
		c := courseCandidate(catalog.Course{Code: "X 000", Level: tt.level})
		if got := f.Score(sctx, c); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("level %d for year 2: expected %f, got %f", tt.level, tt.want, got)
		}
	}
}

func TestProgressionFactor_YearClamped(t *testing.T) {
	t.Parallel()

	// Year 7 clamps to tier 5.
	sctx := testContext(&Profile{Year: 7}, nil)
	f := progressionFactor{}

	c := courseCandidate(catalog.Course{Code: "X 000", Level: 500})
	if got := f.Score(sctx, c); got != 1.0 {
		t.Errorf("expected 500-level exact match for clamped year, got %f", got)
	}
}

func TestSerendipityFactor(t *testing.T) {
	t.Parallel()

	// Three seen courses: two in cluster 1, one in cluster 2.
	seen := []*catalogCourseRef{{clusterID: 1}, {clusterID: 1}, {clusterID: 2}}
	sctx := testContext(&Profile{Year: 1}, seen)
	f := serendipityFactor{}

	tests := []struct {
		name    string
		cluster int
		want    float64
	}{
		{name: "dominant cluster", cluster: 1, want: 1.0 - 2.0/3.0},
		{name: "minority cluster", cluster: 2, want: 1.0 - 1.0/3.0},
		{name: "novel cluster", cluster: 7, want: 1.0},
		{name: "unassigned", cluster: -1, want: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := courseCandidate(catalog.Course{Code: "X 000", ClusterID: tt.cluster})
			if got := f.Score(sctx, c); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestSerendipityFactor_NoSeenCourses(t *testing.T) {
	t.Parallel()

	sctx := testContext(&Profile{Year: 1}, nil)
	f := serendipityFactor{}

	c := courseCandidate(catalog.Course{Code: "X 000", ClusterID: 3})
	if got := f.Score(sctx, c); got != 0.5 {
		t.Errorf("expected neutral 0.5 with nothing seen, got %f", got)
	}
}

func TestDiversityFactor_DecaysWithRepeats(t *testing.T) {
	t.Parallel()

	sctx := testContext(&Profile{Year: 1}, nil)
	f := diversityFactor{}
	c := courseCandidate(catalog.Course{Code: "CS 135", Department: "CS"})

	if got := f.Score(sctx, c); got != 1.0 {
		t.Errorf("fresh department: expected 1.0, got %f", got)
	}

	sctx.selectedDepartments["CS"] = 2
	if got := f.Score(sctx, c); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("two repeats: expected 0.5, got %f", got)
	}

	sctx.selectedDepartments["CS"] = 10
	if got := f.Score(sctx, c); got != 0.1 {
		t.Errorf("many repeats: expected floor 0.1, got %f", got)
	}
}

func TestDifficultyFactor(t *testing.T) {
	t.Parallel()

	f := difficultyFactor{}

	// No GPA: neutral.
	noGPA := testContext(&Profile{Year: 2}, nil)
	c := courseCandidate(catalog.Course{Code: "X 000", Level: 400})
	if got := f.Score(noGPA, c); got != 0.7 {
		t.Errorf("no GPA: expected neutral 0.7, got %f", got)
	}

	// Year 2 with GPA 3.0: comfort tier 2.
	gpa := 3.0
	sctx := testContext(&Profile{Year: 2, GPA: &gpa}, nil)

	exact := courseCandidate(catalog.Course{Code: "X 000", Level: 200})
	if got := f.Score(sctx, exact); got != 1.0 {
		t.Errorf("at comfort tier: expected 1.0, got %f", got)
	}

	far := courseCandidate(catalog.Course{Code: "X 000", Level: 500})
	want := 1.0 - 0.25*3.0
	if got := f.Score(sctx, far); math.Abs(got-want) > 1e-9 {
		t.Errorf("three tiers off: expected %f, got %f", want, got)
	}
}

func TestDifficultyFactor_HighGPARaisesComfort(t *testing.T) {
	t.Parallel()

	f := difficultyFactor{}

	// Year 2 with GPA 4.0: comfort tier 3.
	gpa := 4.0
	sctx := testContext(&Profile{Year: 2, GPA: &gpa}, nil)

	c := courseCandidate(catalog.Course{Code: "X 000", Level: 300})
	if got := f.Score(sctx, c); got != 1.0 {
		t.Errorf("expected comfort tier raised to 3, got score %f", got)
	}
}

func TestAllFactors_ScoresInRange(t *testing.T) {
	t.Parallel()

	gpa := 2.5
	seen := []*catalogCourseRef{{clusterID: 0}}
	sctx := testContext(&Profile{Year: 3, GPA: &gpa}, seen)
	sctx.selectedDepartments["CS"] = 5

	candidates := []*candidate{
		courseCandidate(catalog.Course{Code: "CS 135", Department: "CS", Level: 100, ClusterID: 0}),
		courseCandidate(catalog.Course{Code: "PHIL 145", Department: "PHIL", Level: 100, ClusterID: -1}),
		courseCandidate(catalog.Course{Code: "CS 846", Department: "CS", Level: 800, ClusterID: 4}),
	}
	candidates[0].similarity = -1
	candidates[2].similarity = 1
	candidates[1].eval = prereq.Evaluation{Eligible: false, Missing: [][]string{{"A 100"}, {"B 100"}}}
	candidates[1].requiredCount = 2

	for _, f := range allFactors {
		for _, c := range candidates {
			got := f.Score(sctx, c)
			if got < 0 || got > 1 {
				t.Errorf("%s score %f out of [0,1] for %s", f.Name(), got, c.course.Code)
			}
		}
	}
}
