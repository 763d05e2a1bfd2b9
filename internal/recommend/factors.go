// CourseCompass - Course Discovery and Recommendation Engine
// Copyright 2026 CourseCompass contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursecompass/coursecompass

package recommend

import "math"

// Factor computes one normalized sub-score in [0,1] for a candidate.
// Factors are stateless; all per-request state lives in the scoring context,
// so new factors can be registered without touching the orchestration.
type Factor interface {
	// Name returns the factor's weight key and breakdown label.
	Name() string

	// Score computes the normalized sub-score for one candidate.
	Score(sctx *scoringContext, c *candidate) float64
}

// allFactors is the factor registry. Weights decide participation; registry
// order fixes the summation order wherever a composite is rebuilt from a
// breakdown map, keeping totals bit-identical across runs.
var allFactors = []Factor{
	similarityFactor{},
	readinessFactor{},
	progressionFactor{},
	serendipityFactor{},
	diversityFactor{},
	difficultyFactor{},
}

// scoringContext carries per-request state shared by all factor evaluations.
type scoringContext struct {
	profile   *Profile
	completed map[string]bool

	// profileTier is the year-appropriate course tier (year 1 -> 1, capped at 5).
	profileTier int

	// comfortTier is the GPA-implied difficulty comfort tier in [1,5],
	// or -1 when the profile has no GPA.
	comfortTier float64

	// seenClusters counts favorites and completed courses per topic cluster.
	seenClusters map[int]int
	seenTotal    int

	// selectedDepartments counts departments already emitted into the
	// ranked output. Mutated by the greedy ranking pass so the diversity
	// factor reflects actual selections, not the global pool.
	selectedDepartments map[string]int
}

// newScoringContext derives per-request scoring state from a profile and the
// catalog cluster assignments of its favorite and completed courses.
func newScoringContext(profile *Profile, completed map[string]bool, seen []*catalogCourseRef) *scoringContext {
	sctx := &scoringContext{
		profile:             profile,
		completed:           completed,
		profileTier:         clampInt(profile.Year, 1, 5),
		comfortTier:         -1,
		seenClusters:        make(map[int]int),
		selectedDepartments: make(map[string]int),
	}

	if profile.GPA != nil {
		sctx.comfortTier = clampFloat(float64(profile.Year)+(*profile.GPA-3.0), 1, 5)
	}

	for _, ref := range seen {
		if ref.clusterID >= 0 {
			sctx.seenClusters[ref.clusterID]++
			sctx.seenTotal++
		}
	}

	return sctx
}

// catalogCourseRef is the cluster membership of one already-seen course.
type catalogCourseRef struct {
	clusterID int
}

// similarityFactor rescales cosine similarity from [-1,1] to [0,1].
type similarityFactor struct{}

func (similarityFactor) Name() string { return FactorSimilarity }

func (similarityFactor) Score(_ *scoringContext, c *candidate) float64 {
	return clampFloat((c.similarity+1)/2, 0, 1)
}

// readinessFactor scores prerequisite completion: 1.0 when eligible,
// otherwise the satisfied fraction of required courses, floored at 0.
type readinessFactor struct{}

func (readinessFactor) Name() string { return FactorReadiness }

func (readinessFactor) Score(_ *scoringContext, c *candidate) float64 {
	if c.eval.Eligible || c.requiredCount == 0 {
		return 1.0
	}
	missing := 0
	for _, group := range c.eval.Missing {
		missing += len(group)
	}
	return clampFloat(1.0-float64(missing)/float64(c.requiredCount), 0, 1)
}

// progressionFactor scores academic-level fit: 1.0 for an exact tier match,
// 0.8 for the next tier up (the natural forward step), then a linear decay
// of 0.3 per tier of mismatch floored at 0.1.
type progressionFactor struct{}

func (progressionFactor) Name() string { return FactorProgression }

func (progressionFactor) Score(sctx *scoringContext, c *candidate) float64 {
	diff := c.course.YearTier() - sctx.profileTier
	switch diff {
	case 0:
		return 1.0
	case 1:
		return 0.8
	default:
		return math.Max(1.0-0.3*math.Abs(float64(diff)), 0.1)
	}
}

// serendipityFactor rewards topic clusters the student has not already
// explored: 1 minus the fraction of seen courses sharing the candidate's
// cluster. Neutral 0.5 when cluster data is unavailable.
type serendipityFactor struct{}

func (serendipityFactor) Name() string { return FactorSerendipity }

func (serendipityFactor) Score(sctx *scoringContext, c *candidate) float64 {
	if c.course.ClusterID < 0 || sctx.seenTotal == 0 {
		return 0.5
	}
	return 1.0 - float64(sctx.seenClusters[c.course.ClusterID])/float64(sctx.seenTotal)
}

// diversityFactor rewards departments not yet present in the ranked output.
// The greedy ranking pass updates selectedDepartments after each pick, so
// repeats decay by 0.25 per already-selected course from the same
// department, floored at 0.1.
type diversityFactor struct{}

func (diversityFactor) Name() string { return FactorDiversity }

func (diversityFactor) Score(sctx *scoringContext, c *candidate) float64 {
	repeats := sctx.selectedDepartments[c.course.Department]
	return math.Max(1.0-0.25*float64(repeats), 0.1)
}

// difficultyFactor penalizes distance from the GPA-implied comfort tier,
// 0.25 per tier floored at 0.1. Without a GPA the score is a neutral 0.7.
type difficultyFactor struct{}

func (difficultyFactor) Name() string { return FactorDifficulty }

func (difficultyFactor) Score(sctx *scoringContext, c *candidate) float64 {
	if sctx.comfortTier < 0 {
		return 0.7
	}
	dist := math.Abs(float64(c.course.YearTier()) - sctx.comfortTier)
	return math.Max(1.0-0.25*dist, 0.1)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
