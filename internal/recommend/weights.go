// CourseCompass - Course Discovery and Recommendation Engine
// Copyright 2026 CourseCompass contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursecompass/coursecompass

package recommend

import "fmt"

// Factor names, used as weight keys and in score breakdowns.
const (
	FactorSimilarity  = "similarity"
	FactorReadiness   = "prerequisite_readiness"
	FactorProgression = "progression"
	FactorSerendipity = "serendipity"
	FactorDiversity   = "diversity"
	FactorDifficulty  = "difficulty_fit"
)

// FactorWeights assigns a relative weight to each scoring factor. Weights
// are normalized to sum to 1 before scoring; a factor with weight 0 is
// skipped entirely.
type FactorWeights struct {
	// Similarity weights cosine similarity to the profile centroid.
	Similarity float64 `json:"similarity"`

	// Readiness weights prerequisite completion.
	Readiness float64 `json:"prerequisite_readiness"`

	// Progression weights academic-level fit for the student's year.
	Progression float64 `json:"progression"`

	// Serendipity weights topic-cluster novelty.
	Serendipity float64 `json:"serendipity"`

	// Diversity weights departmental spread in the ranked output.
	Diversity float64 `json:"diversity"`

	// Difficulty weights GPA-implied difficulty comfort.
	Difficulty float64 `json:"difficulty_fit"`
}

// WeightsForMode returns the default weight table for a mode.
func WeightsForMode(mode Mode) (FactorWeights, error) {
	switch mode {
	case ModeBasic:
		return FactorWeights{
			Similarity: 0.75,
			Readiness:  0.25,
		}, nil
	case ModeAdvanced:
		return FactorWeights{
			Similarity:  0.40,
			Readiness:   0.25,
			Progression: 0.20,
			Serendipity: 0.05,
			Diversity:   0.05,
			Difficulty:  0.05,
		}, nil
	case ModeSuperAdvanced:
		return FactorWeights{
			Similarity:  0.30,
			Readiness:   0.20,
			Progression: 0.20,
			Serendipity: 0.15,
			Diversity:   0.10,
			Difficulty:  0.05,
		}, nil
	default:
		return FactorWeights{}, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

// Validate returns ErrInvalidWeights if any weight is negative or the total
// is not positive.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (w FactorWeights) Validate() error {
	for name, v := range w.ToMap() {
		if v < 0 {
			return fmt.Errorf("%w: %s is negative (%.3f)", ErrInvalidWeights, name, v)
		}
	}
	if w.sum() <= 0 {
		return fmt.Errorf("%w: weights sum to %.3f, need a positive total", ErrInvalidWeights, w.sum())
	}
	return nil
}

// Normalize returns a copy scaled so the weights sum to 1.
// Callers must Validate first; a zero-sum table is returned unchanged.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (w FactorWeights) Normalize() FactorWeights {
	total := w.sum()
	if total <= 0 {
		return w
	}
	return FactorWeights{
		Similarity:  w.Similarity / total,
		Readiness:   w.Readiness / total,
		Progression: w.Progression / total,
		Serendipity: w.Serendipity / total,
		Diversity:   w.Diversity / total,
		Difficulty:  w.Difficulty / total,
	}
}

// ToMap converts the weights to a factor-name keyed map.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (w FactorWeights) ToMap() map[string]float64 {
	return map[string]float64{
		FactorSimilarity:  w.Similarity,
		FactorReadiness:   w.Readiness,
		FactorProgression: w.Progression,
		FactorSerendipity: w.Serendipity,
		FactorDiversity:   w.Diversity,
		FactorDifficulty:  w.Difficulty,
	}
}

// WithOverrides returns a copy with the named weights replaced. Unknown
// factor names yield ErrInvalidWeights.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (w FactorWeights) WithOverrides(overrides map[string]float64) (FactorWeights, error) {
	out := w
	for name, v := range overrides {
		switch name {
		case FactorSimilarity:
			out.Similarity = v
		case FactorReadiness:
			out.Readiness = v
		case FactorProgression:
			out.Progression = v
		case FactorSerendipity:
			out.Serendipity = v
		case FactorDiversity:
			out.Diversity = v
		case FactorDifficulty:
			out.Difficulty = v
		default:
			return FactorWeights{}, fmt.Errorf("%w: unknown factor %q", ErrInvalidWeights, name)
		}
	}
	return out, nil
}

//nolint:gocritic // value receiver is intentional for immutable semantics
func (w FactorWeights) sum() float64 {
	return w.Similarity + w.Readiness + w.Progression + w.Serendipity + w.Diversity + w.Difficulty
}
