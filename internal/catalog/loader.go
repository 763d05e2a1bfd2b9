// CourseCompass - Course Discovery and Recommendation Engine
// Copyright 2026 CourseCompass contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursecompass/coursecompass

package catalog

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/coursecompass/coursecompass/internal/validation"
)

// LoadFile reads a JSON array of courses produced by the ingestion pipeline.
// Records that fail validation are dropped with a warning rather than failing
// the whole load; ingestion output is not fully trusted.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func LoadFile(path string, logger zerolog.Logger) ([]Course, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file %s: %w", path, err)
	}

	var courses []Course
	if err := json.Unmarshal(data, &courses); err != nil {
		return nil, fmt.Errorf("parse catalog file %s: %w", path, err)
	}

	valid := make([]Course, 0, len(courses))
	for i := range courses {
		courses[i].Code = NormalizeCode(courses[i].Code)
		if err := validation.ValidateStruct(&courses[i]); err != nil {
			logger.Warn().
				Str("code", courses[i].Code).
				Err(err).
				Msg("dropping invalid catalog record")
			continue
		}
		valid = append(valid, courses[i])
	}

	if len(valid) == 0 && len(courses) > 0 {
		return nil, fmt.Errorf("catalog file %s: no valid records among %d", path, len(courses))
	}

	return valid, nil
}
