// CourseCompass - Course Discovery and Recommendation Engine
// Copyright 2026 CourseCompass contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursecompass/coursecompass

// Package logging provides centralized zerolog-based structured logging for CourseCompass.
//
// This package implements a unified logging layer using zerolog, providing
// zero-allocation structured JSON logging for production and human-readable
// console output for development.
//
// # Overview
//
// The package provides:
//   - Zero-allocation structured logging via zerolog
//   - JSON output format for production (machine-parseable)
//   - Console output format for development (human-readable)
//   - Context-aware logging with request ID propagation
//   - Component child loggers with default fields
//   - slog adapter for Suture v4 integration (sutureslog)
//
// # Quick Start
//
//	import "github.com/coursecompass/coursecompass/internal/logging"
//
//	// Initialize at application startup
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	    Caller: false,
//	})
//
//	// Log messages with structured fields
//	logging.Info().Str("course", "CS 135").Msg("Course indexed")
//	logging.Error().Err(err).Int("code", 500).Msg("Request failed")
//
//	// Context-aware logging
//	logging.Ctx(ctx).Info().Msg("Processing")
//
// # Component Loggers
//
// Long-lived components create a child logger once and reuse it:
//
//	logger := logging.WithComponent("engine")
//	logger.Info().Int("courses", n).Msg("training complete")
//
// # Suture Integration
//
// The supervisor tree logs through sutureslog, which requires an slog.Logger.
// NewSlogLogger bridges slog records into zerolog:
//
//	handler := (&sutureslog.Handler{Logger: logging.NewSlogLogger()}).MustHook()
//	supervisor := suture.New("root", suture.Spec{EventHook: handler})
//
// # Log Levels
//
//	trace  - Very fine-grained diagnostic detail
//	debug  - Diagnostic information for development
//	info   - Normal operational messages
//	warn   - Recoverable problems worth attention
//	error  - Failures that affected a request or task
//	fatal  - Unrecoverable failures (exits the process)
//
// # Thread Safety
//
// The global logger is guarded by a read-write mutex. Init and SetLogger may
// be called at any time; all event constructors take the read lock.
package logging
