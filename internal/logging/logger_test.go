// CourseCompass - Course Discovery and Recommendation Engine
// Copyright 2026 CourseCompass contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursecompass/coursecompass

package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// resetLogger restores the default logger after a test mutates global state.
func resetLogger(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		Init(DefaultConfig())
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != "info" {
		t.Errorf("Level = %q, want info", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %q, want json", cfg.Format)
	}
	if cfg.Caller {
		t.Error("Caller should default to false")
	}
	if !cfg.Timestamp {
		t.Error("Timestamp should default to true")
	}
}

func TestInit_JSONOutput(t *testing.T) {
	resetLogger(t)

	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})

	Info().Str("course", "CS 135").Msg("indexed")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v\noutput: %s", err, buf.String())
	}

	if entry["level"] != "info" {
		t.Errorf("level = %v, want info", entry["level"])
	}
	if entry["course"] != "CS 135" {
		t.Errorf("course = %v, want CS 135", entry["course"])
	}
	if entry["message"] != "indexed" {
		t.Errorf("message = %v, want indexed", entry["message"])
	}
	if _, ok := entry["time"]; !ok {
		t.Error("expected time field in output")
	}
}

func TestInit_LevelFiltering(t *testing.T) {
	resetLogger(t)

	var buf bytes.Buffer
	Init(Config{Level: "warn", Format: "json", Output: &buf})

	Debug().Msg("suppressed debug")
	Info().Msg("suppressed info")
	Warn().Msg("emitted warn")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Errorf("low-level messages should be filtered, got: %s", out)
	}
	if !strings.Contains(out, "emitted warn") {
		t.Errorf("warn message missing from output: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"disabled", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestErr_AttachesError(t *testing.T) {
	resetLogger(t)

	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})

	Err(errors.New("index rebuild failed")).Msg("maintenance")

	if !strings.Contains(buf.String(), "index rebuild failed") {
		t.Errorf("error field missing from output: %s", buf.String())
	}
}

func TestSetLogger_ReplacesGlobal(t *testing.T) {
	resetLogger(t)

	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))

	Info().Msg("through replacement")

	if !strings.Contains(buf.String(), "through replacement") {
		t.Errorf("replacement logger not used: %s", buf.String())
	}
}

func TestNewTestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTestLogger(&buf)

	logger.Info().Str("k", "v").Msg("captured")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("test logger output not JSON: %v", err)
	}
	if entry["k"] != "v" {
		t.Errorf("k = %v, want v", entry["k"])
	}
}
