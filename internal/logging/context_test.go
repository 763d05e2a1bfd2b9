// CourseCompass - Course Discovery and Recommendation Engine
// Copyright 2026 CourseCompass contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursecompass/coursecompass

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestGenerateRequestID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateRequestID()
		if id == "" {
			t.Fatal("GenerateRequestID() returned empty string")
		}
		if seen[id] {
			t.Fatalf("GenerateRequestID() returned duplicate: %s", id)
		}
		seen[id] = true
	}
}

func TestRequestIDFromContext(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		ctx := ContextWithRequestID(context.Background(), "req-123")
		if got := RequestIDFromContext(ctx); got != "req-123" {
			t.Errorf("RequestIDFromContext() = %q, want req-123", got)
		}
	})

	t.Run("absent", func(t *testing.T) {
		if got := RequestIDFromContext(context.Background()); got != "" {
			t.Errorf("RequestIDFromContext() = %q, want empty", got)
		}
	})
}

func TestContextWithNewRequestID(t *testing.T) {
	ctx := ContextWithNewRequestID(context.Background())
	if RequestIDFromContext(ctx) == "" {
		t.Error("ContextWithNewRequestID() did not store a request ID")
	}
}

func TestLoggerFromContext(t *testing.T) {
	t.Run("stored logger", func(t *testing.T) {
		var buf bytes.Buffer
		stored := NewTestLogger(&buf)

		ctx := ContextWithLogger(context.Background(), stored)
		logger := LoggerFromContext(ctx)

		logger.Info().Msg("from stored")
		if !strings.Contains(buf.String(), "from stored") {
			t.Errorf("stored logger not returned, output: %s", buf.String())
		}
	})

	t.Run("falls back to global", func(t *testing.T) {
		// Should not panic and should return a usable logger.
		logger := LoggerFromContext(context.Background())
		logger.Debug().Msg("global fallback")
	})
}

func TestCtx_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	ctx = ContextWithRequestID(ctx, "req-456")

	Ctx(ctx).Info().Msg("handled")

	out := buf.String()
	if !strings.Contains(out, "req-456") {
		t.Errorf("request_id missing from output: %s", out)
	}
	if !strings.Contains(out, "handled") {
		t.Errorf("message missing from output: %s", out)
	}
}

func TestCtxWith_AddsFields(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	ctx = ContextWithRequestID(ctx, "req-789")

	logger := CtxWith(ctx).Str("course", "MATH 239").Logger()
	logger.Info().Msg("eligibility checked")

	out := buf.String()
	if !strings.Contains(out, "req-789") {
		t.Errorf("request_id missing from output: %s", out)
	}
	if !strings.Contains(out, "MATH 239") {
		t.Errorf("course field missing from output: %s", out)
	}
}

func TestWithComponent(t *testing.T) {
	resetLogger(t)

	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))

	logger := WithComponent("index")
	logger.Info().Msg("rebuilt")

	out := buf.String()
	if !strings.Contains(out, `"component":"index"`) {
		t.Errorf("component field missing from output: %s", out)
	}
}
