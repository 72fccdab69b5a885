package slogutil

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"garbage", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := LevelFromString(tt.in); got != tt.want {
				t.Errorf("LevelFromString(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	if got := LevelFromVerbosity(0, false); got != slog.LevelWarn {
		t.Errorf("verbosity 0 = %v, want warn", got)
	}
	if got := LevelFromVerbosity(1, false); got != slog.LevelInfo {
		t.Errorf("verbosity 1 = %v, want info", got)
	}
	if got := LevelFromVerbosity(3, false); got != slog.LevelDebug {
		t.Errorf("verbosity 3 = %v, want debug", got)
	}
	if got := LevelFromVerbosity(2, true); got <= slog.LevelError {
		t.Errorf("quiet level = %v, want above error", got)
	}
}

func TestHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	logger.Info("Audit completed", "score", 85, "passed", true)

	out := buf.String()
	if !strings.Contains(out, "[info] Audit completed") {
		t.Errorf("output missing level and message: %q", out)
	}
	if !strings.Contains(out, "score=85") || !strings.Contains(out, "passed=true") {
		t.Errorf("output missing attributes: %q", out)
	}
	if !strings.Contains(out, " | ") {
		t.Errorf("output missing attribute separator: %q", out)
	}
}

func TestHandlerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)

	logger.Info("suppressed")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Errorf("info message not filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn message missing: %q", out)
	}
}

func TestDiscardLoggerWritesNothing(t *testing.T) {
	logger := NewDiscardLogger()
	logger.Error("goes nowhere")
}
