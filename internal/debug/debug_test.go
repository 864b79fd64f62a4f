package debug

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestWithDebug(t *testing.T) {
	ctx := WithDebug(context.Background(), true)
	if !IsEnabled(ctx) {
		t.Error("IsEnabled should return true when debug is enabled")
	}
}

func TestIsEnabled_DefaultFalse(t *testing.T) {
	ctx := context.Background()
	if IsEnabled(ctx) {
		t.Error("IsEnabled should return false by default")
	}
}

func TestWithDebug_Disabled(t *testing.T) {
	ctx := WithDebug(context.Background(), false)
	if IsEnabled(ctx) {
		t.Error("IsEnabled should return false when debug is disabled")
	}
}

func TestSetupLogger_DebugEnabled(t *testing.T) {
	// Call SetupLogger with debug enabled
	SetupLogger(true)

	// Verify that debug-level logging is enabled
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("SetupLogger(true) should enable debug level logging")
	}
}

func TestSetupLogger_DebugDisabled(t *testing.T) {
	// Call SetupLogger with debug disabled
	SetupLogger(false)

	// Verify that debug-level logging is disabled
	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("SetupLogger(false) should disable debug level logging")
	}

	// Verify that warn-level logging is still enabled
	if !slog.Default().Enabled(context.Background(), slog.LevelWarn) {
		t.Error("SetupLogger(false) should enable warn level logging")
	}
}

func TestNewHandler_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(Options{Debug: true, Format: "JSON", Writer: &buf}))
	logger.Debug("request complete", "status", 200)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "request complete" || entry["status"] != float64(200) {
		t.Errorf("Unexpected entry %v", entry)
	}
}

func TestNewHandler_TextHasNoColorOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(Options{Writer: &buf}))
	logger.Debug("hidden")
	logger.Warn("visible", "kind", "timeout")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug lines must be filtered when debug is off")
	}
	if !strings.Contains(out, "visible") || !strings.Contains(out, "kind=timeout") {
		t.Errorf("Unexpected output %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("buffer output must not carry ANSI codes: %q", out)
	}
}
