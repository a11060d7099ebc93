package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/felixgeelhaar/complyscan/internal/errors"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("log line is not JSON: %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func jsonLogger(buf *bytes.Buffer, level Level) *Logger {
	return New(Config{
		Level:       level,
		Format:      FormatJSON,
		Output:      NewOutput(buf),
		ServiceName: "complyscan",
	})
}

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{name: "default config", config: DefaultConfig()},
		{name: "development config", config: DevelopmentConfig()},
		{
			name: "custom config text",
			config: Config{
				Level:  LevelWarn,
				Format: FormatText,
				Output: OutputStderr(),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.config)
			if logger == nil {
				t.Fatal("expected logger, got nil")
			}
			if logger.Config().Level != tt.config.Level {
				t.Errorf("expected level %v, got %v", tt.config.Level, logger.Config().Level)
			}
		})
	}
}

func TestLoggerWritesStructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf, LevelInfo)

	logger.With("scan_id", "abc").Info("scan finished", "findings", 3)

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	entry := lines[0]
	if entry["msg"] != "scan finished" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["scan_id"] != "abc" {
		t.Errorf("scan_id = %v", entry["scan_id"])
	}
	if entry["findings"] != float64(3) {
		t.Errorf("findings = %v", entry["findings"])
	}
	if entry["service"] != "complyscan" {
		t.Errorf("service = %v", entry["service"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf, LevelWarn)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["msg"] != "shown" {
		t.Fatalf("expected only the warn entry, got %v", lines)
	}
	if logger.Enabled(context.Background(), LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
	if !logger.Enabled(context.Background(), LevelError) {
		t.Error("error should be enabled at warn level")
	}
}

func TestWithErrorExpandsCodedErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf, LevelInfo)

	err := errors.NewRuleFailedError("ai-disclosure", fmt.Errorf("index out of range"))
	logger.WithError(err).Warn("rule skipped")

	entry := decodeLines(t, &buf)[0]
	if entry["error_code"] != "RULE-001" {
		t.Errorf("error_code = %v", entry["error_code"])
	}
	if entry["cause"] != "index out of range" {
		t.Errorf("cause = %v", entry["cause"])
	}
	if _, ok := entry["suggestions"]; !ok {
		t.Error("suggestions should be present")
	}
}

func TestLogErrorPlainError(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf, LevelInfo)

	logger.LogError(fmt.Errorf("disk full"))
	logger.LogError(nil)

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0]["error"] != "disk full" {
		t.Errorf("error = %v", lines[0]["error"])
	}
}

func TestParseHelpers(t *testing.T) {
	if ParseLevel("warning") != LevelWarn {
		t.Error("warning should parse to LevelWarn")
	}
	if ParseLevel("bogus") != LevelInfo {
		t.Error("unknown level should default to info")
	}
	if ParseFormat("console") != FormatText {
		t.Error("console should parse to text")
	}
	if FormatJSON.String() != "json" || LevelError.String() != "ERROR" {
		t.Error("unexpected String() output")
	}
}

func TestNopDiscards(t *testing.T) {
	logger := Nop()
	logger.Error("nothing")
	if logger.Enabled(context.Background(), LevelError) {
		t.Error("nop logger should report disabled")
	}
}
