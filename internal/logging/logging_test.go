// Package logging provides tests for console logging.
package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/nibzard/taskmd/internal/config"
	"github.com/nibzard/taskmd/internal/todo"
)

// TestNewWritesLevels tests that messages carry their level and fields.
func TestNewWritesLevels(t *testing.T) {
	tests := []struct {
		name      string
		write     func(l *log.Logger)
		wantLevel string
		wantMsg   string
	}{
		{"error", func(l *log.Logger) { l.Error("parse failed", "path", "TODO.md") }, "ERRO", "parse failed"},
		{"warn", func(l *log.Logger) { l.Warn("unreferenced detail header", "id", "7") }, "WARN", "unreferenced detail header"},
		{"info", func(l *log.Logger) { l.Info("checked", "files", 3) }, "INFO", "checked"},
		{"debug", func(l *log.Logger) { l.Debug("parsed", "tasks", 12) }, "DEBU", "parsed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			opts := DefaultOptions()
			opts.Level = log.DebugLevel
			logger := New(&buf, opts)

			tt.write(logger)

			output := buf.String()
			if !strings.Contains(output, tt.wantLevel) {
				t.Errorf("Expected output to contain level %q, got: %s", tt.wantLevel, output)
			}
			if !strings.Contains(output, tt.wantMsg) {
				t.Errorf("Expected output to contain message %q, got: %s", tt.wantMsg, output)
			}
			if !strings.Contains(output, "taskmd") {
				t.Errorf("Expected output to contain prefix, got: %s", output)
			}
		})
	}
}

// TestLevelFiltering tests that messages below the level are dropped.
func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Level = log.WarnLevel
	logger := New(&buf, opts)

	logger.Info("hidden")
	logger.Debug("hidden too")
	if buf.Len() != 0 {
		t.Errorf("Expected no output below warn, got: %s", buf.String())
	}

	logger.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("Expected warn output, got: %s", buf.String())
	}
}

// TestJSONFormatter tests structured output.
func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Formatter = log.JSONFormatter
	logger := New(&buf, opts)

	logger.Info("checked", "path", "TODO.md")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if entry["msg"] != "checked" {
		t.Errorf("msg = %v, want checked", entry["msg"])
	}
	if entry["path"] != "TODO.md" {
		t.Errorf("path = %v, want TODO.md", entry["path"])
	}
}

// TestFromConfig tests creation from config values.
func TestFromConfig(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{LogLevel: "error", LogFormat: "logfmt"}
	logger := FromConfig(&buf, cfg)

	if logger.GetLevel() != log.ErrorLevel {
		t.Errorf("level = %v, want %v", logger.GetLevel(), log.ErrorLevel)
	}

	logger.Warn("dropped")
	logger.Error("kept", "id", "7")
	output := buf.String()
	if strings.Contains(output, "dropped") {
		t.Errorf("warn should be filtered: %s", output)
	}
	if !strings.Contains(output, "msg=kept") || !strings.Contains(output, "id=7") {
		t.Errorf("Expected logfmt output, got: %s", output)
	}
}

// TestParseLevel tests the ParseLevel function.
func TestParseLevel(t *testing.T) {
	tests := []struct {
		level string
		want  log.Level
	}{
		{"debug", log.DebugLevel},
		{"info", log.InfoLevel},
		{"warn", log.WarnLevel},
		{"warning", log.WarnLevel},
		{" ERROR ", log.ErrorLevel},
		{"fatal", log.FatalLevel},
		{"unknown", log.InfoLevel},
		{"", log.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := ParseLevel(tt.level); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

// TestParseFormatter tests the ParseFormatter function.
func TestParseFormatter(t *testing.T) {
	tests := []struct {
		name   string
		format string
		want   log.Formatter
	}{
		{"json", "json", log.JSONFormatter},
		{"logfmt", "logfmt", log.LogfmtFormatter},
		{"text", "text", log.TextFormatter},
		{"unknown defaults to text", "unknown", log.TextFormatter},
		{"empty defaults to text", "", log.TextFormatter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseFormatter(tt.format); got != tt.want {
				t.Errorf("ParseFormatter(%q) = %v, want %v", tt.format, got, tt.want)
			}
		})
	}
}

// TestDefaultOptions tests the default options.
func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.Level != log.InfoLevel {
		t.Errorf("Level = %v, want %v", opts.Level, log.InfoLevel)
	}
	if opts.Formatter != log.TextFormatter {
		t.Errorf("Formatter = %v, want %v", opts.Formatter, log.TextFormatter)
	}
	if opts.ReportTimestamp || opts.ReportCaller {
		t.Error("timestamps and caller should be off by default")
	}
	if opts.Prefix != "taskmd" {
		t.Errorf("Prefix = %q, want taskmd", opts.Prefix)
	}
}

// TestErrorFields tests field extraction from parse errors.
func TestErrorFields(t *testing.T) {
	_, err := todo.ParseString("- [ ] [#7]\n\n# 7\n## priority high\n", todo.DefaultDialect())
	if err == nil {
		t.Fatal("expected parse error")
	}
	wrapped := fmt.Errorf("parse task file TODO.md: %w", err)

	got := ErrorFields(wrapped)
	want := []any{"line", 4, "id", "7", "key", "priority", "kind", todo.ErrUnknownField.Error()}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("ErrorFields() = %v, want %v", got, want)
	}

	if fields := ErrorFields(fmt.Errorf("plain")); fields != nil {
		t.Errorf("ErrorFields(plain) = %v, want nil", fields)
	}
}
