package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/config"
)

func TestLoggerJSONEntryShape(t *testing.T) {
	unsetLoggingEnv(t)

	var out bytes.Buffer
	log, err := newWithWriter(config.LoggingConfig{Format: "json", Level: "info"}, &out)
	if err != nil {
		t.Fatalf("newWithWriter error: %v", err)
	}

	log.With("component", "chat.orchestrator").Info("Message appended", "plugin", "weather", "ok", true)

	entry := decodeSingleEntry(t, out.String())
	if entry.Level != "info" {
		t.Fatalf("level = %q, want info", entry.Level)
	}
	if entry.Message != "Message appended" {
		t.Fatalf("message = %q", entry.Message)
	}
	if entry.Component != "chat.orchestrator" {
		t.Fatalf("component = %q", entry.Component)
	}
	if entry.Timestamp == "" {
		t.Fatal("expected timestamp")
	}
	if got := entry.Fields["plugin"]; got != "weather" {
		t.Fatalf("fields.plugin = %v, want weather", got)
	}
	if got := entry.Fields["ok"]; got != true {
		t.Fatalf("fields.ok = %v, want true", got)
	}
}

func TestLoggerLiftsErrorAndGroups(t *testing.T) {
	unsetLoggingEnv(t)

	var out bytes.Buffer
	log, err := newWithWriter(config.LoggingConfig{Format: "json"}, &out)
	if err != nil {
		t.Fatalf("newWithWriter error: %v", err)
	}

	log.WithGroup("plugin").Warn("Plugin failed", "name", "define", "error", errors.New("no definitions"))

	entry := decodeSingleEntry(t, out.String())
	if entry.Error != "" {
		t.Fatalf("grouped error should stay in fields, got top-level %q", entry.Error)
	}
	if got := entry.Fields["plugin.name"]; got != "define" {
		t.Fatalf("fields[plugin.name] = %v", got)
	}

	out.Reset()
	log.Error("Send failed", "error", errors.New("boom"))
	entry = decodeSingleEntry(t, out.String())
	if entry.Error != "boom" {
		t.Fatalf("error = %q, want boom", entry.Error)
	}
	if _, ok := entry.Fields["error"]; ok {
		t.Fatal("error should not be duplicated under fields")
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	unsetLoggingEnv(t)

	var out bytes.Buffer
	log, err := newWithWriter(config.LoggingConfig{Format: "json", Level: "error"}, &out)
	if err != nil {
		t.Fatalf("newWithWriter error: %v", err)
	}

	log.Info("Ignored")
	if got := strings.TrimSpace(out.String()); got != "" {
		t.Fatalf("expected no output for info, got %q", got)
	}

	log.Error("Kept")
	if got := strings.TrimSpace(out.String()); got == "" {
		t.Fatal("expected output for error")
	}
}

func TestLoggerEnvironmentOverrides(t *testing.T) {
	unsetLoggingEnv(t)
	t.Setenv("CHATHUB_LOG_LEVEL", "debug")
	t.Setenv("CHATHUB_LOG_FORMAT", "text")

	var out bytes.Buffer
	log, err := newWithWriter(config.LoggingConfig{Format: "json", Level: "error"}, &out)
	if err != nil {
		t.Fatalf("newWithWriter error: %v", err)
	}

	log.Debug("Debug enabled", "component", "test")
	line := strings.TrimSpace(out.String())
	if line == "" {
		t.Fatal("expected debug output with env override")
	}
	if strings.HasPrefix(line, "{") {
		t.Fatalf("expected text format override, got %q", line)
	}
}

func TestLoggerRejectsUnknownSettings(t *testing.T) {
	unsetLoggingEnv(t)

	if _, err := newWithWriter(config.LoggingConfig{Format: "xml"}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if _, err := newWithWriter(config.LoggingConfig{Level: "loud"}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for unsupported level")
	}
}

func TestNewWritesToConfiguredFile(t *testing.T) {
	unsetLoggingEnv(t)

	path := filepath.Join(t.TempDir(), "logs", "chathub.log")
	log, closeLog, err := New(config.LoggingConfig{Format: "json", File: path})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	log.Info("Session started")
	if err := closeLog(); err != nil {
		t.Fatalf("close log: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	entry := decodeSingleEntry(t, string(content))
	if entry.Message != "Session started" {
		t.Fatalf("message = %q", entry.Message)
	}
}

func decodeSingleEntry(t *testing.T, raw string) LogEntry {
	t.Helper()

	line := strings.TrimSpace(raw)
	if line == "" {
		t.Fatal("expected log output")
	}

	var entry LogEntry
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("unmarshal log entry: %v", err)
	}
	return entry
}

func unsetLoggingEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"CHATHUB_LOG_LEVEL", "CHATHUB_LOG_FORMAT", "CHATHUB_LOG_ADD_SOURCE", "CHATHUB_LOG_FILE"} {
		t.Setenv(key, "")
	}
}
