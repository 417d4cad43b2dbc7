package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/giygas/pharmasearch/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLogLevel(tt.input)
			if got != tt.expected {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestGetConsoleLogLevel(t *testing.T) {
	tests := []struct {
		name        string
		env         config.Environment
		logLevelStr string
		verbose     bool
		expected    slog.Level
	}{
		{"dev defaults to info", config.EnvDevelopment, "", false, slog.LevelInfo},
		{"test quiet defaults to error", config.EnvTest, "", false, slog.LevelError},
		{"test verbose defaults to info", config.EnvTest, "", true, slog.LevelInfo},
		{"prod defaults to warn", config.EnvProduction, "", false, slog.LevelWarn},
		{"staging defaults to warn", config.EnvStaging, "", false, slog.LevelWarn},
		{"prod with debug override", config.EnvProduction, "debug", false, slog.LevelDebug},
		{"dev with error override", config.EnvDevelopment, "error", false, slog.LevelError},
		{"test with debug override (ignored)", config.EnvTest, "debug", false, slog.LevelError},
		{"test with debug override (ignored) verbose", config.EnvTest, "debug", true, slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetConsoleLogLevel(tt.env, tt.logLevelStr, tt.verbose)
			if got != tt.expected {
				t.Errorf("GetConsoleLogLevel(%v, %q, %v) = %v, want %v", tt.env, tt.logLevelStr, tt.verbose, got, tt.expected)
			}
		})
	}
}

func TestGetFileLogLevel(t *testing.T) {
	if got := GetFileLogLevel(); got != slog.LevelDebug {
		t.Errorf("GetFileLogLevel() = %v, want %v", got, slog.LevelDebug)
	}
}

func TestPackageFunctionsWithoutInit(t *testing.T) {
	saved := DefaultLoggingService
	DefaultLoggingService = nil
	defer func() { DefaultLoggingService = saved }()

	if Logger() != fallback {
		t.Error("Expected fallback logger before initialization")
	}

	// Must not panic
	Info("info message", "key", "value")
	Warn("warn message")
	Error("error message")
	Debug("debug message")
}

func TestInitLoggerWithOptionsWritesJSONFile(t *testing.T) {
	saved := DefaultLoggingService
	savedDefault := slog.Default()
	defer func() {
		DefaultLoggingService = saved
		slog.SetDefault(savedDefault)
	}()
	DefaultLoggingService = nil

	dir := t.TempDir()
	svc := InitLoggerWithOptions(Options{Dir: dir, Env: config.EnvTest, RetentionWeeks: 1})
	if DefaultLoggingService != svc {
		t.Fatal("Expected the new service to become the default")
	}

	// Console is at error level in tests, the file still keeps debug
	Debug("edge added", "edge_id", "abc123")
	if err := Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	names := logFiles(t, dir)
	if len(names) != 1 {
		t.Fatalf("Expected one log file, got %v", names)
	}
	content, err := os.ReadFile(filepath.Join(dir, names[0]))
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	var record map[string]any
	line := strings.TrimSpace(strings.Split(string(content), "\n")[0])
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		t.Fatalf("Expected a JSON record, got %q: %v", line, err)
	}
	if record["msg"] != "edge added" || record["edge_id"] != "abc123" {
		t.Errorf("Unexpected record: %v", record)
	}
}

func TestNewLoggingServiceConsoleOnly(t *testing.T) {
	svc := NewLoggingService(Options{})
	if svc.writer != nil {
		t.Error("Expected no file writer without a directory")
	}
	if err := svc.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestNewLoggingServiceCustomOutput(t *testing.T) {
	var buf bytes.Buffer
	svc := NewLoggingService(Options{Output: &buf, Level: "warn"})

	svc.Logger.Info("graph seeded")
	svc.Logger.Warn("seed file reload failed", "path", "seed.yaml")

	out := buf.String()
	if strings.Contains(out, "graph seeded") {
		t.Errorf("Expected info record to be filtered, got %q", out)
	}
	if !strings.Contains(out, "seed file reload failed") || !strings.Contains(out, "path=seed.yaml") {
		t.Errorf("Expected warn record in output, got %q", out)
	}
}

func TestNewLoggingServiceBadDirectoryFallsBack(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	svc := NewLoggingService(Options{Dir: filepath.Join(blocker, "logs"), Env: config.EnvTest})
	if svc.Logger == nil {
		t.Fatal("Expected a console logger")
	}
	if svc.writer != nil {
		t.Error("Expected no file writer")
	}
}

func TestMultiHandler(t *testing.T) {
	var info, debug bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
	}}

	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Expected debug to be enabled by the second handler")
	}

	logger := slog.New(h).With("component", "graph").WithGroup("node")
	logger.Debug("resolved", "id", "aspirin")
	logger.Info("merged", "id", "ibuprofen")

	if strings.Contains(info.String(), "resolved") {
		t.Errorf("Info handler should not receive debug records: %s", info.String())
	}
	if !strings.Contains(info.String(), "component=graph") || !strings.Contains(info.String(), "node.id=ibuprofen") {
		t.Errorf("Info handler missing attrs or group: %s", info.String())
	}
	if !strings.Contains(debug.String(), "node.id=aspirin") {
		t.Errorf("Debug handler missing record: %s", debug.String())
	}
}
