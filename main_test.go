package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ============================================================================
// STARTUP FAILURE TESTS
// ============================================================================

func TestRunInvalidConfig(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("PORT", "not-a-port")

	err := run(nil)
	if err == nil {
		t.Fatal("Expected configuration error, got nil")
	}
	if !strings.Contains(err.Error(), "configuration error") {
		t.Errorf("Expected configuration error, got %v", err)
	}
}

func TestRunInvalidSeedFileIsLogged(t *testing.T) {
	dir := t.TempDir()
	logDir := filepath.Join(dir, "logs")
	seedPath := filepath.Join(dir, "seed.yaml")
	if err := os.WriteFile(seedPath, []byte("entities: ["), 0o644); err != nil {
		t.Fatalf("Failed to write seed file: %v", err)
	}

	t.Setenv("ENV", "test")
	t.Setenv("LOG_DIR", logDir)
	t.Setenv("KG_SEED_FILE", seedPath)

	err := run(nil)
	if err == nil {
		t.Fatal("Expected seed file error, got nil")
	}
	if !strings.Contains(err.Error(), "failed to load seed file") {
		t.Errorf("Expected seed file error, got %v", err)
	}

	// run has returned, so the log file holds the failure
	files, err := os.ReadDir(logDir)
	if err != nil {
		t.Fatalf("Failed to read log directory: %v", err)
	}
	found := false
	for _, f := range files {
		content, err := os.ReadFile(filepath.Join(logDir, f.Name()))
		if err != nil {
			t.Fatalf("Failed to read log file: %v", err)
		}
		if strings.Contains(string(content), "Failed to load seed file") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected the seed file failure in %d log files, found none", len(files))
	}
}
