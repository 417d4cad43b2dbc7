package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"
)

func logFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read log directory: %v", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), filePrefix) && strings.HasSuffix(e.Name(), ".log") {
			names = append(names, e.Name())
		}
	}
	return names
}

func TestWeekKey(t *testing.T) {
	tests := []struct {
		date     time.Time
		expected string
	}{
		{time.Date(2025, 10, 7, 12, 0, 0, 0, time.UTC), "2025-W41"},
		{time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), "2025-W01"},
		// ISO week of 2024-12-30 belongs to 2025
		{time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), "2025-W01"},
	}

	for _, tt := range tests {
		if got := weekKey(tt.date); got != tt.expected {
			t.Errorf("Expected week key %s, got %s", tt.expected, got)
		}
	}
}

func TestRotatingWriter(t *testing.T) {
	tempDir := t.TempDir()

	w, err := NewRotatingWriter(tempDir, 1, 0)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}

	expected := filepath.Join(tempDir, filePrefix+weekKey(time.Now())+".log")
	if _, err := os.Stat(expected); err != nil {
		t.Errorf("Expected log file %s to exist: %v", expected, err)
	}

	if _, err := w.Write([]byte("graph seeded\n")); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	content, err := os.ReadFile(expected)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), "graph seeded") {
		t.Errorf("Log file does not contain the message: %q", content)
	}
}

func TestRotatingWriterSizeRotation(t *testing.T) {
	tempDir := t.TempDir()

	w, err := NewRotatingWriter(tempDir, 1, 100)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	defer func() { _ = w.Close() }()

	if _, err := w.Write([]byte("small message")); err != nil {
		t.Fatalf("Failed to write small message: %v", err)
	}
	large := strings.Repeat("dynamic update merged node ", 10)
	if _, err := w.Write([]byte(large)); err != nil {
		t.Fatalf("Failed to write large message: %v", err)
	}
	// Another write goes to a fresh numbered file since _01 is over the limit
	if _, err := w.Write([]byte("after")); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}

	names := logFiles(t, tempDir)
	if len(names) != 3 {
		t.Fatalf("Expected 3 log files, got %d: %v", len(names), names)
	}

	numbered := regexp.MustCompile(`_\d{2}\.log$`)
	count := 0
	for _, name := range names {
		if numbered.MatchString(name) {
			count++
		}
	}
	if count != 2 {
		t.Errorf("Expected 2 numbered files, got %d: %v", count, names)
	}
}

func TestRotatingWriterReusesFileBelowLimit(t *testing.T) {
	tempDir := t.TempDir()
	week := weekKey(time.Now())
	base := filepath.Join(tempDir, filePrefix+week+".log")
	if err := os.WriteFile(base, []byte("previous run\n"), 0o644); err != nil {
		t.Fatalf("Failed to create existing file: %v", err)
	}

	w, err := NewRotatingWriter(tempDir, 1, 1024)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	if _, err := w.Write([]byte("this run\n")); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}
	_ = w.Close()

	content, _ := os.ReadFile(base)
	if string(content) != "previous run\nthis run\n" {
		t.Errorf("Expected append to existing file, got %q", content)
	}
	if names := logFiles(t, tempDir); len(names) != 1 {
		t.Errorf("Expected a single file, got %v", names)
	}
}

func TestRotatingWriterSkipsFullFile(t *testing.T) {
	tempDir := t.TempDir()
	week := weekKey(time.Now())
	base := filepath.Join(tempDir, filePrefix+week+".log")
	if err := os.WriteFile(base, []byte(strings.Repeat("x", 200)), 0o644); err != nil {
		t.Fatalf("Failed to create existing file: %v", err)
	}

	w, err := NewRotatingWriter(tempDir, 1, 100)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	if _, err := w.Write([]byte("fresh")); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}
	_ = w.Close()

	content, err := os.ReadFile(filepath.Join(tempDir, numberedFile(week, 1)))
	if err != nil {
		t.Fatalf("Expected numbered file: %v", err)
	}
	if string(content) != "fresh" {
		t.Errorf("Expected 'fresh', got %q", content)
	}
}

func TestRotatingWriterWeekChange(t *testing.T) {
	tempDir := t.TempDir()

	w, err := NewRotatingWriter(tempDir, 1, 0)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	defer func() { _ = w.Close() }()

	next := time.Now().AddDate(0, 0, 7)
	w.mu.Lock()
	w.now = func() time.Time { return next }
	w.mu.Unlock()

	if _, err := w.Write([]byte("next week")); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}

	if _, err := os.Stat(filepath.Join(tempDir, filePrefix+weekKey(next)+".log")); err != nil {
		t.Errorf("Expected file for next week: %v", err)
	}
}

func TestRotatingWriterCleanup(t *testing.T) {
	tempDir := t.TempDir()

	w, err := NewRotatingWriter(tempDir, 1, 0)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	defer func() { _ = w.Close() }()

	oldFile := filepath.Join(tempDir, filePrefix+"2025-W30.log")
	unrelated := filepath.Join(tempDir, "notes.txt")
	for _, path := range []string{oldFile, unrelated} {
		if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
			t.Fatalf("Failed to create %s: %v", path, err)
		}
		threeWeeksAgo := time.Now().AddDate(0, 0, -21)
		if err := os.Chtimes(path, threeWeeksAgo, threeWeeksAgo); err != nil {
			t.Fatalf("Failed to age %s: %v", path, err)
		}
	}

	deleted, err := w.Cleanup()
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted file, got %d", deleted)
	}
	if _, err := os.Stat(oldFile); !os.IsNotExist(err) {
		t.Errorf("Old log file %s was not deleted", oldFile)
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Errorf("Unrelated file was deleted: %v", err)
	}
	if names := logFiles(t, tempDir); len(names) != 1 {
		t.Errorf("Expected current log file to survive, got %v", names)
	}
}

func TestRotatingWriterInvalidDirectory(t *testing.T) {
	tempDir := t.TempDir()
	blocker := filepath.Join(tempDir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	if _, err := NewRotatingWriter(filepath.Join(blocker, "logs"), 1, 0); err == nil {
		t.Error("Expected error for a directory under a regular file, got nil")
	}
}

func TestRotatingWriterConcurrentWrites(t *testing.T) {
	tempDir := t.TempDir()

	w, err := NewRotatingWriter(tempDir, 1, 512)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}

	const goroutines = 10
	const writes = 20

	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := range writes {
				if _, err := fmt.Fprintf(w, "goroutine %02d write %02d\n", id, j); err != nil {
					t.Errorf("Write failed: %v", err)
				}
			}
		}(i)
	}
	wg.Wait()
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	lines := 0
	for _, name := range logFiles(t, tempDir) {
		content, err := os.ReadFile(filepath.Join(tempDir, name))
		if err != nil {
			t.Fatalf("Failed to read %s: %v", name, err)
		}
		lines += strings.Count(string(content), "\n")
	}
	if lines != goroutines*writes {
		t.Errorf("Expected %d lines across files, got %d", goroutines*writes, lines)
	}
}

func TestRotatingWriterCloseTwice(t *testing.T) {
	w, err := NewRotatingWriter(t.TempDir(), 1, 0)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("First close failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Second close failed: %v", err)
	}
}
