package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	filePrefix         = "pharmasearch-"
	defaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	cleanupInterval    = 24 * time.Hour
)

var numberedFileRe = regexp.MustCompile(`^pharmasearch-\d{4}-W\d{2}_(\d{2})\.log$`)

// RotatingWriter writes to one log file per ISO week
// (pharmasearch-YYYY-Www.log). When a file reaches the size limit the
// writer moves on to pharmasearch-YYYY-Www_NN.log. Files older than the
// retention period are removed once a day.
type RotatingWriter struct {
	dir       string
	retention time.Duration
	maxSize   int64
	now       func() time.Time

	mu   sync.Mutex
	file *os.File
	week string
	size int64

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewRotatingWriter creates dir if needed, opens the file of the current
// week and starts the background cleanup.
func NewRotatingWriter(dir string, retentionWeeks int, maxSize int64) (*RotatingWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}
	if maxSize <= 0 {
		maxSize = defaultMaxFileSize
	}

	w := &RotatingWriter{
		dir:       dir,
		retention: time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxSize:   maxSize,
		now:       time.Now,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}

	w.mu.Lock()
	err := w.openLocked(weekKey(w.now()), false)
	w.mu.Unlock()
	if err != nil {
		return nil, err
	}

	go w.cleanupLoop(cleanupInterval)
	return w, nil
}

// weekKey returns the ISO week in YYYY-Www form
func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// Write appends p to the current file, switching files first when the week
// changed or p would push a non-empty file over the size limit.
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	week := weekKey(w.now())
	switch {
	case w.file == nil || week != w.week:
		if err := w.openLocked(week, false); err != nil {
			return 0, err
		}
	case w.size > 0 && w.size+int64(len(p)) > w.maxSize:
		if err := w.openLocked(week, true); err != nil {
			return 0, err
		}
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

// openLocked closes the current file and opens the next one for week.
// full forces a new numbered file.
func (w *RotatingWriter) openLocked(week string, full bool) error {
	if w.file != nil {
		if err := w.file.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", err)
		}
		w.file = nil
	}

	path := filepath.Join(w.dir, w.pickFile(week, full))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	w.file = f
	w.week = week
	w.size = 0
	if info, err := f.Stat(); err == nil {
		w.size = info.Size()
	}
	return nil
}

func (w *RotatingWriter) pickFile(week string, full bool) string {
	base := filePrefix + week + ".log"
	highest, highestSize := w.highestNumbered(week)

	if !full {
		if highest == 0 {
			if info, err := os.Stat(filepath.Join(w.dir, base)); err != nil || info.Size() < w.maxSize {
				return base
			}
		} else if highestSize < w.maxSize {
			return numberedFile(week, highest)
		}
	}
	return numberedFile(week, highest+1)
}

func numberedFile(week string, n int) string {
	return fmt.Sprintf("%s%s_%02d.log", filePrefix, week, n)
}

// highestNumbered returns the highest size-rotation number used for week and
// the size of that file.
func (w *RotatingWriter) highestNumbered(week string) (int, int64) {
	matches, _ := filepath.Glob(filepath.Join(w.dir, filePrefix+week+"_??.log"))

	highest := 0
	var size int64
	for _, path := range matches {
		m := numberedFileRe.FindStringSubmatch(filepath.Base(path))
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		if n <= highest {
			continue
		}
		highest = n
		size = 0
		if info, err := os.Stat(path); err == nil {
			size = info.Size()
		}
	}
	return highest, size
}

// Cleanup removes log files last modified before the retention period and
// returns how many were deleted.
func (w *RotatingWriter) Cleanup() (int, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read log directory: %w", err)
	}

	cutoff := w.now().Add(-w.retention)
	deleted := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(w.dir, name)); err == nil {
			deleted++
		}
	}
	return deleted, nil
}

func (w *RotatingWriter) cleanupLoop(every time.Duration) {
	defer close(w.done)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			// Console only: logging through slog here would re-enter Write
			if n, err := w.Cleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "log cleanup failed: %v\n", err)
			} else if n > 0 {
				fmt.Fprintf(os.Stdout, "Cleaned up %d old log files\n", n)
			}
		}
	}
}

// Close stops the cleanup goroutine and closes the current file. It is safe
// to call more than once.
func (w *RotatingWriter) Close() error {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
