package seedfile

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/giygas/pharmasearch/interfaces"
	"github.com/giygas/pharmasearch/logging"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher re-applies a seed file to a live graph whenever the file changes.
type Watcher struct {
	path     string
	graph    interfaces.KnowledgeGraph
	fs       *fsnotify.Watcher
	debounce time.Duration
	onApply  func(ApplyResult)

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

type WatcherOption func(*Watcher)

// WithDebounce sets how long the watcher waits for writes to settle.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithOnApply registers a callback run after every reload.
func WithOnApply(fn func(ApplyResult)) WatcherOption {
	return func(w *Watcher) {
		w.onApply = fn
	}
}

// NewWatcher watches the directory holding path, so editors that replace
// the file on save are followed too.
func NewWatcher(path string, graph interfaces.KnowledgeGraph, opts ...WatcherOption) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(absPath), err)
	}

	w := &Watcher{
		path:     absPath,
		graph:    graph,
		fs:       fsw,
		debounce: defaultDebounce,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.wg.Add(1)
	go w.processEvents()

	logging.Info("Watching seed file", "path", absPath)
	return w, nil
}

// Close stops the watcher and waits for a reload in progress to finish.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fs.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	var settle <-chan time.Time
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				settle = time.After(w.debounce)
			}

		case <-settle:
			settle = nil
			w.reload()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logging.Warn("Seed file watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) reload() {
	f, err := Load(w.path)
	if err != nil {
		// Keep the graph as is until the file is fixed
		logging.Error("Seed file reload failed", "path", w.path, "error", err)
		return
	}

	res := Apply(w.graph, f)
	logging.Info("Seed file reloaded",
		"path", w.path,
		"created", res.Created,
		"merged", res.Merged,
		"rejected", res.Rejected,
		"edges", res.Edges,
		"mappings", res.Mappings,
		"failed", res.Failed,
	)

	if w.onApply != nil {
		w.onApply(res)
	}
}
