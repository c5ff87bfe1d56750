package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow coalesces editor write bursts into one refresh.
const debounceWindow = 300 * time.Millisecond

// Watcher observes the content directory and refreshes changed documents
// through the store. Intended for the development server only.
type Watcher struct {
	store   *DocumentStore
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	timer   *time.Timer
	changed map[string]bool
	refresh chan struct{}
}

// NewWatcher sets up a recursive watch over the store's content directory.
func NewWatcher(s *DocumentStore) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	if err := addDirsRecursive(fsw, s.contentDir); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	return &Watcher{
		store:   s,
		watcher: fsw,
		changed: make(map[string]bool),
		refresh: make(chan struct{}, 1),
	}, nil
}

// Run processes filesystem events until the context is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()

	slog.Info("watching content directory", "dir", w.store.contentDir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", "error", err)
		case <-w.refresh:
			w.refreshChanged(ctx)
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if shouldIgnoreEvent(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(w.watcher, ev.Name)
			return
		}
	}
	if !strings.EqualFold(filepath.Ext(ev.Name), ".md") {
		return
	}

	rel, err := filepath.Rel(w.store.contentDir, ev.Name)
	if err != nil {
		return
	}
	slog.Debug("file change detected", "path", rel, "op", ev.Op.String())

	w.mu.Lock()
	defer w.mu.Unlock()
	w.changed[filepath.ToSlash(rel)] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debounceWindow, func() {
		select {
		case w.refresh <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) refreshChanged(ctx context.Context) {
	w.mu.Lock()
	paths := make([]string, 0, len(w.changed))
	for p := range w.changed {
		paths = append(paths, p)
	}
	w.changed = make(map[string]bool)
	w.mu.Unlock()

	for _, p := range paths {
		if err := w.store.Refresh(ctx, p); err != nil {
			slog.Warn("refresh after change failed", "path", p, "error", err)
		}
	}
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.Add(path); err != nil {
				slog.Warn("watch add failed", "dir", path, "error", err)
			}
		}
		return nil
	})
}

// shouldIgnoreEvent filters hidden files and editor temp/swap artifacts.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db"
}
