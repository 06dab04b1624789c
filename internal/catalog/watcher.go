package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a registry when catalog files change on disk.
// Bursts of writes are coalesced into one reload.
type Watcher struct {
	registry *Registry
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onReload func(error)
	// paths the loader reads; a missing one is added when it appears
	paths   []string
	watched map[string]bool
}

// NewWatcher creates a watcher for the registry's catalog directories
func NewWatcher(registry *Registry, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	w := &Watcher{
		registry: registry,
		watcher:  fw,
		debounce: debounce,
		paths:    registry.Loader().WatchPaths(),
		watched:  make(map[string]bool),
	}

	for _, path := range w.paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		if err := w.add(path); err != nil {
			fw.Close()
			return nil, err
		}
	}

	return w, nil
}

func (w *Watcher) add(path string) error {
	if err := w.watcher.Add(path); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	w.watched[path] = true
	return nil
}

// track starts watching catalog directories created after startup and
// forgets ones that were removed, so a later re-creation is picked up
func (w *Watcher) track(event fsnotify.Event) {
	name := filepath.Clean(event.Name)
	switch {
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		delete(w.watched, name)
	case event.Op&fsnotify.Create != 0:
		if w.watched[name] || !slices.Contains(w.paths, name) {
			return
		}
		if info, err := os.Stat(name); err != nil || !info.IsDir() {
			return
		}
		if err := w.add(name); err != nil {
			slog.Warn("catalog watcher could not add directory", "path", name, "error", err)
			return
		}
		slog.Debug("watching new catalog directory", "path", name)
	}
}

// OnReload registers a callback invoked after every reload attempt
func (w *Watcher) OnReload(fn func(error)) {
	w.onReload = fn
}

// Run processes file events until ctx is cancelled
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var pending <-chan time.Time
	var timer *time.Timer

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			slog.Debug("catalog file changed", "path", event.Name, "op", event.Op.String())
			w.track(event)
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			pending = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("catalog watcher error", "error", err)

		case <-pending:
			pending = nil
			err := w.registry.Reload()
			if err != nil {
				slog.Error("catalog reload failed, keeping previous snapshot", "error", err)
			}
			if w.onReload != nil {
				w.onReload(err)
			}
		}
	}
}
