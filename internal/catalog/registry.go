package catalog

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Registry holds the current catalog snapshot and swaps it on reload.
// Readers always get a complete, immutable snapshot.
type Registry struct {
	loader   *Loader
	mu       sync.RWMutex
	current  *Catalog
	loadedAt time.Time
}

// NewRegistry creates a new catalog registry
func NewRegistry(loader *Loader) *Registry {
	return &Registry{loader: loader}
}

// Load reads the catalog from disk and makes it current
func (r *Registry) Load() error {
	c, err := r.loader.Load()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	r.mu.Lock()
	r.current = c
	r.loadedAt = time.Now()
	r.mu.Unlock()

	stats := c.Stats()
	slog.Info("catalog loaded",
		"path", r.loader.BasePath(),
		"lessons", stats.LessonCount,
		"chapters", stats.ChapterCount,
		"locales", stats.Locales,
	)
	return nil
}

// Reload re-reads the catalog. On failure the previous snapshot stays current.
func (r *Registry) Reload() error {
	return r.Load()
}

// Snapshot returns the current catalog, or nil if nothing is loaded yet
func (r *Registry) Snapshot() *Catalog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Loaded reports whether a catalog has been loaded
func (r *Registry) Loaded() bool {
	return r.Snapshot() != nil
}

// LoadedAt returns when the current snapshot was loaded
func (r *Registry) LoadedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loadedAt
}

// Loader returns the underlying loader
func (r *Registry) Loader() *Loader {
	return r.loader
}

// ChapterCount reads the chapter count for a lesson from the current snapshot
func (r *Registry) ChapterCount(lessonKey string) (int, bool) {
	return r.Snapshot().ChapterCount(lessonKey)
}
