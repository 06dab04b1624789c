// Package app builds the runtime components the daemon and CLI share
// from a LocalConfig.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/lessonplay/internal/catalog"
	"github.com/felixgeelhaar/lessonplay/internal/config"
	"github.com/felixgeelhaar/lessonplay/internal/navigation"
	"github.com/felixgeelhaar/lessonplay/internal/player"
	"github.com/felixgeelhaar/lessonplay/internal/progress"
	"github.com/felixgeelhaar/lessonplay/internal/queue"
	"github.com/felixgeelhaar/lessonplay/internal/storage/local"
	"github.com/felixgeelhaar/lessonplay/internal/storage/postgres"
	"github.com/felixgeelhaar/lessonplay/internal/storage/sqlite"
)

// App holds the wired components
type App struct {
	Config   *config.LocalConfig
	Registry *catalog.Registry
	Progress *progress.Service
	Player   *player.Service

	// Set when the queue is enabled
	Conn     *queue.Connection
	Producer *queue.Producer

	closers []func() error
}

// Options controls optional wiring
type Options struct {
	// UseQueue routes completions through RabbitMQ when the config enables it
	UseQueue bool
}

// New opens the progress store and, if requested, the queue connection.
// The catalog is not loaded; call LoadCatalog.
func New(ctx context.Context, cfg *config.LocalConfig, opts Options) (*App, error) {
	store, closeStore, err := OpenStore(ctx, cfg.Progress)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Registry: catalog.NewRegistry(catalog.NewLoader(cfg.Catalog.Path)),
		Progress: progress.NewService(store),
	}
	if closeStore != nil {
		a.closers = append(a.closers, closeStore)
	}

	var sink navigation.CompletionSink = a.Progress
	if opts.UseQueue && cfg.Queue.Enabled {
		conn, err := queue.NewConnection(cfg.Queue.URL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect queue: %w", err)
		}
		a.Conn = conn
		a.Producer = queue.NewProducer(conn, queue.DefaultProducerConfig())
		a.closers = append(a.closers, conn.Close)
		sink = a.Producer
	}

	a.Player = player.NewService(player.Config{
		Registry:      a.Registry,
		Progress:      a.Progress,
		Sink:          sink,
		DefaultLocale: cfg.Catalog.DefaultLocale,
	})
	return a, nil
}

// OpenStore opens the progress store selected by cfg.Backend. The returned
// close func may be nil.
func OpenStore(ctx context.Context, cfg config.ProgressConfig) (progress.Store, func() error, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return progress.NewMemoryStore(), nil, nil

	case config.BackendLocal, "":
		files, err := local.NewStore(cfg.LocalPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open local store: %w", err)
		}
		return local.NewProgressStore(files), nil, nil

	case config.BackendSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		return sqlite.NewProgressStore(db), db.Close, nil

	case config.BackendPostgres:
		pool, err := postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return postgres.NewProgressStore(pool), func() error { pool.Close(); return nil }, nil

	default:
		return nil, nil, fmt.Errorf("unknown progress backend %q", cfg.Backend)
	}
}

// LoadCatalog loads the catalog into the registry
func (a *App) LoadCatalog() error {
	return a.Registry.Load()
}

// Consumer returns a consumer that applies queued completions to the
// progress service, or nil when the queue is not connected
func (a *App) Consumer() *queue.Consumer {
	if a.Conn == nil {
		return nil
	}
	return queue.NewConsumer(a.Conn, a.Progress.Apply, queue.ConsumerConfig{
		Workers:  a.Config.Queue.Workers,
		Prefetch: a.Config.Queue.Prefetch,
	})
}

// Close waits for pending completions and releases resources in reverse
// order of acquisition
func (a *App) Close() error {
	if a.Player != nil {
		a.Player.Wait()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if len(errs) > 0 {
		slog.Warn("errors while closing", "count", len(errs))
	}
	return errors.Join(errs...)
}
