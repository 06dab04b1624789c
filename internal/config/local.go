package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Progress backends
const (
	BackendLocal    = "local"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// LocalConfig holds configuration for the lesson daemon and CLI
type LocalConfig struct {
	Daemon    DaemonConfig    `yaml:"daemon"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Progress  ProgressConfig  `yaml:"progress"`
	Queue     QueueConfig     `yaml:"queue"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// DaemonConfig holds daemon server settings
type DaemonConfig struct {
	Port                   int    `yaml:"port"`
	Bind                   string `yaml:"bind"`
	LogLevel               string `yaml:"log_level"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
}

// CatalogConfig holds content catalog settings
type CatalogConfig struct {
	Path          string `yaml:"path"`
	DefaultLocale string `yaml:"default_locale"`
	Watch         bool   `yaml:"watch"`
	DebounceMS    int    `yaml:"debounce_ms"`
}

// ProgressConfig selects where learner progress is stored
type ProgressConfig struct {
	Backend     string `yaml:"backend"` // local, sqlite, postgres, memory
	LocalPath   string `yaml:"local_path"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresURL string `yaml:"-"` // LESSONPLAY_POSTGRES_URL only
}

// QueueConfig holds RabbitMQ settings for completion events
type QueueConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"-"` // LESSONPLAY_RABBITMQ_URL only
	Consume  bool   `yaml:"consume"`
	Workers  int    `yaml:"workers"`
	Prefetch int    `yaml:"prefetch"`
}

// RateLimitConfig holds per-client HTTP rate limits
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerSecond int  `yaml:"requests_per_second"`
	Burst             int  `yaml:"burst"`
	// TrustLearnerHeader keys limits on X-Learner-ID instead of the client
	// address. Enable only behind a proxy that sets or strips the header.
	TrustLearnerHeader bool `yaml:"trust_learner_header"`
}

// Dir returns the lessonplay home, ~/.lessonplay unless LESSONPLAY_HOME is set
func Dir() (string, error) {
	if dir := os.Getenv("LESSONPLAY_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".lessonplay"), nil
}

// EnsureDir creates the lessonplay home and its subdirectories
func EnsureDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}

	for _, subdir := range []string{"", "logs", "progress", "catalog"} {
		path := filepath.Join(dir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", fmt.Errorf("create dir %s: %w", path, err)
		}
	}
	return dir, nil
}

// DefaultLocalConfig returns defaults rooted at dir
func DefaultLocalConfig(dir string) *LocalConfig {
	return &LocalConfig{
		Daemon: DaemonConfig{
			Port:                   7433,
			Bind:                   "127.0.0.1",
			LogLevel:               "info",
			ShutdownTimeoutSeconds: 10,
		},
		Catalog: CatalogConfig{
			Path:          filepath.Join(dir, "catalog"),
			DefaultLocale: "en",
			Watch:         false,
			DebounceMS:    500,
		},
		Progress: ProgressConfig{
			Backend:    BackendLocal,
			LocalPath:  filepath.Join(dir, "progress"),
			SQLitePath: filepath.Join(dir, "lessonplay.db"),
		},
		Queue: QueueConfig{
			Enabled:  false,
			Consume:  true,
			Workers:  3,
			Prefetch: 10,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 20,
			Burst:             40,
		},
	}
}

// LoadLocalConfig loads ~/.lessonplay/config.yaml, falling back to
// defaults, then applies environment overrides
func LoadLocalConfig() (*LocalConfig, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return LoadLocalConfigFrom(dir)
}

// LoadLocalConfigFrom loads config.yaml from dir
func LoadLocalConfigFrom(dir string) (*LocalConfig, error) {
	cfg := DefaultLocalConfig(dir)

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	ApplyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveLocalConfig writes cfg to ~/.lessonplay/config.yaml
func SaveLocalConfig(cfg *LocalConfig) error {
	dir, err := EnsureDir()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks settings that would otherwise fail late
func (c *LocalConfig) Validate() error {
	if c.Daemon.Port <= 0 || c.Daemon.Port > 65535 {
		return fmt.Errorf("daemon.port %d out of range", c.Daemon.Port)
	}
	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path is required")
	}

	switch c.Progress.Backend {
	case BackendLocal, BackendSQLite, BackendMemory:
	case BackendPostgres:
		if c.Progress.PostgresURL == "" {
			return fmt.Errorf("progress backend postgres requires LESSONPLAY_POSTGRES_URL")
		}
	default:
		return fmt.Errorf("unknown progress backend %q", c.Progress.Backend)
	}

	if c.Queue.Enabled && c.Queue.URL == "" {
		return fmt.Errorf("queue enabled but LESSONPLAY_RABBITMQ_URL is not set")
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("rate_limit.requests_per_second must be positive")
	}
	return nil
}

// Addr returns the daemon listen address
func (c *LocalConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Daemon.Bind, c.Daemon.Port)
}

// WatchDebounce returns the catalog watcher debounce
func (c *LocalConfig) WatchDebounce() time.Duration {
	return time.Duration(c.Catalog.DebounceMS) * time.Millisecond
}

// ShutdownTimeout returns how long the daemon waits for in-flight work
func (c *LocalConfig) ShutdownTimeout() time.Duration {
	if c.Daemon.ShutdownTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Daemon.ShutdownTimeoutSeconds) * time.Second
}
