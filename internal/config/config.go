package config

import (
	"os"
	"strconv"
)

// ApplyEnv overrides cfg with LESSONPLAY_* environment variables
func ApplyEnv(cfg *LocalConfig) {
	cfg.Daemon.Port = getEnvInt("LESSONPLAY_PORT", cfg.Daemon.Port)
	cfg.Daemon.Bind = getEnv("LESSONPLAY_BIND", cfg.Daemon.Bind)
	cfg.Daemon.LogLevel = getEnv("LESSONPLAY_LOG_LEVEL", cfg.Daemon.LogLevel)

	cfg.Catalog.Path = getEnv("LESSONPLAY_CATALOG_PATH", cfg.Catalog.Path)
	cfg.Catalog.DefaultLocale = getEnv("LESSONPLAY_LOCALE", cfg.Catalog.DefaultLocale)
	cfg.Catalog.Watch = getEnvBool("LESSONPLAY_CATALOG_WATCH", cfg.Catalog.Watch)

	cfg.Progress.Backend = getEnv("LESSONPLAY_PROGRESS_BACKEND", cfg.Progress.Backend)
	cfg.Progress.SQLitePath = getEnv("LESSONPLAY_SQLITE_PATH", cfg.Progress.SQLitePath)
	cfg.Progress.PostgresURL = getEnv("LESSONPLAY_POSTGRES_URL", cfg.Progress.PostgresURL)

	cfg.Queue.URL = getEnv("LESSONPLAY_RABBITMQ_URL", cfg.Queue.URL)
	cfg.Queue.Enabled = getEnvBool("LESSONPLAY_QUEUE_ENABLED", cfg.Queue.Enabled || cfg.Queue.URL != "")
	cfg.Queue.Workers = getEnvInt("LESSONPLAY_QUEUE_WORKERS", cfg.Queue.Workers)

	cfg.RateLimit.Enabled = getEnvBool("LESSONPLAY_RATE_LIMIT", cfg.RateLimit.Enabled)
	cfg.RateLimit.RequestsPerSecond = getEnvInt("LESSONPLAY_RATE_LIMIT_RPS", cfg.RateLimit.RequestsPerSecond)
	cfg.RateLimit.TrustLearnerHeader = getEnvBool("LESSONPLAY_RATE_LIMIT_TRUST_LEARNER", cfg.RateLimit.TrustLearnerHeader)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
