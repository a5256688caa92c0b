package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" validate:"required"`
	Local   LocalConfig   `mapstructure:"local" validate:"required"`
	Remote  RemoteConfig  `mapstructure:"remote"`
	Catalog CatalogConfig `mapstructure:"catalog" validate:"required"`
	Study   StudyConfig   `mapstructure:"study" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// LocalConfig locates the embedded sqlite database backing the local
// key-value store.
type LocalConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// RemoteConfig points at the remote document store.
type RemoteConfig struct {
	URI      string `mapstructure:"uri" validate:"required"`
	Database string `mapstructure:"database" validate:"required"`
}

// CatalogConfig points at the read-only catalog database.
type CatalogConfig struct {
	URL      string        `mapstructure:"url" validate:"required,url"`
	CacheTTL time.Duration `mapstructure:"cache_ttl" validate:"min=0"`
}

// StudyConfig carries the engine's default study targets and the
// background reconciliation cadence. Per-learner targets supplied over
// the API override the defaults per request.
type StudyConfig struct {
	DailyNewCount     int           `mapstructure:"daily_new_count" validate:"min=0"`
	DailyReviewCount  int           `mapstructure:"daily_review_count" validate:"min=0"`
	DailyTotal        int           `mapstructure:"daily_total" validate:"min=1"`
	ReconcileInterval time.Duration `mapstructure:"reconcile_interval" validate:"min=0"`
	RemoteCallTimeout time.Duration `mapstructure:"remote_call_timeout" validate:"min=0"`
}
