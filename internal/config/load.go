package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// config file. Environment variables take precedence over values from
// the file; both override the built-in defaults.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("lexicon")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/lexicon")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No file is fine; env and defaults carry the config.
	}

	v.SetEnvPrefix("LEXICON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("local.path", "lexicon.db")
	// Registered with empty defaults so env-only values are visible to
	// Unmarshal; validation enforces that they are actually set.
	v.SetDefault("remote.uri", "")
	v.SetDefault("remote.database", "")
	v.SetDefault("catalog.url", "")
	v.SetDefault("catalog.cache_ttl", 10*time.Minute)
	v.SetDefault("study.daily_new_count", 10)
	v.SetDefault("study.daily_review_count", 20)
	v.SetDefault("study.daily_total", 30)
	v.SetDefault("study.reconcile_interval", 30*time.Second)
	v.SetDefault("study.remote_call_timeout", 5*time.Second)
}
