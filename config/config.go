// Package config loads application settings from the environment and an
// optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the application configuration.
type Config struct {
	DatabaseURL        string        `mapstructure:"database_url"`
	HTTPPort           int           `mapstructure:"http_port"`
	CORSAllowedOrigins string        `mapstructure:"cors_allowed_origins"`
	RedisAddr          string        `mapstructure:"redis_addr"`
	CacheTTL           time.Duration `mapstructure:"cache_ttl"`
	CachePrefix        string        `mapstructure:"cache_prefix"`
	DBDebug            bool          `mapstructure:"db_debug"`
	LogLevel           string        `mapstructure:"log_level"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
}

// CacheEnabled reports whether a Redis address was configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

var defaults = map[string]any{
	"database_url":         "sqlite://jarvis.db",
	"http_port":            8000,
	"cors_allowed_origins": "http://localhost:5173",
	"redis_addr":           "",
	"cache_ttl":            5 * time.Minute,
	"cache_prefix":         "jarvis:",
	"db_debug":             false,
	"log_level":            "info",
	"shutdown_timeout":     30 * time.Second,
}

// Load reads configuration. Environment variables (DATABASE_URL, HTTP_PORT, ...)
// override values from the YAML file named by CONFIG_FILE, which override defaults.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("http_port %d out of range", c.HTTPPort))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("cache_ttl must be positive, got %s", c.CacheTTL))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown_timeout must be positive, got %s", c.ShutdownTimeout))
	}
	switch strings.ToLower(c.LogLevel) {
	case "info", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level must be info or error, got %q", c.LogLevel))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
