// Package config loads the digital twins service configuration from an
// optional YAML file plus environment variable overrides, following the
// same viper-backed layering the teacher's CLI root command used for its
// RabbitMQ/CouchDB/JWT settings, generalized here to a plain struct rather
// than cobra flags since this service has no interactive CLI surface.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// StoreConfig configures the Postgres-backed property graph store.
type StoreConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	DefaultGraph    string        `mapstructure:"default_graph"`
}

// CacheConfig configures the model catalog cache tiers.
type CacheConfig struct {
	TTL          time.Duration `mapstructure:"ttl"`
	MaxEntries   int           `mapstructure:"max_entries"`
	RedisAddr    string        `mapstructure:"redis_addr"`
	RedisEnabled bool          `mapstructure:"redis_enabled"`
}

// JobConfig configures the durable job runner.
type JobConfig struct {
	LockTTL         time.Duration `mapstructure:"lock_ttl"`
	HeartbeatPeriod time.Duration `mapstructure:"heartbeat_period"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryBaseDelay  time.Duration `mapstructure:"retry_base_delay"`
	BatchSize       int           `mapstructure:"batch_size"`
}

// QueryConfig configures the paginated TDQL query executor.
type QueryConfig struct {
	DefaultPageSize int `mapstructure:"default_page_size"`
	MaxPageSize     int `mapstructure:"max_page_size"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig configures internal/telemetry.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config is the fully loaded configuration for the digitaltwins service.
type Config struct {
	ServiceName string        `mapstructure:"service_name"`
	Server      ServerConfig  `mapstructure:"server"`
	Store       StoreConfig   `mapstructure:"store"`
	Cache       CacheConfig   `mapstructure:"cache"`
	Jobs        JobConfig     `mapstructure:"jobs"`
	Query       QueryConfig   `mapstructure:"query"`
	Log         LogConfig     `mapstructure:"log"`
}

// defaults are applied before the config file and environment are read, so
// both can override them.
func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "digitaltwins")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("store.dsn", "postgres://localhost:5432/digitaltwins?sslmode=disable")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("store.conn_max_lifetime", time.Hour)
	v.SetDefault("store.default_graph", "default")

	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.max_entries", 2048)
	v.SetDefault("cache.redis_enabled", false)
	v.SetDefault("cache.redis_addr", "localhost:6379")

	v.SetDefault("jobs.lock_ttl", 30*time.Second)
	v.SetDefault("jobs.heartbeat_period", 10*time.Second)
	v.SetDefault("jobs.max_retries", 5)
	v.SetDefault("jobs.retry_base_delay", 500*time.Millisecond)
	v.SetDefault("jobs.batch_size", 500)

	v.SetDefault("query.default_page_size", 100)
	v.SetDefault("query.max_page_size", 1000)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load reads configuration from (in ascending priority order) built-in
// defaults, an optional YAML file at configPath, and environment variables
// prefixed DTWIN_ (e.g. DTWIN_STORE_DSN overrides store.dsn). configPath may
// be empty, in which case only defaults and the environment apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DTWIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	var errs []string
	if cfg.Store.DSN == "" {
		errs = append(errs, "store.dsn is required")
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, "log.level must be one of: debug, info, warn, error")
	}
	if cfg.Query.MaxPageSize < cfg.Query.DefaultPageSize {
		errs = append(errs, "query.max_page_size must be >= query.default_page_size")
	}
	if cfg.Jobs.BatchSize <= 0 {
		errs = append(errs, "jobs.batch_size must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
