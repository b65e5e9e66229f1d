// Package config provides unified configuration loading for the title
// parser. Supports YAML files, environment variables, and programmatic
// overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the title-parser pipeline.
type Config struct {
	Store         StoreConfig         `yaml:"store"`
	Pipeline      PipelineConfig      `yaml:"pipeline"`
	Cache         CacheConfig         `yaml:"cache"`
	Observability ObservabilityConfig `yaml:"observability"`
	Server        ServerConfig        `yaml:"server"`
}

// StoreConfig holds Pattern Library Store connection settings.
type StoreConfig struct {
	Driver     string        `yaml:"driver"` // mongo or memory
	URI        string        `yaml:"uri"`
	Database   string        `yaml:"database"`
	Collection string        `yaml:"collection"`
	Timeout    time.Duration `yaml:"timeout"`
}

// PipelineConfig holds per-title processing settings.
type PipelineConfig struct {
	MaxWorkers     int           `yaml:"max_workers"`
	PerTitleBudget time.Duration `yaml:"per_title_budget"`
	QueueDepth     int           `yaml:"queue_depth"`
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	Driver      string        `yaml:"driver"` // memory or redis
	Redis       RedisConfig   `yaml:"redis"`
	ResultTTL   time.Duration `yaml:"result_ttl"`
	ReloadTopic string        `yaml:"reload_topic"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// ServerConfig holds the optional HTTP lookup service's settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Load reads configuration from a YAML file and applies environment
// overrides. An empty path returns defaults with env overrides applied.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for
// development.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Driver:     "mongo",
			URI:        "mongodb://localhost:27017",
			Database:   "titleparser",
			Collection: "patterns",
			Timeout:    10 * time.Second,
		},
		Pipeline: PipelineConfig{
			MaxWorkers:     8,
			PerTitleBudget: 250 * time.Millisecond,
			QueueDepth:     1000,
		},
		Cache: CacheConfig{
			Driver: "memory",
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				DB:       0,
				PoolSize: 10,
			},
			ResultTTL:   10 * time.Minute,
			ReloadTopic: "patterns.reload",
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "console",
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8090,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Store.Driver != "mongo" && c.Store.Driver != "memory" {
		return fmt.Errorf("invalid store driver: %s", c.Store.Driver)
	}
	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}
	if c.Pipeline.MaxWorkers < 1 {
		return fmt.Errorf("pipeline.max_workers must be >= 1")
	}
	if c.Pipeline.PerTitleBudget <= 0 {
		return fmt.Errorf("pipeline.per_title_budget must be positive")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STORE_URI"); v != "" {
		cfg.Store.URI = v
	}
	if v := os.Getenv("STORE_DATABASE"); v != "" {
		cfg.Store.Database = v
	}
	if v := os.Getenv("STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Driver = "redis"
		cfg.Cache.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}
	if v := os.Getenv("PIPELINE_MAX_WORKERS"); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			cfg.Pipeline.MaxWorkers = n
		}
	}
	if v := os.Getenv("PIPELINE_PER_TITLE_BUDGET_MS"); v != "" {
		var ms int
		if _, err := fmt.Sscanf(v, "%d", &ms); err == nil {
			cfg.Pipeline.PerTitleBudget = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			cfg.Server.Port = port
		}
	}
}
