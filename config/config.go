// Package config reads modelkit settings from MODELKIT_* environment variables.
package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

const Prefix = "MODELKIT_"

// Backend names accepted by MODELKIT_BACKEND.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

type Config struct {
	Backend string  `env:"BACKEND" envDefault:"memory"`
	Logger  Logger  `envPrefix:"LOG_"`
	SQLite  SQLite  `envPrefix:"SQLITE_"`
	Redis   Redis   `envPrefix:"REDIS_"`
	Cache   Cache   `envPrefix:"CACHE_"`
	Metrics Metrics `envPrefix:"METRICS_"`
}

func Parse() (*Config, error) {
	return parse(env.Options{Prefix: Prefix})
}

// ParseEnvironment reads the configuration from environ instead of the process
// environment. Keys carry the MODELKIT_ prefix.
func ParseEnvironment(environ map[string]string) (*Config, error) {
	return parse(env.Options{Prefix: Prefix, Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	conf, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return &conf, nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendSQLite, BackendRedis:
	default:
		return errors.Errorf("modelkit: unknown backend %q", c.Backend)
	}

	if _, err := c.Logger.LogLevel(); err != nil {
		return errors.WithStack(err)
	}

	switch c.Logger.Format {
	case "console", "json":
	default:
		return errors.Errorf("modelkit: unknown log format %q", c.Logger.Format)
	}

	if c.Cache.Enabled && c.Cache.Size <= 0 {
		return errors.Errorf("modelkit: cache size must be positive, got %d", c.Cache.Size)
	}

	return nil
}
