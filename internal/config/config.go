// Package config parses process configuration from environment variables
// using caarlos0/env, mirroring the env-tag style used for configuration
// elsewhere in the retrieved reference corpus.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// WorkerConfig holds the options table from spec.md §6. ForbiddenFlags is
// deliberately absent here: it is a caller-supplied predicate, not an
// environment-expressible value, and is wired up in Go by whoever
// constructs the worker.
type WorkerConfig struct {
	DatabaseURL string `env:"DATABASE_URL,required"`

	WorkerID string `env:"WORKER_ID"`

	PollInterval           time.Duration `env:"WORKER_POLL_INTERVAL"             envDefault:"2s"`
	MaxContiguousErrors    int           `env:"WORKER_MAX_CONTIGUOUS_ERRORS"     envDefault:"10"`
	UseNodeTime            bool          `env:"WORKER_USE_NODE_TIME"             envDefault:"false"`
	MinResetLockedInterval time.Duration `env:"WORKER_MIN_RESET_LOCKED_INTERVAL" envDefault:"8m"`
	MaxResetLockedInterval time.Duration `env:"WORKER_MAX_RESET_LOCKED_INTERVAL" envDefault:"10m"`

	HealthAddr      string        `env:"WORKER_HEALTH_ADDR"       envDefault:":9090"`
	ShutdownTimeout time.Duration `env:"WORKER_SHUTDOWN_TIMEOUT"  envDefault:"30s"`
}

// APIConfig holds the control-plane's HTTP-layer configuration.
type APIConfig struct {
	DatabaseURL  string        `env:"DATABASE_URL,required"`
	ListenAddr   string        `env:"LISTEN_ADDR"          envDefault:":8080"`
	ReadTimeout  time.Duration `env:"API_READ_TIMEOUT"     envDefault:"5s"`
	WriteTimeout time.Duration `env:"API_WRITE_TIMEOUT"    envDefault:"10s"`
}

// MigrateConfig holds cmd/migrate's configuration.
type MigrateConfig struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
}

// LoadWorkerConfig reads a WorkerConfig from the environment.
func LoadWorkerConfig() (WorkerConfig, error) {
	var cfg WorkerConfig
	if err := env.Parse(&cfg); err != nil {
		return WorkerConfig{}, err
	}
	return cfg, nil
}

// LoadAPIConfig reads an APIConfig from the environment.
func LoadAPIConfig() (APIConfig, error) {
	var cfg APIConfig
	if err := env.Parse(&cfg); err != nil {
		return APIConfig{}, err
	}
	return cfg, nil
}

// LoadMigrateConfig reads a MigrateConfig from the environment.
func LoadMigrateConfig() (MigrateConfig, error) {
	var cfg MigrateConfig
	if err := env.Parse(&cfg); err != nil {
		return MigrateConfig{}, err
	}
	return cfg, nil
}
