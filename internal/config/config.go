// Package config loads process configuration from environment variables,
// with an optional YAML file providing defaults that env vars override.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the full set of knobs the orchestrator daemon needs at
// startup. Field names mirror the env var names one-to-one via the
// `env` struct tag; the `yaml` tag lets the same struct be populated
// from a config file first, with environment variables taking final
// precedence.
type Config struct {
	// DatabaseURL is a libpq-style connection string for the asset store.
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL,required"`

	// HTTPAddr is the listen address for the edge HTTP/WebSocket server.
	HTTPAddr string `yaml:"http_addr" env:"PR0T0N_HTTP_ADDR" envDefault:":8080"`

	// DBMaxConns bounds the pgx pool's maximum connection count.
	DBMaxConns int32 `yaml:"db_max_conns" env:"PR0T0N_DB_MAX_CONNS" envDefault:"10"`

	// DBConnectTimeout bounds how long the pool readiness wait will retry
	// before giving up at startup.
	DBConnectTimeout time.Duration `yaml:"db_connect_timeout" env:"PR0T0N_DB_CONNECT_TIMEOUT" envDefault:"30s"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" env:"PR0T0N_LOG_LEVEL" envDefault:"info"`

	// HeartbeatInterval is the server-side WebSocket ping cadence.
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval" env:"PR0T0N_HEARTBEAT_INTERVAL" envDefault:"5s"`

	// HeartbeatTimeout is how long a session tolerates a missed pong
	// before the Session Registry marks it Disconnected.
	HeartbeatTimeout time.Duration `yaml:"heartbeat_timeout" env:"PR0T0N_HEARTBEAT_TIMEOUT" envDefault:"30s"`
}

// Load reads an optional YAML file at path (ignored if path is empty or
// the file does not exist) and then overlays environment variables on
// top of it, per the `env` tags above.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}
	return cfg, nil
}
