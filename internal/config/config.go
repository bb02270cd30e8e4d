// Package config loads service configuration.
package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	BackendSQL    = "sql"
	BackendMemory = "memory"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds every setting the server and snakectl read.
type Config struct {
	Port         string `koanf:"port"`
	DatabaseURL  string `koanf:"database_url"`
	StoreBackend string `koanf:"store_backend"`

	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`

	CORSOrigins []string `koanf:"cors_origins"`

	// RedisAddr enables the leaderboard cache and the game_finished subscriber when set.
	RedisAddr         string        `koanf:"redis_addr"`
	CacheTTL          time.Duration `koanf:"cache_ttl"`
	SubscriberEnabled bool          `koanf:"subscriber_enabled"`

	WarmEnabled  bool   `koanf:"warm_enabled"`
	WarmSchedule string `koanf:"warm_schedule"`

	SeedFile string `koanf:"seed_file"`

	DBConnectTimeout time.Duration `koanf:"db_connect_timeout"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Port:         "8080",
		DatabaseURL:  "sqlite://./snake_game.db",
		StoreBackend: BackendSQL,
		JWTSecret:    "dev",
		TokenTTL:     30 * time.Minute,
		CORSOrigins: []string{
			"http://localhost:5173",
			"http://localhost:5176",
			"http://localhost:3000",
			"http://127.0.0.1:5173",
			"http://127.0.0.1:3000",
		},
		CacheTTL:          30 * time.Second,
		SubscriberEnabled: true,
		WarmSchedule:      "@every 1m",
		DBConnectTimeout:  30 * time.Second,
	}
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("%w: port must not be empty", ErrInvalidConfig)
	}
	switch c.StoreBackend {
	case BackendSQL:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: database_url is required for the sql backend", ErrInvalidConfig)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("%w: unsupported store backend %q, supported: sql, memory", ErrInvalidConfig, c.StoreBackend)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("%w: jwt_secret must not be empty", ErrInvalidConfig)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("%w: token_ttl must be positive", ErrInvalidConfig)
	}
	return nil
}
