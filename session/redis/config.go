package redis

import (
	"fmt"
	"time"

	"github.com/gaborage/facility-client/config"
)

// Config holds connection options for the Redis session store.
type Config struct {
	// Host is the Redis server hostname or IP address.
	Host string

	// Port is the Redis server port (default: 6379).
	Port int

	// Password for Redis authentication (optional).
	// Should be provided via environment variable: SESSION_REDIS_PASSWORD
	Password string //nolint:gosec // loaded from env

	// Database number to use (0-15).
	Database int

	// Prefix is prepended to every session key so several clients can share
	// one Redis database.
	Prefix string

	// TTL expires session keys after the given duration. Zero keeps them until
	// logout or an unauthorized response.
	TTL time.Duration

	// DialTimeout is the timeout for establishing new connections (default: 5s).
	DialTimeout time.Duration
}

// FromSessionConfig maps the session.redis section of the client config.
func FromSessionConfig(cfg config.RedisStoreConfig) *Config {
	return &Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		Database: cfg.Database,
		Prefix:   cfg.Prefix,
	}
}

// Validate performs fail-fast validation of the Redis settings.
func (c *Config) Validate() error {
	if c.Host == "" {
		return config.NewMissingFieldError("session.redis.host")
	}

	if c.Port <= 0 || c.Port > 65535 {
		return config.NewInvalidFieldError("session.redis.port", fmt.Sprintf("invalid port: %d", c.Port), nil)
	}

	if c.Database < 0 || c.Database > 15 {
		return config.NewInvalidFieldError("session.redis.database", fmt.Sprintf("invalid database number: %d (must be 0-15)", c.Database), nil)
	}

	if c.TTL < 0 {
		return config.NewInvalidFieldError("session.redis.ttl", "ttl cannot be negative", nil)
	}

	return nil
}

// Address returns the Redis server address in "host:port" format.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
