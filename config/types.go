package config

import (
	"time"

	"github.com/knadh/koanf/v2"
)

// Config represents the overall client configuration.
// The koanf instance is retained for access to keys not modelled here.
type Config struct {
	App           AppConfig           `koanf:"app" json:"app" yaml:"app"`
	API           APIConfig           `koanf:"api" json:"api" yaml:"api"`
	Session       SessionConfig       `koanf:"session" json:"session" yaml:"session"`
	Log           LogConfig           `koanf:"log" json:"log" yaml:"log"`
	Observability ObservabilityConfig `koanf:"observability" json:"observability" yaml:"observability"`

	k *koanf.Koanf `json:"-" yaml:"-"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name    string `koanf:"name" json:"name" yaml:"name"`
	Version string `koanf:"version" json:"version" yaml:"version"`
	Env     string `koanf:"env" json:"env" yaml:"env"`
}

// APIConfig describes the remote building-management API and how calls to it
// are retried.
type APIConfig struct {
	BaseURL string        `koanf:"baseurl" json:"baseurl" yaml:"baseurl"`
	Timeout time.Duration `koanf:"timeout" json:"timeout" yaml:"timeout"`
	Retry   RetryConfig   `koanf:"retry" json:"retry" yaml:"retry"`
	Rate    RateConfig    `koanf:"rate" json:"rate" yaml:"rate"`

	// LogPayloads enables debug-level logging of headers and body previews
	LogPayloads        bool `koanf:"logpayloads" json:"logpayloads" yaml:"logpayloads"`
	MaxPayloadLogBytes int  `koanf:"maxpayloadlogbytes" json:"maxpayloadlogbytes" yaml:"maxpayloadlogbytes"`
}

// RetryConfig holds the retry ceiling shared by all failure classes and the
// base delay used for linear network backoff and default rate-limit waits.
type RetryConfig struct {
	Max       int           `koanf:"max" json:"max" yaml:"max"`
	BaseDelay time.Duration `koanf:"basedelay" json:"basedelay" yaml:"basedelay"`
}

// RateConfig configures the optional client-side limiter. Limit 0 disables it.
type RateConfig struct {
	Limit float64 `koanf:"limit" json:"limit" yaml:"limit"`
	Burst int     `koanf:"burst" json:"burst" yaml:"burst"`
}

// SessionConfig selects where the bearer token and user identity are kept.
type SessionConfig struct {
	Store string           `koanf:"store" json:"store" yaml:"store"`
	Keys  SessionKeys      `koanf:"keys" json:"keys" yaml:"keys"`
	File  FileStoreConfig  `koanf:"file" json:"file" yaml:"file"`
	Redis RedisStoreConfig `koanf:"redis" json:"redis" yaml:"redis"`
}

// SessionKeys names the two storage keys that are always cleared together.
type SessionKeys struct {
	Token string `koanf:"token" json:"token" yaml:"token"`
	User  string `koanf:"user" json:"user" yaml:"user"`
}

// FileStoreConfig holds settings for the JSON file session store.
type FileStoreConfig struct {
	Path string `koanf:"path" json:"path" yaml:"path"`
}

// RedisStoreConfig holds settings for the Redis session store.
type RedisStoreConfig struct {
	Host     string `koanf:"host" json:"host" yaml:"host"`
	Port     int    `koanf:"port" json:"port" yaml:"port"`
	Database int    `koanf:"database" json:"database" yaml:"database"`
	Password string `koanf:"password" json:"-" yaml:"-"` //nolint:gosec // loaded from env
	Prefix   string `koanf:"prefix" json:"prefix" yaml:"prefix"`
}

// LogConfig holds logging preferences.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty"`
}

// ObservabilityConfig controls OpenTelemetry export.
type ObservabilityConfig struct {
	Enabled  bool   `koanf:"enabled" json:"enabled" yaml:"enabled"`
	Endpoint string `koanf:"endpoint" json:"endpoint" yaml:"endpoint"`
	Protocol string `koanf:"protocol" json:"protocol" yaml:"protocol"`
	Insecure bool   `koanf:"insecure" json:"insecure" yaml:"insecure"`
}

// Koanf exposes the underlying instance for custom keys.
func (c *Config) Koanf() *koanf.Koanf {
	return c.k
}
