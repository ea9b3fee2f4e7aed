package config

import (
	"fmt"
	"net/url"
	"slices"
)

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Session store backends
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Observability export protocols
const (
	ProtocolHTTP = "http"
	ProtocolGRPC = "grpc"
)

// Validate checks cfg section by section and returns the first failure.
func Validate(cfg *Config) error {
	if err := validateApp(&cfg.App); err != nil {
		return fmt.Errorf("app config: %w", err)
	}

	if err := validateAPI(&cfg.API); err != nil {
		return fmt.Errorf("api config: %w", err)
	}

	if err := validateSession(&cfg.Session); err != nil {
		return fmt.Errorf("session config: %w", err)
	}

	if err := validateObservability(&cfg.Observability); err != nil {
		return fmt.Errorf("observability config: %w", err)
	}

	return nil
}

func validateApp(cfg *AppConfig) error {
	if cfg.Name == "" {
		return NewMissingFieldError("app.name")
	}

	validEnvs := []string{EnvDevelopment, EnvStaging, EnvProduction}
	if !slices.Contains(validEnvs, cfg.Env) {
		return NewInvalidFieldError("app.env", fmt.Sprintf("invalid environment: %s", cfg.Env), validEnvs)
	}

	return nil
}

// validateAPI requires an absolute http(s) base URL, a non-negative retry
// ceiling and positive delays.
func validateAPI(cfg *APIConfig) error {
	if cfg.BaseURL == "" {
		return NewMissingFieldError("api.baseurl")
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return NewInvalidFieldError("api.baseurl", fmt.Sprintf("not an absolute http(s) url: %q", cfg.BaseURL), nil)
	}

	if cfg.Timeout <= 0 {
		return NewInvalidFieldError("api.timeout", "timeout must be positive", nil)
	}

	if cfg.Retry.Max < 0 {
		return NewInvalidFieldError("api.retry.max", fmt.Sprintf("retry ceiling cannot be negative: %d", cfg.Retry.Max), nil)
	}

	if cfg.Retry.BaseDelay <= 0 {
		return NewInvalidFieldError("api.retry.basedelay", "base delay must be positive", nil)
	}

	if cfg.Rate.Limit < 0 {
		return NewInvalidFieldError("api.rate.limit", "rate limit cannot be negative", nil)
	}

	if cfg.Rate.Limit > 0 && cfg.Rate.Burst <= 0 {
		return NewInvalidFieldError("api.rate.burst", "burst must be positive when a rate limit is set", nil)
	}

	return nil
}

func validateSession(cfg *SessionConfig) error {
	stores := []string{StoreMemory, StoreFile, StoreRedis}
	if !slices.Contains(stores, cfg.Store) {
		return NewInvalidFieldError("session.store", fmt.Sprintf("unknown store: %s", cfg.Store), stores)
	}

	if cfg.Keys.Token == "" || cfg.Keys.User == "" {
		return NewInvalidFieldError("session.keys", "token and user keys must both be set", nil)
	}

	if cfg.Keys.Token == cfg.Keys.User {
		return NewInvalidFieldError("session.keys", "token and user keys must differ", nil)
	}

	switch cfg.Store {
	case StoreFile:
		if cfg.File.Path == "" {
			return NewMissingFieldError("session.file.path")
		}
	case StoreRedis:
		if cfg.Redis.Host == "" {
			return NewMissingFieldError("session.redis.host")
		}
		if cfg.Redis.Port <= 0 || cfg.Redis.Port > 65535 {
			return NewInvalidFieldError("session.redis.port", fmt.Sprintf("invalid port: %d (must be 1-65535)", cfg.Redis.Port), nil)
		}
	}

	return nil
}

func validateObservability(cfg *ObservabilityConfig) error {
	if !cfg.Enabled {
		return nil
	}

	if cfg.Endpoint == "" {
		return NewMissingFieldError("observability.endpoint")
	}

	protocols := []string{ProtocolHTTP, ProtocolGRPC}
	if !slices.Contains(protocols, cfg.Protocol) {
		return NewInvalidFieldError("observability.protocol", fmt.Sprintf("unknown protocol: %s", cfg.Protocol), protocols)
	}

	return nil
}
