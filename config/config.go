package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// DefaultBaseURL is the primary backend used when nothing else is configured.
const DefaultBaseURL = "http://localhost:8000/api/v1"

// envSections lists the top-level keys that environment variables may override.
var envSections = []string{"app", "api", "session", "log", "observability"}

// Load loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. YAML configuration files (config.yaml, config.<env>.yaml)
// 3. Default values (lowest priority)
func Load() (*Config, error) {
	return LoadWithFile("config.yaml")
}

// LoadWithFile behaves like Load but reads the base YAML file from path.
// A missing file is not an error.
func LoadWithFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			// YAML file is optional, but a broken one is worth a warning
			fmt.Fprintf(os.Stderr, "Warning: could not load %s: %v\n", path, err)
		}
	}

	if env := k.String("app.env"); env != "" {
		envFile := fmt.Sprintf("config.%s.yaml", env)
		if err := k.Load(file.Provider(envFile), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Warning: could not load %s: %v\n", envFile, err)
		}
	}

	if err := loadEnv(k); err != nil {
		return nil, err
	}

	return finish(k)
}

// LoadFromBytes loads defaults, then the given YAML document, then the
// environment. Used for embedded configuration and tests.
func LoadFromBytes(data []byte) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if len(data) > 0 {
		if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := loadEnv(k); err != nil {
		return nil, err
	}

	return finish(k)
}

func loadEnv(k *koanf.Koanf) error {
	provider := envprovider.Provider(".", envprovider.Opt{
		TransformFunc: func(key, value string) (string, any) {
			// Convert UPPER_CASE to lower.case for koanf
			key = strings.ReplaceAll(strings.ToLower(key), "_", ".")
			if !hasKnownSection(key) {
				return "", nil
			}
			return key, value
		},
	})
	if err := k.Load(provider, nil); err != nil {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}
	return nil
}

func hasKnownSection(key string) bool {
	for _, section := range envSections {
		if strings.HasPrefix(key, section+".") {
			return true
		}
	}
	return false
}

func finish(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.k = k

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":    "facility-client",
		"app.version": "v1.0.0",
		"app.env":     EnvDevelopment,

		"api.baseurl":            DefaultBaseURL,
		"api.timeout":            "30s",
		"api.retry.max":          3,
		"api.retry.basedelay":    "1s",
		"api.rate.limit":         0,
		"api.rate.burst":         1,
		"api.logpayloads":        false,
		"api.maxpayloadlogbytes": 1024,

		"session.store":          StoreMemory,
		"session.keys.token":     "token",
		"session.keys.user":      "user",
		"session.file.path":      ".facility/session.json",
		"session.redis.port":     6379,
		"session.redis.database": 0,
		"session.redis.prefix":   "facility:",

		"log.level":  "info",
		"log.pretty": false,

		"observability.enabled":  false,
		"observability.endpoint": "stdout",
		"observability.protocol": ProtocolHTTP,
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}
