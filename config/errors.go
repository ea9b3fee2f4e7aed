package config

import (
	"fmt"
	"strings"
)

// ConfigError points at the offending key so the operator can fix it either
// in the YAML file or through the matching environment variable.
//
//nolint:revive // config.ConfigError reads better at call sites than config.Error
type ConfigError struct {
	Field   string   // dotted koanf path, e.g. "session.redis.host"
	Problem string   // what is wrong with the value
	Allowed []string // accepted values, when the field is an enum
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Field, e.Problem)
	if len(e.Allowed) > 0 {
		fmt.Fprintf(&b, " (allowed: %s)", strings.Join(e.Allowed, ", "))
	}
	if e.Problem == problemRequired {
		fmt.Fprintf(&b, "; set %s or %s in the config file", EnvVarFor(e.Field), e.Field)
	}
	return b.String()
}

const problemRequired = "required"

// EnvVarFor maps a koanf path to the environment variable that overrides it.
// It is the inverse of the transform applied when loading the environment.
func EnvVarFor(field string) string {
	return strings.ToUpper(strings.ReplaceAll(field, ".", "_"))
}

// NewMissingFieldError reports an empty required key.
func NewMissingFieldError(field string) *ConfigError {
	return &ConfigError{Field: field, Problem: problemRequired}
}

// NewInvalidFieldError reports a value that failed validation.
func NewInvalidFieldError(field, problem string, allowed []string) *ConfigError {
	return &ConfigError{Field: field, Problem: problem, Allowed: allowed}
}
