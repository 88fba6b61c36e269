// Package config provides SDK configuration and environment derivation.
//
// A Config is immutable once validated: updates go through the client's
// UpdateConfig, which replaces the whole structure and re-derives the
// environment, so concurrent readers never observe a partial update.
//
// Environment Variables (read by Load):
//   - PAYGATE_CLIENT_ID: OAuth client id (required)
//   - PAYGATE_CLIENT_SECRET: OAuth client secret (required)
//   - PAYGATE_SANDBOX: select the sandbox environment (default: false)
//   - PAYGATE_TIMEOUT: per-request timeout, e.g. "30s" (default: 30s)
//   - PAYGATE_AUTH_BASE_URL: override the derived auth base URL
//   - PAYGATE_GATEWAY_BASE_URL: override the derived gateway base URL
//   - PAYGATE_LOG_LEVEL: debug, info, warn or error (default: info)
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"paygate-sdk/errors"
)

const (
	// DefaultTimeout is the per-request timeout applied when none is set
	DefaultTimeout = 30 * time.Second
	// MinTimeout is the lowest accepted per-request timeout
	MinTimeout = 1 * time.Second
	// MaxTimeout is the highest accepted per-request timeout
	MaxTimeout = 300 * time.Second
	// DefaultRefreshBuffer is how long before expiry a token counts as
	// expiring and gets refreshed
	DefaultRefreshBuffer = 5 * time.Minute
)

const (
	productionAuthBaseURL    = "https://auth.paygate.io"
	productionGatewayBaseURL = "https://gateway.paygate.io"
	sandboxAuthBaseURL       = "https://auth.sandbox.paygate.io"
	sandboxGatewayBaseURL    = "https://gateway.sandbox.paygate.io"
)

// Config holds all SDK configuration. Callers populate ClientID and
// ClientSecret and usually leave the rest at their defaults.
type Config struct {
	// ClientID is the OAuth client identifier issued by the gateway
	ClientID string
	// ClientSecret is the OAuth client secret
	ClientSecret string
	// Sandbox selects the sandbox hosts instead of production
	Sandbox bool

	// Timeout is the per-request timeout; zero means DefaultTimeout
	Timeout time.Duration
	// RefreshBuffer is the expiring-soon window; zero means DefaultRefreshBuffer
	RefreshBuffer time.Duration

	// DisableRequestTransform turns off camelCase->snake_case rewriting of
	// outbound JSON bodies; transformation is on by default
	DisableRequestTransform bool
	// DisableResponseTransform turns off snake_case->camelCase rewriting of
	// inbound JSON bodies; transformation is on by default
	DisableResponseTransform bool

	// AuthBaseURL overrides the derived auth host when non-empty
	AuthBaseURL string
	// GatewayBaseURL overrides the derived gateway host when non-empty
	GatewayBaseURL string

	// LogLevel is the SDK log level (debug, info, warn, error)
	LogLevel string
}

// Environment is the derived, read-only pair of base URLs the SDK talks to.
type Environment struct {
	Name           string
	AuthBaseURL    string
	GatewayBaseURL string
}

// Load creates a Config from PAYGATE_* environment variables with defaults
// applied. Call Validate on the result before use.
func Load() *Config {
	return &Config{
		ClientID:       getEnv("PAYGATE_CLIENT_ID", ""),
		ClientSecret:   getEnv("PAYGATE_CLIENT_SECRET", ""),
		Sandbox:        getBoolEnv("PAYGATE_SANDBOX", false),
		Timeout:        getDurationEnv("PAYGATE_TIMEOUT", DefaultTimeout),
		AuthBaseURL:    getEnv("PAYGATE_AUTH_BASE_URL", ""),
		GatewayBaseURL: getEnv("PAYGATE_GATEWAY_BASE_URL", ""),
		LogLevel:       getEnv("PAYGATE_LOG_LEVEL", "info"),
	}
}

// Validate checks required fields and bounds, returning a configuration
// error before any network activity happens. It does not mutate the config.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return errors.ConfigError("client id is required")
	}
	if c.ClientSecret == "" {
		return errors.ConfigError("client secret is required")
	}

	if c.Timeout != 0 && (c.Timeout < MinTimeout || c.Timeout > MaxTimeout) {
		return errors.ConfigError(fmt.Sprintf(
			"timeout must be between %s and %s, got %s", MinTimeout, MaxTimeout, c.Timeout))
	}

	if c.RefreshBuffer < 0 {
		return errors.ConfigError("refresh buffer must not be negative")
	}

	return nil
}

// EffectiveTimeout returns the configured timeout with the default applied.
func (c *Config) EffectiveTimeout() time.Duration {
	if c.Timeout == 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

// EffectiveRefreshBuffer returns the refresh buffer with the default applied.
func (c *Config) EffectiveRefreshBuffer() time.Duration {
	if c.RefreshBuffer == 0 {
		return DefaultRefreshBuffer
	}
	return c.RefreshBuffer
}

// TransformRequest reports whether outbound bodies get key-case rewriting.
func (c *Config) TransformRequest() bool { return !c.DisableRequestTransform }

// TransformResponse reports whether inbound bodies get key-case rewriting.
func (c *Config) TransformResponse() bool { return !c.DisableResponseTransform }

// Environment derives the auth/gateway base URLs from the sandbox flag,
// applying any per-instance overrides.
func (c *Config) Environment() Environment {
	env := Environment{
		Name:           "production",
		AuthBaseURL:    productionAuthBaseURL,
		GatewayBaseURL: productionGatewayBaseURL,
	}
	if c.Sandbox {
		env = Environment{
			Name:           "sandbox",
			AuthBaseURL:    sandboxAuthBaseURL,
			GatewayBaseURL: sandboxGatewayBaseURL,
		}
	}

	if c.AuthBaseURL != "" {
		env.AuthBaseURL = strings.TrimSuffix(c.AuthBaseURL, "/")
	}
	if c.GatewayBaseURL != "" {
		env.GatewayBaseURL = strings.TrimSuffix(c.GatewayBaseURL, "/")
	}

	return env
}

// Clone returns a copy of the config for copy-on-write updates.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
