package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// ConfigurationError reports a missing or invalid startup setting. It is
// fatal: the application refuses to start rather than run half-configured.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Setting, e.Reason)
}

// Config represents the application configuration
type Config struct {
	Environment string        `toml:"environment"` // "development" or "production"
	Server      ServerConfig  `toml:"server"`
	Auth        AuthConfig    `toml:"auth"`
	Storage     StorageConfig `toml:"storage"`
	Logging     LoggingConfig `toml:"logging"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gte=0,lte=65535"`
	Host string `toml:"host"`
	// SessionMaxAge bounds how long an idle session survives, e.g. "24h".
	SessionMaxAge string `toml:"session_max_age"`
}

// AuthConfig carries the OAuth application credentials. ClientID and
// ClientSecret have no defaults; they come from the environment or the
// config file, and startup fails without them.
type AuthConfig struct {
	ClientID     string `toml:"client_id" validate:"required"`
	ClientSecret string `toml:"client_secret" validate:"required"`
	// CallbackURL is the registered redirect URI. Defaults to the local
	// callback endpoint on CallbackPort.
	CallbackURL string `toml:"callback_url"`
	// CallbackPort is where the desktop flow listens for the redirect.
	CallbackPort int `toml:"callback_port" validate:"gte=0,lte=65535"`
	// CallbackTimeout bounds the wait for the authorization redirect, e.g. "300s".
	CallbackTimeout string `toml:"callback_timeout"`
	// BaseURL overrides the provider endpoint, used by tests.
	BaseURL string `toml:"base_url"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05.000")
}

// NewDefaultConfig creates a configuration with default values. Credentials
// are deliberately absent; they must come from the environment or the file.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port:          8080,
			Host:          "localhost",
			SessionMaxAge: "24h",
		},
		Auth: AuthConfig{
			CallbackPort:    8081,
			CallbackTimeout: "300s",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> .env file ->
// config file -> environment variables. CLI flags are applied afterwards via
// ApplyFlagOverrides and take the highest priority.
func LoadFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	// A .env in the working directory seeds the process environment without
	// overriding variables already set.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: SITEWORK_ENV, fallback: GO_ENV)
	if env := os.Getenv("SITEWORK_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("SITEWORK_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("SITEWORK_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if maxAge := os.Getenv("SITEWORK_SESSION_MAX_AGE"); maxAge != "" {
		if _, err := time.ParseDuration(maxAge); err == nil {
			config.Server.SessionMaxAge = maxAge
		}
	}

	// Provider credentials use the conventional APS names so they can be
	// shared with other tooling against the same application registration.
	if clientID := os.Getenv("APS_CLIENT_ID"); clientID != "" {
		config.Auth.ClientID = clientID
	}
	if clientSecret := os.Getenv("APS_CLIENT_SECRET"); clientSecret != "" {
		config.Auth.ClientSecret = clientSecret
	}
	if callbackURL := os.Getenv("APS_CALLBACK_URL"); callbackURL != "" {
		config.Auth.CallbackURL = callbackURL
	}
	if callbackPort := os.Getenv("SITEWORK_AUTH_CALLBACK_PORT"); callbackPort != "" {
		if p, err := strconv.Atoi(callbackPort); err == nil {
			config.Auth.CallbackPort = p
		}
	}
	if callbackTimeout := os.Getenv("SITEWORK_AUTH_CALLBACK_TIMEOUT"); callbackTimeout != "" {
		if _, err := time.ParseDuration(callbackTimeout); err == nil {
			config.Auth.CallbackTimeout = callbackTimeout
		}
	}
	if baseURL := os.Getenv("SITEWORK_AUTH_BASE_URL"); baseURL != "" {
		config.Auth.BaseURL = baseURL
	}

	// Storage configuration
	if badgerPath := os.Getenv("SITEWORK_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("SITEWORK_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("SITEWORK_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("SITEWORK_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			trimmed := strings.TrimSpace(o)
			if trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks the assembled configuration. Missing credentials are the
// most common failure; they get a pointed message instead of a generic
// validator dump.
func (c *Config) Validate() error {
	if c.Auth.ClientID == "" {
		return &ConfigurationError{
			Setting: "auth.client_id",
			Reason:  "set APS_CLIENT_ID or auth.client_id in the config file",
		}
	}
	if c.Auth.ClientSecret == "" {
		return &ConfigurationError{
			Setting: "auth.client_secret",
			Reason:  "set APS_CLIENT_SECRET or auth.client_secret in the config file",
		}
	}

	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return &ConfigurationError{
			Setting: "config",
			Reason:  err.Error(),
		}
	}

	return nil
}

// CallbackURL returns the configured redirect URI, defaulting to the local
// callback endpoint on the callback port.
func (c *Config) CallbackURL() string {
	if c.Auth.CallbackURL != "" {
		return c.Auth.CallbackURL
	}
	return fmt.Sprintf("http://localhost:%d/callback", c.Auth.CallbackPort)
}

// CallbackTimeout parses the configured callback wait window.
func (c *Config) CallbackTimeout() time.Duration {
	if d, err := time.ParseDuration(c.Auth.CallbackTimeout); err == nil && d > 0 {
		return d
	}
	return 300 * time.Second
}

// SessionMaxAge parses the configured idle-session lifetime.
func (c *Config) SessionMaxAge() time.Duration {
	if d, err := time.ParseDuration(c.Server.SessionMaxAge); err == nil && d > 0 {
		return d
	}
	return 24 * time.Hour
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
