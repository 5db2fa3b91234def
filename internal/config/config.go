// Package config manages environment variables.
//
// It reads variables from the process environment (and a `.env`
// file when present), loads them into structured Go types and
// validates that required values are present so they can be reused
// across the application runtime.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config (structs).
//   - Validate required values so the app fails fast on bad/missing config.
//   - Provide sane defaults for optional values.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// Side-effect import: if a `.env` file exists, it gets loaded into
	// the process env before any variable is read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

/*
	Env vars are read using the prefix BASE_.

	Keys are lowercased with the prefix removed, and a double underscore
	separates nesting levels, so single underscores survive inside names:

	  BASE_SERVER__PORT              -> server.port
	  BASE_SERVER__READ_TIMEOUT      -> server.read_timeout
	  BASE_SERVER__RATE_LIMIT__BURST -> server.rate_limit.burst
*/

// EnvPrefix is the prefix every application variable carries.
const EnvPrefix = "BASE_"

// Config is the root configuration object for the application.
//
// Observability is a pointer because it is optional. If not provided,
// defaults are injected at load time.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
//
// ReadTimeout, WriteTimeout, IdleTimeout and ShutdownTimeout are seconds.
type ServerConfig struct {
	Port               string          `koanf:"port" validate:"required,numeric"`
	ReadTimeout        int             `koanf:"read_timeout" validate:"required,min=1"`
	WriteTimeout       int             `koanf:"write_timeout" validate:"required,min=1"`
	IdleTimeout        int             `koanf:"idle_timeout" validate:"required,min=1"`
	ShutdownTimeout    int             `koanf:"shutdown_timeout" validate:"required,min=1"`
	RequestTimeout     time.Duration   `koanf:"request_timeout" validate:"min=0"`
	BodyLimit          string          `koanf:"body_limit" validate:"required"`
	CORSAllowedOrigins []string        `koanf:"cors_allowed_origins" validate:"required,min=1"`
	RateLimit          RateLimitConfig `koanf:"rate_limit"`
}

// RateLimitConfig controls per-client request throttling.
// RequestsPerSecond of zero disables the limiter.
type RateLimitConfig struct {
	RequestsPerSecond float64 `koanf:"requests_per_second" validate:"min=0"`
	Burst             int     `koanf:"burst" validate:"min=0"`
}

// DatabaseConfig contains the connection URI and pool tuning.
//
// The URI scheme picks the driver: postgres:// or postgresql:// for
// PostgreSQL, mongodb:// or mongodb+srv:// for MongoDB.
type DatabaseConfig struct {
	URI             string        `koanf:"uri" validate:"required,uri"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout" validate:"min=1s"`
	MaxConns        int           `koanf:"max_conns" validate:"min=1"`
	MinConns        int           `koanf:"min_conns" validate:"min=0,ltefield=MaxConns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
}

// RedisConfig contains Redis connection details.
// An empty Address means Redis is not used.
type RedisConfig struct {
	Address string `koanf:"address" validate:"omitempty,hostname_port"`
}

// aliases maps conventional, unprefixed variables onto config keys.
// They only apply when the prefixed variable is absent.
var aliases = []struct {
	env string
	key string
}{
	{env: "PORT", key: "server.port"},
	{env: "DATABASE_URL", key: "database.uri"},
	{env: "MONGODB_URI", key: "database.uri"},
}

// listKeys are keys whose env value is a comma-separated list.
var listKeys = map[string]bool{
	"server.cors_allowed_origins":        true,
	"observability.health_checks.checks": true,
}

// DefaultConfig returns the values used for every key the environment
// does not set.
func DefaultConfig() *Config {
	return &Config{
		Primary: Primary{Env: "development"},
		Server: ServerConfig{
			Port:               "8080",
			ReadTimeout:        30,
			WriteTimeout:       30,
			IdleTimeout:        60,
			ShutdownTimeout:    10,
			RequestTimeout:     30 * time.Second,
			BodyLimit:          "100K",
			CORSAllowedOrigins: []string{"*"},
			RateLimit: RateLimitConfig{
				RequestsPerSecond: 0,
				Burst:             20,
			},
		},
		Database: DatabaseConfig{
			ConnectTimeout:  10 * time.Second,
			MaxConns:        10,
			MinConns:        0,
			ConnMaxLifetime: time.Hour,
			ConnMaxIdleTime: 30 * time.Minute,
		},
		Observability: DefaultObservabilityConfig(),
	}
}

// envKey converts a prefixed env var name into a koanf key path.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// LoadConfig loads configuration from environment variables, unmarshals it
// into Config, validates it, applies defaults and returns the result.
//
// Behavior summary:
//   - Loads env vars with prefix BASE_
//   - Falls back to PORT / DATABASE_URL / MONGODB_URI for unset keys
//   - Unmarshals on top of DefaultConfig
//   - Validates required config blocks/fields
//   - Sets default observability if missing
//   - Overrides observability service name + environment
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(s, v string) (string, interface{}) {
		key := envKey(s)
		if listKeys[key] {
			return key, splitList(v)
		}
		return key, v
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	for _, alias := range aliases {
		if k.Exists(alias.key) {
			continue
		}
		if v, ok := os.LookupEnv(alias.env); ok && v != "" {
			if err := k.Set(alias.key, v); err != nil {
				return nil, fmt.Errorf("could not apply %s: %w", alias.env, err)
			}
		}
	}

	// Unmarshal on top of the defaults: keys absent from koanf keep
	// their default values.
	mainConfig := DefaultConfig()
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}

	// mapstructure merges a decoded list into the existing one by index,
	// so lists coming from the env replace the defaults explicitly.
	if k.Exists("server.cors_allowed_origins") {
		mainConfig.Server.CORSAllowedOrigins = k.Strings("server.cors_allowed_origins")
	}
	if k.Exists("observability.health_checks.checks") && mainConfig.Observability != nil {
		mainConfig.Observability.HealthChecks.Checks = k.Strings("observability.health_checks.checks")
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	// Service name and environment always come from the primary config
	// so logs and traces share one naming.
	mainConfig.Observability.ServiceName = ServiceName
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := validator.New().Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}

// splitList turns "a, b,,c" into ["a" "b" "c"].
func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsLocal reports whether the app runs on a developer machine.
func (c *Config) IsLocal() bool {
	return c.Primary.Env == "local"
}
