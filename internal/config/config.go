package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"github.com/mymichlin/discovery/internal/localstate"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the discovery service and CLI.
// Environment variables are parsed with the DISCOVERY_ prefix.
type Config struct {
	// Build target selects the storage profile: local (on-device SQLite) or server (Postgres)
	BuildTarget string `envconfig:"BUILD_TARGET" default:"local"`

	// Derived or override driver
	DBDriver string `envconfig:"DB_DRIVER" default:"auto"`

	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string      `envconfig:"LOG_LEVEL" default:"info"`

	// HTTP Configuration
	HTTPPort       int    `envconfig:"HTTP_PORT" default:"8080"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`

	// Storage
	SQLitePath  string `envconfig:"SQLITE_PATH" default:""`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// Places provider
	PlacesAPIKey      string `envconfig:"PLACES_API_KEY" default:""`
	PlacesBaseURL     string `envconfig:"PLACES_BASE_URL" default:"https://places.googleapis.com"`
	PlacesMaxAttempts int    `envconfig:"PLACES_MAX_ATTEMPTS" default:"3"`
	PlacesTimeoutSecs int    `envconfig:"PLACES_TIMEOUT_SECONDS" default:"10"`
	FetchPhotos       bool   `envconfig:"FETCH_PHOTOS" default:"false"`

	// AI chat
	GeminiAPIKey  string `envconfig:"GEMINI_API_KEY" default:""`
	GeminiModel   string `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
	GeminiBaseURL string `envconfig:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com"`

	// Remote search cache
	CacheDistanceMeters float64 `envconfig:"CACHE_DISTANCE_METERS" default:"1000"`
	CacheSerialize      bool    `envconfig:"CACHE_SERIALIZE" default:"false"`

	// Health
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`
}

// ResolveDefaults validates BuildTarget and derives DBDriver (and the SQLite path) when set to "auto" or empty.
func (c *Config) ResolveDefaults() error {
	var defaultDB string

	switch c.BuildTarget {
	case "local":
		defaultDB = "sqlite"
	case "server":
		defaultDB = "postgres"
	default:
		return fmt.Errorf("unsupported BUILD_TARGET: %s", c.BuildTarget)
	}

	if c.DBDriver == "" || c.DBDriver == "auto" {
		c.DBDriver = defaultDB
	}

	switch c.DBDriver {
	case "sqlite":
		if c.SQLitePath == "" {
			p, err := localstate.DBPath()
			if err != nil {
				return fmt.Errorf("derive sqlite path: %w", err)
			}
			c.SQLitePath = p
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("DISCOVERY_POSTGRES_DSN is required when DB_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}

	if c.IsProduction() {
		for _, o := range c.Origins() {
			if o == "*" {
				return fmt.Errorf("ALLOWED_ORIGINS must not contain * in production")
			}
		}
	}

	if c.CacheDistanceMeters <= 0 {
		return fmt.Errorf("CACHE_DISTANCE_METERS must be > 0, got %v", c.CacheDistanceMeters)
	}
	return nil
}

// New creates a new Config by parsing environment variables
// Environment variables should be prefixed with DISCOVERY_
// Example: DISCOVERY_PLACES_API_KEY, DISCOVERY_HTTP_PORT
// A .env file in the working directory is loaded first; it never overrides
// variables already set.
func New() (*Config, error) {
	var cfg Config

	_ = godotenv.Load()

	if err := envconfig.Process("DISCOVERY", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Str("places_base_url", cfg.PlacesBaseURL).
		Bool("places_key_present", cfg.PlacesAPIKey != "").
		Bool("gemini_key_present", cfg.GeminiAPIKey != "").
		Str("gemini_model", cfg.GeminiModel).
		Float64("cache_distance_m", cfg.CacheDistanceMeters).
		Bool("cache_serialize", cfg.CacheSerialize).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing
func NewForTesting() *Config {
	return &Config{
		BuildTarget:               "local",
		DBDriver:                  "sqlite",
		Environment:               EnvTesting,
		LogLevel:                  "debug",
		HTTPPort:                  8080,
		PlacesBaseURL:             "http://127.0.0.1:0",
		PlacesMaxAttempts:         1,
		PlacesTimeoutSecs:         2,
		GeminiModel:               "gemini-2.5-flash",
		GeminiBaseURL:             "http://127.0.0.1:0",
		CacheDistanceMeters:       1000,
		HealthIntervalSeconds:     1,
		HealthProbeTimeoutSeconds: 1,
	}
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// Origins splits AllowedOrigins on commas, dropping blanks. An empty list
// allows any origin outside production and none in production.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 && !c.IsProduction() {
		return []string{"*"}
	}
	return out
}
