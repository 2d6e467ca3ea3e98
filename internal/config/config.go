package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"github.com/sakina-app/sakina-server/internal/localstate"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// EnvPrefix is prepended to every variable name, e.g. SAKINA_HTTP_PORT.
const EnvPrefix = "SAKINA"

// MaxCacheTTLSeconds caps the stats cache lifetime.
const MaxCacheTTLSeconds = 60

// Config holds the configuration for the wellness service and the analysis worker.
type Config struct {
	// Build target selects high-level environment: local, cloud-dev, cloud
	BuildTarget string      `envconfig:"BUILD_TARGET" default:"cloud-dev"`
	DBDriver    string      `envconfig:"DB_DRIVER" default:"auto"`
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string      `envconfig:"LOG_LEVEL" default:"info"`

	HTTPPort           int    `envconfig:"HTTP_PORT" default:"8000"`
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`

	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:""`

	// Generative text service
	GeminiAPIKey             string  `envconfig:"GEMINI_API_KEY" default:""`
	GeminiModel              string  `envconfig:"GEMINI_MODEL" default:"gemini-1.5-flash"`
	GeminiBaseURL            string  `envconfig:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com"`
	GenerationTimeoutSeconds int     `envconfig:"GENERATION_TIMEOUT_SECONDS" default:"20"`
	GenerationMaxRetries     int     `envconfig:"GENERATION_MAX_RETRIES" default:"2"`
	GenerationRPS            float64 `envconfig:"GENERATION_RPS" default:"5"`

	// Stats cache; 0 disables it.
	CacheTTLSeconds int `envconfig:"CACHE_TTL_SECONDS" default:"60"`

	// Auth: "jwt" verifies HS256 bearer tokens, "dev" accepts the local dev key.
	AuthMode  string `envconfig:"AUTH_MODE" default:"jwt"`
	JWTSecret string `envconfig:"JWT_SECRET" default:""`

	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`
	BootstrapTimeoutSeconds   int `envconfig:"BOOTSTRAP_TIMEOUT_SECONDS" default:"5"`

	// Analysis outbox
	OutboxBatchSize       int    `envconfig:"OUTBOX_BATCH_SIZE" default:"20"`
	OutboxIntervalSeconds int    `envconfig:"OUTBOX_INTERVAL_SECONDS" default:"2"`
	OutboxMaxAttempts     int    `envconfig:"OUTBOX_MAX_ATTEMPTS" default:"5"`
	RequeueSchedule       string `envconfig:"REQUEUE_SCHEDULE" default:"@every 10m"`
	RequeueGraceMinutes   int    `envconfig:"REQUEUE_GRACE_MINUTES" default:"15"`
}

// ResolveDefaults validates BuildTarget and derives DBDriver when set to "auto" or empty.
func (c *Config) ResolveDefaults() error {
	var defaultDB string

	switch c.BuildTarget {
	case "local":
		defaultDB = "sqlite"
	case "cloud-dev", "cloud":
		defaultDB = "postgres"
	default:
		return fmt.Errorf("unsupported BUILD_TARGET: %s", c.BuildTarget)
	}

	if c.DBDriver == "" || c.DBDriver == "auto" {
		c.DBDriver = defaultDB
	}
	switch c.DBDriver {
	case "postgres":
	case "sqlite":
		if c.SQLitePath == "" {
			p, err := localstate.DBPath()
			if err != nil {
				return err
			}
			c.SQLitePath = p
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}

	switch c.AuthMode {
	case "jwt", "dev":
	default:
		return fmt.Errorf("unsupported AUTH_MODE: %s", c.AuthMode)
	}
	if c.AuthMode == "dev" && c.IsProduction() {
		return errors.New("AUTH_MODE=dev is not allowed in production")
	}

	if c.CacheTTLSeconds < 0 {
		c.CacheTTLSeconds = 0
	}
	if c.CacheTTLSeconds > MaxCacheTTLSeconds {
		c.CacheTTLSeconds = MaxCacheTTLSeconds
	}
	return nil
}

// New creates a new Config from SAKINA_* environment variables.
// A .env file in the working directory is loaded first when present;
// variables already set in the process environment win.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
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
		Str("gemini_model", cfg.GeminiModel).
		Bool("gemini_key_present", cfg.GeminiAPIKey != "").
		Bool("postgres_dsn_present", cfg.PostgresDSN != "").
		Str("auth_mode", cfg.AuthMode).
		Int("cache_ttl_seconds", cfg.CacheTTLSeconds).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing
func NewForTesting() *Config {
	cfg := &Config{
		BuildTarget:               "local",
		DBDriver:                  "sqlite",
		Environment:               EnvTesting,
		LogLevel:                  "debug",
		HTTPPort:                  8000,
		GeminiModel:               "gemini-1.5-flash",
		GeminiBaseURL:             "http://127.0.0.1:0",
		GenerationTimeoutSeconds:  2,
		GenerationMaxRetries:      0,
		GenerationRPS:             100,
		CacheTTLSeconds:           0,
		AuthMode:                  "dev",
		HealthIntervalSeconds:     1,
		HealthProbeTimeoutSeconds: 1,
		BootstrapTimeoutSeconds:   1,
		OutboxBatchSize:           10,
		OutboxIntervalSeconds:     1,
		OutboxMaxAttempts:         3,
		RequeueSchedule:           "@every 1m",
		RequeueGraceMinutes:       1,
	}
	return cfg
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// GenerationTimeout is the per-call deadline for the generative service.
func (c *Config) GenerationTimeout() time.Duration {
	return time.Duration(c.GenerationTimeoutSeconds) * time.Second
}

// CacheTTL is the stats cache lifetime; zero means disabled.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}
