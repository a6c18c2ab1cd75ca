package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the biography service.
// Environment variables are parsed from the STORYARC_ prefix.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Storage: sqlite (default, local file) or postgres
	DBDriver    string `envconfig:"DB_DRIVER" default:"auto"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"./data/storyarc.db"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// Generative text backend (OpenAI-compatible chat completions API)
	LLMBaseURL string `envconfig:"LLM_BASE_URL" default:"http://localhost:11434/v1"`
	LLMAPIKey  string `envconfig:"LLM_API_KEY" default:""`
	LLMModel   string `envconfig:"LLM_MODEL" default:"gpt-4o-mini"`
	EmbedModel string `envconfig:"EMBED_MODEL" default:"text-embedding-3-small"`

	// AI gateway
	CacheStore     string        `envconfig:"CACHE_STORE" default:"memory"` // memory | sqlite
	CacheTTL       time.Duration `envconfig:"CACHE_TTL" default:"168h"`
	BatchSize      int           `envconfig:"BATCH_SIZE" default:"5"`
	BatchDelay     time.Duration `envconfig:"BATCH_DELAY" default:"1s"`
	LLMTimeout     time.Duration `envconfig:"LLM_TIMEOUT" default:"5m"`
	LLMTemperature float64       `envconfig:"LLM_TEMPERATURE" default:"0.7"`

	// Job queue
	WorkerConcurrency int           `envconfig:"WORKER_CONCURRENCY" default:"2"`
	JobMaxAttempts    int           `envconfig:"JOB_MAX_ATTEMPTS" default:"3"`
	JobBaseBackoff    time.Duration `envconfig:"JOB_BASE_BACKOFF" default:"5s"`
	JobQueueSize      int           `envconfig:"JOB_QUEUE_SIZE" default:"64"`

	// Health checking
	HealthIntervalSeconds   int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"15"`
	BootstrapTimeoutSeconds int `envconfig:"BOOTSTRAP_TIMEOUT_SECONDS" default:"30"`
}

// ResolveDefaults validates the driver selection and derives it when "auto".
func (c *Config) ResolveDefaults() error {
	if c.DBDriver == "" || c.DBDriver == "auto" {
		if c.PostgresDSN != "" {
			c.DBDriver = "postgres"
		} else {
			c.DBDriver = "sqlite"
		}
	}

	allowedDB := map[string]bool{"sqlite": true, "postgres": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.DBDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("DB_DRIVER=postgres requires POSTGRES_DSN")
	}

	allowedCache := map[string]bool{"memory": true, "sqlite": true}
	if !allowedCache[c.CacheStore] {
		return fmt.Errorf("unsupported CACHE_STORE: %s", c.CacheStore)
	}

	if c.WorkerConcurrency <= 0 {
		c.WorkerConcurrency = 1
	}
	if c.JobMaxAttempts <= 0 {
		c.JobMaxAttempts = 3
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Environment variables are prefixed with STORYARC_
// Example: STORYARC_HTTP_PORT, STORYARC_LLM_BASE_URL.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("STORYARC", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("db_driver", cfg.DBDriver).
		Int("port", cfg.HTTPPort).
		Str("llm_base_url", cfg.LLMBaseURL).
		Str("llm_model", cfg.LLMModel).
		Str("cache_store", cfg.CacheStore).
		Dur("cache_ttl", cfg.CacheTTL).
		Int("worker_concurrency", cfg.WorkerConcurrency).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing
func NewForTesting() *Config {
	cfg := &Config{
		Environment: EnvTesting,

		HTTPPort:   8080,
		DBDriver:   "sqlite",
		SQLitePath: ":memory:",

		LLMBaseURL: "http://localhost:11434/v1",
		LLMModel:   "gpt-4o-mini",
		EmbedModel: "text-embedding-3-small",

		CacheStore:     "memory",
		CacheTTL:       7 * 24 * time.Hour,
		BatchSize:      5,
		BatchDelay:     time.Second,
		LLMTimeout:     time.Minute,
		LLMTemperature: 0.7,

		WorkerConcurrency: 1,
		JobMaxAttempts:    3,
		JobBaseBackoff:    5 * time.Second,
		JobQueueSize:      8,

		HealthIntervalSeconds:   15,
		BootstrapTimeoutSeconds: 5,
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
