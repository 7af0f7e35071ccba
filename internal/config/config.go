// Package config provides unified configuration loading for the food safety services.
// Supports YAML files, a .env file, environment variables, and programmatic overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the food safety platform.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Cache         CacheConfig         `yaml:"cache"`
	LLM           LLMConfig           `yaml:"llm"`
	Query         QueryConfig         `yaml:"query"`
	Sources       SourcesConfig       `yaml:"sources"`
	Auth          AuthConfig          `yaml:"auth"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	AllowedOrigins   []string      `yaml:"allowed_origins"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver   string         `yaml:"driver"` // sqlite or postgres
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path         string `yaml:"path"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// PostgresConfig holds Postgres-specific settings.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	Driver string        `yaml:"driver"` // memory or redis
	TTL    time.Duration `yaml:"ttl"`
	Redis  RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// LLMConfig holds language-model backend settings.
// An empty APIKey leaves the backend unconfigured.
type LLMConfig struct {
	Provider  string        `yaml:"provider"` // anthropic or openrouter
	APIKey    string        `yaml:"api_key"`
	Model     string        `yaml:"model"`
	BaseURL   string        `yaml:"base_url"`
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

// QueryConfig holds the tunables of the natural-language query pipeline.
type QueryConfig struct {
	MinQuestionLength int      `yaml:"min_question_length"`
	MaxKeywords       int      `yaml:"max_keywords"`
	RetrievalLimit    int      `yaml:"retrieval_limit"`
	DisplayLimit      int      `yaml:"display_limit"`
	TruncateLength    int      `yaml:"truncate_length"`
	StopWords         []string `yaml:"stop_words"` // empty means the built-in list
}

// SourcesConfig holds external data source settings.
type SourcesConfig struct {
	FDABaseURL           string        `yaml:"fda_base_url"`
	FDAAPIKey            string        `yaml:"fda_api_key"`
	OpenFoodFactsBaseURL string        `yaml:"openfoodfacts_base_url"`
	Timeout              time.Duration `yaml:"timeout"`
	UserAgent            string        `yaml:"user_agent"`
}

// AuthConfig holds bearer token settings.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	Issuer    string        `yaml:"issuer"`
}

// RateLimitConfig holds the anonymous query rate limit.
type RateLimitConfig struct {
	Enabled            bool `yaml:"enabled"`
	AnonymousPerMinute int  `yaml:"anonymous_per_minute"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	ServiceName string `yaml:"service_name"`
}

// Load reads configuration from a YAML file, a .env file in the working
// directory, and the environment, in that order.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// loadDotEnv populates unset environment variables from file. A missing file is not an error.
func loadDotEnv(file string) error {
	if err := godotenv.Load(file); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", file, err)
	}
	return nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8000,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     60 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 10 * time.Second,
			AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{
				Path:         "foodsafety.db",
				MaxOpenConns: 1,
			},
			Postgres: PostgresConfig{
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: 5 * time.Minute,
			},
		},
		Cache: CacheConfig{
			Driver: "memory",
			TTL:    24 * time.Hour,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				PoolSize: 10,
			},
		},
		LLM: LLMConfig{
			Provider:  "anthropic",
			Model:     "claude-3-5-sonnet-20241022",
			MaxTokens: 1024,
			Timeout:   60 * time.Second,
		},
		Query: QueryConfig{
			MinQuestionLength: 3,
			MaxKeywords:       10,
			RetrievalLimit:    10,
			DisplayLimit:      5,
			TruncateLength:    200,
		},
		Sources: SourcesConfig{
			FDABaseURL:           "https://api.fda.gov",
			OpenFoodFactsBaseURL: "https://world.openfoodfacts.org",
			Timeout:              30 * time.Second,
			UserAgent:            "FoodSafetyPlatform/1.0",
		},
		Auth: AuthConfig{
			JWTSecret: "dev-secret-change-in-production",
			TokenTTL:  7 * 24 * time.Hour,
			Issuer:    "foodsafety",
		},
		RateLimit: RateLimitConfig{
			Enabled:            true,
			AnonymousPerMinute: 10,
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogFormat:   "json",
			ServiceName: "foodsafety-api",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return fmt.Errorf("invalid database driver: %s", c.Database.Driver)
	}

	if c.Database.Driver == "postgres" && c.Database.Postgres.DSN == "" {
		return fmt.Errorf("postgres driver requires a dsn")
	}

	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}

	if c.LLM.Provider != "anthropic" && c.LLM.Provider != "openrouter" {
		return fmt.Errorf("invalid llm provider: %s", c.LLM.Provider)
	}

	if c.LLM.MaxTokens < 1 {
		return fmt.Errorf("llm max_tokens must be positive")
	}

	q := c.Query
	if q.MinQuestionLength < 1 {
		return fmt.Errorf("min_question_length must be positive")
	}
	if q.MaxKeywords < 1 || q.RetrievalLimit < 1 || q.DisplayLimit < 1 || q.TruncateLength < 1 {
		return fmt.Errorf("query limits must be positive")
	}
	if q.DisplayLimit > q.RetrievalLimit {
		return fmt.Errorf("display_limit (%d) cannot exceed retrieval_limit (%d)", q.DisplayLimit, q.RetrievalLimit)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth jwt_secret is required")
	}

	if c.RateLimit.Enabled && c.RateLimit.AnonymousPerMinute < 1 {
		return fmt.Errorf("anonymous_per_minute must be positive when rate limiting is enabled")
	}

	return nil
}

// LLMConfigured reports whether a language-model credential is present.
func (c *Config) LLMConfigured() bool {
	return c.LLM.APIKey != ""
}

// DatabaseDSN returns the appropriate database connection string.
func (c *Config) DatabaseDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.SQLite.Path
	}
	return c.Database.Postgres.DSN
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		if strings.HasPrefix(v, "sqlite:") {
			cfg.Database.Driver = "sqlite"
			cfg.Database.SQLite.Path = strings.TrimPrefix(strings.TrimPrefix(v, "sqlite:"), "///")
		} else if strings.HasPrefix(v, "postgres") {
			cfg.Database.Driver = "postgres"
			cfg.Database.Postgres.DSN = v
		}
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Driver = "redis"
		cfg.Cache.Redis.Addr = strings.TrimSuffix(strings.TrimPrefix(v, "redis://"), "/")
	}

	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}

	// the provider-specific key wins over a key set in yaml
	switch cfg.LLM.Provider {
	case "openrouter":
		if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
			cfg.LLM.APIKey = v
		}
	default:
		if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
			cfg.LLM.APIKey = v
		}
	}

	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}

	if v := os.Getenv("SECRET_KEY"); v != "" {
		cfg.Auth.JWTSecret = v
	}

	if v := os.Getenv("FDA_API_KEY"); v != "" {
		cfg.Sources.FDAAPIKey = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}

	if v := os.Getenv("RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.AnonymousPerMinute = n
		}
	}
}
