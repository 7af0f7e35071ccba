package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"SERVER_HOST", "SERVER_PORT", "DATABASE_URL", "REDIS_URL", "ANTHROPIC_API_KEY",
		"OPENROUTER_API_KEY", "LLM_PROVIDER", "LLM_MODEL", "SECRET_KEY", "FDA_API_KEY",
		"LOG_LEVEL", "LOG_FORMAT", "RATE_LIMIT_PER_MINUTE",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 3, cfg.Query.MinQuestionLength)
	assert.Equal(t, 10, cfg.Query.MaxKeywords)
	assert.Equal(t, 10, cfg.Query.RetrievalLimit)
	assert.Equal(t, 5, cfg.Query.DisplayLimit)
	assert.Equal(t, 200, cfg.Query.TruncateLength)
	assert.Equal(t, 1024, cfg.LLM.MaxTokens)
	assert.False(t, cfg.LLMConfigured())
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
query:
  display_limit: 3
llm:
  model: yaml-model
`), 0o600))

	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/food?sslmode=disable")
	t.Setenv("REDIS_URL", "redis://cache:6379")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Query.DisplayLimit)
	assert.Equal(t, 10, cfg.Query.RetrievalLimit)
	assert.Equal(t, "yaml-model", cfg.LLM.Model)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.True(t, cfg.LLMConfigured())
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://u:p@localhost:5432/food?sslmode=disable", cfg.DatabaseDSN())
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, "cache:6379", cfg.Cache.Redis.Addr)
}

func TestLoad_OpenRouterKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "openrouter")
	t.Setenv("ANTHROPIC_API_KEY", "wrong")
	t.Setenv("OPENROUTER_API_KEY", "or-key")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "openrouter", cfg.LLM.Provider)
	assert.Equal(t, "or-key", cfg.LLM.APIKey)
}

func TestLoad_SQLiteURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "sqlite:///data/food.db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "data/food.db", cfg.DatabaseDSN())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }},
		{"bad cache", func(c *Config) { c.Cache.Driver = "memcached" }},
		{"bad provider", func(c *Config) { c.LLM.Provider = "other" }},
		{"display over retrieval", func(c *Config) { c.Query.DisplayLimit = 20 }},
		{"zero keywords", func(c *Config) { c.Query.MaxKeywords = 0 }},
		{"empty secret", func(c *Config) { c.Auth.JWTSecret = "" }},
		{"zero rate", func(c *Config) { c.RateLimit.AnonymousPerMinute = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestAddr(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 8123
	assert.Equal(t, "127.0.0.1:8123", cfg.Addr())
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
}
