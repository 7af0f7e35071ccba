// Package app wires configuration into the services shared by the API server and the CLI.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jsedoc/fish-rankings/internal/auth"
	"github.com/jsedoc/fish-rankings/internal/cache"
	"github.com/jsedoc/fish-rankings/internal/config"
	"github.com/jsedoc/fish-rankings/internal/llm"
	"github.com/jsedoc/fish-rankings/internal/observability"
	"github.com/jsedoc/fish-rankings/internal/query"
	"github.com/jsedoc/fish-rankings/internal/sources"
	"github.com/jsedoc/fish-rankings/internal/storage"
)

// App holds the constructed services.
type App struct {
	Config        *config.Config
	Logger        *observability.Logger
	DB            *sql.DB
	Store         *storage.Store
	Query         *query.Service
	Auth          *auth.Service
	Cache         cache.Client
	FDA           *sources.FDAClient
	OpenFoodFacts *sources.OpenFoodFactsClient
}

// New opens the database, bootstraps the schema and constructs every service.
// A missing LLM credential is not an error: the query service answers with the
// not-configured message.
func New(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*App, error) {
	dialect := storage.Dialect(cfg.Database.Driver)
	pool := storage.PoolConfig{MaxOpenConns: cfg.Database.SQLite.MaxOpenConns}
	if dialect == storage.DialectPostgres {
		pool = storage.PoolConfig{
			MaxOpenConns:    cfg.Database.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Database.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.Postgres.ConnMaxLifetime,
		}
	}

	db, err := storage.Open(ctx, dialect, cfg.DatabaseDSN(), pool)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := storage.EnsureSchema(ctx, db, dialect); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	store := storage.NewStore(db, dialect)

	completer, err := llm.New(llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
		Timeout:  cfg.LLM.Timeout,
	})
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		logger.Warn().Str("provider", cfg.LLM.Provider).Msg("LLM API key not set; answers will report the service as not configured")
		completer = nil
	case err != nil:
		db.Close()
		return nil, fmt.Errorf("create llm client: %w", err)
	}

	c, err := newCache(ctx, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	q := cfg.Query
	svc := query.NewService(logger, query.Sources{
		Foods:      store.Foods,
		Recalls:    store.Recalls,
		Advisories: store.Advisories,
	}, completer, query.Config{
		MinQuestionLength: q.MinQuestionLength,
		MaxKeywords:       q.MaxKeywords,
		RetrievalLimit:    q.RetrievalLimit,
		DisplayLimit:      q.DisplayLimit,
		TruncateLength:    q.TruncateLength,
		MaxTokens:         cfg.LLM.MaxTokens,
		StopWords:         q.StopWords,
	})

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)

	return &App{
		Config: cfg,
		Logger: logger,
		DB:     db,
		Store:  store,
		Query:  svc,
		Auth:   auth.NewService(logger.WithComponent("auth"), store.Users, tokens),
		Cache:  c,
		FDA: sources.NewFDAClient(sources.FDAConfig{
			BaseURL:   cfg.Sources.FDABaseURL,
			APIKey:    cfg.Sources.FDAAPIKey,
			UserAgent: cfg.Sources.UserAgent,
			Timeout:   cfg.Sources.Timeout,
		}),
		OpenFoodFacts: sources.NewOpenFoodFactsClient(sources.OpenFoodFactsConfig{
			BaseURL:   cfg.Sources.OpenFoodFactsBaseURL,
			UserAgent: cfg.Sources.UserAgent,
			Timeout:   cfg.Sources.Timeout,
		}),
	}, nil
}

func newCache(ctx context.Context, cfg *config.Config) (cache.Client, error) {
	if cfg.Cache.Driver != "redis" {
		return cache.NewMemoryClient(0), nil
	}
	r := cfg.Cache.Redis
	c, err := cache.NewRedisClient(ctx, cache.RedisConfig{
		Addr:     r.Addr,
		Password: r.Password,
		DB:       r.DB,
		PoolSize: r.PoolSize,
	})
	if err != nil {
		return nil, fmt.Errorf("connect cache: %w", err)
	}
	return c, nil
}

// Close releases the database and cache.
func (a *App) Close() error {
	return errors.Join(a.Cache.Close(), a.DB.Close())
}
