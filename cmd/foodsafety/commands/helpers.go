package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/jsedoc/fish-rankings/internal/app"
	"github.com/jsedoc/fish-rankings/internal/config"
	"github.com/jsedoc/fish-rankings/internal/observability"
	"github.com/jsedoc/fish-rankings/pkg/foodsafety"
)

// loadConfig reads the config file named by --config or CONFIG_PATH.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newLogger logs to stderr so command output stays clean.
func newLogger(cfg *config.Config) *observability.Logger {
	level := "warn"
	if verbose {
		level = "debug"
	}
	return observability.NewLogger(observability.LogConfig{
		Level:       level,
		Format:      "console",
		Output:      os.Stderr,
		ServiceName: cfg.Observability.ServiceName,
	})
}

// openApp builds the local services from configuration.
func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a, err := app.New(ctx, cfg, newLogger(cfg))
	if err != nil {
		return nil, fmt.Errorf("initialize services: %w", err)
	}
	return a, nil
}

// newAPIClient returns a client for a running API server.
func newAPIClient(baseURL string) (*foodsafety.Client, error) {
	return foodsafety.NewClient(foodsafety.ClientConfig{
		BaseURL: baseURL,
		Token:   os.Getenv("FOODSAFETY_TOKEN"),
	})
}
