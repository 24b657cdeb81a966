package main

import (
	"context"
	"fmt"

	"github.com/obraflow/site-progress/internal/config"
	"github.com/obraflow/site-progress/internal/db"
	"github.com/obraflow/site-progress/internal/progress"
)

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to JSON config file")
}

// loadConfig merges the optional config file with environment overrides.
func loadConfig() (*config.Config, error) {
	cfg := config.FromEnv()
	if configPath != "" {
		fileCfg, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		fileCfg.ApplyEnv()
		cfg = fileCfg
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newEngine builds a progress service over Postgres, or over an in-memory
// store when useMemory is set. The returned closer is a no-op for memory.
func newEngine(ctx context.Context, useMemory bool) (*progress.Service, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return nil, nil, err
	}

	if useMemory {
		return progress.NewService(progress.NewMemoryStore(), engineCfg), func() {}, nil
	}

	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, nil, err
	}

	return progress.NewService(database, engineCfg), database.Close, nil
}
