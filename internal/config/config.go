// Package config provides configuration loading and validation for the
// progress engine CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/obraflow/site-progress/internal/matching"
	"github.com/obraflow/site-progress/internal/progress"
)

// Config is the engine configuration, loadable from a JSON file with
// environment overrides for deployment-specific values. All fields are
// optional; missing values fall back to engine defaults.
type Config struct {
	Port        int    `json:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	DatabaseURL string `json:"database_url,omitempty"`

	// Engine tunables
	CalendarAdjustmentFactor float64 `json:"calendar_adjustment_factor,omitempty" validate:"omitempty,gt=0"`
	MinConfidence            float64 `json:"min_confidence,omitempty" validate:"omitempty,gte=0,lte=1"`
	AllowProgressRegression  bool    `json:"allow_progress_regression,omitempty"`
	VarianceThresholdPercent float64 `json:"variance_threshold_percent,omitempty" validate:"omitempty,gt=0"`

	// AliasTable is an optional path to a JSON file mapping detector
	// spellings to canonical activity names.
	AliasTable string `json:"alias_table,omitempty"`
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv builds a config from environment variables alone.
func FromEnv() *Config {
	cfg := &Config{}
	cfg.ApplyEnv()
	return cfg
}

// ApplyEnv overrides deployment values from the environment. DATABASE_URL and
// PORT always win over the config file.
func (c *Config) ApplyEnv() {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		c.DatabaseURL = url
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Port = p
		}
	}
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if c.AliasTable != "" {
		if _, err := os.Stat(c.AliasTable); os.IsNotExist(err) {
			return fmt.Errorf("config error: alias table file not found: %s", c.AliasTable)
		}
	}

	return nil
}

// EngineConfig converts the file/env configuration into the engine's runtime
// config, loading the alias table when one is configured. Zero-valued
// tunables resolve to the engine defaults.
func (c *Config) EngineConfig() (progress.Config, error) {
	cfg := progress.Config{
		CalendarAdjustmentFactor: c.CalendarAdjustmentFactor,
		MinConfidence:            c.MinConfidence,
		AllowProgressRegression:  c.AllowProgressRegression,
		VarianceThresholdPercent: c.VarianceThresholdPercent,
	}

	if c.AliasTable != "" {
		aliases, err := matching.LoadAliasTable(c.AliasTable)
		if err != nil {
			return progress.Config{}, err
		}
		cfg.Aliases = aliases
	}

	return cfg, nil
}
