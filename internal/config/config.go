// Package config provides configuration utilities for the application.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/the-watts-must-flow/internal/catalog"
	"github.com/Veraticus/the-watts-must-flow/internal/common"
	"github.com/Veraticus/the-watts-must-flow/internal/model"
	"github.com/Veraticus/the-watts-must-flow/internal/storage"
)

// Default values.
const (
	DefaultCatalogPath   = "~/.config/watts/providers.json"
	DefaultFetchTimeout  = 30 * time.Second
	DefaultRetryAttempts = 3
	DefaultMaxPages      = 2
)

// CatalogConfig locates the tariff catalog and the remote copy it is synced from.
type CatalogConfig struct {
	Path            string
	URL             string
	RefreshSchedule string
	FetchTimeout    time.Duration
	RetryAttempts   int
}

// DefaultCatalogConfig returns the catalog settings used when nothing is configured.
func DefaultCatalogConfig() CatalogConfig {
	return CatalogConfig{
		Path:          ExpandPath(DefaultCatalogPath),
		FetchTimeout:  DefaultFetchTimeout,
		RetryAttempts: DefaultRetryAttempts,
	}
}

// Validate checks the catalog settings.
func (c CatalogConfig) Validate() error {
	if strings.TrimSpace(c.Path) == "" {
		return fmt.Errorf("%w: catalog.path", common.ErrMissingConfig)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("%w: catalog.fetch_timeout must be positive", common.ErrInvalidConfig)
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("%w: catalog.retry_attempts must be at least 1", common.ErrInvalidConfig)
	}
	if c.RefreshSchedule != "" {
		if c.URL == "" {
			return fmt.Errorf("%w: catalog.refresh_schedule needs catalog.url", common.ErrMissingConfig)
		}
		if _, err := catalog.ParseSchedule(c.RefreshSchedule); err != nil {
			return fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
		}
	}
	return nil
}

// HTTPSource builds the remote catalog source, or returns nil when no URL is set.
func (c CatalogConfig) HTTPSource() *catalog.HTTPSource {
	if c.URL == "" {
		return nil
	}
	src := catalog.NewHTTPSource(c.URL)
	src.Timeout = c.FetchTimeout
	src.Retry.MaxAttempts = c.RetryAttempts
	return src
}

// LoadCatalogConfig loads catalog settings from Viper.
// It follows this precedence:
// 1. Viper configuration (from config file or WATTS_ env vars)
// 2. Default values
func LoadCatalogConfig() (*CatalogConfig, error) {
	cfg := DefaultCatalogConfig()

	if v := viper.GetString("catalog.path"); v != "" {
		cfg.Path = ExpandPath(v)
	}
	cfg.URL = strings.TrimSpace(viper.GetString("catalog.url"))
	cfg.RefreshSchedule = strings.TrimSpace(viper.GetString("catalog.refresh_schedule"))
	if viper.IsSet("catalog.fetch_timeout") {
		cfg.FetchTimeout = viper.GetDuration("catalog.fetch_timeout")
	}
	if viper.IsSet("catalog.retry_attempts") {
		cfg.RetryAttempts = viper.GetInt("catalog.retry_attempts")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ScenarioDefaults are the inputs a new session starts from.
type ScenarioDefaults struct {
	Segment model.Segment
	Days    int
}

// LoadScenarioDefaults loads the starting segment and billing period.
func LoadScenarioDefaults() (*ScenarioDefaults, error) {
	cfg := ScenarioDefaults{Segment: model.Residential, Days: model.DefaultBillingDays}

	if v := viper.GetString("scenario.segment"); v != "" {
		segment, err := model.ParseSegment(v)
		if err != nil {
			return nil, fmt.Errorf("%w: scenario.segment: %w", common.ErrInvalidConfig, err)
		}
		cfg.Segment = segment
	}
	if viper.IsSet("scenario.days") {
		cfg.Days = viper.GetInt("scenario.days")
		if cfg.Days <= 0 {
			return nil, fmt.Errorf("%w: scenario.days must be positive", common.ErrInvalidConfig)
		}
	}
	return &cfg, nil
}

// IngestConfig controls how bills are read.
type IngestConfig struct {
	KeywordsFile string
	HistoryPath  string
	MaxPages     int
}

// LoadIngestConfig loads document, classifier and history settings.
func LoadIngestConfig() (*IngestConfig, error) {
	cfg := IngestConfig{MaxPages: DefaultMaxPages, HistoryPath: storage.MemoryPath}

	if viper.IsSet("document.max_pages") {
		cfg.MaxPages = viper.GetInt("document.max_pages")
		if cfg.MaxPages <= 0 {
			return nil, fmt.Errorf("%w: document.max_pages must be positive", common.ErrInvalidConfig)
		}
	}
	if v := viper.GetString("classifier.keywords_file"); v != "" {
		cfg.KeywordsFile = ExpandPath(v)
		if _, err := os.Stat(cfg.KeywordsFile); err != nil {
			return nil, fmt.Errorf("%w: classifier.keywords_file: %w", common.ErrInvalidConfig, err)
		}
	}
	if v := viper.GetString("history.database"); v != "" && v != storage.MemoryPath {
		cfg.HistoryPath = ExpandPath(v)
	}
	return &cfg, nil
}
