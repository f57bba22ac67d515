package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/Veraticus/the-watts-must-flow/internal/catalog"
	"github.com/Veraticus/the-watts-must-flow/internal/classification"
	"github.com/Veraticus/the-watts-must-flow/internal/config"
	"github.com/Veraticus/the-watts-must-flow/internal/document"
	"github.com/Veraticus/the-watts-must-flow/internal/ingest"
	"github.com/Veraticus/the-watts-must-flow/internal/model"
	"github.com/Veraticus/the-watts-must-flow/internal/session"
	"github.com/Veraticus/the-watts-must-flow/internal/storage"
)

// app bundles the services one command invocation works with.
type app struct {
	catalog  *config.CatalogConfig
	store    *catalog.Store
	history  *storage.SQLiteStorage
	ingest   *ingest.Service
	session  *session.Session
	logger   *slog.Logger
	scenario *config.ScenarioDefaults

	historyPath string
}

// newApp loads configuration and the catalog. The import history is opened only when
// withHistory is set.
func newApp(ctx context.Context, withHistory bool) (*app, error) {
	logger := slog.Default()

	catalogCfg, err := config.LoadCatalogConfig()
	if err != nil {
		return nil, err
	}
	scenario, err := config.LoadScenarioDefaults()
	if err != nil {
		return nil, err
	}
	ingestCfg, err := config.LoadIngestConfig()
	if err != nil {
		return nil, err
	}

	a := &app{
		catalog:     catalogCfg,
		store:       catalog.NewStore(logger),
		logger:      logger,
		scenario:    scenario,
		historyPath: ingestCfg.HistoryPath,
	}

	if err := a.loadCatalog(ctx); err != nil {
		return nil, err
	}

	a.ingest, err = initIngest(ingestCfg, logger)
	if err != nil {
		return nil, err
	}

	opts := []session.Option{
		session.WithLogger(logger),
		session.WithSegment(scenario.Segment),
		session.WithDays(scenario.Days),
	}
	if withHistory {
		a.history, err = initStorage(ctx, ingestCfg.HistoryPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, session.WithImportStorage(a.history))
	}
	a.session = session.New(a.store, opts...)

	return a, nil
}

// Close releases the import history.
func (a *app) Close() {
	if a.history == nil {
		return
	}
	if err := a.history.Close(); err != nil {
		a.logger.Warn("Failed to close import history", "error", err)
	}
}

// loadCatalog reads the local catalog, downloading it first when it is missing and a
// remote URL is configured.
func (a *app) loadCatalog(ctx context.Context) error {
	_, statErr := os.Stat(a.catalog.Path)
	if errors.Is(statErr, os.ErrNotExist) && a.catalog.URL != "" {
		a.logger.Info("No local catalog, fetching remote copy", "url", a.catalog.URL)
		if _, err := a.store.Sync(ctx, a.catalog.HTTPSource(), a.catalog.Path); err != nil {
			return fmt.Errorf("failed to fetch catalog: %w", err)
		}
		return nil
	}

	if _, err := a.store.Load(ctx, catalog.FileSource{Path: a.catalog.Path}); err != nil {
		return fmt.Errorf("failed to load catalog (run 'watts catalog fetch' or pass --catalog): %w", err)
	}
	return nil
}

// initIngest builds the bill reader from the document source and the classifier.
func initIngest(cfg *config.IngestConfig, logger *slog.Logger) (*ingest.Service, error) {
	opts := []classification.Option{classification.WithLogger(logger)}
	if cfg.KeywordsFile != "" {
		extra, err := classification.LoadKeywordFile(cfg.KeywordsFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, classification.WithExtraProviders(extra...))
		logger.Debug("Loaded extra provider keywords", "file", cfg.KeywordsFile, "providers", len(extra))
	}

	return ingest.NewService(document.NewSource(logger), classification.NewClassifier(opts...), cfg.MaxPages, logger), nil
}

// initStorage opens the import history and runs migrations.
func initStorage(ctx context.Context, dbPath string) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// parseEnergyTypes turns the --energy flag into the energy types to show.
func parseEnergyTypes(value string) ([]model.EnergyType, error) {
	if value == "" || value == "all" {
		return model.EnergyTypes, nil
	}
	energy, err := model.ParseEnergyType(value)
	if err != nil {
		return nil, err
	}
	return []model.EnergyType{energy}, nil
}
