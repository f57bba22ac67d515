// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/the-watts-must-flow/internal/model"
)

// TextExtractor turns a document on disk into plain text.
// maxPages bounds how much of the document is read; 0 means no limit.
type TextExtractor interface {
	ExtractText(ctx context.Context, path string, maxPages int) (string, error)
}

// CatalogSource fetches the raw JSON bytes of a tariff catalog.
type CatalogSource interface {
	Fetch(ctx context.Context) ([]byte, error)
	Describe() string
}

// ImportStorage records the bills imported during a session.
type ImportStorage interface {
	SaveImport(ctx context.Context, record *model.ImportRecord) error
	GetImports(ctx context.Context) ([]model.ImportRecord, error)
	GetLatestImport(ctx context.Context, energyType model.EnergyType) (*model.ImportRecord, error)
	SaveImportFailure(ctx context.Context, failure *model.ImportFailure) error
	GetImportFailures(ctx context.Context) ([]model.ImportFailure, error)
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
