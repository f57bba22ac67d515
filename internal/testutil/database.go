// Package testutil provides shared test fixtures: in-memory import histories and
// tariff catalogs built through a fluent API.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/the-watts-must-flow/internal/model"
	"github.com/Veraticus/the-watts-must-flow/internal/storage"
)

// TestDB is an in-memory import history scoped to one test.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup func(context.Context, *storage.SQLiteStorage) error
	Imports     []model.ImportRecord
	Failures    []model.ImportFailure
}

// SetupTestDB creates a new in-memory import history.
// It automatically handles migrations and cleanup.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{})
}

// SetupTestDBWithOptions creates an in-memory import history seeded from opts.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(storage.MemoryPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	ctx := context.Background()

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	for i := range opts.Imports {
		if err := store.SaveImport(ctx, &opts.Imports[i]); err != nil {
			t.Fatalf("failed to seed import %q: %v", opts.Imports[i].Path, err)
		}
	}
	for i := range opts.Failures {
		if err := store.SaveImportFailure(ctx, &opts.Failures[i]); err != nil {
			t.Fatalf("failed to seed import failure %q: %v", opts.Failures[i].Path, err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{Storage: store, t: t}
}

// MustImports returns every recorded import or fails the test.
func (db *TestDB) MustImports() []model.ImportRecord {
	db.t.Helper()
	records, err := db.Storage.GetImports(context.Background())
	if err != nil {
		db.t.Fatalf("failed to read imports: %v", err)
	}
	return records
}

// NewImportRecord returns a valid import record for a classified bill.
func NewImportRecord(path string, energy model.EnergyType, kwh int64, provider string) model.ImportRecord {
	return model.ImportRecord{
		ID:         uuid.New(),
		Path:       path,
		ImportedAt: time.Now(),
		Result: model.ClassificationResult{
			EnergyType:       energy,
			ProviderDetected: provider,
			DecidedBy:        "electricity-keywords",
			ConsumptionKWh:   kwh,
			BillingDays:      model.DefaultBillingDays,
		},
	}
}
