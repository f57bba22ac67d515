package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/the-watts-must-flow/internal/model"
)

// SaveImport records a classified bill.
func (s *SQLiteStorage) SaveImport(ctx context.Context, record *model.ImportRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateImport(record); err != nil {
		return err
	}

	r := record.Result
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO imports (id, path, energy_type, provider, decided_by, consumption_kwh, billing_days, imported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID.String(), record.Path, string(r.EnergyType), r.ProviderDetected, r.DecidedBy,
		r.ConsumptionKWh, r.BillingDays, record.ImportedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save import: %w", err)
	}
	return nil
}

// GetImports returns every import in the order it happened.
func (s *SQLiteStorage) GetImports(ctx context.Context) ([]model.ImportRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, path, energy_type, provider, decided_by, consumption_kwh, billing_days, imported_at
		FROM imports
		ORDER BY imported_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query imports: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []model.ImportRecord
	for rows.Next() {
		record, err := scanImport(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate imports: %w", err)
	}
	return records, nil
}

// GetLatestImport returns the most recent import of an energy type, or nil if there is none.
func (s *SQLiteStorage) GetLatestImport(ctx context.Context, energyType model.EnergyType) (*model.ImportRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, path, energy_type, provider, decided_by, consumption_kwh, billing_days, imported_at
		FROM imports
		WHERE energy_type = ?
		ORDER BY imported_at DESC, rowid DESC
		LIMIT 1`, string(energyType))

	record, err := scanImport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// SaveImportFailure records a bill that could not be read.
func (s *SQLiteStorage) SaveImportFailure(ctx context.Context, failure *model.ImportFailure) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateFailure(failure); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO import_failures (id, path, reason, failed_at) VALUES (?, ?, ?, ?)`,
		failure.ID.String(), failure.Path, failure.Reason, failure.FailedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save import failure: %w", err)
	}
	return nil
}

// GetImportFailures returns every failed import in the order it happened.
func (s *SQLiteStorage) GetImportFailures(ctx context.Context) ([]model.ImportFailure, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, path, reason, failed_at FROM import_failures ORDER BY failed_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query import failures: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var failures []model.ImportFailure
	for rows.Next() {
		var (
			f        model.ImportFailure
			id       string
			failedAt time.Time
		)
		if err := rows.Scan(&id, &f.Path, &f.Reason, &failedAt); err != nil {
			return nil, fmt.Errorf("failed to scan import failure: %w", err)
		}
		if f.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid import failure id %q: %w", id, err)
		}
		f.FailedAt = failedAt
		failures = append(failures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate import failures: %w", err)
	}
	return failures, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanImport(row scanner) (*model.ImportRecord, error) {
	var (
		record     model.ImportRecord
		id         string
		energyType string
	)
	err := row.Scan(&id, &record.Path, &energyType, &record.Result.ProviderDetected, &record.Result.DecidedBy,
		&record.Result.ConsumptionKWh, &record.Result.BillingDays, &record.ImportedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan import: %w", err)
	}

	if record.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid import id %q: %w", id, err)
	}
	record.Result.EnergyType = model.EnergyType(energyType)
	return &record, nil
}
