package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Veraticus/the-watts-must-flow/internal/model"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrNilParameter  = errors.New("parameter cannot be nil")
	ErrInvalidImport = errors.New("invalid import record")
)

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateImport(record *model.ImportRecord) error {
	if record == nil {
		return fmt.Errorf("%w: import record", ErrNilParameter)
	}
	if record.ID == uuid.Nil {
		return fmt.Errorf("%w: missing ID", ErrInvalidImport)
	}
	if strings.TrimSpace(record.Path) == "" {
		return fmt.Errorf("%w: missing path", ErrInvalidImport)
	}
	if record.ImportedAt.IsZero() {
		return fmt.Errorf("%w: missing import time", ErrInvalidImport)
	}

	r := record.Result
	if r.EnergyType != model.Electricity && r.EnergyType != model.Gas {
		return fmt.Errorf("%w: energy type %q", ErrInvalidImport, r.EnergyType)
	}
	if r.ConsumptionKWh < 0 {
		return fmt.Errorf("%w: negative consumption", ErrInvalidImport)
	}
	if r.BillingDays <= 0 {
		return fmt.Errorf("%w: billing days must be positive", ErrInvalidImport)
	}
	return nil
}

func validateFailure(failure *model.ImportFailure) error {
	if failure == nil {
		return fmt.Errorf("%w: import failure", ErrNilParameter)
	}
	if failure.ID == uuid.Nil {
		return fmt.Errorf("%w: missing ID", ErrInvalidImport)
	}
	if err := validateString(failure.Path, "path"); err != nil {
		return err
	}
	return validateString(failure.Reason, "reason")
}
