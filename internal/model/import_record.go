package model

import (
	"time"

	"github.com/google/uuid"
)

// ImportRecord is one bill imported during the current session.
type ImportRecord struct {
	ImportedAt time.Time
	Path       string
	Result     ClassificationResult
	ID         uuid.UUID
}

// ImportFailure is a bill that could not be read.
type ImportFailure struct {
	FailedAt time.Time
	Path     string
	Reason   string
	ID       uuid.UUID
}
