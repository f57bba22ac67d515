// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Document errors.
	ErrUnreadableDocument = errors.New("unreadable document")
	ErrEmptyDocument      = errors.New("empty document")

	// Catalog errors.
	ErrInvalidCatalog     = errors.New("invalid catalog")
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// InputError reports a document that could not be turned into usable text.
// It is fatal to a single import attempt only.
type InputError struct {
	Err  error
	Path string
}

func (e *InputError) Error() string {
	msg := "unreadable or empty document"
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Path)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// NewInputError creates an InputError for the document at path.
func NewInputError(path string, err error) error {
	return &InputError{Path: path, Err: err}
}

// IsInputError reports whether err is, or wraps, an InputError.
func IsInputError(err error) bool {
	var inputErr *InputError
	return errors.As(err, &inputErr)
}
