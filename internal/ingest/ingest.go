// Package ingest turns a bill on disk into a classification result.
package ingest

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Veraticus/the-watts-must-flow/internal/classification"
	"github.com/Veraticus/the-watts-must-flow/internal/common"
	"github.com/Veraticus/the-watts-must-flow/internal/model"
	"github.com/Veraticus/the-watts-must-flow/internal/service"
)

// DefaultMaxPages bounds how much of a bill is scanned.
const DefaultMaxPages = 2

// Service extracts and classifies bills.
type Service struct {
	extractor  service.TextExtractor
	classifier *classification.Classifier
	logger     *slog.Logger
	maxPages   int
}

// NewService creates an ingestion service. maxPages <= 0 uses DefaultMaxPages.
func NewService(extractor service.TextExtractor, classifier *classification.Classifier, maxPages int, logger *slog.Logger) *Service {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	if logger == nil {
		logger = slog.Default()
	}
	if classifier == nil {
		classifier = classification.NewClassifier(classification.WithLogger(logger))
	}
	return &Service{
		extractor:  extractor,
		classifier: classifier,
		logger:     logger,
		maxPages:   maxPages,
	}
}

// Ingest reads the first pages of the bill at path and classifies it.
// Unreadable or empty documents yield an *common.InputError naming the path.
func (s *Service) Ingest(ctx context.Context, path string) (model.ClassificationResult, error) {
	text, err := s.extractor.ExtractText(ctx, path, s.maxPages)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return model.ClassificationResult{}, err
		}
		s.logger.Warn("Could not read bill", "path", path, "error", err)
		return model.ClassificationResult{}, common.NewInputError(path, err)
	}
	if strings.TrimSpace(text) == "" {
		s.logger.Warn("Bill has no text", "path", path)
		return model.ClassificationResult{}, common.NewInputError(path, common.ErrEmptyDocument)
	}

	result, err := s.classifier.Classify(text)
	if err != nil {
		return model.ClassificationResult{}, common.NewInputError(path, err)
	}

	s.logger.Info("Bill classified",
		"path", path,
		"energy_type", result.EnergyType,
		"provider", result.ProviderDetected,
		"kwh", result.ConsumptionKWh,
		"days", result.BillingDays)
	return result, nil
}

// MaxPages is the page cap applied to every bill.
func (s *Service) MaxPages() int {
	return s.maxPages
}
