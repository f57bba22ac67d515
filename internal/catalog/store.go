package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/Veraticus/the-watts-must-flow/internal/service"
)

// Store owns the active catalog snapshot. Readers see either the previous or the
// new snapshot in full, never a mix.
type Store struct {
	logger  *slog.Logger
	current atomic.Pointer[Snapshot]
}

// NewStore creates an empty store. A nil logger uses slog.Default().
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{logger: logger}
}

// Current returns the active snapshot, or nil before the first successful load.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Replace installs a snapshot and returns the one it replaced.
func (s *Store) Replace(snap *Snapshot) *Snapshot {
	return s.current.Swap(snap)
}

// Load fetches and parses a catalog from src and makes it current.
// On failure the previous snapshot stays active.
func (s *Store) Load(ctx context.Context, src service.CatalogSource) (*Snapshot, error) {
	data, err := src.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := Parse(data, src.Describe())
	if err != nil {
		s.logger.Warn("Rejected catalog", "source", src.Describe(), "error", err)
		return nil, err
	}
	s.install(snap)
	return snap, nil
}

// Sync fetches a catalog from src, writes it to path and makes it current.
// Nothing is written and the active snapshot is kept unless the document parses.
func (s *Store) Sync(ctx context.Context, src service.CatalogSource, path string) (*Snapshot, error) {
	data, err := src.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := Parse(data, src.Describe())
	if err != nil {
		s.logger.Warn("Rejected catalog", "source", src.Describe(), "error", err)
		return nil, err
	}
	if err := writeFileAtomic(path, data); err != nil {
		return nil, err
	}
	s.install(snap)
	return snap, nil
}

func (s *Store) install(snap *Snapshot) {
	prev := s.Replace(snap)
	attrs := []any{"version", snap.Version, "source", snap.Source, "id", snap.ID}
	if prev != nil {
		attrs = append(attrs, "previous_version", prev.Version)
	}
	s.logger.Info("Catalog loaded", attrs...)
}

// writeFileAtomic replaces path through a rename so watchers never observe a partial file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".catalog-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary catalog file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace catalog: %w", err)
	}
	return nil
}
