package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc is told about every reload attempt.
type ReloadFunc func(snap *Snapshot, err error)

// Watcher reloads the store whenever the catalog file is replaced on disk.
type Watcher struct {
	store    *Store
	logger   *slog.Logger
	onReload ReloadFunc
	path     string
	debounce time.Duration
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce coalesces bursts of file events into one reload.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithReloadHook registers a callback run after each reload attempt.
func WithReloadHook(fn ReloadFunc) WatcherOption {
	return func(w *Watcher) { w.onReload = fn }
}

// NewWatcher creates a watcher for the catalog file at path.
func NewWatcher(store *Store, path string, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		store:    store,
		logger:   store.logger,
		path:     filepath.Clean(path),
		debounce: 250 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled. The parent directory is watched so that
// files replaced through a rename are still seen.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		_ = fw.Close()
	}()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.logger.Info("Watching catalog", "path", w.path)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.reload(ctx)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Catalog watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	snap, err := w.store.Load(ctx, FileSource{Path: w.path})
	if err != nil {
		w.logger.Warn("Catalog reload failed, keeping previous snapshot", "path", w.path, "error", err)
	}
	if w.onReload != nil {
		w.onReload(snap, err)
	}
}
