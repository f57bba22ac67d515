package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Veraticus/the-watts-must-flow/internal/service"
)

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ParseSchedule parses a standard 5-field cron expression
// (minute hour day-of-month month day-of-week), e.g. "0 6 * * *".
func ParseSchedule(spec string) (cron.Schedule, error) {
	sched, err := scheduleParser.Parse(strings.TrimSpace(spec))
	if err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	return sched, nil
}

// Refresher syncs the remote catalog into the local file on a schedule.
type Refresher struct {
	store    *Store
	source   service.CatalogSource
	schedule cron.Schedule
	now      func() time.Time
	path     string
}

// NewRefresher creates a refresher that writes fetched catalogs to path.
func NewRefresher(store *Store, source service.CatalogSource, path, spec string) (*Refresher, error) {
	sched, err := ParseSchedule(spec)
	if err != nil {
		return nil, err
	}
	return &Refresher{
		store:    store,
		source:   source,
		schedule: sched,
		path:     path,
		now:      time.Now,
	}, nil
}

// Next returns the time of the next scheduled refresh.
func (r *Refresher) Next() time.Time {
	return r.schedule.Next(r.now())
}

// RefreshNow syncs once, outside the schedule.
func (r *Refresher) RefreshNow(ctx context.Context) (*Snapshot, error) {
	return r.store.Sync(ctx, r.source, r.path)
}

// Run refreshes on every scheduled tick until ctx is cancelled. A failed refresh
// is logged and the previous snapshot stays active.
func (r *Refresher) Run(ctx context.Context) error {
	for {
		next := r.Next()
		wait := next.Sub(r.now())
		r.store.logger.Info("Next catalog refresh", "at", next.Format(time.RFC3339), "in", wait.Round(time.Second))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		if _, err := r.RefreshNow(ctx); err != nil {
			r.store.logger.Error("Catalog refresh failed", "source", r.source.Describe(), "error", err)
		}
	}
}
