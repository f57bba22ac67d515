// Package session holds the user's current scenario and prices it against the active catalog.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-watts-must-flow/internal/catalog"
	"github.com/Veraticus/the-watts-must-flow/internal/model"
	"github.com/Veraticus/the-watts-must-flow/internal/service"
	"github.com/Veraticus/the-watts-must-flow/internal/tariff"
)

// State is a copy of the session's scenario inputs.
type State struct {
	Active           *model.ClassificationResult
	ElectricityKWh   decimal.Decimal
	GasKWh           decimal.Decimal
	Segment          model.Segment
	Focus            model.EnergyType
	DetectedProvider string
	Days             int
	ActiveImportID   uuid.UUID
}

// KWh returns the consumption set for an energy type.
func (st State) KWh(energy model.EnergyType) decimal.Decimal {
	if energy == model.Gas {
		return st.GasKWh
	}
	return st.ElectricityKWh
}

// Table is one ranked cost table.
type Table struct {
	Scenario       tariff.Scenario       `json:"scenario"`
	CatalogVersion string                `json:"catalog_version"`
	Rows           []model.CostBreakdown `json:"offers"`
}

// Session is the single owner of the scenario and of the catalog store.
type Session struct {
	catalog *catalog.Store
	engine  *tariff.Engine
	imports service.ImportStorage
	logger  *slog.Logger
	now     func() time.Time
	state   State
	mu      sync.RWMutex
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithImportStorage records applied classifications and failed imports.
func WithImportStorage(store service.ImportStorage) Option {
	return func(s *Session) { s.imports = store }
}

// WithSegment sets the starting customer segment.
func WithSegment(segment model.Segment) Option {
	return func(s *Session) { s.state.Segment = segment }
}

// WithDays sets the starting billing period.
func WithDays(days int) Option {
	return func(s *Session) {
		if days > 0 {
			s.state.Days = days
		}
	}
}

// New creates a session over a catalog store.
func New(store *catalog.Store, opts ...Option) *Session {
	s := &Session{
		catalog: store,
		logger:  slog.Default(),
		now:     time.Now,
		state: State{
			ElectricityKWh:   decimal.Zero,
			GasKWh:           decimal.Zero,
			Days:             model.DefaultBillingDays,
			Segment:          model.Residential,
			Focus:            model.Electricity,
			DetectedProvider: model.UnknownProvider,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = tariff.NewEngine(s.logger)
	return s
}

// Catalog returns the store the session prices against.
func (s *Session) Catalog() *catalog.Store {
	return s.catalog
}

// State returns a copy of the current inputs.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	if st.Active != nil {
		active := *st.Active
		st.Active = &active
	}
	return st
}

// SetKWh sets the consumption of one energy type. Negative values are clamped to zero.
func (s *Session) SetKWh(energy model.EnergyType, kwh decimal.Decimal) {
	if kwh.IsNegative() {
		kwh = decimal.Zero
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if energy == model.Gas {
		s.state.GasKWh = kwh
	} else {
		s.state.ElectricityKWh = kwh
	}
}

// SetDays sets the billing period shared by both energy types.
func (s *Session) SetDays(days int) error {
	if days <= 0 {
		return fmt.Errorf("billing days must be positive, got %d", days)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Days = days
	return nil
}

// SetSegment switches between residential and business offers.
func (s *Session) SetSegment(segment model.Segment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Segment = segment
}

// SetDetectedProvider overrides the provider surfaced first in rankings.
func (s *Session) SetDetectedProvider(name string) {
	if name == "" {
		name = model.UnknownProvider
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.DetectedProvider = name
}

// ApplyClassification makes a bill's result the active one. Its consumption goes to the
// bill's energy type, and its billing days and provider replace the session's.
func (s *Session) ApplyClassification(ctx context.Context, path string, result model.ClassificationResult) (*model.ImportRecord, error) {
	record := &model.ImportRecord{
		ID:         uuid.New(),
		Path:       path,
		ImportedAt: s.now(),
		Result:     result,
	}
	if record.Result.BillingDays <= 0 {
		record.Result.BillingDays = model.DefaultBillingDays
	}

	if s.imports != nil {
		if err := s.imports.SaveImport(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to record import: %w", err)
		}
	}

	s.activate(record)

	s.logger.Debug("Applied classification",
		"import_id", record.ID,
		"path", path,
		"energy_type", record.Result.EnergyType,
		"kwh", record.Result.ConsumptionKWh)
	return record, nil
}

func (s *Session) activate(record *model.ImportRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	active := record.Result
	s.state.Active = &active
	s.state.ActiveImportID = record.ID
	s.state.Days = active.BillingDays
	s.state.DetectedProvider = active.ProviderDetected
	s.state.Focus = active.EnergyType
	kwh := decimal.NewFromInt(active.ConsumptionKWh)
	if active.EnergyType == model.Gas {
		s.state.GasKWh = kwh
	} else {
		s.state.ElectricityKWh = kwh
	}
}

// Resume restores the latest recorded bill of each energy type without recording it again.
// The most recent of them becomes the active result. It returns the number of bills restored.
func (s *Session) Resume(ctx context.Context) (int, error) {
	if s.imports == nil {
		return 0, nil
	}

	var latest []*model.ImportRecord
	for _, energy := range model.EnergyTypes {
		record, err := s.imports.GetLatestImport(ctx, energy)
		if err != nil {
			return 0, fmt.Errorf("failed to read import history: %w", err)
		}
		if record != nil {
			latest = append(latest, record)
		}
	}
	sort.SliceStable(latest, func(i, j int) bool {
		return latest[i].ImportedAt.Before(latest[j].ImportedAt)
	})

	for _, record := range latest {
		s.activate(record)
		s.logger.Debug("Resumed import", "import_id", record.ID, "path", record.Path)
	}
	return len(latest), nil
}

// RecordFailure notes a bill that could not be imported. The active result is unchanged.
func (s *Session) RecordFailure(ctx context.Context, path string, cause error) error {
	if s.imports == nil || cause == nil {
		return nil
	}
	return s.imports.SaveImportFailure(ctx, &model.ImportFailure{
		ID:       uuid.New(),
		Path:     path,
		Reason:   cause.Error(),
		FailedAt: s.now(),
	})
}

// History returns the imports and failures recorded so far.
func (s *Session) History(ctx context.Context) ([]model.ImportRecord, []model.ImportFailure, error) {
	if s.imports == nil {
		return nil, nil, nil
	}
	records, err := s.imports.GetImports(ctx)
	if err != nil {
		return nil, nil, err
	}
	failures, err := s.imports.GetImportFailures(ctx)
	if err != nil {
		return nil, nil, err
	}
	return records, failures, nil
}

// Scenario builds the pricing inputs for one energy type from the current state.
func (s *Session) Scenario(energy model.EnergyType) tariff.Scenario {
	return scenarioFor(s.State(), energy)
}

func scenarioFor(st State, energy model.EnergyType) tariff.Scenario {
	return tariff.Scenario{
		EnergyType:       energy,
		Segment:          st.Segment,
		KWh:              st.KWh(energy),
		Days:             st.Days,
		DetectedProvider: st.DetectedProvider,
	}
}

// Recompute ranks the offers of one energy type against the active catalog.
func (s *Session) Recompute(energy model.EnergyType) Table {
	return s.rank(scenarioFor(s.State(), energy), s.catalog.Current())
}

// RecomputeAll ranks every energy type in parallel. All tables use the same state and
// the same catalog snapshot.
func (s *Session) RecomputeAll() map[model.EnergyType]Table {
	st := s.State()
	snap := s.catalog.Current()

	tables := make([]Table, len(model.EnergyTypes))
	var wg sync.WaitGroup
	for i, energy := range model.EnergyTypes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tables[i] = s.rank(scenarioFor(st, energy), snap)
		}()
	}
	wg.Wait()

	out := make(map[model.EnergyType]Table, len(tables))
	for i, energy := range model.EnergyTypes {
		out[energy] = tables[i]
	}
	return out
}

func (s *Session) rank(sc tariff.Scenario, snap *catalog.Snapshot) Table {
	t := Table{Scenario: sc}
	if snap == nil {
		t.Rows = []model.CostBreakdown{}
		return t
	}
	t.CatalogVersion = snap.Version
	t.Rows = s.engine.Rank(sc, snap)
	return t
}
