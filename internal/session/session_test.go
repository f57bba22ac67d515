package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-watts-must-flow/internal/catalog"
	"github.com/Veraticus/the-watts-must-flow/internal/model"
	"github.com/Veraticus/the-watts-must-flow/internal/storage"
	"github.com/Veraticus/the-watts-must-flow/internal/testutil"
)

func loadedStore(t *testing.T) *catalog.Store {
	t.Helper()
	return testutil.NewCatalogBuilder(t).
		WithVersion("2025-06-01").
		WithOffer(model.Electricity, model.Residential, "DEI", 0.15, 5).
		WithOffer(model.Electricity, model.Residential, "Zenith", 0.12, 4).
		WithOffer(model.Gas, model.Residential, "Fysiko Aerio", 0.07, 2).
		WithOffer(model.Electricity, model.Business, "Enerwave", 0.13, 12).
		WithRegulatedCharges(map[string]any{"vat": 0.06, "gas_reg_charges": map[string]any{"vat": 0.06}}).
		Store()
}

func memoryImports(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	return testutil.SetupTestDB(t).Storage
}

func TestNew_Defaults(t *testing.T) {
	s := New(loadedStore(t))
	st := s.State()

	assert.Equal(t, model.DefaultBillingDays, st.Days)
	assert.Equal(t, model.Residential, st.Segment)
	assert.Equal(t, model.Electricity, st.Focus)
	assert.Equal(t, model.UnknownProvider, st.DetectedProvider)
	assert.True(t, st.ElectricityKWh.IsZero())
	assert.Nil(t, st.Active)

	s = New(loadedStore(t), WithSegment(model.Business), WithDays(90))
	assert.Equal(t, model.Business, s.State().Segment)
	assert.Equal(t, 90, s.State().Days)
}

func TestApplyClassification_RoutesByEnergyType(t *testing.T) {
	imports := memoryImports(t)
	s := New(loadedStore(t), WithImportStorage(imports))
	s.now = func() time.Time { return time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	s.SetKWh(model.Electricity, decimal.NewFromInt(300))

	rec, err := s.ApplyClassification(ctx, "gas.pdf", model.ClassificationResult{
		EnergyType:       model.Gas,
		ProviderDetected: "Fysiko Aerio",
		DecidedBy:        "gas-arithmetic",
		ConsumptionKWh:   1386,
		BillingDays:      61,
	})
	require.NoError(t, err)

	st := s.State()
	assert.Equal(t, "1386", st.GasKWh.String())
	assert.Equal(t, "300", st.ElectricityKWh.String(), "other energy type untouched")
	assert.Equal(t, 61, st.Days)
	assert.Equal(t, "Fysiko Aerio", st.DetectedProvider)
	assert.Equal(t, model.Gas, st.Focus)
	require.NotNil(t, st.Active)
	assert.Equal(t, rec.ID, st.ActiveImportID)

	latest, err := imports.GetLatestImport(ctx, model.Gas)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, rec.ID, latest.ID)
	assert.Equal(t, "gas.pdf", latest.Path)

	// a later bill replaces the active result
	_, err = s.ApplyClassification(ctx, "power.pdf", model.ClassificationResult{
		EnergyType:       model.Electricity,
		ProviderDetected: "DEI",
		ConsumptionKWh:   450,
		BillingDays:      30,
	})
	require.NoError(t, err)
	st = s.State()
	assert.Equal(t, model.Electricity, st.Active.EnergyType)
	assert.Equal(t, "450", st.ElectricityKWh.String())
	assert.Equal(t, "1386", st.GasKWh.String())
}

func TestApplyClassification_ActiveIsACopy(t *testing.T) {
	s := New(loadedStore(t))
	_, err := s.ApplyClassification(context.Background(), "a.pdf", model.ClassificationResult{EnergyType: model.Electricity, ConsumptionKWh: 10, BillingDays: 30})
	require.NoError(t, err)

	st := s.State()
	st.Active.ConsumptionKWh = 999
	assert.Equal(t, int64(10), s.State().Active.ConsumptionKWh)
}

type failingImports struct {
	*storage.SQLiteStorage
}

func (failingImports) SaveImport(context.Context, *model.ImportRecord) error {
	return errors.New("disk full")
}

func TestApplyClassification_StorageFailureLeavesStateAlone(t *testing.T) {
	s := New(loadedStore(t), WithImportStorage(failingImports{memoryImports(t)}))

	_, err := s.ApplyClassification(context.Background(), "a.pdf", model.ClassificationResult{EnergyType: model.Gas, ConsumptionKWh: 10, BillingDays: 30})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Nil(t, s.State().Active)
	assert.True(t, s.State().GasKWh.IsZero())
}

func TestApplyClassification_InvalidResultIsRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(loadedStore(t), WithImportStorage(db.Storage))

	_, err := s.ApplyClassification(context.Background(), "odd.pdf", model.ClassificationResult{EnergyType: model.Electricity, ConsumptionKWh: -5, BillingDays: 30})
	require.ErrorIs(t, err, storage.ErrInvalidImport)
	assert.Nil(t, s.State().Active)
	assert.True(t, s.State().ElectricityKWh.IsZero())
	assert.Empty(t, db.MustImports())
}

func TestRecordFailureAndHistory(t *testing.T) {
	s := New(loadedStore(t), WithImportStorage(memoryImports(t)))
	ctx := context.Background()

	require.NoError(t, s.RecordFailure(ctx, "scan.png", errors.New("unsupported extension")))
	_, err := s.ApplyClassification(ctx, "a.pdf", model.ClassificationResult{EnergyType: model.Electricity, ConsumptionKWh: 10, BillingDays: 30})
	require.NoError(t, err)

	records, failures, err := s.History(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	require.Len(t, failures, 1)
	assert.Equal(t, "unsupported extension", failures[0].Reason)

	// without storage there is no history, and nothing fails
	bare := New(loadedStore(t))
	assert.NoError(t, bare.RecordFailure(ctx, "x", errors.New("y")))
	records, failures, err = bare.History(ctx)
	assert.NoError(t, err)
	assert.Nil(t, records)
	assert.Nil(t, failures)
}

func TestSetters(t *testing.T) {
	s := New(loadedStore(t))

	s.SetKWh(model.Gas, decimal.NewFromInt(-5))
	assert.True(t, s.State().GasKWh.IsZero())

	assert.Error(t, s.SetDays(0))
	assert.NoError(t, s.SetDays(45))
	assert.Equal(t, 45, s.State().Days)

	s.SetDetectedProvider("")
	assert.Equal(t, model.UnknownProvider, s.State().DetectedProvider)
	s.SetDetectedProvider("Zenith")
	assert.Equal(t, "Zenith", s.State().DetectedProvider)
}

func TestRecompute(t *testing.T) {
	s := New(loadedStore(t))
	s.SetKWh(model.Electricity, decimal.NewFromInt(400))
	s.SetDetectedProvider("DEI")

	table := s.Recompute(model.Electricity)
	assert.Equal(t, "2025-06-01", table.CatalogVersion)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "DEI", table.Rows[0].Offer.Name, "detected provider first")
	assert.True(t, table.Rows[0].TotalCost.GreaterThan(table.Rows[1].TotalCost))

	s.SetSegment(model.Business)
	table = s.Recompute(model.Electricity)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Enerwave", table.Rows[0].Offer.Name)

	table = s.Recompute(model.Gas)
	assert.Empty(t, table.Rows)
}

func TestRecompute_NoCatalog(t *testing.T) {
	s := New(catalog.NewStore(nil))

	table := s.Recompute(model.Electricity)
	assert.NotNil(t, table.Rows)
	assert.Empty(t, table.Rows)
	assert.Empty(t, table.CatalogVersion)
}

func TestRecomputeAll_MatchesSequential(t *testing.T) {
	s := New(loadedStore(t))
	s.SetKWh(model.Electricity, decimal.NewFromInt(450))
	s.SetKWh(model.Gas, decimal.NewFromInt(1386))

	all := s.RecomputeAll()
	require.Len(t, all, 2)

	for _, energy := range model.EnergyTypes {
		seq := s.Recompute(energy)
		par := all[energy]
		assert.Equal(t, energy, par.Scenario.EnergyType)
		require.Len(t, par.Rows, len(seq.Rows))
		for i := range seq.Rows {
			assert.Equal(t, seq.Rows[i].Offer.Name, par.Rows[i].Offer.Name)
			assert.True(t, seq.Rows[i].TotalCost.Equal(par.Rows[i].TotalCost))
		}
	}
}

func TestConcurrentUpdatesAndRecompute(t *testing.T) {
	s := New(loadedStore(t))

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 50 {
				s.SetKWh(model.Electricity, decimal.NewFromInt(int64(i*100+j)))
				_ = s.SetDays(j%60 + 1)
				tables := s.RecomputeAll()
				assert.Len(t, tables[model.Electricity].Rows, 2)
			}
		}()
	}
	wg.Wait()
}

func TestResume(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)

	gas := testutil.NewImportRecord("gas.pdf", model.Gas, 1386, "Fysiko Aerio")
	gas.ImportedAt = time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	gas.Result.BillingDays = 61
	power := testutil.NewImportRecord("power.pdf", model.Electricity, 450, "DEI")
	power.ImportedAt = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, db.Storage.SaveImport(ctx, &gas))
	require.NoError(t, db.Storage.SaveImport(ctx, &power))

	s := New(loadedStore(t), WithImportStorage(db.Storage))
	n, err := s.Resume(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	st := s.State()
	assert.Equal(t, "1386", st.GasKWh.String())
	assert.Equal(t, "450", st.ElectricityKWh.String())
	assert.Equal(t, power.ID, st.ActiveImportID, "the newest bill is active")
	assert.Equal(t, "DEI", st.DetectedProvider)
	assert.Equal(t, power.Result.BillingDays, st.Days)
	assert.Len(t, db.MustImports(), 2, "resuming records nothing new")

	n, err = New(loadedStore(t)).Resume(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
