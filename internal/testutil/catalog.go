package testutil

import (
	"encoding/json"
	"testing"

	"github.com/Veraticus/the-watts-must-flow/internal/catalog"
	"github.com/Veraticus/the-watts-must-flow/internal/model"
)

// CatalogBuilder assembles a catalog document for tests.
//
// Example:
//
//	store := testutil.NewCatalogBuilder(t).
//		WithVersion("2025-06-01").
//		WithOffer(model.Electricity, model.Residential, "DEI", 0.15, 5).
//		Store()
type CatalogBuilder struct {
	t         *testing.T
	lists     map[string][]map[string]any
	regulated map[string]any
	version   string
}

// NewCatalogBuilder starts an empty catalog.
func NewCatalogBuilder(t *testing.T) *CatalogBuilder {
	t.Helper()
	return &CatalogBuilder{t: t, lists: make(map[string][]map[string]any)}
}

// WithVersion sets last_updated.
func (b *CatalogBuilder) WithVersion(version string) *CatalogBuilder {
	b.version = version
	return b
}

// WithOffer adds an undiscounted offer.
func (b *CatalogBuilder) WithOffer(energy model.EnergyType, segment model.Segment, name string, priceKWh, monthlyFee float64) *CatalogBuilder {
	return b.WithDiscountedOffer(energy, segment, name, priceKWh, monthlyFee, 0)
}

// WithDiscountedOffer adds an offer with a discount fraction in [0, 1).
func (b *CatalogBuilder) WithDiscountedOffer(energy model.EnergyType, segment model.Segment, name string, priceKWh, monthlyFee, discount float64) *CatalogBuilder {
	key := listKey(energy, segment)
	b.lists[key] = append(b.lists[key], map[string]any{
		"name":             name,
		"program":          name + " Home",
		"price_kwh":        priceKWh,
		"monthly_fee":      monthlyFee,
		"discount_percent": discount,
	})
	return b
}

// WithRegulatedCharges sets the regulated_charges object verbatim.
func (b *CatalogBuilder) WithRegulatedCharges(charges map[string]any) *CatalogBuilder {
	b.regulated = charges
	return b
}

// JSON renders the catalog document.
func (b *CatalogBuilder) JSON() []byte {
	b.t.Helper()
	doc := map[string]any{}
	if b.version != "" {
		doc["last_updated"] = b.version
	}
	for key, offers := range b.lists {
		doc[key] = offers
	}
	if b.regulated != nil {
		doc["regulated_charges"] = b.regulated
	}
	data, err := json.Marshal(doc)
	if err != nil {
		b.t.Fatalf("failed to encode catalog: %v", err)
	}
	return data
}

// Build parses the catalog into a snapshot or fails the test.
func (b *CatalogBuilder) Build() *catalog.Snapshot {
	b.t.Helper()
	snap, err := catalog.Parse(b.JSON(), "testutil")
	if err != nil {
		b.t.Fatalf("failed to parse catalog: %v", err)
	}
	return snap
}

// Store returns a store with the catalog installed.
func (b *CatalogBuilder) Store() *catalog.Store {
	b.t.Helper()
	store := catalog.NewStore(nil)
	store.Replace(b.Build())
	return store
}

func listKey(energy model.EnergyType, segment model.Segment) string {
	key := "providers"
	if energy == model.Gas {
		key = "gas_providers"
	}
	if segment == model.Business {
		key += "_business"
	}
	return key
}
