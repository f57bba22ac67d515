package tariff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-watts-must-flow/internal/model"
)

type stubCatalog struct {
	offers    []model.ProviderOffer
	regulated *model.RegulatedCharges
}

func (c stubCatalog) Offers(energy model.EnergyType, segment model.Segment) []model.ProviderOffer {
	var out []model.ProviderOffer
	for _, o := range c.offers {
		if o.EnergyType == energy && o.Segment == segment {
			out = append(out, o)
		}
	}
	return out
}

func (c stubCatalog) RegulatedCharges() *model.RegulatedCharges { return c.regulated }

func offer(name, price string) model.ProviderOffer {
	return model.ProviderOffer{
		Name:             name,
		Program:          "Basic",
		PricePerKWh:      dec(price),
		MonthlyFixedFee:  dec("0"),
		DiscountFraction: dec("0"),
		Segment:          model.Residential,
		EnergyType:       model.Electricity,
	}
}

func TestEngine_TotalIdentity(t *testing.T) {
	e := NewEngine(nil)
	cfg := fullCharges()

	for _, kwh := range []string{"0", "75", "450", "1386", "5200"} {
		for _, days := range []int{1, 30, 61, 120} {
			s := Scenario{EnergyType: model.Electricity, Segment: model.Residential, KWh: dec(kwh), Days: days}
			got := e.Rank(s, stubCatalog{offers: []model.ProviderOffer{offer("Zenith", "0.1390")}, regulated: cfg})
			require.Len(t, got, 1)

			reg := RegulatedCharge(dec(kwh), days, model.Electricity, cfg)
			want := dec(kwh).Mul(dec("0.1390")).Add(reg).Mul(one.Add(VATRate(model.Electricity, cfg)))
			assert.True(t, want.Equal(got[0].TotalCost), "kwh=%s days=%d got %s want %s", kwh, days, got[0].TotalCost, want)
			assert.True(t, reg.Equal(got[0].RegulatedCost))
		}
	}
}

func TestEngine_DiscountAndFixedFee(t *testing.T) {
	o := offer("Protergia", "0.20")
	o.DiscountFraction = dec("0.25")
	o.MonthlyFixedFee = dec("6")

	got := Price(o, Scenario{EnergyType: model.Electricity, Segment: model.Residential, KWh: dec("100"), Days: 45}, nil)

	assert.Equal(t, "0.15", got.EffectivePrice.StringFixed(2))
	assert.Equal(t, "9.00", got.FixedCost.StringFixed(2))
	assert.Equal(t, "24.00", got.EnergyCost.StringFixed(2))
	assert.True(t, got.RegulatedCost.IsZero())
	assert.Equal(t, "1.44", got.VATAmount.StringFixed(2))
	assert.Equal(t, "25.44", got.TotalCost.StringFixed(2))
}

func TestEngine_DetectedProviderFirst(t *testing.T) {
	e := NewEngine(nil)
	// 100 kWh, no regulated charges, 6% VAT: 10.00 and 8.00 before tax.
	catalog := stubCatalog{offers: []model.ProviderOffer{
		offer("Cheap Energy", "0.08"),
		offer("DEI Home", "0.10"),
	}}

	got := e.Rank(Scenario{
		EnergyType:       model.Electricity,
		Segment:          model.Residential,
		KWh:              dec("100"),
		Days:             30,
		DetectedProvider: "dei",
	}, catalog)

	require.Len(t, got, 2)
	assert.Equal(t, "DEI Home", got[0].Offer.Name)
	assert.True(t, got[0].IsDetectedProviderMatch)
	assert.Equal(t, "Cheap Energy", got[1].Offer.Name)
	assert.False(t, got[1].IsDetectedProviderMatch)
	assert.True(t, got[0].TotalCost.GreaterThan(got[1].TotalCost))
}

func TestEngine_SortsByTotalAndIsStable(t *testing.T) {
	e := NewEngine(nil)
	catalog := stubCatalog{offers: []model.ProviderOffer{
		offer("C", "0.12"),
		offer("A1", "0.10"),
		offer("B", "0.09"),
		offer("A2", "0.10"),
	}}

	got := e.Rank(Scenario{EnergyType: model.Electricity, Segment: model.Residential, KWh: dec("300"), Days: 30, DetectedProvider: model.UnknownProvider}, catalog)

	var names []string
	for _, r := range got {
		names = append(names, r.Offer.Name)
		assert.False(t, r.IsDetectedProviderMatch)
	}
	assert.Equal(t, []string{"B", "A1", "A2", "C"}, names)
}

func TestEngine_AbsentRegulatedChargesStillRanks(t *testing.T) {
	e := NewEngine(nil)
	catalog := stubCatalog{offers: []model.ProviderOffer{offer("X", "0.15"), offer("Y", "0.11")}}

	got := e.Rank(Scenario{EnergyType: model.Electricity, Segment: model.Residential, KWh: dec("200"), Days: 30}, catalog)

	require.Len(t, got, 2)
	assert.Equal(t, "Y", got[0].Offer.Name)
	for _, r := range got {
		assert.True(t, r.RegulatedCost.IsZero())
		want := r.EnergyCost.Mul(dec("1.06"))
		assert.True(t, want.Equal(r.TotalCost), "got %s want %s", r.TotalCost, want)
	}
}

func TestEngine_NoMatchingOffers(t *testing.T) {
	e := NewEngine(nil)
	catalog := stubCatalog{offers: []model.ProviderOffer{offer("X", "0.15")}, regulated: fullCharges()}

	tests := []struct {
		name     string
		scenario Scenario
		catalog  Catalog
	}{
		{name: "other energy type", scenario: Scenario{EnergyType: model.Gas, Segment: model.Residential, KWh: dec("100"), Days: 30}, catalog: catalog},
		{name: "other segment", scenario: Scenario{EnergyType: model.Electricity, Segment: model.Business, KWh: dec("100"), Days: 30}, catalog: catalog},
		{name: "nil catalog", scenario: Scenario{EnergyType: model.Electricity, Segment: model.Residential, KWh: dec("100"), Days: 30}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Rank(tt.scenario, tt.catalog)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestEngine_BusinessUsesSameRegulatedFormula(t *testing.T) {
	e := NewEngine(nil)
	biz := offer("Heron Business", "0.14")
	biz.Segment = model.Business
	home := offer("Heron Home", "0.14")

	catalog := stubCatalog{offers: []model.ProviderOffer{biz, home}, regulated: fullCharges()}
	s := Scenario{EnergyType: model.Electricity, KWh: dec("900"), Days: 60}

	s.Segment = model.Business
	b := e.Rank(s, catalog)
	s.Segment = model.Residential
	r := e.Rank(s, catalog)

	require.Len(t, b, 1)
	require.Len(t, r, 1)
	assert.True(t, b[0].RegulatedCost.Equal(r[0].RegulatedCost))
	assert.True(t, b[0].TotalCost.Equal(r[0].TotalCost))
}

func TestMatchesProvider(t *testing.T) {
	tests := []struct {
		offer    string
		detected string
		want     bool
	}{
		{offer: "DEI Myhome Enter", detected: "DEI", want: true},
		{offer: "dei home", detected: "DEI", want: true},
		{offer: "Zenith Power", detected: "zenith", want: true},
		{offer: "Zenith Power", detected: "Protergia", want: false},
		{offer: "Unknown Energy", detected: model.UnknownProvider, want: false},
		{offer: "Anything", detected: "", want: false},
		{offer: "Anything", detected: "   ", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.offer+"/"+tt.detected, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesProvider(tt.offer, tt.detected))
		})
	}
}
