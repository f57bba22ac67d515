package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-watts-must-flow/internal/common"
	"github.com/Veraticus/the-watts-must-flow/internal/model"
)

// document is the JSON shape of a catalog file.
type document struct {
	LastUpdated          string          `json:"last_updated"`
	Providers            []offerDoc      `json:"providers"`
	GasProviders         []offerDoc      `json:"gas_providers"`
	ProvidersBusiness    []offerDoc      `json:"providers_business"`
	GasProvidersBusiness []offerDoc      `json:"gas_providers_business"`
	RegulatedCharges     json.RawMessage `json:"regulated_charges"`
}

type offerDoc struct {
	Name            string          `json:"name"`
	Program         string          `json:"program"`
	PriceKWh        decimal.Decimal `json:"price_kwh"`
	MonthlyFee      decimal.Decimal `json:"monthly_fee"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

type regulatedDoc struct {
	VAT                 decimal.NullDecimal `json:"vat"`
	ADMIE               decimal.NullDecimal `json:"admie_monopasiko"`
	DEDDIEEnergy        decimal.NullDecimal `json:"deddie_monopasiko_energy"`
	DEDDIEPower         decimal.NullDecimal `json:"deddie_monopasiko_power"`
	ETMEAR              decimal.NullDecimal `json:"etmear"`
	YKOTiers            []tierDoc           `json:"yko_tiers"`
	GasRegulatedCharges json.RawMessage     `json:"gas_reg_charges"`
}

type tierDoc struct {
	Limit decimal.NullDecimal `json:"limit"`
	Rate  decimal.Decimal     `json:"rate"`
}

type gasRegulatedDoc struct {
	VAT                   decimal.NullDecimal `json:"vat"`
	FixedNetworkPerMonth  decimal.NullDecimal `json:"fixed_network_charge_per_month"`
	VariableNetworkPerKWh decimal.NullDecimal `json:"variable_network_charge_per_kwh"`
	ETDPerKWh             decimal.NullDecimal `json:"etd_per_kwh"`
	EPHPerKWh             decimal.NullDecimal `json:"eph_per_kwh"`
}

// section ties a provider list key to the energy type and segment it holds.
type section struct {
	energy  model.EnergyType
	segment model.Segment
	offers  func(*document) []offerDoc
}

var sections = []section{
	{model.Electricity, model.Residential, func(d *document) []offerDoc { return d.Providers }},
	{model.Gas, model.Residential, func(d *document) []offerDoc { return d.GasProviders }},
	{model.Electricity, model.Business, func(d *document) []offerDoc { return d.ProvidersBusiness }},
	{model.Gas, model.Business, func(d *document) []offerDoc { return d.GasProvidersBusiness }},
}

func decodeDocument(data []byte) (*document, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidCatalog, err)
	}
	return &doc, nil
}

func (d *document) offers() map[offerKey][]model.ProviderOffer {
	out := make(map[offerKey][]model.ProviderOffer, len(sections))
	for _, s := range sections {
		docs := s.offers(d)
		list := make([]model.ProviderOffer, 0, len(docs))
		for _, o := range docs {
			list = append(list, model.ProviderOffer{
				Name:             o.Name,
				Program:          o.Program,
				PricePerKWh:      o.PriceKWh,
				MonthlyFixedFee:  o.MonthlyFee,
				DiscountFraction: o.DiscountPercent,
				Segment:          s.segment,
				EnergyType:       s.energy,
			})
		}
		out[offerKey{s.energy, s.segment}] = list
	}
	return out
}

// regulated converts the regulated block. An absent or empty block yields nil sections,
// which the calculator treats as a zero contribution.
func (d *document) regulated() (*model.RegulatedCharges, error) {
	out := &model.RegulatedCharges{}
	if isEmptyObject(d.RegulatedCharges) {
		return out, nil
	}

	var reg regulatedDoc
	if err := json.Unmarshal(d.RegulatedCharges, &reg); err != nil {
		return nil, fmt.Errorf("%w: regulated_charges: %w", common.ErrInvalidCatalog, err)
	}

	elec := &model.ElectricityCharges{
		VAT:              reg.VAT,
		ADMIEUnitRate:    reg.ADMIE,
		DEDDIEEnergyRate: reg.DEDDIEEnergy,
		DEDDIEPowerRate:  reg.DEDDIEPower,
		ETMEARRate:       reg.ETMEAR,
	}
	for _, t := range reg.YKOTiers {
		elec.Tiers = append(elec.Tiers, model.ConsumptionTier{
			LimitKWh:   t.Limit.Decimal,
			RatePerKWh: t.Rate,
			Unbounded:  !t.Limit.Valid,
		})
	}
	out.Electricity = elec

	if isEmptyObject(reg.GasRegulatedCharges) {
		return out, nil
	}
	var gas gasRegulatedDoc
	if err := json.Unmarshal(reg.GasRegulatedCharges, &gas); err != nil {
		return nil, fmt.Errorf("%w: gas_reg_charges: %w", common.ErrInvalidCatalog, err)
	}
	out.Gas = &model.GasCharges{
		VAT:                   gas.VAT,
		FixedNetworkPerMonth:  gas.FixedNetworkPerMonth,
		VariableNetworkPerKWh: gas.VariableNetworkPerKWh,
		ETDPerKWh:             gas.ETDPerKWh,
		EPHPerKWh:             gas.EPHPerKWh,
	}
	return out, nil
}

// isEmptyObject reports whether raw JSON is missing, null or an object without keys.
func isEmptyObject(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return true
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return false
	}
	return len(m) == 0
}
