package model

import "github.com/shopspring/decimal"

// ProviderOffer is one tariff program sold by a provider.
// Offers belong to a catalog snapshot and are never updated in place.
type ProviderOffer struct {
	Name             string          `json:"name"`
	Program          string          `json:"program"`
	PricePerKWh      decimal.Decimal `json:"price_kwh"`
	MonthlyFixedFee  decimal.Decimal `json:"monthly_fee"`
	DiscountFraction decimal.Decimal `json:"discount_percent"`
	Segment          Segment         `json:"segment"`
	EnergyType       EnergyType      `json:"energy_type"`
}

// EffectivePrice is the per-kWh price after the offer's discount.
func (o ProviderOffer) EffectivePrice() decimal.Decimal {
	return o.PricePerKWh.Mul(decimal.NewFromInt(1).Sub(o.DiscountFraction))
}
