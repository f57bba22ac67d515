package model

import "github.com/shopspring/decimal"

// CostBreakdown is the fully loaded cost of one offer for one scenario.
// It is always recomputed from the current inputs and never cached.
type CostBreakdown struct {
	Offer                   ProviderOffer   `json:"offer"`
	EffectivePrice          decimal.Decimal `json:"effective_price"`
	FixedCost               decimal.Decimal `json:"fixed_cost"`
	EnergyCost              decimal.Decimal `json:"energy_cost"` // includes FixedCost
	RegulatedCost           decimal.Decimal `json:"regulated_cost"`
	Subtotal                decimal.Decimal `json:"subtotal"`
	VATAmount               decimal.Decimal `json:"vat_amount"`
	TotalCost               decimal.Decimal `json:"total_cost"`
	IsDetectedProviderMatch bool            `json:"is_detected_provider_match"`
}
