package model

import "github.com/shopspring/decimal"

// RegulatedCharges holds the government and network coefficients of a catalog snapshot.
// A nil section means the catalog did not carry it.
type RegulatedCharges struct {
	Electricity *ElectricityCharges
	Gas         *GasCharges
}

// ElectricityCharges are the regulated electricity coefficients.
// Any coefficient left invalid falls back to the calculator's built-in default.
type ElectricityCharges struct {
	VAT              decimal.NullDecimal
	ADMIEUnitRate    decimal.NullDecimal
	DEDDIEEnergyRate decimal.NullDecimal
	DEDDIEPowerRate  decimal.NullDecimal
	ETMEARRate       decimal.NullDecimal
	Tiers            []ConsumptionTier
}

// ConsumptionTier is one bracket of the progressive levy.
// LimitKWh is defined over a 120-day reference period; Unbounded tiers take all remaining kWh.
type ConsumptionTier struct {
	LimitKWh   decimal.Decimal
	RatePerKWh decimal.Decimal
	Unbounded  bool
}

// GasCharges are the regulated natural gas coefficients.
type GasCharges struct {
	VAT                   decimal.NullDecimal
	FixedNetworkPerMonth  decimal.NullDecimal
	VariableNetworkPerKWh decimal.NullDecimal
	ETDPerKWh             decimal.NullDecimal
	EPHPerKWh             decimal.NullDecimal
}
