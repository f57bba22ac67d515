// Package tariff computes regulated charges and ranks provider offers by fully loaded cost.
package tariff

import (
	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-watts-must-flow/internal/model"
)

var (
	one = decimal.NewFromInt(1)

	daysPerYear       = decimal.NewFromInt(365)
	daysPerMonth      = decimal.NewFromInt(30)
	tierReferenceDays = decimal.NewFromInt(120)

	// Every customer is assumed to have an 8 kVA connection, business included.
	assumedCapacityKVA = decimal.NewFromInt(8)
	admieFixedAdder    = decimal.RequireFromString("0.5")
)

// Built-in coefficients used when the catalog omits one.
var (
	DefaultVAT = decimal.RequireFromString("0.06")

	DefaultADMIEUnitRate    = decimal.RequireFromString("0.00999")
	DefaultDEDDIEEnergyRate = decimal.RequireFromString("0.00339")
	DefaultDEDDIEPowerRate  = decimal.RequireFromString("6.21")
	DefaultETMEARRate       = decimal.RequireFromString("0.017")

	DefaultGasFixedNetworkPerMonth  = decimal.RequireFromString("0.85")
	DefaultGasVariableNetworkPerKWh = decimal.RequireFromString("0.003")
	DefaultGasETDPerKWh             = decimal.RequireFromString("0.002")
	DefaultGasEPHPerKWh             = decimal.RequireFromString("0.005")
)

// DefaultTiers returns the progressive levy brackets used when the catalog carries none.
func DefaultTiers() []model.ConsumptionTier {
	return []model.ConsumptionTier{
		{LimitKWh: decimal.NewFromInt(1600), RatePerKWh: decimal.RequireFromString("0.0069")},
		{LimitKWh: decimal.NewFromInt(2000), RatePerKWh: decimal.RequireFromString("0.050")},
		{Unbounded: true, RatePerKWh: decimal.RequireFromString("0.085")},
	}
}

// TierShare is the part of a consumption attributed to one levy bracket.
type TierShare struct {
	Tier   model.ConsumptionTier
	KWh    decimal.Decimal
	Charge decimal.Decimal
}

// AllocateTiers walks the brackets in order, giving each the lesser of the remaining
// consumption and its limit pro-rated to the billing period.
// Consumption left over after the last bracket is not charged.
func AllocateTiers(kwh decimal.Decimal, days int, tiers []model.ConsumptionTier) []TierShare {
	if len(tiers) == 0 {
		tiers = DefaultTiers()
	}
	scale := decimal.NewFromInt(int64(days)).Div(tierReferenceDays)

	remaining := kwh
	shares := make([]TierShare, 0, len(tiers))
	for _, tier := range tiers {
		if !remaining.IsPositive() {
			break
		}
		take := remaining
		if !tier.Unbounded {
			take = decimal.Min(remaining, tier.LimitKWh.Mul(scale))
		}
		if take.IsNegative() {
			take = decimal.Zero
		}
		shares = append(shares, TierShare{
			Tier:   tier,
			KWh:    take,
			Charge: take.Mul(tier.RatePerKWh),
		})
		remaining = remaining.Sub(take)
	}
	return shares
}

// ProgressiveCharge is the total levy over every bracket.
func ProgressiveCharge(kwh decimal.Decimal, days int, tiers []model.ConsumptionTier) decimal.Decimal {
	total := decimal.Zero
	for _, s := range AllocateTiers(kwh, days, tiers) {
		total = total.Add(s.Charge)
	}
	return total
}

// RegulatedCharge is the provider-independent surcharge for a consumption and period.
// A nil config, or a config without the requested section, contributes nothing.
func RegulatedCharge(kwh decimal.Decimal, days int, energy model.EnergyType, cfg *model.RegulatedCharges) decimal.Decimal {
	if cfg == nil {
		return decimal.Zero
	}
	kwh, days = normalize(kwh, days)

	switch energy {
	case model.Electricity:
		if cfg.Electricity == nil {
			return decimal.Zero
		}
		return electricityCharge(kwh, days, cfg.Electricity)
	case model.Gas:
		if cfg.Gas == nil {
			return decimal.Zero
		}
		return gasCharge(kwh, days, cfg.Gas)
	default:
		return decimal.Zero
	}
}

func electricityCharge(kwh decimal.Decimal, days int, c *model.ElectricityCharges) decimal.Decimal {
	d := decimal.NewFromInt(int64(days))

	admie := orDefault(c.ADMIEUnitRate, DefaultADMIEUnitRate).Mul(kwh).Add(admieFixedAdder)
	deddie := orDefault(c.DEDDIEEnergyRate, DefaultDEDDIEEnergyRate).Mul(kwh).
		Add(orDefault(c.DEDDIEPowerRate, DefaultDEDDIEPowerRate).Mul(assumedCapacityKVA).Mul(d).Div(daysPerYear))
	etmear := orDefault(c.ETMEARRate, DefaultETMEARRate).Mul(kwh)
	yko := ProgressiveCharge(kwh, days, c.Tiers)

	return admie.Add(deddie).Add(etmear).Add(yko)
}

func gasCharge(kwh decimal.Decimal, days int, c *model.GasCharges) decimal.Decimal {
	d := decimal.NewFromInt(int64(days))

	fixed := orDefault(c.FixedNetworkPerMonth, DefaultGasFixedNetworkPerMonth).Mul(d).Div(daysPerMonth)
	variable := orDefault(c.VariableNetworkPerKWh, DefaultGasVariableNetworkPerKWh).Mul(kwh)
	etd := orDefault(c.ETDPerKWh, DefaultGasETDPerKWh).Mul(kwh)
	eph := orDefault(c.EPHPerKWh, DefaultGasEPHPerKWh).Mul(kwh)

	return fixed.Add(variable).Add(etd).Add(eph)
}

// VATRate returns the VAT applied to the subtotal of an energy type.
// It is DefaultVAT whenever the catalog does not state one.
func VATRate(energy model.EnergyType, cfg *model.RegulatedCharges) decimal.Decimal {
	if cfg == nil {
		return DefaultVAT
	}
	switch energy {
	case model.Electricity:
		if cfg.Electricity != nil {
			return orDefault(cfg.Electricity.VAT, DefaultVAT)
		}
	case model.Gas:
		if cfg.Gas != nil {
			return orDefault(cfg.Gas.VAT, DefaultVAT)
		}
	}
	return DefaultVAT
}

func orDefault(v decimal.NullDecimal, def decimal.Decimal) decimal.Decimal {
	if v.Valid {
		return v.Decimal
	}
	return def
}

// normalize clamps negative consumption to zero and replaces a non-positive period with the default.
func normalize(kwh decimal.Decimal, days int) (decimal.Decimal, int) {
	if kwh.IsNegative() {
		kwh = decimal.Zero
	}
	if days <= 0 {
		days = model.DefaultBillingDays
	}
	return kwh, days
}
