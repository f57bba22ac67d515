package tariff

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-watts-must-flow/internal/model"
)

// Catalog is the read side of a tariff catalog snapshot.
type Catalog interface {
	Offers(energy model.EnergyType, segment model.Segment) []model.ProviderOffer
	RegulatedCharges() *model.RegulatedCharges
}

// Scenario is one consumption case to price.
type Scenario struct {
	EnergyType       model.EnergyType `json:"energy_type"`
	Segment          model.Segment    `json:"segment"`
	DetectedProvider string           `json:"detected_provider"`
	KWh              decimal.Decimal  `json:"kwh"`
	Days             int              `json:"days"`
}

// Engine prices offers against a scenario.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates a cost engine. A nil logger uses slog.Default().
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Rank prices every offer of the scenario's energy type and segment and orders them with
// the detected provider's offers first, then by ascending total.
// A nil catalog or one without matching offers yields an empty slice.
func (e *Engine) Rank(s Scenario, catalog Catalog) []model.CostBreakdown {
	if catalog == nil {
		return []model.CostBreakdown{}
	}
	offers := catalog.Offers(s.EnergyType, s.Segment)
	regulated := catalog.RegulatedCharges()

	kwh, days := normalize(s.KWh, s.Days)
	regulatedCost := RegulatedCharge(kwh, days, s.EnergyType, regulated)
	vat := VATRate(s.EnergyType, regulated)

	results := make([]model.CostBreakdown, 0, len(offers))
	for _, offer := range offers {
		results = append(results, price(offer, kwh, days, regulatedCost, vat, s.DetectedProvider))
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].IsDetectedProviderMatch != results[j].IsDetectedProviderMatch {
			return results[i].IsDetectedProviderMatch
		}
		return results[i].TotalCost.LessThan(results[j].TotalCost)
	})

	e.logger.Debug("Ranked offers",
		"energy_type", s.EnergyType,
		"segment", s.Segment,
		"kwh", kwh.String(),
		"days", days,
		"offers", len(results),
		"regulated_cost", regulatedCost.StringFixed(2),
		"vat", vat.String())

	return results
}

// Price computes the breakdown of a single offer for a scenario.
func Price(offer model.ProviderOffer, s Scenario, regulated *model.RegulatedCharges) model.CostBreakdown {
	kwh, days := normalize(s.KWh, s.Days)
	return price(offer, kwh, days,
		RegulatedCharge(kwh, days, s.EnergyType, regulated),
		VATRate(s.EnergyType, regulated),
		s.DetectedProvider)
}

func price(offer model.ProviderOffer, kwh decimal.Decimal, days int, regulatedCost, vat decimal.Decimal, detected string) model.CostBreakdown {
	effective := offer.EffectivePrice()
	fixed := offer.MonthlyFixedFee.Mul(decimal.NewFromInt(int64(days))).Div(daysPerMonth)
	energy := kwh.Mul(effective).Add(fixed)
	subtotal := energy.Add(regulatedCost)
	vatAmount := subtotal.Mul(vat)

	return model.CostBreakdown{
		Offer:                   offer,
		EffectivePrice:          effective,
		FixedCost:               fixed,
		EnergyCost:              energy,
		RegulatedCost:           regulatedCost,
		Subtotal:                subtotal,
		VATAmount:               vatAmount,
		TotalCost:               subtotal.Add(vatAmount),
		IsDetectedProviderMatch: MatchesProvider(offer.Name, detected),
	}
}

// MatchesProvider reports whether the detected provider name appears in an offer name,
// ignoring case. An empty or unknown detection matches nothing.
func MatchesProvider(offerName, detected string) bool {
	detected = strings.TrimSpace(detected)
	if detected == "" || detected == model.UnknownProvider {
		return false
	}
	return strings.Contains(strings.ToLower(offerName), strings.ToLower(detected))
}
