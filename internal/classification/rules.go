package classification

import (
	"math"
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-watts-must-flow/internal/model"
)

// Thresholds used by the heuristics.
var (
	// Natural gas bills list Nm3 next to kWh; the calorific conversion is about 11.5.
	gasRatioMin = decimal.RequireFromString("10.5")
	gasRatioMax = decimal.RequireFromString("12.5")

	// Gas consumption candidates must stay below this to skip account numbers and totals.
	gasFallbackCeiling = decimal.NewFromInt(5000)

	// Typical residential monthly electricity range, both ends exclusive.
	electricityRangeMin = decimal.NewFromInt(50)
	electricityRangeMax = decimal.NewFromInt(3000)

	maxKWh = decimal.NewFromInt(math.MaxInt64)
)

var totalConsumptionPattern = regexp.MustCompile(`(?s)(?:Σύνολο Κατανάλωσης|(?i:total consumption)).*?(\d+)`)

// Evidence is everything a rule may look at.
type Evidence struct {
	text     searchText
	Numbers  []decimal.Decimal
	HasGas   bool
	HasPower bool
}

// NewEvidence prepares the evidence for a document.
func NewEvidence(text string, numbers []decimal.Decimal) *Evidence {
	st := newSearchText(text)
	return &Evidence{
		text:     st,
		Numbers:  numbers,
		HasGas:   st.containsAny(energyKeywords[model.Gas]),
		HasPower: st.containsAny(energyKeywords[model.Electricity]),
	}
}

// Decision is a committed energy type and consumption.
type Decision struct {
	EnergyType     model.EnergyType
	ConsumptionKWh int64
}

// Rule is one heuristic in the classification cascade.
// Decide returns false when the rule has no opinion about the document.
type Rule interface {
	Name() string
	Decide(ev *Evidence) (Decision, bool)
}

// DefaultRules returns the heuristics in priority order.
func DefaultRules() []Rule {
	return []Rule{
		gasByArithmetic{},
		keywordRule{name: "gas-keywords", gas: true, power: false, decide: model.Gas},
		keywordRule{name: "electricity-keywords", gas: false, power: true, decide: model.Electricity},
		keywordRule{name: "ambiguous-keywords", gas: true, power: true, decide: model.Electricity},
		keywordRule{name: "default-electricity", gas: false, power: false, decide: model.Electricity},
	}
}

// gasByArithmetic commits to gas when two adjacent figures look like an Nm3 -> kWh conversion.
type gasByArithmetic struct{}

func (gasByArithmetic) Name() string { return "gas-arithmetic" }

func (gasByArithmetic) Decide(ev *Evidence) (Decision, bool) {
	one := decimal.NewFromInt(1)
	for i := 0; i+1 < len(ev.Numbers); i++ {
		n1, n2 := ev.Numbers[i], ev.Numbers[i+1]
		if !n1.GreaterThan(one) {
			continue
		}
		ratio := n2.Div(n1)
		if !ratio.GreaterThan(gasRatioMin) || !ratio.LessThan(gasRatioMax) {
			continue
		}
		if kwh, ok := wholeKWh(n2); ok {
			return Decision{EnergyType: model.Gas, ConsumptionKWh: kwh}, true
		}
	}
	return Decision{}, false
}

// keywordRule is one row of the keyword decision table.
type keywordRule struct {
	name   string
	decide model.EnergyType
	gas    bool
	power  bool
}

func (r keywordRule) Name() string { return r.name }

func (r keywordRule) Decide(ev *Evidence) (Decision, bool) {
	if ev.HasGas != r.gas || ev.HasPower != r.power {
		return Decision{}, false
	}
	if r.decide == model.Gas {
		return Decision{EnergyType: model.Gas, ConsumptionKWh: gasConsumption(ev)}, true
	}
	return Decision{EnergyType: model.Electricity, ConsumptionKWh: electricityConsumption(ev)}, true
}

// gasConsumption picks the largest figure below the gas ceiling.
func gasConsumption(ev *Evidence) int64 {
	best, ok := maxWhere(ev.Numbers, func(v decimal.Decimal) bool {
		return v.LessThan(gasFallbackCeiling)
	})
	if !ok {
		return 0
	}
	kwh, _ := wholeKWh(best)
	return kwh
}

// electricityConsumption prefers an explicit total label, then the largest plausible figure.
func electricityConsumption(ev *Evidence) int64 {
	if m := totalConsumptionPattern.FindStringSubmatch(ev.text.raw); m != nil {
		if v, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			return v
		}
	}
	best, ok := maxWhere(ev.Numbers, func(v decimal.Decimal) bool {
		return v.GreaterThan(electricityRangeMin) && v.LessThan(electricityRangeMax)
	})
	if !ok {
		return 0
	}
	kwh, _ := wholeKWh(best)
	return kwh
}

// wholeKWh truncates a figure to whole kWh. Figures that are negative or do not fit
// in an int64 are rejected.
func wholeKWh(v decimal.Decimal) (int64, bool) {
	if v.IsNegative() || v.GreaterThan(maxKWh) {
		return 0, false
	}
	return v.IntPart(), true
}

func maxWhere(values []decimal.Decimal, keep func(decimal.Decimal) bool) (decimal.Decimal, bool) {
	var best decimal.Decimal
	found := false
	for _, v := range values {
		if !keep(v) {
			continue
		}
		if !found || v.GreaterThan(best) {
			best = v
			found = true
		}
	}
	return best, found
}
