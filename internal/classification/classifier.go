package classification

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/Veraticus/the-watts-must-flow/internal/common"
	"github.com/Veraticus/the-watts-must-flow/internal/model"
	"github.com/Veraticus/the-watts-must-flow/internal/numeric"
)

var billingDaysPattern = regexp.MustCompile(`(?i)(?:ΗΜΕΡΕΣ|DAYS).*?(\d{2,3})`)

// Classifier runs the bill heuristics over extracted document text.
type Classifier struct {
	logger    *slog.Logger
	providers []ProviderKeywords
	rules     []Rule
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Classifier) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithExtraProviders appends provider keyword sets after the built-in table.
func WithExtraProviders(providers ...ProviderKeywords) Option {
	return func(c *Classifier) {
		c.providers = append(c.providers, providers...)
	}
}

// WithRules replaces the heuristic cascade.
func WithRules(rules ...Rule) Option {
	return func(c *Classifier) {
		c.rules = rules
	}
}

// NewClassifier creates a classifier with the built-in provider table and rules.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		logger:    slog.Default(),
		providers: DefaultProviders(),
		rules:     DefaultRules(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify decides energy type, provider, consumption and billing days for a document.
// Only text with nothing usable in it is an error; every other input yields a result.
func (c *Classifier) Classify(text string) (model.ClassificationResult, error) {
	if strings.TrimSpace(text) == "" {
		return model.ClassificationResult{}, common.NewInputError("", common.ErrEmptyDocument)
	}

	ev := NewEvidence(text, numeric.Collect(text))

	result := model.ClassificationResult{
		EnergyType:       model.Electricity,
		ProviderDetected: detectProvider(ev.text, c.providers),
		BillingDays:      billingDays(text),
	}

	for _, rule := range c.rules {
		decision, ok := rule.Decide(ev)
		if !ok {
			continue
		}
		result.EnergyType = decision.EnergyType
		result.ConsumptionKWh = decision.ConsumptionKWh
		result.DecidedBy = rule.Name()
		break
	}

	c.logger.Debug("Classified bill",
		"energy_type", result.EnergyType,
		"provider", result.ProviderDetected,
		"consumption_kwh", result.ConsumptionKWh,
		"billing_days", result.BillingDays,
		"rule", result.DecidedBy,
		"numbers", len(ev.Numbers),
		"gas_keywords", ev.HasGas,
		"electricity_keywords", ev.HasPower)

	return result, nil
}

// billingDays reads the billing period length, defaulting when absent or unusable.
func billingDays(text string) int {
	m := billingDaysPattern.FindStringSubmatch(text)
	if m == nil {
		return model.DefaultBillingDays
	}
	days, err := strconv.Atoi(m[1])
	if err != nil || days <= 0 {
		return model.DefaultBillingDays
	}
	return days
}
