// Package classification decides what a utility bill is for and how much was consumed.
package classification

import (
	"strings"

	"github.com/Veraticus/the-watts-must-flow/internal/model"
)

// Keyword is a literal marker searched for in bill text.
// FoldCase keywords are compared against the upper-cased text.
type Keyword struct {
	Text     string `yaml:"text"`
	FoldCase bool   `yaml:"fold_case"`
}

// ProviderKeywords maps a provider name to the markers that identify its bills.
type ProviderKeywords struct {
	Name     string    `yaml:"name"`
	Keywords []Keyword `yaml:"keywords"`
}

// DefaultProviders returns the built-in provider table in priority order.
// A document matching several sets resolves to the earliest one.
func DefaultProviders() []ProviderKeywords {
	return []ProviderKeywords{
		{Name: "Zenith", Keywords: []Keyword{{Text: "Zeni"}, {Text: "Zenith"}}},
		{Name: "Protergia", Keywords: []Keyword{{Text: "Protergia"}}},
		{Name: "DEI", Keywords: []Keyword{{Text: "DEI"}, {Text: "ΔΕΗ"}}},
		{Name: "Enerwave", Keywords: []Keyword{{Text: "Enerwave"}}},
		{Name: "Fysiko Aerio", Keywords: []Keyword{{Text: "ΦΥΣΙΚΟ ΑΕΡΙΟ"}}},
	}
}

// energyKeywords holds the two disjoint vocabularies used by the keyword fallback.
var energyKeywords = map[model.EnergyType][]Keyword{
	model.Gas: {
		{Text: "Nm3"},
		{Text: "θερμογόνος"},
	},
	model.Electricity: {
		{Text: "kVA"},
		{Text: "ΔΕΔΔΗΕ"},
		{Text: "ΑΔΜΗΕ"},
		{Text: "ΗΛΕΚΤΡΙΣΜΟΣ", FoldCase: true},
	},
}

// searchText carries a document's text and its upper-cased form.
type searchText struct {
	raw   string
	upper string
}

func newSearchText(text string) searchText {
	return searchText{raw: text, upper: strings.ToUpper(text)}
}

func (s searchText) contains(k Keyword) bool {
	if k.Text == "" {
		return false
	}
	if k.FoldCase {
		return strings.Contains(s.upper, strings.ToUpper(k.Text))
	}
	return strings.Contains(s.raw, k.Text)
}

func (s searchText) containsAny(keywords []Keyword) bool {
	for _, k := range keywords {
		if s.contains(k) {
			return true
		}
	}
	return false
}

// detectProvider returns the first provider whose keyword set appears in the text.
func detectProvider(s searchText, providers []ProviderKeywords) string {
	for _, p := range providers {
		if s.containsAny(p.Keywords) {
			return p.Name
		}
	}
	return model.UnknownProvider
}
