// Package numeric finds currency and consumption figures in bill text.
package numeric

import (
	"iter"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// tokenPattern matches figures with exactly two decimal places, using either
// comma or period as the separator. Dates, IDs and percentages do not match.
var tokenPattern = regexp.MustCompile(`\d+[.,]\d{2}`)

// Tokens lazily yields every figure in text, in document order.
// Tokens that fail decimal conversion are skipped.
func Tokens(text string) iter.Seq[decimal.Decimal] {
	return func(yield func(decimal.Decimal) bool) {
		offset := 0
		for offset < len(text) {
			loc := tokenPattern.FindStringIndex(text[offset:])
			if loc == nil {
				return
			}
			raw := text[offset+loc[0] : offset+loc[1]]
			offset += loc[1]

			value, ok := parse(raw)
			if !ok {
				continue
			}
			if !yield(value) {
				return
			}
		}
	}
}

// Collect returns all figures in text as a slice, preserving order.
func Collect(text string) []decimal.Decimal {
	var out []decimal.Decimal
	for v := range Tokens(text) {
		out = append(out, v)
	}
	return out
}

func parse(raw string) (decimal.Decimal, bool) {
	value, err := decimal.NewFromString(strings.Replace(raw, ",", ".", 1))
	if err != nil {
		return decimal.Zero, false
	}
	return value, true
}
