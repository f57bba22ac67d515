// Package model defines the core domain models used throughout the application.
package model

import (
	"fmt"
	"strings"
)

// EnergyType is the commodity a bill or an offer is for.
type EnergyType string

// Energy type constants.
const (
	Electricity EnergyType = "electricity"
	Gas         EnergyType = "gas"
)

// EnergyTypes lists every supported energy type in display order.
var EnergyTypes = []EnergyType{Electricity, Gas}

// ParseEnergyType converts user input such as "gas" or "Electricity" into an EnergyType.
func ParseEnergyType(s string) (EnergyType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "electricity", "elec", "power":
		return Electricity, nil
	case "gas", "natural-gas":
		return Gas, nil
	default:
		return "", fmt.Errorf("unknown energy type %q", s)
	}
}

// Segment is the customer class an offer is sold to.
type Segment string

// Segment constants.
const (
	Residential Segment = "residential"
	Business    Segment = "business"
)

// ParseSegment converts user input into a Segment.
func ParseSegment(s string) (Segment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "residential", "home", "":
		return Residential, nil
	case "business", "commercial":
		return Business, nil
	default:
		return "", fmt.Errorf("unknown segment %q", s)
	}
}

// DefaultBillingDays is used whenever a billing period length is missing or unusable.
const DefaultBillingDays = 30

// UnknownProvider is the provider name reported when no keyword set matched.
const UnknownProvider = "Unknown"
