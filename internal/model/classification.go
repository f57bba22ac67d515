package model

// ClassificationResult is what the bill classifier decided about one document.
// A new document always produces a new result; results are never mutated.
type ClassificationResult struct {
	EnergyType       EnergyType `json:"energy_type"`
	ProviderDetected string     `json:"provider_detected"`
	DecidedBy        string     `json:"decided_by"` // name of the rule that committed the energy type
	ConsumptionKWh   int64      `json:"total_consumption_kwh"`
	BillingDays      int        `json:"billing_days"`
}

// HasDetectedProvider reports whether a provider keyword set matched.
func (r ClassificationResult) HasDetectedProvider() bool {
	return r.ProviderDetected != "" && r.ProviderDetected != UnknownProvider
}
