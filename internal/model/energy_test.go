package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnergyType(t *testing.T) {
	tests := []struct {
		input   string
		want    EnergyType
		wantErr bool
	}{
		{input: "electricity", want: Electricity},
		{input: " Gas ", want: Gas},
		{input: "ELEC", want: Electricity},
		{input: "water", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseEnergyType(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSegment(t *testing.T) {
	got, err := ParseSegment("Business")
	require.NoError(t, err)
	assert.Equal(t, Business, got)

	got, err = ParseSegment("")
	require.NoError(t, err)
	assert.Equal(t, Residential, got)

	_, err = ParseSegment("industrial")
	assert.Error(t, err)
}

func TestProviderOffer_EffectivePrice(t *testing.T) {
	offer := ProviderOffer{
		PricePerKWh:      decimal.RequireFromString("0.150"),
		DiscountFraction: decimal.RequireFromString("0.20"),
	}
	assert.True(t, offer.EffectivePrice().Equal(decimal.RequireFromString("0.12")))

	offer.DiscountFraction = decimal.Zero
	assert.True(t, offer.EffectivePrice().Equal(offer.PricePerKWh))
}

func TestClassificationResult_HasDetectedProvider(t *testing.T) {
	assert.False(t, ClassificationResult{ProviderDetected: UnknownProvider}.HasDetectedProvider())
	assert.False(t, ClassificationResult{}.HasDetectedProvider())
	assert.True(t, ClassificationResult{ProviderDetected: "DEI"}.HasDetectedProvider())
}
