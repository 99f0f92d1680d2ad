package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude/liftlog/internal/models"
)

func TestConvertWeight(t *testing.T) {
	tests := []struct {
		name     string
		weight   float64
		from, to models.Unit
		want     float64
	}{
		{name: "kg to lb", weight: 100, from: models.UnitKg, to: models.UnitLb, want: 220.46},
		{name: "lb to kg", weight: 220.46, from: models.UnitLb, to: models.UnitKg, want: 100},
		{name: "lb to kg plate", weight: 45, from: models.UnitLb, to: models.UnitKg, want: 20.41},
		{name: "same unit", weight: 62.5, from: models.UnitKg, to: models.UnitKg, want: 62.5},
		{name: "small", weight: 1.25, from: models.UnitKg, to: models.UnitLb, want: 2.76},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConvertWeight(tt.weight, tt.from, tt.to)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestConversionFactorRejectsUnknownUnit(t *testing.T) {
	_, err := ConversionFactor(models.UnitKg, "mass-stone")
	assert.Error(t, err)
	_, err = ConvertWeight(10, "", models.UnitLb)
	assert.Error(t, err)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 220.46, Round2(220.462))
	assert.Equal(t, 0.01, Round2(0.005))
	assert.Equal(t, 93.33, Round2(Estimate1RM(80, 5)))
}
