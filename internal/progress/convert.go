package progress

import (
	"fmt"
	"math"

	"github.com/claude/liftlog/internal/models"
)

// LbPerKg is the kilogram to pound factor used for every conversion.
const LbPerKg = 2.20462

// ConversionFactor returns the multiplier that takes a weight from one unit to another.
func ConversionFactor(from, to models.Unit) (float64, error) {
	if !from.Valid() {
		return 0, fmt.Errorf("unsupported unit %q", from)
	}
	if !to.Valid() {
		return 0, fmt.Errorf("unsupported unit %q", to)
	}
	switch {
	case from == to:
		return 1, nil
	case from == models.UnitKg:
		return LbPerKg, nil
	default:
		return 1 / LbPerKg, nil
	}
}

// ConvertWeight converts w and rounds the result to two decimals.
func ConvertWeight(w float64, from, to models.Unit) (float64, error) {
	f, err := ConversionFactor(from, to)
	if err != nil {
		return 0, err
	}
	return Round2(w * f), nil
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
