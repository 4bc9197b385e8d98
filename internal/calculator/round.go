package calculator

import (
	"math"

	"github.com/guregu/null/v6"
)

// Round2 rounds to two decimals, halves going up.
func Round2(x float64) float64 {
	return math.Floor(x*100+0.5) / 100
}

func roundedOrNull(v float64, err error) null.Float {
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return null.Float{}
	}
	return null.FloatFrom(Round2(v))
}
