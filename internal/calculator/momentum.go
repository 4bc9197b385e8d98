package calculator

import (
	"errors"
)

// CalculateMomentum returns the relative change between the last price and
// the price period steps before it. Requires period+1 prices.
func CalculateMomentum(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	n := len(prices)
	if n < period+1 {
		return 0, errors.New("not enough data for momentum calculation")
	}
	base := prices[n-1-period]
	if base == 0 {
		return 0, errors.New("zero base price for momentum")
	}
	return (prices[n-1] - base) / base, nil
}
