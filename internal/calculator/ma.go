package calculator

import (
	"errors"
)

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// CalculateCloseChange returns the difference between the last two prices.
func CalculateCloseChange(prices []float64) (float64, error) {
	n := len(prices)
	if n < 2 {
		return 0, errors.New("not enough data for close change")
	}
	return prices[n-1] - prices[n-2], nil
}
