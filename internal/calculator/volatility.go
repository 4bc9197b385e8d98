package calculator

import (
	"errors"
	"math"
)

// DailyReturns turns n prices into n-1 simple returns (p[j]-p[j-1])/p[j-1].
func DailyReturns(prices []float64) ([]float64, error) {
	if len(prices) < 2 {
		return nil, errors.New("need at least two prices for returns")
	}
	returns := make([]float64, len(prices)-1)
	for j := 1; j < len(prices); j++ {
		prev := prices[j-1]
		if prev == 0 {
			return nil, errors.New("zero price in return window")
		}
		returns[j-1] = (prices[j] - prev) / prev
	}
	return returns, nil
}

// PopulationStdDev is the standard deviation dividing by len(values).
func PopulationStdDev(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, errors.New("no values for standard deviation")
	}
	n := float64(len(values))
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= n
	sq := 0.0
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / n), nil
}

// CalculateVolatility returns the population standard deviation of the
// last period daily returns. Requires period+1 prices.
func CalculateVolatility(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period+1 {
		return 0, errors.New("not enough data for volatility calculation")
	}
	returns, err := DailyReturns(prices[len(prices)-period-1:])
	if err != nil {
		return 0, err
	}
	return PopulationStdDev(returns)
}
