// Package calculator derives rolling-window metrics from an ascending daily
// price history.
package calculator

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"StockInfo/internal/dates"
	"StockInfo/internal/model"
)

// ErrDateNotFound is returned when the target day is absent from the history.
var ErrDateNotFound = errors.New("date not found in history")

// Outcome classifies a single evaluation.
type Outcome int

const (
	OutcomeNotFound Outcome = iota
	OutcomeInsufficientHistory
	OutcomeComputed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNotFound:
		return "not_found"
	case OutcomeInsufficientHistory:
		return "insufficient_history"
	case OutcomeComputed:
		return "computed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the outcome of Evaluate. Metric is zero for OutcomeNotFound.
type Result struct {
	Outcome Outcome
	Metric  model.Metric
}

// Builder holds the window lengths used for every metric.
type Builder struct {
	MovingAveragePeriod int
	VolatilityPeriod    int
	MomentumPeriod      int
}

// DefaultBuilder uses 30/7/14 day windows.
func DefaultBuilder() Builder {
	return Builder{MovingAveragePeriod: 30, VolatilityPeriod: 7, MomentumPeriod: 14}
}

// Validate rejects non-positive windows.
func (b Builder) Validate() error {
	if b.MovingAveragePeriod <= 0 || b.VolatilityPeriod <= 0 || b.MomentumPeriod <= 0 {
		return fmt.Errorf("calculation periods must be positive, got MA=%d V=%d M=%d",
			b.MovingAveragePeriod, b.VolatilityPeriod, b.MomentumPeriod)
	}
	return nil
}

// LongestWindow is the number of records ending at the target day needed for
// every metric to be populated.
func (b Builder) LongestWindow() int {
	return max(b.MovingAveragePeriod, b.VolatilityPeriod+1, b.MomentumPeriod+1)
}

// Evaluate computes the metric for date against history, which must be
// sorted ascending by date with unique dates.
func (b Builder) Evaluate(date time.Time, history []model.RawRecord) Result {
	i := IndexOfDate(history, date)
	if i < 0 {
		return Result{Outcome: OutcomeNotFound}
	}

	start := max(0, i-b.LongestWindow()+1)
	closes := model.Closes(history[start : i+1])

	m := model.Metric{
		Symbol:              history[i].Symbol,
		Date:                history[i].Date,
		Close:               Round2(history[i].Close),
		PreviousCloseChange: roundedOrNull(CalculateCloseChange(closes)),
		MovingAverage:       roundedOrNull(CalculateSMA(closes, b.MovingAveragePeriod)),
		Volatility:          roundedOrNull(CalculateVolatility(closes, b.VolatilityPeriod)),
		Momentum:            roundedOrNull(CalculateMomentum(closes, b.MomentumPeriod)),
	}
	if !m.Complete() {
		return Result{Outcome: OutcomeInsufficientHistory, Metric: m}
	}
	return Result{Outcome: OutcomeComputed, Metric: m}
}

// CalculateMetrics is Evaluate with OutcomeNotFound mapped to ErrDateNotFound.
func (b Builder) CalculateMetrics(date time.Time, history []model.RawRecord) (model.Metric, error) {
	res := b.Evaluate(date, history)
	if res.Outcome == OutcomeNotFound {
		return model.Metric{}, fmt.Errorf("%w: %s", ErrDateNotFound, dates.Format(date))
	}
	return res.Metric, nil
}

// IndexOfDate binary-searches an ascending history for the given day.
// Returns -1 when absent.
func IndexOfDate(history []model.RawRecord, date time.Time) int {
	day := dates.Day(date)
	i := sort.Search(len(history), func(k int) bool {
		return !history[k].Date.Before(day)
	})
	if i < len(history) && history[i].Date.Equal(day) {
		return i
	}
	return -1
}
