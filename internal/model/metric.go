package model

import (
	"fmt"
	"time"

	"github.com/guregu/null/v6"
)

// Metric holds the derived indicators for one symbol on one day.
// Derived fields are null when the trailing window is not fully available.
type Metric struct {
	Symbol              string
	Date                time.Time
	Close               float64
	PreviousCloseChange null.Float
	MovingAverage       null.Float
	Volatility          null.Float
	Momentum            null.Float
}

// Complete reports whether every derived field is populated.
func (m Metric) Complete() bool {
	return m.PreviousCloseChange.Valid && m.MovingAverage.Valid && m.Volatility.Valid && m.Momentum.Valid
}

// Equal compares two metrics field by field.
func (m Metric) Equal(o Metric) bool {
	return m.Symbol == o.Symbol &&
		m.Date.Equal(o.Date) &&
		m.Close == o.Close &&
		m.PreviousCloseChange.Equal(o.PreviousCloseChange) &&
		m.MovingAverage.Equal(o.MovingAverage) &&
		m.Volatility.Equal(o.Volatility) &&
		m.Momentum.Equal(o.Momentum)
}

// DateRange is an inclusive span of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether d falls inside the range, bounds included.
func (r DateRange) Contains(d time.Time) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

func (r DateRange) String() string {
	return fmt.Sprintf("%s - %s", r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))
}
