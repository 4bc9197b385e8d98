// Package dates holds the calendar-day arithmetic used when reconciling
// cached metrics against upstream history. All days are UTC midnights.
package dates

import (
	"errors"
	"fmt"
	"time"

	"StockInfo/internal/model"
)

// Layout is the wire format for a calendar day.
const Layout = "2006-01-02"

var (
	ErrInvalidDate  = errors.New("date must be in the format (YYYY-MM-DD)")
	ErrInvalidRange = errors.New("invalid date range")
)

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Yesterday returns the most recently completed day relative to now.
func Yesterday(now time.Time) time.Time {
	return PastDate(now, 1)
}

// PastDate returns the day n days before now.
func PastDate(now time.Time, n int) time.Time {
	return Day(now).AddDate(0, 0, -n)
}

// AddDays shifts a day by n (negative moves back).
func AddDays(d time.Time, n int) time.Time {
	return Day(d).AddDate(0, 0, n)
}

// DaysBetween counts whole days from a to b; negative when b is before a.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// EachDay lists every day in [from, to], ascending. Empty when from > to.
func EachDay(from, to time.Time) []time.Time {
	from, to = Day(from), Day(to)
	if from.After(to) {
		return nil
	}
	out := make([]time.Time, 0, DaysBetween(from, to)+1)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// Parse reads a YYYY-MM-DD day.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// ParseOptional is Parse that maps an empty string to nil.
func ParseOptional(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := Parse(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Format renders a day as YYYY-MM-DD.
func Format(d time.Time) string {
	return d.Format(Layout)
}

// VerifyRange fills missing bounds with minStart/maxEnd and rejects ranges
// that fall outside them or are inverted.
func VerifyRange(start, end *time.Time, minStart, maxEnd time.Time) (model.DateRange, error) {
	s, e := Day(minStart), Day(maxEnd)
	if start != nil {
		s = Day(*start)
	}
	if end != nil {
		e = Day(*end)
	}
	switch {
	case s.Before(Day(minStart)):
		return model.DateRange{}, fmt.Errorf("%w: start date cannot be earlier than %s", ErrInvalidRange, Format(minStart))
	case e.After(Day(maxEnd)):
		return model.DateRange{}, fmt.Errorf("%w: end date cannot be later than %s", ErrInvalidRange, Format(maxEnd))
	case s.After(e):
		return model.DateRange{}, fmt.Errorf("%w: start date %s must come before the end date %s", ErrInvalidRange, Format(s), Format(e))
	}
	return model.DateRange{Start: s, End: e}, nil
}
