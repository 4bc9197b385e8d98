package dates

import (
	"log"
	"strings"
	"time"

	"github.com/scmhub/calendar"
)

// Calendar decides which calendar days carry a daily record.
type Calendar interface {
	IsSession(day time.Time) bool
	Name() string
}

// Daily treats every calendar day as a session. It matches sources that
// publish a record for every day, such as the in-memory fake.
type Daily struct{}

func (Daily) IsSession(time.Time) bool { return true }
func (Daily) Name() string             { return "daily" }

// Exchange follows an exchange's trading sessions via scmhub/calendar.
type Exchange struct {
	mic      string
	cal      *calendar.Calendar
	loc      *time.Location
	fallback bool
}

// NewExchange loads the calendar for a MIC code (e.g. "xnys"). Unknown codes
// fall back to NYSE and then to a plain Mon-Fri rule.
func NewExchange(mic string) *Exchange {
	mic = strings.ToLower(strings.TrimSpace(mic))
	if mic == "" {
		mic = "xnys"
	}
	cal := calendar.GetCalendar(mic)
	if cal == nil {
		log.Printf("[WARN] no trading calendar for %q, trying xnys", mic)
		cal = calendar.GetCalendar("xnys")
	}
	if cal == nil {
		log.Printf("[WARN] trading calendar unavailable, using Mon-Fri fallback")
		loc, err := time.LoadLocation("America/New_York")
		if err != nil {
			loc = time.UTC
		}
		return &Exchange{mic: mic, loc: loc, fallback: true}
	}
	return &Exchange{mic: mic, cal: cal, loc: cal.Loc}
}

func (e *Exchange) Name() string { return "exchange:" + e.mic }

// IsSession reports whether the exchange traded on the given calendar day.
func (e *Exchange) IsSession(day time.Time) bool {
	y, m, d := Day(day).Date()
	// midday in exchange time keeps the day from shifting across zones
	local := time.Date(y, m, d, 12, 0, 0, 0, e.loc)
	if e.fallback {
		wd := local.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	}
	return e.cal.IsBusinessDay(local)
}

// Sessions lists the session days in [from, to], ascending.
func Sessions(cal Calendar, from, to time.Time) []time.Time {
	days := EachDay(from, to)
	out := days[:0]
	for _, d := range days {
		if cal.IsSession(d) {
			out = append(out, d)
		}
	}
	return out
}

// LastSession returns the latest session on or before day. It looks back at
// most two weeks and returns day itself if none is found.
func LastSession(cal Calendar, day time.Time) time.Time {
	d := Day(day)
	for i := 0; i < 14; i++ {
		if cal.IsSession(d) {
			return d
		}
		d = d.AddDate(0, 0, -1)
	}
	return Day(day)
}
