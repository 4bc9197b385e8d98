package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"
)

// WarmupLine is the outcome for one watchlist symbol.
type WarmupLine struct {
	Symbol  string
	State   string
	Metrics int
	Err     error
}

// FormatWarmup renders a warm-up run as a Telegram HTML message.
func FormatWarmup(at time.Time, lines []WarmupLine) string {
	ok := 0
	for _, l := range lines {
		if l.Err == nil {
			ok++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>StockInfo warm-up %s</b>\n", at.UTC().Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "%d/%d symbol(s) ready\n", ok, len(lines))
	for _, l := range lines {
		if l.Err != nil {
			fmt.Fprintf(&b, "\n❌ %s: %s", html.EscapeString(l.Symbol), html.EscapeString(l.Err.Error()))
			continue
		}
		fmt.Fprintf(&b, "\n✅ %s: %s, %d metric(s)", html.EscapeString(l.Symbol), l.State, l.Metrics)
	}
	return b.String()
}
