// Package report shapes computed metrics into the public response.
package report

import (
	"sort"

	"StockInfo/internal/model"
)

// Assemble keeps metrics inside rng, orders them most recent first and
// truncates to limit (no truncation when limit <= 0). The input is not
// modified.
func Assemble(metrics []model.Metric, rng model.DateRange, limit int) []model.Metric {
	out := make([]model.Metric, 0, len(metrics))
	for _, m := range metrics {
		if rng.Contains(m.Date) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
