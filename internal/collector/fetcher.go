// Package collector fetches ascending daily price history from upstream
// sources.
package collector

import (
	"context"

	"StockInfo/internal/model"
)

// Fetcher retrieves raw daily records for a symbol.
type Fetcher interface {
	// FetchDailyHistory returns up to count records ending at the latest
	// completed day, sorted ascending by date.
	FetchDailyHistory(ctx context.Context, symbol string, count int) ([]model.RawRecord, error)
	Name() string
}

func trimTail(records []model.RawRecord, count int) []model.RawRecord {
	if count > 0 && len(records) > count {
		return records[len(records)-count:]
	}
	return records
}
