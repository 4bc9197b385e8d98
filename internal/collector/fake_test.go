package collector

import (
	"context"
	"sync"
	"testing"
	"time"

	"StockInfo/internal/dates"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestFakeFetcher_InitialHistory(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	f := NewFakeFetcher(120, 42, fixedClock(now))

	records, err := f.FetchDailyHistory(context.Background(), "ibm", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 120 {
		t.Fatalf("expected 120 records, got %d", len(records))
	}
	for i := 1; i < len(records); i++ {
		if dates.DaysBetween(records[i-1].Date, records[i].Date) != 1 {
			t.Fatalf("expected consecutive days at %d: %s -> %s", i, records[i-1].Date, records[i].Date)
		}
	}
	if !records[len(records)-1].Date.Equal(dates.Yesterday(now)) {
		t.Errorf("expected last record yesterday, got %s", records[len(records)-1].Date)
	}
	for _, r := range records {
		if r.Low > r.Close || r.Close > r.High || r.Volume < 1_000_000 {
			t.Fatalf("implausible record %+v", r)
		}
	}
}

func TestFakeFetcher_TrimAndStable(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	f := NewFakeFetcher(60, 7, fixedClock(now))
	ctx := context.Background()

	all, _ := f.FetchDailyHistory(ctx, "AAPL", 60)
	tail, err := f.FetchDailyHistory(ctx, "AAPL", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tail) != 10 {
		t.Fatalf("expected 10 records, got %d", len(tail))
	}
	for i, r := range tail {
		if r != all[50+i] {
			t.Fatalf("expected repeat fetch to return identical history at %d", i)
		}
	}
}

func TestFakeFetcher_RollDaily(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	f := NewFakeFetcher(30, 3, func() time.Time { return clock })
	ctx := context.Background()
	if _, err := f.FetchDailyHistory(ctx, "IBM", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if added := f.RollDaily(now); added != 0 {
		t.Errorf("expected no records on the same day, got %d", added)
	}
	if added := f.RollDaily(now.Add(48 * time.Hour)); added != 2 {
		t.Errorf("expected 2 records after two days, got %d", added)
	}

	clock = now.Add(48 * time.Hour)
	records, _ := f.FetchDailyHistory(ctx, "IBM", 0)
	if len(records) != 32 {
		t.Errorf("expected 32 records, got %d", len(records))
	}
	if got := dates.Format(records[len(records)-1].Date); got != "2025-03-02" {
		t.Errorf("expected last 2025-03-02, got %s", got)
	}
}

func TestFakeFetcher_CatchesUpOnFetch(t *testing.T) {
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	f := NewFakeFetcher(30, 3, func() time.Time { return clock })
	ctx := context.Background()
	f.FetchDailyHistory(ctx, "IBM", 0)

	clock = clock.AddDate(0, 0, 3)
	records, _ := f.FetchDailyHistory(ctx, "IBM", 0)
	if got := dates.Format(records[len(records)-1].Date); got != "2025-03-03" {
		t.Errorf("expected fetch to extend to yesterday, got %s", got)
	}
}

func TestFakeFetcher_BlankSymbol(t *testing.T) {
	f := NewFakeFetcher(30, 1, nil)
	_, err := f.FetchDailyHistory(context.Background(), "  ", 10)
	ue, ok := AsUpstream(err)
	if !ok || ue.Class != ClassClient {
		t.Fatalf("expected client-class error, got %v", err)
	}
}

func TestFakeFetcher_Close(t *testing.T) {
	f := NewFakeFetcher(30, 1, nil)
	f.FetchDailyHistory(context.Background(), "IBM", 10)
	f.FetchDailyHistory(context.Background(), "AAPL", 10)
	if got := f.Symbols(); len(got) != 2 || got[0] != "AAPL" {
		t.Errorf("unexpected symbols %v", got)
	}
	f.Close()
	if got := f.Symbols(); len(got) != 0 {
		t.Errorf("expected no symbols after Close, got %v", got)
	}
}

func TestFakeFetcher_Concurrent(t *testing.T) {
	f := NewFakeFetcher(50, 9, nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.FetchDailyHistory(context.Background(), "IBM", 20); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			f.RollDaily(time.Now())
		}()
	}
	wg.Wait()
	if got := f.Symbols(); len(got) != 1 {
		t.Errorf("expected a single generated history, got %v", got)
	}
}
