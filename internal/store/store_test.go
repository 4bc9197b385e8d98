package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/guregu/null/v6"

	"StockInfo/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func metricOn(symbol string, d time.Time, price float64) model.Metric {
	return model.Metric{
		Symbol:              symbol,
		Date:                d,
		Close:               price,
		PreviousCloseChange: null.FloatFrom(1),
		MovingAverage:       null.FloatFrom(price - 10),
		Volatility:          null.Float{},
		Momentum:            null.FloatFrom(0.1),
	}
}

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	empty, err := s.QueryLastN(ctx, "IBM", 5)
	if err != nil {
		t.Fatalf("query empty: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty result, got %d", len(empty))
	}

	start := day(2025, 1, 1)
	for i := 0; i < 10; i++ {
		if err := s.Put(ctx, metricOn("IBM", start.AddDate(0, 0, i), 100+float64(i))); err != nil {
			t.Fatalf("put %d: %v", i, err)
		}
	}
	if err := s.Put(ctx, metricOn("AAPL", start, 50)); err != nil {
		t.Fatalf("put other symbol: %v", err)
	}

	last, err := s.QueryLastN(ctx, "IBM", 3)
	if err != nil {
		t.Fatalf("query last: %v", err)
	}
	if len(last) != 3 {
		t.Fatalf("expected 3 metrics, got %d", len(last))
	}
	if !last[0].Date.Equal(day(2025, 1, 8)) || !last[2].Date.Equal(day(2025, 1, 10)) {
		t.Errorf("expected ascending 01-08..01-10, got %s..%s", last[0].Date, last[2].Date)
	}
	if last[2].Volatility.Valid {
		t.Error("expected null volatility to round-trip as null")
	}
	if !last[2].Equal(metricOn("IBM", day(2025, 1, 10), 109)) {
		t.Errorf("round trip mismatch: %+v", last[2])
	}

	rng, err := s.QueryRange(ctx, "IBM", day(2025, 1, 3), day(2025, 1, 6), 0)
	if err != nil {
		t.Fatalf("query range: %v", err)
	}
	if len(rng) != 4 || !rng[0].Date.Equal(day(2025, 1, 3)) {
		t.Errorf("expected 4 metrics from 01-03, got %d", len(rng))
	}
	limited, err := s.QueryRange(ctx, "IBM", day(2025, 1, 3), day(2025, 1, 6), 2)
	if err != nil {
		t.Fatalf("query range limited: %v", err)
	}
	if len(limited) != 2 || !limited[0].Date.Equal(day(2025, 1, 5)) || !limited[1].Date.Equal(day(2025, 1, 6)) {
		t.Errorf("expected most recent 2 in range, got %+v", limited)
	}

	// same key twice leaves a single identical row
	again := metricOn("IBM", day(2025, 1, 10), 109)
	if err := s.Put(ctx, again); err != nil {
		t.Fatalf("repeat put: %v", err)
	}
	all, _ := s.QueryLastN(ctx, "IBM", 100)
	if len(all) != 10 {
		t.Errorf("expected 10 metrics after idempotent put, got %d", len(all))
	}
	if !all[9].Equal(again) {
		t.Errorf("expected unchanged metric, got %+v", all[9])
	}

	other, _ := s.QueryLastN(ctx, "AAPL", 100)
	if len(other) != 1 || other[0].Close != 50 {
		t.Errorf("expected symbols to be isolated, got %+v", other)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	exerciseStore(t, s)
	if s.Puts() != 12 {
		t.Errorf("expected 12 puts, got %d", s.Puts())
	}
	if s.Len("IBM") != 10 {
		t.Errorf("expected 10 IBM metrics, got %d", s.Len("IBM"))
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "data", "metrics.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()
	if err := s.Put(ctx, metricOn("IBM", day(2025, 2, 1), 10)); err != nil {
		t.Fatalf("put: %v", err)
	}
	s.Close()

	s, err = NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.QueryLastN(ctx, "IBM", 1)
	if err != nil || len(got) != 1 {
		t.Fatalf("expected persisted metric, got %v, %v", got, err)
	}
}

func TestSQLiteStore_ClosedReturnsError(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "metrics.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s.Close()
	err = s.Put(context.Background(), metricOn("IBM", day(2025, 2, 1), 10))
	var se *Error
	if !errors.As(err, &se) || se.Backend != "sqlite" || se.Op != "put" {
		t.Fatalf("expected *store.Error, got %v", err)
	}
}

func TestSQLiteStore_ShortStatementError(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "metrics.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	err = s.execAll("BOGUS")
	if err == nil || !strings.Contains(err.Error(), `"BOGUS"`) {
		t.Errorf("expected error quoting the statement, got %v", err)
	}
}

func TestOpen(t *testing.T) {
	s, err := Open(Config{Backend: "memory"})
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("expected *MemoryStore, got %T", s)
	}
	if _, err := Open(Config{Backend: "cassandra"}); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("expected ErrUnknownBackend, got %v", err)
	}
	if _, err := Open(Config{Backend: "postgres"}); err == nil {
		t.Error("expected error without a dsn")
	}
}

func TestDollarPlaceholders(t *testing.T) {
	got := dollarPlaceholders("SELECT a FROM t WHERE x = ? AND y = ? LIMIT ?")
	want := "SELECT a FROM t WHERE x = $1 AND y = $2 LIMIT $3"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestDateScore(t *testing.T) {
	if got := dateScore(day(2025, 2, 18)); got != 20250218 {
		t.Errorf("expected 20250218, got %.0f", got)
	}
	if dateScore(day(2024, 12, 31)) >= dateScore(day(2025, 1, 1)) {
		t.Error("expected scores to order by date")
	}
}

func TestMySQLRowRoundTrip(t *testing.T) {
	m := metricOn("IBM", day(2025, 2, 18), 148)
	back, err := toRow(m).toMetric()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !back.Equal(m) {
		t.Errorf("expected %+v, got %+v", m, back)
	}
	rows := []metricRow{toRow(metricOn("IBM", day(2025, 2, 18), 1)), toRow(metricOn("IBM", day(2025, 2, 17), 2))}
	ms, err := rowsToMetrics(rows)
	if err != nil || len(ms) != 2 || !ms[0].Date.Equal(day(2025, 2, 17)) {
		t.Errorf("expected ascending conversion, got %+v, %v", ms, err)
	}
}

func TestRedisDecodeMembers(t *testing.T) {
	members := []string{
		`{"symbol":"IBM","date":"2025-02-18","close":148,"previousCloseChange":1,"movingAverage":133.5,"volatility":null,"momentum":0.1}`,
		`{"symbol":"IBM","date":"2025-02-17","close":147,"previousCloseChange":null,"movingAverage":null,"volatility":null,"momentum":null}`,
	}
	ms, err := decodeMembers(members)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ms) != 2 || !ms[0].Date.Equal(day(2025, 2, 17)) {
		t.Fatalf("expected ascending metrics, got %+v", ms)
	}
	if ms[1].Volatility.Valid || !ms[1].MovingAverage.Valid || ms[1].MovingAverage.Float64 != 133.5 {
		t.Errorf("unexpected nullable decoding %+v", ms[1])
	}
}
