package collector

import (
	"context"
	"log"
	"math/rand"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"StockInfo/internal/dates"
	"StockInfo/internal/model"
)

// FakeFetcher generates per-symbol random-walk history ending yesterday.
// It stands in for a paid feed during development and has no call limits.
type FakeFetcher struct {
	mu          sync.Mutex
	historyDays int
	rng         *rand.Rand
	now         func() time.Time
	data        map[string][]model.RawRecord
}

// NewFakeFetcher creates a generator that seeds historyDays records on the
// first request for a symbol. now may be nil to use the wall clock.
func NewFakeFetcher(historyDays int, seed int64, now func() time.Time) *FakeFetcher {
	if historyDays <= 0 {
		historyDays = 365
	}
	if now == nil {
		now = time.Now
	}
	return &FakeFetcher{
		historyDays: historyDays,
		rng:         rand.New(rand.NewSource(seed)),
		now:         now,
		data:        make(map[string][]model.RawRecord),
	}
}

func (f *FakeFetcher) Name() string { return "fake" }

func (f *FakeFetcher) FetchDailyHistory(ctx context.Context, symbol string, count int) ([]model.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, serverError(f.Name(), symbol, "request cancelled", err)
	}
	body, err := f.render(symbol, count)
	if err != nil {
		return nil, err
	}
	// go through the same decoder as the real feed
	return ParseAlphaVantage(f.Name(), symbol, body)
}

func (f *FakeFetcher) render(symbol string, count int) ([]byte, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, &UpstreamError{Source: f.Name(), Class: ClassClient, Status: http.StatusBadRequest,
			Message: "stock symbol must not be empty"}
	}

	f.mu.Lock()
	yesterday := dates.Yesterday(f.now())
	history, ok := f.data[symbol]
	if !ok {
		history = f.generateLocked(symbol, dates.AddDays(yesterday, -f.historyDays+1), f.historyDays, 100+f.rng.Float64()*100)
	} else {
		history = f.extendLocked(symbol, history, yesterday)
	}
	f.data[symbol] = history
	out := make([]model.RawRecord, len(history))
	copy(out, history)
	f.mu.Unlock()

	body, err := RenderAlphaVantage(symbol, trimTail(out, count))
	if err != nil {
		return nil, serverError(f.Name(), symbol, "render response", err)
	}
	return body, nil
}

// RollDaily appends a record for every day missing up to yesterday for each
// known symbol. Returns the number of records appended.
func (f *FakeFetcher) RollDaily(now time.Time) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	yesterday := dates.Yesterday(now)
	added := 0
	for symbol, history := range f.data {
		before := len(history)
		f.data[symbol] = f.extendLocked(symbol, history, yesterday)
		if n := len(f.data[symbol]) - before; n > 0 {
			log.Printf("[INFO] fake source added %d record(s) for %s", n, symbol)
			added += n
		}
	}
	return added
}

// Symbols lists the symbols with generated history.
func (f *FakeFetcher) Symbols() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.data))
	for s := range f.data {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Close drops all generated history.
func (f *FakeFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = make(map[string][]model.RawRecord)
	return nil
}

// Handler serves the generated history as an Alpha Vantage query endpoint
// so AlphaVantageFetcher can run against it.
func (f *FakeFetcher) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		if q.Get("apikey") == "" {
			w.Write([]byte(`{"Information": "the parameter apikey is invalid or missing"}`))
			return
		}
		body, err := f.render(q.Get("symbol"), parseOutputSize(q.Get("outputsize"), f.historyDays))
		if err != nil {
			w.Write([]byte(`{"Error Message": "Invalid API call."}`))
			return
		}
		w.Write(body)
	})
}

func (f *FakeFetcher) generateLocked(symbol string, start time.Time, days int, price float64) []model.RawRecord {
	history := make([]model.RawRecord, 0, days)
	for i := 0; i < days; i++ {
		price = f.nextPriceLocked(price)
		history = append(history, f.recordLocked(symbol, dates.AddDays(start, i), price))
	}
	return history
}

func (f *FakeFetcher) extendLocked(symbol string, history []model.RawRecord, until time.Time) []model.RawRecord {
	if len(history) == 0 {
		return history
	}
	last := history[len(history)-1]
	for d := dates.AddDays(last.Date, 1); !d.After(until); d = dates.AddDays(d, 1) {
		price := f.nextPriceLocked(history[len(history)-1].Close)
		history = append(history, f.recordLocked(symbol, d, price))
	}
	return history
}

// nextPriceLocked moves the price by -2%..+2% with a +0.1% drift.
func (f *FakeFetcher) nextPriceLocked(prev float64) float64 {
	return prev * (1 + (f.rng.Float64()-0.5)*0.04 + 0.001)
}

func (f *FakeFetcher) recordLocked(symbol string, day time.Time, base float64) model.RawRecord {
	open := base
	high := open * (1 + f.rng.Float64()*0.02)
	low := open * (1 - f.rng.Float64()*0.02)
	closePrice := low + (high-low)*f.rng.Float64()
	return model.RawRecord{
		Symbol:        symbol,
		Date:          day,
		Open:          open,
		High:          high,
		Low:           low,
		Close:         closePrice,
		AdjustedClose: closePrice,
		Volume:        1_000_000 + f.rng.Int63n(5_000_000),
	}
}
