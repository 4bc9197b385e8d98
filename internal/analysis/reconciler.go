// Package analysis reconciles the metric cache against upstream history and
// produces the metrics for a request.
package analysis

import (
	"context"
	"log"
	"strings"
	"time"

	"StockInfo/internal/calculator"
	"StockInfo/internal/collector"
	"StockInfo/internal/dates"
	"StockInfo/internal/metrics"
	"StockInfo/internal/model"
	"StockInfo/internal/report"
	"StockInfo/internal/store"
)

// OutputSize selects how many records a response may contain.
type OutputSize string

const (
	Compact OutputSize = "compact"
	Full    OutputSize = "full"
)

// ParseOutputSize is case-insensitive; empty means Compact.
func ParseOutputSize(s string) (OutputSize, error) {
	switch OutputSize(strings.ToLower(strings.TrimSpace(s))) {
	case "", Compact:
		return Compact, nil
	case Full:
		return Full, nil
	}
	return "", invalidInput("output size must be %q or %q, got %q", Compact, Full, s)
}

// Limits maps output sizes to record counts.
type Limits struct {
	CompactRecords int
	FullRecords    int
}

// DefaultLimits returns 100 compact and 365 full records.
func DefaultLimits() Limits {
	return Limits{CompactRecords: 100, FullRecords: 365}
}

func (l Limits) count(size OutputSize) int {
	if size == Full {
		return l.FullRecords
	}
	return l.CompactRecords
}

// State describes what the reconciler had to do for a request.
type State string

const (
	StateFresh      State = "fresh"
	StateBackfilled State = "backfilled"
)

// Request asks for the metrics of one symbol. Nil bounds take the defaults
// [today-N, yesterday].
type Request struct {
	Symbol     string
	OutputSize OutputSize
	Start      *time.Time
	End        *time.Time
}

// Analysis is the reconciled result. Metrics are most recent first.
type Analysis struct {
	Symbol  string
	State   State
	Range   model.DateRange
	Metrics []model.Metric
}

// Reconciler owns the cache-or-compute decision for a symbol.
type Reconciler struct {
	store    store.Store
	source   collector.Fetcher
	builder  calculator.Builder
	calendar dates.Calendar
	limits   Limits
	now      func() time.Time
	metrics  *metrics.Metrics
}

// Option customises a Reconciler.
type Option func(*Reconciler)

func WithClock(now func() time.Time) Option { return func(r *Reconciler) { r.now = now } }

func WithCalendar(cal dates.Calendar) Option { return func(r *Reconciler) { r.calendar = cal } }

func WithLimits(l Limits) Option { return func(r *Reconciler) { r.limits = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(r *Reconciler) { r.metrics = m } }

// NewReconciler wires a store, a record source and a metric builder.
func NewReconciler(st store.Store, src collector.Fetcher, b calculator.Builder, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:    st,
		source:   src,
		builder:  b,
		calendar: dates.Daily{},
		limits:   DefaultLimits(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Builder exposes the configured window lengths.
func (r *Reconciler) Builder() calculator.Builder { return r.builder }

// ProduceAnalysis returns the metrics for req, filling any gap between the
// newest cached metric and yesterday from the record source first.
func (r *Reconciler) ProduceAnalysis(ctx context.Context, req Request) (Analysis, error) {
	res, err := r.produce(ctx, req)
	if err != nil {
		r.metrics.ObserveRequest("error")
		r.metrics.ObserveError(KindOf(err).String())
		return res, err
	}
	r.metrics.ObserveRequest(string(res.State))
	return res, nil
}

func (r *Reconciler) produce(ctx context.Context, req Request) (Analysis, error) {
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		return Analysis{}, invalidInput("stock symbol must not be empty")
	}
	size, err := ParseOutputSize(string(req.OutputSize))
	if err != nil {
		return Analysis{}, err
	}
	n := r.limits.count(size)

	now := r.now()
	yesterday := dates.Yesterday(now)
	rng, err := dates.VerifyRange(req.Start, req.End, dates.PastDate(now, n), yesterday)
	if err != nil {
		return Analysis{}, invalidInputErr(err)
	}

	existing, err := r.store.QueryLastN(ctx, symbol, n)
	if err != nil {
		return Analysis{}, newError(KindStorage, err, "read cached metrics for %s", symbol)
	}

	state := StateFresh
	if !r.isFresh(existing, yesterday) {
		state = StateBackfilled
		computed, err := r.backfill(ctx, symbol, existing, yesterday, n)
		if err != nil {
			return Analysis{Symbol: symbol, State: state, Range: rng}, err
		}
		existing = mergeAscending(existing, computed)
	}

	return Analysis{
		Symbol:  symbol,
		State:   state,
		Range:   rng,
		Metrics: report.Assemble(existing, rng, n),
	}, nil
}

// isFresh reports whether the newest cached metric reaches the last session
// on or before yesterday.
func (r *Reconciler) isFresh(existing []model.Metric, yesterday time.Time) bool {
	if len(existing) == 0 {
		return false
	}
	last := existing[len(existing)-1].Date
	return !last.Before(dates.LastSession(r.calendar, yesterday))
}

// gapDates lists the sessions that need computing, ascending.
func (r *Reconciler) gapDates(existing []model.Metric, yesterday time.Time, n int) []time.Time {
	from := dates.AddDays(yesterday, -n+1)
	if len(existing) > 0 {
		from = dates.AddDays(existing[len(existing)-1].Date, 1)
	}
	return dates.Sessions(r.calendar, from, yesterday)
}

// backfill computes and persists every gap date in order. Metrics persisted
// before a failure stay persisted; the computed prefix is returned with it.
func (r *Reconciler) backfill(ctx context.Context, symbol string, existing []model.Metric, yesterday time.Time, n int) ([]model.Metric, error) {
	gap := r.gapDates(existing, yesterday, n)
	if len(gap) == 0 {
		return nil, nil
	}
	if len(existing) == 0 {
		log.Printf("[INFO] %s: no cached metrics, backfilling %d date(s)", symbol, len(gap))
	} else {
		log.Printf("[INFO] %s: cache stale (last %s), backfilling %d date(s)",
			symbol, dates.Format(existing[len(existing)-1].Date), len(gap))
	}
	started := time.Now()

	count := len(gap) + r.builder.LongestWindow() + 1
	raw, err := r.source.FetchDailyHistory(ctx, symbol, count)
	if err != nil {
		r.metrics.ObserveFetch(r.source.Name(), fetchOutcome(err))
		log.Printf("[WARN] %s: fetch from %s failed: %v", symbol, r.source.Name(), err)
		return nil, newError(KindUpstream, err, "fetch history for %s", symbol)
	}
	r.metrics.ObserveFetch(r.source.Name(), "ok")

	computed := make([]model.Metric, 0, len(gap))
	for _, d := range gap {
		m, err := r.builder.CalculateMetrics(d, raw)
		if err != nil {
			log.Printf("[ERROR] %s: %v (persisted %d of %d)", symbol, err, len(computed), len(gap))
			return computed, newError(KindComputation, err, "compute metrics for %s on %s", symbol, dates.Format(d))
		}
		m.Symbol = symbol
		err = r.store.Put(ctx, m)
		r.metrics.ObserveWrite(err)
		if err != nil {
			log.Printf("[ERROR] %s: store write failed on %s (persisted %d of %d): %v",
				symbol, dates.Format(d), len(computed), len(gap), err)
			return computed, newError(KindStorage, err, "persist metrics for %s on %s", symbol, dates.Format(d))
		}
		computed = append(computed, m)
	}

	took := time.Since(started)
	r.metrics.ObserveBackfill(len(gap), took)
	log.Printf("[INFO] %s: backfilled %d metric(s) in %s", symbol, len(computed), took.Round(time.Millisecond))
	return computed, nil
}

func fetchOutcome(err error) string {
	if ue, ok := collector.AsUpstream(err); ok {
		return ue.Class.String()
	}
	return "server"
}

// mergeAscending appends newer metrics, dropping any date already present.
func mergeAscending(existing, computed []model.Metric) []model.Metric {
	out := make([]model.Metric, 0, len(existing)+len(computed))
	out = append(out, existing...)
	for _, m := range computed {
		if n := len(out); n > 0 && !m.Date.After(out[n-1].Date) {
			continue
		}
		out = append(out, m)
	}
	return out
}
