// Package metrics exposes Prometheus instrumentation for the analysis path.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec // labels: state=fresh|backfilled|error
	FetchesTotal     *prometheus.CounterVec // labels: source, outcome=ok|client|server
	StoreWritesTotal *prometheus.CounterVec // labels: outcome=ok|error
	ErrorsTotal      *prometheus.CounterVec // labels: kind
	BackfillDur      prometheus.Histogram
	BackfillSize     prometheus.Histogram
	SourceRolls      prometheus.Counter

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg. A fresh registry
// is used when reg is nil.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockinfo_analysis_requests_total",
			Help: "Analyses produced, by cache state",
		}, []string{"state"}),
		FetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockinfo_source_fetches_total",
			Help: "Upstream history fetches, by source and outcome",
		}, []string{"source", "outcome"}),
		StoreWritesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockinfo_store_writes_total",
			Help: "Metric upserts, by outcome",
		}, []string{"outcome"}),
		ErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockinfo_analysis_errors_total",
			Help: "Failed analyses, by error kind",
		}, []string{"kind"}),
		BackfillDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stockinfo_backfill_duration_seconds",
			Help:    "Time spent fetching and persisting a backfill",
			Buckets: prometheus.DefBuckets,
		}),
		BackfillSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stockinfo_backfill_dates",
			Help:    "Number of gap dates per backfill",
			Buckets: []float64{1, 2, 5, 10, 30, 100, 365},
		}),
		SourceRolls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockinfo_fake_source_records_added_total",
			Help: "Records appended by the fake source daily roll",
		}),
		gatherer: reg,
	}
	reg.MustRegister(
		m.RequestsTotal,
		m.FetchesTotal,
		m.StoreWritesTotal,
		m.ErrorsTotal,
		m.BackfillDur,
		m.BackfillSize,
		m.SourceRolls,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(state string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(state).Inc()
}

func (m *Metrics) ObserveFetch(source, outcome string) {
	if m == nil {
		return
	}
	m.FetchesTotal.WithLabelValues(source, outcome).Inc()
}

func (m *Metrics) ObserveWrite(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.StoreWritesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveError(kind string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveBackfill(dates int, took time.Duration) {
	if m == nil {
		return
	}
	m.BackfillSize.Observe(float64(dates))
	m.BackfillDur.Observe(took.Seconds())
}

func (m *Metrics) ObserveRoll(added int) {
	if m == nil {
		return
	}
	m.SourceRolls.Add(float64(added))
}
