package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"StockInfo/internal/dates"
	"StockInfo/internal/model"
)

const metricsSchema = `CREATE TABLE IF NOT EXISTS metrics (
	symbol                TEXT NOT NULL,
	date                  TEXT NOT NULL,
	close                 DOUBLE PRECISION NOT NULL,
	previous_close_change DOUBLE PRECISION,
	moving_average        DOUBLE PRECISION,
	volatility            DOUBLE PRECISION,
	momentum              DOUBLE PRECISION,
	PRIMARY KEY (symbol, date)
)`

const metricColumns = `symbol, date, close, previous_close_change, moving_average, volatility, momentum`

// sqlStore is the database/sql implementation shared by SQLite and Postgres.
// Dates are stored as YYYY-MM-DD text so ordering is lexical.
type sqlStore struct {
	name   string
	db     *sql.DB
	mu     sync.Mutex
	rebind func(string) string
}

func identity(q string) string { return q }

// dollarPlaceholders rewrites ? to $1, $2, ... for lib/pq.
func dollarPlaceholders(q string) string {
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) migrate() error {
	return s.execAll(
		metricsSchema,
		`CREATE INDEX IF NOT EXISTS idx_metrics_date ON metrics(date)`,
	)
}

func (s *sqlStore) execAll(stmts ...string) error {
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("exec %q: %w", q[:min(len(q), 30)], err)
		}
	}
	return nil
}

func (s *sqlStore) Put(ctx context.Context, m model.Metric) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO metrics (`+metricColumns+`)
		VALUES (?,?,?,?,?,?,?)
		ON CONFLICT (symbol, date) DO UPDATE SET
			close = excluded.close,
			previous_close_change = excluded.previous_close_change,
			moving_average = excluded.moving_average,
			volatility = excluded.volatility,
			momentum = excluded.momentum`),
		m.Symbol, dates.Format(m.Date), m.Close,
		m.PreviousCloseChange, m.MovingAverage, m.Volatility, m.Momentum,
	)
	return wrap(s.name, "put", err)
}

func (s *sqlStore) QueryLastN(ctx context.Context, symbol string, n int) ([]model.Metric, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT `+metricColumns+` FROM metrics
		WHERE symbol = ? ORDER BY date DESC LIMIT ?`), symbol, n)
	if err != nil {
		return nil, wrap(s.name, "query last", err)
	}
	out, err := scanMetrics(rows)
	return reverse(out), wrap(s.name, "query last", err)
}

func (s *sqlStore) QueryRange(ctx context.Context, symbol string, from, to time.Time, limit int) ([]model.Metric, error) {
	q := `SELECT ` + metricColumns + ` FROM metrics
		WHERE symbol = ? AND date >= ? AND date <= ? ORDER BY date DESC`
	args := []any{symbol, dates.Format(from), dates.Format(to)}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(q), args...)
	if err != nil {
		return nil, wrap(s.name, "query range", err)
	}
	out, err := scanMetrics(rows)
	return reverse(out), wrap(s.name, "query range", err)
}

func (s *sqlStore) Close() error {
	return wrap(s.name, "close", s.db.Close())
}

func scanMetrics(rows *sql.Rows) ([]model.Metric, error) {
	defer rows.Close()
	var out []model.Metric
	for rows.Next() {
		var m model.Metric
		var day string
		if err := rows.Scan(&m.Symbol, &day, &m.Close,
			&m.PreviousCloseChange, &m.MovingAverage, &m.Volatility, &m.Momentum); err != nil {
			return nil, err
		}
		d, err := dates.Parse(day)
		if err != nil {
			return nil, err
		}
		m.Date = d
		out = append(out, m)
	}
	return out, rows.Err()
}
