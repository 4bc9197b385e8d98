// Package store persists computed metrics keyed by (symbol, date).
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"StockInfo/internal/model"
)

// Store is the durable metric cache. Query results are ascending by date.
type Store interface {
	// Put inserts or replaces the metric for (m.Symbol, m.Date).
	Put(ctx context.Context, m model.Metric) error
	// QueryLastN returns the n most recent metrics for symbol.
	QueryLastN(ctx context.Context, symbol string, n int) ([]model.Metric, error)
	// QueryRange returns metrics with from <= date <= to, keeping the most
	// recent limit entries when limit > 0.
	QueryRange(ctx context.Context, symbol string, from, to time.Time, limit int) ([]model.Metric, error)
	Close() error
}

// Error wraps a backend failure.
type Error struct {
	Backend string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s store %s: %v", e.Backend, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(backend, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Backend: backend, Op: op, Err: err}
}

var ErrUnknownBackend = errors.New("unknown store backend")

// Config selects and parameterises a backend.
type Config struct {
	Backend       string
	SQLitePath    string
	PostgresDSN   string
	MySQLDSN      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Open constructs the configured backend.
func Open(cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "sqlite":
		return NewSQLiteStore(cfg.SQLitePath)
	case "postgres":
		return NewPostgresStore(cfg.PostgresDSN)
	case "mysql":
		return NewMySQLStore(cfg.MySQLDSN)
	case "redis":
		return NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

func reverse(ms []model.Metric) []model.Metric {
	for i, j := 0, len(ms)-1; i < j; i, j = i+1, j-1 {
		ms[i], ms[j] = ms[j], ms[i]
	}
	return ms
}
