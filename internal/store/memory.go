package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"StockInfo/internal/dates"
	"StockInfo/internal/model"
)

// MemoryStore is a map-backed Store used in tests and for ephemeral runs.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]model.Metric
	puts int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]model.Metric)}
}

func (s *MemoryStore) Put(_ context.Context, m model.Metric) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bySymbol, ok := s.data[m.Symbol]
	if !ok {
		bySymbol = make(map[string]model.Metric)
		s.data[m.Symbol] = bySymbol
	}
	bySymbol[dates.Format(m.Date)] = m
	s.puts++
	return nil
}

// Puts reports how many writes have been applied.
func (s *MemoryStore) Puts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.puts
}

// Len reports the number of stored metrics for symbol.
func (s *MemoryStore) Len(symbol string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data[symbol])
}

func (s *MemoryStore) sorted(symbol string) []model.Metric {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Metric, 0, len(s.data[symbol]))
	for _, m := range s.data[symbol] {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (s *MemoryStore) QueryLastN(_ context.Context, symbol string, n int) ([]model.Metric, error) {
	if n <= 0 {
		return nil, nil
	}
	all := s.sorted(symbol)
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}

func (s *MemoryStore) QueryRange(_ context.Context, symbol string, from, to time.Time, limit int) ([]model.Metric, error) {
	rng := model.DateRange{Start: dates.Day(from), End: dates.Day(to)}
	var out []model.Metric
	for _, m := range s.sorted(symbol) {
		if rng.Contains(m.Date) {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
