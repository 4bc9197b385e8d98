package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/guregu/null/v6"

	"StockInfo/internal/dates"
	"StockInfo/internal/model"
)

// RedisStore keeps one sorted set per symbol. Members are JSON metrics
// scored by the date as yyyymmdd, so each score holds at most one member.
type RedisStore struct {
	client *goredis.Client
}

type redisMetric struct {
	Symbol              string     `json:"symbol"`
	Date                string     `json:"date"`
	Close               float64    `json:"close"`
	PreviousCloseChange null.Float `json:"previousCloseChange"`
	MovingAverage       null.Float `json:"movingAverage"`
	Volatility          null.Float `json:"volatility"`
	Momentum            null.Float `json:"momentum"`
}

// NewRedisStore connects and pings the server.
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, wrap("redis", "ping", err)
	}

	log.Printf("[INFO] redis store connected to %s", addr)
	return &RedisStore{client: client}, nil
}

func metricsKey(symbol string) string { return "metrics:" + symbol }

func dateScore(d time.Time) float64 {
	y, m, day := d.Date()
	return float64(y*10000 + int(m)*100 + day)
}

func (s *RedisStore) Put(ctx context.Context, m model.Metric) error {
	member, err := json.Marshal(redisMetric{
		Symbol:              m.Symbol,
		Date:                dates.Format(m.Date),
		Close:               m.Close,
		PreviousCloseChange: m.PreviousCloseChange,
		MovingAverage:       m.MovingAverage,
		Volatility:          m.Volatility,
		Momentum:            m.Momentum,
	})
	if err != nil {
		return wrap("redis", "encode", err)
	}
	key := metricsKey(m.Symbol)
	score := dateScore(m.Date)
	scoreStr := strconv.FormatFloat(score, 'f', 0, 64)
	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, scoreStr, scoreStr)
		pipe.ZAdd(ctx, key, &goredis.Z{Score: score, Member: member})
		return nil
	})
	return wrap("redis", "put", err)
}

func (s *RedisStore) QueryLastN(ctx context.Context, symbol string, n int) ([]model.Metric, error) {
	if n <= 0 {
		return nil, nil
	}
	members, err := s.client.ZRevRange(ctx, metricsKey(symbol), 0, int64(n-1)).Result()
	if err != nil {
		return nil, wrap("redis", "query last", err)
	}
	out, err := decodeMembers(members)
	return out, wrap("redis", "query last", err)
}

func (s *RedisStore) QueryRange(ctx context.Context, symbol string, from, to time.Time, limit int) ([]model.Metric, error) {
	opt := &goredis.ZRangeBy{
		Min: strconv.FormatFloat(dateScore(from), 'f', 0, 64),
		Max: strconv.FormatFloat(dateScore(to), 'f', 0, 64),
	}
	if limit > 0 {
		opt.Count = int64(limit)
	}
	members, err := s.client.ZRevRangeByScore(ctx, metricsKey(symbol), opt).Result()
	if err != nil {
		return nil, wrap("redis", "query range", err)
	}
	out, err := decodeMembers(members)
	return out, wrap("redis", "query range", err)
}

func (s *RedisStore) Close() error {
	log.Println("[INFO] closing redis store")
	return wrap("redis", "close", s.client.Close())
}

// decodeMembers turns descending members into ascending metrics.
func decodeMembers(members []string) ([]model.Metric, error) {
	out := make([]model.Metric, 0, len(members))
	for i := len(members) - 1; i >= 0; i-- {
		var rm redisMetric
		if err := json.Unmarshal([]byte(members[i]), &rm); err != nil {
			return nil, err
		}
		d, err := dates.Parse(rm.Date)
		if err != nil {
			return nil, err
		}
		out = append(out, model.Metric{
			Symbol:              rm.Symbol,
			Date:                d,
			Close:               rm.Close,
			PreviousCloseChange: rm.PreviousCloseChange,
			MovingAverage:       rm.MovingAverage,
			Volatility:          rm.Volatility,
			Momentum:            rm.Momentum,
		})
	}
	return out, nil
}
