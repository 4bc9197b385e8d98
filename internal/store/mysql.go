package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/guregu/null/v6"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"StockInfo/internal/dates"
	"StockInfo/internal/model"
)

// metricRow is the gorm model for the metrics table.
type metricRow struct {
	Symbol              string     `gorm:"primaryKey;size:32"`
	Date                string     `gorm:"primaryKey;size:10"`
	Close               float64    `gorm:"type:double;not null"`
	PreviousCloseChange null.Float `gorm:"type:double"`
	MovingAverage       null.Float `gorm:"type:double"`
	Volatility          null.Float `gorm:"type:double"`
	Momentum            null.Float `gorm:"type:double"`
}

func (metricRow) TableName() string { return "metrics" }

func toRow(m model.Metric) metricRow {
	return metricRow{
		Symbol:              m.Symbol,
		Date:                dates.Format(m.Date),
		Close:               m.Close,
		PreviousCloseChange: m.PreviousCloseChange,
		MovingAverage:       m.MovingAverage,
		Volatility:          m.Volatility,
		Momentum:            m.Momentum,
	}
}

func (r metricRow) toMetric() (model.Metric, error) {
	d, err := dates.Parse(r.Date)
	if err != nil {
		return model.Metric{}, err
	}
	return model.Metric{
		Symbol:              r.Symbol,
		Date:                d,
		Close:               r.Close,
		PreviousCloseChange: r.PreviousCloseChange,
		MovingAverage:       r.MovingAverage,
		Volatility:          r.Volatility,
		Momentum:            r.Momentum,
	}, nil
}

// MySQLStore persists metrics to MySQL through gorm.
type MySQLStore struct {
	db *gorm.DB
}

// NewMySQLStore connects and auto-migrates the metrics table.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("mysql dsn is required")
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, wrap("mysql", "open", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, wrap("mysql", "open", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&metricRow{}); err != nil {
		sqlDB.Close()
		return nil, wrap("mysql", "migrate", err)
	}
	log.Println("[INFO] mysql store connected")
	return &MySQLStore{db: db}, nil
}

func (s *MySQLStore) Put(ctx context.Context, m model.Metric) error {
	row := toRow(m)
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
	return wrap("mysql", "put", err)
}

func (s *MySQLStore) QueryLastN(ctx context.Context, symbol string, n int) ([]model.Metric, error) {
	if n <= 0 {
		return nil, nil
	}
	var rows []metricRow
	err := s.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("date DESC").
		Limit(n).
		Find(&rows).Error
	if err != nil {
		return nil, wrap("mysql", "query last", err)
	}
	out, err := rowsToMetrics(rows)
	return out, wrap("mysql", "query last", err)
}

func (s *MySQLStore) QueryRange(ctx context.Context, symbol string, from, to time.Time, limit int) ([]model.Metric, error) {
	q := s.db.WithContext(ctx).
		Where("symbol = ? AND date >= ? AND date <= ?", symbol, dates.Format(from), dates.Format(to)).
		Order("date DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []metricRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, wrap("mysql", "query range", err)
	}
	out, err := rowsToMetrics(rows)
	return out, wrap("mysql", "query range", err)
}

func (s *MySQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return wrap("mysql", "close", err)
	}
	log.Println("[INFO] closing mysql store")
	return wrap("mysql", "close", sqlDB.Close())
}

// rowsToMetrics converts descending rows to ascending metrics.
func rowsToMetrics(rows []metricRow) ([]model.Metric, error) {
	out := make([]model.Metric, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		m, err := rows[i].toMetric()
		if err != nil {
			return nil, errors.Join(fmt.Errorf("row %s/%s", rows[i].Symbol, rows[i].Date), err)
		}
		out = append(out, m)
	}
	return out, nil
}
