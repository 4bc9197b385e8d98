package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore persists metrics to PostgreSQL via lib/pq.
type PostgresStore struct {
	*sqlStore
}

// NewPostgresStore connects, pings and runs migrations.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, wrap("postgres", "open", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, wrap("postgres", "ping", err)
	}

	s := &PostgresStore{sqlStore: &sqlStore{name: "postgres", db: db, rebind: dollarPlaceholders}}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, wrap("postgres", "migrate", err)
	}
	log.Println("[INFO] postgres store connected")
	return s, nil
}
