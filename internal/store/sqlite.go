package store

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists metrics to a local SQLite database.
type SQLiteStore struct {
	*sqlStore
	path string
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, wrap("sqlite", "open", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, wrap("sqlite", "open", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, wrap("sqlite", "set WAL mode", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, wrap("sqlite", "set busy timeout", err)
	}

	s := &SQLiteStore{sqlStore: &sqlStore{name: "sqlite", db: db, rebind: identity}, path: dbPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, wrap("sqlite", "migrate", err)
	}

	log.Printf("[INFO] sqlite store opened: %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) Close() error {
	log.Printf("[INFO] closing sqlite store: %s", s.path)
	return s.sqlStore.Close()
}
