// Package cache persists the most recently fetched window to disk so a
// fresh process can still render the calendar when the backend is
// unreachable. One row per window key; newer fetches replace older
// ones.
package cache

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/hausmates/hcal/internal/contract"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Cache struct {
	db *sql.DB
}

// Open opens (or creates) the snapshot database at path and brings the
// schema up to date.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping cache db: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}
	return &Cache{db: db}, nil
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

func (c *Cache) Close() error { return c.db.Close() }

// Save stores the events fetched for a window, replacing any previous
// snapshot under the same key.
func (c *Cache) Save(key string, events []contract.Event) error {
	payload, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = c.db.Exec(
		`INSERT INTO snapshots (window_key, payload, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(window_key) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`,
		key, string(payload), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load returns the snapshot for a window key and when it was fetched.
// A missing snapshot returns (nil, zero, nil).
func (c *Cache) Load(key string) ([]contract.Event, time.Time, error) {
	var payload string
	var fetchedAt time.Time
	err := c.db.QueryRow(
		`SELECT payload, fetched_at FROM snapshots WHERE window_key = ?`, key,
	).Scan(&payload, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("load snapshot: %w", err)
	}
	var events []contract.Event
	if err := json.Unmarshal([]byte(payload), &events); err != nil {
		return nil, time.Time{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return events, fetchedAt, nil
}
