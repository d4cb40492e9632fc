package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS events (
	id TEXT PRIMARY KEY,
	timestamp TEXT NOT NULL,
	schema TEXT NOT NULL,
	version INTEGER NOT NULL,
	event TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS events_schema_ts ON events(schema, timestamp);
`

// tsLayout has a fixed width so timestamps sort as text.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteSink appends capsules to an events table.
type SQLiteSink struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the event database at path.
func OpenSQLite(path string) (*SQLiteSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open event db: %w", err)
	}
	for _, stmt := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000", sqliteSchema} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init event db: %w", err)
		}
	}
	return &SQLiteSink{db: db}, nil
}

// Write implements Sink.
func (s *SQLiteSink) Write(ctx context.Context, c Capsule) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (id, timestamp, schema, version, event) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Timestamp.UTC().Format(tsLayout), c.Schema, c.Version, string(c.Event))
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Recent returns up to limit capsules of the given schema, newest first.
func (s *SQLiteSink) Recent(ctx context.Context, schema string, limit int) ([]Capsule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, schema, version, event FROM events
		 WHERE schema = ? ORDER BY timestamp DESC, rowid DESC LIMIT ?`,
		schema, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []Capsule
	for rows.Next() {
		var (
			c   Capsule
			ts  string
			raw string
		)
		if err := rows.Scan(&c.ID, &ts, &c.Schema, &c.Version, &raw); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if c.Timestamp, err = time.Parse(tsLayout, ts); err != nil {
			return nil, fmt.Errorf("event %s: %w", c.ID, err)
		}
		c.Event = json.RawMessage(raw)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Close implements Sink.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
