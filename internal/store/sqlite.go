package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface checks.
var _ SnapshotStore = (*SQLiteStore)(nil)
var _ AlertStore = (*SQLiteStore)(nil)

// SQLiteStore implements SnapshotStore and AlertStore backed by a SQLite
// database.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	widget     TEXT NOT NULL,
	fetched_at INTEGER NOT NULL,
	payload    BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_widget ON snapshots(widget, fetched_at DESC);

CREATE TABLE IF NOT EXISTS alerts (
	id         TEXT PRIMARY KEY,
	event_id   TEXT NOT NULL,
	title      TEXT NOT NULL,
	country    TEXT NOT NULL,
	event_time INTEGER NOT NULL,
	emitted_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_alerts_emitted ON alerts(emitted_at DESC);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, applies the
// schema, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// SnapshotStore implementation
// ---------------------------------------------------------------------------

// SaveSnapshot appends one widget snapshot.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap Snapshot) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (widget, fetched_at, payload) VALUES (?, ?, ?)`,
		snap.Widget, snap.FetchedAt.UnixMilli(), snap.Payload,
	)
	return err
}

// ListSnapshots returns the most recent snapshots for a widget, newest first.
func (s *SQLiteStore) ListSnapshots(ctx context.Context, widget string, limit int) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT widget, fetched_at, payload FROM snapshots
		 WHERE widget = ? ORDER BY fetched_at DESC LIMIT ?`,
		widget, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		var ms int64
		if err := rows.Scan(&snap.Widget, &ms, &snap.Payload); err != nil {
			return nil, err
		}
		snap.FetchedAt = time.UnixMilli(ms)
		out = append(out, snap)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// AlertStore implementation
// ---------------------------------------------------------------------------

// SaveAlert appends one alert record. Re-saving the same alert ID is a no-op.
func (s *SQLiteStore) SaveAlert(ctx context.Context, a AlertRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO alerts (id, event_id, title, country, event_time, emitted_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.EventID, a.Title, a.Country, a.EventTime.UnixMilli(), a.EmittedAt.UnixMilli(),
	)
	return err
}

// ListAlerts returns the most recent alerts, newest first.
func (s *SQLiteStore) ListAlerts(ctx context.Context, limit int) ([]AlertRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_id, title, country, event_time, emitted_at
		 FROM alerts ORDER BY emitted_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AlertRecord
	for rows.Next() {
		var a AlertRecord
		var eventMs, emittedMs int64
		if err := rows.Scan(&a.ID, &a.EventID, &a.Title, &a.Country, &eventMs, &emittedMs); err != nil {
			return nil, err
		}
		a.EventTime = time.UnixMilli(eventMs)
		a.EmittedAt = time.UnixMilli(emittedMs)
		out = append(out, a)
	}
	return out, rows.Err()
}
