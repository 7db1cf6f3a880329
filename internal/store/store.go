// Package store persists poll history: widget snapshots and alert records in
// SQLite, and daily news-event archives in Parquet files.
package store

import (
	"context"
	"time"
)

// Snapshot is one archived widget payload.
type Snapshot struct {
	Widget    string
	FetchedAt time.Time
	Payload   []byte // view-model JSON as served by the board
}

// AlertRecord is one archived news alert.
type AlertRecord struct {
	ID        string
	EventID   string
	Title     string
	Country   string
	EventTime time.Time
	EmittedAt time.Time
}

// SnapshotStore persists widget snapshots.
type SnapshotStore interface {
	// SaveSnapshot appends one snapshot.
	SaveSnapshot(ctx context.Context, s Snapshot) error

	// ListSnapshots returns the most recent snapshots for a widget, newest
	// first, up to limit.
	ListSnapshots(ctx context.Context, widget string, limit int) ([]Snapshot, error)
}

// AlertStore persists emitted news alerts.
type AlertStore interface {
	// SaveAlert appends one alert record.
	SaveAlert(ctx context.Context, a AlertRecord) error

	// ListAlerts returns the most recent alerts, newest first, up to limit.
	ListAlerts(ctx context.Context, limit int) ([]AlertRecord, error)
}
