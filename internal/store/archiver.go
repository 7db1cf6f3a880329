package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"pulseboard/internal/board"
	"pulseboard/internal/util"
	"pulseboard/internal/widget"
)

// Archiver mirrors board updates into the snapshot store and, for the news
// calendar widget, into the daily Parquet archive. Write failures are
// retried briefly and then dropped; archival never blocks the poll cycle.
type Archiver struct {
	snapshots SnapshotStore
	news      *NewsArchive
	log       *slog.Logger
}

// NewArchiver creates an Archiver. news may be nil to disable the Parquet
// archive.
func NewArchiver(snapshots SnapshotStore, news *NewsArchive, log *slog.Logger) *Archiver {
	return &Archiver{snapshots: snapshots, news: news, log: log}
}

// Run consumes board updates until ctx is cancelled.
func (a *Archiver) Run(ctx context.Context, b *board.Board) {
	ch, unsub := b.Subscribe()
	defer unsub()

	for {
		select {
		case <-ctx.Done():
			return
		case ws, ok := <-ch:
			if !ok {
				return
			}
			a.archive(ctx, ws)
		}
	}
}

func (a *Archiver) archive(ctx context.Context, ws board.WidgetState) {
	// Only completed fetches are archived; loading and error states carry no
	// new data.
	if ws.Status != "ready" || !ws.HasData {
		return
	}

	payload, err := json.Marshal(ws.Data)
	if err != nil {
		a.log.Warn("encoding snapshot", "widget", ws.Name, "error", err)
		return
	}

	snap := Snapshot{Widget: ws.Name, FetchedAt: ws.LastFetchedAt, Payload: payload}
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = time.Now()
	}
	err = util.Retry(ctx, 3, 50*time.Millisecond, func() error {
		return a.snapshots.SaveSnapshot(ctx, snap)
	})
	if err != nil {
		a.log.Warn("archiving snapshot", "widget", ws.Name, "error", err)
	}

	if a.news != nil && ws.Name == widget.NameCalendar {
		if events, ok := ws.Data.([]widget.CalendarEvent); ok && len(events) > 0 {
			date := snap.FetchedAt.UTC().Format("2006-01-02")
			if err := a.news.ArchiveEvents(date, events); err != nil {
				a.log.Warn("archiving calendar events", "date", date, "error", err)
			}
		}
	}
}
