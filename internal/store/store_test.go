package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"pulseboard/internal/widget"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 6, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		err := s.SaveSnapshot(ctx, Snapshot{
			Widget:    "watchlist",
			FetchedAt: base.Add(time.Duration(i) * time.Minute),
			Payload:   []byte(`[{"symbol":"EURUSD"}]`),
		})
		if err != nil {
			t.Fatalf("SaveSnapshot: %v", err)
		}
	}
	// A different widget's history must not bleed in.
	if err := s.SaveSnapshot(ctx, Snapshot{Widget: "trends", FetchedAt: base, Payload: []byte(`[]`)}); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	got, err := s.ListSnapshots(ctx, "watchlist", 2)
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d snapshots, want 2 (limit)", len(got))
	}
	if !got[0].FetchedAt.After(got[1].FetchedAt) {
		t.Errorf("snapshots not newest first: %v then %v", got[0].FetchedAt, got[1].FetchedAt)
	}
	if got[0].Widget != "watchlist" {
		t.Errorf("widget = %q, want watchlist", got[0].Widget)
	}
}

func TestAlertRoundTripAndDedup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := AlertRecord{
		ID:        "alert-1",
		EventID:   "nfp",
		Title:     "Non-Farm Payrolls",
		Country:   "US",
		EventTime: time.Date(2026, 3, 6, 13, 30, 0, 0, time.UTC),
		EmittedAt: time.Date(2026, 3, 6, 13, 20, 0, 0, time.UTC),
	}
	if err := s.SaveAlert(ctx, a); err != nil {
		t.Fatalf("SaveAlert: %v", err)
	}
	// Saving the same ID again is a no-op, not an error.
	if err := s.SaveAlert(ctx, a); err != nil {
		t.Fatalf("SaveAlert (dup): %v", err)
	}

	got, err := s.ListAlerts(ctx, 10)
	if err != nil {
		t.Fatalf("ListAlerts: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d alerts, want 1", len(got))
	}
	if got[0].EventID != "nfp" || got[0].Country != "US" {
		t.Errorf("alert = %+v, want nfp/US", got[0])
	}
	if !got[0].EventTime.Equal(a.EventTime) {
		t.Errorf("EventTime = %v, want %v", got[0].EventTime, a.EventTime)
	}
}

func TestNewsArchiveMergeByID(t *testing.T) {
	a := NewNewsArchive(t.TempDir())
	date := "2026-03-06"

	ev := widget.CalendarEvent{
		ID:     "nfp",
		Title:  "Non-Farm Payrolls",
		Impact: "HIGH",
		Status: "UPCOMING",
		Time:   time.Date(2026, 3, 6, 13, 30, 0, 0, time.UTC),
	}
	if err := a.ArchiveEvents(date, []widget.CalendarEvent{ev}); err != nil {
		t.Fatalf("ArchiveEvents: %v", err)
	}

	// Second poll: the event flipped to RELEASED plus a new one appeared.
	ev.Status = "RELEASED"
	other := widget.CalendarEvent{ID: "cpi", Title: "CPI", Impact: "HIGH", Status: "UPCOMING",
		Time: time.Date(2026, 3, 6, 15, 0, 0, 0, time.UTC)}
	if err := a.ArchiveEvents(date, []widget.CalendarEvent{ev, other}); err != nil {
		t.Fatalf("ArchiveEvents (merge): %v", err)
	}

	got, err := a.ReadDay(date)
	if err != nil {
		t.Fatalf("ReadDay: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2 (merged by ID)", len(got))
	}
	if got[0].ID != "nfp" || got[0].Status != "RELEASED" {
		t.Errorf("merged event = %+v, want nfp with updated status", got[0])
	}

	dates, err := a.Dates()
	if err != nil {
		t.Fatalf("Dates: %v", err)
	}
	if len(dates) != 1 || dates[0] != date {
		t.Errorf("Dates() = %v, want [%s]", dates, date)
	}
}
