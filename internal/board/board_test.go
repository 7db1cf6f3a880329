package board

import (
	"testing"
	"time"
)

func TestUpdateAndGet(t *testing.T) {
	b := New()

	if _, ok := b.Get("watchlist"); ok {
		t.Fatal("empty board returned a widget")
	}

	b.Update(WidgetState{Name: "watchlist", Status: "ready", HasData: true, Data: 1})
	ws, ok := b.Get("watchlist")
	if !ok || ws.Data != 1 {
		t.Fatalf("Get = %+v, %v", ws, ok)
	}

	// Update replaces, never merges.
	b.Update(WidgetState{Name: "watchlist", Status: "error", LastError: "down"})
	ws, _ = b.Get("watchlist")
	if ws.Status != "error" || ws.HasData {
		t.Errorf("after replace: %+v", ws)
	}
}

func TestSnapshotSorted(t *testing.T) {
	b := New()
	b.Update(WidgetState{Name: "trends"})
	b.Update(WidgetState{Name: "heatmap"})
	b.Update(WidgetState{Name: "watchlist"})

	snap := b.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("snapshot len = %d, want 3", len(snap))
	}
	if snap[0].Name != "heatmap" || snap[2].Name != "watchlist" {
		t.Errorf("snapshot order = %s, %s, %s", snap[0].Name, snap[1].Name, snap[2].Name)
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe()
	defer cancel()

	want := WidgetState{Name: "global", Status: "ready", LastFetchedAt: time.Now()}
	b.Update(want)

	select {
	case got := <-ch:
		if got.Name != "global" || got.Status != "ready" {
			t.Errorf("received %+v, want %+v", got, want)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber never notified")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe()
	cancel()

	if _, ok := <-ch; ok {
		t.Error("channel still open after cancel")
	}

	// Updates after unsubscribe must not panic.
	b.Update(WidgetState{Name: "global"})
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	b := New()
	_, cancel := b.Subscribe() // never drained
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Update(WidgetState{Name: "trends"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Update blocked on a slow subscriber")
	}
}
