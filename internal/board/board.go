// Package board holds the shared in-memory state of all dashboard widgets,
// with snapshot accessors and pub/sub for the archiver and API consumers.
package board

import (
	"sort"
	"sync"
	"time"
)

// WidgetState is the published state of one widget: its last-known-good data
// plus the status of the most recent fetch cycle.
type WidgetState struct {
	Name          string    `json:"name"`
	Status        string    `json:"status"`
	Data          any       `json:"data"`
	HasData       bool      `json:"has_data"`
	LastError     string    `json:"last_error,omitempty"`
	LastFetchedAt time.Time `json:"last_fetched_at,omitzero"`
}

// Board is the mutex-guarded registry of widget states. Widgets never write
// to each other's entries; each entry is owned by exactly one adapter.
type Board struct {
	mu     sync.RWMutex
	states map[string]WidgetState

	subsMu    sync.Mutex
	nextSubID int
	subs      map[int]chan WidgetState
}

// New creates an empty Board.
func New() *Board {
	return &Board{
		states: make(map[string]WidgetState),
		subs:   make(map[int]chan WidgetState),
	}
}

// Update replaces a widget's state and notifies subscribers.
func (b *Board) Update(ws WidgetState) {
	b.mu.Lock()
	b.states[ws.Name] = ws
	b.mu.Unlock()

	// Notify subscribers (non-blocking send).
	b.subsMu.Lock()
	for _, ch := range b.subs {
		select {
		case ch <- ws:
		default:
			// Slow subscriber, drop event.
		}
	}
	b.subsMu.Unlock()
}

// Get returns the state for one widget.
func (b *Board) Get(name string) (WidgetState, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ws, ok := b.states[name]
	return ws, ok
}

// Snapshot returns a copy of all widget states, sorted by name.
func (b *Board) Snapshot() []WidgetState {
	b.mu.RLock()
	out := make([]WidgetState, 0, len(b.states))
	for _, ws := range b.states {
		out = append(out, ws)
	}
	b.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Subscribe registers a listener for widget state updates. The returned
// cancel func unregisters it and closes the channel.
func (b *Board) Subscribe() (<-chan WidgetState, func()) {
	ch := make(chan WidgetState, 32)
	b.subsMu.Lock()
	id := b.nextSubID
	b.nextSubID++
	b.subs[id] = ch
	b.subsMu.Unlock()

	cancel := func() {
		b.subsMu.Lock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
		b.subsMu.Unlock()
	}
	return ch, cancel
}
