// Package alert evaluates polled economic-calendar events against the
// news-urgency rule and emits one-shot notifications: a high-impact upcoming
// event inside the warning window alerts once, stays silent while it keeps
// matching, and becomes eligible again only after its condition lapses.
package alert

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"pulseboard/internal/widget"
)

// DefaultWindow is how far ahead of an event the alert fires.
const DefaultWindow = 15 * time.Minute

// Notification is one emitted alert.
type Notification struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Title     string    `json:"title"`
	Country   string    `json:"country"`
	EventTime time.Time `json:"event_time"`
	EmittedAt time.Time `json:"emitted_at"`
}

// Notifier delivers emitted notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	Log *slog.Logger
}

func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	l.Log.Info("news alert",
		"event_id", n.EventID,
		"title", n.Title,
		"country", n.Country,
		"event_time", n.EventTime,
	)
	return nil
}

// Engine tracks which events are currently alerting. Not safe for concurrent
// use; the calendar resource delivers payloads sequentially.
type Engine struct {
	window   time.Duration
	notifier Notifier
	log      *slog.Logger
	now      func() time.Time

	active map[string]struct{}
}

// NewEngine creates an Engine with the given warning window (0 uses
// DefaultWindow) and notifier.
func NewEngine(window time.Duration, notifier Notifier, log *slog.Logger) *Engine {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Engine{
		window:   window,
		notifier: notifier,
		log:      log,
		now:      time.Now,
		active:   make(map[string]struct{}),
	}
}

// qualifies reports whether ev matches the urgency rule at instant now.
func (e *Engine) qualifies(ev widget.CalendarEvent, now time.Time) bool {
	if ev.Impact != "HIGH" || ev.Status != "UPCOMING" {
		return false
	}
	until := ev.Time.Sub(now)
	return until > 0 && until <= e.window
}

// Evaluate processes one polled calendar payload. Events whose condition has
// lapsed leave the active set. Then the first qualifying event in payload
// order that is not already alerting emits exactly one notification; any
// further qualifying events in the same payload wait for a later poll.
func (e *Engine) Evaluate(ctx context.Context, events []widget.CalendarEvent) *Notification {
	now := e.now()

	stillMatching := make(map[string]bool, len(events))
	for _, ev := range events {
		if e.qualifies(ev, now) {
			stillMatching[ev.ID] = true
		}
	}
	for id := range e.active {
		if !stillMatching[id] {
			delete(e.active, id)
		}
	}

	for _, ev := range events {
		if !e.qualifies(ev, now) {
			continue
		}
		if _, alerting := e.active[ev.ID]; alerting {
			continue
		}
		e.active[ev.ID] = struct{}{}

		n := Notification{
			ID:        uuid.New().String(),
			EventID:   ev.ID,
			Title:     ev.Title,
			Country:   ev.Country,
			EventTime: ev.Time,
			EmittedAt: now,
		}
		if e.notifier != nil {
			if err := e.notifier.Notify(ctx, n); err != nil {
				e.log.Warn("delivering alert", "event_id", ev.ID, "error", err)
			}
		}
		return &n
	}
	return nil
}

// ActiveCount returns how many events are currently alerting.
func (e *Engine) ActiveCount() int {
	return len(e.active)
}
