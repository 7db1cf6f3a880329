package httpapi

import (
	"time"

	"pulseboard/internal/board"
)

// BoardResponse is the full dashboard state.
type BoardResponse struct {
	GeneratedAt time.Time           `json:"generated_at"`
	Widgets     []board.WidgetState `json:"widgets"`
}

// WidgetResponse is one widget's state.
type WidgetResponse struct {
	Widget board.WidgetState `json:"widget"`
}

// AlertJSON is one archived alert as served over the API.
type AlertJSON struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Title     string    `json:"title"`
	Country   string    `json:"country"`
	EventTime time.Time `json:"event_time"`
	EmittedAt time.Time `json:"emitted_at"`
}

// AlertsResponse is the recent alert history.
type AlertsResponse struct {
	Alerts []AlertJSON `json:"alerts"`
}

// HealthResponse reports daemon liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Widgets   int       `json:"widgets"`
}
