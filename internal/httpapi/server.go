// Package httpapi serves the aggregated board state and alert history over a
// local HTTP API for front-ends and the CLI to consume.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"pulseboard/internal/board"
	"pulseboard/internal/store"
)

const defaultAlertLimit = 50

// Server serves the board HTTP API.
type Server struct {
	board     *board.Board
	alerts    store.AlertStore
	log       *slog.Logger
	startedAt time.Time
}

// NewServer creates a Server over the given board and alert history. alerts
// may be nil when persistence is disabled.
func NewServer(b *board.Board, alerts store.AlertStore, log *slog.Logger) *Server {
	return &Server{
		board:     b,
		alerts:    alerts,
		log:       log,
		startedAt: time.Now(),
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/board", s.handleBoard)
	mux.HandleFunc("GET /api/board/{widget}", s.handleWidget)
	mux.HandleFunc("GET /api/alerts", s.handleAlerts)
	mux.HandleFunc("GET /api/health", s.handleHealth)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, BoardResponse{
		GeneratedAt: time.Now(),
		Widgets:     s.board.Snapshot(),
	})
}

func (s *Server) handleWidget(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("widget")
	ws, ok := s.board.Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown widget: "+name)
		return
	}
	writeJSON(w, WidgetResponse{Widget: ws})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if s.alerts == nil {
		writeJSON(w, AlertsResponse{Alerts: []AlertJSON{}})
		return
	}

	limit := defaultAlertLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := s.alerts.ListAlerts(r.Context(), limit)
	if err != nil {
		s.log.Warn("listing alerts", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list alerts")
		return
	}

	alerts := make([]AlertJSON, 0, len(records))
	for _, a := range records {
		alerts = append(alerts, AlertJSON{
			ID:        a.ID,
			EventID:   a.EventID,
			Title:     a.Title,
			Country:   a.Country,
			EventTime: a.EventTime,
			EmittedAt: a.EmittedAt,
		})
	}
	writeJSON(w, AlertsResponse{Alerts: alerts})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, HealthResponse{
		Status:    "ok",
		StartedAt: s.startedAt,
		Widgets:   len(s.board.Snapshot()),
	})
}
