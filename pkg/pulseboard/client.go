// Package pulseboard provides a Go SDK for the pulseboard daemon's local API.
package pulseboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Widget is one widget's published state.
type Widget struct {
	Name          string          `json:"name"`
	Status        string          `json:"status"`
	Data          json.RawMessage `json:"data"`
	HasData       bool            `json:"has_data"`
	LastError     string          `json:"last_error"`
	LastFetchedAt time.Time       `json:"last_fetched_at"`
}

// Board is the full dashboard state.
type Board struct {
	GeneratedAt time.Time `json:"generated_at"`
	Widgets     []Widget  `json:"widgets"`
}

// Alert is one archived news alert.
type Alert struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Title     string    `json:"title"`
	Country   string    `json:"country"`
	EventTime time.Time `json:"event_time"`
	EmittedAt time.Time `json:"emitted_at"`
}

// Health reports daemon liveness.
type Health struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Widgets   int       `json:"widgets"`
}

// Client talks to a running pulseboard daemon.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new pulseboard API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// GetBoard retrieves the full dashboard state.
func (c *Client) GetBoard(ctx context.Context) (*Board, error) {
	var b Board
	if err := c.get(ctx, "/api/board", &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// GetWidget retrieves one widget's state.
func (c *Client) GetWidget(ctx context.Context, name string) (*Widget, error) {
	var resp struct {
		Widget Widget `json:"widget"`
	}
	if err := c.get(ctx, "/api/board/"+name, &resp); err != nil {
		return nil, err
	}
	return &resp.Widget, nil
}

// GetAlerts retrieves the recent alert history.
func (c *Client) GetAlerts(ctx context.Context, limit int) ([]Alert, error) {
	path := "/api/alerts"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	var resp struct {
		Alerts []Alert `json:"alerts"`
	}
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Alerts, nil
}

// GetHealth retrieves daemon liveness.
func (c *Client) GetHealth(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.get(ctx, "/api/health", &h); err != nil {
		return nil, err
	}
	return &h, nil
}
