// Package widget binds each dashboard widget to one polled resource: an
// endpoint descriptor, a refresh interval, and a transform mapping the raw
// backend payload into the shape the board serves. Transforms are total over
// the documented payload shape: missing numeric fields come through as zero,
// missing arrays as empty, and nothing panics on a malformed item.
package widget

import "time"

// Default refresh intervals per widget, matching the cadence each surface
// is served at.
const (
	IntervalChallengeStats = 5 * time.Second
	IntervalWatchlist      = 30 * time.Second
	IntervalTrends         = 30 * time.Second
	IntervalHeatmap        = 60 * time.Second
	IntervalGlobal         = 5 * time.Second
	IntervalGlobalStats    = 300 * time.Second
	IntervalCalendar       = 60 * time.Second
	IntervalAISignal       = 30 * time.Second
	IntervalExpertSignals  = 30 * time.Second
)

// Widget names, used as board keys, archive keys, and config keys.
const (
	NameChallengeStats = "challenge_stats"
	NameWatchlist      = "watchlist"
	NameTrends         = "trends"
	NameHeatmap        = "heatmap"
	NameGlobal         = "global"
	NameGlobalStats    = "global_stats"
	NameCalendar       = "news_calendar"
	NameFlash          = "news_flash"
	NameAISignal       = "ai_signal"
	NameExpertSignals  = "expert_signals"
	NameChatHistory    = "chat_history"
)

// ChallengeStats is the account/challenge state widget payload.
type ChallengeStats struct {
	Balance float64 `json:"balance"`
	Equity  float64 `json:"equity"`
	Profit  float64 `json:"profit"`
}

// WatchlistItem is one instrument row in the market watchlist.
type WatchlistItem struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Price     float64 `json:"price"`
	Change    float64 `json:"change"`
	ChangePct float64 `json:"change_pct"`
}

// WatchlistGroup is a category bucket of watchlist items.
type WatchlistGroup struct {
	Category string          `json:"category"`
	Icon     string          `json:"icon"`
	Items    []WatchlistItem `json:"items"`
}

// TrendItem is one entry in the market trends widget.
type TrendItem struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	ChangePct float64 `json:"change_pct"`
	Sentiment string  `json:"sentiment"`
	Impact    string  `json:"impact"` // derived from Sentiment, not sent by the backend
}

// HeatmapCell is one tile in the market heatmap.
type HeatmapCell struct {
	Symbol    string  `json:"symbol"`
	Sector    string  `json:"sector"`
	ChangePct float64 `json:"change_pct"`
}

// GlobalSnapshot is the fast-cadence global market widget payload.
type GlobalSnapshot struct {
	MarketOpen bool    `json:"market_open"`
	Sentiment  string  `json:"sentiment"`
	Volatility float64 `json:"volatility"`
}

// GlobalStats is the slow-cadence aggregate stats payload.
type GlobalStats struct {
	Traders     int64   `json:"traders"`
	VolumeUSD   float64 `json:"volume_usd"`
	OpenTrades  int64   `json:"open_trades"`
	AvgWinRate  float64 `json:"avg_win_rate"`
	TopCategory string  `json:"top_category"`
}

// CalendarEvent is one economic-calendar entry. Impact and Status use the
// backend's uppercase vocabulary ("HIGH", "UPCOMING", ...).
type CalendarEvent struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Country  string    `json:"country"`
	Impact   string    `json:"impact"`
	Status   string    `json:"status"`
	Time     time.Time `json:"time"`
	Forecast string    `json:"forecast"`
	Previous string    `json:"previous"`
}

// FlashItem is one market news flash headline. Synthetic marks items injected
// by the local generator rather than fetched from the backend.
type FlashItem struct {
	ID        string    `json:"id"`
	Headline  string    `json:"headline"`
	Source    string    `json:"source"`
	Time      time.Time `json:"time"`
	Synthetic bool      `json:"synthetic"`
}

// AISignal is the AI signal widget payload.
type AISignal struct {
	Symbol     string  `json:"symbol"`
	Direction  string  `json:"direction"`
	Confidence float64 `json:"confidence"`
	Text       string  `json:"text"`
}

// ExpertSignal is one published expert trade idea.
type ExpertSignal struct {
	Author     string  `json:"author"`
	Symbol     string  `json:"symbol"`
	Direction  string  `json:"direction"`
	Entry      float64 `json:"entry"`
	StopLoss   float64 `json:"stop_loss"`
	TakeProfit float64 `json:"take_profit"`
}

// ChatMessage is one entry of the AI chat history, fetched once at startup.
type ChatMessage struct {
	Role string    `json:"role"`
	Text string    `json:"text"`
	Time time.Time `json:"time"`
}
