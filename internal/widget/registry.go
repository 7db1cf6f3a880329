package widget

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"pulseboard/internal/board"
	"pulseboard/internal/config"
	"pulseboard/internal/fetch"
	"pulseboard/internal/poll"
)

// Registry owns one polled resource per dashboard widget and mirrors every
// state change into the shared board.
type Registry struct {
	client *fetch.Client
	board  *board.Board
	cfg    config.Widgets
	log    *slog.Logger

	mu       sync.Mutex
	starters []func(ctx context.Context)
	stoppers []func()

	calendarMu    sync.Mutex
	calendarHooks []func([]CalendarEvent)
}

// NewRegistry builds the full widget set against the given backend client.
// Nothing fetches until Start.
func NewRegistry(client *fetch.Client, b *board.Board, cfg config.Widgets, log *slog.Logger) *Registry {
	reg := &Registry{
		client: client,
		board:  b,
		cfg:    cfg,
		log:    log,
	}

	challengeQuery := url.Values{}
	challengeQuery.Set("email", cfg.ChallengeEmail)
	register(reg, NameChallengeStats,
		fetch.Descriptor{Path: "/api/challenge", Query: challengeQuery},
		poll.Schedule{Interval: cfg.Interval(NameChallengeStats, IntervalChallengeStats), Immediate: true},
		func(raw []byte) (ChallengeStats, error) {
			var v ChallengeStats
			err := decode(raw, &v)
			return v, err
		})

	register(reg, NameWatchlist,
		fetch.Descriptor{Path: "/api/trading/market-data/watchlist"},
		poll.Schedule{Interval: cfg.Interval(NameWatchlist, IntervalWatchlist), Immediate: true},
		func(raw []byte) ([]WatchlistGroup, error) {
			var items []WatchlistItem
			if err := decode(raw, &items); err != nil {
				return nil, err
			}
			return GroupWatchlist(items), nil
		})

	register(reg, NameTrends,
		fetch.Descriptor{Path: "/api/trading/market-data/trends"},
		poll.Schedule{Interval: cfg.Interval(NameTrends, IntervalTrends), Immediate: true},
		func(raw []byte) ([]TrendItem, error) {
			var items []TrendItem
			if err := decode(raw, &items); err != nil {
				return nil, err
			}
			return TopTrends(items), nil
		})

	register(reg, NameHeatmap,
		fetch.Descriptor{Path: "/api/trading/market-data/heatmap"},
		poll.Schedule{Interval: cfg.Interval(NameHeatmap, IntervalHeatmap), Immediate: true},
		func(raw []byte) ([]HeatmapCell, error) {
			var cells []HeatmapCell
			err := decode(raw, &cells)
			return cells, err
		})

	register(reg, NameGlobal,
		fetch.Descriptor{Path: "/api/trading/market-data/global"},
		poll.Schedule{Interval: cfg.Interval(NameGlobal, IntervalGlobal), Immediate: true},
		func(raw []byte) (GlobalSnapshot, error) {
			var v GlobalSnapshot
			err := decode(raw, &v)
			return v, err
		})

	register(reg, NameGlobalStats,
		fetch.Descriptor{Path: "/api/trading/market-data/global-stats"},
		poll.Schedule{Interval: cfg.Interval(NameGlobalStats, IntervalGlobalStats), Immediate: true},
		func(raw []byte) (GlobalStats, error) {
			var v GlobalStats
			err := decode(raw, &v)
			return v, err
		})

	calendar := register(reg, NameCalendar,
		fetch.Descriptor{Path: "/api/news/calendar"},
		poll.Schedule{Interval: cfg.Interval(NameCalendar, IntervalCalendar), Immediate: true},
		func(raw []byte) ([]CalendarEvent, error) {
			var events []CalendarEvent
			err := decode(raw, &events)
			return events, err
		})
	reg.watchCalendar(calendar)

	register(reg, NameAISignal,
		fetch.Descriptor{Method: http.MethodPost, Path: "/api/ai/signal", Body: map[string]string{"symbol": cfg.SignalSymbol}},
		poll.Schedule{Interval: cfg.Interval(NameAISignal, IntervalAISignal), Immediate: true},
		func(raw []byte) (AISignal, error) {
			var v AISignal
			err := decode(raw, &v)
			return v, err
		})

	register(reg, NameExpertSignals,
		fetch.Descriptor{Path: "/api/trading/expert-signals"},
		poll.Schedule{Interval: cfg.Interval(NameExpertSignals, IntervalExpertSignals), Immediate: true},
		func(raw []byte) ([]ExpertSignal, error) {
			var signals []ExpertSignal
			err := decode(raw, &signals)
			return signals, err
		})

	chatQuery := url.Values{}
	chatQuery.Set("user_id", cfg.ChatUserID)
	register(reg, NameChatHistory,
		fetch.Descriptor{Path: "/api/ai/chat/history", Query: chatQuery},
		poll.Schedule{Interval: 0, Immediate: true}, // once at startup
		func(raw []byte) ([]ChatMessage, error) {
			var msgs []ChatMessage
			err := decode(raw, &msgs)
			return msgs, err
		})

	return reg
}

// Start launches every widget's poll loop.
func (r *Registry) Start(ctx context.Context) {
	r.mu.Lock()
	starters := r.starters
	r.mu.Unlock()
	for _, start := range starters {
		start(ctx)
	}
}

// Stop cancels every widget's poll loop and subscription.
func (r *Registry) Stop() {
	r.mu.Lock()
	stoppers := r.stoppers
	r.mu.Unlock()
	for _, stop := range stoppers {
		stop()
	}
}

// OnCalendar registers a hook invoked with each successfully fetched
// calendar payload, in poll order.
func (r *Registry) OnCalendar(fn func([]CalendarEvent)) {
	r.calendarMu.Lock()
	r.calendarHooks = append(r.calendarHooks, fn)
	r.calendarMu.Unlock()
}

func (r *Registry) watchCalendar(res *poll.Resource[[]CalendarEvent]) {
	ch, unsub := res.Subscribe()
	r.mu.Lock()
	r.stoppers = append(r.stoppers, unsub)
	r.mu.Unlock()

	go func() {
		for st := range ch {
			if st.Status != poll.StatusReady || !st.HasValue {
				continue
			}
			r.calendarMu.Lock()
			hooks := append([]func([]CalendarEvent){}, r.calendarHooks...)
			r.calendarMu.Unlock()
			for _, fn := range hooks {
				fn(st.Value)
			}
		}
	}()
}

// decode unmarshals raw JSON, reporting failures as malformed payloads.
func decode(raw []byte, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %w", fetch.ErrMalformed, err)
	}
	return nil
}

// register builds one widget's resource: descriptor + schedule + transform,
// with an optional config seed, and mirrors its state into the board.
func register[V any](reg *Registry, name string, d fetch.Descriptor, sched poll.Schedule, transform func([]byte) (V, error)) *poll.Resource[V] {
	fetchFn := func(ctx context.Context) (V, error) {
		raw, err := reg.client.Do(ctx, d)
		if err != nil {
			var zero V
			return zero, err
		}
		return transform(raw)
	}

	var opts []poll.Option[V]
	opts = append(opts, poll.WithLogger[V](reg.log))
	if seed, ok := reg.cfg.Seeds[name]; ok && seed != "" {
		if v, err := transform([]byte(seed)); err == nil {
			// Non-empty seed: the widget serves it and never fetches.
			opts = append(opts, poll.WithSeed(v))
		} else {
			reg.log.Warn("ignoring invalid widget seed", "widget", name, "error", err)
		}
	}

	res := poll.New(name, fetchFn, sched, opts...)

	ch, unsub := res.Subscribe()
	go func() {
		for st := range ch {
			reg.board.Update(toWidgetState(name, st))
		}
	}()

	reg.mu.Lock()
	reg.starters = append(reg.starters, res.Start)
	reg.stoppers = append(reg.stoppers, func() {
		res.Stop()
		unsub()
	})
	reg.mu.Unlock()

	return res
}

func toWidgetState[V any](name string, st poll.State[V]) board.WidgetState {
	ws := board.WidgetState{
		Name:          name,
		Status:        st.Status.String(),
		HasData:       st.HasValue,
		LastFetchedAt: st.LastFetchedAt,
	}
	if st.HasValue {
		ws.Data = st.Value
	}
	if st.LastErr != nil {
		ws.LastError = st.LastErr.Error()
	}
	return ws
}
