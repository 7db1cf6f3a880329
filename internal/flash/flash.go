// Package flash drives the market news flash widget. The backend feed is
// fetched once at startup; after that, items are injected locally on a fixed
// cadence to keep the ticker moving between real updates. Injected items are
// always marked synthetic so they can never be mistaken for backend data.
package flash

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"pulseboard/internal/board"
	"pulseboard/internal/fetch"
	"pulseboard/internal/widget"
)

// DefaultInjectEvery is the synthetic injection cadence.
const DefaultInjectEvery = 12 * time.Second

// Source supplies the headline pool the generator rotates through.
type Source interface {
	Headlines(ctx context.Context) ([]widget.FlashItem, error)
}

// BackendSource pulls the initial pool from the backend's market news
// endpoint. It is called once; the flash feed is not re-fetched.
type BackendSource struct {
	Client *fetch.Client
}

func (s *BackendSource) Headlines(ctx context.Context) ([]widget.FlashItem, error) {
	var items []widget.FlashItem
	err := s.Client.GetJSON(ctx, fetch.Descriptor{Path: "/api/news/market"}, &items)
	return items, err
}

// Generator owns the flash widget's board entry.
type Generator struct {
	source Source
	board  *board.Board
	every  time.Duration
	log    *slog.Logger

	pool []widget.FlashItem
	feed []widget.FlashItem
	next int
}

// NewGenerator creates a Generator publishing to b on the given cadence
// (0 uses DefaultInjectEvery).
func NewGenerator(source Source, b *board.Board, every time.Duration, log *slog.Logger) *Generator {
	if every <= 0 {
		every = DefaultInjectEvery
	}
	return &Generator{source: source, board: b, every: every, log: log}
}

// Run loads the pool, publishes it as the initial feed, then injects one
// synthetic item per tick until ctx is cancelled.
func (g *Generator) Run(ctx context.Context) {
	pool, err := g.source.Headlines(ctx)
	if err != nil {
		g.log.Warn("loading flash headline pool", "error", err)
	}
	g.pool = pool
	g.feed = widget.RecentFlash(pool)
	g.publish()

	if len(g.pool) == 0 {
		g.log.Info("flash generator idle, empty headline pool")
		return
	}

	ticker := time.NewTicker(g.every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.inject(time.Now())
		}
	}
}

// inject synthesizes the next item from the pool and republishes the feed.
func (g *Generator) inject(now time.Time) {
	src := g.pool[g.next%len(g.pool)]
	g.next++

	item := widget.FlashItem{
		ID:        uuid.New().String(),
		Headline:  src.Headline,
		Source:    src.Source,
		Time:      now,
		Synthetic: true,
	}
	g.feed = widget.RecentFlash(append(g.feed, item))
	g.publish()
}

func (g *Generator) publish() {
	g.board.Update(board.WidgetState{
		Name:          widget.NameFlash,
		Status:        "ready",
		Data:          g.feed,
		HasData:       true,
		LastFetchedAt: time.Now(),
	})
}
