package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pulseboard/internal/alert"
	"pulseboard/internal/board"
	"pulseboard/internal/config"
	"pulseboard/internal/fetch"
	"pulseboard/internal/flash"
	"pulseboard/internal/httpapi"
	"pulseboard/internal/session"
	"pulseboard/internal/store"
	"pulseboard/internal/util"
	"pulseboard/internal/widget"
)

func main() {
	cfgPath := "config/pulseboard.yaml"
	if p := os.Getenv("PULSEBOARD_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	sess := session.Open(cfg.Session.File, logger)
	client := fetch.NewClient(
		cfg.Backend.BaseURL,
		cfg.Backend.Timeout(),
		cfg.Backend.RatePerSec,
		cfg.Backend.RateBurst,
		sess,
		logger,
	)

	db, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open sqlite store: %v", err)
	}
	defer db.Close()

	b := board.New()
	reg := widget.NewRegistry(client, b, cfg.Widgets, logger)

	// Auth expiry is handled globally: stop every widget, the way a login
	// redirect unmounts the whole dashboard. Widgets never see the failure.
	sess.OnExpire(func() {
		logger.Warn("session expired, stopping widget polling")
		reg.Stop()
	})

	notifier := &alert.LogNotifier{Log: logger}
	engine := alert.NewEngine(alert.DefaultWindow, notifier, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg.OnCalendar(func(events []widget.CalendarEvent) {
		n := engine.Evaluate(ctx, events)
		if n == nil {
			return
		}
		rec := store.AlertRecord{
			ID:        n.ID,
			EventID:   n.EventID,
			Title:     n.Title,
			Country:   n.Country,
			EventTime: n.EventTime,
			EmittedAt: n.EmittedAt,
		}
		if err := db.SaveAlert(ctx, rec); err != nil {
			logger.Warn("persisting alert", "event_id", n.EventID, "error", err)
		}
	})

	archiver := store.NewArchiver(db, store.NewNewsArchive(cfg.Storage.DataDir), logger)
	go archiver.Run(ctx, b)

	var flashSource flash.Source = &flash.BackendSource{Client: client}
	if cfg.Alpaca.APIKey != "" && cfg.Alpaca.APISecret != "" {
		logger.Info("flash headlines sourced from alpaca")
		flashSource = flash.NewAlpacaSource(
			cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL,
			[]string{cfg.Widgets.SignalSymbol},
		)
	}
	gen := flash.NewGenerator(flashSource, b, flash.DefaultInjectEvery, logger)
	go gen.Run(ctx)

	reg.Start(ctx)
	defer reg.Stop()

	api := httpapi.NewServer(b, db, logger)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: api.Handler()}

	go func() {
		logger.Info("board API listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
}
