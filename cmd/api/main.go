package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/tally/internal/config"
	"github.com/MrJamesThe3rd/tally/internal/database"
	"github.com/MrJamesThe3rd/tally/internal/estimate"
	estimateStore "github.com/MrJamesThe3rd/tally/internal/estimate/store"
	tallyHttp "github.com/MrJamesThe3rd/tally/internal/http"
	dashboardHandler "github.com/MrJamesThe3rd/tally/internal/http/dashboard"
	estimateHandler "github.com/MrJamesThe3rd/tally/internal/http/estimate"
	importHandler "github.com/MrJamesThe3rd/tally/internal/http/importcsv"
	prefHandler "github.com/MrJamesThe3rd/tally/internal/http/preferences"
	reportHandler "github.com/MrJamesThe3rd/tally/internal/http/report"
	"github.com/MrJamesThe3rd/tally/internal/importer"
	"github.com/MrJamesThe3rd/tally/internal/preferences"
	prefStore "github.com/MrJamesThe3rd/tally/internal/preferences/store"
	"github.com/MrJamesThe3rd/tally/internal/report"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.ConnectionString())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	var (
		estimateService = estimate.NewService(estimateStore.New(db),
			estimate.WithClock(func() time.Time { return time.Now().In(loc) }))
		importService = importer.NewService(estimateService)
		reportService = report.NewService(estimateService, loc)
		prefService   = preferences.NewService(prefStore.New(db))
	)

	if err := estimateService.Load(ctx); err != nil {
		slog.Warn("initial load failed, waiting for the change stream", "error", err)
	}

	var (
		estimateH  = estimateHandler.NewHandler(estimateService, importService)
		dashboardH = dashboardHandler.NewHandler(estimateService, loc)
		importH    = importHandler.NewHandler(importService)
		reportH    = reportHandler.NewHandler(reportService)
		prefH      = prefHandler.NewHandler(prefService, loc)
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      tallyHttp.New(cfg.Server.CORSOrigins, estimateH, dashboardH, importH, reportH, prefH),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	listener := estimateStore.NewListener(cfg.ConnectionString(),
		estimateStore.WithBackoff(cfg.Stream.Reconnect),
	)
	events := make(chan estimate.Event, 64)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(events)
		return listener.Run(gctx, events)
	})

	g.Go(func() error {
		return estimateService.Watch(gctx, events)
	})

	g.Go(func() error {
		slog.Info("starting server", "name", cfg.App.Name, "addr", srv.Addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	slog.Info("server stopped")

	return nil
}
