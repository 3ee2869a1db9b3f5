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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/example/bookhive/internal/config"
	httptransport "github.com/example/bookhive/internal/http"
	"github.com/example/bookhive/internal/library"
	"github.com/example/bookhive/internal/metrics"
	"github.com/example/bookhive/internal/persistence/memory"
	"github.com/example/bookhive/internal/persistence/sqlite"
	"github.com/example/bookhive/internal/seed"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	store, cleanup, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	circulationMetrics := metrics.NewCirculation(registry)

	lib := library.New(store, library.Options{
		LoanPeriodDays: cfg.LoanPeriodDays,
		DailyFineCents: cfg.DailyFineCents,
		BorrowLimit:    cfg.BorrowLimit,
		Metrics:        circulationMetrics,
		Logger:         logger,
	})

	if cfg.Seed {
		if err := seed.Run(ctx, lib, time.Now()); err != nil {
			logger.Error("failed to seed demo data", "error", err)
			os.Exit(1)
		}
		logger.Info("demo data seeded")
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Users:       httptransport.NewUserHandler(lib, logger),
		Books:       httptransport.NewBookHandler(lib, logger),
		Circulation: httptransport.NewCirculationHandler(lib, logger),
		Reports:     httptransport.NewReportHandler(lib, logger),
		Metrics:     metrics.Handler(registry),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("bookhive API listening", "addr", server.Addr, "storage", cfg.Storage)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func openStore(cfg config.Config, logger *slog.Logger) (library.Store, func(), error) {
	switch cfg.Storage {
	case config.StorageSQLite:
		store, err := sqlite.Open(cfg.SQLiteDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := store.Migrate(context.Background()); err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		cleanup := func() {
			if err := store.Close(); err != nil {
				logger.Error("failed to close storage", "error", err)
			}
		}
		return store, cleanup, nil
	default:
		return memory.NewStore(), func() {}, nil
	}
}
