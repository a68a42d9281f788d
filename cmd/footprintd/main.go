package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/footprint-data/internal/config"
	"github.com/rickgao/footprint-data/internal/database"
	"github.com/rickgao/footprint-data/internal/dispatch"
	"github.com/rickgao/footprint-data/internal/engine"
	"github.com/rickgao/footprint-data/internal/feed"
	"github.com/rickgao/footprint-data/internal/server"
	"github.com/rickgao/footprint-data/internal/store"
	"github.com/rickgao/footprint-data/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/footprintd.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting footprintd",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	loc, err := time.LoadLocation(cfg.Aggregation.Timezone)
	if err != nil {
		logger.Error("failed to load timezone", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instrument", cfg.Instrument.Symbol,
		"feed_url", cfg.Feed.URL,
		"interval_minutes", cfg.Aggregation.IntervalMinutes,
		"tick_size", cfg.Aggregation.TickSize,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	candleStore := store.NewPostgres(pool, cfg.Instrument.Symbol, loc)
	if err := candleStore.Init(ctx); err != nil {
		logger.Error("failed to init candle store", "error", err)
		os.Exit(1)
	}
	logger.Info("database connected")

	// Persist worker
	worker := store.NewWorker(store.WorkerConfig{
		QueueSize:     cfg.Persist.QueueSize,
		RetryInterval: cfg.Persist.RetryInterval,
	}, candleStore, logger)

	// Dispatcher hub
	hub := dispatch.NewHub(dispatch.Config{
		QueueSize: cfg.Stream.ViewerQueueSize,
	}, logger)

	// Aggregation engine
	agg := engine.New(engine.Config{
		IntervalMinutes: cfg.Aggregation.IntervalMinutes,
		TickSize:        cfg.Aggregation.TickSize,
		LotSize:         cfg.Aggregation.LotSize,
		Location:        loc,
	}, worker, hub, logger)

	// Hydrate in-memory state from the store
	candles, err := candleStore.LoadAll(ctx, cfg.Aggregation.TickSize)
	if err != nil {
		logger.Error("failed to load candles", "error", err)
		os.Exit(1)
	}
	agg.Hydrate(candles)

	// Feed manager
	feedMgr := feed.NewManager(feed.ManagerConfig{
		URL:                cfg.Feed.URL,
		CorrelationID:      cfg.Feed.CorrelationID,
		ExchangeType:       cfg.Instrument.ExchangeType,
		Token:              cfg.Instrument.Token,
		ReconnectBaseDelay: cfg.Feed.ReconnectBaseDelay,
		ReconnectMaxDelay:  cfg.Feed.ReconnectMaxDelay,
		PingTimeout:        cfg.Feed.PingTimeout,
		WriteTimeout:       cfg.Feed.WriteTimeout,
		BufferSize:         cfg.Feed.BufferSize,
	}, feed.NewNormalizer(loc), logger)

	// HTTP server
	httpServer := server.New(server.Config{
		Port:      cfg.Server.Port,
		Heartbeat: cfg.Stream.Heartbeat,
	}, agg, hub, logger)

	if err := worker.Start(ctx); err != nil {
		logger.Error("failed to start persist worker", "error", err)
		os.Exit(1)
	}
	if err := feedMgr.Start(ctx); err != nil {
		logger.Error("failed to start feed manager", "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)

	// Single processing goroutine: the only writer to the engine.
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case tick := <-feedMgr.Ticks():
				agg.Ingest(tick)
			}
		}
	})

	g.Go(func() error {
		return httpServer.Start()
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		httpServer.Stop(shutdownCtx)
		feedMgr.Stop(shutdownCtx)
		worker.Stop(shutdownCtx)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("runtime error", "error", err)
		os.Exit(1)
	}

	logger.Info("footprintd stopped")
}
