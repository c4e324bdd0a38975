package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/valyala/fasthttp"

	"github.com/omerorhan/stay-pricing/internal/config"
	"github.com/omerorhan/stay-pricing/internal/handler"
	"github.com/omerorhan/stay-pricing/internal/service"
	"github.com/omerorhan/stay-pricing/internal/storage"
)

func main() {
	configPath := flag.String("config", "configs/quoted.yaml", "path to config file")
	envPath := flag.String("env", ".env", "optional env file loaded before the config")
	flag.Parse()

	// Amounts go out as JSON numbers, not strings
	decimal.MarshalJSONWithoutQuotes = true

	if err := config.LoadEnv(*envPath); err != nil {
		slog.Error("failed to load env file", "error", err)
		os.Exit(1)
	}

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.Logging.Level),
	}))
	slog.SetDefault(logger)

	logger.Info("starting quoted",
		"config", *configPath,
		"addr", cfg.Server.Addr,
		"source", cfg.Inventory.Source,
		"distributed", cfg.Redis.Distributed,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := []service.ServiceOption{
		service.WithInventoryRefreshInterval(cfg.Inventory.RefreshInterval),
		service.WithFetchTimeout(cfg.Inventory.FetchTimeout),
		service.WithLogging(cfg.Logging.Enabled),
		service.WithLogger(logger),
	}
	if cfg.Redis.URL != "" {
		opts = append(opts, service.WithRedisConfig(cfg.Redis.URL))
	}
	if cfg.Redis.Distributed {
		opts = append(opts,
			service.WithDistributed(cfg.Redis.PodID),
			service.WithLeaderTTL(cfg.Redis.LeaderTTL),
			service.WithSyncInterval(cfg.Redis.SyncInterval),
		)
	}

	switch cfg.Inventory.Source {
	case config.SourcePostgres:
		logger.Info("connecting to database",
			"host", cfg.Database.Host,
			"port", cfg.Database.Port,
			"database", cfg.Database.Name,
		)
		pool, err := storage.Connect(ctx, cfg.Database)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		opts = append(opts, service.WithInventorySource(storage.NewPostgresSource(pool, storage.DefaultSnapshotValidity)))
	default:
		opts = append(opts, service.WithInventoryBaseUrl(cfg.Inventory.BaseURL, cfg.Inventory.Auth))
	}

	svc, err := service.NewPricingService(opts...)
	if err != nil {
		logger.Error("failed to create pricing service", "error", err)
		os.Exit(1)
	}
	defer svc.Stop()

	if err := svc.Initialize(); err != nil {
		logger.Error("failed to initialize pricing service", "error", err)
		os.Exit(1)
	}

	h := handler.New(svc, logger, cfg.Server.WriteTimeout)
	server := &fasthttp.Server{
		Handler:      h.Handle,
		Name:         "quoted",
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.Server.Addr)
		errCh <- server.ListenAndServe(cfg.Server.Addr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			logger.Error("http server error", "error", err)
		}
	}

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http server shutdown", "error", err)
	}

	logger.Info("quoted stopped")
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
