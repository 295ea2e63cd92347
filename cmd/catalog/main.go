package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/MiguelCoelho27/UALFlix/internal/cache"
	"github.com/MiguelCoelho27/UALFlix/internal/catalog"
	"github.com/MiguelCoelho27/UALFlix/internal/config"
	"github.com/MiguelCoelho27/UALFlix/internal/files"
	"github.com/MiguelCoelho27/UALFlix/internal/handler"
	"github.com/MiguelCoelho27/UALFlix/internal/health"
	"github.com/MiguelCoelho27/UALFlix/internal/metrics"
	"github.com/MiguelCoelho27/UALFlix/internal/replication"
	"github.com/MiguelCoelho27/UALFlix/internal/server"
	"github.com/MiguelCoelho27/UALFlix/internal/store"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting UALFlix catalog service",
		zap.String("server_host", cfg.Server.Host),
		zap.Int("server_port", cfg.Server.Port),
		zap.String("primary_host", cfg.Primary.Host),
		zap.String("secondary_host", cfg.Secondary.Host),
		zap.String("redis_host", cfg.Redis.Host))

	// Primary store: authoritative, target of all request-path writes.
	primary, err := store.NewPostgresStore(
		"primary",
		cfg.Primary.Host,
		cfg.Primary.Port,
		cfg.Primary.Database,
		cfg.Primary.User,
		cfg.Primary.Password,
		cfg.Primary.MaxConnections,
		cfg.Primary.MinConnections,
		logger,
	)
	if err != nil {
		logger.Fatal("failed to initialize primary store", zap.Error(err))
	}
	logger.Info("primary store initialized")

	// Secondary store: read mirror, written only by replication.
	secondary, err := store.NewPostgresStore(
		"secondary",
		cfg.Secondary.Host,
		cfg.Secondary.Port,
		cfg.Secondary.Database,
		cfg.Secondary.User,
		cfg.Secondary.Password,
		cfg.Secondary.MaxConnections,
		cfg.Secondary.MinConnections,
		logger,
	)
	if err != nil {
		logger.Fatal("failed to initialize secondary store", zap.Error(err))
	}
	logger.Info("secondary store initialized")

	videoCache, err := cache.NewRedisCache(
		cfg.Redis.Host,
		cfg.Redis.Port,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Cache.TTL,
		cfg.Cache.MaxRanked,
		logger,
	)
	if err != nil {
		logger.Fatal("failed to initialize cache", zap.Error(err))
	}
	logger.Info("cache initialized",
		zap.Duration("ttl", cfg.Cache.TTL),
		zap.Int("max_ranked", cfg.Cache.MaxRanked))

	queue := replication.NewQueue(cfg.Replication.QueueCapacity, logger)
	worker := replication.NewWorker(queue, secondary, cfg.Replication.OpTimeout, logger)

	m := metrics.New(queue.Depth)

	auditor := catalog.NewAuditor(primary, secondary, cfg.Consistency.SampleSize, cfg.Consistency.OpTimeout, m, logger)

	var remover files.Remover = files.NopRemover{}
	if cfg.Upload.URL != "" {
		remover = files.NewHTTPRemover(cfg.Upload.URL, cfg.Upload.Timeout, logger)
		logger.Info("upload service cleanup enabled", zap.String("url", cfg.Upload.URL))
	}

	coordinator := catalog.NewCoordinator(primary, secondary, videoCache, queue, auditor, logger, catalog.Options{
		OpTimeout: cfg.Replication.OpTimeout,
		ListLimit: cfg.Cache.ListLimit,
		Files:     remover,
		Metrics:   m,
	})
	logger.Info("coordinator initialized")

	// Root context: cancelling it stops the worker and the auditor.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker.Start(ctx)
	if cfg.Consistency.Periodic {
		go auditor.Run(ctx, cfg.Consistency.CheckInterval)
	}

	if cfg.Metrics.Enabled {
		go func() {
			metricsMux := http.NewServeMux()
			metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
			addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
			logger.Info("starting metrics server", zap.String("address", addr))
			if err := http.ListenAndServe(addr, metricsMux); err != nil {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	checker := health.NewChecker(primary, secondary, videoCache, logger)
	handlers := handler.NewHandlers(coordinator, cfg.Server.WriteTimeout, logger)
	srv := server.New(cfg, handlers, checker, logger)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("server error", zap.Error(err))
	case sig := <-sigChan:
		logger.Info("received signal", zap.String("signal", sig.String()))
	}

	logger.Info("shutting down gracefully")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown failed", zap.Error(err))
	}

	// Stop background work and wait for the worker loop to exit.
	cancel()
	select {
	case <-worker.Stopped():
		logger.Info("replication worker stopped")
	case <-time.After(5 * time.Second):
		logger.Warn("replication worker stop timeout")
	}

	primary.Close()
	secondary.Close()
	if err := videoCache.Close(); err != nil {
		logger.Warn("failed to close cache client", zap.Error(err))
	}

	logger.Info("catalog service stopped")
}

// newLogger builds the process logger from config.
func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
