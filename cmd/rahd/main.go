package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/rah-labs/rah-core/internal/chat"
	"github.com/rah-labs/rah-core/internal/config"
	"github.com/rah-labs/rah-core/internal/delegation"
	"github.com/rah-labs/rah-core/internal/graph"
	"github.com/rah-labs/rah-core/internal/provider"
	"github.com/rah-labs/rah-core/internal/telemetry"
	"github.com/rah-labs/rah-core/internal/toolpolicy"
	"github.com/rah-labs/rah-core/internal/tools"
	"github.com/rah-labs/rah-core/internal/usagestore"
)

var version = "dev"

func main() {
	configDir := flag.String("config", "configs", "path to configuration directory")
	flag.Parse()

	logLevel := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	loader := config.NewLoader(*configDir, logger)
	if err := loader.Load(); err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := loader.Watch(); err != nil {
		logger.Warn("failed to start config watcher", "error", err)
	}
	cfg := loader.Config()
	logLevel.Set(telemetry.ParseLevel(cfg.Telemetry.LogLevel))

	// Postgres backs the usage log only; the chat path works without it.
	var dbPool *pgxpool.Pool
	pool, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		logger.Warn("database pool init failed (usage logging disabled)", "error", err)
	} else if err := pool.Ping(context.Background()); err != nil {
		logger.Warn("database not reachable (usage logging disabled)", "error", err)
		pool.Close()
	} else {
		dbPool = pool
		defer dbPool.Close()
		logger.Info("database connected")
	}

	// Redis backs delegation tracking; also optional.
	var rdb *redis.Client
	if len(cfg.Redis.Addresses) > 0 && cfg.Redis.Addresses[0] != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addresses[0],
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis not reachable (delegation tracking disabled)", "error", err)
			rdb = nil
		} else {
			logger.Info("redis connected")
		}
	}

	metrics := telemetry.NewMetrics()
	debugCache := cfg.Telemetry.DebugCache || os.Getenv("DEBUG_CACHE") == "1"
	cacheStats := telemetry.NewCacheStatsRecorder(metrics, debugCache)

	// Env overrides win; the configured base URL is the fallback hint.
	graphClient := graph.NewClient(graph.ResolveBaseURL(cfg.Graph.BaseURL), cfg.Graph.Timeout)
	registry := tools.NewRegistry(graphClient, tools.VariantHTTP)

	policy := toolpolicy.NewEvaluator(func() config.PolicyConfig {
		return loader.Config().Policy
	})
	if err := policy.Load(); err != nil {
		logger.Error("failed to load tool policies", "error", err)
		os.Exit(1)
	}
	loader.OnReload(func() {
		logLevel.Set(telemetry.ParseLevel(loader.Config().Telemetry.LogLevel))
		if err := policy.Load(); err != nil {
			logger.Error("tool policy reload failed", "error", err)
		}
	})

	handler := chat.NewHandler(
		loader,
		provider.NewResolver(cfg.Chat.ProviderTimeout),
		registry,
		policy,
		metrics,
		cacheStats,
		usagestore.NewStore(dbPool),
		delegation.NewStore(rdb),
	)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	metricsSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Telemetry.MetricsPort),
		Handler: promhttp.Handler(),
	}
	go func() {
		logger.Info("metrics server starting", "addr", metricsSrv.Addr)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("rahd starting", "addr", addr, "version", version, "graph_base_url", graphClient.BaseURL())
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	metricsSrv.Shutdown(ctx)
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("rahd stopped")
}
