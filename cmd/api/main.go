package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/aira-ai/control-tower/cmd/mainconfig"
	"github.com/aira-ai/control-tower/internal/api/router"
	"github.com/aira-ai/control-tower/internal/call"
	appconfig "github.com/aira-ai/control-tower/internal/config"
	"github.com/aira-ai/control-tower/internal/dialog"
	"github.com/aira-ai/control-tower/internal/fsm"
	"github.com/aira-ai/control-tower/internal/http/handlers"
	"github.com/aira-ai/control-tower/internal/observability/metrics"
	"github.com/aira-ai/control-tower/internal/prompt"
	"github.com/aira-ai/control-tower/pkg/logging"
)

const version = "1.0.0"

func main() {
	// Load .env when present; real environments inject variables directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting control-tower API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"storage_backend", cfg.StorageBackend,
	)

	callRepo, promptRepo, cleanup, err := buildRepositories(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	callMetrics := metrics.NewCallMetrics(registry)
	promptMetrics := metrics.NewPromptMetrics(registry)

	stateRegistry := fsm.NewRegistry()
	promptStore := prompt.NewStore(promptRepo, promptMetrics, logger)
	resolver := dialog.NewKeywordResolverWithOverride(promptStore)
	engine := call.NewEngine(callRepo, resolver, stateRegistry, callMetrics, logger)

	routerCfg := &router.Config{
		Logger:             logger,
		SystemHandler:      handlers.NewSystemHandler(version),
		WebcallHandler:     handlers.NewWebcallHandler(engine, logger),
		CallsHandler:       handlers.NewCallsHandler(engine, logger),
		FSMHandler:         handlers.NewFSMHandler(stateRegistry),
		PromptsHandler:     handlers.NewPromptsHandler(promptStore, logger),
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSOrigins,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// buildRepositories wires the call and prompt repositories for the configured
// storage backend. The returned cleanup closes any underlying connections.
func buildRepositories(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (call.Repository, prompt.Repository, func(), error) {
	noop := func() {}

	switch cfg.StorageBackend {
	case appconfig.BackendMemory:
		return call.NewInMemoryRepository(), prompt.NewInMemoryRepository(), noop, nil

	case appconfig.BackendRedis:
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, noop, fmt.Errorf("redis ping: %w", err)
		}
		cleanup := func() {
			if err := client.Close(); err != nil {
				logger.Warn("closing redis client", "error", err)
			}
		}
		return call.NewRedisRepository(client), prompt.NewRedisRepository(client), cleanup, nil

	case appconfig.BackendPostgres:
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, noop, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, noop, fmt.Errorf("postgres ping: %w", err)
		}
		cleanup := func() {
			if err := db.Close(); err != nil {
				logger.Warn("closing postgres pool", "error", err)
			}
		}
		return call.NewPostgresRepository(db), prompt.NewPostgresRepository(db), cleanup, nil

	case appconfig.BackendDynamo:
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, nil, noop, fmt.Errorf("load AWS config: %w", err)
		}
		client := dynamodb.NewFromConfig(awsCfg)
		// Prompt lineages stay in memory on this backend; they are small,
		// curated by hand, and reseeded on deploy.
		logger.Info("dynamo backend selected; prompts use in-memory storage")
		return call.NewDynamoRepository(client, cfg.CallsTable, logger), prompt.NewInMemoryRepository(), noop, nil

	default:
		return nil, nil, noop, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}
}
