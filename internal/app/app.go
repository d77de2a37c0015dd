package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ayo6706/otc-ledger/internal/api"
	"github.com/ayo6706/otc-ledger/internal/api/middleware"
	"github.com/ayo6706/otc-ledger/internal/config"
	"github.com/ayo6706/otc-ledger/internal/db"
	"github.com/ayo6706/otc-ledger/internal/idempotency"
	"github.com/ayo6706/otc-ledger/internal/observability"
	"github.com/ayo6706/otc-ledger/internal/repository"
	"github.com/ayo6706/otc-ledger/internal/repository/memstore"
	"github.com/ayo6706/otc-ledger/internal/service"
	"github.com/ayo6706/otc-ledger/internal/worker"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Run bootstraps the HTTP server and review queue worker, blocking until shutdown.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	observability.Init()
	middleware.SetJWTSecret(cfg.JWTSecret)
	middleware.SetJWTValidation(cfg.JWTIssuer, cfg.JWTAudience)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	logger.Info("storage ready", zap.String("driver", cfg.StorageDriver))

	if cfg.AdminUserID != "" {
		if _, err := service.EnsureAdmin(ctx, store, uuid.MustParse(cfg.AdminUserID), cfg.AdminName, cfg.AdminEmail); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	// Interfaces stay nil without redis so the caches are skipped entirely.
	var (
		redisCmd  redis.Cmdable
		rateCache service.RateCache
	)
	if cfg.RedisURL != "" {
		redisClient, err := newRedisClient(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisClient.Close()
		redisCmd = redisClient
		rateCache = service.NewRedisRateCache(redisClient, cfg.RateCacheTTL)
	}

	idemStore := idempotency.NewStore(redisCmd, store, cfg.IdempotencyTTL)
	services := service.NewServices(store, rateCache, cfg.BusinessLocation)

	queueWorker := worker.NewReviewQueueWorker(services.ReviewQueue).WithInterval(cfg.ReviewQueueInterval)
	stopWorker := queueWorker.Run(ctx)
	logger.Info("review queue worker started", zap.Duration("interval", cfg.ReviewQueueInterval))

	router := api.NewRouter(cfg, logger, store, idemStore, redisCmd, services)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("port", cfg.HTTPPort), zap.String("business_timezone", cfg.BusinessTimezone))
		serverErr <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("stopping review queue worker")
	stopWorker()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}

// openStore returns the configured storage driver and its release func.
func openStore(ctx context.Context, cfg *config.Config) (api.Store, func(), error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		zap.L().Warn("using in-memory storage; data is lost on restart")
		return memstore.New(), func() {}, nil
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL, db.PoolSize{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate database: %w", err)
		}
	}
	return repository.NewStore(pool), pool.Close, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info", "":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func newRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
