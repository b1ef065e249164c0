// Package main is the entry point for the cinepulse-catalog API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"cinepulse-catalog/internal/app/service"
	"cinepulse-catalog/internal/app/session"
	"cinepulse-catalog/internal/config"
	"cinepulse-catalog/internal/domain"
	"cinepulse-catalog/internal/infra/memory"
	"cinepulse-catalog/internal/infra/postgres"
	"cinepulse-catalog/internal/infra/postgres/migrations"
	redisstore "cinepulse-catalog/internal/infra/redis"
	"cinepulse-catalog/internal/infra/rest"
	"cinepulse-catalog/internal/job"
	"cinepulse-catalog/internal/logger"
	"cinepulse-catalog/internal/transport/httpserver"
	"cinepulse-catalog/internal/transport/httpserver/middleware"
	"cinepulse-catalog/internal/validator"
	"cinepulse-catalog/pkg/locker"
)

func main() {
	// Load configuration
	cfg, err := config.Load(os.Getenv("APP_CONFIG_FILE"))
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(
		logger.Config{
			Level:  cfg.Logger.Level,
			Format: cfg.Logger.Format,
			Output: cfg.Logger.Output,
		},
		logger.SentryConfig{
			Enabled:     cfg.Sentry.Enabled,
			DSN:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			SampleRate:  cfg.Sentry.SampleRate,
		},
	)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting cinepulse-catalog",
		zap.String("env", cfg.App.Env),
		zap.Int("port", cfg.App.Port),
		zap.String("gateway", cfg.Gateway.Driver),
	)

	ctx := context.Background()

	// Remote data gateway
	gateway, closeGateway := newGateway(ctx, cfg, log)
	defer closeGateway()

	// Redis backs the upload guard and session persistence when enabled
	var (
		distLocker locker.DistributedLocker = locker.NewMemoryLocker()
		store      session.StateStore
		checkers   = []middleware.HealthChecker{gateway}
	)
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("failed to connect to Redis", zap.Error(err))
		}
		defer func() { _ = redisClient.Close() }()
		log.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr()))

		distLocker = locker.NewRedisLocker(redisClient, cfg.Redis.KeyPrefix, log.Component("locker"))

		sessionStore := redisstore.NewSessionStore(redisClient, log.Component("session_store"), cfg.Redis.KeyPrefix, cfg.Sessions.TTL)
		checkers = append(checkers, redisPinger{sessionStore})
		if cfg.Sessions.Persist {
			store = sessionStore
		}
	}

	// Create services
	catalogSvc := service.NewCatalogService(gateway, service.CatalogConfig{
		SourceTimeout: cfg.Catalog.SourceTimeout,
		FeaturedLimit: cfg.Catalog.FeaturedLimit,
	}, log.Component("catalog"))
	watchlistSvc := service.NewWatchlistService(gateway, catalogSvc, log.Component("watchlist"))
	uploadSvc := service.NewUploadService(gateway, distLocker, cfg.Upload.LockTTL, log.Component("upload"))
	statsSvc := service.NewStatsService(catalogSvc, watchlistSvc, log.Component("stats"))

	registry := session.NewRegistry(
		session.Config{
			MaxActive: cfg.Sessions.MaxActive,
			TTL:       cfg.Sessions.TTL,
		},
		catalogSvc,
		store,
		log.Component("sessions"),
	)

	// Create HTTP server
	server := httpserver.NewServer(
		httpserver.ServerConfig{
			Port:          cfg.App.Port,
			BodyLimit:     1024 * 1024, // 1MB
			HealthTimeout: 2 * time.Second,
		},
		httpserver.Services{
			Catalog:   catalogSvc,
			Watchlist: watchlistSvc,
			Uploads:   uploadSvc,
			Stats:     statsSvc,
			Sessions:  registry,
		},
		checkers,
		validator.New(),
		log.Logger,
	)

	// Periodic refresh of live sessions
	var scheduler *job.RefreshScheduler
	if cfg.Sessions.RefreshInterval > 0 {
		scheduler = job.NewRefreshScheduler(
			registry,
			job.RefreshConfig{
				Interval:  cfg.Sessions.RefreshInterval,
				OnStartup: cfg.Sessions.RefreshOnStartup,
			},
			log.Component("refresh"),
		)
		scheduler.Start(cfg.Sessions.RefreshOnStartup)
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutdown signal received")

		scheduler.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.App.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error("server shutdown error", zap.Error(err))
		}
	}()

	// Start server
	if err := server.Start(cfg.App.Port); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}

// newGateway builds the configured data gateway and its cleanup.
func newGateway(ctx context.Context, cfg *config.Config, log *logger.Logger) (domain.Gateway, func()) {
	switch cfg.Gateway.Driver {
	case config.DriverREST:
		r := cfg.Gateway.REST
		gw := rest.NewGateway(rest.ClientConfig{
			BaseURL: r.BaseURL,
			APIKey:  r.APIKey,
			Timeout: r.Timeout,
			Retry: rest.RetryConfig{
				MaxAttempts: r.Retry.MaxAttempts,
				WaitTime:    r.Retry.WaitTime,
				MaxWaitTime: r.Retry.MaxWaitTime,
			},
			CB: rest.CBConfig{
				MaxRequests:  r.CB.MaxRequests,
				Interval:     r.CB.Interval,
				Timeout:      r.CB.Timeout,
				FailureRatio: r.CB.FailureRatio,
			},
		}, log.Component("rest"))
		log.Info("using REST data service", zap.String("base_url", r.BaseURL))

		return gw, func() {}

	case config.DriverMemory:
		log.Warn("using in-memory data gateway, data is lost on restart")

		return memory.NewGateway(), func() {}

	default:
		db, err := postgres.NewConnection(ctx,
			postgres.Config{
				DSN:          cfg.Database.DSN(),
				MaxOpenConns: cfg.Database.MaxOpenConns,
				MaxIdleConns: cfg.Database.MaxIdleConns,
				MaxLifetime:  cfg.Database.MaxLifetime,
				LogQueries:   cfg.App.Debug,
			},
			log.Component("postgres"),
		)
		if err != nil {
			log.Fatal("failed to connect to database", zap.Error(err))
		}

		if err := migrations.Run(db); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
		log.Info("database migrations completed")

		return postgres.NewGateway(db, log.Component("postgres")), func() { _ = postgres.Close(db) }
	}
}

// redisPinger adapts the session store ping to the readiness probe.
type redisPinger struct {
	store *redisstore.SessionStore
}

func (p redisPinger) HealthCheck(ctx context.Context) error {
	return p.store.Ping(ctx)
}
