package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/stephaneglaugier91/daulingo/internal/core/port"
	"github.com/stephaneglaugier91/daulingo/internal/infra/config"
	"github.com/stephaneglaugier91/daulingo/internal/infra/database"
	kafkainfra "github.com/stephaneglaugier91/daulingo/internal/infra/kafka"
	"github.com/stephaneglaugier91/daulingo/internal/infra/logger"
	redisinfra "github.com/stephaneglaugier91/daulingo/internal/infra/redis"
	"github.com/stephaneglaugier91/daulingo/internal/infra/telemetry"
	postgresrepo "github.com/stephaneglaugier91/daulingo/internal/repository/postgres"
	redisrepo "github.com/stephaneglaugier91/daulingo/internal/repository/redis"
	"github.com/stephaneglaugier91/daulingo/internal/transport/http/middleware"
	"github.com/stephaneglaugier91/daulingo/internal/transport/http/routes"
	"github.com/stephaneglaugier91/daulingo/internal/usecase"
)

type Application struct {
	cfg    *config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	pool   *pgxpool.Pool
	redis  *redisinfra.Client
	tracer *telemetry.TracerProvider
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	tracer, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	provider, err := telemetry.NewProvider(nil)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)
	if cfg.Compute.InsertChunkSize > 0 {
		repos.States.WithInsertChunk(cfg.Compute.InsertChunkSize)
	}

	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(kafkaProducer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	timeseriesCache := redisrepo.NewTimeseriesCache(redisClient.Client())

	rateLimitWindow := cfg.RateLimit.WindowDuration
	if rateLimitWindow <= 0 {
		rateLimitWindow = time.Minute
	}
	rateLimitStore := redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.SlidingWindowConfig{
		KeyPrefix: cfg.Redis.RateLimitPrefix,
		TTL:       rateLimitWindow * 2,
	})
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	ingestService := usecase.NewIngestService(repos.Users, repos.Activity, log).
		WithEventPublisher(eventPublisher)

	policy := usecase.ClassifierPolicy{NormalizeWeekends: cfg.Compute.NormalizeWeekends}
	stateService := usecase.NewStateService(repos.Users, repos.Activity, repos.States, policy, log).
		WithEventPublisher(eventPublisher).
		WithTimeseriesCache(timeseriesCache).
		WithObserver(provider)

	timeseriesService := usecase.NewTimeseriesService(repos.States, log).
		WithCache(timeseriesCache, cfg.Compute.TimeseriesCacheTTL)

	retentionService := usecase.NewRetentionService(repos.States)

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		HTTPMetrics: httpMetrics,
		Database:    pool,
		Cache:       redisClient,
		Services: routes.ServiceSet{
			Ingest:     ingestService,
			States:     stateService,
			Timeseries: timeseriesService,
			Retention:  retentionService,
		},
	})

	return &Application{
		cfg:    cfg,
		engine: engine,
		logger: log,
		pool:   pool,
		redis:  redisClient,
		tracer: tracer,
	}, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.tracer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = a.tracer.Shutdown(shutdownCtx)
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting daulingo API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	var metricsSrv *http.Server
	if a.cfg.Telemetry.MetricsPort > 0 && a.cfg.Telemetry.MetricsPort != a.cfg.App.Port {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.Telemetry.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}

		a.logger.Info("starting metrics endpoint", zap.String("address", metricsSrv.Addr))
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				a.logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(shutdownCtx)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		if metricsSrv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(shutdownCtx)
		}
		return err
	}
}
