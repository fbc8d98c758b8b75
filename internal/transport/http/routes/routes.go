package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/stephaneglaugier91/daulingo/internal/infra/config"
	"github.com/stephaneglaugier91/daulingo/internal/transport/http/handlers"
	"github.com/stephaneglaugier91/daulingo/internal/transport/http/middleware"
	"github.com/stephaneglaugier91/daulingo/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Ingest     *usecase.IngestService
	States     *usecase.StateService
	Timeseries *usecase.TimeseriesService
	Retention  *usecase.RetentionService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	HTTPMetrics *middleware.HTTPMetrics
	Services    ServiceSet
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	if deps.HTTPMetrics != nil {
		r.Use(deps.HTTPMetrics.Handler())
	}
	if len(deps.Config.App.CORSAllowedOrigins) > 0 {
		r.Use(middleware.CORS(deps.Config.App.CORSAllowedOrigins))
	}

	healthOptions := make([]handlers.HealthOption, 0, 2)

	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}

	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}

	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Ready)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/v1")
	{
		recordHandler := handlers.NewRecordHandler(deps.Services.Ingest)
		recordHandlers := appendRateLimit(deps, "record", rateLimitFor(deps, func(rl config.RateLimitSettings) int { return rl.RecordMaxAttempts }))
		recordHandlers = append(recordHandlers, recordHandler.Record)
		api.POST("/record", recordHandlers...)

		computeHandler := handlers.NewComputeHandler(deps.Services.States)
		computeHandlers := appendRateLimit(deps, "compute", rateLimitFor(deps, func(rl config.RateLimitSettings) int { return rl.ComputeMaxAttempts }))
		computeHandlers = append(computeHandlers, computeHandler.Compute)
		api.POST("/compute", computeHandlers...)

		queryLimit := rateLimitFor(deps, func(rl config.RateLimitSettings) int { return rl.QueryMaxAttempts })
		queryGroup := api.Group("")
		if mw := appendRateLimit(deps, "query", queryLimit); len(mw) > 0 {
			queryGroup.Use(mw...)
		}

		timeseriesHandler := handlers.NewTimeseriesHandler(deps.Services.Timeseries)
		queryGroup.GET("/timeseries", timeseriesHandler.Timeseries)

		metaHandler := handlers.NewMetaHandler(deps.Services.Timeseries)
		queryGroup.GET("/meta/date-range", metaHandler.DateRange)
		queryGroup.GET("/states", metaHandler.States)

		retentionHandler := handlers.NewRetentionHandler(deps.Services.Retention)
		queryGroup.GET("/retention", retentionHandler.Rates)
	}

	return r
}

func rateLimitFor(deps Dependencies, pick func(config.RateLimitSettings) int) int {
	if deps.Config == nil {
		return 0
	}
	return pick(deps.Config.RateLimit)
}

func appendRateLimit(deps Dependencies, name string, limit int) []gin.HandlerFunc {
	if deps.RateLimiter == nil || limit <= 0 {
		return nil
	}

	window := time.Minute
	if deps.Config != nil && deps.Config.RateLimit.WindowDuration > 0 {
		window = deps.Config.RateLimit.WindowDuration
	}

	rule := middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}
