package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/asotorev/voice-gateway-sub001/internal/infra/config"
	"github.com/asotorev/voice-gateway-sub001/internal/transport/http/handlers"
	"github.com/asotorev/voice-gateway-sub001/internal/transport/http/middleware"
	"github.com/asotorev/voice-gateway-sub001/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Registration *usecase.RegistrationService
	Enrollment   *usecase.EnrollmentService
	Auth         *usecase.AuthService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Services    ServiceSet
	Decisions   handlers.DecisionRecorder
	Tokens      middleware.TokenVerifier
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

	if metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{}); err == nil {
		r.Use(metrics.Handler())
	} else if deps.Logger != nil {
		deps.Logger.Warn("http metrics disabled", zap.Error(err))
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
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		userGroup := api.Group("/users")

		registrationHandler := handlers.NewRegistrationHandler(deps.Services.Registration)
		registrationHandler.RegisterRoutes(userGroup, rateLimitMiddlewares(deps, "register_ip", deps.Config.RateLimit.RegisterMaxAttempts)...)

		enrollmentHandler := handlers.NewEnrollmentHandler(deps.Services.Enrollment)
		enrollmentHandler.RegisterRoutes(userGroup, rateLimitMiddlewares(deps, "sample_ip", deps.Config.RateLimit.SampleMaxAttempts)...)

		audioMiddlewares := rateLimitMiddlewares(deps, "sample_ip", deps.Config.RateLimit.SampleMaxAttempts)
		if deps.Tokens != nil {
			audioMiddlewares = append(audioMiddlewares, middleware.RequireAuth(deps.Tokens, deps.Logger))
		}
		enrollmentHandler.RegisterAudioRoutes(userGroup, audioMiddlewares...)

		tokenTTL := deps.Config.JWT.AccessTokenTTL
		authHandler := handlers.NewAuthHandler(deps.Services.Auth, deps.Decisions, tokenTTL)

		authGroup := api.Group("/auth")
		authHandler.RegisterRoutes(authGroup, rateLimitMiddlewares(deps, "auth_voice_ip", deps.Config.RateLimit.AuthMaxAttempts)...)
	}

	return r
}

func rateLimitMiddlewares(deps Dependencies, name string, limit int) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil || limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}
