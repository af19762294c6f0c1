package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/asotorev/voice-gateway-sub001/internal/core/port"
	"github.com/asotorev/voice-gateway-sub001/internal/infra/config"
	"github.com/asotorev/voice-gateway-sub001/internal/infra/database"
	kafkainfra "github.com/asotorev/voice-gateway-sub001/internal/infra/kafka"
	"github.com/asotorev/voice-gateway-sub001/internal/infra/logger"
	"github.com/asotorev/voice-gateway-sub001/internal/infra/ml"
	redisinfra "github.com/asotorev/voice-gateway-sub001/internal/infra/redis"
	"github.com/asotorev/voice-gateway-sub001/internal/infra/security"
	"github.com/asotorev/voice-gateway-sub001/internal/infra/storage"
	"github.com/asotorev/voice-gateway-sub001/internal/infra/telemetry"
	postgresrepo "github.com/asotorev/voice-gateway-sub001/internal/repository/postgres"
	redisrepo "github.com/asotorev/voice-gateway-sub001/internal/repository/redis"
	"github.com/asotorev/voice-gateway-sub001/internal/transport/http/middleware"
	"github.com/asotorev/voice-gateway-sub001/internal/transport/http/routes"
	"github.com/asotorev/voice-gateway-sub001/internal/usecase"
)

type Application struct {
	cfg     *config.AppConfig
	engine  *gin.Engine
	logger  *zap.Logger
	store   *postgresrepo.Store
	redis   *redisinfra.Client
	tracing *telemetry.TracerProvider
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	metrics, err := telemetry.Attach(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	tracing, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}

	store := postgresrepo.NewStore(pool)
	users := postgresrepo.NewUserRepository(store)

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

	audioStore, err := storage.NewS3AudioStore(ctx, cfg.Audio, log)
	if err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("init audio store: %w", err)
	}

	embedder, err := ml.NewLambdaEmbedder(ctx, cfg.Embedding, log)
	if err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("init embedding model: %w", err)
	}

	transcriber, err := ml.NewOpenAITranscriber(cfg.Speech, log)
	if err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("init transcriber: %w", err)
	}

	tokens, err := security.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTokenTTL)
	if err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("init token issuer: %w", err)
	}

	services, err := buildServices(cfg, users, audioStore, embedder, transcriber, eventPublisher, tokens, log)
	if err != nil {
		_ = redisClient.Close()
		return nil, err
	}

	rateLimitWindow := cfg.RateLimit.WindowDuration
	if rateLimitWindow <= 0 {
		rateLimitWindow = time.Minute
	}
	rateLimitStore := redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.SlidingWindowConfig{
		KeyPrefix: "voicegw:rate-limit",
		TTL:       rateLimitWindow * 2,
	})
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Services:    services,
		Decisions:   metrics,
		Tokens:      tokens,
		Database:    store,
		Cache:       redisClient,
	})

	return &Application{
		cfg:     cfg,
		engine:  engine,
		logger:  log,
		store:   store,
		redis:   redisClient,
		tracing: tracing,
	}, nil
}

func buildServices(
	cfg *config.AppConfig,
	users port.UserRepository,
	audioStore port.AudioStore,
	embedder port.EmbeddingModel,
	transcriber port.Transcriber,
	events port.EventPublisher,
	tokens *security.TokenIssuer,
	log *zap.Logger,
) (routes.ServiceSet, error) {
	e := cfg.Engine

	progress, err := usecase.NewProgressAnalyzer(usecase.ProgressConfig{
		RequiredSamples:    e.RequiredSamples,
		RegistrationWindow: e.RegistrationWindow,
	})
	if err != nil {
		return routes.ServiceSet{}, fmt.Errorf("init progress analyzer: %w", err)
	}

	checker, err := usecase.NewCompletionChecker(usecase.CompletionConfig{
		RequiredSamples:      e.RequiredSamples,
		MinQualityScore:      e.MinQualityScore,
		MinAcceptableSamples: e.MinAcceptableSamples,
		AllowQualityOverride: e.AllowQualityOverride,
	})
	if err != nil {
		return routes.ServiceSet{}, fmt.Errorf("init completion checker: %w", err)
	}

	authenticator, err := usecase.NewEmbeddingAuthenticator(usecase.NewSimilarityScorer(), usecase.EmbeddingAuthConfig{
		MinimumEmbeddingsRequired: e.MinimumEmbeddingsRequired,
		AverageWeight:             e.AverageWeight,
		MaxWeight:                 e.MaxWeight,
		AuthenticationThreshold:   e.AuthenticationThreshold,
		HighConfidenceThreshold:   e.HighConfidenceThreshold,
	})
	if err != nil {
		return routes.ServiceSet{}, fmt.Errorf("init embedding authenticator: %w", err)
	}

	verifier, err := usecase.NewPassphraseVerifier(usecase.PassphraseConfig{
		ExpectedWordCount: e.ExpectedWordCount,
	})
	if err != nil {
		return routes.ServiceSet{}, fmt.Errorf("init passphrase verifier: %w", err)
	}

	combiner := usecase.NewDualFactorCombiner(authenticator, verifier)

	registration, err := usecase.NewRegistrationService(users, events, e.ExpectedWordCount, log)
	if err != nil {
		return routes.ServiceSet{}, fmt.Errorf("init registration service: %w", err)
	}

	enrollment, err := usecase.NewEnrollmentService(users, audioStore, embedder, events, progress, checker, log)
	if err != nil {
		return routes.ServiceSet{}, fmt.Errorf("init enrollment service: %w", err)
	}

	auth, err := usecase.NewAuthService(users, embedder, transcriber, combiner, events, tokens, cfg.Speech.Language, log)
	if err != nil {
		return routes.ServiceSet{}, fmt.Errorf("init auth service: %w", err)
	}

	return routes.ServiceSet{
		Registration: registration,
		Enrollment:   enrollment,
		Auth:         auth,
	}, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer a.store.Close()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.tracing != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = a.tracing.Shutdown(shutdownCtx)
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

	a.logger.Info("starting voice gateway API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
