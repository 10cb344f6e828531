package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"

	"github.com/utafrali/catalog-review/internal/auth"
	"github.com/utafrali/catalog-review/internal/config"
	"github.com/utafrali/catalog-review/internal/event"
	handler "github.com/utafrali/catalog-review/internal/handler/http"
	"github.com/utafrali/catalog-review/internal/repository"
	"github.com/utafrali/catalog-review/internal/repository/postgres"
	redisrepo "github.com/utafrali/catalog-review/internal/repository/redis"
	"github.com/utafrali/catalog-review/internal/service"
	"github.com/utafrali/catalog-review/migrations"
	"github.com/utafrali/catalog-review/pkg/database"
	"github.com/utafrali/catalog-review/pkg/health"
	pkgkafka "github.com/utafrali/catalog-review/pkg/kafka"
	"github.com/utafrali/catalog-review/pkg/middleware"
	"github.com/utafrali/catalog-review/pkg/tracing"
)

const (
	serviceName    = "catalog-review"
	serviceVersion = "0.1.0"

	processedEventTTL = 24 * time.Hour
)

// App wires together all dependencies and runs the catalog and review service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *goredis.Client
	producer       *pkgkafka.Producer
	consumer       *pkgkafka.Consumer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
	workers        sync.WaitGroup
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// PostgreSQL
	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Duration(cfg.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.DBMaxConnIdleTimeMins) * time.Minute,
	}
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		_ = tracerShutdown(context.Background())
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	if err := database.RegisterPoolMetrics(registry, pool, serviceName); err != nil {
		logger.Warn("failed to register pool metrics", slog.String("error", err.Error()))
	}

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		_ = tracerShutdown(context.Background())
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	// Redis backs request replay and consumer dedupe. The service runs
	// without it; replay is then disabled and dedupe falls back to memory.
	var (
		redisClient     *goredis.Client
		idempotencyRepo repository.IdempotencyRepository
		processed       pkgkafka.IdempotencyStore = pkgkafka.NewMemoryIdempotencyStore(processedEventTTL)
	)
	if cfg.RedisEnabled {
		redisCfg := database.RedisConfig{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}
		redisClient, err = database.NewRedisClient(ctx, redisCfg, logger)
		if err != nil {
			logger.Warn("redis unavailable, idempotent replay disabled",
				slog.String("addr", redisCfg.Addr()),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("connected to Redis", slog.String("addr", redisCfg.Addr()))
			idempotencyRepo = redisrepo.NewIdempotencyRepository(redisClient, cfg.IdempotencyTTL)
			processed = redisrepo.NewProcessedEvents(redisClient, processedEventTTL)
		}
	}

	// Kafka
	kafkaMetrics := pkgkafka.NewMetrics(registry)
	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), kafkaMetrics, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Build the dependency graph.
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessExpiry)
	productRepo := postgres.NewProductRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	reviewRepo := postgres.NewReviewRepository(pool)
	uow := postgres.NewUnitOfWork(pool)
	eventProducer := event.NewProducer(producer, logger)

	reviewService := service.NewReviewService(uow, productRepo, reviewRepo, eventProducer, logger)
	catalogService := service.NewCatalogService(categoryRepo, productRepo, logger)
	accountService := service.NewAccountService(userRepo, jwtManager, cfg.BcryptCost, logger)

	var consumer *pkgkafka.Consumer
	if cfg.RecomputeRatingOnDeactivate {
		consumer = pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers:  cfg.KafkaBrokers,
			GroupID:  cfg.KafkaConsumerGroup,
			Topic:    event.TopicReviewsDeactivated,
			MinBytes: 1,
			MaxBytes: 1 << 20,
		}, event.RecomputeHandler(reviewService, processed, logger), kafkaMetrics, logger).
			WithDeadLetter(pkgkafka.NewDeadLetter(cfg.KafkaBrokers, cfg.KafkaConsumerGroup, logger))
		logger.Info("rating recompute worker enabled", slog.String("group", cfg.KafkaConsumerGroup))
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})
	if redisClient != nil {
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	router := handler.NewRouter(handler.RouterDeps{
		Reviews:     reviewService,
		Catalog:     catalogService,
		Accounts:    accountService,
		Tokens:      jwtManager.Validator(),
		Idempotency: idempotencyRepo,
		Health:      healthHandler,
		Metrics:     middleware.NewHTTPMetrics(registry, serviceName),
		MetricsHTTP: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		CORS:        middleware.CORSConfig{AllowedOrigins: cfg.CORSAllowedOrigins},
		ServiceName: serviceName,
		Logger:      logger,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		producer:       producer,
		consumer:       consumer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and the optional recompute worker, and blocks
// until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	if a.consumer != nil {
		a.workers.Add(1)
		go func() {
			defer a.workers.Done()
			if err := a.consumer.Start(workerCtx); err != nil {
				a.logger.Error("recompute worker stopped", slog.String("error", err.Error()))
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
	}

	stopWorkers()
	return errors.Join(runErr, a.Shutdown())
}

// Shutdown gracefully stops all components in order:
// 1. HTTP server (drain in-flight requests)
// 2. Recompute worker
// 3. Tracer (flush spans from drained requests)
// 4. Kafka producer
// 5. Redis client
// 6. PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// Start closes the reader on exit.
	a.workers.Wait()

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
