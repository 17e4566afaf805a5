package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/storefront-labs/orderengine/internal/auth"
	"github.com/storefront-labs/orderengine/internal/config"
	"github.com/storefront-labs/orderengine/internal/event"
	handler "github.com/storefront-labs/orderengine/internal/handler/http"
	"github.com/storefront-labs/orderengine/internal/lock"
	"github.com/storefront-labs/orderengine/internal/payment"
	"github.com/storefront-labs/orderengine/internal/repository"
	"github.com/storefront-labs/orderengine/internal/repository/memory"
	"github.com/storefront-labs/orderengine/internal/repository/postgres"
	"github.com/storefront-labs/orderengine/internal/service"
	"github.com/storefront-labs/orderengine/migrations"
	"github.com/storefront-labs/orderengine/pkg/database"
	"github.com/storefront-labs/orderengine/pkg/health"
	pkgkafka "github.com/storefront-labs/orderengine/pkg/kafka"
	"github.com/storefront-labs/orderengine/pkg/tracing"
)

const serviceName = "orderengine"

// App wires together all dependencies and runs the order engine.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	// Release whatever was opened before a later step failed.
	fail := func(err error) (*App, error) {
		_ = a.closeResources()
		_ = tracerShutdown(context.Background())
		return nil, err
	}

	healthHandler := health.NewHandler()

	store, err := a.initStore(ctx, healthHandler)
	if err != nil {
		return fail(err)
	}

	locker, err := a.initLocker(ctx, healthHandler)
	if err != nil {
		return fail(err)
	}

	bus := a.initEventBus(healthHandler)

	provider, err := payment.New(payment.Config{
		Provider: cfg.PaymentProvider,
		Endpoint: cfg.PaymentEndpoint,
		APIKey:   cfg.PaymentAPIKey,
	}, payment.NewHTTPClient(time.Duration(cfg.PaymentTimeoutSecs)*time.Second, logger))
	if err != nil {
		return fail(fmt.Errorf("init payment provider: %w", err))
	}
	logger.Info("payment provider initialized", slog.String("provider", provider.Name()))

	// Build the dependency graph.
	eventProducer := event.NewProducer(bus, logger)
	inventoryService := service.NewInventoryService(store, eventProducer, cfg.AllowNegativeStock, logger)
	svcs := handler.Services{
		Orders:    service.NewOrderService(store, inventoryService, eventProducer, logger),
		Inventory: inventoryService,
		Reviews:   service.NewReviewService(store, locker, eventProducer, cfg.ReviewMaxRetries, logger),
		Analytics: service.NewAnalyticsService(store, logger),
		Products:  service.NewProductService(store, logger),
		Payments: service.NewPaymentService(
			provider,
			cfg.PaymentCurrency,
			cfg.CompanyName,
			cfg.PaymentPublishableKey,
			logger,
		),
	}

	verifier := auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer)

	// HTTP router.
	router := handler.NewRouter(svcs, verifier.Validate, healthHandler, logger, cfg.PprofAllowedCIDRs)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// initStore connects the configured catalog store.
func (a *App) initStore(ctx context.Context, healthHandler *health.Handler) (repository.Store, error) {
	cfg := a.cfg
	if cfg.StoreDriver == config.StoreDriverMemory {
		a.logger.Warn("using in-memory store, data is lost on restart")
		return memory.NewStore(), nil
	}

	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		ApplicationName: serviceName,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Duration(cfg.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.DBMaxConnIdleTimeMins) * time.Minute,
	}

	pool, err := database.NewPostgresPool(ctx, &pgCfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	a.logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, serviceName)

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, a.logger); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	a.logger.Info("database migrations completed")

	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})

	tracer := database.NewQueryTracer(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, a.logger)
	return postgres.NewStore(pool, tracer), nil
}

// initLocker returns the Redis review lock when Redis is enabled and an
// in-process lock otherwise.
func (a *App) initLocker(ctx context.Context, healthHandler *health.Handler) (lock.Locker, error) {
	cfg := a.cfg
	if !cfg.RedisEnabled {
		a.logger.Info("review locks are in-process")
		return lock.NewLocalLocker(), nil
	}

	client, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = client
	a.logger.Info("connected to Redis", slog.String("addr", client.Options().Addr))

	healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})

	return lock.NewRedisLocker(client, cfg.ReviewLockTTL(), cfg.ReviewLockMaxWait()), nil
}

// initEventBus returns the Kafka producer when enabled and a logging bus
// otherwise.
func (a *App) initEventBus(healthHandler *health.Handler) event.Bus {
	cfg := a.cfg
	if !cfg.KafkaEnabled {
		a.logger.Info("kafka disabled, events are logged only")
		return event.NewLogBus(a.logger)
	}

	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), a.logger)
	a.producer = producer
	a.logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})
	return producer
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return errors.Join(err, a.closeResources())
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka producer, Redis client and PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight HTTP requests (5s budget).
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 2. Flush pending spans after HTTP drain so in-flight request spans are captured.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.tracerShutdown = nil
	}

	// 3. Release connections.
	if err := a.closeResources(); err != nil {
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closeResources closes every connection opened so far. It is safe to call
// on a partially initialized App.
func (a *App) closeResources() error {
	var errs []error

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.producer = nil
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.redis = nil
	}

	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}

	return errors.Join(errs...)
}
