// Package app wires together all dependencies and runs the storefront
// service.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/indikaara/storefront/internal/config"
	"github.com/indikaara/storefront/internal/event"
	"github.com/indikaara/storefront/internal/gateway/payu"
	handler "github.com/indikaara/storefront/internal/handler/http"
	"github.com/indikaara/storefront/internal/notify"
	postgresrepo "github.com/indikaara/storefront/internal/repository/postgres"
	redisrepo "github.com/indikaara/storefront/internal/repository/redis"
	"github.com/indikaara/storefront/internal/service"
	"github.com/indikaara/storefront/migrations"
	"github.com/indikaara/storefront/pkg/database"
	"github.com/indikaara/storefront/pkg/health"
	"github.com/indikaara/storefront/pkg/httpclient"
	pkgkafka "github.com/indikaara/storefront/pkg/kafka"
	"github.com/indikaara/storefront/pkg/tracing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// App holds the wired dependency graph and the running HTTP server.
type App struct {
	cfg             *config.Config
	logger          *slog.Logger
	rdb             *redis.Client
	pool            *pgxpool.Pool
	producer        *pkgkafka.Producer
	httpServer      *http.Server
	tracerShutdown  func(context.Context) error
	metricsUnsubscr func()
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "storefront",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     cfg.TracingSampleRate,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize Redis client.
	rdb, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("host", cfg.RedisHost),
		slog.Int("db", cfg.RedisDB),
	)

	// Initialize PostgreSQL pool.
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
	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.String("database", cfg.PostgresDB),
	)

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// PayU gateway behind a circuit breaker; only the server-to-server
	// verification calls go through it.
	baseClient := httpclient.New(httpclient.DefaultConfig())
	cbClient := httpclient.NewCircuitBreakerClient(baseClient, httpclient.CircuitBreakerConfig{
		Name:         "payu-verify",
		MaxRequests:  cfg.CBMaxRequests,
		Interval:     time.Duration(cfg.CBInterval) * time.Second,
		Timeout:      time.Duration(cfg.CBTimeout) * time.Second,
		FailureRatio: cfg.CBFailureRatio,
		MinRequests:  cfg.CBMinRequests,
	}, logger)

	payuGateway := payu.New(payu.Config{
		MerchantKey: cfg.PayUMerchantKey,
		Salt:        cfg.PayUSalt,
		PaymentURL:  cfg.PayUPaymentURL,
		VerifyURL:   cfg.PayUVerifyURL,
		ProductInfo: cfg.PayUProductInfo,
	}, cbClient, logger)

	// Build the dependency graph.
	cartRepo := redisrepo.NewCartRepository(rdb, time.Duration(cfg.CartTTLHours)*time.Hour)
	refRepo := redisrepo.NewPendingRefRepository(rdb, time.Duration(cfg.PendingRefTTLHours)*time.Hour)
	orderRepo := postgresrepo.NewOrderRepository(pool)

	eventProducer := event.NewProducer(producer, logger)
	broadcaster := notify.NewBroadcaster()
	metricsUnsubscr := notify.ObserveMetrics(broadcaster)

	cartService := service.NewCartService(cartRepo, eventProducer, broadcaster, logger)
	checkoutService := service.NewCheckoutService(orderRepo, refRepo, cartRepo, payuGateway, eventProducer, logger)
	paymentService := service.NewPaymentService(orderRepo, refRepo, cartService, payuGateway, eventProducer, logger)
	orderService := service.NewOrderService(orderRepo, payuGateway, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})

	// HTTP router.
	router := handler.NewRouter(cartService, checkoutService, paymentService, orderService, healthHandler, cfg.BaseURL, cfg.JWTSecret, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:             cfg,
		logger:          logger,
		rdb:             rdb,
		pool:            pool,
		producer:        producer,
		httpServer:      httpServer,
		tracerShutdown:  tracerShutdown,
		metricsUnsubscr: metricsUnsubscr,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	a.metricsUnsubscr()

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	a.pool.Close()

	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
