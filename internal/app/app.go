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

	"github.com/wellknownalpha/bloom-pos/internal/assistant"
	"github.com/wellknownalpha/bloom-pos/internal/config"
	"github.com/wellknownalpha/bloom-pos/internal/domain"
	"github.com/wellknownalpha/bloom-pos/internal/event"
	handler "github.com/wellknownalpha/bloom-pos/internal/handler/http"
	"github.com/wellknownalpha/bloom-pos/internal/payment/upi"
	"github.com/wellknownalpha/bloom-pos/internal/repository"
	"github.com/wellknownalpha/bloom-pos/internal/repository/memory"
	pgrepo "github.com/wellknownalpha/bloom-pos/internal/repository/postgres"
	redisrepo "github.com/wellknownalpha/bloom-pos/internal/repository/redis"
	"github.com/wellknownalpha/bloom-pos/internal/service"
	"github.com/wellknownalpha/bloom-pos/pkg/database"
	"github.com/wellknownalpha/bloom-pos/pkg/health"
	"github.com/wellknownalpha/bloom-pos/pkg/httpclient"
	pkgkafka "github.com/wellknownalpha/bloom-pos/pkg/kafka"
	"github.com/wellknownalpha/bloom-pos/pkg/tracing"
)

const (
	serviceName    = "bloom-pos"
	serviceVersion = "1.0.0"
)

// App wires together all dependencies and runs the Bloom POS server.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	tracerShutdown func(context.Context) error
	httpServer     *http.Server
}

// NewApp creates a new application instance, initializing all dependencies
// selected by cfg.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	healthHandler := health.NewHandler()

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		Insecure:       true,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	products, customers, err := a.initCatalog(ctx, healthHandler)
	if err != nil {
		a.closeAll()
		return nil, err
	}

	sessions, err := a.initSessions(ctx, healthHandler)
	if err != nil {
		a.closeAll()
		return nil, err
	}

	sink := a.initEvents(healthHandler)
	eventProducer := event.NewProducer(sink, logger)

	issuer, err := upi.NewIssuer(cfg.UPI())
	if err != nil {
		a.closeAll()
		return nil, fmt.Errorf("init mobile payments: %w", err)
	}

	suggester, err := a.initAssistant()
	if err != nil {
		a.closeAll()
		return nil, err
	}

	// Build the dependency graph.
	tally := service.NewSalesTally(time.Local)
	svcs := handler.Services{
		Checkout: service.NewCheckoutService(sessions, products, issuer, eventProducer, tally, logger,
			service.CheckoutOptions{DeductStock: cfg.DeductStockOnSale}),
		Inventory:   service.NewInventoryService(products, eventProducer, logger),
		Customers:   service.NewCustomerService(customers, eventProducer, logger),
		Suggestions: service.NewSuggestionService(suggester, logger),
		Dashboard:   service.NewDashboardService(products, customers, tally, cfg.LowStockThreshold),
	}

	requestTimeout := time.Duration(cfg.RequestTimeoutSecs) * time.Second
	router := handler.NewRouter(svcs, healthHandler, logger, handler.RouterConfig{
		RequestTimeout:     requestTimeout,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		CatalogCacheMaxAge: cfg.CatalogCacheMaxAge,
		PprofCIDRs:         cfg.PprofAllowedCIDRs,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      requestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return a, nil
}

func (a *App) initCatalog(ctx context.Context, hh *health.Handler) (repository.ProductRepository, repository.CustomerRepository, error) {
	if a.cfg.StorageBackend != config.BackendPostgres {
		now := time.Now().UTC()
		a.logger.Info("using in-memory catalog with seed data")
		return memory.NewProductStore(domain.SeedProducts(now)), memory.NewCustomerStore(domain.SeedCustomers(now)), nil
	}

	pgCfg := a.cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, a.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	a.logger.Info("connected to PostgreSQL",
		slog.String("host", pgCfg.Host),
		slog.String("database", pgCfg.DBName),
	)

	if err := database.RunMigrations(ctx, pool, pgrepo.Migrations(), a.logger); err != nil {
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	if err := database.RegisterPoolMetrics(pool, serviceName); err != nil {
		a.logger.Warn("failed to register pool metrics", slog.String("error", err.Error()))
	}

	hh.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	return pgrepo.NewProductRepository(pool), pgrepo.NewCustomerRepository(pool), nil
}

func (a *App) initSessions(ctx context.Context, hh *health.Handler) (repository.SessionRepository, error) {
	if a.cfg.SessionStore != config.BackendRedis {
		a.logger.Info("using in-memory session store")
		return memory.NewSessionStore(), nil
	}

	rdb, err := database.NewRedisClient(ctx, a.cfg.Redis())
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.rdb = rdb
	a.logger.Info("connected to Redis",
		slog.String("addr", a.cfg.RedisAddr),
		slog.Int("db", a.cfg.RedisDB),
	)

	hh.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	return redisrepo.NewSessionRepository(rdb, a.cfg.SessionTTL()), nil
}

func (a *App) initEvents(hh *health.Handler) event.Sink {
	if !a.cfg.KafkaEnabled {
		a.logger.Info("kafka disabled, domain events are discarded")
		return event.Discard{}
	}

	a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(a.cfg.KafkaBrokers), a.logger)
	a.logger.Info("kafka producer initialized", slog.Any("brokers", a.cfg.KafkaBrokers))

	hh.Register("kafka", a.producer.Ping)
	return a.producer
}

func (a *App) initAssistant() (assistant.Suggester, error) {
	if a.cfg.AssistantProvider != config.ProviderGemini {
		a.logger.Info("using mock arrangement assistant")
		return assistant.Mock{}, nil
	}

	// Suggestion calls are never retried; the breaker only stops hammering a
	// provider that keeps failing.
	clientCfg := httpclient.DefaultConfig()
	clientCfg.Timeout = time.Duration(a.cfg.AssistantTimeoutSecs) * time.Second
	clientCfg.MaxRetries = 0

	doer := httpclient.NewCircuitBreakerClient(httpclient.New(clientCfg), httpclient.CircuitBreakerConfig{
		Name:         "assistant",
		MaxRequests:  a.cfg.CBMaxRequests,
		Interval:     time.Duration(a.cfg.CBInterval) * time.Second,
		Timeout:      time.Duration(a.cfg.CBTimeout) * time.Second,
		FailureRatio: a.cfg.CBFailureRatio,
		MinRequests:  a.cfg.CBMinRequests,
	}, a.logger)

	g, err := assistant.NewGemini(doer, assistant.GeminiConfig{
		BaseURL: a.cfg.AssistantBaseURL,
		Model:   a.cfg.AssistantModel,
		APIKey:  a.cfg.AssistantAPIKey,
	}, a.logger)
	if err != nil {
		return nil, fmt.Errorf("init assistant: %w", err)
	}
	a.logger.Info("using gemini arrangement assistant", slog.String("model", a.cfg.AssistantModel))
	return g, nil
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
		a.closeAll()
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

	a.closeAll()
	a.logger.Info("application shutdown complete")
	return nil
}

func (a *App) closeAll() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.tracerShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}
}
