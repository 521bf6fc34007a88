package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/ledgera/ledgera_backend/internal/core/domain"
	portssvc "github.com/ledgera/ledgera_backend/internal/core/ports/services"
	"github.com/ledgera/ledgera_backend/internal/core/services"
	"github.com/ledgera/ledgera_backend/internal/handlers"
	"github.com/ledgera/ledgera_backend/internal/middleware"
	"github.com/ledgera/ledgera_backend/internal/platform/config"
	"github.com/ledgera/ledgera_backend/internal/platform/eventbus"
	"github.com/ledgera/ledgera_backend/internal/platform/locking"
	"github.com/ledgera/ledgera_backend/internal/repositories/database/pgsql"
	"github.com/ledgera/ledgera_backend/pkg/database"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// @title Ledgera Backend API
// @version 1.0
// @description Multi-tenant double-entry accounting service.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg, logger); err != nil {
		os.Exit(1)
	}

	// Redis backs distributed locks and the idempotency cache; both degrade
	// gracefully when it is absent.
	var redisClient *redis.Client
	var locker locking.Locker = locking.NewNoopLocker()
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("Failed to ping redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		locker = locking.NewRedisLocker(redisClient, cfg.LockAcquireBudget, logger)
		logger.Info("Redis connection established.")
	}

	bus := eventbus.NewInProcessBus(logger)

	repos := pgsql.NewRepositoryProvider(dbPool)
	serviceContainer := services.NewServiceContainer(cfg, repos, redisClient, bus, locker)
	subscribeEventLog(bus, serviceContainer.Idempotency, logger)

	// Background redelivery sweep for outbox events that failed their
	// immediate post-commit publish.
	go serviceContainer.Outbox.Run(ctx)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (CORS, logging, recovery, rate limiting)
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", "Idempotency-Key")
	r.Use(cors.New(corsCfg))
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(middleware.RateLimit(limiter.New(memory.NewStore(), limiter.Rate{
		Period: time.Minute,
		Limit:  300,
	})))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", slog.String("error", err.Error()))
	}
}

// subscribeEventLog attaches an audit-log consumer for every domain event
// type. Consumption runs through the event idempotency guard, so a redelivered
// event is acknowledged without logging twice. External consumers replace this
// when the bus is backed by a broker.
func subscribeEventLog(bus *eventbus.InProcessBus, idempotencySvc portssvc.IdempotencySvcFacade, logger *slog.Logger) {
	bus.Subscribe(func(ctx context.Context, event domain.OutboxEvent) error {
		return idempotencySvc.RunOnceForEvent(ctx, event.TenantID, event.EventID, "event-audit-log", func(ctx context.Context, tx pgx.Tx) ([]byte, error) {
			logger.Info("Domain event delivered",
				slog.String("event_id", event.EventID),
				slog.String("event_type", event.EventType),
				slog.String("tenant_id", event.TenantID),
				slog.String("aggregate_id", event.AggregateID),
			)
			return nil, nil
		})
	},
		domain.EventInvoicePosted,
		domain.EventPurchaseBillPosted,
		domain.EventGoodsReceiptPosted,
		domain.EventPaymentApplied,
		domain.EventDocumentAmended,
		domain.EventDocumentVoided,
		domain.EventJournalPosted,
		domain.EventStockRecalculated,
	)
}

// runMigrations applies all pending up migrations from the migrations
// directory using a short-lived database/sql connection.
func runMigrations(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	migrationDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to open database connection for migrations", slog.String("error", err.Error()))
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	if err := migrationDB.Ping(); err != nil {
		logger.Error("Failed to ping database for migrations", slog.String("error", err.Error()))
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		logger.Error("Could not create postgres driver instance for migrations", slog.String("error", err.Error()))
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		logger.Error("Could not create migrate instance", slog.String("error", err.Error()))
		return err
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		return err
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		logger.Error("Migration source error", slog.String("error", sourceErr.Error()))
		return sourceErr
	}
	if dbErr != nil {
		logger.Error("Migration database error", slog.String("error", dbErr.Error()))
		return dbErr
	}

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
