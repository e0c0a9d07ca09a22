package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/srgjo27/evently/internal/adapter/cache"
	"github.com/srgjo27/evently/internal/adapter/handler"
	"github.com/srgjo27/evently/internal/adapter/messaging/rabbitmq"
	"github.com/srgjo27/evently/internal/adapter/repository/memory"
	"github.com/srgjo27/evently/internal/adapter/repository/postgres"
	"github.com/srgjo27/evently/internal/core/ports"
	"github.com/srgjo27/evently/internal/core/services"
	"github.com/srgjo27/evently/internal/platform/config"
	"github.com/srgjo27/evently/internal/platform/database"
	"github.com/srgjo27/evently/internal/platform/logger"
	"github.com/srgjo27/evently/internal/platform/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logg.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, observability.TracingConfig{
		Endpoint:   cfg.OtelEndpoint,
		AuthHeader: cfg.OtelAuthHeader,
		Insecure:   cfg.OtelInsecure,
	})
	if err != nil {
		logg.Fatal("Failed to set up tracing", zap.Error(err))
	}

	var (
		store  ports.LedgerStore
		events ports.EventRepository
		db     *sql.DB
	)

	switch cfg.StoreDriver {
	case "memory":
		logg.Warn("Using in-memory ledger store; data is lost on restart")
		mem := memory.NewStore()
		store, events = mem, mem
	default:
		db, err = database.NewPostgresDB(ctx, database.Config{
			DSN:             cfg.PostgresDSN(),
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
		}, logg)
		if err != nil {
			logg.Fatal("Failed to connect to database after retries", zap.Error(err))
		}
		defer db.Close()

		if cfg.InitDB {
			if err := database.Migrate(ctx, db, logg); err != nil {
				logg.Fatal("Failed to apply schema", zap.Error(err))
			}
		}

		store = postgres.NewLedgerStore(db)
		events = postgres.NewEventRepository(db)
	}

	var availability ports.AvailabilityCache
	if addr := cfg.RedisAddr(); addr != "" {
		logg.Info("Connecting to Redis", zap.String("addr", addr))

		redisClient := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logg.Warn("Redis unavailable, serving reads from the ledger store", zap.Error(err))
		} else {
			logg.Info("Redis connected successfully")
			availability = cache.NewRedisCache(redisClient, cfg.CacheTTL)
		}
	}

	var publisher ports.EventPublisher
	var broker *rabbitmq.Publisher
	if cfg.RabbitMQURL != "" {
		broker, err = rabbitmq.Dial(cfg.RabbitMQURL, logg)
		if err != nil {
			logg.Warn("RabbitMQ unavailable, booking messages disabled", zap.Error(err))
		} else {
			logg.Info("RabbitMQ connected successfully")
			publisher = broker
		}
	}

	mode, err := services.ParseRefreshMode(cfg.AnalyticsRefreshMode)
	if err != nil {
		logg.Fatal("Invalid analytics refresh mode", zap.Error(err))
	}

	opts := services.Options{
		MaxTxAttempts:  cfg.TxMaxAttempts,
		RetryBaseDelay: cfg.TxRetryBaseDelay,
	}

	projector := services.NewAnalyticsProjector(store, availability, mode, logg, opts)
	bookingService := services.NewBookingService(store, projector, availability, publisher, logg, opts)
	eventService := services.NewEventService(events, store, projector, availability, logg)
	auditor := services.NewLedgerAuditor(events, store, logg, opts)

	handlers := handler.Handlers{
		Bookings: handler.NewBookingHandler(bookingService),
		Events:   handler.NewEventHandler(eventService),
		Admin:    handler.NewAdminHandler(projector, auditor),
	}
	if db != nil {
		handlers.DB = db
	}

	e := handler.NewServer(handlers, cfg.AdminJWTSecret, logg)
	e.Server.ReadTimeout = 5 * time.Second
	e.Server.WriteTimeout = 10 * time.Second
	e.Server.IdleTimeout = 120 * time.Second

	go projector.RunPeriodicRebuild(ctx, cfg.AnalyticsRebuildInterval)

	go func() {
		addr := fmt.Sprintf(":%s", cfg.AppPort)
		logg.Info("Server starting", zap.String("addr", addr), zap.String("store", cfg.StoreDriver), zap.String("analytics_mode", string(projector.Mode())))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("Server startup failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logg.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logg.Error("Server forced to shutdown", zap.Error(err))
	}
	if broker != nil {
		if err := broker.Close(); err != nil {
			logg.Warn("Failed to close RabbitMQ publisher", zap.Error(err))
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logg.Warn("Failed to flush traces", zap.Error(err))
	}

	logg.Info("Server exiting")
}
