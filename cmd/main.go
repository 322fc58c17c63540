package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/advisor-checkout/internal/api"
	"github.com/akylbek/payment-system/advisor-checkout/internal/client"
	"github.com/akylbek/payment-system/advisor-checkout/internal/config"
	"github.com/akylbek/payment-system/advisor-checkout/internal/events"
	"github.com/akylbek/payment-system/advisor-checkout/internal/handlers"
	"github.com/akylbek/payment-system/advisor-checkout/internal/interfaces"
	"github.com/akylbek/payment-system/advisor-checkout/internal/lock"
	"github.com/akylbek/payment-system/advisor-checkout/internal/middleware"
	"github.com/akylbek/payment-system/advisor-checkout/internal/repository"
	"github.com/akylbek/payment-system/advisor-checkout/internal/service"
	"github.com/akylbek/payment-system/advisor-checkout/internal/telemetry"
)

const sweepInterval = time.Minute

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize telemetry
	if err := telemetry.InitTelemetry("advisor-checkout", cfg.JaegerEndpoint); err != nil {
		panic(fmt.Sprintf("Failed to initialize telemetry: %v", err))
	}
	defer telemetry.Shutdown(context.Background())

	telemetry.Logger.Info("Starting Advisor Checkout",
		zap.String("backend", cfg.BackendBaseURL),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Attempt ledger (PostgreSQL), optional
	var repo interfaces.AttemptRepository = repository.NoopAttemptRepository{}
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			telemetry.Logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		ledger := repository.NewAttemptRepository(db)
		if err := ledger.InitDB(); err != nil {
			telemetry.Logger.Fatal("Failed to initialize database", zap.Error(err))
		}
		repo = ledger
	}

	// Token source and session guard (Redis), optional
	var (
		tokens client.TokenSource = client.StaticToken(cfg.AuthToken)
		locker interfaces.Locker  = lock.NewLocalLocker()
	)
	if cfg.RedisURL != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.RedisURL,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			telemetry.Logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		tokens = client.NewRedisTokenStore(redisClient, cfg.AuthTokenKey)
		locker = lock.NewRedisLocker(redisClient)
	}

	// Checkout state events (Kafka), optional
	var checkoutEvents interfaces.EventPublisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafkaPublisher.Close()
		checkoutEvents = kafkaPublisher
	}

	// Password reset notifications (NATS), optional
	var resetEvents interfaces.EventPublisher = events.Noop{}
	if cfg.NatsURL != "" {
		natsPublisher, err := events.NewNatsPublisher(cfg.NatsURL, cfg.NatsSubject)
		if err != nil {
			telemetry.Logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer natsPublisher.Close()
		resetEvents = natsPublisher
	}

	backend := client.New(cfg.BackendBaseURL, cfg.RequestTimeout, client.WithTokenSource(tokens))

	orchestrator := service.NewOrchestrator(backend, repo, locker, checkoutEvents,
		service.WithRequestTimeout(cfg.RequestTimeout),
	)
	recovery := service.NewRecovery(backend, resetEvents, cfg.ResetCooldown)

	registry := service.NewRegistry(cfg.SessionTTL, service.NewStdTicker)
	go registry.Run(ctx, sweepInterval)

	limiter := middleware.NewRateLimiter(cfg.RecoveryRPS, cfg.RecoveryBurst)
	go limiter.Run(ctx)

	gin.SetMode(gin.ReleaseMode)
	r := api.NewRouter(api.Handlers{
		Checkout: handlers.NewCheckoutHandler(registry, orchestrator),
		Recovery: handlers.NewRecoveryHandler(registry, recovery),
		Attempts: handlers.NewAttemptHandler(repo),
	}, limiter)

	// Setup HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// Start server in goroutine
	go func() {
		telemetry.Logger.Info("Advisor Checkout starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			telemetry.Logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	telemetry.Logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		telemetry.Logger.Error("Server forced to shutdown", zap.Error(err))
	}
	stop()

	telemetry.Logger.Info("Server exited")
}
