package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shared-account-ledger/config"
	httpHandler "shared-account-ledger/internal/adapter/http/handler"
	memStorage "shared-account-ledger/internal/adapter/storage/memory"
	pgStorage "shared-account-ledger/internal/adapter/storage/postgres"
	redisStorage "shared-account-ledger/internal/adapter/storage/redis"
	"shared-account-ledger/internal/core/domain"
	"shared-account-ledger/internal/core/ports"
	"shared-account-ledger/internal/service"
	"shared-account-ledger/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Shared Account Ledger")

	gin.SetMode(cfg.Server.Mode)

	ctx := context.Background()

	// Initialize storage backend
	var (
		accountRepo    ports.AccountRepository
		withdrawalRepo ports.WithdrawalRepository
		factRepo       ports.FactRepository
		transactor     ports.DBTransactor
		healthCheckers []ports.HealthChecker
	)
	switch cfg.Database.Driver {
	case "memory":
		store := memStorage.NewStore()
		accountRepo = memStorage.NewAccountRepo(store)
		withdrawalRepo = memStorage.NewWithdrawalRepo(store)
		factRepo = memStorage.NewFactRepo(store)
		transactor = memStorage.NewTransactor(store)
		log.Warn().Msg("Using in-memory storage; all state is volatile")
	default:
		pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		log.Info().Msg("PostgreSQL connected")

		if err := pgStorage.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
		log.Info().Msg("Schema migrated")

		accountRepo = pgStorage.NewAccountRepo(pool)
		withdrawalRepo = pgStorage.NewWithdrawalRepo(pool)
		factRepo = pgStorage.NewFactRepo(pool)
		transactor = pgStorage.NewTransactor(pool)
		healthCheckers = append(healthCheckers, pgStorage.NewHealthCheck(pool))
	}

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")
	healthCheckers = append(healthCheckers, redisStorage.NewHealthCheck(rdb))

	// Initialize Redis stores
	projectionCache := redisStorage.NewProjectionCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Resolve the quorum policy
	quorum, err := domain.QuorumPolicyByName(cfg.Ledger.QuorumPolicy, cfg.Ledger.QuorumThreshold)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid quorum policy")
	}

	// Initialize core services
	ledgerSvc := service.NewLedgerService(
		accountRepo,
		withdrawalRepo,
		factRepo,
		projectionCache,
		transactor,
		service.LedgerPolicies{
			Quorum:              quorum,
			MaxOwners:           cfg.Ledger.MaxOwners,
			MaxAccountsPerOwner: cfg.Ledger.MaxAccountsPerOwner,
			LockTimeout:         cfg.Ledger.LockTimeout,
		},
		log,
	)
	tokenSvc := service.NewJWTTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry, cfg.Auth.Issuer)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		Ledger:         ledgerSvc,
		Tokens:         tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: healthCheckers,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
