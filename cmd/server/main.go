package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	httpAdapter "github.com/fintech/digibank/internal/adapter/http"
	"github.com/fintech/digibank/internal/adapter/http/handler"
	postgresRepo "github.com/fintech/digibank/internal/adapter/repository/postgres"
	redisRepo "github.com/fintech/digibank/internal/adapter/repository/redis"
	"github.com/fintech/digibank/internal/domain"
	"github.com/fintech/digibank/internal/infrastructure/auth"
	"github.com/fintech/digibank/internal/infrastructure/config"
	"github.com/fintech/digibank/internal/infrastructure/eventpublisher"
	"github.com/fintech/digibank/internal/infrastructure/logging"
	"github.com/fintech/digibank/internal/infrastructure/metrics"
	"github.com/fintech/digibank/internal/infrastructure/postgres"
	"github.com/fintech/digibank/internal/infrastructure/redis"
	"github.com/fintech/digibank/internal/usecase"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}

	ctx := context.Background()

	if err := postgres.RunMigrations(cfg.DatabaseURL, "migrations"); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Repositories
	txManager := postgresRepo.NewTxManager(pool, cfg.LockTimeout)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	requestRepo := postgresRepo.NewRollbackRequestRepository(pool)
	userRepo := postgresRepo.NewUserRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier()

	cache := redisRepo.NewCache(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	m := metrics.New()

	// Use cases
	userUC := usecase.NewUserUseCase(userRepo, jwtManager).WithAuditRepo(auditRepo)
	accountUC := usecase.NewAccountUseCase(txManager, accountRepo, userRepo, outboxRepo, idGen).
		WithAuditRepo(auditRepo)
	txUC := usecase.NewTransactionUseCase(txManager, accountRepo, transactionRepo, outboxRepo, idGen).
		WithRetrier(retrier).
		WithCache(cache).
		WithAuditRepo(auditRepo)
	requestUC := usecase.NewRollbackRequestUseCase(requestRepo, transactionRepo, accountRepo, txUC).
		WithAuditRepo(auditRepo)
	reconciliationUC := usecase.NewReconciliationUseCase(ledgerRepo)

	if err := seedAdmin(ctx, cfg, userRepo); err != nil {
		log.Fatal().Err(err).Msg("failed to seed admin user")
	}

	// Handlers
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AuthHandler:            handler.NewAuthHandler(userUC, m),
		AccountHandler:         handler.NewAccountHandler(accountUC, m),
		TransactionHandler:     handler.NewTransactionHandler(txUC, m),
		RollbackRequestHandler: handler.NewRollbackRequestHandler(requestUC, m),
		ReconciliationHandler:  handler.NewReconciliationHandler(reconciliationUC),
		AuditHandler:           handler.NewAuditHandler(auditRepo),
		HealthHandler:          handler.NewHealthHandler(pool, redisClient),
		JWTManager:             jwtManager,
		IdempotencyStore:       idempotencyStore,
		IdempotencyTTL:         cfg.IdempotencyTTL,
		Logger:                 log.Logger,
	})

	// Outbox publisher
	publisherCtx, stopPublisher := context.WithCancel(ctx)
	defer stopPublisher()

	if cfg.EventPublisherEnabled {
		workerLogger := logging.New(cfg.LogLevel, cfg.LogFormat)

		publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: outboxRepo,
			Publisher:  eventpublisher.NewRedisPublisher(redisClient, ""),
			Logger:     workerLogger.Logger,
			Interval:   cfg.EventPublisherInterval,
			Retention:  cfg.EventRetention,
		})

		go func() {
			if err := publisher.Start(publisherCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("event publisher stopped")
			}
		}()
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	stopPublisher()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// seedAdmin creates the bootstrap admin user when it does not exist yet.
func seedAdmin(ctx context.Context, cfg *config.Config, userRepo usecase.UserRepository) error {
	if cfg.AdminPassword == "" {
		log.Warn().Msg("ADMIN_PASSWORD not set, skipping admin bootstrap")
		return nil
	}

	_, err := userRepo.GetByUsername(ctx, cfg.AdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	admin := &domain.User{
		Username:       cfg.AdminUsername,
		Email:          cfg.AdminEmail,
		HashedPassword: string(hashed),
		Role:           domain.RoleAdmin,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := userRepo.Create(ctx, admin); err != nil {
		return err
	}

	log.Info().Str("username", cfg.AdminUsername).Msg("admin user created")
	return nil
}
