package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/fintech/digibank/internal/adapter/http/handler"
	"github.com/fintech/digibank/internal/adapter/http/middleware"
	"github.com/fintech/digibank/internal/infrastructure/auth"
	"github.com/fintech/digibank/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AuthHandler            *handler.AuthHandler
	AccountHandler         *handler.AccountHandler
	TransactionHandler     *handler.TransactionHandler
	RollbackRequestHandler *handler.RollbackRequestHandler
	ReconciliationHandler  *handler.ReconciliationHandler
	AuditHandler           *handler.AuditHandler
	HealthHandler          *handler.HealthHandler

	JWTManager       *auth.JWTManager
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	Logger           zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewRequestLogger(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)

	// Health and metrics endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoints
		r.Post("/auth/register", cfg.AuthHandler.Register)
		r.Post("/auth/login", cfg.AuthHandler.Login)

		// Authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(cfg.JWTManager))

			if cfg.IdempotencyStore != nil {
				idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL)
				r.Use(idempotencyMiddleware.Wrap)
			}

			r.Get("/auth/me", cfg.AuthHandler.Me)

			// Accounts
			r.Route("/accounts", func(r chi.Router) {
				r.Post("/", cfg.AccountHandler.Open)
				r.Get("/", cfg.AccountHandler.List)
				r.Get("/{id}", cfg.AccountHandler.Get)
				r.Post("/{id}/select", cfg.AccountHandler.Select)
				r.Get("/by-number/{number}", cfg.AccountHandler.Resolve)
			})

			// Money movement
			r.Route("/transactions", func(r chi.Router) {
				r.Post("/deposit", cfg.TransactionHandler.Deposit)
				r.Post("/withdraw", cfg.TransactionHandler.Withdraw)
				r.Post("/transfer", cfg.TransactionHandler.Transfer)
				r.Get("/", cfg.TransactionHandler.ListMine)
			})

			// Rollback requests
			r.Route("/rollback-requests", func(r chi.Router) {
				r.Post("/", cfg.RollbackRequestHandler.Submit)
				r.Get("/", cfg.RollbackRequestHandler.ListMine)
			})

			// Admin endpoints
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)

				r.Get("/admin/transactions", cfg.TransactionHandler.History)
				r.Post("/admin/transactions/{id}/rollback", cfg.TransactionHandler.Rollback)
				r.Put("/admin/accounts/{id}/active", cfg.AccountHandler.SetActive)
				r.Get("/admin/users/{id}/accounts", cfg.AccountHandler.ListForUser)
				r.Get("/admin/rollback-requests/pending", cfg.RollbackRequestHandler.ListPending)
				r.Post("/admin/rollback-requests/{id}/approve", cfg.RollbackRequestHandler.Approve)
				r.Post("/admin/rollback-requests/{id}/reject", cfg.RollbackRequestHandler.Reject)
				r.Get("/admin/reconciliation", cfg.ReconciliationHandler.Check)
				r.Get("/admin/audit-logs", cfg.AuditHandler.List)
			})
		})
	})

	return r
}
