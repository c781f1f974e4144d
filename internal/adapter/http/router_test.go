package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fintech/digibank/internal/adapter/http/handler"
	apimiddleware "github.com/fintech/digibank/internal/adapter/http/middleware"
	"github.com/fintech/digibank/internal/domain"
	"github.com/fintech/digibank/internal/infrastructure/auth"
	"github.com/fintech/digibank/internal/infrastructure/metrics"
	"github.com/fintech/digibank/internal/usecase"
	"github.com/fintech/digibank/internal/usecase/mocks"
)

// Prometheus collectors register globally, so the test binary shares one set.
var testMetrics = metrics.New()

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router, _ := newTestRouter(nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_RejectsUnauthenticatedRequests(t *testing.T) {
	router, _ := newTestRouter(nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestNewRouter_AuthenticatedRequestReachesHandler(t *testing.T) {
	router, env := newTestRouter(nil)
	env.userRepo.Seed(&domain.User{Username: "alice", Active: true, Role: domain.RoleUser})

	token := issueToken(t, env.jwtManager, 1, domain.RoleUser)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestNewRouter_AdminRoutesRequireAdminRole(t *testing.T) {
	router, env := newTestRouter(nil)

	userToken := issueToken(t, env.jwtManager, 1, domain.RoleUser)
	adminToken := issueToken(t, env.jwtManager, 2, domain.RoleAdmin)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/reconciliation", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/reconciliation", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	router, env := newTestRouter(store)
	env.accountRepo.Seed(&domain.Account{UserID: 1, Active: true})

	token := issueToken(t, env.jwtManager, 1, domain.RoleUser)

	body := `{"account_id":1,"amount":"100"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/deposit", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if !store.checkCalled {
		t.Fatal("expected idempotency store to be used")
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router, _ := newTestRouter(nil)

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Router")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"POST /api/v1/auth/register",
		"POST /api/v1/auth/login",
		"POST /api/v1/accounts/",
		"GET /api/v1/accounts/",
		"GET /api/v1/accounts/{id}",
		"GET /api/v1/accounts/by-number/{number}",
		"POST /api/v1/transactions/deposit",
		"POST /api/v1/transactions/withdraw",
		"POST /api/v1/transactions/transfer",
		"POST /api/v1/rollback-requests/",
		"GET /api/v1/admin/transactions",
		"POST /api/v1/admin/transactions/{id}/rollback",
		"PUT /api/v1/admin/accounts/{id}/active",
		"GET /api/v1/admin/users/{id}/accounts",
		"POST /api/v1/admin/rollback-requests/{id}/approve",
		"GET /api/v1/admin/reconciliation",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

type routerEnv struct {
	jwtManager  *auth.JWTManager
	userRepo    *mocks.MockUserRepository
	accountRepo *mocks.MockAccountRepository
}

func newTestRouter(store usecase.IdempotencyStore) (http.Handler, *routerEnv) {
	userRepo := mocks.NewMockUserRepository()
	accountRepo := mocks.NewMockAccountRepository()
	txRepo := mocks.NewMockTransactionRepository()
	requestRepo := mocks.NewMockRollbackRequestRepository()
	auditRepo := mocks.NewMockAuditRepository()
	ledgerRepo := mocks.NewMockLedgerRepository()
	txMgr := mocks.NewMockTransactionManager()
	idGen := mocks.NewMockIDGenerator()

	jwtManager := auth.NewJWTManager("test-secret", time.Minute)

	userUC := usecase.NewUserUseCase(userRepo, jwtManager)
	accountUC := usecase.NewAccountUseCase(txMgr, accountRepo, userRepo, nil, idGen)
	txUC := usecase.NewTransactionUseCase(txMgr, accountRepo, txRepo, nil, idGen)
	requestUC := usecase.NewRollbackRequestUseCase(requestRepo, txRepo, accountRepo, txUC)
	reconciliationUC := usecase.NewReconciliationUseCase(ledgerRepo)

	router := NewRouter(RouterConfig{
		AuthHandler:            handler.NewAuthHandler(userUC, testMetrics),
		AccountHandler:         handler.NewAccountHandler(accountUC, testMetrics),
		TransactionHandler:     handler.NewTransactionHandler(txUC, testMetrics),
		RollbackRequestHandler: handler.NewRollbackRequestHandler(requestUC, testMetrics),
		ReconciliationHandler:  handler.NewReconciliationHandler(reconciliationUC),
		AuditHandler:           handler.NewAuditHandler(auditRepo),
		HealthHandler:          &handler.HealthHandler{},
		JWTManager:             jwtManager,
		IdempotencyStore:       store,
	})

	return router, &routerEnv{
		jwtManager:  jwtManager,
		userRepo:    userRepo,
		accountRepo: accountRepo,
	}
}

func issueToken(t *testing.T, jwtManager *auth.JWTManager, userID int64, role domain.Role) string {
	t.Helper()
	token, _, err := jwtManager.Issue(&domain.User{ID: userID, Username: "test", Role: role})
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return token
}

type stubIdempotencyStore struct {
	checkCalled bool
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkCalled = true
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return nil
}
