package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adaptershttp "github.com/fintech/digibank/internal/adapter/http"
	"github.com/fintech/digibank/internal/adapter/http/dto"
	"github.com/fintech/digibank/internal/adapter/http/handler"
	"github.com/fintech/digibank/internal/adapter/http/middleware"
	postgresrepo "github.com/fintech/digibank/internal/adapter/repository/postgres"
	redisrepo "github.com/fintech/digibank/internal/adapter/repository/redis"
	"github.com/fintech/digibank/internal/domain"
	"github.com/fintech/digibank/internal/infrastructure/auth"
	"github.com/fintech/digibank/internal/infrastructure/metrics"
	"github.com/fintech/digibank/internal/usecase"
	"github.com/fintech/digibank/tests/testutil"
)

// Prometheus collectors register globally, so the test binary shares one set.
var testMetrics = metrics.New()

func newTestServer(t *testing.T, testDB *testutil.TestDB) http.Handler {
	t.Helper()

	pool := testDB.Pool

	mr := miniredis.RunT(t)
	redisClient := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	txManager := postgresrepo.NewTxManager(pool, 5*time.Second)
	accountRepo := postgresrepo.NewAccountRepository(pool)
	transactionRepo := postgresrepo.NewTransactionRepository(pool)
	requestRepo := postgresrepo.NewRollbackRequestRepository(pool)
	userRepo := postgresrepo.NewUserRepository(pool)
	auditRepo := postgresrepo.NewAuditRepository(pool)
	outboxRepo := postgresrepo.NewOutboxRepository(pool)
	ledgerRepo := postgresrepo.NewLedgerRepository(pool)
	idGen := postgresrepo.NewULIDGenerator()

	jwtManager := auth.NewJWTManager("integration-secret", time.Hour)

	userUC := usecase.NewUserUseCase(userRepo, jwtManager).WithAuditRepo(auditRepo)
	accountUC := usecase.NewAccountUseCase(txManager, accountRepo, userRepo, outboxRepo, idGen)
	txUC := usecase.NewTransactionUseCase(txManager, accountRepo, transactionRepo, outboxRepo, idGen).
		WithRetrier(postgresrepo.NewRetrier()).
		WithCache(redisrepo.NewCache(redisClient))
	requestUC := usecase.NewRollbackRequestUseCase(requestRepo, transactionRepo, accountRepo, txUC)
	reconciliationUC := usecase.NewReconciliationUseCase(ledgerRepo)

	return adaptershttp.NewRouter(adaptershttp.RouterConfig{
		AuthHandler:            handler.NewAuthHandler(userUC, testMetrics),
		AccountHandler:         handler.NewAccountHandler(accountUC, testMetrics),
		TransactionHandler:     handler.NewTransactionHandler(txUC, testMetrics),
		RollbackRequestHandler: handler.NewRollbackRequestHandler(requestUC, testMetrics),
		ReconciliationHandler:  handler.NewReconciliationHandler(reconciliationUC),
		AuditHandler:           handler.NewAuditHandler(auditRepo),
		HealthHandler:          handler.NewHealthHandler(pool, redisClient),
		JWTManager:             jwtManager,
		IdempotencyStore:       redisrepo.NewIdempotencyStore(redisClient),
		IdempotencyTTL:         time.Minute,
	})
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal body")
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	return rec
}

func TestFullBankingFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	router := newTestServer(t, testDB)

	// Register and log in.
	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", dto.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct-horse-battery",
	}, nil)
	require.Equalf(t, http.StatusCreated, rec.Code, "register: %s", rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{
		Username: "alice",
		Password: "correct-horse-battery",
	}, nil)
	require.Equalf(t, http.StatusOK, rec.Code, "login: %s", rec.Body.String())

	var login dto.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	token := login.Token

	// Open an account.
	rec = doJSON(t, router, http.MethodPost, "/api/v1/accounts/", token, dto.OpenAccountRequest{Type: "CHECKING"}, nil)
	require.Equalf(t, http.StatusCreated, rec.Code, "open account: %s", rec.Body.String())

	var account dto.AccountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &account))
	assert.Truef(t, account.Balance.Equal(decimal.Zero), "expected new account balance 0, got %s", account.Balance)

	// Deposit with an idempotency key.
	depositReq := dto.DepositRequest{AccountID: account.ID, Amount: decimal.NewFromInt(100)}
	idemHeaders := map[string]string{middleware.IdempotencyKeyHeader: "dep-1"}

	rec = doJSON(t, router, http.MethodPost, "/api/v1/transactions/deposit", token, depositReq, idemHeaders)
	require.Equalf(t, http.StatusCreated, rec.Code, "deposit: %s", rec.Body.String())

	var deposit dto.TransactionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deposit))

	// A replay with the same key returns the recorded response and does
	// not move money again.
	rec = doJSON(t, router, http.MethodPost, "/api/v1/transactions/deposit", token, depositReq, idemHeaders)

	var replayed dto.TransactionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &replayed))
	assert.Equal(t, deposit.ID, replayed.ID, "replay should return the recorded transaction")

	balance := testDB.AccountBalance(ctx, account.ID)
	assert.Truef(t, balance.Equal(decimal.NewFromInt(100)), "expected balance 100 after replay, got %s", balance)

	// Transfer to a second user addressed by account number.
	bob := testDB.CreateTestUser(ctx, "bob", domain.RoleUser)
	bobAccount := testDB.CreateTestAccount(ctx, bob.ID, decimal.Zero)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/transactions/transfer", token, dto.TransferRequest{
		SourceAccountID:     account.ID,
		TargetAccountNumber: bobAccount.AccountNumber,
		Amount:              decimal.NewFromInt(60),
	}, nil)
	require.Equalf(t, http.StatusCreated, rec.Code, "transfer: %s", rec.Body.String())

	bobBalance := testDB.AccountBalance(ctx, bobAccount.ID)
	assert.Truef(t, bobBalance.Equal(decimal.NewFromInt(60)), "expected bob's balance 60, got %s", bobBalance)

	// Overdrawing maps to 422.
	rec = doJSON(t, router, http.MethodPost, "/api/v1/transactions/withdraw", token, dto.WithdrawRequest{
		AccountID: account.ID,
		Amount:    decimal.NewFromInt(1000),
	}, nil)
	require.Equalf(t, http.StatusUnprocessableEntity, rec.Code, "withdraw: %s", rec.Body.String())
}
