package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintech/digibank/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	GetByAccountNumber(ctx context.Context, number string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id int64) (*domain.Account, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []int64) ([]*domain.Account, error)
	UpdateBalance(ctx context.Context, tx Transaction, id int64, balance decimal.Decimal) error
	SetActive(ctx context.Context, id int64, active bool) error
	ListByUser(ctx context.Context, userID int64) ([]*domain.Account, error)
}

// TransactionRepository defines data access for the transaction log.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, record *domain.Transaction) error
	GetByID(ctx context.Context, id int64) (*domain.Transaction, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id int64) (*domain.Transaction, error)
	ListAll(ctx context.Context) ([]*domain.Transaction, error)
	ListByAccountIDs(ctx context.Context, accountIDs []int64) ([]*domain.Transaction, error)
	MarkReversed(ctx context.Context, tx Transaction, id, relatedID int64) error
	SetRelatedTransaction(ctx context.Context, tx Transaction, id, relatedID int64) error
}

// RollbackRequestRepository defines data access for rollback requests.
type RollbackRequestRepository interface {
	Create(ctx context.Context, request *domain.RollbackRequest) error
	GetByID(ctx context.Context, id int64) (*domain.RollbackRequest, error)
	UpdateStatus(ctx context.Context, id int64, status domain.RequestStatus) error
	ListByUser(ctx context.Context, userID int64) ([]*domain.RollbackRequest, error)
	ListByStatus(ctx context.Context, status domain.RequestStatus) ([]*domain.RollbackRequest, error)
}

// UserRepository defines data access for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// LedgerRepository defines data access for ledger-wide checks.
type LedgerRepository interface {
	// Totals returns the sum of all account balances, all deposit amounts
	// and all withdrawal amounts.
	Totals(ctx context.Context) (balances, deposits, withdrawals decimal.Decimal, err error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique string IDs (outbox events).
type IDGenerator interface {
	Generate() string
}

// Retrier re-runs an operation on transient persistence conflicts.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
