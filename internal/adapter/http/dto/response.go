package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintech/digibank/internal/domain"
	"github.com/fintech/digibank/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID            int64           `json:"id"`
	AccountNumber string          `json:"account_number"`
	Type          string          `json:"type,omitempty"`
	Balance       decimal.Decimal `json:"balance"`
	Active        bool            `json:"active"`
	UserID        int64           `json:"user_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:            a.ID,
		AccountNumber: a.AccountNumber,
		Type:          string(a.Type),
		Balance:       a.Balance,
		Active:        a.Active,
		UserID:        a.UserID,
		CreatedAt:     a.CreatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// TransactionResponse represents a transaction log record in API responses.
type TransactionResponse struct {
	ID                   int64           `json:"id"`
	Type                 string          `json:"type"`
	Amount               decimal.Decimal `json:"amount"`
	Timestamp            time.Time       `json:"timestamp"`
	SourceAccountID      int64           `json:"source_account_id"`
	TargetAccountID      *int64          `json:"target_account_id,omitempty"`
	Reversed             bool            `json:"reversed"`
	RelatedTransactionID *int64          `json:"related_transaction_id,omitempty"`
}

// TransactionFromDomain converts a domain transaction to response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:                   t.ID,
		Type:                 string(t.Type),
		Amount:               t.Amount,
		Timestamp:            t.Timestamp,
		SourceAccountID:      t.SourceAccountID,
		TargetAccountID:      t.TargetAccountID,
		Reversed:             t.Reversed,
		RelatedTransactionID: t.RelatedTransactionID,
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(records []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(records))
	for i, t := range records {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// RollbackRequestResponse represents a rollback request in API responses.
type RollbackRequestResponse struct {
	ID               int64     `json:"id"`
	TransactionID    int64     `json:"transaction_id"`
	RequestingUserID int64     `json:"requesting_user_id"`
	Reason           string    `json:"reason"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

// RollbackRequestFromDomain converts a domain request to response.
func RollbackRequestFromDomain(r *domain.RollbackRequest) *RollbackRequestResponse {
	return &RollbackRequestResponse{
		ID:               r.ID,
		TransactionID:    r.TransactionID,
		RequestingUserID: r.RequestingUserID,
		Reason:           r.Reason,
		Status:           string(r.Status),
		CreatedAt:        r.CreatedAt,
	}
}

// RollbackRequestsFromDomain converts domain requests to responses.
func RollbackRequestsFromDomain(requests []*domain.RollbackRequest) []*RollbackRequestResponse {
	result := make([]*RollbackRequestResponse, len(requests))
	for i, r := range requests {
		result[i] = RollbackRequestFromDomain(r)
	}
	return result
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID                int64     `json:"id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	Role              string    `json:"role"`
	Active            bool      `json:"active"`
	SelectedAccountID *int64    `json:"selected_account_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// UserFromDomain converts a domain user to response. The password hash
// never leaves the server.
func UserFromDomain(u *domain.User) *UserResponse {
	return &UserResponse{
		ID:                u.ID,
		Username:          u.Username,
		Email:             u.Email,
		Role:              string(u.Role),
		Active:            u.Active,
		SelectedAccountID: u.SelectedAccountID,
		CreatedAt:         u.CreatedAt,
	}
}

// LoginResponse represents a successful login.
type LoginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      *UserResponse `json:"user"`
}

// ReconciliationResponse represents the result of a ledger check.
type ReconciliationResponse struct {
	TotalBalances    decimal.Decimal `json:"total_balances"`
	TotalDeposits    decimal.Decimal `json:"total_deposits"`
	TotalWithdrawals decimal.Decimal `json:"total_withdrawals"`
	Expected         decimal.Decimal `json:"expected"`
	Drift            decimal.Decimal `json:"drift"`
	Balanced         bool            `json:"balanced"`
}

// ReconciliationFromReport converts a reconciliation report to response.
func ReconciliationFromReport(r *usecase.ReconciliationReport) *ReconciliationResponse {
	return &ReconciliationResponse{
		TotalBalances:    r.TotalBalances,
		TotalDeposits:    r.TotalDeposits,
		TotalWithdrawals: r.TotalWithdrawals,
		Expected:         r.Expected,
		Drift:            r.Drift,
		Balanced:         r.Balanced,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
