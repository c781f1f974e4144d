package dto

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// RegisterRequest represents a registration request.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// Validate validates the request.
func (r *RegisterRequest) Validate() error {
	return validate.Struct(r)
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Validate validates the request.
func (r *LoginRequest) Validate() error {
	return validate.Struct(r)
}

// OpenAccountRequest represents a request to open an account.
type OpenAccountRequest struct {
	Type string `json:"type" validate:"required,oneof=CHECKING SAVINGS"`
}

// Validate validates the request.
func (r *OpenAccountRequest) Validate() error {
	return validate.Struct(r)
}

// DepositRequest represents a deposit into an account.
type DepositRequest struct {
	AccountID int64           `json:"account_id" validate:"required,gt=0"`
	Amount    decimal.Decimal `json:"amount"     validate:"required"`
}

// Validate validates the request.
func (r *DepositRequest) Validate() error {
	return validate.Struct(r)
}

// WithdrawRequest represents a withdrawal from an account.
type WithdrawRequest struct {
	AccountID int64           `json:"account_id" validate:"required,gt=0"`
	Amount    decimal.Decimal `json:"amount"     validate:"required"`
}

// Validate validates the request.
func (r *WithdrawRequest) Validate() error {
	return validate.Struct(r)
}

// TransferRequest represents a transfer. The target is addressed by its
// public account number, not its internal id.
type TransferRequest struct {
	SourceAccountID     int64           `json:"source_account_id"     validate:"required,gt=0"`
	TargetAccountNumber string          `json:"target_account_number" validate:"required"`
	Amount              decimal.Decimal `json:"amount"                validate:"required"`
}

// Validate validates the request.
func (r *TransferRequest) Validate() error {
	return validate.Struct(r)
}

// SubmitRollbackRequest represents a user's petition to reverse a
// transaction.
type SubmitRollbackRequest struct {
	TransactionID int64  `json:"transaction_id" validate:"required,gt=0"`
	Reason        string `json:"reason"         validate:"required,max=500"`
}

// Validate validates the request.
func (r *SubmitRollbackRequest) Validate() error {
	return validate.Struct(r)
}

// SetAccountActiveRequest flips the active flag on an account.
type SetAccountActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// Validate validates the request.
func (r *SetAccountActiveRequest) Validate() error {
	return validate.Struct(r)
}
