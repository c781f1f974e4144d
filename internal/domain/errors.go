package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrInsufficientFunds  = errors.New("insufficient balance")
	ErrInvalidAccountType = errors.New("invalid account type")

	// User errors
	ErrUserNotFound   = errors.New("user not found")
	ErrUsernameTaken  = errors.New("username already taken")
	ErrUserInactive   = errors.New("user is inactive")
	ErrBadCredentials = errors.New("invalid username or password")

	// Transaction errors
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrSameAccount          = errors.New("cannot transfer to the same account")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrAlreadyReversed      = errors.New("transaction already reversed")
	ErrMalformedTransaction = errors.New("transfer transaction is missing an account reference")
	ErrUnsupportedRollback  = errors.New("transaction type has no defined reversal")

	// Rollback request errors
	ErrRequestNotFound   = errors.New("rollback request not found")
	ErrRequestNotPending = errors.New("rollback request is not pending")

	// Authorization errors
	ErrAccessDenied = errors.New("access denied")

	// Persistence errors surfaced to callers as retryable failures
	ErrLockTimeout = errors.New("could not acquire account lock in time")

	// Cache errors
	ErrCacheMiss = errors.New("cache miss")
)
