package domain

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

// AccountType classifies an account.
type AccountType string

const (
	AccountTypeChecking AccountType = "CHECKING"
	AccountTypeSavings  AccountType = "SAVINGS"
)

// IsValid checks if the account type is known.
func (t AccountType) IsValid() bool {
	return t == AccountTypeChecking || t == AccountTypeSavings
}

// Account represents a bank account holding a balance.
//
// ID is the internal opaque identifier and defines the global lock order;
// AccountNumber is the externally visible identifier callers use to address
// accounts they do not own (transfer targets).
type Account struct {
	ID            int64
	AccountNumber string
	Type          AccountType
	Balance       decimal.Decimal
	Active        bool
	UserID        int64
	Version       int64
	CreatedAt     time.Time
}

// ValidateDebit checks if the account can be debited by amount without
// going negative.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if a.Balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	return nil
}

// ApplyDebit returns the new balance after a debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns the new balance after a credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}

// IsOwnedBy reports whether the account belongs to the given user.
func (a *Account) IsOwnedBy(userID int64) bool {
	return a.UserID == userID
}

// GenerateAccountNumber builds an externally facing account number in the
// form ACC<epoch-millis><4 random uppercase alphanumerics>. The random
// suffix comes from the entropy portion of a ULID.
func GenerateAccountNumber(now time.Time) string {
	id := ulid.Make().String()
	return fmt.Sprintf("ACC%d%s", now.UnixMilli(), id[len(id)-4:])
}
