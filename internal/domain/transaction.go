package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType identifies a money-movement operation.
type TransactionType string

const (
	TransactionDeposit  TransactionType = "DEPOSIT"
	TransactionWithdraw TransactionType = "WITHDRAW"
	TransactionTransfer TransactionType = "TRANSFER"
)

// IsValid checks if the transaction type is known.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionDeposit, TransactionWithdraw, TransactionTransfer:
		return true
	}
	return false
}

// Transaction is an immutable record of a money movement. After creation
// exactly two fields may change, each one-way: Reversed (false to true) and
// RelatedTransactionID (nil to set). A reversed transaction and its reversal
// always point at each other.
type Transaction struct {
	ID                   int64
	Type                 TransactionType
	Amount               decimal.Decimal
	Timestamp            time.Time
	SourceAccountID      int64
	TargetAccountID      *int64
	Reversed             bool
	RelatedTransactionID *int64
}

// TouchesAccount reports whether the account is the source or target.
func (t *Transaction) TouchesAccount(accountID int64) bool {
	if t.SourceAccountID == accountID {
		return true
	}
	return t.TargetAccountID != nil && *t.TargetAccountID == accountID
}

// ReversalPlan describes the compensating operation for a transaction.
type ReversalPlan struct {
	// Type of the compensating transaction.
	Type TransactionType

	// AccountID is the account the compensating deposit/withdraw applies
	// to, or the source of the compensating transfer.
	AccountID int64

	// TargetAccountID is set only for transfer reversals: money flows back
	// from the original target to the original source.
	TargetAccountID int64
}

// PlanReversal decides how to invert the monetary effect of a transaction.
// Every transaction type must have an explicit reversal decision here;
// unknown types fail with ErrUnsupportedRollback, missing account references
// on a transfer with ErrMalformedTransaction.
func PlanReversal(orig *Transaction) (ReversalPlan, error) {
	switch orig.Type {
	case TransactionDeposit:
		return ReversalPlan{Type: TransactionWithdraw, AccountID: orig.SourceAccountID}, nil

	case TransactionWithdraw:
		return ReversalPlan{Type: TransactionDeposit, AccountID: orig.SourceAccountID}, nil

	case TransactionTransfer:
		if orig.TargetAccountID == nil || orig.SourceAccountID == 0 {
			return ReversalPlan{}, ErrMalformedTransaction
		}
		return ReversalPlan{
			Type:            TransactionTransfer,
			AccountID:       *orig.TargetAccountID,
			TargetAccountID: orig.SourceAccountID,
		}, nil

	default:
		return ReversalPlan{}, ErrUnsupportedRollback
	}
}
