package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fintech/digibank/internal/domain"
)

// ReconciliationReport is the result of a ledger-wide consistency check.
type ReconciliationReport struct {
	TotalBalances    decimal.Decimal
	TotalDeposits    decimal.Decimal
	TotalWithdrawals decimal.Decimal
	Expected         decimal.Decimal
	Drift            decimal.Decimal
	Balanced         bool
}

// ReconciliationUseCase verifies that account balances agree with the
// transaction log. Transfers are internal moves and cancel out; only
// deposits and withdrawals change the ledger total.
type ReconciliationUseCase struct {
	ledgerRepo LedgerRepository
}

// NewReconciliationUseCase creates a new ReconciliationUseCase.
func NewReconciliationUseCase(ledgerRepo LedgerRepository) *ReconciliationUseCase {
	return &ReconciliationUseCase{ledgerRepo: ledgerRepo}
}

// Run computes the ledger totals and reports any drift between the sum of
// balances and deposits minus withdrawals. Admin-only.
func (uc *ReconciliationUseCase) Run(ctx context.Context, caller domain.Identity) (*ReconciliationReport, error) {
	if !caller.IsAdmin() {
		return nil, domain.ErrAccessDenied
	}

	balances, deposits, withdrawals, err := uc.ledgerRepo.Totals(ctx)
	if err != nil {
		return nil, err
	}

	expected := deposits.Sub(withdrawals)
	drift := balances.Sub(expected)

	return &ReconciliationReport{
		TotalBalances:    balances,
		TotalDeposits:    deposits,
		TotalWithdrawals: withdrawals,
		Expected:         expected,
		Drift:            drift,
		Balanced:         drift.IsZero(),
	}, nil
}
