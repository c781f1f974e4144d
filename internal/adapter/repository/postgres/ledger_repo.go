package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// Totals returns the sum of all account balances alongside the total
// deposited and withdrawn amounts from the transaction log. Transfers move
// money between accounts and cancel out of the ledger total.
func (r *LedgerRepository) Totals(ctx context.Context) (balances, deposits, withdrawals decimal.Decimal, err error) {
	query := `
		SELECT
			(SELECT COALESCE(SUM(balance), 0) FROM accounts),
			(SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE type = 'DEPOSIT'),
			(SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE type = 'WITHDRAW')
	`

	var totalBalances, totalDeposits, totalWithdrawals pgtype.Numeric

	err = r.pool.QueryRow(ctx, query).Scan(&totalBalances, &totalDeposits, &totalWithdrawals)
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, err
	}

	return numericToDecimal(totalBalances), numericToDecimal(totalDeposits), numericToDecimal(totalWithdrawals), nil
}
