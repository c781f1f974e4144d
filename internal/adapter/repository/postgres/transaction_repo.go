package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fintech/digibank/internal/domain"
	"github.com/fintech/digibank/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository over the
// append-only transaction log. Rows are never deleted; the only updates
// allowed are the one-way reversed flag and the related-transaction link.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionColumns = `id, type, amount, timestamp, source_account_id, target_account_id, reversed, related_transaction_id`

// Create appends a record to the log and fills in its generated id.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, record *domain.Transaction) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO transactions (type, amount, timestamp, source_account_id, target_account_id, reversed, related_transaction_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	return pgxTx.QueryRow(ctx, query,
		string(record.Type),
		decimalToNumeric(record.Amount),
		timeToPgTimestamptz(record.Timestamp),
		record.SourceAccountID,
		record.TargetAccountID,
		record.Reversed,
		record.RelatedTransactionID,
	).Scan(&record.ID)
}

// GetByID retrieves a record by id.
func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	return r.scanTransaction(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves a record with a FOR UPDATE lock, serializing
// concurrent rollback attempts on the same transaction.
func (r *TransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id int64) (*domain.Transaction, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 FOR UPDATE`

	record, err := r.scanTransaction(pgxTx.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapLockError(err)
	}

	return record, nil
}

// ListAll retrieves the full log, newest first.
func (r *TransactionRepository) ListAll(ctx context.Context) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions ORDER BY id DESC`

	return r.queryTransactions(ctx, query)
}

// ListByAccountIDs retrieves all records touching any of the given accounts
// as source or target, newest first.
func (r *TransactionRepository) ListByAccountIDs(ctx context.Context, accountIDs []int64) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE source_account_id = ANY($1) OR target_account_id = ANY($1)
		ORDER BY id DESC
	`

	return r.queryTransactions(ctx, query, accountIDs)
}

// MarkReversed flips the reversed flag and links the reversal. The WHERE
// clause refuses to touch an already-reversed row, so the flag is one-way
// even if callers race.
func (r *TransactionRepository) MarkReversed(ctx context.Context, tx usecase.Transaction, id, relatedID int64) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		UPDATE transactions
		SET reversed = TRUE, related_transaction_id = $2
		WHERE id = $1 AND reversed = FALSE
	`

	tag, err := pgxTx.Exec(ctx, query, id, relatedID)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyReversed
	}

	return nil
}

// SetRelatedTransaction points a record at its counterpart without marking
// it reversed. Used on the reversal side of the link.
func (r *TransactionRepository) SetRelatedTransaction(ctx context.Context, tx usecase.Transaction, id, relatedID int64) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `UPDATE transactions SET related_transaction_id = $2 WHERE id = $1`

	_, err := pgxTx.Exec(ctx, query, id, relatedID)

	return err
}

func (r *TransactionRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]*domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*domain.Transaction{}
	for rows.Next() {
		record, err := scanTransactionRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

func (r *TransactionRepository) scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	record, err := scanTransactionRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	return record, nil
}

func scanTransactionRow(row pgx.Row) (*domain.Transaction, error) {
	var (
		record    domain.Transaction
		txType    string
		amount    pgtype.Numeric
		timestamp pgtype.Timestamptz
	)

	err := row.Scan(
		&record.ID,
		&txType,
		&amount,
		&timestamp,
		&record.SourceAccountID,
		&record.TargetAccountID,
		&record.Reversed,
		&record.RelatedTransactionID,
	)
	if err != nil {
		return nil, err
	}

	record.Type = domain.TransactionType(txType)
	record.Amount = numericToDecimal(amount)
	record.Timestamp = timestamp.Time

	return &record, nil
}
