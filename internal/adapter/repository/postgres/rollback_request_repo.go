package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fintech/digibank/internal/domain"
)

// RollbackRequestRepository implements usecase.RollbackRequestRepository.
type RollbackRequestRepository struct {
	pool *pgxpool.Pool
}

// NewRollbackRequestRepository creates a new RollbackRequestRepository.
func NewRollbackRequestRepository(pool *pgxpool.Pool) *RollbackRequestRepository {
	return &RollbackRequestRepository{pool: pool}
}

const requestColumns = `id, transaction_id, requesting_user_id, reason, status, created_at`

// Create files a new request and fills in its generated id.
func (r *RollbackRequestRepository) Create(ctx context.Context, request *domain.RollbackRequest) error {
	query := `
		INSERT INTO rollback_requests (transaction_id, requesting_user_id, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	return r.pool.QueryRow(ctx, query,
		request.TransactionID,
		request.RequestingUserID,
		request.Reason,
		string(request.Status),
		timeToPgTimestamptz(request.CreatedAt),
	).Scan(&request.ID)
}

// GetByID retrieves a request by id.
func (r *RollbackRequestRepository) GetByID(ctx context.Context, id int64) (*domain.RollbackRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM rollback_requests WHERE id = $1`

	request, err := scanRequestRow(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRequestNotFound
		}

		return nil, err
	}

	return request, nil
}

// UpdateStatus records a decision. Only pending requests can move; a
// request that already carries a decision is left untouched.
func (r *RollbackRequestRepository) UpdateStatus(ctx context.Context, id int64, status domain.RequestStatus) error {
	query := `UPDATE rollback_requests SET status = $2 WHERE id = $1 AND status = $3`

	tag, err := r.pool.Exec(ctx, query, id, string(status), string(domain.RequestPending))
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRequestNotPending
	}

	return nil
}

// ListByUser retrieves all requests filed by a user, newest first.
func (r *RollbackRequestRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.RollbackRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM rollback_requests WHERE requesting_user_id = $1 ORDER BY id DESC`

	return r.queryRequests(ctx, query, userID)
}

// ListByStatus retrieves all requests in a given state, oldest first so
// admins work the queue in filing order.
func (r *RollbackRequestRepository) ListByStatus(ctx context.Context, status domain.RequestStatus) ([]*domain.RollbackRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM rollback_requests WHERE status = $1 ORDER BY id`

	return r.queryRequests(ctx, query, string(status))
}

func (r *RollbackRequestRepository) queryRequests(ctx context.Context, query string, args ...any) ([]*domain.RollbackRequest, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []*domain.RollbackRequest{}
	for rows.Next() {
		request, err := scanRequestRow(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}

	return requests, rows.Err()
}

func scanRequestRow(row pgx.Row) (*domain.RollbackRequest, error) {
	var (
		request   domain.RollbackRequest
		status    string
		createdAt pgtype.Timestamptz
	)

	err := row.Scan(
		&request.ID,
		&request.TransactionID,
		&request.RequestingUserID,
		&request.Reason,
		&status,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	request.Status = domain.RequestStatus(status)
	request.CreatedAt = createdAt.Time

	return &request, nil
}
