package usecase

import (
	"context"
	"time"

	"github.com/fintech/digibank/internal/domain"
)

// RollbackEngine is the slice of the transaction engine the request
// workflow needs.
type RollbackEngine interface {
	Rollback(ctx context.Context, caller domain.Identity, transactionID int64) (*domain.Transaction, error)
}

// RollbackRequestUseCase handles the rollback approval workflow: users
// petition for a reversal, admins approve (which executes the rollback) or
// reject (which only records the decision).
type RollbackRequestUseCase struct {
	requestRepo RollbackRequestRepository
	txRepo      TransactionRepository
	accountRepo AccountRepository
	engine      RollbackEngine
	auditRepo   AuditRepository
}

// NewRollbackRequestUseCase creates a new RollbackRequestUseCase.
func NewRollbackRequestUseCase(
	requestRepo RollbackRequestRepository,
	txRepo TransactionRepository,
	accountRepo AccountRepository,
	engine RollbackEngine,
) *RollbackRequestUseCase {
	return &RollbackRequestUseCase{
		requestRepo: requestRepo,
		txRepo:      txRepo,
		accountRepo: accountRepo,
		engine:      engine,
	}
}

// WithAuditRepo enables audit logging of approval decisions.
func (uc *RollbackRequestUseCase) WithAuditRepo(auditRepo AuditRepository) *RollbackRequestUseCase {
	uc.auditRepo = auditRepo
	return uc
}

// Submit files a rollback request for a transaction. The requester must own
// the source or target account of the transaction, unless they are an
// admin. Already-reversed transactions are rejected up front.
func (uc *RollbackRequestUseCase) Submit(ctx context.Context, caller domain.Identity, transactionID int64, reason string) (*domain.RollbackRequest, error) {
	if err := domain.ValidateReason(reason); err != nil {
		return nil, err
	}

	txn, err := uc.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if txn.Reversed {
		return nil, domain.ErrAlreadyReversed
	}

	if !caller.IsAdmin() {
		owns, err := uc.callerTouchesTransaction(ctx, caller, txn)
		if err != nil {
			return nil, err
		}
		if !owns {
			return nil, domain.ErrAccessDenied
		}
	}

	request := &domain.RollbackRequest{
		TransactionID:    transactionID,
		RequestingUserID: caller.UserID,
		Reason:           reason,
		Status:           domain.RequestPending,
		CreatedAt:        time.Now().UTC(),
	}

	if err := uc.requestRepo.Create(ctx, request); err != nil {
		return nil, err
	}

	return request, nil
}

// Approve executes the rollback of the requested transaction and marks the
// request approved. The status flips only after the rollback succeeds, so a
// failed reversal leaves the request pending and retryable. Admin-only.
func (uc *RollbackRequestUseCase) Approve(ctx context.Context, caller domain.Identity, requestID int64) (*domain.RollbackRequest, error) {
	if !caller.IsAdmin() {
		return nil, domain.ErrAccessDenied
	}

	request, err := uc.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if !request.IsPending() {
		return nil, domain.ErrRequestNotPending
	}

	before := domain.MarshalState(request)

	if _, err := uc.engine.Rollback(ctx, caller, request.TransactionID); err != nil {
		uc.audit(ctx, caller, domain.AuditActionRequestApprove, requestID, before, nil, err)
		return nil, err
	}

	if err := uc.requestRepo.UpdateStatus(ctx, requestID, domain.RequestApproved); err != nil {
		return nil, err
	}

	request.Status = domain.RequestApproved
	uc.audit(ctx, caller, domain.AuditActionRequestApprove, requestID, before, domain.MarshalState(request), nil)

	return request, nil
}

// Reject marks a pending request rejected without touching any balances.
// Admin-only.
func (uc *RollbackRequestUseCase) Reject(ctx context.Context, caller domain.Identity, requestID int64) (*domain.RollbackRequest, error) {
	if !caller.IsAdmin() {
		return nil, domain.ErrAccessDenied
	}

	request, err := uc.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if !request.IsPending() {
		return nil, domain.ErrRequestNotPending
	}

	before := domain.MarshalState(request)

	if err := uc.requestRepo.UpdateStatus(ctx, requestID, domain.RequestRejected); err != nil {
		return nil, err
	}

	request.Status = domain.RequestRejected
	uc.audit(ctx, caller, domain.AuditActionRequestReject, requestID, before, domain.MarshalState(request), nil)

	return request, nil
}

// ListMine returns the caller's own requests.
func (uc *RollbackRequestUseCase) ListMine(ctx context.Context, caller domain.Identity) ([]*domain.RollbackRequest, error) {
	return uc.requestRepo.ListByUser(ctx, caller.UserID)
}

// ListPending returns all pending requests. Admin-only.
func (uc *RollbackRequestUseCase) ListPending(ctx context.Context, caller domain.Identity) ([]*domain.RollbackRequest, error) {
	if !caller.IsAdmin() {
		return nil, domain.ErrAccessDenied
	}

	return uc.requestRepo.ListByStatus(ctx, domain.RequestPending)
}

func (uc *RollbackRequestUseCase) callerTouchesTransaction(ctx context.Context, caller domain.Identity, txn *domain.Transaction) (bool, error) {
	accounts, err := uc.accountRepo.ListByUser(ctx, caller.UserID)
	if err != nil {
		return false, err
	}

	for _, a := range accounts {
		if txn.TouchesAccount(a.ID) {
			return true, nil
		}
	}

	return false, nil
}

func (uc *RollbackRequestUseCase) audit(ctx context.Context, caller domain.Identity, action domain.AuditAction, requestID int64, before, after domain.JSON, opErr error) {
	if uc.auditRepo == nil {
		return
	}

	log := &domain.AuditLog{
		UserID:       caller.UserID,
		Action:       string(action),
		ResourceType: "rollback_request",
		ResourceID:   requestID,
		BeforeState:  before,
		AfterState:   after,
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    time.Now().UTC(),
	}

	if opErr != nil {
		log.Status = string(domain.AuditStatusFailure)
		log.ErrorMessage = opErr.Error()
	}

	_ = uc.auditRepo.Create(ctx, log)
}
