package usecase

import (
	"context"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintech/digibank/internal/domain"
)

// AccountUseCase handles account lifecycle and lookups.
type AccountUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	userRepo    UserRepository
	outboxRepo  OutboxRepository
	auditRepo   AuditRepository
	idGen       IDGenerator
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	userRepo UserRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
) *AccountUseCase {
	return &AccountUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		userRepo:    userRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
	}
}

// WithAuditRepo enables audit logging of lifecycle changes.
func (uc *AccountUseCase) WithAuditRepo(auditRepo AuditRepository) *AccountUseCase {
	uc.auditRepo = auditRepo
	return uc
}

// Open creates a new active account for the caller. The first account a
// user opens becomes their selected account.
func (uc *AccountUseCase) Open(ctx context.Context, caller domain.Identity, accountType domain.AccountType) (*domain.Account, error) {
	if !accountType.IsValid() {
		return nil, domain.ErrInvalidAccountType
	}

	now := time.Now().UTC()
	account := &domain.Account{
		AccountNumber: domain.GenerateAccountNumber(now),
		Type:          accountType,
		Balance:       decimal.Zero,
		Active:        true,
		UserID:        caller.UserID,
		CreatedAt:     now,
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	user, err := uc.userRepo.GetByID(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}

	if user.SelectedAccountID == nil {
		user.SelectedAccountID = &account.ID
		if err := uc.userRepo.Update(ctx, user); err != nil {
			return nil, err
		}
	}

	uc.emitAccountCreated(ctx, account)
	uc.audit(ctx, caller, domain.AuditActionAccountCreate, account.ID, nil, domain.MarshalState(account), nil)

	return account, nil
}

// Get returns an account by id. Non-admins may only read their own accounts.
func (uc *AccountUseCase) Get(ctx context.Context, caller domain.Identity, id int64) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !caller.IsAdmin() && !account.IsOwnedBy(caller.UserID) {
		return nil, domain.ErrAccessDenied
	}

	return account, nil
}

// GetByNumber resolves an account by its public number. Any authenticated
// caller may resolve a number; only the number and id are safe to expose
// to non-owners, which the handler layer enforces.
func (uc *AccountUseCase) GetByNumber(ctx context.Context, caller domain.Identity, number string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByAccountNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	if !caller.IsAdmin() && !account.IsOwnedBy(caller.UserID) {
		// Redact everything but the addressable surface.
		return &domain.Account{
			ID:            account.ID,
			AccountNumber: account.AccountNumber,
			Active:        account.Active,
		}, nil
	}

	return account, nil
}

// ListMine returns all accounts owned by the caller.
func (uc *AccountUseCase) ListMine(ctx context.Context, caller domain.Identity) ([]*domain.Account, error) {
	return uc.accountRepo.ListByUser(ctx, caller.UserID)
}

// ListForUser returns all accounts owned by the given user. Admin-only.
func (uc *AccountUseCase) ListForUser(ctx context.Context, caller domain.Identity, userID int64) ([]*domain.Account, error) {
	if !caller.IsAdmin() {
		return nil, domain.ErrAccessDenied
	}

	return uc.accountRepo.ListByUser(ctx, userID)
}

// SetActive activates or deactivates an account. Admin-only. Deactivated
// accounts refuse all money movement until reactivated; their balance is
// retained.
func (uc *AccountUseCase) SetActive(ctx context.Context, caller domain.Identity, id int64, active bool) (*domain.Account, error) {
	if !caller.IsAdmin() {
		return nil, domain.ErrAccessDenied
	}

	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	before := domain.MarshalState(account)

	if err := uc.accountRepo.SetActive(ctx, id, active); err != nil {
		return nil, err
	}

	account.Active = active

	action := domain.AuditActionAccountDeactivate
	if active {
		action = domain.AuditActionAccountActivate
	}
	uc.audit(ctx, caller, action, id, before, domain.MarshalState(account), nil)

	return account, nil
}

// SelectAccount marks one of the caller's accounts as the default one.
func (uc *AccountUseCase) SelectAccount(ctx context.Context, caller domain.Identity, accountID int64) error {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return err
	}

	if !account.IsOwnedBy(caller.UserID) {
		return domain.ErrAccessDenied
	}

	user, err := uc.userRepo.GetByID(ctx, caller.UserID)
	if err != nil {
		return err
	}

	user.SelectedAccountID = &account.ID

	return uc.userRepo.Update(ctx, user)
}

func (uc *AccountUseCase) emitAccountCreated(ctx context.Context, account *domain.Account) {
	if uc.outboxRepo == nil {
		return
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return
	}
	defer tx.Rollback(ctx)

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   strconv.FormatInt(account.ID, 10),
		AggregateType: domain.AggregateTypeAccount,
		EventType:     domain.EventTypeAccountCreated,
		Payload: domain.MarshalState(domain.AccountCreatedEvent{
			AccountID:     account.ID,
			AccountNumber: account.AccountNumber,
			Type:          string(account.Type),
		}),
		CreatedAt: time.Now().UTC(),
	}

	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return
	}

	_ = tx.Commit(ctx)
}

func (uc *AccountUseCase) audit(ctx context.Context, caller domain.Identity, action domain.AuditAction, resourceID int64, before, after domain.JSON, opErr error) {
	if uc.auditRepo == nil {
		return
	}

	log := &domain.AuditLog{
		UserID:       caller.UserID,
		Action:       string(action),
		ResourceType: domain.AggregateTypeAccount,
		ResourceID:   resourceID,
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
