package usecase

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintech/digibank/internal/domain"
)

// TransactionUseCase is the transaction engine. It performs deposit,
// withdraw, transfer and rollback as single database transactions with
// pessimistic row locks, and appends one immutable record per operation.
type TransactionUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	txRepo      TransactionRepository
	outboxRepo  OutboxRepository
	auditRepo   AuditRepository
	idGen       IDGenerator
	retrier     Retrier
	cache       Cache
}

// NewTransactionUseCase creates a new TransactionUseCase. outboxRepo may be
// nil to disable event emission.
func NewTransactionUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	txRepo TransactionRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
) *TransactionUseCase {
	return &TransactionUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		txRepo:      txRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
	}
}

// WithRetrier enables retrying of transient persistence conflicts. Each
// attempt runs as a fresh database transaction, so retries never replay
// partial effects.
func (uc *TransactionUseCase) WithRetrier(retrier Retrier) *TransactionUseCase {
	uc.retrier = retrier
	return uc
}

// WithCache enables caching of account-number resolution. The number-to-id
// mapping is immutable, so cached entries never go stale.
func (uc *TransactionUseCase) WithCache(cache Cache) *TransactionUseCase {
	uc.cache = cache
	return uc
}

// WithAuditRepo enables audit logging of rollbacks.
func (uc *TransactionUseCase) WithAuditRepo(auditRepo AuditRepository) *TransactionUseCase {
	uc.auditRepo = auditRepo
	return uc
}

// Deposit credits the account and appends a DEPOSIT record.
func (uc *TransactionUseCase) Deposit(ctx context.Context, caller domain.Identity, accountID int64, amount decimal.Decimal) (*domain.Transaction, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	return uc.runAtomic(ctx, func(tx Transaction) (*domain.Transaction, error) {
		return uc.performDeposit(ctx, tx, caller, accountID, amount)
	})
}

// Withdraw debits the account and appends a WITHDRAW record. Fails with
// ErrInsufficientFunds before any write if the balance does not cover the
// amount.
func (uc *TransactionUseCase) Withdraw(ctx context.Context, caller domain.Identity, accountID int64, amount decimal.Decimal) (*domain.Transaction, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	return uc.runAtomic(ctx, func(tx Transaction) (*domain.Transaction, error) {
		return uc.performWithdraw(ctx, tx, caller, accountID, amount)
	})
}

// Transfer moves amount from the caller's source account to the account
// addressed by its public account number, and appends a TRANSFER record.
func (uc *TransactionUseCase) Transfer(ctx context.Context, caller domain.Identity, sourceAccountID int64, targetAccountNumber string, amount decimal.Decimal) (*domain.Transaction, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	return uc.runAtomic(ctx, func(tx Transaction) (*domain.Transaction, error) {
		return uc.performTransfer(ctx, tx, caller, sourceAccountID, targetAccountNumber, amount)
	})
}

// Rollback reverses a transaction. The reversal is a regular transaction
// (itself rollback-eligible); the original and the reversal are linked to
// each other before the enclosing database transaction commits, so readers
// never observe one side of the link without the other. Admin-only.
func (uc *TransactionUseCase) Rollback(ctx context.Context, caller domain.Identity, transactionID int64) (*domain.Transaction, error) {
	if !caller.IsAdmin() {
		return nil, domain.ErrAccessDenied
	}

	var before, after domain.JSON

	reversal, err := uc.runAtomic(ctx, func(tx Transaction) (*domain.Transaction, error) {
		orig, err := uc.txRepo.GetByIDForUpdate(ctx, tx, transactionID)
		if err != nil {
			return nil, err
		}

		if orig.Reversed {
			return nil, domain.ErrAlreadyReversed
		}

		before = domain.MarshalState(orig)

		plan, err := domain.PlanReversal(orig)
		if err != nil {
			return nil, err
		}

		var reversal *domain.Transaction

		switch plan.Type {
		case domain.TransactionDeposit:
			reversal, err = uc.performDeposit(ctx, tx, caller, plan.AccountID, orig.Amount)
		case domain.TransactionWithdraw:
			reversal, err = uc.performWithdraw(ctx, tx, caller, plan.AccountID, orig.Amount)
		case domain.TransactionTransfer:
			// Money flows back from the original target to the original
			// source, addressed by its public number like any transfer.
			var srcAccount *domain.Account

			srcAccount, err = uc.accountRepo.GetByID(ctx, plan.TargetAccountID)
			if err != nil {
				return nil, err
			}

			reversal, err = uc.performTransfer(ctx, tx, caller, plan.AccountID, srcAccount.AccountNumber, orig.Amount)
		}

		if err != nil {
			return nil, err
		}

		// Mutual back-linking, same atomic unit as the reversal itself.
		if err := uc.txRepo.MarkReversed(ctx, tx, orig.ID, reversal.ID); err != nil {
			return nil, err
		}

		if err := uc.txRepo.SetRelatedTransaction(ctx, tx, reversal.ID, orig.ID); err != nil {
			return nil, err
		}

		reversal.RelatedTransactionID = &orig.ID

		if err := uc.emitEvent(ctx, tx, domain.AggregateTypeTransaction, strconv.FormatInt(orig.ID, 10), domain.EventTypeTransactionReversed, domain.TransactionReversedEvent{
			ReversalTransactionID: reversal.ID,
			OriginalTransactionID: orig.ID,
			Amount:                orig.Amount.String(),
		}); err != nil {
			return nil, err
		}

		orig.Reversed = true
		orig.RelatedTransactionID = &reversal.ID
		after = domain.MarshalState(orig)

		return reversal, nil
	})

	uc.audit(ctx, caller, domain.AuditActionTransactionRollback, domain.AggregateTypeTransaction, transactionID, before, after, err)

	return reversal, err
}

// History returns every transaction in the system, or only those touching
// the given account. Admin-only.
func (uc *TransactionUseCase) History(ctx context.Context, caller domain.Identity, accountID *int64) ([]*domain.Transaction, error) {
	if !caller.IsAdmin() {
		return nil, domain.ErrAccessDenied
	}

	if accountID == nil {
		return uc.txRepo.ListAll(ctx)
	}

	return uc.txRepo.ListByAccountIDs(ctx, []int64{*accountID})
}

// MyTransactions returns all transactions touching any account owned by the
// caller. A user with no accounts gets an empty list without hitting the
// transaction log.
func (uc *TransactionUseCase) MyTransactions(ctx context.Context, caller domain.Identity) ([]*domain.Transaction, error) {
	accounts, err := uc.accountRepo.ListByUser(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}

	if len(accounts) == 0 {
		return []*domain.Transaction{}, nil
	}

	ids := make([]int64, len(accounts))
	for i, a := range accounts {
		ids[i] = a.ID
	}

	return uc.txRepo.ListByAccountIDs(ctx, ids)
}

// runAtomic executes op inside a single database transaction, retrying the
// whole unit on transient conflicts when a retrier is configured.
func (uc *TransactionUseCase) runAtomic(ctx context.Context, op func(tx Transaction) (*domain.Transaction, error)) (*domain.Transaction, error) {
	var record *domain.Transaction

	attempt := func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		record, err = op(tx)
		if err != nil {
			return err
		}

		return tx.Commit(ctx)
	}

	var err error
	if uc.retrier != nil {
		err = uc.retrier.Retry(ctx, attempt)
	} else {
		err = attempt()
	}

	if err != nil {
		return nil, err
	}

	return record, nil
}

func (uc *TransactionUseCase) performDeposit(ctx context.Context, tx Transaction, caller domain.Identity, accountID int64, amount decimal.Decimal) (*domain.Transaction, error) {
	account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}

	if err := requireActive(account); err != nil {
		return nil, err
	}

	if err := requireOwnerOrAdmin(caller, account); err != nil {
		return nil, err
	}

	if err := uc.accountRepo.UpdateBalance(ctx, tx, account.ID, account.ApplyCredit(amount)); err != nil {
		return nil, err
	}

	record := &domain.Transaction{
		Type:            domain.TransactionDeposit,
		Amount:          amount,
		Timestamp:       time.Now().UTC(),
		SourceAccountID: account.ID,
	}

	if err := uc.appendRecord(ctx, tx, record); err != nil {
		return nil, err
	}

	return record, nil
}

func (uc *TransactionUseCase) performWithdraw(ctx context.Context, tx Transaction, caller domain.Identity, accountID int64, amount decimal.Decimal) (*domain.Transaction, error) {
	account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}

	if err := requireActive(account); err != nil {
		return nil, err
	}

	if err := requireOwnerOrAdmin(caller, account); err != nil {
		return nil, err
	}

	if err := account.ValidateDebit(amount); err != nil {
		return nil, err
	}

	if err := uc.accountRepo.UpdateBalance(ctx, tx, account.ID, account.ApplyDebit(amount)); err != nil {
		return nil, err
	}

	record := &domain.Transaction{
		Type:            domain.TransactionWithdraw,
		Amount:          amount,
		Timestamp:       time.Now().UTC(),
		SourceAccountID: account.ID,
	}

	if err := uc.appendRecord(ctx, tx, record); err != nil {
		return nil, err
	}

	return record, nil
}

func (uc *TransactionUseCase) performTransfer(ctx context.Context, tx Transaction, caller domain.Identity, sourceAccountID int64, targetAccountNumber string, amount decimal.Decimal) (*domain.Transaction, error) {
	targetID, err := uc.resolveAccountNumber(ctx, targetAccountNumber)
	if err != nil {
		return nil, err
	}

	if targetID == sourceAccountID {
		return nil, domain.ErrSameAccount
	}

	// Lock both rows in ascending id order (DEADLOCK PREVENTION).
	ids := []int64{sourceAccountID, targetID}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	accounts, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*domain.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	source, target := byID[sourceAccountID], byID[targetID]
	if source == nil || target == nil {
		return nil, domain.ErrAccountNotFound
	}

	if err := requireActive(source); err != nil {
		return nil, err
	}

	if err := requireActive(target); err != nil {
		return nil, err
	}

	// Ownership is checked on the source only; anyone may be the target of
	// a transfer addressed by account number.
	if err := requireOwnerOrAdmin(caller, source); err != nil {
		return nil, err
	}

	if err := source.ValidateDebit(amount); err != nil {
		return nil, err
	}

	if err := uc.accountRepo.UpdateBalance(ctx, tx, source.ID, source.ApplyDebit(amount)); err != nil {
		return nil, err
	}

	if err := uc.accountRepo.UpdateBalance(ctx, tx, target.ID, target.ApplyCredit(amount)); err != nil {
		return nil, err
	}

	record := &domain.Transaction{
		Type:            domain.TransactionTransfer,
		Amount:          amount,
		Timestamp:       time.Now().UTC(),
		SourceAccountID: source.ID,
		TargetAccountID: &target.ID,
	}

	if err := uc.appendRecord(ctx, tx, record); err != nil {
		return nil, err
	}

	return record, nil
}

// resolveAccountNumber maps a public account number to the internal id.
// The mapping is immutable, so a cache hit never returns a stale id; row
// state is re-read under lock afterwards either way.
func (uc *TransactionUseCase) resolveAccountNumber(ctx context.Context, number string) (int64, error) {
	cacheKey := "account_number:" + number

	if uc.cache != nil {
		if v, err := uc.cache.Get(ctx, cacheKey); err == nil {
			if id, perr := strconv.ParseInt(v, 10, 64); perr == nil {
				return id, nil
			}
		}
	}

	account, err := uc.accountRepo.GetByAccountNumber(ctx, number)
	if err != nil {
		return 0, err
	}

	if uc.cache != nil {
		_ = uc.cache.Set(ctx, cacheKey, strconv.FormatInt(account.ID, 10), AccountNumberCacheTTL)
	}

	return account.ID, nil
}

func (uc *TransactionUseCase) appendRecord(ctx context.Context, tx Transaction, record *domain.Transaction) error {
	if err := uc.txRepo.Create(ctx, tx, record); err != nil {
		return err
	}

	return uc.emitEvent(ctx, tx, domain.AggregateTypeTransaction, strconv.FormatInt(record.ID, 10), domain.EventTypeTransactionCreated, domain.TransactionCreatedEvent{
		TransactionID:   record.ID,
		Type:            string(record.Type),
		SourceAccountID: record.SourceAccountID,
		TargetAccountID: record.TargetAccountID,
		Amount:          record.Amount.String(),
	})
}

func (uc *TransactionUseCase) emitEvent(ctx context.Context, tx Transaction, aggregateType, aggregateID, eventType string, payload any) error {
	if uc.outboxRepo == nil {
		return nil
	}

	return uc.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       domain.MarshalState(payload),
		CreatedAt:     time.Now().UTC(),
	})
}

func (uc *TransactionUseCase) audit(ctx context.Context, caller domain.Identity, action domain.AuditAction, resourceType string, resourceID int64, before, after domain.JSON, opErr error) {
	if uc.auditRepo == nil {
		return
	}

	log := &domain.AuditLog{
		UserID:       caller.UserID,
		Action:       string(action),
		ResourceType: resourceType,
		ResourceID:   resourceID,
		BeforeState:  before,
		AfterState:   after,
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    time.Now().UTC(),
	}

	if opErr != nil {
		log.Status = string(domain.AuditStatusFailure)
		log.ErrorMessage = opErr.Error()
		log.AfterState = nil
	}

	// Audit failures must not fail the operation itself.
	_ = uc.auditRepo.Create(ctx, log)
}

func requireActive(account *domain.Account) error {
	if !account.Active {
		return domain.ErrAccountInactive
	}
	return nil
}

func requireOwnerOrAdmin(caller domain.Identity, account *domain.Account) error {
	if caller.IsAdmin() {
		return nil
	}
	if !account.IsOwnedBy(caller.UserID) {
		return domain.ErrAccessDenied
	}
	return nil
}
