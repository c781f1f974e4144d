package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fintech/digibank/internal/adapter/repository/postgres"
	"github.com/fintech/digibank/internal/domain"
	"github.com/fintech/digibank/internal/usecase"
	"github.com/fintech/digibank/tests/testutil"
)

func newEngine(testDB *testutil.TestDB) *usecase.TransactionUseCase {
	pool := testDB.Pool

	return usecase.NewTransactionUseCase(
		postgres.NewTxManager(pool, 0),
		postgres.NewAccountRepository(pool),
		postgres.NewTransactionRepository(pool),
		postgres.NewNullOutboxRepository(),
		postgres.NewULIDGenerator(),
	)
}

func identityOf(user *domain.User) domain.Identity {
	return domain.Identity{UserID: user.ID, Username: user.Username, Role: user.Role}
}

func TestDepositAndWithdraw(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	engine := newEngine(testDB)

	user := testDB.CreateTestUser(ctx, "alice", domain.RoleUser)
	account := testDB.CreateTestAccount(ctx, user.ID, decimal.Zero)
	caller := identityOf(user)

	t.Run("deposit credits the account", func(t *testing.T) {
		record, err := engine.Deposit(ctx, caller, account.ID, decimal.NewFromInt(500))
		if err != nil {
			t.Fatalf("deposit failed: %v", err)
		}

		if record.Type != domain.TransactionDeposit {
			t.Errorf("expected DEPOSIT record, got %s", record.Type)
		}
		if record.SourceAccountID != account.ID {
			t.Errorf("expected source account %d, got %d", account.ID, record.SourceAccountID)
		}

		balance := testDB.AccountBalance(ctx, account.ID)
		if !balance.Equal(decimal.NewFromInt(500)) {
			t.Errorf("expected balance 500, got %s", balance)
		}
	})

	t.Run("withdraw debits the account", func(t *testing.T) {
		if _, err := engine.Withdraw(ctx, caller, account.ID, decimal.NewFromInt(200)); err != nil {
			t.Fatalf("withdraw failed: %v", err)
		}

		balance := testDB.AccountBalance(ctx, account.ID)
		if !balance.Equal(decimal.NewFromInt(300)) {
			t.Errorf("expected balance 300, got %s", balance)
		}
	})

	t.Run("withdraw beyond balance fails without effect", func(t *testing.T) {
		_, err := engine.Withdraw(ctx, caller, account.ID, decimal.NewFromInt(10000))
		if !errors.Is(err, domain.ErrInsufficientFunds) {
			t.Fatalf("expected ErrInsufficientFunds, got %v", err)
		}

		balance := testDB.AccountBalance(ctx, account.ID)
		if !balance.Equal(decimal.NewFromInt(300)) {
			t.Errorf("expected balance unchanged at 300, got %s", balance)
		}
	})

	t.Run("strangers cannot deposit into the account", func(t *testing.T) {
		stranger := testDB.CreateTestUser(ctx, "mallory", domain.RoleUser)

		_, err := engine.Deposit(ctx, identityOf(stranger), account.ID, decimal.NewFromInt(1))
		if !errors.Is(err, domain.ErrAccessDenied) {
			t.Fatalf("expected ErrAccessDenied, got %v", err)
		}
	})
}

func TestTransfer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	engine := newEngine(testDB)

	alice := testDB.CreateTestUser(ctx, "alice", domain.RoleUser)
	bob := testDB.CreateTestUser(ctx, "bob", domain.RoleUser)
	source := testDB.CreateTestAccount(ctx, alice.ID, decimal.NewFromInt(1000))
	target := testDB.CreateTestAccount(ctx, bob.ID, decimal.Zero)

	record, err := engine.Transfer(ctx, identityOf(alice), source.ID, target.AccountNumber, decimal.NewFromInt(400))
	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	if record.SourceAccountID != source.ID {
		t.Errorf("expected source %d, got %d", source.ID, record.SourceAccountID)
	}
	if record.TargetAccountID == nil || *record.TargetAccountID != target.ID {
		t.Errorf("expected target %d, got %v", target.ID, record.TargetAccountID)
	}

	if balance := testDB.AccountBalance(ctx, source.ID); !balance.Equal(decimal.NewFromInt(600)) {
		t.Errorf("expected source balance 600, got %s", balance)
	}
	if balance := testDB.AccountBalance(ctx, target.ID); !balance.Equal(decimal.NewFromInt(400)) {
		t.Errorf("expected target balance 400, got %s", balance)
	}

	t.Run("transfer to own account is rejected", func(t *testing.T) {
		_, err := engine.Transfer(ctx, identityOf(alice), source.ID, source.AccountNumber, decimal.NewFromInt(1))
		if !errors.Is(err, domain.ErrSameAccount) {
			t.Fatalf("expected ErrSameAccount, got %v", err)
		}
	})

	t.Run("transfer to unknown number is rejected", func(t *testing.T) {
		_, err := engine.Transfer(ctx, identityOf(alice), source.ID, "ACC0000000000000000", decimal.NewFromInt(1))
		if !errors.Is(err, domain.ErrAccountNotFound) {
			t.Fatalf("expected ErrAccountNotFound, got %v", err)
		}
	})
}
