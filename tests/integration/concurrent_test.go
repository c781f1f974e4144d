package integration

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintech/digibank/internal/adapter/repository/postgres"
	"github.com/fintech/digibank/internal/domain"
	"github.com/fintech/digibank/internal/usecase"
	"github.com/fintech/digibank/tests/testutil"
)

func TestConcurrentOperations(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()

	pool := testDB.Pool
	engine := usecase.NewTransactionUseCase(
		postgres.NewTxManager(pool, 5*time.Second),
		postgres.NewAccountRepository(pool),
		postgres.NewTransactionRepository(pool),
		postgres.NewNullOutboxRepository(),
		postgres.NewULIDGenerator(),
	).WithRetrier(postgres.NewRetrier())

	t.Run("concurrent deposits all serialize", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		user := testDB.CreateTestUser(ctx, "alice", domain.RoleUser)
		account := testDB.CreateTestAccount(ctx, user.ID, decimal.NewFromInt(100))
		caller := identityOf(user)

		numDeposits := 25
		amount := decimal.NewFromInt(4)

		var wg sync.WaitGroup
		wg.Add(numDeposits)

		for range numDeposits {
			go func() {
				defer wg.Done()

				if _, err := engine.Deposit(ctx, caller, account.ID, amount); err != nil {
					t.Errorf("deposit failed: %v", err)
				}
			}()
		}

		wg.Wait()

		// 100 + 25*4 = 200, regardless of interleaving.
		if balance := testDB.AccountBalance(ctx, account.ID); !balance.Equal(decimal.NewFromInt(200)) {
			t.Errorf("expected balance 200, got %s", balance)
		}
	})

	t.Run("concurrent withdrawals never overdraw", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		user := testDB.CreateTestUser(ctx, "alice", domain.RoleUser)
		account := testDB.CreateTestAccount(ctx, user.ID, decimal.NewFromInt(100))
		caller := identityOf(user)

		numWithdrawals := 20
		amount := decimal.NewFromInt(10) // 20 * 10 = 200 > 100

		var (
			wg           sync.WaitGroup
			successCount atomic.Int32
		)

		wg.Add(numWithdrawals)

		for range numWithdrawals {
			go func() {
				defer wg.Done()

				if _, err := engine.Withdraw(ctx, caller, account.ID, amount); err == nil {
					successCount.Add(1)
				}
			}()
		}

		wg.Wait()

		// Only 10 can succeed (100 / 10 = 10).
		if successCount.Load() != 10 {
			t.Errorf("expected 10 successful withdrawals, got %d", successCount.Load())
		}

		if balance := testDB.AccountBalance(ctx, account.ID); !balance.Equal(decimal.Zero) {
			t.Errorf("expected balance 0, got %s", balance)
		}
	})

	t.Run("opposing transfers do not deadlock", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		alice := testDB.CreateTestUser(ctx, "alice", domain.RoleUser)
		bob := testDB.CreateTestUser(ctx, "bob", domain.RoleUser)
		a := testDB.CreateTestAccount(ctx, alice.ID, decimal.NewFromInt(1000))
		b := testDB.CreateTestAccount(ctx, bob.ID, decimal.NewFromInt(1000))

		numTransfers := 50
		amount := decimal.NewFromInt(10)

		var (
			wg           sync.WaitGroup
			successCount atomic.Int32
		)

		// Half transfer A -> B, half transfer B -> A concurrently. Locks
		// are taken in id order, so opposing transfers must all succeed.
		wg.Add(numTransfers * 2)

		for range numTransfers {
			go func() {
				defer wg.Done()

				if _, err := engine.Transfer(ctx, identityOf(alice), a.ID, b.AccountNumber, amount); err == nil {
					successCount.Add(1)
				}
			}()
			go func() {
				defer wg.Done()

				if _, err := engine.Transfer(ctx, identityOf(bob), b.ID, a.AccountNumber, amount); err == nil {
					successCount.Add(1)
				}
			}()
		}

		wg.Wait()

		if successCount.Load() != int32(numTransfers*2) {
			t.Errorf("expected %d successful transfers, got %d", numTransfers*2, successCount.Load())
		}

		// Equal opposite transfers leave balances unchanged.
		if balance := testDB.AccountBalance(ctx, a.ID); !balance.Equal(decimal.NewFromInt(1000)) {
			t.Errorf("expected account a balance 1000, got %s", balance)
		}
		if balance := testDB.AccountBalance(ctx, b.ID); !balance.Equal(decimal.NewFromInt(1000)) {
			t.Errorf("expected account b balance 1000, got %s", balance)
		}
	})
}
