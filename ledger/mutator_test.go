package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/ledger-service/ledger"
	"github.com/warp/ledger-service/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestService(t *testing.T) *ledger.Service {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return ledger.NewService(store, &ledger.SequentialGenerator{})
}

func createAccount(t *testing.T, svc *ledger.Service, name string) *ledger.Account {
	t.Helper()

	account, err := svc.CreateAccount(context.Background(), name, "secret")
	require.NoError(t, err)
	return account
}

func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// =============================================================================
// DEPOSIT INVARIANTS
// =============================================================================

func TestDeposit_AddsToBalance(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	account := createAccount(t, svc, "alice")

	op, err := svc.Deposit(ctx, account.ID, dec(250000))
	require.NoError(t, err)
	assert.True(t, op.Deposit.Equal(dec(250000)))
	assert.Equal(t, account.ID, op.AccountID)
	assert.False(t, op.UpdatedAt.IsZero(), "persisted operation carries its timestamp")

	reloaded, err := svc.Account(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Balance.Equal(dec(250000)))
}

func TestDeposit_ZeroRejected(t *testing.T) {
	// GIVEN: an account with any balance
	// WHEN: depositing exactly 0
	// THEN: the operation is rejected and nothing is recorded

	svc := newTestService(t)
	ctx := context.Background()
	account := createAccount(t, svc, "alice")

	_, err := svc.Deposit(ctx, account.ID, decimal.Zero)
	assert.ErrorIs(t, err, ledger.ErrInvalidOperation)

	ops, err := svc.Operations(ctx, account.ID, "")
	require.NoError(t, err)
	assert.Empty(t, ops, "rejected deposit must not be recorded")
}

func TestDeposit_NegativeAllowedWhileBalanceStaysNonNegative(t *testing.T) {
	// GIVEN: balance 250000
	// WHEN: depositing -125000
	// THEN: accepted, balance 125000

	svc := newTestService(t)
	ctx := context.Background()
	account := createAccount(t, svc, "alice")

	_, err := svc.Deposit(ctx, account.ID, dec(250000))
	require.NoError(t, err)

	op, err := svc.Deposit(ctx, account.ID, dec(-125000))
	require.NoError(t, err)
	assert.True(t, op.Deposit.Equal(dec(-125000)))

	reloaded, err := svc.Account(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Balance.Equal(dec(125000)))
}

func TestDeposit_NegativeDrivingBalanceNegativeRejected(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	account := createAccount(t, svc, "alice")

	_, err := svc.Deposit(ctx, account.ID, dec(100))
	require.NoError(t, err)

	_, err = svc.Deposit(ctx, account.ID, dec(-250))
	assert.ErrorIs(t, err, ledger.ErrNegativeBalance)

	var nbErr *ledger.NegativeBalanceError
	require.ErrorAs(t, err, &nbErr)
	assert.True(t, nbErr.Balance.Equal(dec(100)))

	reloaded, err := svc.Account(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Balance.Equal(dec(100)), "failed operation must leave balance unchanged")
}

func TestDeposit_UnknownAccount(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Deposit(context.Background(), 9999, dec(10))
	assert.ErrorIs(t, err, ledger.ErrUnknownAccount)
}

// =============================================================================
// TRANSFER INVARIANTS
// =============================================================================

func TestTransfer_MovesBalanceBetweenAccounts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	alice := createAccount(t, svc, "alice")
	bob := createAccount(t, svc, "bob")

	_, err := svc.Deposit(ctx, alice.ID, dec(250000))
	require.NoError(t, err)

	op, err := svc.Transfer(ctx, alice.ID, bob.ID, dec(25000))
	require.NoError(t, err)
	assert.Equal(t, alice.ID, op.SenderID)
	assert.Equal(t, bob.ID, op.ReceiverID)
	assert.True(t, op.Deposit.Equal(dec(25000)))

	reloadedAlice, err := svc.Account(ctx, alice.ID)
	require.NoError(t, err)
	reloadedBob, err := svc.Account(ctx, bob.ID)
	require.NoError(t, err)
	assert.True(t, reloadedAlice.Balance.Equal(dec(225000)))
	assert.True(t, reloadedBob.Balance.Equal(dec(25000)))
}

func TestTransfer_ExactBalanceLeavesSenderAtZero(t *testing.T) {
	// GIVEN: sender balance exactly equal to the transfer amount
	// WHEN: transferring
	// THEN: accepted, sender left at 0

	svc := newTestService(t)
	ctx := context.Background()
	alice := createAccount(t, svc, "alice")
	bob := createAccount(t, svc, "bob")

	_, err := svc.Deposit(ctx, alice.ID, dec(500))
	require.NoError(t, err)

	_, err = svc.Transfer(ctx, alice.ID, bob.ID, dec(500))
	require.NoError(t, err)

	reloaded, err := svc.Account(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Balance.IsZero())
}

func TestTransfer_InsufficientBalanceRejected(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	alice := createAccount(t, svc, "alice")
	bob := createAccount(t, svc, "bob")

	_, err := svc.Deposit(ctx, alice.ID, dec(100))
	require.NoError(t, err)

	_, err = svc.Transfer(ctx, alice.ID, bob.ID, dec(101))
	assert.ErrorIs(t, err, ledger.ErrNegativeBalance)

	// No partial writes: both balances and both histories untouched.
	reloadedAlice, err := svc.Account(ctx, alice.ID)
	require.NoError(t, err)
	reloadedBob, err := svc.Account(ctx, bob.ID)
	require.NoError(t, err)
	assert.True(t, reloadedAlice.Balance.Equal(dec(100)))
	assert.True(t, reloadedBob.Balance.IsZero())

	sent, err := svc.TransfersSent(ctx, alice.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, sent)
}

func TestTransfer_ZeroOrNegativeAmountRejected(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	alice := createAccount(t, svc, "alice")
	bob := createAccount(t, svc, "bob")

	_, err := svc.Transfer(ctx, alice.ID, bob.ID, decimal.Zero)
	assert.ErrorIs(t, err, ledger.ErrInvalidOperation)

	_, err = svc.Transfer(ctx, alice.ID, bob.ID, dec(-5))
	assert.ErrorIs(t, err, ledger.ErrInvalidOperation)
}

func TestTransfer_SelfTransferRejected(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	alice := createAccount(t, svc, "alice")

	_, err := svc.Deposit(ctx, alice.ID, dec(100))
	require.NoError(t, err)

	_, err = svc.Transfer(ctx, alice.ID, alice.ID, dec(10))
	assert.ErrorIs(t, err, ledger.ErrInvalidOperation)

	var sameErr *ledger.SameAccountError
	assert.ErrorAs(t, err, &sameErr)
}

func TestTransfer_UnknownSenderOrReceiver(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	alice := createAccount(t, svc, "alice")

	_, err := svc.Transfer(ctx, 9999, alice.ID, dec(10))
	assert.ErrorIs(t, err, ledger.ErrUnknownAccount)

	_, err = svc.Transfer(ctx, alice.ID, 9999, dec(10))
	assert.ErrorIs(t, err, ledger.ErrUnknownAccount)
}

// =============================================================================
// BALANCE CONSISTENCY
// =============================================================================

func TestBalance_EqualsSumOfRecordedOperations(t *testing.T) {
	// GIVEN: a sequence of valid deposits and transfers from balance 0
	// THEN: the stored balance equals deposits + received - sent

	svc := newTestService(t)
	ctx := context.Background()
	alice := createAccount(t, svc, "alice")
	bob := createAccount(t, svc, "bob")

	_, err := svc.Deposit(ctx, alice.ID, dec(1000))
	require.NoError(t, err)
	_, err = svc.Deposit(ctx, alice.ID, dec(-200))
	require.NoError(t, err)
	_, err = svc.Deposit(ctx, bob.ID, dec(50))
	require.NoError(t, err)
	_, err = svc.Transfer(ctx, alice.ID, bob.ID, dec(300))
	require.NoError(t, err)
	_, err = svc.Transfer(ctx, bob.ID, alice.ID, dec(100))
	require.NoError(t, err)

	reloadedAlice, err := svc.Account(ctx, alice.ID)
	require.NoError(t, err)
	reloadedBob, err := svc.Account(ctx, bob.ID)
	require.NoError(t, err)

	// alice: 1000 - 200 - 300 + 100 = 600; bob: 50 + 300 - 100 = 250
	assert.True(t, reloadedAlice.Balance.Equal(dec(600)), "alice balance: %s", reloadedAlice.Balance)
	assert.True(t, reloadedBob.Balance.Equal(dec(250)), "bob balance: %s", reloadedBob.Balance)
}

func TestMutator_ClockIsInjectable(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	account := createAccount(t, svc, "alice")

	pinned := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	svc.Mutator().WithClock(func() time.Time { return pinned })

	op, err := svc.Deposit(ctx, account.ID, dec(10))
	require.NoError(t, err)
	assert.True(t, op.UpdatedAt.Equal(pinned))
}
