/*
mutator.go - The atomic write path for deposits and transfers

PURPOSE:
  The Mutator is the only component that records operations and touches
  balances. For each request it validates preconditions, inserts exactly
  one operation row, and applies one or two balance adjustments - all
  inside a single WithTx unit. Either everything commits or nothing does.

WHY ONE ATOMIC UNIT?
  Balance is a denormalized running total, not recomputed from history on
  every read. The one place that trade-off can corrupt the ledger is a
  partial write: an operation row without its balance update, or the
  reverse. WithTx makes that impossible.

CONCURRENCY:
  The precondition read (current balance) and the write happen inside the
  same transaction, and the balance update is a relative adjustment
  ("balance = balance + ?"). Two concurrent operations against the same
  account therefore serialize at the storage layer instead of racing a
  read-modify-write. A failed precondition aborts the unit with no
  partial writes.

RESULT CONTRACT:
  The persisted operation is re-read after commit, so callers see the
  stored row (server-assigned timestamp included), not a locally
  constructed guess.

SEE ALSO:
  - store.go: the WithTx contract
  - service.go: thin delegation from the public API
*/
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MUTATOR
// =============================================================================

// Mutator performs deposit and transfer writes atomically.
type Mutator struct {
	store TxStore
	ids   IDGenerator
	now   func() time.Time
}

// NewMutator creates a Mutator. The clock defaults to time.Now and is
// overridable for tests via WithClock.
func NewMutator(store TxStore, ids IDGenerator) *Mutator {
	return &Mutator{
		store: store,
		ids:   ids,
		now:   time.Now,
	}
}

// WithClock replaces the timestamp source. Tests use this to pin
// operation timestamps.
func (m *Mutator) WithClock(now func() time.Time) *Mutator {
	m.now = now
	return m
}

// =============================================================================
// DEPOSIT
// =============================================================================

// Deposit records a signed amount against one account.
//
// Preconditions, checked in order:
//   - amount is non-zero            (ErrInvalidOperation)
//   - account exists                (ErrUnknownAccount)
//   - balance + amount >= 0         (ErrNegativeBalance)
//
// On success the freshly persisted operation is returned.
func (m *Mutator) Deposit(ctx context.Context, accountID AccountID, amount decimal.Decimal) (*DepositOperation, error) {
	if amount.IsZero() {
		return nil, fmt.Errorf("can't add operation: deposit value 0: %w", ErrInvalidOperation)
	}

	id := m.ids.NextID()

	err := m.store.WithTx(ctx, func(s Store) error {
		account, err := s.Account(ctx, accountID)
		if err != nil {
			return err
		}
		if account == nil {
			return &UnknownAccountError{ID: accountID}
		}

		if account.Balance.Add(amount).IsNegative() {
			return &NegativeBalanceError{
				AccountID: accountID,
				Balance:   account.Balance,
				Deposit:   amount,
			}
		}

		op := DepositOperation{
			ID:        id,
			AccountID: accountID,
			Deposit:   amount,
			UpdatedAt: m.now().UTC(),
		}
		if err := s.InsertDeposit(ctx, op); err != nil {
			return err
		}
		return s.AdjustBalance(ctx, accountID, amount)
	})
	if err != nil {
		return nil, err
	}

	return m.reloadDeposit(ctx, id)
}

// =============================================================================
// TRANSFER
// =============================================================================

// Transfer moves a strictly positive amount from sender to receiver.
//
// Preconditions, checked in order:
//   - amount > 0                    (ErrInvalidOperation)
//   - sender != receiver            (ErrInvalidOperation)
//   - sender exists                 (ErrUnknownAccount)
//   - receiver exists               (ErrUnknownAccount)
//   - sender balance - amount >= 0  (ErrNegativeBalance)
//
// The operation insert, the receiver credit and the sender debit commit
// as one unit.
func (m *Mutator) Transfer(ctx context.Context, senderID, receiverID AccountID, amount decimal.Decimal) (*TransferOperation, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("can't add operation: deposit value can't be negative or zero: %w", ErrInvalidOperation)
	}
	if senderID == receiverID {
		return nil, &SameAccountError{AccountID: senderID}
	}

	id := m.ids.NextID()

	err := m.store.WithTx(ctx, func(s Store) error {
		sender, err := s.Account(ctx, senderID)
		if err != nil {
			return err
		}
		if sender == nil {
			return &UnknownAccountError{ID: senderID}
		}

		exists, err := s.AccountExists(ctx, receiverID)
		if err != nil {
			return err
		}
		if !exists {
			return &UnknownAccountError{ID: receiverID}
		}

		if sender.Balance.Sub(amount).IsNegative() {
			return &NegativeBalanceError{
				AccountID: senderID,
				Balance:   sender.Balance,
				Deposit:   amount.Neg(),
			}
		}

		op := TransferOperation{
			ID:         id,
			SenderID:   senderID,
			ReceiverID: receiverID,
			Deposit:    amount,
			UpdatedAt:  m.now().UTC(),
		}
		if err := s.InsertTransfer(ctx, op); err != nil {
			return err
		}
		if err := s.AdjustBalance(ctx, receiverID, amount); err != nil {
			return err
		}
		return s.AdjustBalance(ctx, senderID, amount.Neg())
	})
	if err != nil {
		return nil, err
	}

	return m.reloadTransfer(ctx, id)
}

// =============================================================================
// POST-COMMIT RE-READ
// =============================================================================

func (m *Mutator) reloadDeposit(ctx context.Context, id OperationID) (*DepositOperation, error) {
	op, err := m.store.Deposit(ctx, id)
	if err != nil {
		return nil, err
	}
	if op == nil {
		return nil, fmt.Errorf("deposit operation %d missing after commit", id)
	}
	return op, nil
}

func (m *Mutator) reloadTransfer(ctx context.Context, id OperationID) (*TransferOperation, error) {
	op, err := m.store.Transfer(ctx, id)
	if err != nil {
		return nil, err
	}
	if op == nil {
		return nil, fmt.Errorf("transfer operation %d missing after commit", id)
	}
	return op, nil
}
