/*
store.go - Persistence interfaces for accounts and operations

PURPOSE:
  Defines the contract between the domain logic and the database. The
  account store and operation store are separate concerns; TxStore binds
  them into one atomic unit of work for the Mutator.

KEY INTERFACES:
  AccountStore:   Account rows and balance adjustments
  OperationStore: Immutable deposit/transfer records
  Store:          Both of the above
  TxStore:        Store plus WithTx for atomic multi-table writes

WRITE DISCIPLINE:
  Operations are insert-only: no Update or Delete methods exist for them.
  The only mutation of an account after creation is AdjustBalance, and it
  is expressed as a relative delta so the storage engine can apply it
  atomically ("balance = balance + ?") rather than read-modify-write.

UNIQUENESS:
  The store does NOT enforce name uniqueness itself; the Service checks
  for an existing name before calling CreateAccount. A storage-level
  unique index is welcome as a backstop but callers must not rely on the
  error it produces.

IMPLEMENTATIONS:
  - store/sqlite:     Production SQLite
  - ledger/store:     In-memory, for tests and dev

SEE ALSO:
  - mutator.go: the only writer of operations and balances
*/
package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ACCOUNT STORE
// =============================================================================

// AccountStore holds account rows.
//
// Lookup methods return (nil, nil) when the account does not exist; the
// Service layer converts that into UnknownAccountError.
type AccountStore interface {
	// Accounts returns all accounts ordered by id.
	Accounts(ctx context.Context) ([]Account, error)

	// Account returns one account by id, or nil if absent.
	Account(ctx context.Context, id AccountID) (*Account, error)

	// AccountByName returns one account by name, or nil if absent.
	AccountByName(ctx context.Context, name string) (*Account, error)

	// AccountExists reports whether the id is present.
	AccountExists(ctx context.Context, id AccountID) (bool, error)

	// CreateAccount persists a new account and returns it with the
	// store-assigned id. The caller supplies name, digest and balance.
	CreateAccount(ctx context.Context, account Account) (*Account, error)

	// DeleteAccount removes an account. Deleting an absent id is not an
	// error. Operation rows referencing the account go with it.
	DeleteAccount(ctx context.Context, id AccountID) error

	// AdjustBalance adds delta (which may be negative) to the account's
	// balance as a single storage-level update.
	AdjustBalance(ctx context.Context, id AccountID, delta decimal.Decimal) error
}

// =============================================================================
// OPERATION STORE - Insert-only
// =============================================================================

// OperationStore holds deposit and transfer records.
//
// Listing methods take an optional span; a nil span means unbounded. All
// listings are ordered by UpdatedAt ascending.
type OperationStore interface {
	// InsertDeposit persists a deposit operation.
	InsertDeposit(ctx context.Context, op DepositOperation) error

	// Deposit returns one deposit by id, or nil if absent.
	Deposit(ctx context.Context, id OperationID) (*DepositOperation, error)

	// DepositsByAccount returns deposits owned by the account.
	DepositsByAccount(ctx context.Context, id AccountID, span *TimeSpan) ([]DepositOperation, error)

	// InsertTransfer persists a transfer operation.
	InsertTransfer(ctx context.Context, op TransferOperation) error

	// Transfer returns one transfer by id, or nil if absent.
	Transfer(ctx context.Context, id OperationID) (*TransferOperation, error)

	// TransfersBySender returns transfers where the account is the sender.
	TransfersBySender(ctx context.Context, id AccountID, span *TimeSpan) ([]TransferOperation, error)

	// TransfersByReceiver returns transfers where the account is the receiver.
	TransfersByReceiver(ctx context.Context, id AccountID, span *TimeSpan) ([]TransferOperation, error)
}

// =============================================================================
// COMBINED + TRANSACTIONAL STORE
// =============================================================================

// Store is the full persistence surface the ledger needs.
type Store interface {
	AccountStore
	OperationStore
}

// TxStore wraps Store with transaction support.
//
// WithTx executes fn within one atomic unit of work: if fn returns an
// error the transaction is rolled back and no partial writes remain; if
// fn returns nil everything commits together. The Store handed to fn must
// only be used inside fn.
type TxStore interface {
	Store

	WithTx(ctx context.Context, fn func(Store) error) error
}
