/*
Package ledger contains the core account/operation ledger.

PURPOSE:
  This package holds the domain model and the balance consistency rules.
  An account carries a running balance; every balance change is recorded as
  a deposit or transfer operation, and the two are written together inside
  one storage transaction so they can never diverge.

KEY CONCEPTS IN THIS FILE (types.go):
  - Account: named account with a secret digest and a running balance
  - DepositOperation: a signed amount applied to one account
  - TransferOperation: a positive amount moved between two accounts
  - Operation: the unified, non-persisted history projection

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for all monetary amounts, never float math
  2. Immutability: operations are written once and never updated or deleted
  3. Type safety: AccountID and OperationID are distinct types

SEE ALSO:
  - mutator.go: the atomic write path for deposits and transfers
  - service.go: account management and history orchestration
  - store.go: persistence interfaces
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type AccountID int64
type OperationID int64

// =============================================================================
// ACCOUNT
// =============================================================================

// Account is a named account with a running balance.
//
// INVARIANTS:
//   - Name is unique across all accounts.
//   - Balance never goes negative as the outcome of an operation.
//     It is 0 at creation and mutated only by the Mutator.
type Account struct {
	ID           AccountID
	Name         string
	PasswordHash string
	Balance      decimal.Decimal
}

// =============================================================================
// OPERATIONS - Immutable records of balance changes
// =============================================================================

// DepositOperation records a signed amount applied to a single account.
// Negative deposits are allowed as long as the balance stays >= 0.
type DepositOperation struct {
	ID        OperationID
	AccountID AccountID
	Deposit   decimal.Decimal
	UpdatedAt time.Time
}

// TransferOperation records a strictly positive amount moved from the
// sender to the receiver.
type TransferOperation struct {
	ID         OperationID
	SenderID   AccountID
	ReceiverID AccountID
	Deposit    decimal.Decimal
	UpdatedAt  time.Time
}

// =============================================================================
// UNIFIED HISTORY PROJECTION
// =============================================================================

type OperationKind string

const (
	KindDeposit  OperationKind = "deposit"
	KindTransfer OperationKind = "transfer"
)

type TransferRole string

const (
	RoleSender   TransferRole = "sender"
	RoleReceiver TransferRole = "receiver"
)

// Operation is a derived history entry for one account, merging deposits
// and transfers into a single chronological view. It is built on demand
// and never persisted.
//
// The Deposit field is signed from the account's point of view: an
// outgoing transfer shows the negated stored amount, an incoming transfer
// and a deposit show the stored amount.
type Operation struct {
	ID        OperationID
	Kind      OperationKind
	Role      TransferRole // set for transfers only
	Deposit   decimal.Decimal
	UpdatedAt time.Time
}

// TimeSpan is a half-open interval [From, To) used to bound history
// queries. Both bounds are instants; the API layer maps calendar dates to
// midnight.
type TimeSpan struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the span.
func (s TimeSpan) Contains(t time.Time) bool {
	return !t.Before(s.From) && t.Before(s.To)
}
