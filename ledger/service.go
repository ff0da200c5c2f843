/*
service.go - Ledger service: account management and history orchestration

PURPOSE:
  The Service is the public face of the ledger core. It owns account
  lifecycle (list, get, create with digest, validate credentials,
  delete), delegates deposits and transfers to the Mutator, and merges
  per-kind operation listings into the unified history.

RESPONSIBILITY SPLIT:
  Service - lookups, name uniqueness, credential comparison, history
  Mutator - the atomic operation/balance write path

  The Service checks name uniqueness itself before CreateAccount because
  the store contract does not promise enforcement.

SEE ALSO:
  - mutator.go: deposit/transfer contracts
  - history.go: merge and sort rules
*/
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Service orchestrates the ledger core.
type Service struct {
	store   TxStore
	mutator *Mutator
	digest  Digest
}

// NewService wires a Service with the default digest scheme.
func NewService(store TxStore, ids IDGenerator) *Service {
	return &Service{
		store:   store,
		mutator: NewMutator(store, ids),
		digest:  SaltedSHA256{},
	}
}

// Mutator exposes the underlying write path (used by tests to pin the
// clock).
func (s *Service) Mutator() *Mutator {
	return s.mutator
}

// =============================================================================
// ACCOUNT MANAGEMENT
// =============================================================================

// Accounts returns all accounts.
func (s *Service) Accounts(ctx context.Context) ([]Account, error) {
	return s.store.Accounts(ctx)
}

// Account returns one account by id.
func (s *Service) Account(ctx context.Context, id AccountID) (*Account, error) {
	account, err := s.store.Account(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, &UnknownAccountError{ID: id}
	}
	return account, nil
}

// AccountByName returns one account by name.
func (s *Service) AccountByName(ctx context.Context, name string) (*Account, error) {
	account, err := s.store.AccountByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, &UnknownAccountError{Name: name}
	}
	return account, nil
}

// CreateAccount registers a new account with balance 0. The raw secret
// is digested, never stored.
func (s *Service) CreateAccount(ctx context.Context, name, password string) (*Account, error) {
	existing, err := s.store.AccountByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &DuplicateAccountError{Name: name}
	}

	return s.store.CreateAccount(ctx, Account{
		Name:         name,
		PasswordHash: s.digest.Encode(password),
		Balance:      decimal.Zero,
	})
}

// ValidateAccount checks a name/secret pair. It fails with
// ErrUnknownAccount when the name is absent and ErrInvalidCredential on
// digest mismatch; it never returns the digest.
func (s *Service) ValidateAccount(ctx context.Context, name, password string) error {
	account, err := s.store.AccountByName(ctx, name)
	if err != nil {
		return err
	}
	if account == nil {
		return &UnknownAccountError{Name: name}
	}

	if account.PasswordHash != s.digest.Encode(password) {
		return ErrInvalidCredential
	}
	return nil
}

// DeleteAccount removes an account. Idempotent: deleting an absent id
// succeeds.
func (s *Service) DeleteAccount(ctx context.Context, id AccountID) error {
	return s.store.DeleteAccount(ctx, id)
}

// =============================================================================
// DEPOSITS / TRANSFERS - Delegated to the Mutator
// =============================================================================

// Deposit records a signed deposit against an account.
func (s *Service) Deposit(ctx context.Context, accountID AccountID, amount decimal.Decimal) (*DepositOperation, error) {
	return s.mutator.Deposit(ctx, accountID, amount)
}

// Transfer moves a positive amount between two accounts.
func (s *Service) Transfer(ctx context.Context, senderID, receiverID AccountID, amount decimal.Decimal) (*TransferOperation, error) {
	return s.mutator.Transfer(ctx, senderID, receiverID, amount)
}

// =============================================================================
// RAW LISTINGS - Per-kind, with existence precondition
// =============================================================================

// Deposits returns the deposits owned by an account, optionally bounded
// to [from, to).
func (s *Service) Deposits(ctx context.Context, id AccountID, span *TimeSpan) ([]DepositOperation, error) {
	if err := s.requireAccount(ctx, id); err != nil {
		return nil, err
	}
	return s.store.DepositsByAccount(ctx, id, span)
}

// TransfersSent returns the transfers where the account is the sender.
func (s *Service) TransfersSent(ctx context.Context, id AccountID, span *TimeSpan) ([]TransferOperation, error) {
	if err := s.requireAccount(ctx, id); err != nil {
		return nil, err
	}
	return s.store.TransfersBySender(ctx, id, span)
}

// TransfersReceived returns the transfers where the account is the
// receiver.
func (s *Service) TransfersReceived(ctx context.Context, id AccountID, span *TimeSpan) ([]TransferOperation, error) {
	if err := s.requireAccount(ctx, id); err != nil {
		return nil, err
	}
	return s.store.TransfersByReceiver(ctx, id, span)
}

// =============================================================================
// UNIFIED HISTORY
// =============================================================================

// Operations returns the full merged history for an account.
func (s *Service) Operations(ctx context.Context, id AccountID, sortToken string) ([]Operation, error) {
	return s.operations(ctx, id, nil, sortToken)
}

// OperationsInRange returns the merged history bounded to [from, to).
// Callers pass midnight instants for calendar-date queries.
func (s *Service) OperationsInRange(ctx context.Context, id AccountID, from, to time.Time, sortToken string) ([]Operation, error) {
	return s.operations(ctx, id, &TimeSpan{From: from, To: to}, sortToken)
}

func (s *Service) operations(ctx context.Context, id AccountID, span *TimeSpan, sortToken string) ([]Operation, error) {
	dir, err := ParseSortDirection(sortToken)
	if err != nil {
		return nil, err
	}
	if err := s.requireAccount(ctx, id); err != nil {
		return nil, err
	}

	deposits, err := s.store.DepositsByAccount(ctx, id, span)
	if err != nil {
		return nil, err
	}
	sent, err := s.store.TransfersBySender(ctx, id, span)
	if err != nil {
		return nil, err
	}
	received, err := s.store.TransfersByReceiver(ctx, id, span)
	if err != nil {
		return nil, err
	}

	return mergeOperations(deposits, sent, received, dir), nil
}

func (s *Service) requireAccount(ctx context.Context, id AccountID) error {
	exists, err := s.store.AccountExists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return &UnknownAccountError{ID: id}
	}
	return nil
}
