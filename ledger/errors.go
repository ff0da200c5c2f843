/*
errors.go - Centralized error types for the ledger

PURPOSE:
  All domain error types in one place for consistency and discoverability.
  Every failure a caller can correct is a sentinel (or a structured error
  unwrapping to one); infrastructure failures are wrapped with %w and
  propagate as-is.

ERROR CATEGORIES:
  1. Lookup errors   - referenced account does not exist
  2. Validation errors - business rule violations on writes
  3. Query errors    - malformed history queries

USAGE:
  if errors.Is(err, ledger.ErrNegativeBalance) { ... }

  var unknown *ledger.UnknownAccountError
  if errors.As(err, &unknown) { ... unknown.ID ... }

SEE ALSO:
  - mutator.go: produces the validation errors
  - service.go: produces the lookup errors
  - api/handlers.go: maps these to HTTP status codes
*/
package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnknownAccount is returned when a referenced account id or name
	// does not exist.
	ErrUnknownAccount = errors.New("unknown account")

	// ErrDuplicateAccount is returned when creating an account whose name
	// is already registered.
	ErrDuplicateAccount = errors.New("account name already exists")

	// ErrInvalidCredential is returned when a credential digest does not
	// match during validation. The digest itself is never disclosed.
	ErrInvalidCredential = errors.New("wrong password")

	// ErrInvalidOperation is returned when an amount violates the sign
	// constraint: a zero deposit, or a zero/negative transfer.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrNegativeBalance is returned when applying an operation would
	// drive an account balance below zero.
	ErrNegativeBalance = errors.New("account balance can't become negative")

	// ErrInvalidSortDirection is returned when a history query carries an
	// unrecognized sort token.
	ErrInvalidSortDirection = errors.New("unknown sort type")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// UnknownAccountError identifies the missing account by id or name.
type UnknownAccountError struct {
	ID   AccountID
	Name string
}

func (e *UnknownAccountError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("unknown account with name '%s'", e.Name)
	}
	return fmt.Sprintf("unknown account with id %d", e.ID)
}

func (e *UnknownAccountError) Unwrap() error {
	return ErrUnknownAccount
}

// DuplicateAccountError reports a name collision at creation.
type DuplicateAccountError struct {
	Name string
}

func (e *DuplicateAccountError) Error() string {
	return fmt.Sprintf("account with name '%s' already exists", e.Name)
}

func (e *DuplicateAccountError) Unwrap() error {
	return ErrDuplicateAccount
}

// NegativeBalanceError reports the balance an operation would have
// produced.
type NegativeBalanceError struct {
	AccountID AccountID
	Balance   decimal.Decimal
	Deposit   decimal.Decimal
}

func (e *NegativeBalanceError) Error() string {
	return fmt.Sprintf("can't add operation: balance %s with deposit %s would become negative",
		e.Balance, e.Deposit)
}

func (e *NegativeBalanceError) Unwrap() error {
	return ErrNegativeBalance
}

// SameAccountError rejects a transfer whose sender and receiver are the
// same account.
type SameAccountError struct {
	AccountID AccountID
}

func (e *SameAccountError) Error() string {
	return fmt.Sprintf("can't add operation: sender and receiver are both account %d", e.AccountID)
}

func (e *SameAccountError) Unwrap() error {
	return ErrInvalidOperation
}

// InvalidSortError carries the offending sort token.
type InvalidSortError struct {
	Token string
}

func (e *InvalidSortError) Error() string {
	return fmt.Sprintf("unknown sort type '%s'", e.Token)
}

func (e *InvalidSortError) Unwrap() error {
	return ErrInvalidSortDirection
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing account.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnknownAccount)
}

// IsClientError returns true if the error is a user-correctable rejection
// rather than an infrastructure fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnknownAccount) ||
		errors.Is(err, ErrDuplicateAccount) ||
		errors.Is(err, ErrInvalidCredential) ||
		errors.Is(err, ErrInvalidOperation) ||
		errors.Is(err, ErrNegativeBalance) ||
		errors.Is(err, ErrInvalidSortDirection)
}
