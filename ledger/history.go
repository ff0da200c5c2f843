/*
history.go - Chronological merge of heterogeneous operation histories

PURPOSE:
  An account's history lives in three places: its own deposits, transfers
  it sent, and transfers it received. Reporting merges the three into one
  list of unified entries sorted by timestamp.

TIE-BREAK RULE (load-bearing for deterministic output):
  Entries sharing an identical timestamp are emitted together, ordered
  deposits first, then sent transfers, then received transfers. A stable
  sort over the concatenated lists - built in exactly that order - keyed
  on timestamp alone reproduces this: equal keys keep encounter order.
  The rule is pinned by tests in history_test.go.

SORT DIRECTION:
  "asc" ascending, "desc" descending, empty token defaults to descending
  (most recent first). Tokens are matched case-insensitively; anything
  else is an InvalidSortError.
*/
package ledger

import (
	"sort"
	"strings"
)

// =============================================================================
// SORT DIRECTION
// =============================================================================

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ParseSortDirection maps a query token to a direction. The empty token
// means descending.
func ParseSortDirection(token string) (SortDirection, error) {
	switch strings.ToLower(token) {
	case "":
		return SortDesc, nil
	case "asc":
		return SortAsc, nil
	case "desc":
		return SortDesc, nil
	default:
		return "", &InvalidSortError{Token: token}
	}
}

// =============================================================================
// PROJECTION + MERGE
// =============================================================================

// mergeOperations projects the three raw listings into unified entries
// and orders them. Amounts are signed from the account's point of view:
// sent transfers are negated.
func mergeOperations(deposits []DepositOperation, sent, received []TransferOperation, dir SortDirection) []Operation {
	entries := make([]Operation, 0, len(deposits)+len(sent)+len(received))

	for _, op := range deposits {
		entries = append(entries, Operation{
			ID:        op.ID,
			Kind:      KindDeposit,
			Deposit:   op.Deposit,
			UpdatedAt: op.UpdatedAt,
		})
	}
	for _, op := range sent {
		entries = append(entries, Operation{
			ID:        op.ID,
			Kind:      KindTransfer,
			Role:      RoleSender,
			Deposit:   op.Deposit.Neg(),
			UpdatedAt: op.UpdatedAt,
		})
	}
	for _, op := range received {
		entries = append(entries, Operation{
			ID:        op.ID,
			Kind:      KindTransfer,
			Role:      RoleReceiver,
			Deposit:   op.Deposit,
			UpdatedAt: op.UpdatedAt,
		})
	}

	// Stable: equal timestamps keep the deposit/sender/receiver encounter
	// order from the appends above.
	sort.SliceStable(entries, func(i, j int) bool {
		ti, tj := entries[i].UpdatedAt, entries[j].UpdatedAt
		if dir == SortAsc {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	return entries
}
