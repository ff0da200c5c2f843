/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for the HTTP contract. They decouple the domain model
  from the wire: amounts cross the boundary as JSON numbers and are
  converted to/from decimal at the edge.

NAMING CONVENTION:
  - *DTO: response types returned to clients
  - *Request: request body types from clients

VALIDATION:
  Handlers validate; DTOs are pure data carriers.
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/ledger-service/ledger"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CredentialRequest carries a name/secret pair, for account creation and
// validation alike.
type CredentialRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// OperationRequest carries the amount of a deposit or transfer.
type OperationRequest struct {
	Deposit float64 `json:"deposit"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// AccountDTO represents an account in API responses.
type AccountDTO struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	PasswordHash string  `json:"passwordHash"`
	Balance      float64 `json:"balance"`
}

// DepositOperationDTO represents a persisted deposit.
type DepositOperationDTO struct {
	ID        int64   `json:"id"`
	AccountID int64   `json:"accountId"`
	Deposit   float64 `json:"deposit"`
	UpdatedAt string  `json:"updatedAt"`
}

// TransferOperationDTO represents a persisted transfer.
type TransferOperationDTO struct {
	ID         int64   `json:"id"`
	SenderID   int64   `json:"senderId"`
	ReceiverID int64   `json:"receiverId"`
	Deposit    float64 `json:"deposit"`
	UpdatedAt  string  `json:"updatedAt"`
}

// HistoryEntryDTO is one unified history entry. Role is present for
// transfers only; Deposit is signed from the account's point of view.
type HistoryEntryDTO struct {
	ID        int64   `json:"id"`
	Type      string  `json:"type"`
	Role      string  `json:"role,omitempty"`
	Deposit   float64 `json:"deposit"`
	UpdatedAt string  `json:"updatedAt"`
}

// ErrorResponse is the structured rejection body.
type ErrorResponse struct {
	Message string `json:"message"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toAccountDTO(a *ledger.Account) AccountDTO {
	return AccountDTO{
		ID:           int64(a.ID),
		Name:         a.Name,
		PasswordHash: a.PasswordHash,
		Balance:      a.Balance.InexactFloat64(),
	}
}

func toDepositDTO(op *ledger.DepositOperation) DepositOperationDTO {
	return DepositOperationDTO{
		ID:        int64(op.ID),
		AccountID: int64(op.AccountID),
		Deposit:   op.Deposit.InexactFloat64(),
		UpdatedAt: op.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func toTransferDTO(op *ledger.TransferOperation) TransferOperationDTO {
	return TransferOperationDTO{
		ID:         int64(op.ID),
		SenderID:   int64(op.SenderID),
		ReceiverID: int64(op.ReceiverID),
		Deposit:    op.Deposit.InexactFloat64(),
		UpdatedAt:  op.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func toHistoryDTO(op ledger.Operation) HistoryEntryDTO {
	return HistoryEntryDTO{
		ID:        int64(op.ID),
		Type:      string(op.Kind),
		Role:      string(op.Role),
		Deposit:   op.Deposit.InexactFloat64(),
		UpdatedAt: op.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func amountFromRequest(req OperationRequest) decimal.Decimal {
	return decimal.NewFromFloat(req.Deposit)
}
