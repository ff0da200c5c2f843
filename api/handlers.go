/*
handlers.go - HTTP API handlers for the ledger service

PURPOSE:
  Exposes the ledger core over REST. Handles HTTP request/response, JSON
  serialization, and delegates everything else to ledger.Service.

ENDPOINTS:
  Accounts:
    GET    /api/accounts                 List all accounts
    POST   /api/accounts                 Create account {name, password}
    POST   /api/accounts/validate        Check a name/secret pair
    GET    /api/accounts/{id}            Get account details
    DELETE /api/accounts/{id}            Delete account (idempotent)

  Operations:
    GET    /api/accounts/{id}/operations            Unified history
                                                    ?sort=asc|desc
                                                    ?from=YYYY-MM-DD&to=YYYY-MM-DD
    GET    /api/accounts/{id}/operations/deposits   Raw deposits
    POST   /api/accounts/{id}/operations/deposits   Record deposit {deposit}
    GET    /api/accounts/{id}/operations/transfers  Raw sent transfers
    POST   /api/accounts/{senderId}/operations/transfers/{receiverId}
                                                    Record transfer {deposit}

ERROR HANDLING:
  Domain errors map to JSON rejections:
  - 404: unknown account
  - 400: validation failures (amounts, duplicate name, credentials, sort)
  - 500: infrastructure faults

SEE ALSO:
  - dto.go: request/response data structures
  - server.go: router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/ledger-service/ledger"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *ledger.Service
}

// NewHandler creates a handler backed by the given service.
func NewHandler(service *ledger.Service) *Handler {
	return &Handler{Service: service}
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

// ListAccounts returns all accounts.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Service.Accounts(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]AccountDTO, len(accounts))
	for i := range accounts {
		dtos[i] = toAccountDTO(&accounts[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetAccount returns a single account.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := accountIDParam(w, r, "id")
	if !ok {
		return
	}

	account, err := h.Service.Account(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(account))
}

// CreateAccount registers a new account with balance 0.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Account name is required")
		return
	}

	account, err := h.Service.CreateAccount(r.Context(), req.Name, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountDTO(account))
}

// ValidateAccount checks a name/secret pair. The digest is never
// returned.
func (h *Handler) ValidateAccount(w http.ResponseWriter, r *http.Request) {
	var req CredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.Service.ValidateAccount(r.Context(), req.Name, req.Password); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAccount removes an account. Idempotent.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := accountIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.Service.DeleteAccount(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// OPERATION HANDLERS
// =============================================================================

// RecordDeposit applies a signed deposit to an account.
func (h *Handler) RecordDeposit(w http.ResponseWriter, r *http.Request) {
	id, ok := accountIDParam(w, r, "id")
	if !ok {
		return
	}

	var req OperationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	op, err := h.Service.Deposit(r.Context(), id, amountFromRequest(req))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDepositDTO(op))
}

// RecordTransfer moves an amount from the sender to the receiver.
func (h *Handler) RecordTransfer(w http.ResponseWriter, r *http.Request) {
	senderID, ok := accountIDParam(w, r, "id")
	if !ok {
		return
	}
	receiverID, ok := accountIDParam(w, r, "receiverId")
	if !ok {
		return
	}

	var req OperationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	op, err := h.Service.Transfer(r.Context(), senderID, receiverID, amountFromRequest(req))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransferDTO(op))
}

// ListDeposits returns the raw deposits owned by an account.
func (h *Handler) ListDeposits(w http.ResponseWriter, r *http.Request) {
	id, ok := accountIDParam(w, r, "id")
	if !ok {
		return
	}
	span, ok := spanParams(w, r)
	if !ok {
		return
	}

	ops, err := h.Service.Deposits(r.Context(), id, span)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]DepositOperationDTO, len(ops))
	for i := range ops {
		dtos[i] = toDepositDTO(&ops[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListTransfersSent returns the raw transfers sent by an account.
func (h *Handler) ListTransfersSent(w http.ResponseWriter, r *http.Request) {
	id, ok := accountIDParam(w, r, "id")
	if !ok {
		return
	}
	span, ok := spanParams(w, r)
	if !ok {
		return
	}

	ops, err := h.Service.TransfersSent(r.Context(), id, span)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]TransferOperationDTO, len(ops))
	for i := range ops {
		dtos[i] = toTransferDTO(&ops[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetOperations returns the unified, chronologically ordered history.
func (h *Handler) GetOperations(w http.ResponseWriter, r *http.Request) {
	id, ok := accountIDParam(w, r, "id")
	if !ok {
		return
	}
	sortToken := r.URL.Query().Get("sort")
	span, ok := spanParams(w, r)
	if !ok {
		return
	}

	var (
		ops []ledger.Operation
		err error
	)
	if span != nil {
		ops, err = h.Service.OperationsInRange(r.Context(), id, span.From, span.To, sortToken)
	} else {
		ops, err = h.Service.Operations(r.Context(), id, sortToken)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]HistoryEntryDTO, len(ops))
	for i, op := range ops {
		dtos[i] = toHistoryDTO(op)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func accountIDParam(w http.ResponseWriter, r *http.Request, name string) (ledger.AccountID, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid account id '"+raw+"'")
		return 0, false
	}
	return ledger.AccountID(id), true
}

// spanParams parses the optional from/to calendar dates into a half-open
// [from, to) span at midnight UTC. Both must be given together.
func spanParams(w http.ResponseWriter, r *http.Request) (*ledger.TimeSpan, bool) {
	fromRaw := r.URL.Query().Get("from")
	toRaw := r.URL.Query().Get("to")
	if fromRaw == "" && toRaw == "" {
		return nil, true
	}
	if fromRaw == "" || toRaw == "" {
		writeError(w, http.StatusBadRequest, "Both 'from' and 'to' are required for a date span")
		return nil, false
	}

	from, err := time.ParseInLocation("2006-01-02", fromRaw, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid 'from' date (use YYYY-MM-DD)")
		return nil, false
	}
	to, err := time.ParseInLocation("2006-01-02", toRaw, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid 'to' date (use YYYY-MM-DD)")
		return nil, false
	}

	return &ledger.TimeSpan{From: from, To: to}, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Message: message})
}

// writeDomainError maps ledger errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case ledger.IsClientError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "Internal error")
	}
}
