package handler

import (
	"encoding/json"
	"net/http"

	"github.com/fintech/digibank/internal/adapter/http/dto"
	"github.com/fintech/digibank/internal/adapter/http/middleware"
	"github.com/fintech/digibank/internal/domain"
	"github.com/fintech/digibank/internal/infrastructure/metrics"
	"github.com/fintech/digibank/internal/usecase"
)

// TransactionHandler handles money-movement HTTP requests.
type TransactionHandler struct {
	txUC    *usecase.TransactionUseCase
	metrics *metrics.Metrics
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(txUC *usecase.TransactionUseCase, m *metrics.Metrics) *TransactionHandler {
	return &TransactionHandler{txUC: txUC, metrics: m}
}

// Deposit credits an account.
func (h *TransactionHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	var req dto.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	record, err := h.txUC.Deposit(r.Context(), identity, req.AccountID, req.Amount)
	if err != nil {
		h.recordError(err)
		writeError(w, mapDomainError(err), "deposit failed", err.Error())
		return
	}

	h.recordSuccess(record)
	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(record))
}

// Withdraw debits an account.
func (h *TransactionHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	var req dto.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	record, err := h.txUC.Withdraw(r.Context(), identity, req.AccountID, req.Amount)
	if err != nil {
		h.recordError(err)
		writeError(w, mapDomainError(err), "withdrawal failed", err.Error())
		return
	}

	h.recordSuccess(record)
	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(record))
}

// Transfer moves money from the caller's account to the account addressed
// by its public number.
func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	var req dto.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	record, err := h.txUC.Transfer(r.Context(), identity, req.SourceAccountID, req.TargetAccountNumber, req.Amount)
	if err != nil {
		h.recordError(err)
		writeError(w, mapDomainError(err), "transfer failed", err.Error())
		return
	}

	h.recordSuccess(record)
	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(record))
}

// Rollback reverses a transaction. Admin-only route.
func (h *TransactionHandler) Rollback(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction ID", "")
		return
	}

	reversal, err := h.txUC.Rollback(r.Context(), identity, id)
	if err != nil {
		h.recordError(err)
		writeError(w, mapDomainError(err), "rollback failed", err.Error())
		return
	}

	if h.metrics != nil {
		h.metrics.TransactionsReversed.Inc()
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(reversal))
}

// ListMine lists all transactions touching the caller's accounts.
func (h *TransactionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	records, err := h.txUC.MyTransactions(r.Context(), identity)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list transactions", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(records))
}

// History lists all transactions, optionally filtered by account. Admin-only
// route.
func (h *TransactionHandler) History(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	var accountID *int64
	if v := parseIntQuery(r, "account_id", 0); v > 0 {
		id := int64(v)
		accountID = &id
	}

	records, err := h.txUC.History(r.Context(), identity, accountID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list transactions", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(records))
}

func (h *TransactionHandler) recordSuccess(record *domain.Transaction) {
	if h.metrics == nil {
		return
	}

	h.metrics.TransactionsCreated.WithLabelValues(string(record.Type)).Inc()
	amount, _ := record.Amount.Float64()
	h.metrics.TransactionAmount.WithLabelValues(string(record.Type)).Observe(amount)
}

func (h *TransactionHandler) recordError(err error) {
	if h.metrics == nil {
		return
	}

	h.metrics.TransactionErrors.WithLabelValues(errorType(err)).Inc()
}

func errorType(err error) string {
	switch mapDomainError(err) {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusForbidden:
		return "access_denied"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "rejected"
	case http.StatusBadRequest:
		return "invalid"
	case http.StatusServiceUnavailable:
		return "lock_timeout"
	default:
		return "internal"
	}
}
