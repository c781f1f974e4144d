package handler

import (
	"net/http"

	"github.com/fintech/digibank/internal/adapter/http/dto"
	"github.com/fintech/digibank/internal/adapter/http/middleware"
	"github.com/fintech/digibank/internal/usecase"
)

// ReconciliationHandler exposes the ledger consistency check.
type ReconciliationHandler struct {
	reconciliationUC *usecase.ReconciliationUseCase
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconciliationUC *usecase.ReconciliationUseCase) *ReconciliationHandler {
	return &ReconciliationHandler{reconciliationUC: reconciliationUC}
}

// Check runs the ledger-wide consistency check. Admin-only route.
func (h *ReconciliationHandler) Check(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	report, err := h.reconciliationUC.Run(r.Context(), identity)
	if err != nil {
		writeError(w, mapDomainError(err), "reconciliation failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromReport(report))
}
