package handler

import (
	"encoding/json"
	"net/http"

	"github.com/fintech/digibank/internal/adapter/http/dto"
	"github.com/fintech/digibank/internal/adapter/http/middleware"
	"github.com/fintech/digibank/internal/infrastructure/metrics"
	"github.com/fintech/digibank/internal/usecase"
)

// RollbackRequestHandler handles the rollback approval workflow endpoints.
type RollbackRequestHandler struct {
	requestUC *usecase.RollbackRequestUseCase
	metrics   *metrics.Metrics
}

// NewRollbackRequestHandler creates a new RollbackRequestHandler.
func NewRollbackRequestHandler(requestUC *usecase.RollbackRequestUseCase, m *metrics.Metrics) *RollbackRequestHandler {
	return &RollbackRequestHandler{requestUC: requestUC, metrics: m}
}

// Submit files a rollback request.
func (h *RollbackRequestHandler) Submit(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	var req dto.SubmitRollbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	request, err := h.requestUC.Submit(r.Context(), identity, req.TransactionID, req.Reason)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to submit request", err.Error())
		return
	}

	if h.metrics != nil {
		h.metrics.RollbackRequestsSubmitted.Inc()
	}

	writeJSON(w, http.StatusCreated, dto.RollbackRequestFromDomain(request))
}

// ListMine lists the caller's requests.
func (h *RollbackRequestHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	requests, err := h.requestUC.ListMine(r.Context(), identity)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list requests", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.RollbackRequestsFromDomain(requests))
}

// ListPending lists all pending requests. Admin-only route.
func (h *RollbackRequestHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	requests, err := h.requestUC.ListPending(r.Context(), identity)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list requests", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.RollbackRequestsFromDomain(requests))
}

// Approve executes the rollback and marks the request approved. Admin-only
// route.
func (h *RollbackRequestHandler) Approve(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request ID", "")
		return
	}

	request, err := h.requestUC.Approve(r.Context(), identity, id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to approve request", err.Error())
		return
	}

	if h.metrics != nil {
		h.metrics.RollbackRequestsDecided.WithLabelValues("approved").Inc()
	}

	writeJSON(w, http.StatusOK, dto.RollbackRequestFromDomain(request))
}

// Reject marks the request rejected without moving money. Admin-only route.
func (h *RollbackRequestHandler) Reject(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request ID", "")
		return
	}

	request, err := h.requestUC.Reject(r.Context(), identity, id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to reject request", err.Error())
		return
	}

	if h.metrics != nil {
		h.metrics.RollbackRequestsDecided.WithLabelValues("rejected").Inc()
	}

	writeJSON(w, http.StatusOK, dto.RollbackRequestFromDomain(request))
}
