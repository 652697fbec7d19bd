package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/edufinance/internal/adapter/http/dto"
	"github.com/iho/edufinance/internal/usecase"
)

// TransactionHandler handles transaction-related HTTP requests.
type TransactionHandler struct {
	transactionUC *usecase.TransactionUseCase
	viewUC        *usecase.ViewUseCase
	now           func() time.Time
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionUC *usecase.TransactionUseCase, viewUC *usecase.ViewUseCase) *TransactionHandler {
	return &TransactionHandler{
		transactionUC: transactionUC,
		viewUC:        viewUC,
		now:           time.Now,
	}
}

// List returns the transactions of a period with their summary.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	period, err := dto.PeriodFromQuery(r.URL.Query(), h.now())
	if err != nil {
		respondError(w, err, "invalid period")
		return
	}

	result, err := h.viewUC.View(r.Context(), period)
	if err != nil {
		respondError(w, err, "failed to list transactions")
		return
	}

	writeJSON(w, http.StatusOK, dto.ViewFromResult(result))
}

// Create creates a new transaction.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.TransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		respondError(w, err, "invalid transaction")
		return
	}

	tx, err := h.transactionUC.CreateTransaction(r.Context(), input)
	if err != nil {
		respondError(w, err, "failed to create transaction")
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(tx))
}

// Get retrieves a transaction by ID.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	tx, err := h.transactionUC.GetTransaction(r.Context(), id)
	if err != nil {
		respondError(w, err, "failed to get transaction")
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(tx))
}

// Update replaces the editable fields of a transaction.
func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	var req dto.TransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		respondError(w, err, "invalid transaction")
		return
	}

	tx, err := h.transactionUC.UpdateTransaction(r.Context(), id, input)
	if err != nil {
		respondError(w, err, "failed to update transaction")
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(tx))
}

// Delete removes a transaction.
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	if err := h.transactionUC.DeleteTransaction(r.Context(), id); err != nil {
		respondError(w, err, "failed to delete transaction")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
