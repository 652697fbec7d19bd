package handler

import (
	"net/http"
	"time"

	"github.com/iho/edufinance/internal/adapter/http/dto"
	"github.com/iho/edufinance/internal/usecase"
)

// LedgerHandler handles ledger-wide read operations.
type LedgerHandler struct {
	viewUC      *usecase.ViewUseCase
	reconcileUC *usecase.ReconciliationUseCase
	now         func() time.Time
}

// NewLedgerHandler creates a new LedgerHandler. reconcileUC may be nil.
func NewLedgerHandler(viewUC *usecase.ViewUseCase, reconcileUC *usecase.ReconciliationUseCase) *LedgerHandler {
	return &LedgerHandler{
		viewUC:      viewUC,
		reconcileUC: reconcileUC,
		now:         time.Now,
	}
}

// Catalog lists courses, expense categories and payment methods.
func (h *LedgerHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.NewCatalogResponse())
}

// Dashboard returns the global summary and the most recent transactions.
func (h *LedgerHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	result, err := h.viewUC.Dashboard(r.Context())
	if err != nil {
		respondError(w, err, "failed to load dashboard")
		return
	}

	writeJSON(w, http.StatusOK, dto.DashboardFromResult(result))
}

// Summary returns the totals of a period broken down by course or category.
func (h *LedgerHandler) Summary(w http.ResponseWriter, r *http.Request) {
	period, err := dto.PeriodFromQuery(r.URL.Query(), h.now())
	if err != nil {
		respondError(w, err, "invalid period")
		return
	}

	result, err := h.viewUC.Summary(r.Context(), period)
	if err != nil {
		respondError(w, err, "failed to summarize")
		return
	}

	writeJSON(w, http.StatusOK, dto.SummaryFromResult(result))
}

// Reconcile compares the in-memory ledger with the stored copy.
func (h *LedgerHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	if h.reconcileUC == nil {
		writeError(w, http.StatusNotImplemented, "reconciliation unavailable", "")
		return
	}

	result, err := h.reconcileUC.Reconcile(r.Context())
	if err != nil {
		respondError(w, err, "failed to reconcile ledger")
		return
	}

	status := http.StatusOK
	if !result.IsReconciled {
		status = http.StatusConflict
	}

	writeJSON(w, status, dto.ReconciliationFromResult(result))
}
