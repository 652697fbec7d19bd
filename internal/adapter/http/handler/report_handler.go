package handler

import (
	"net/http"
	"time"

	"github.com/iho/edufinance/internal/adapter/http/dto"
	"github.com/iho/edufinance/internal/domain"
	"github.com/iho/edufinance/internal/usecase"
)

// ReportHandler serves document exports.
type ReportHandler struct {
	reportUC *usecase.ReportUseCase
	now      func() time.Time
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportUC *usecase.ReportUseCase) *ReportHandler {
	return &ReportHandler{reportUC: reportUC, now: time.Now}
}

// Export returns a handler that downloads the filtered view in format.
func (h *ReportHandler) Export(format domain.ReportFormat) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		period, err := dto.PeriodFromQuery(r.URL.Query(), h.now())
		if err != nil {
			respondError(w, err, "invalid period")
			return
		}

		report, err := h.reportUC.Export(r.Context(), format, period)
		if err != nil {
			respondError(w, err, "failed to export report")
			return
		}

		writeFile(w, report.ContentType, report.Filename, report.Data)
	}
}
