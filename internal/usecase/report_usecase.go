package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/edufinance/internal/domain"
	"github.com/iho/edufinance/internal/infrastructure/metrics"
)

// ErrExportFailed is returned when a report could not be rendered.
var ErrExportFailed = errors.New("report export failed")

// ReportUseCase exports filtered views as documents.
type ReportUseCase struct {
	views       *ViewUseCase
	renderers   map[domain.ReportFormat]ReportRenderer
	metrics     *metrics.Metrics
	now         func() time.Time
	logger      zerolog.Logger
	title       string
	institution string
}

// ReportConfig configures a ReportUseCase.
type ReportConfig struct {
	Renderers   map[domain.ReportFormat]ReportRenderer
	Metrics     *metrics.Metrics
	Now         func() time.Time
	Logger      zerolog.Logger
	Title       string
	Institution string
}

// NewReportUseCase creates a new ReportUseCase.
func NewReportUseCase(views *ViewUseCase, cfg ReportConfig) *ReportUseCase {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Title == "" {
		cfg.Title = DefaultReportTitle
	}

	return &ReportUseCase{
		views:       views,
		renderers:   cfg.Renderers,
		metrics:     cfg.Metrics,
		now:         cfg.Now,
		logger:      cfg.Logger,
		title:       cfg.Title,
		institution: cfg.Institution,
	}
}

// ExportedReport is a rendered document ready for download.
type ExportedReport struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Export renders the view of a period in the requested format.
func (uc *ReportUseCase) Export(ctx context.Context, format domain.ReportFormat, period domain.Period) (*ExportedReport, error) {
	renderer, ok := uc.renderers[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidReportType, format)
	}

	result, err := uc.views.View(ctx, period)
	if err != nil {
		return nil, err
	}

	report := domain.Report{
		IssuedAt:    uc.now(),
		Title:       uc.title,
		Institution: uc.institution,
		View:        result.View,
		Summary:     result.Summary,
	}

	data, err := renderer.Render(report)
	if err != nil {
		uc.logger.Error().Err(err).
			Str("format", string(format)).
			Str("period", report.View.Label).
			Msg("report export failed")
		uc.recordExport(format, metrics.OutcomeError)

		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	uc.recordExport(format, metrics.OutcomeSuccess)

	return &ExportedReport{
		Filename:    report.Filename(format),
		ContentType: renderer.ContentType(),
		Data:        data,
	}, nil
}

func (uc *ReportUseCase) recordExport(format domain.ReportFormat, outcome string) {
	if uc.metrics != nil {
		uc.metrics.ReportsExported.WithLabelValues(string(format), outcome).Inc()
	}
}
