package domain

import (
	"fmt"
	"strings"
	"time"
)

// ReportFormat is an export file format.
type ReportFormat string

const (
	ReportFormatPDF  ReportFormat = "pdf"
	ReportFormatXLSX ReportFormat = "xlsx"
)

// ParseReportFormat parses an export format.
func ParseReportFormat(s string) (ReportFormat, error) {
	switch ReportFormat(strings.ToLower(strings.TrimSpace(s))) {
	case ReportFormatPDF:
		return ReportFormatPDF, nil
	case ReportFormatXLSX:
		return ReportFormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidReportType, s)
	}
}

// Report is everything an exported document shows.
type Report struct {
	IssuedAt    time.Time
	Title       string
	Institution string
	View        View
	Summary     Summary
}

// Filename returns the download name of the report in the given format.
func (r Report) Filename(format ReportFormat) string {
	if format == ReportFormatXLSX {
		label := strings.NewReplacer(":", "_", " ", "_").Replace(r.View.Label)
		return "report-" + label + ".xlsx"
	}
	return "financial-report-" + r.IssuedAt.Format(DateLayout) + ".pdf"
}
