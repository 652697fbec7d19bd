package report

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/iho/edufinance/internal/domain"
)

const (
	pageWidth    = 210.0
	marginLeft   = 14.0
	footerY      = 290.0
	bottomMargin = 20.0
	rowHeight    = 7.0
)

var (
	headerBand = [3]int{63, 81, 181}
	tableHead  = [3]int{41, 128, 185}
	stripe     = [3]int{245, 247, 250}

	movementWidths = []float64{22, 20, 36, 58, 22, 24}
)

// PDFRenderer renders a report as an A4 PDF document.
type PDFRenderer struct{}

// NewPDFRenderer creates a new PDFRenderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// ContentType implements usecase.ReportRenderer.
func (r *PDFRenderer) ContentType() string {
	return "application/pdf"
}

// Render implements usecase.ReportRenderer.
func (r *PDFRenderer) Render(rep domain.Report) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetTitle(rep.Title, true)
	pdf.SetCreator(rep.Institution, true)
	pdf.SetAutoPageBreak(false, bottomMargin)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(150, 150, 150)
		pdf.SetXY(0, footerY-4)
		pdf.CellFormat(pageWidth, 4, fmt.Sprintf("page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	drawHeader(pdf, tr, rep)
	drawSummary(pdf, tr, rep.Summary)
	drawMovements(pdf, tr, rep.View.Transactions)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}

	return buf.Bytes(), nil
}

func drawHeader(pdf *fpdf.Fpdf, tr func(string) string, rep domain.Report) {
	pdf.SetFillColor(headerBand[0], headerBand[1], headerBand[2])
	pdf.Rect(0, 0, pageWidth, 40, "F")

	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 22)
	pdf.Text(marginLeft, 20, tr(rep.Title))
	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(marginLeft, 28, tr(rep.Institution))

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(100, 16)
	pdf.CellFormat(80, 5, "Issued: "+rep.IssuedAt.Format(domain.DateLayout), "", 2, "R", false, 0, "")
	pdf.SetXY(100, 24)
	pdf.CellFormat(80, 5, tr("Period: "+rep.View.Label), "", 2, "R", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	pdf.SetY(45)
}

func drawSummary(pdf *fpdf.Fpdf, tr func(string) string, s domain.Summary) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetX(marginLeft)
	pdf.CellFormat(0, 8, "Period summary", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(headerBand[0], headerBand[1], headerBand[2])
	pdf.SetTextColor(255, 255, 255)
	pdf.SetX(marginLeft)
	pdf.CellFormat(100, rowHeight, "Concept", "1", 0, "L", true, 0, "")
	pdf.CellFormat(82, rowHeight, "Amount", "1", 1, "L", true, 0, "")

	pdf.SetTextColor(0, 0, 0)
	for _, row := range summaryRows(s) {
		pdf.SetX(marginLeft)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(100, rowHeight, tr(row.concept), "1", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(82, rowHeight, Money(row.amount), "1", 1, "L", false, 0, "")
	}

	pdf.Ln(8)
}

func drawMovements(pdf *fpdf.Fpdf, tr func(string) string, txs []domain.Transaction) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetX(marginLeft)
	pdf.CellFormat(0, 8, "Movements", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	drawMovementHeader(pdf)

	_, pageHeight := pdf.GetPageSize()
	pdf.SetFont("Helvetica", "", 9)

	for i, t := range txs {
		if pdf.GetY()+rowHeight > pageHeight-bottomMargin {
			pdf.AddPage()
			pdf.SetY(15)
			drawMovementHeader(pdf)
			pdf.SetFont("Helvetica", "", 9)
		}

		fill := i%2 == 1
		if fill {
			pdf.SetFillColor(stripe[0], stripe[1], stripe[2])
		}

		cells := []string{
			t.Date,
			typeName(t.Type()),
			truncate(t.Label(), 20),
			truncate(t.Description, 34),
			string(t.Method),
			Money(t.Amount),
		}

		pdf.SetX(marginLeft)
		for j, cell := range cells {
			align := "L"
			if j == len(cells)-1 {
				align = "R"
			}
			pdf.CellFormat(movementWidths[j], rowHeight, tr(cell), "", 0, align, fill, 0, "")
		}
		pdf.Ln(rowHeight)
	}
}

func drawMovementHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(tableHead[0], tableHead[1], tableHead[2])
	pdf.SetTextColor(255, 255, 255)
	pdf.SetX(marginLeft)
	for i, h := range movementHeader {
		pdf.CellFormat(movementWidths[i], rowHeight, h, "", 0, "L", true, 0, "")
	}
	pdf.Ln(rowHeight)
	pdf.SetTextColor(0, 0, 0)
}
