package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/iho/edufinance/internal/domain"
)

// MovementsSheet is the name of the only sheet in an XLSX report.
const MovementsSheet = "Movements"

// headerRow is the 1-based row of the movements header, below the summary
// block and a blank spacer row.
const headerRow = 6

// XLSXRenderer renders a report as a spreadsheet.
type XLSXRenderer struct{}

// NewXLSXRenderer creates a new XLSXRenderer.
func NewXLSXRenderer() *XLSXRenderer {
	return &XLSXRenderer{}
}

// ContentType implements usecase.ReportRenderer.
func (r *XLSXRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Render implements usecase.ReportRenderer. Summary rows come first,
// followed by a blank row, the header and one row per transaction.
func (r *XLSXRenderer) Render(rep domain.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", MovementsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	s := rep.Summary
	summary := []struct {
		label  string
		amount float64
	}{
		{"Income:", s.TotalIncome.InexactFloat64()},
		{"Expenses:", s.TotalExpense.InexactFloat64()},
		{"Balance:", s.NetBalance.InexactFloat64()},
	}

	if err := f.SetSheetRow(MovementsSheet, "A1", &[]any{"Period summary:", rep.View.Label}); err != nil {
		return nil, fmt.Errorf("write period row: %w", err)
	}
	for i, row := range summary {
		n := i + 2
		if err := f.SetCellValue(MovementsSheet, fmt.Sprintf("A%d", n), row.label); err != nil {
			return nil, err
		}
		if err := f.SetCellValue(MovementsSheet, fmt.Sprintf("F%d", n), row.amount); err != nil {
			return nil, err
		}
	}

	// Row 5 stays blank.
	header := make([]any, len(movementHeader))
	for i, h := range movementHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(MovementsSheet, fmt.Sprintf("A%d", headerRow), &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, t := range rep.View.Transactions {
		row := []any{
			t.Date,
			typeName(t.Type()),
			t.Label(),
			t.Description,
			string(t.Method),
			t.Amount.InexactFloat64(),
		}
		if err := f.SetSheetRow(MovementsSheet, fmt.Sprintf("A%d", headerRow+1+i), &row); err != nil {
			return nil, fmt.Errorf("write movement %s: %w", t.ID, err)
		}
	}

	if err := f.SetCellStyle(MovementsSheet, "A1", "A4", bold); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(MovementsSheet, fmt.Sprintf("A%d", headerRow), fmt.Sprintf("F%d", headerRow), bold); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(MovementsSheet, "F2", "F4", money); err != nil {
		return nil, err
	}
	if n := len(rep.View.Transactions); n > 0 {
		first, last := headerRow+1, headerRow+n
		if err := f.SetCellStyle(MovementsSheet, fmt.Sprintf("F%d", first), fmt.Sprintf("F%d", last), money); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(MovementsSheet, "C", "D", 30); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}

	return buf.Bytes(), nil
}
