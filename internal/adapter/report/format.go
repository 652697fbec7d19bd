// Package report renders financial reports as PDF and XLSX documents.
package report

import (
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/iho/edufinance/internal/domain"
)

// Money formats an amount as $1,234.50.
func Money(d decimal.Decimal) string {
	d = d.Round(2)

	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	_, cents, _ := strings.Cut(d.StringFixed(2), ".")

	return sign + "$" + humanize.BigComma(d.Truncate(0).BigInt()) + "." + cents
}

func typeName(t domain.TransactionType) string {
	if t == domain.TransactionTypeIncome {
		return "Income"
	}
	return "Expense"
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}

type summaryRow struct {
	concept string
	amount  decimal.Decimal
}

func summaryRows(s domain.Summary) []summaryRow {
	return []summaryRow{
		{"Total income", s.TotalIncome},
		{"Total expenses", s.TotalExpense},
		{"Net balance", s.NetBalance},
		{"Cash balance (period)", s.CashBalance},
		{"Transfer balance (period)", s.TransferBalance},
	}
}

var movementHeader = []string{"Date", "Type", "Course", "Description", "Method", "Amount"}
