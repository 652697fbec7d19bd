package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Summary holds the totals of a set of transactions.
type Summary struct {
	TotalIncome     decimal.Decimal
	TotalExpense    decimal.Decimal
	NetBalance      decimal.Decimal
	CashBalance     decimal.Decimal
	TransferBalance decimal.Decimal
	Count           int
}

// Summarize reduces transactions to their totals. Cash and transfer
// balances are signed sums restricted to their method; OTHER counts toward
// the net balance only.
func Summarize(transactions []Transaction) Summary {
	s := Summary{
		TotalIncome:     decimal.Zero,
		TotalExpense:    decimal.Zero,
		CashBalance:     decimal.Zero,
		TransferBalance: decimal.Zero,
		Count:           len(transactions),
	}

	for _, t := range transactions {
		switch t.Type() {
		case TransactionTypeIncome:
			s.TotalIncome = s.TotalIncome.Add(t.Amount)
		case TransactionTypeExpense:
			s.TotalExpense = s.TotalExpense.Add(t.Amount)
		default:
			continue
		}

		switch t.Method {
		case PaymentMethodCash:
			s.CashBalance = s.CashBalance.Add(t.SignedAmount())
		case PaymentMethodTransfer:
			s.TransferBalance = s.TransferBalance.Add(t.SignedAmount())
		}
	}

	s.NetBalance = s.TotalIncome.Sub(s.TotalExpense)

	return s
}

// LabelTotal is the income and expense booked against one course or category.
type LabelTotal struct {
	Label   string
	Income  decimal.Decimal
	Expense decimal.Decimal
	Count   int
}

// Breakdown groups transactions by course or category, sorted by label.
func Breakdown(transactions []Transaction) []LabelTotal {
	totals := make(map[string]*LabelTotal)

	for _, t := range transactions {
		label := t.Label()
		lt, ok := totals[label]
		if !ok {
			lt = &LabelTotal{Label: label, Income: decimal.Zero, Expense: decimal.Zero}
			totals[label] = lt
		}

		lt.Count++
		if t.IsIncome() {
			lt.Income = lt.Income.Add(t.Amount)
		} else {
			lt.Expense = lt.Expense.Add(t.Amount)
		}
	}

	result := make([]LabelTotal, 0, len(totals))
	for _, lt := range totals {
		result = append(result, *lt)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Label < result[j].Label
	})

	return result
}
