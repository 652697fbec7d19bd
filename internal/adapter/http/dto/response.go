package dto

import (
	"encoding/base64"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/edufinance/internal/domain"
	"github.com/iho/edufinance/internal/usecase"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// TransactionResponse represents a transaction in API responses.
type TransactionResponse struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	Type        string          `json:"type"`
	Course      string          `json:"course"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
	Description string          `json:"description"`
}

// TransactionFromDomain converts a domain transaction to a response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:          t.ID,
		Date:        t.Date,
		Type:        string(t.Type()),
		Course:      t.Label(),
		Amount:      t.Amount,
		Method:      string(t.Method),
		Description: t.Description,
	}
}

// TransactionsFromDomain converts domain transactions to responses. The
// result is never nil so it encodes as [].
func TransactionsFromDomain(txs []domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(txs))
	for i := range txs {
		result[i] = TransactionFromDomain(&txs[i])
	}
	return result
}

// SummaryResponse represents aggregated totals.
type SummaryResponse struct {
	TotalIncome     decimal.Decimal `json:"total_income"`
	TotalExpense    decimal.Decimal `json:"total_expense"`
	NetBalance      decimal.Decimal `json:"net_balance"`
	CashBalance     decimal.Decimal `json:"cash_balance"`
	TransferBalance decimal.Decimal `json:"transfer_balance"`
	Count           int             `json:"count"`
}

// SummaryFromDomain converts a domain summary to a response.
func SummaryFromDomain(s domain.Summary) SummaryResponse {
	return SummaryResponse{
		TotalIncome:     s.TotalIncome,
		TotalExpense:    s.TotalExpense,
		NetBalance:      s.NetBalance,
		CashBalance:     s.CashBalance,
		TransferBalance: s.TransferBalance,
		Count:           s.Count,
	}
}

// PeriodResponse describes the period a view was computed for.
type PeriodResponse struct {
	Mode   string `json:"mode"`
	Month  string `json:"month,omitempty"`
	Start  string `json:"start,omitempty"`
	End    string `json:"end,omitempty"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

func periodFromDomain(p domain.Period, label string, active bool) PeriodResponse {
	return PeriodResponse{
		Mode:   string(p.Mode),
		Month:  p.Month,
		Start:  p.Start,
		End:    p.End,
		Label:  label,
		Active: active,
	}
}

// ViewResponse is a filtered transaction list with its totals.
type ViewResponse struct {
	Period       PeriodResponse         `json:"period"`
	Summary      SummaryResponse        `json:"summary"`
	Transactions []*TransactionResponse `json:"transactions"`
}

// ViewFromResult converts a view result to a response.
func ViewFromResult(r *usecase.ViewResult) *ViewResponse {
	return &ViewResponse{
		Period:       periodFromDomain(r.View.Period, r.View.Label, r.View.Active),
		Summary:      SummaryFromDomain(r.Summary),
		Transactions: TransactionsFromDomain(r.View.Transactions),
	}
}

// LabelTotalResponse is the total for one course or category.
type LabelTotalResponse struct {
	Label   string          `json:"label"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Count   int             `json:"count"`
}

// PeriodSummaryResponse is the summary endpoint payload.
type PeriodSummaryResponse struct {
	Label     string               `json:"label"`
	Active    bool                 `json:"active"`
	Summary   SummaryResponse      `json:"summary"`
	Breakdown []LabelTotalResponse `json:"breakdown"`
}

// SummaryFromResult converts a summary result to a response.
func SummaryFromResult(r *usecase.SummaryResult) *PeriodSummaryResponse {
	breakdown := make([]LabelTotalResponse, len(r.Breakdown))
	for i, lt := range r.Breakdown {
		breakdown[i] = LabelTotalResponse{
			Label:   lt.Label,
			Income:  lt.Income,
			Expense: lt.Expense,
			Count:   lt.Count,
		}
	}

	return &PeriodSummaryResponse{
		Label:     r.Label,
		Active:    r.Active,
		Summary:   SummaryFromDomain(r.Summary),
		Breakdown: breakdown,
	}
}

// DashboardResponse is the global summary with the latest transactions.
type DashboardResponse struct {
	Summary SummaryResponse        `json:"summary"`
	Recent  []*TransactionResponse `json:"recent"`
}

// DashboardFromResult converts a dashboard result to a response.
func DashboardFromResult(r *usecase.DashboardResult) *DashboardResponse {
	return &DashboardResponse{
		Summary: SummaryFromDomain(r.Summary),
		Recent:  TransactionsFromDomain(r.Recent),
	}
}

// CatalogResponse lists the selectable labels.
type CatalogResponse struct {
	Courses           []string `json:"courses"`
	ExpenseCategories []string `json:"expense_categories"`
	Methods           []string `json:"methods"`
}

// NewCatalogResponse builds the catalog payload.
func NewCatalogResponse() *CatalogResponse {
	return &CatalogResponse{
		Courses:           append([]string(nil), domain.Courses...),
		ExpenseCategories: append([]string(nil), domain.ExpenseCategories...),
		Methods: []string{
			string(domain.PaymentMethodCash),
			string(domain.PaymentMethodTransfer),
			string(domain.PaymentMethodOther),
		},
	}
}

// DraftResponse pre-fills the transaction form from a receipt.
type DraftResponse struct {
	Amount      *decimal.Decimal `json:"amount"`
	Type        string           `json:"type,omitempty"`
	Course      string           `json:"course,omitempty"`
	Date        string           `json:"date,omitempty"`
	Description string           `json:"description,omitempty"`
}

// DraftFromDomain converts a draft to a response.
func DraftFromDomain(d *domain.TransactionDraft) *DraftResponse {
	return &DraftResponse{
		Amount:      d.Amount,
		Type:        string(d.Type),
		Course:      d.Course,
		Date:        d.Date,
		Description: d.Description,
	}
}

// TextResponse is a model answer.
type TextResponse struct {
	Text string `json:"text"`
}

// ImageResponse carries a generated image as base64 PNG.
type ImageResponse struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// NewImageResponse encodes PNG bytes.
func NewImageResponse(png []byte) *ImageResponse {
	return &ImageResponse{
		MimeType: "image/png",
		Data:     base64.StdEncoding.EncodeToString(png),
	}
}

// ReconciliationResponse reports drift between memory and storage.
type ReconciliationResponse struct {
	CheckedAt     time.Time `json:"checked_at"`
	IsReconciled  bool      `json:"is_reconciled"`
	LiveCount     int       `json:"live_count"`
	StoredCount   int       `json:"stored_count"`
	MissingStored []string  `json:"missing_stored"`
	MissingLive   []string  `json:"missing_live"`
	Changed       []string  `json:"changed"`
}

// ReconciliationFromResult converts a reconciliation result to a response.
func ReconciliationFromResult(r *usecase.ReconciliationResult) *ReconciliationResponse {
	return &ReconciliationResponse{
		CheckedAt:     r.CheckedAt,
		IsReconciled:  r.IsReconciled,
		LiveCount:     r.LiveCount,
		StoredCount:   r.StoredCount,
		MissingStored: nonNil(r.MissingStored),
		MissingLive:   nonNil(r.MissingLive),
		Changed:       nonNil(r.Changed),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
