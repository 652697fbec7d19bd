package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TransactionType tells whether money came in or went out.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

// ParseTransactionType parses a transaction type, ignoring case.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToUpper(strings.TrimSpace(s))) {
	case TransactionTypeIncome:
		return TransactionTypeIncome, nil
	case TransactionTypeExpense:
		return TransactionTypeExpense, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
}

// PaymentMethod is how a transaction was settled.
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "CASH"
	PaymentMethodTransfer PaymentMethod = "TRANSFER"
	PaymentMethodOther    PaymentMethod = "OTHER"
)

// Ledgers written by the browser app stored the display names.
var legacyMethods = map[string]PaymentMethod{
	"efectivo":      PaymentMethodCash,
	"transferencia": PaymentMethodTransfer,
	"otro":          PaymentMethodOther,
}

// ParsePaymentMethod parses a payment method. Legacy display names are accepted.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	normalized := strings.TrimSpace(s)
	switch PaymentMethod(strings.ToUpper(normalized)) {
	case PaymentMethodCash:
		return PaymentMethodCash, nil
	case PaymentMethodTransfer:
		return PaymentMethodTransfer, nil
	case PaymentMethodOther:
		return PaymentMethodOther, nil
	}

	if m, ok := legacyMethods[strings.ToLower(normalized)]; ok {
		return m, nil
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidMethod, s)
}

// Classification says what a transaction is about. It is either an Income
// tied to a course or an Expense tied to a category.
type Classification interface {
	Type() TransactionType
	Label() string
	classification()
}

// Income is money received for a course or area.
type Income struct {
	Course string
}

func (Income) Type() TransactionType { return TransactionTypeIncome }
func (i Income) Label() string       { return i.Course }
func (Income) classification()       {}

// Expense is money spent under an expense category.
type Expense struct {
	Category string
}

func (Expense) Type() TransactionType { return TransactionTypeExpense }
func (e Expense) Label() string       { return e.Category }
func (Expense) classification()       {}

// NewClassification builds the variant matching t.
func NewClassification(t TransactionType, label string) (Classification, error) {
	label = strings.TrimSpace(label)

	switch t {
	case TransactionTypeIncome:
		return Income{Course: label}, nil
	case TransactionTypeExpense:
		return Expense{Category: label}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, t)
	}
}

// Transaction is a single ledger record.
type Transaction struct {
	Class       Classification
	ID          string
	Date        string // YYYY-MM-DD
	Description string
	Method      PaymentMethod
	Amount      decimal.Decimal
}

// Type returns the transaction type derived from its classification.
func (t Transaction) Type() TransactionType {
	if t.Class == nil {
		return ""
	}
	return t.Class.Type()
}

// Label returns the course or category name.
func (t Transaction) Label() string {
	if t.Class == nil {
		return ""
	}
	return t.Class.Label()
}

// IsIncome reports whether the transaction adds money.
func (t Transaction) IsIncome() bool {
	return t.Type() == TransactionTypeIncome
}

// SignedAmount is the amount with the sign implied by the type.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.IsIncome() {
		return t.Amount
	}
	return t.Amount.Neg()
}

// WithDefaults fills the label and description the way the entry form does.
func (t Transaction) WithDefaults() Transaction {
	switch c := t.Class.(type) {
	case Income:
		if c.Course == "" {
			t.Class = Income{Course: DefaultCourse()}
		}
	case Expense:
		if c.Category == "" {
			t.Class = Expense{Category: DefaultExpenseCategory()}
		}
	}

	t.Description = strings.TrimSpace(t.Description)
	if t.Description == "" {
		t.Description = DefaultDescription(t.Type())
	}

	return t
}

// Validate checks the fields a user can edit.
func (t Transaction) Validate() error {
	if t.Class == nil {
		return ErrMissingClassification
	}
	if err := ValidateDate(t.Date); err != nil {
		return err
	}
	if err := ValidateAmount(t.Amount); err != nil {
		return err
	}
	if _, err := ParsePaymentMethod(string(t.Method)); err != nil {
		return err
	}
	if err := ValidateLabel(t.Label()); err != nil {
		return err
	}
	return ValidateDescription(t.Description)
}

// transactionRecord is the persisted layout of a transaction.
type transactionRecord struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	Type        TransactionType `json:"type"`
	Course      string          `json:"course"`
	Amount      json.Number     `json:"amount"`
	Method      string          `json:"method"`
	Description string          `json:"description"`
	Category    string          `json:"category,omitempty"`
}

// MarshalJSON writes the flat {type, course} layout.
func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(transactionRecord{
		ID:          t.ID,
		Date:        t.Date,
		Type:        t.Type(),
		Course:      t.Label(),
		Amount:      json.Number(t.Amount.String()),
		Method:      string(t.Method),
		Description: t.Description,
	})
}

// UnmarshalJSON reads the flat layout, including ledgers written by the
// browser app.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var rec transactionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}

	typ, err := ParseTransactionType(string(rec.Type))
	if err != nil {
		return err
	}

	label := rec.Course
	if label == "" {
		label = rec.Category
	}

	class, err := NewClassification(typ, label)
	if err != nil {
		return err
	}

	method, err := ParsePaymentMethod(rec.Method)
	if err != nil {
		return err
	}

	amount := decimal.Zero
	if rec.Amount != "" {
		amount, err = decimal.NewFromString(rec.Amount.String())
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidAmount, rec.Amount)
		}
	}
	if err := ValidateAmount(amount); err != nil {
		return fmt.Errorf("transaction %s: %w", rec.ID, err)
	}

	*t = Transaction{
		ID:          rec.ID,
		Date:        rec.Date,
		Class:       class,
		Amount:      amount,
		Method:      method,
		Description: rec.Description,
	}

	return nil
}
