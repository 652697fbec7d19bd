package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/edufinance/internal/domain"
)

// TransactionUseCase handles creating and editing ledger transactions.
type TransactionUseCase struct {
	ledger LedgerRepository
	idGen  IDGenerator
}

// NewTransactionUseCase creates a new TransactionUseCase.
func NewTransactionUseCase(ledger LedgerRepository, idGen IDGenerator) *TransactionUseCase {
	return &TransactionUseCase{
		ledger: ledger,
		idGen:  idGen,
	}
}

// TransactionInput holds the user editable fields of a transaction.
// An empty Label or Description falls back to the catalog defaults.
type TransactionInput struct {
	Type        domain.TransactionType
	Label       string
	Date        string
	Description string
	Method      domain.PaymentMethod
	Amount      decimal.Decimal
}

func (in TransactionInput) build(id string) (domain.Transaction, error) {
	class, err := domain.NewClassification(in.Type, in.Label)
	if err != nil {
		return domain.Transaction{}, err
	}

	t := domain.Transaction{
		ID:          id,
		Date:        in.Date,
		Class:       class,
		Amount:      in.Amount,
		Method:      in.Method,
		Description: in.Description,
	}.WithDefaults()

	if err := t.Validate(); err != nil {
		return domain.Transaction{}, err
	}

	return t, nil
}

// CreateTransaction validates the input, assigns an ID and persists it.
func (uc *TransactionUseCase) CreateTransaction(ctx context.Context, input TransactionInput) (*domain.Transaction, error) {
	t, err := input.build(uc.idGen.Generate())
	if err != nil {
		return nil, err
	}

	if err := uc.ledger.Add(ctx, t); err != nil {
		return nil, err
	}

	return &t, nil
}

// UpdateTransaction replaces every editable field of an existing transaction.
func (uc *TransactionUseCase) UpdateTransaction(ctx context.Context, id string, input TransactionInput) (*domain.Transaction, error) {
	t, err := input.build(id)
	if err != nil {
		return nil, err
	}

	ok, err := uc.ledger.Update(ctx, t)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTransactionNotFound, id)
	}

	return &t, nil
}

// DeleteTransaction removes a transaction.
func (uc *TransactionUseCase) DeleteTransaction(ctx context.Context, id string) error {
	ok, err := uc.ledger.Remove(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrTransactionNotFound, id)
	}

	return nil
}

// GetTransaction returns a single transaction.
func (uc *TransactionUseCase) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	t, ok, err := uc.ledger.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTransactionNotFound, id)
	}

	return &t, nil
}
