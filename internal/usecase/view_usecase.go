package usecase

import (
	"context"

	"github.com/iho/edufinance/internal/domain"
)

// ViewUseCase answers read-only questions about the ledger.
type ViewUseCase struct {
	ledger LedgerRepository
}

// NewViewUseCase creates a new ViewUseCase.
func NewViewUseCase(ledger LedgerRepository) *ViewUseCase {
	return &ViewUseCase{ledger: ledger}
}

// ViewResult is a filtered view with its totals.
type ViewResult struct {
	View    domain.View
	Summary domain.Summary
}

// SummaryResult is the totals of a view broken down per course or category.
type SummaryResult struct {
	Label     string
	Active    bool
	Summary   domain.Summary
	Breakdown []domain.LabelTotal
}

// DashboardResult is the global summary and the latest movements.
type DashboardResult struct {
	Summary domain.Summary
	Recent  []domain.Transaction
}

// View filters the ledger to a period and summarizes the result.
func (uc *ViewUseCase) View(ctx context.Context, period domain.Period) (*ViewResult, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}

	transactions, err := uc.ledger.List(ctx)
	if err != nil {
		return nil, err
	}

	view := period.Apply(transactions)

	return &ViewResult{
		View:    view,
		Summary: domain.Summarize(view.Transactions),
	}, nil
}

// Summary returns the totals and per label breakdown of a period.
func (uc *ViewUseCase) Summary(ctx context.Context, period domain.Period) (*SummaryResult, error) {
	result, err := uc.View(ctx, period)
	if err != nil {
		return nil, err
	}

	return &SummaryResult{
		Label:     result.View.Label,
		Active:    result.View.Active,
		Summary:   result.Summary,
		Breakdown: domain.Breakdown(result.View.Transactions),
	}, nil
}

// Dashboard summarizes the full ledger and lists the latest movements.
func (uc *ViewUseCase) Dashboard(ctx context.Context) (*DashboardResult, error) {
	transactions, err := uc.ledger.List(ctx)
	if err != nil {
		return nil, err
	}

	recent, err := uc.ledger.Recent(ctx, DashboardRecentCount)
	if err != nil {
		return nil, err
	}

	return &DashboardResult{
		Summary: domain.Summarize(transactions),
		Recent:  recent,
	}, nil
}
