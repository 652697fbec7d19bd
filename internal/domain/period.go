package domain

import (
	"fmt"
	"sort"
	"strings"
)

// PeriodMode selects how a period narrows the ledger.
type PeriodMode string

const (
	PeriodAll   PeriodMode = "all"
	PeriodMonth PeriodMode = "month"
	PeriodRange PeriodMode = "range"
)

// FullHistoryLabel is the label of an unfiltered view.
const FullHistoryLabel = "full history"

// ParsePeriodMode parses a period mode. An empty string means all.
func ParsePeriodMode(s string) (PeriodMode, error) {
	switch PeriodMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", PeriodAll:
		return PeriodAll, nil
	case PeriodMonth:
		return PeriodMonth, nil
	case PeriodRange:
		return PeriodRange, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriodMode, s)
	}
}

// Period is the time window a view is restricted to.
type Period struct {
	Mode  PeriodMode
	Month string // YYYY-MM, used by PeriodMonth
	Start string // YYYY-MM-DD, used by PeriodRange
	End   string // YYYY-MM-DD, used by PeriodRange
}

// AllTime returns the unfiltered period.
func AllTime() Period {
	return Period{Mode: PeriodAll}
}

// ForMonth returns the period covering a YYYY-MM month.
func ForMonth(month string) Period {
	return Period{Mode: PeriodMonth, Month: month}
}

// Between returns the inclusive period [start, end].
func Between(start, end string) Period {
	return Period{Mode: PeriodRange, Start: start, End: end}
}

// Active reports whether the period actually filters anything. A range
// needs both bounds before it applies.
func (p Period) Active() bool {
	switch p.Mode {
	case PeriodMonth:
		return true
	case PeriodRange:
		return p.Start != "" && p.End != ""
	default:
		return false
	}
}

// Validate rejects periods a caller cannot have meant. A range with only
// one bound set is reported instead of silently showing the full ledger.
func (p Period) Validate() error {
	switch p.Mode {
	case PeriodAll, PeriodMonth:
		return nil
	case PeriodRange:
		if (p.Start == "") != (p.End == "") {
			return ErrIncompleteRange
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPeriodMode, p.Mode)
	}
}

// Label is the human readable name of the period.
func (p Period) Label() string {
	if !p.Active() {
		return FullHistoryLabel
	}

	if p.Mode == PeriodMonth {
		return "period: " + p.Month
	}

	return fmt.Sprintf("from %s to %s", p.Start, p.End)
}

// Contains reports whether a transaction date falls inside the period.
// Dates are compared as zero padded ISO strings.
func (p Period) Contains(date string) bool {
	switch {
	case !p.Active():
		return true
	case p.Mode == PeriodMonth:
		return strings.HasPrefix(date, p.Month)
	default:
		return date >= p.Start && date <= p.End
	}
}

// View is a filtered, date ordered slice of the ledger.
type View struct {
	Period       Period
	Label        string
	Active       bool
	Transactions []Transaction
}

// Apply filters transactions to the period and sorts them most recent
// first. Transactions sharing a date keep their relative order.
func (p Period) Apply(transactions []Transaction) View {
	filtered := make([]Transaction, 0, len(transactions))
	for _, t := range transactions {
		if p.Contains(t.Date) {
			filtered = append(filtered, t)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Date > filtered[j].Date
	})

	return View{
		Period:       p,
		Label:        p.Label(),
		Active:       p.Active(),
		Transactions: filtered,
	}
}
