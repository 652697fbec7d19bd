package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	DateLayout           = "2006-01-02"
	MonthLayout          = "2006-01"
	MaxLabelLength       = 255
	MaxDescriptionLength = 1000
	MaxAmount            = "1000000000000" // 1 trillion
)

// ParseAmount parses a user supplied amount. Only plain non-negative numbers
// are accepted.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	if err := ValidateAmount(amount); err != nil {
		return decimal.Zero, err
	}

	return amount, nil
}

// ValidateAmount validates a transaction amount.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrNegativeAmount
	}

	maxAmount := decimal.RequireFromString(MaxAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrInvalidAmount, MaxAmount)
	}

	return nil
}

// ValidateDate checks that s is a calendar date in YYYY-MM-DD form.
func ValidateDate(s string) error {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalidDate, s)
	}
	return nil
}

// ValidateMonth checks that s is a month in YYYY-MM form.
func ValidateMonth(s string) error {
	if _, err := time.Parse(MonthLayout, s); err != nil {
		return fmt.Errorf("%w: %q is not YYYY-MM", ErrInvalidDate, s)
	}
	return nil
}

// ValidateLabel validates a course or category name.
func ValidateLabel(label string) error {
	label = strings.TrimSpace(label)

	if label == "" {
		return fmt.Errorf("%w: cannot be empty", ErrInvalidLabel)
	}

	if utf8.RuneCountInString(label) > MaxLabelLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidLabel, MaxLabelLength)
	}

	return nil
}

// ValidateDescription validates description length.
func ValidateDescription(description string) error {
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrDescriptionTooLong, MaxDescriptionLength)
	}
	return nil
}
