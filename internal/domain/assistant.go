package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ChatMode picks the model family answering a chat message.
type ChatMode string

const (
	ChatModeFast   ChatMode = "fast"
	ChatModeSearch ChatMode = "search"
)

// ParseChatMode parses a chat mode. An empty string means fast.
func ParseChatMode(s string) (ChatMode, error) {
	switch ChatMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ChatModeFast:
		return ChatModeFast, nil
	case ChatModeSearch:
		return ChatModeSearch, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidChatMode, s)
	}
}

// ImageSize is the requested resolution class of a generated image.
type ImageSize string

const (
	ImageSize1K ImageSize = "1K"
	ImageSize2K ImageSize = "2K"
	ImageSize4K ImageSize = "4K"
)

// ParseImageSize parses an image size. An empty string means 1K.
func ParseImageSize(s string) (ImageSize, error) {
	switch ImageSize(strings.ToUpper(strings.TrimSpace(s))) {
	case "", ImageSize1K:
		return ImageSize1K, nil
	case ImageSize2K:
		return ImageSize2K, nil
	case ImageSize4K:
		return ImageSize4K, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidImageSize, s)
	}
}

// ReceiptDraft is what the vision model read off a receipt. Every field
// may be missing.
type ReceiptDraft struct {
	Amount      json.Number `json:"amount"`
	Date        string      `json:"date"`
	Description string      `json:"description"`
	Type        string      `json:"type"`
}

// TransactionDraft pre-fills the entry form. Nothing in it is stored.
type TransactionDraft struct {
	Amount      *decimal.Decimal
	Type        TransactionType
	Course      string
	Date        string
	Description string
}

// ToDraft turns a receipt reading into a form pre-fill. A recognised type
// picks the catalog default label, unreadable fields stay empty.
func (r ReceiptDraft) ToDraft() TransactionDraft {
	var d TransactionDraft

	if t, err := ParseTransactionType(r.Type); err == nil {
		d.Type = t
		if t == TransactionTypeIncome {
			d.Course = DefaultCourse()
		} else {
			d.Course = DefaultExpenseCategory()
		}
	}

	if r.Amount != "" {
		if amount, err := decimal.NewFromString(r.Amount.String()); err == nil && !amount.IsNegative() {
			d.Amount = &amount
		}
	}

	if ValidateDate(r.Date) == nil {
		d.Date = r.Date
	}

	d.Description = strings.TrimSpace(r.Description)

	return d
}
