package domain

import "errors"

var (
	// Transaction errors
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrInvalidAmount         = errors.New("amount must be a number")
	ErrNegativeAmount        = errors.New("amount must not be negative")
	ErrInvalidType           = errors.New("invalid transaction type")
	ErrInvalidMethod         = errors.New("invalid payment method")
	ErrMissingClassification = errors.New("transaction type is required")
	ErrInvalidDate           = errors.New("invalid date")
	ErrInvalidLabel          = errors.New("invalid course or category")
	ErrDescriptionTooLong    = errors.New("description too long")

	// Period errors
	ErrInvalidPeriodMode = errors.New("invalid period mode")
	ErrIncompleteRange   = errors.New("incomplete date range")

	// Storage errors
	ErrBlobNotFound = errors.New("blob not found")

	// Assistant errors
	ErrEmptyPrompt       = errors.New("prompt cannot be empty")
	ErrInvalidImage      = errors.New("image must be a JPEG or PNG")
	ErrInvalidImageSize  = errors.New("invalid image size")
	ErrInvalidChatMode   = errors.New("invalid chat mode")
	ErrInvalidReportType = errors.New("invalid report format")
)
