package dto

import (
	"encoding/json"
	"net/url"
	"time"

	"github.com/iho/edufinance/internal/domain"
	"github.com/iho/edufinance/internal/usecase"
)

// TransactionRequest is the body of create and update requests. Amount
// accepts a JSON number or a numeric string.
type TransactionRequest struct {
	Date        string      `json:"date"`
	Type        string      `json:"type"`
	Course      string      `json:"course"`
	Amount      json.Number `json:"amount"`
	Method      string      `json:"method"`
	Description string      `json:"description"`
}

// ToUseCaseInput converts to use case input.
func (r *TransactionRequest) ToUseCaseInput() (usecase.TransactionInput, error) {
	typ, err := domain.ParseTransactionType(r.Type)
	if err != nil {
		return usecase.TransactionInput{}, err
	}

	method, err := domain.ParsePaymentMethod(r.Method)
	if err != nil {
		return usecase.TransactionInput{}, err
	}

	amount, err := domain.ParseAmount(r.Amount.String())
	if err != nil {
		return usecase.TransactionInput{}, err
	}

	if err := domain.ValidateDate(r.Date); err != nil {
		return usecase.TransactionInput{}, err
	}

	return usecase.TransactionInput{
		Type:        typ,
		Label:       r.Course,
		Date:        r.Date,
		Description: r.Description,
		Method:      method,
		Amount:      amount,
	}, nil
}

// PeriodFromQuery reads ?mode=&month=&start=&end=. Month mode without a
// month means the current month.
func PeriodFromQuery(q url.Values, now time.Time) (domain.Period, error) {
	mode, err := domain.ParsePeriodMode(q.Get("mode"))
	if err != nil {
		return domain.Period{}, err
	}

	switch mode {
	case domain.PeriodMonth:
		month := q.Get("month")
		if month == "" {
			month = now.Format(domain.MonthLayout)
		}
		if err := domain.ValidateMonth(month); err != nil {
			return domain.Period{}, err
		}
		return domain.ForMonth(month), nil

	case domain.PeriodRange:
		start, end := q.Get("start"), q.Get("end")
		for _, d := range []string{start, end} {
			if d == "" {
				continue
			}
			if err := domain.ValidateDate(d); err != nil {
				return domain.Period{}, err
			}
		}
		period := domain.Between(start, end)
		return period, period.Validate()

	default:
		return domain.AllTime(), nil
	}
}

// ChatRequest is the body of a chat request.
type ChatRequest struct {
	Message string `json:"message"`
	Mode    string `json:"mode"`
}

// AnalysisRequest is the body of an analysis request.
type AnalysisRequest struct {
	Query string `json:"query"`
}

// SpeechRequest is the body of a text-to-speech request.
type SpeechRequest struct {
	Text string `json:"text"`
}

// ImageRequest is the body of an image generation request.
type ImageRequest struct {
	Prompt string `json:"prompt"`
	Size   string `json:"size"`
}
