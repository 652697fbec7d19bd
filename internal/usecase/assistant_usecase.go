package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/edufinance/internal/domain"
	"github.com/iho/edufinance/internal/infrastructure/metrics"
)

var (
	// ErrAIRequestFailed hides provider failures from callers.
	ErrAIRequestFailed = errors.New("request failed")
	// ErrSuperseded is returned when a newer request of the same kind
	// started before this one finished.
	ErrSuperseded = errors.New("superseded by a newer request")
)

// Assistant operations, used for request generations and metric labels.
const (
	OpReceipt      = "receipt"
	OpChat         = "chat"
	OpSearchChat   = "search_chat"
	OpAnalysis     = "analysis"
	OpSpeech       = "speech"
	OpSummaryAudio = "summary_audio"
	OpImage        = "image"
	OpImageEdit    = "image_edit"
)

// AssistantUseCase runs the AI features. Every call belongs to a request
// generation keyed by client session and operation.
type AssistantUseCase struct {
	ai      AIClient
	ledger  LedgerRepository
	views   *ViewUseCase
	tracker *RequestTracker
	metrics *metrics.Metrics
	logger  zerolog.Logger
	timeout time.Duration
}

// AssistantConfig configures an AssistantUseCase.
type AssistantConfig struct {
	Tracker *RequestTracker  // optional
	Metrics *metrics.Metrics // optional
	Logger  zerolog.Logger
	Timeout time.Duration // zero means no extra deadline
}

// NewAssistantUseCase creates a new AssistantUseCase.
func NewAssistantUseCase(ai AIClient, ledger LedgerRepository, cfg AssistantConfig) *AssistantUseCase {
	if cfg.Tracker == nil {
		cfg.Tracker = NewRequestTracker()
	}

	return &AssistantUseCase{
		ai:      ai,
		ledger:  ledger,
		views:   NewViewUseCase(ledger),
		tracker: cfg.Tracker,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
		timeout: cfg.Timeout,
	}
}

// ExtractReceipt reads a receipt image into a transaction form pre-fill.
func (uc *AssistantUseCase) ExtractReceipt(ctx context.Context, session string, img []byte) (*domain.TransactionDraft, error) {
	mimeType, err := DetectImage(img)
	if err != nil {
		return nil, err
	}

	receipt, err := track(ctx, uc, session, OpReceipt, func(ctx context.Context) (*domain.ReceiptDraft, error) {
		return uc.ai.ExtractReceipt(ctx, img, mimeType)
	})
	if err != nil {
		return nil, err
	}

	draft := receipt.ToDraft()
	return &draft, nil
}

// Chat answers a free-form message with the fast or web-search model.
func (uc *AssistantUseCase) Chat(ctx context.Context, session, message string, mode domain.ChatMode) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", domain.ErrEmptyPrompt
	}

	if mode == domain.ChatModeSearch {
		return track(ctx, uc, session, OpSearchChat, func(ctx context.Context) (string, error) {
			return uc.ai.SearchChat(ctx, message)
		})
	}

	return track(ctx, uc, session, OpChat, func(ctx context.Context) (string, error) {
		return uc.ai.Chat(ctx, message)
	})
}

// Analyze answers a question about the ledger using the latest
// transactions as context.
func (uc *AssistantUseCase) Analyze(ctx context.Context, session, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", domain.ErrEmptyPrompt
	}

	transactions, err := uc.ledger.List(ctx)
	if err != nil {
		return "", err
	}

	latest := transactions[max(0, len(transactions)-AnalysisContextSize):]
	ledgerContext, err := EncodeLedger(latest)
	if err != nil {
		return "", err
	}

	return track(ctx, uc, session, OpAnalysis, func(ctx context.Context) (string, error) {
		return uc.ai.Analyze(ctx, query, string(ledgerContext))
	})
}

// Speak converts text to MP3 audio.
func (uc *AssistantUseCase) Speak(ctx context.Context, session, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyPrompt
	}

	return track(ctx, uc, session, OpSpeech, func(ctx context.Context) ([]byte, error) {
		return uc.ai.Speak(ctx, text)
	})
}

// SummaryAudio reads the summary of a period aloud.
func (uc *AssistantUseCase) SummaryAudio(ctx context.Context, session string, period domain.Period) ([]byte, error) {
	result, err := uc.views.View(ctx, period)
	if err != nil {
		return nil, err
	}

	text := SummarySentence(result.View, result.Summary)

	return track(ctx, uc, session, OpSummaryAudio, func(ctx context.Context) ([]byte, error) {
		return uc.ai.Speak(ctx, text)
	})
}

// SummarySentence renders the spoken form of a summary.
func SummarySentence(view domain.View, s domain.Summary) string {
	intro := "In the overall balance"
	if view.Active {
		intro = fmt.Sprintf("For the selected period (%s)", view.Label)
	}

	return fmt.Sprintf("%s, the net balance is $%s. Income: $%s. Expenses: $%s.",
		intro,
		s.NetBalance.StringFixed(2),
		s.TotalIncome.StringFixed(2),
		s.TotalExpense.StringFixed(2),
	)
}

// GenerateImage creates an illustration from a prompt. The result is PNG.
func (uc *AssistantUseCase) GenerateImage(ctx context.Context, session, prompt string, size domain.ImageSize) ([]byte, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, domain.ErrEmptyPrompt
	}

	return track(ctx, uc, session, OpImage, func(ctx context.Context) ([]byte, error) {
		return uc.ai.GenerateImage(ctx, prompt, size)
	})
}

// EditImage applies a prompt to an uploaded image. The result is PNG.
func (uc *AssistantUseCase) EditImage(ctx context.Context, session string, img []byte, prompt string) ([]byte, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, domain.ErrEmptyPrompt
	}

	if _, err := DetectImage(img); err != nil {
		return nil, err
	}

	return track(ctx, uc, session, OpImageEdit, func(ctx context.Context) ([]byte, error) {
		return uc.ai.EditImage(ctx, img, prompt)
	})
}

// DetectImage checks that img is a JPEG or PNG and returns its MIME type.
func DetectImage(img []byte) (string, error) {
	if len(img) == 0 {
		return "", fmt.Errorf("%w: empty upload", domain.ErrInvalidImage)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
	}

	switch format {
	case "jpeg":
		return "image/jpeg", nil
	case "png":
		return "image/png", nil
	default:
		return "", fmt.Errorf("%w: unsupported format %s", domain.ErrInvalidImage, format)
	}
}

// track runs call under a fresh request generation. Provider errors are
// logged and replaced by ErrAIRequestFailed; a result that arrives after a
// newer generation started is dropped.
func track[T any](ctx context.Context, uc *AssistantUseCase, session, op string, call func(context.Context) (T, error)) (T, error) {
	var zero T

	ctx, ticket := uc.tracker.Begin(ctx, session, op)
	defer ticket.Release()

	if uc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := call(ctx)
	if uc.metrics != nil {
		uc.metrics.AIDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}

	if !ticket.Current() {
		uc.record(op, metrics.OutcomeSuperseded)
		uc.logger.Debug().Str("operation", op).Str("session", session).Msg("assistant result discarded")
		return zero, ErrSuperseded
	}

	if err != nil {
		uc.record(op, metrics.OutcomeError)
		uc.logger.Error().Err(err).Str("operation", op).Str("session", session).Msg("assistant request failed")
		return zero, ErrAIRequestFailed
	}

	uc.record(op, metrics.OutcomeSuccess)

	return result, nil
}

func (uc *AssistantUseCase) record(op, outcome string) {
	if uc.metrics != nil {
		uc.metrics.AIRequests.WithLabelValues(op, outcome).Inc()
	}
}
