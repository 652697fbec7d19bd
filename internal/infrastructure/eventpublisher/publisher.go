package eventpublisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/edufinance/internal/domain"
	"github.com/iho/edufinance/internal/infrastructure/metrics"
)

// EventPublisher forwards ledger events to a Publisher from a background
// worker. It implements usecase.EventSink.
type EventPublisher struct {
	publisher Publisher
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	queue     chan domain.LedgerEvent
	timeout   time.Duration
}

// Publisher defines the interface for publishing events to external systems.
type Publisher interface {
	Publish(ctx context.Context, event domain.LedgerEvent) error
}

// Config for EventPublisher.
type Config struct {
	Publisher  Publisher
	Metrics    *metrics.Metrics // optional
	Logger     zerolog.Logger
	BufferSize int           // Events queued before new ones are dropped
	Timeout    time.Duration // Per event publish deadline
}

// NewEventPublisher creates a new EventPublisher.
func NewEventPublisher(cfg Config) *EventPublisher {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 256
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Publisher == nil {
		cfg.Publisher = NewLogPublisher(cfg.Logger)
	}

	return &EventPublisher{
		publisher: cfg.Publisher,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		queue:     make(chan domain.LedgerEvent, cfg.BufferSize),
		timeout:   cfg.Timeout,
	}
}

// Publish queues an event. It never blocks: when the buffer is full the
// event is dropped and logged.
func (ep *EventPublisher) Publish(_ context.Context, event domain.LedgerEvent) {
	select {
	case ep.queue <- event:
	default:
		ep.record(metrics.OutcomeDropped)
		ep.logger.Warn().
			Str("event_type", event.Type).
			Str("transaction_id", event.TransactionID).
			Msg("event queue full, dropping event")
	}
}

// Start runs the worker until ctx is cancelled. Events still queued at
// shutdown are flushed before it returns.
func (ep *EventPublisher) Start(ctx context.Context) error {
	ep.logger.Info().Int("buffer", cap(ep.queue)).Msg("event publisher started")

	for {
		select {
		case <-ctx.Done():
			ep.drain()
			ep.logger.Info().Msg("event publisher shutting down")
			return ctx.Err()
		case event := <-ep.queue:
			ep.publishEvent(context.WithoutCancel(ctx), event)
		}
	}
}

func (ep *EventPublisher) drain() {
	for {
		select {
		case event := <-ep.queue:
			ep.publishEvent(context.Background(), event)
		default:
			return
		}
	}
}

// publishEvent publishes a single event. Failures are logged and counted.
func (ep *EventPublisher) publishEvent(ctx context.Context, event domain.LedgerEvent) {
	ctx, cancel := context.WithTimeout(ctx, ep.timeout)
	defer cancel()

	if err := ep.publisher.Publish(ctx, event); err != nil {
		ep.record(metrics.OutcomeError)
		ep.logger.Error().Err(err).
			Str("event_type", event.Type).
			Str("transaction_id", event.TransactionID).
			Msg("failed to publish event")
		return
	}

	ep.record(metrics.OutcomeSuccess)
	ep.logger.Debug().
		Str("event_type", event.Type).
		Str("transaction_id", event.TransactionID).
		Msg("event published")
}

func (ep *EventPublisher) record(outcome string) {
	if ep.metrics != nil {
		ep.metrics.EventsPublished.WithLabelValues(outcome).Inc()
	}
}

// LogPublisher is a simple publisher that logs events.
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a new LogPublisher.
func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event.
func (p *LogPublisher) Publish(_ context.Context, event domain.LedgerEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	p.logger.Info().
		Str("event_type", event.Type).
		Str("transaction_id", event.TransactionID).
		RawJSON("payload", payload).
		Msg("ledger event")

	return nil
}
