package eventpublisher

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/iho/edufinance/internal/domain"
	"github.com/iho/edufinance/internal/infrastructure/metrics"
)

type stubPublisher struct {
	mu         sync.Mutex
	published  []domain.LedgerEvent
	errorsByID map[string]error
}

func (s *stubPublisher) Publish(_ context.Context, event domain.LedgerEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.errorsByID[event.TransactionID]; err != nil {
		return err
	}
	s.published = append(s.published, event)
	return nil
}

func (s *stubPublisher) ids() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.published))
	for _, e := range s.published {
		out = append(out, e.TransactionID)
	}
	return out
}

func event(id string) domain.LedgerEvent {
	return domain.LedgerEvent{Type: domain.EventTypeTransactionCreated, TransactionID: id}
}

func newTestPublisher(pub Publisher, buffer int) (*EventPublisher, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry())
	ep := NewEventPublisher(Config{
		Publisher:  pub,
		Metrics:    m,
		Logger:     zerolog.Nop(),
		BufferSize: buffer,
	})
	return ep, m
}

func TestPublishDropsWhenQueueFull(t *testing.T) {
	pub := &stubPublisher{}
	ep, m := newTestPublisher(pub, 1)

	ep.Publish(context.Background(), event("a"))
	ep.Publish(context.Background(), event("b"))

	if got := testutil.ToFloat64(m.EventsPublished.WithLabelValues(metrics.OutcomeDropped)); got != 1 {
		t.Fatalf("expected one dropped event, got %v", got)
	}
	if len(ep.queue) != 1 {
		t.Fatalf("expected one queued event, got %d", len(ep.queue))
	}
}

func TestStartFlushesQueueOnShutdown(t *testing.T) {
	pub := &stubPublisher{}
	ep, m := newTestPublisher(pub, 8)

	ep.Publish(context.Background(), event("a"))
	ep.Publish(context.Background(), event("b"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := ep.Start(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}

	if got := pub.ids(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("expected a and b to be published in order, got %v", got)
	}
	if got := testutil.ToFloat64(m.EventsPublished.WithLabelValues(metrics.OutcomeSuccess)); got != 2 {
		t.Fatalf("expected two successes, got %v", got)
	}
}

func TestPublishErrorIsCountedAndSkipped(t *testing.T) {
	pub := &stubPublisher{errorsByID: map[string]error{"a": errors.New("broker down")}}
	ep, m := newTestPublisher(pub, 8)

	ep.publishEvent(context.Background(), event("a"))
	ep.publishEvent(context.Background(), event("b"))

	if got := pub.ids(); len(got) != 1 || got[0] != "b" {
		t.Fatalf("expected only b to be published, got %v", got)
	}
	if got := testutil.ToFloat64(m.EventsPublished.WithLabelValues(metrics.OutcomeError)); got != 1 {
		t.Fatalf("expected one error, got %v", got)
	}
}

func TestStartPublishesWhileRunning(t *testing.T) {
	pub := &stubPublisher{}
	ep, _ := newTestPublisher(pub, 8)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ep.Start(ctx)
	}()

	ep.Publish(context.Background(), event("live"))

	deadline := time.After(time.Second)
	for len(pub.ids()) == 0 {
		select {
		case <-deadline:
			t.Fatal("event was not published")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("publisher did not stop after cancel")
	}
}

func TestLogPublisherWritesEvent(t *testing.T) {
	var buf bytes.Buffer
	pub := NewLogPublisher(zerolog.New(&buf))

	if err := pub.Publish(context.Background(), event("tx-1")); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `"transaction_id":"tx-1"`) || !strings.Contains(out, "transaction.created") {
		t.Fatalf("unexpected log output: %s", out)
	}
}
