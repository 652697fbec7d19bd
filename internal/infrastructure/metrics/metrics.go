package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	LedgerMutations *prometheus.CounterVec
	LedgerSize      prometheus.Gauge
	PersistDuration prometheus.Histogram

	// Event metrics
	EventsPublished *prometheus.CounterVec

	// Report metrics
	ReportsExported *prometheus.CounterVec

	// Assistant metrics
	AIRequests *prometheus.CounterVec
	AIDuration *prometheus.HistogramVec

	// API metrics
	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
	HTTPInFlight   prometheus.Gauge
	VoiceSessions  prometheus.Gauge
	RateLimitHits  *prometheus.CounterVec
	IdempotentHits prometheus.Counter
}

// New creates all metrics and registers them with reg. A nil reg means the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Ledger metrics
		LedgerMutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edufinance_ledger_mutations_total",
				Help: "Ledger mutations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		LedgerSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "edufinance_ledger_transactions",
			Help: "Number of transactions currently in the ledger",
		}),
		PersistDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "edufinance_ledger_persist_duration_seconds",
			Help:    "Duration of full ledger writes to the blob store",
			Buckets: prometheus.DefBuckets,
		}),

		// Event metrics
		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edufinance_events_published_total",
				Help: "Ledger events handed to the broker by outcome",
			},
			[]string{"outcome"},
		),

		// Report metrics
		ReportsExported: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edufinance_reports_exported_total",
				Help: "Exported reports by format and outcome",
			},
			[]string{"format", "outcome"},
		),

		// Assistant metrics
		AIRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edufinance_ai_requests_total",
				Help: "Assistant requests by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		AIDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "edufinance_ai_request_duration_seconds",
				Help:    "Assistant request duration",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"operation"},
		),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edufinance_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "edufinance_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "edufinance_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),
		VoiceSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "edufinance_voice_sessions",
			Help: "Live voice sessions currently relayed",
		}),
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edufinance_rate_limit_hits_total",
				Help: "Requests rejected by the rate limiter",
			},
			[]string{"path"},
		),
		IdempotentHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "edufinance_idempotent_replays_total",
			Help: "Responses replayed from the idempotency store",
		}),
	}
}

// Outcome labels
const (
	OutcomeSuccess    = "success"
	OutcomeError      = "error"
	OutcomeSuperseded = "superseded"
	OutcomeDropped    = "dropped"
)
