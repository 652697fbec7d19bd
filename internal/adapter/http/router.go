package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/edufinance/internal/adapter/http/handler"
	"github.com/iho/edufinance/internal/adapter/http/middleware"
	"github.com/iho/edufinance/internal/domain"
	"github.com/iho/edufinance/internal/infrastructure/metrics"
	"github.com/iho/edufinance/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	TransactionHandler *handler.TransactionHandler
	LedgerHandler      *handler.LedgerHandler
	ReportHandler      *handler.ReportHandler
	AssistantHandler   *handler.AssistantHandler // nil disables /api/v1/ai
	HealthHandler      *handler.HealthHandler
	VoiceHandler       http.Handler // nil disables the voice relay
	MetricsHandler     http.Handler // nil disables /metrics

	IdempotencyStore usecase.IdempotencyStore // nil disables idempotency keys
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter // applied to /api/v1/ai
	Metrics          *metrics.Metrics
	Logger           zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Metrics, cfg.Logger)
			r.Use(idempotencyMiddleware.Wrap)
		}

		r.Get("/catalog", cfg.LedgerHandler.Catalog)
		r.Get("/dashboard", cfg.LedgerHandler.Dashboard)
		r.Get("/summary", cfg.LedgerHandler.Summary)
		r.Get("/ledger/reconcile", cfg.LedgerHandler.Reconcile)

		// Transactions
		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", cfg.TransactionHandler.List)
			r.Post("/", cfg.TransactionHandler.Create)
			r.Get("/{id}", cfg.TransactionHandler.Get)
			r.Put("/{id}", cfg.TransactionHandler.Update)
			r.Delete("/{id}", cfg.TransactionHandler.Delete)
		})

		// Reports
		r.Route("/reports", func(r chi.Router) {
			r.Get("/pdf", cfg.ReportHandler.Export(domain.ReportFormatPDF))
			r.Get("/xlsx", cfg.ReportHandler.Export(domain.ReportFormatXLSX))
		})

		// Assistant
		if cfg.AssistantHandler != nil {
			r.Route("/ai", func(r chi.Router) {
				if cfg.RateLimiter != nil {
					r.Use(cfg.RateLimiter.Limit)
				}

				r.Post("/receipt", cfg.AssistantHandler.Receipt)
				r.Post("/chat", cfg.AssistantHandler.Chat)
				r.Post("/analysis", cfg.AssistantHandler.Analysis)
				r.Post("/speech", cfg.AssistantHandler.Speech)
				r.Get("/summary/audio", cfg.AssistantHandler.SummaryAudio)
				r.Post("/images", cfg.AssistantHandler.Image)
				r.Post("/images/edit", cfg.AssistantHandler.ImageEdit)
				if cfg.VoiceHandler != nil {
					r.Method(http.MethodGet, "/voice", cfg.VoiceHandler)
				}
			})
		}
	})

	return r
}
