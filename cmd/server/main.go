package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redislib "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/iho/edufinance/internal/adapter/ai"
	"github.com/iho/edufinance/internal/adapter/ai/realtime"
	httpAdapter "github.com/iho/edufinance/internal/adapter/http"
	"github.com/iho/edufinance/internal/adapter/http/handler"
	"github.com/iho/edufinance/internal/adapter/http/middleware"
	"github.com/iho/edufinance/internal/adapter/idgen"
	"github.com/iho/edufinance/internal/adapter/report"
	fileRepo "github.com/iho/edufinance/internal/adapter/repository/file"
	memoryRepo "github.com/iho/edufinance/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/edufinance/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/edufinance/internal/adapter/repository/redis"
	sqliteRepo "github.com/iho/edufinance/internal/adapter/repository/sqlite"
	"github.com/iho/edufinance/internal/domain"
	"github.com/iho/edufinance/internal/infrastructure/amqp"
	"github.com/iho/edufinance/internal/infrastructure/config"
	"github.com/iho/edufinance/internal/infrastructure/eventpublisher"
	"github.com/iho/edufinance/internal/infrastructure/logger"
	"github.com/iho/edufinance/internal/infrastructure/metrics"
	"github.com/iho/edufinance/internal/infrastructure/postgres"
	"github.com/iho/edufinance/internal/infrastructure/redis"
	"github.com/iho/edufinance/internal/infrastructure/sqlite"
	"github.com/iho/edufinance/internal/usecase"
)

const limiterCleanupInterval = 10 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "edufinance",
	})
	log.Logger = appLogger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger); err != nil {
		appLogger.Fatal().Err(err).Msg("server failed")
	}

	appLogger.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info().Str("backend", cfg.StorageBackend).Msg("storage ready")

	// Events go to RabbitMQ when configured, to the log otherwise
	var publisher eventpublisher.Publisher
	if cfg.AMQPURL != "" {
		amqpPublisher, err := amqp.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return err
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
		logger.Info().Str("exchange", cfg.AMQPExchange).Msg("connected to rabbitmq")
	}
	events := eventpublisher.NewEventPublisher(eventpublisher.Config{
		Publisher: publisher,
		Metrics:   m,
		Logger:    logger.With().Str("component", "events").Logger(),
	})

	// Ledger
	ledger := usecase.NewLedgerStore(usecase.LedgerStoreConfig{
		Blobs:   store.blobs,
		Events:  events,
		Metrics: m,
		Key:     cfg.LedgerKey,
	})
	if err := ledger.Load(ctx); err != nil {
		return err
	}

	// Use cases
	views := usecase.NewViewUseCase(ledger)
	transactionUC := usecase.NewTransactionUseCase(ledger, idgen.NewULIDGenerator())
	reconcileUC := usecase.NewReconciliationUseCase(ledger)
	reportUC := usecase.NewReportUseCase(views, usecase.ReportConfig{
		Renderers: map[domain.ReportFormat]usecase.ReportRenderer{
			domain.ReportFormatPDF:  report.NewPDFRenderer(),
			domain.ReportFormatXLSX: report.NewXLSXRenderer(),
		},
		Metrics:     m,
		Logger:      logger.With().Str("component", "reports").Logger(),
		Title:       cfg.ReportTitle,
		Institution: cfg.InstitutionName,
	})

	rateLimiter := middleware.NewRateLimiter(cfg.AIRateLimit, cfg.AIRateBurst, m)

	routerCfg := httpAdapter.RouterConfig{
		TransactionHandler: handler.NewTransactionHandler(transactionUC, views),
		LedgerHandler:      handler.NewLedgerHandler(views, reconcileUC),
		ReportHandler:      handler.NewReportHandler(reportUC),
		HealthHandler:      handler.NewHealthHandler(store.blobs, cfg.StorageBackend),
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		IdempotencyTTL:     cfg.IdempotencyTTL,
		RateLimiter:        rateLimiter,
		Metrics:            m,
		Logger:             logger,
	}

	if store.redis != nil {
		routerCfg.IdempotencyStore = redisRepo.NewIdempotencyStore(store.redis)
	}

	if cfg.OpenAIAPIKey != "" {
		aiLogger := logger.With().Str("component", "assistant").Logger()
		client := ai.NewClient(ai.Config{
			APIKey:        cfg.OpenAIAPIKey,
			BaseURL:       cfg.OpenAIBaseURL,
			ReceiptModel:  cfg.ReceiptModel,
			ChatModel:     cfg.ChatModel,
			SearchModel:   cfg.SearchModel,
			AnalysisModel: cfg.AnalysisModel,
			SpeechModel:   cfg.SpeechModel,
			SpeechVoice:   cfg.SpeechVoice,
			ImageModel:    cfg.ImageModel,
			EditModel:     cfg.EditModel,
		})
		assistantUC := usecase.NewAssistantUseCase(client, ledger, usecase.AssistantConfig{
			Metrics: m,
			Logger:  aiLogger,
			Timeout: cfg.AITimeout,
		})
		routerCfg.AssistantHandler = handler.NewAssistantHandler(assistantUC)
		routerCfg.VoiceHandler = realtime.NewRelay(realtime.Config{
			APIKey:  cfg.OpenAIAPIKey,
			URL:     cfg.RealtimeURL,
			Model:   cfg.RealtimeModel,
			Voice:   cfg.SpeechVoice,
			Metrics: m,
			Logger:  aiLogger,
		})
	} else {
		logger.Warn().Msg("OPENAI_API_KEY not set, assistant endpoints disabled")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      httpAdapter.NewRouter(routerCfg),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// The event worker outlives the server so mutations finishing during
	// shutdown are still published.
	eventsCtx, stopEvents := context.WithCancel(context.WithoutCancel(ctx))
	defer stopEvents()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return ignoreCanceled(events.Start(eventsCtx))
	})

	g.Go(func() error {
		return ignoreCanceled(rateLimiter.Run(gctx, limiterCleanupInterval))
	})

	g.Go(func() error {
		logger.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTPShutdownTimeout)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		stopEvents()
		return err
	})

	return g.Wait()
}

// storage is the opened blob backend plus the redis client when REDIS_URL
// is set.
type storage struct {
	blobs   usecase.BlobStore
	redis   *redislib.Client
	closers []func()
}

func (s *storage) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*storage, error) {
	s := &storage{}

	if cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		s.redis = client
		s.closers = append(s.closers, func() { _ = client.Close() })
		logger.Info().Msg("connected to redis")
	}

	switch cfg.StorageBackend {
	case config.BackendMemory:
		s.blobs = memoryRepo.NewBlobStore()

	case config.BackendFile:
		blobs, err := fileRepo.NewBlobStore(cfg.DataDir)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.blobs = blobs

	case config.BackendRedis:
		s.blobs = redisRepo.NewBlobStore(s.redis)

	case config.BackendSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.blobs = sqliteRepo.NewBlobStore(db)
		s.closers = append(s.closers, func() { _ = db.Close() })

	case config.BackendPostgres:
		if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
			s.Close()
			return nil, err
		}

		connectCtx, cancel := context.WithTimeout(ctx, cfg.DatabaseTimeout)
		defer cancel()

		pool, err := postgres.NewPool(connectCtx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, pool.Close)

		retrier := postgresRepo.NewRetrier(postgresRepo.DefaultRetryPolicy()).WithLogger(logger.With().Str("component", "postgres").Logger())
		s.blobs = postgresRepo.NewBlobStore(pool, retrier)

	default:
		s.Close()
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	return s, nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
