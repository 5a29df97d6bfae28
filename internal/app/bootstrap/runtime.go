package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/adapters/cache"
	eventadapter "github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/adapters/events"
	httpadapter "github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/adapters/http"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/adapters/postgres"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/application"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/ports"
	"gorm.io/gorm"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	consumer   *eventadapter.ConsumerWorker
	summaries  *eventadapter.SummaryWorker
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With("service", cfg.ServiceID)
	slog.SetDefault(logger)

	db, err := connectPostgres(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := postgres.RunMigrations(ctx, db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	redisClient, err := connectRedis(ctx, cfg, logger)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	reportCache := cache.NewRedisReportCache(redisClient)

	repos := postgres.NewRepositories(db)
	service := application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName:          cfg.ServiceID,
			SLASlowThreshold:     cfg.SLASlowThreshold,
			LongRunningThreshold: cfg.LongRunningThreshold,
			AbandonmentIdleAfter: cfg.AbandonmentIdleAfter,
			TrackedAgentIDs:      cfg.TrackedAgentIDs,
			ReportCacheTTL:       cfg.ReportCacheTTL,
			PreviewLength:        cfg.PreviewLength,
		},
		Cases:        repos.Cases,
		Episodes:     repos.Episodes,
		Messages:     repos.Messages,
		IssueEvents:  repos.IssueEvents,
		StatusEvents: repos.StatusEvents,
		Agents:       repos.Agents,
		Summaries:    repos.Summaries,
		Cache:        reportCache,
		Logger:       logger,
	})

	handler := httpadapter.NewHandler(service)
	router := httpadapter.NewRouter(handler, logger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	consumerAdapter := ports.Consumer(eventadapter.NewNoopConsumer())
	var closers []io.Closer
	if len(cfg.KafkaBrokers) > 0 {
		kafkaConsumer, conErr := eventadapter.NewKafkaConsumer(
			cfg.KafkaBrokers,
			cfg.KafkaConsumerGroup,
			[]string{cfg.KafkaTopicMessageReceived, cfg.KafkaTopicCaseResolved, cfg.KafkaTopicCaseReopened},
		)
		if conErr != nil {
			logger.WarnContext(ctx, "kafka consumer disabled, using noop consumer", "error", conErr)
		} else {
			consumerAdapter = kafkaConsumer
			closers = append(closers, kafkaConsumer)
		}
	}
	consumer := eventadapter.NewConsumerWorker(logger, consumerAdapter, service, eventadapter.Topics{
		MessageReceived: cfg.KafkaTopicMessageReceived,
		CaseResolved:    cfg.KafkaTopicCaseResolved,
		CaseReopened:    cfg.KafkaTopicCaseReopened,
	}, cfg.ConsumerPollInterval)
	summaries := eventadapter.NewSummaryWorker(logger, service, cfg.SummaryInterval)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		consumer:   consumer,
		summaries:  summaries,
		cleanupFn: func(ctx context.Context) {
			for _, closer := range closers {
				_ = closer.Close()
			}
			_ = redisClient.Close()
			_ = sqlDB.Close()
		},
	}, nil
}

func connectPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*gorm.DB, error) {
	var db *gorm.DB
	operation := func() error {
		var err error
		db, err = postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
		if err != nil {
			logger.WarnContext(ctx, "postgres not ready, retrying", "error", err)
		}
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return db, nil
}

func connectRedis(ctx context.Context, cfg Config, logger *slog.Logger) (*redis.Client, error) {
	var client *redis.Client
	operation := func() error {
		var err error
		client, err = cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logger.WarnContext(ctx, "redis not ready, retrying", "error", err)
		}
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}

func Build(ctx context.Context, configPath string) (*Runtime, error) {
	return NewRuntime(ctx, configPath)
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 1)

	go func() {
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		r.logger.ErrorContext(ctx, "runtime failure", "error", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.cleanupFn(shutdownCtx)
	return nil
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 2)

	go func() {
		if err := r.consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.summaries.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		r.cleanupFn(context.Background())
		return nil
	case err := <-errCh:
		r.cleanupFn(context.Background())
		return err
	}
}
