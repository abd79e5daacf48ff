package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hszk-dev/vidvault/internal/config"
	"github.com/hszk-dev/vidvault/internal/domain/model"
	"github.com/hszk-dev/vidvault/internal/domain/repository"
	"github.com/hszk-dev/vidvault/internal/infrastructure/cache"
	"github.com/hszk-dev/vidvault/internal/infrastructure/postgres"
	"github.com/hszk-dev/vidvault/internal/infrastructure/queue"
	"github.com/hszk-dev/vidvault/internal/infrastructure/storage"
	"github.com/hszk-dev/vidvault/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Initialize infrastructure clients
	pgClient, err := postgres.NewClient(ctx, postgres.DefaultClientConfig(
		cfg.Database.DSN(), cfg.Database.MaxConns, cfg.Database.MinConns,
	))
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer pgClient.Close()

	if err := pgClient.EnsureSchema(ctx); err != nil {
		return err
	}
	logger.Info("connected to PostgreSQL")

	storageClient, err := storage.NewClient(ctx, storage.ClientConfig{
		Endpoint:  cfg.MinIO.Endpoint,
		AccessKey: cfg.MinIO.AccessKey,
		SecretKey: cfg.MinIO.SecretKey,
		Bucket:    cfg.MinIO.Bucket,
		UseSSL:    cfg.MinIO.UseSSL,
		PartSize:  cfg.MinIO.PartSize,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to MinIO: %w", err)
	}
	logger.Info("connected to MinIO")

	queueClient, err := queue.NewClient(ctx, queue.ClientConfig{
		URL:             cfg.RabbitMQ.URL(),
		VideoExchange:   cfg.RabbitMQ.VideoExchange,
		CreatorExchange: cfg.RabbitMQ.CreatorExchange,
		CreatorQueue:    cfg.RabbitMQ.CreatorQueue,
		Prefetch:        cfg.RabbitMQ.Prefetch,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer queueClient.Close()
	logger.Info("connected to RabbitMQ")

	// Initialize Redis client for cache invalidation
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("connected to Redis")

	// Initialize repository and services
	videoDocs := postgres.NewDocumentRepository(pgClient.Pool(), cfg.Database.Collection, func() *model.Video {
		return &model.Video{}
	})
	logger.Info("using document collection", slog.String("collection", videoDocs.Collection()))
	videoRepo := usecase.NewVideoRepository(videoDocs, storageClient)
	videoSvc := usecase.NewCachedVideoService(
		usecase.NewVideoService(videoRepo, queueClient),
		cache.NewRedisVideoCache(redisClient),
		usecase.CachedVideoServiceConfig{CacheTTL: cfg.Redis.CacheTTL},
	)
	creatorSvc := usecase.NewCreatorEventService(videoSvc, usecase.CreatorEventServiceConfig{
		MaxRetries: cfg.Worker.MaxRetries,
	})

	// Handlers run on their own context so shutdown lets in-flight bulk operations finish.
	handlerCtx, handlerCancel := context.WithCancel(context.Background())
	defer handlerCancel()

	// Setup signal handling for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("starting worker, consuming creator events",
		slog.String("queue", cfg.RabbitMQ.CreatorQueue),
	)
	done, errCh := startConsumer(ctx, queueClient, func(event repository.CreatorEvent) error {
		logger.Info("processing creator event",
			slog.String("event_type", event.Type),
			slog.String("creator_id", event.CreatorID.String()),
			slog.Int("retry_count", event.RetryCount),
		)

		if err := creatorSvc.HandleEvent(handlerCtx, event); err != nil {
			logger.Error("creator event processing failed",
				slog.String("event_type", event.Type),
				slog.String("creator_id", event.CreatorID.String()),
				slog.Int("retry_count", event.RetryCount),
				slog.String("error", err.Error()),
			)
			return err
		}
		return nil
	})

	// Wait for shutdown signal or error
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down worker", slog.String("signal", sig.String()))
	}

	// Stop consuming new messages
	cancel()

	if awaitDrain(done, cfg.Worker.ShutdownTimeout) {
		logger.Info("all in-flight events completed")
	} else {
		handlerCancel()
		logger.Warn("shutdown timeout exceeded, some events may not have completed")
	}

	logger.Info("worker stopped")
	return nil
}

// startConsumer runs ConsumeCreatorEvents in the background.
// Deliveries are handled inline by the consume loop, so done closes only after
// the last handler call has returned. errCh reports a consumer failure that
// happened while ctx was still live.
func startConsumer(
	ctx context.Context,
	consumer repository.CreatorEventConsumer,
	handle func(event repository.CreatorEvent) error,
) (<-chan struct{}, <-chan error) {
	done := make(chan struct{})
	errCh := make(chan error, 1)

	go func() {
		defer close(done)
		err := consumer.ConsumeCreatorEvents(ctx, handle)
		if err != nil && ctx.Err() == nil {
			errCh <- fmt.Errorf("consumer error: %w", err)
		}
	}()

	return done, errCh
}

// awaitDrain reports whether done closed before timeout.
func awaitDrain(done <-chan struct{}, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}
