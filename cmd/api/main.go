package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/hszk-dev/vidvault/internal/api/handler"
	"github.com/hszk-dev/vidvault/internal/api/middleware"
	"github.com/hszk-dev/vidvault/internal/config"
	"github.com/hszk-dev/vidvault/internal/domain/model"
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
	ctx := context.Background()

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
	logger.Info("connected to MinIO", slog.String("bucket", storageClient.Bucket()))

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

	health := handler.NewHealthHandler(map[string]handler.Pinger{
		"postgres": pgClient,
		"minio":    storageClient,
		"redis": handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}),
	})

	r := setupRouter(logger, handler.NewVideoHandler(videoSvc, cfg.Server.MaxUploadBytes), health)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down server", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func setupRouter(logger *slog.Logger, videos *handler.VideoHandler, health *handler.HealthHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics)
	r.Use(middleware.Recoverer(logger))

	r.Get("/health", health.Health)
	r.Handle("/metrics", promhttp.Handler())

	videos.Routes(r)

	return r
}
