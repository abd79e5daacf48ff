package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hszk-dev/vidvault/internal/domain/model"
	"github.com/hszk-dev/vidvault/internal/infrastructure/cache"
	"github.com/hszk-dev/vidvault/internal/infrastructure/metrics"
	"golang.org/x/sync/singleflight"
)

// CachedVideoServiceConfig holds configuration for CachedVideoService.
type CachedVideoServiceConfig struct {
	// CacheTTL is the TTL for cached video metadata.
	CacheTTL time.Duration
}

// DefaultCachedVideoServiceConfig returns the default configuration.
func DefaultCachedVideoServiceConfig() CachedVideoServiceConfig {
	return CachedVideoServiceConfig{
		CacheTTL: 5 * time.Minute,
	}
}

// cachedVideoService wraps VideoService with metadata caching.
// It implements the decorator pattern to add caching without modifying the original service.
// File content is never cached.
type cachedVideoService struct {
	delegate VideoService
	cache    cache.VideoCache
	sfGroup  singleflight.Group

	cacheTTL time.Duration

	// fillMu orders cache fills against invalidations. generation is bumped on
	// every invalidation; a fill started under an older generation is discarded.
	fillMu     sync.Mutex
	generation uint64
}

// NewCachedVideoService creates a new CachedVideoService wrapping the provided VideoService.
func NewCachedVideoService(
	delegate VideoService,
	videoCache cache.VideoCache,
	cfg CachedVideoServiceConfig,
) VideoService {
	return &cachedVideoService{
		delegate: delegate,
		cache:    videoCache,
		cacheTTL: cfg.CacheTTL,
	}
}

// CreateVideo delegates to the underlying service.
// Nothing is cached on create; the first read populates the cache.
func (s *cachedVideoService) CreateVideo(ctx context.Context, input CreateVideoInput) (uuid.UUID, error) {
	return s.delegate.CreateVideo(ctx, input)
}

// GetVideo retrieves video metadata with caching.
// Uses singleflight to prevent cache stampede on concurrent requests for the same video.
func (s *cachedVideoService) GetVideo(ctx context.Context, videoID uuid.UUID) (*model.Video, error) {
	key := videoID.String()
	result, err, shared := s.sfGroup.Do(key, func() (any, error) {
		return s.getVideoWithCache(ctx, videoID)
	})

	if shared {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightShared).Inc()
	} else {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightInitiated).Inc()
	}

	if err != nil {
		return nil, err
	}

	// Shared results must not be mutated by callers.
	video := *result.(*model.Video)
	return &video, nil
}

// getVideoWithCache implements the cache-aside pattern.
func (s *cachedVideoService) getVideoWithCache(ctx context.Context, videoID uuid.UUID) (*model.Video, error) {
	video, err := s.cache.Get(ctx, videoID)
	if err != nil {
		slog.Warn("cache get failed, falling back to document store",
			"video_id", videoID,
			"error", err,
		)
	}

	if video != nil {
		return video, nil
	}

	gen := s.currentGeneration()

	video, err = s.delegate.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	s.fill(ctx, video, gen)
	return video, nil
}

func (s *cachedVideoService) currentGeneration() uint64 {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	return s.generation
}

// fill caches video unless an invalidation ran after gen was observed,
// in which case video may predate the write that caused it.
func (s *cachedVideoService) fill(ctx context.Context, video *model.Video, gen uint64) {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()

	if s.generation != gen {
		slog.Debug("skipping cache fill after invalidation", "video_id", video.ID)
		return
	}

	if err := s.cache.Set(ctx, video, s.cacheTTL); err != nil {
		slog.Warn("failed to cache video",
			"video_id", video.ID,
			"error", err,
		)
	}
}

// GetVideoWithFile resolves metadata through the cache and reads only the file from the delegate.
func (s *cachedVideoService) GetVideoWithFile(ctx context.Context, videoID uuid.UUID) (*VideoWithFile, error) {
	video, err := s.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	content, err := s.delegate.ReadVideoFile(ctx, video)
	if err != nil {
		return nil, err
	}

	return &VideoWithFile{Video: video, Content: content}, nil
}

// ReadVideoFile delegates to the underlying service; file content is never cached.
func (s *cachedVideoService) ReadVideoFile(ctx context.Context, video *model.Video) ([]byte, error) {
	return s.delegate.ReadVideoFile(ctx, video)
}

// ListVideos delegates to the underlying service.
func (s *cachedVideoService) ListVideos(ctx context.Context) ([]*model.Video, error) {
	return s.delegate.ListVideos(ctx)
}

// ListCreatorVideos delegates to the underlying service.
func (s *cachedVideoService) ListCreatorVideos(ctx context.Context, creatorID uuid.UUID) ([]*model.Video, error) {
	return s.delegate.ListCreatorVideos(ctx, creatorID)
}

// UpdateVideo delegates and then evicts the stale entry.
func (s *cachedVideoService) UpdateVideo(ctx context.Context, input UpdateVideoInput) error {
	if err := s.delegate.UpdateVideo(ctx, input); err != nil {
		return err
	}
	s.invalidate(ctx, input.ID)
	return nil
}

// DeleteVideo delegates and then evicts the entry.
func (s *cachedVideoService) DeleteVideo(ctx context.Context, videoID uuid.UUID) error {
	if err := s.delegate.DeleteVideo(ctx, videoID); err != nil {
		return err
	}
	s.invalidate(ctx, videoID)
	return nil
}

// PurgeVideo delegates and then evicts the entry.
func (s *cachedVideoService) PurgeVideo(ctx context.Context, videoID uuid.UUID) error {
	if err := s.delegate.PurgeVideo(ctx, videoID); err != nil {
		return err
	}
	s.invalidate(ctx, videoID)
	return nil
}

// UpdateCreatorName delegates and then evicts every video of the creator.
func (s *cachedVideoService) UpdateCreatorName(ctx context.Context, creatorID uuid.UUID, fullName string) (int64, error) {
	n, err := s.delegate.UpdateCreatorName(ctx, creatorID, fullName)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}

	videos, err := s.delegate.ListCreatorVideos(ctx, creatorID)
	if err != nil {
		slog.Warn("failed to list creator videos for cache invalidation",
			"creator_id", creatorID,
			"error", err,
		)
		return n, nil
	}

	ids := make([]uuid.UUID, len(videos))
	for i, v := range videos {
		ids[i] = v.ID
	}
	s.invalidate(ctx, ids...)

	return n, nil
}

// DeleteCreatorVideos delegates and evicts whatever was deleted, even on partial failure.
func (s *cachedVideoService) DeleteCreatorVideos(ctx context.Context, creatorID uuid.UUID) ([]uuid.UUID, error) {
	deleted, err := s.delegate.DeleteCreatorVideos(ctx, creatorID)
	s.invalidate(ctx, deleted...)
	return deleted, err
}

// invalidate removes videos from the cache.
// Failures are logged only; entries still expire after CacheTTL.
func (s *cachedVideoService) invalidate(ctx context.Context, videoIDs ...uuid.UUID) {
	if len(videoIDs) == 0 {
		return
	}

	s.fillMu.Lock()
	s.generation++
	s.fillMu.Unlock()

	if err := s.cache.Delete(ctx, videoIDs...); err != nil {
		slog.Warn("failed to invalidate video cache",
			"video_ids", videoIDs,
			"error", err,
		)
	}
}
