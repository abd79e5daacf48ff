package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hszk-dev/vidvault/internal/domain/model"
)

// VideoCache defines the interface for caching video metadata.
// Implementations should handle serialization/deserialization transparently.
// File content is never cached; only the metadata record is.
type VideoCache interface {
	// Get retrieves a video from cache by ID.
	// Returns nil, nil if the video is not found in cache (cache miss).
	Get(ctx context.Context, videoID uuid.UUID) (*model.Video, error)

	// Set stores a video in cache with the specified TTL.
	Set(ctx context.Context, video *model.Video, ttl time.Duration) error

	// Delete removes videos from cache by ID.
	// IDs that are not cached are ignored.
	Delete(ctx context.Context, videoIDs ...uuid.UUID) error
}
