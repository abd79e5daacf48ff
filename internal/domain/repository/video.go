package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/hszk-dev/vidvault/internal/domain/model"
)

// VideoRepository keeps a video metadata record and its blob together as one logical entity.
// Metadata and blob live in separate stores without a shared transaction, so consistency
// comes from operation ordering: a visible record always references an uploaded blob.
type VideoRepository interface {
	// CreateVideo uploads content to the blob store, links the blob to video and inserts
	// the metadata record. Returns the generated video ID.
	// Returns ErrNilVideo or ErrEmptyVideoFile before any store write.
	CreateVideo(ctx context.Context, video *model.Video, fileName string, content []byte) (uuid.UUID, error)

	// GetVideo retrieves video metadata without reading the blob.
	// Returns ErrVideoNotFound if the video does not exist.
	GetVideo(ctx context.Context, id uuid.UUID) (*model.Video, error)

	// GetVideoFile returns the blob content of a video.
	// Returns ErrVideoNotFound if the video does not exist, ErrDanglingBlobRef if its blob is gone.
	GetVideoFile(ctx context.Context, id uuid.UUID) ([]byte, error)

	// ReadVideoFile returns the blob content of an already loaded video without
	// reading its metadata again. Returns ErrDanglingBlobRef if the blob is gone.
	ReadVideoFile(ctx context.Context, video *model.Video) ([]byte, error)

	// GetAllVideos returns metadata of every video.
	GetAllVideos(ctx context.Context) ([]*model.Video, error)

	// GetVideosByCreator returns metadata of every video authored by creatorID.
	GetVideosByCreator(ctx context.Context, creatorID uuid.UUID) ([]*model.Video, error)

	// UpdateVideo replaces the editable fields of the video matching video.ID.
	// BlobRef is never touched. Existence is the caller's responsibility.
	UpdateVideo(ctx context.Context, video *model.Video) error

	// DeleteVideo deletes the blob of a video and then its metadata record.
	// Returns ErrVideoNotFound if the video does not exist.
	DeleteVideo(ctx context.Context, id uuid.UUID) error

	// UpdateManyByCreator sets CreatorFullName on every video of creatorID.
	// Returns the number of videos changed.
	UpdateManyByCreator(ctx context.Context, creatorID uuid.UUID, update *model.CreatorUpdate) (int64, error)

	// DeleteManyByCreator runs the single-video delete path for every video of creatorID.
	// Returns the IDs that were deleted.
	DeleteManyByCreator(ctx context.Context, creatorID uuid.UUID) ([]uuid.UUID, error)
}
