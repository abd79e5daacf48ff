package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hszk-dev/vidvault/internal/domain/model"
	"github.com/hszk-dev/vidvault/internal/domain/repository"
)

// videoRepository pairs a video metadata document with its blob.
//
// The two stores share no transaction, so every multi-step operation runs its
// steps strictly in order:
//
//	create: upload blob -> link BlobRef -> insert metadata
//	delete: look up metadata -> delete blob -> delete metadata
//
// A failure or cancellation between steps can leave an orphaned blob, never a
// metadata record pointing at a blob that was never written.
type videoRepository struct {
	docs  repository.DocumentRepository[*model.Video]
	blobs repository.BlobStore
	now   func() time.Time
}

// NewVideoRepository creates a VideoRepository over a video document collection and a blob store.
func NewVideoRepository(docs repository.DocumentRepository[*model.Video], blobs repository.BlobStore) repository.VideoRepository {
	return &videoRepository{
		docs:  docs,
		blobs: blobs,
		now:   time.Now,
	}
}

// CreateVideo uploads content, links it to video and inserts the metadata record.
func (r *videoRepository) CreateVideo(ctx context.Context, video *model.Video, fileName string, content []byte) (uuid.UUID, error) {
	if video == nil {
		return uuid.Nil, repository.ErrNilVideo
	}
	if len(content) == 0 {
		return uuid.Nil, repository.ErrEmptyVideoFile
	}

	blobRef, err := r.uploadBlob(ctx, fileName, content)
	if err != nil {
		return uuid.Nil, err
	}

	r.linkBlob(video, blobRef)

	id, err := r.insertMetadata(ctx, video)
	if err != nil {
		slog.Warn("video blob orphaned by failed metadata insert",
			"blob_ref", blobRef,
			"file_name", fileName,
			"error", err,
		)
		return uuid.Nil, err
	}

	return id, nil
}

func (r *videoRepository) uploadBlob(ctx context.Context, fileName string, content []byte) (uuid.UUID, error) {
	blobRef, err := r.blobs.Put(ctx, fileName, content)
	if err != nil {
		return uuid.Nil, fmt.Errorf("upload video file: %w", err)
	}
	return blobRef, nil
}

func (r *videoRepository) linkBlob(video *model.Video, blobRef uuid.UUID) {
	now := r.now().UTC()
	video.BlobRef = blobRef
	video.CreatedAt = now
	video.UpdatedAt = now
}

func (r *videoRepository) insertMetadata(ctx context.Context, video *model.Video) (uuid.UUID, error) {
	id, err := r.docs.Insert(ctx, video)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert video metadata: %w", err)
	}
	return id, nil
}

// GetVideo returns the metadata record without touching the blob store.
func (r *videoRepository) GetVideo(ctx context.Context, id uuid.UUID) (*model.Video, error) {
	video, found, err := r.docs.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find video: %w", err)
	}
	if !found {
		return nil, repository.ErrVideoNotFound
	}
	return video, nil
}

// GetVideoFile resolves the video's BlobRef, then reads the blob.
func (r *videoRepository) GetVideoFile(ctx context.Context, id uuid.UUID) ([]byte, error) {
	video, err := r.GetVideo(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.ReadVideoFile(ctx, video)
}

// ReadVideoFile reads the blob of an already resolved video.
func (r *videoRepository) ReadVideoFile(ctx context.Context, video *model.Video) ([]byte, error) {
	if video == nil {
		return nil, repository.ErrNilVideo
	}
	if !video.HasBlob() {
		return nil, fmt.Errorf("%w: video %s has no blob", repository.ErrDanglingBlobRef, video.ID)
	}

	content, err := r.blobs.Get(ctx, video.BlobRef)
	if err != nil {
		if errors.Is(err, repository.ErrBlobNotFound) {
			return nil, fmt.Errorf("%w: video %s, blob %s", repository.ErrDanglingBlobRef, video.ID, video.BlobRef)
		}
		return nil, fmt.Errorf("read video file: %w", err)
	}

	return content, nil
}

// GetAllVideos returns every metadata record.
func (r *videoRepository) GetAllVideos(ctx context.Context) ([]*model.Video, error) {
	videos, err := r.docs.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return videos, nil
}

// GetVideosByCreator returns every metadata record authored by creatorID.
func (r *videoRepository) GetVideosByCreator(ctx context.Context, creatorID uuid.UUID) ([]*model.Video, error) {
	if creatorID == uuid.Nil {
		return nil, repository.ErrEmptyCreatorID
	}

	videos, err := r.docs.FindByField(ctx, model.FieldCreatorID, creatorID.String())
	if err != nil {
		return nil, fmt.Errorf("list creator videos: %w", err)
	}
	return videos, nil
}

// UpdateVideo overwrites the editable fields of the record matching video.ID.
// ID, BlobRef and CreatedAt are never written.
func (r *videoRepository) UpdateVideo(ctx context.Context, video *model.Video) error {
	if video == nil {
		return repository.ErrNilVideo
	}

	video.UpdatedAt = r.now().UTC()

	fields := map[string]any{
		model.FieldTitle:           video.Title,
		model.FieldDescription:     video.Description,
		model.FieldFileName:        video.FileName,
		model.FieldCreatorID:       video.CreatorID,
		model.FieldCreatorFullName: video.CreatorFullName,
		model.FieldUpdatedAt:       video.UpdatedAt,
	}

	if err := r.docs.UpdateByID(ctx, video.ID, fields); err != nil {
		return fmt.Errorf("update video: %w", err)
	}
	return nil
}

// DeleteVideo removes the blob of a video and then its metadata record.
func (r *videoRepository) DeleteVideo(ctx context.Context, id uuid.UUID) error {
	video, err := r.GetVideo(ctx, id)
	if err != nil {
		return err
	}
	return r.deleteVideo(ctx, video)
}

// deleteVideo runs the blob-then-metadata steps for a video that is known to exist.
func (r *videoRepository) deleteVideo(ctx context.Context, video *model.Video) error {
	if err := r.deleteBlob(ctx, video.BlobRef); err != nil {
		return err
	}
	return r.deleteMetadata(ctx, video.ID)
}

func (r *videoRepository) deleteBlob(ctx context.Context, blobRef uuid.UUID) error {
	if err := r.blobs.Delete(ctx, blobRef); err != nil && !errors.Is(err, repository.ErrBlobNotFound) {
		return fmt.Errorf("delete video file: %w", err)
	}
	return nil
}

func (r *videoRepository) deleteMetadata(ctx context.Context, id uuid.UUID) error {
	if err := r.docs.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("delete video metadata: %w", err)
	}
	return nil
}

// UpdateManyByCreator syncs the denormalized creator name onto every video of creatorID.
func (r *videoRepository) UpdateManyByCreator(ctx context.Context, creatorID uuid.UUID, update *model.CreatorUpdate) (int64, error) {
	if creatorID == uuid.Nil {
		return 0, repository.ErrEmptyCreatorID
	}
	if update == nil {
		return 0, repository.ErrNilCreatorUpdate
	}

	fields := map[string]any{
		model.FieldCreatorFullName: update.FullName,
		model.FieldUpdatedAt:       r.now().UTC(),
	}

	n, err := r.docs.UpdateManyByField(ctx, model.FieldCreatorID, creatorID.String(), fields)
	if err != nil {
		return 0, fmt.Errorf("update creator videos: %w", err)
	}
	return n, nil
}

// DeleteManyByCreator deletes every video of creatorID through the single-video path,
// so each blob goes before its record. It keeps going past per-video failures and
// returns them joined alongside the IDs that were fully deleted.
func (r *videoRepository) DeleteManyByCreator(ctx context.Context, creatorID uuid.UUID) ([]uuid.UUID, error) {
	videos, err := r.GetVideosByCreator(ctx, creatorID)
	if err != nil {
		return nil, err
	}

	deleted := make([]uuid.UUID, 0, len(videos))
	var errs []error

	for _, video := range videos {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := r.deleteVideo(ctx, video); err != nil {
			errs = append(errs, fmt.Errorf("video %s: %w", video.ID, err))
			continue
		}
		deleted = append(deleted, video.ID)
	}

	return deleted, errors.Join(errs...)
}
