package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hszk-dev/vidvault/internal/domain/model"
	"github.com/hszk-dev/vidvault/internal/domain/repository"
)

// CreateVideoInput contains the input parameters for creating a video.
type CreateVideoInput struct {
	Title           string
	Description     string
	FileName        string
	CreatorID       uuid.UUID
	CreatorFullName string
	Content         []byte
}

// UpdateVideoInput replaces the editable fields of an existing video.
// When CreatorID is nil the stored creator fields are kept.
type UpdateVideoInput struct {
	ID              uuid.UUID
	Title           string
	Description     string
	FileName        string
	CreatorID       uuid.UUID
	CreatorFullName string
}

// VideoWithFile is a metadata record together with its file content.
type VideoWithFile struct {
	Video   *model.Video
	Content []byte
}

// VideoService defines the interface for video business logic operations.
type VideoService interface {
	// CreateVideo stores metadata and file content and returns the new video ID.
	CreateVideo(ctx context.Context, input CreateVideoInput) (uuid.UUID, error)

	// GetVideo retrieves video metadata by ID.
	GetVideo(ctx context.Context, videoID uuid.UUID) (*model.Video, error)

	// GetVideoWithFile retrieves video metadata and file content by ID.
	GetVideoWithFile(ctx context.Context, videoID uuid.UUID) (*VideoWithFile, error)

	// ReadVideoFile returns the file content of a video whose metadata is already loaded.
	ReadVideoFile(ctx context.Context, video *model.Video) ([]byte, error)

	// ListVideos returns metadata of every video.
	ListVideos(ctx context.Context) ([]*model.Video, error)

	// ListCreatorVideos returns metadata of every video authored by creatorID.
	ListCreatorVideos(ctx context.Context, creatorID uuid.UUID) ([]*model.Video, error)

	// UpdateVideo replaces the editable fields of an existing video and publishes video.updated.
	UpdateVideo(ctx context.Context, input UpdateVideoInput) error

	// DeleteVideo removes a video with its file and publishes video.deleted.
	DeleteVideo(ctx context.Context, videoID uuid.UUID) error

	// PurgeVideo removes a video with its file without publishing any event.
	PurgeVideo(ctx context.Context, videoID uuid.UUID) error

	// UpdateCreatorName syncs a creator's display name onto all of their videos.
	UpdateCreatorName(ctx context.Context, creatorID uuid.UUID, fullName string) (int64, error)

	// DeleteCreatorVideos removes every video of a creator and returns the deleted IDs.
	DeleteCreatorVideos(ctx context.Context, creatorID uuid.UUID) ([]uuid.UUID, error)
}

type videoService struct {
	repo      repository.VideoRepository
	publisher repository.EventPublisher
}

// NewVideoService creates a new VideoService instance.
func NewVideoService(
	repo repository.VideoRepository,
	publisher repository.EventPublisher,
) VideoService {
	return &videoService{
		repo:      repo,
		publisher: publisher,
	}
}

// CreateVideo validates the input and delegates the two-store write to the repository.
func (s *videoService) CreateVideo(ctx context.Context, input CreateVideoInput) (uuid.UUID, error) {
	video, err := model.NewVideo(input.Title, input.Description, input.FileName, input.CreatorID, input.CreatorFullName)
	if err != nil {
		return uuid.Nil, err
	}

	id, err := s.repo.CreateVideo(ctx, video, input.FileName, input.Content)
	if err != nil {
		return uuid.Nil, fmt.Errorf("create video: %w", err)
	}

	return id, nil
}

// GetVideo retrieves video metadata by ID.
func (s *videoService) GetVideo(ctx context.Context, videoID uuid.UUID) (*model.Video, error) {
	return s.repo.GetVideo(ctx, videoID)
}

// GetVideoWithFile looks the metadata up first so a missing video is a plain not-found.
func (s *videoService) GetVideoWithFile(ctx context.Context, videoID uuid.UUID) (*VideoWithFile, error) {
	video, err := s.repo.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	content, err := s.repo.ReadVideoFile(ctx, video)
	if err != nil {
		return nil, err
	}

	return &VideoWithFile{Video: video, Content: content}, nil
}

// ReadVideoFile reads the file of a resolved video.
func (s *videoService) ReadVideoFile(ctx context.Context, video *model.Video) ([]byte, error) {
	return s.repo.ReadVideoFile(ctx, video)
}

// ListVideos returns metadata of every video.
func (s *videoService) ListVideos(ctx context.Context) ([]*model.Video, error) {
	return s.repo.GetAllVideos(ctx)
}

// ListCreatorVideos returns metadata of every video authored by creatorID.
func (s *videoService) ListCreatorVideos(ctx context.Context, creatorID uuid.UUID) ([]*model.Video, error) {
	return s.repo.GetVideosByCreator(ctx, creatorID)
}

// UpdateVideo checks existence, replaces editable fields and announces the change.
func (s *videoService) UpdateVideo(ctx context.Context, input UpdateVideoInput) error {
	existing, err := s.repo.GetVideo(ctx, input.ID)
	if err != nil {
		return err
	}

	updated := *existing
	updated.Title = input.Title
	updated.Description = input.Description
	updated.FileName = input.FileName
	if input.CreatorID != uuid.Nil {
		updated.CreatorID = input.CreatorID
		updated.CreatorFullName = input.CreatorFullName
	}

	if err := updated.Validate(); err != nil {
		return err
	}

	if err := s.repo.UpdateVideo(ctx, &updated); err != nil {
		return err
	}

	event := repository.VideoUpdatedEvent{
		VideoID:     updated.ID,
		Title:       updated.Title,
		Description: updated.Description,
	}
	if err := s.publisher.PublishVideoUpdated(ctx, event); err != nil {
		slog.Warn("failed to publish video updated event",
			"video_id", updated.ID,
			"error", err,
		)
	}

	return nil
}

// DeleteVideo removes the video and announces the deletion.
func (s *videoService) DeleteVideo(ctx context.Context, videoID uuid.UUID) error {
	if err := s.repo.DeleteVideo(ctx, videoID); err != nil {
		return err
	}

	if err := s.publisher.PublishVideoDeleted(ctx, repository.VideoDeletedEvent{VideoID: videoID}); err != nil {
		slog.Warn("failed to publish video deleted event",
			"video_id", videoID,
			"error", err,
		)
	}

	return nil
}

// PurgeVideo removes the video silently.
func (s *videoService) PurgeVideo(ctx context.Context, videoID uuid.UUID) error {
	return s.repo.DeleteVideo(ctx, videoID)
}

// UpdateCreatorName syncs a creator's display name onto all of their videos.
func (s *videoService) UpdateCreatorName(ctx context.Context, creatorID uuid.UUID, fullName string) (int64, error) {
	n, err := s.repo.UpdateManyByCreator(ctx, creatorID, &model.CreatorUpdate{FullName: fullName})
	if err != nil {
		return 0, err
	}

	slog.Info("synced creator name",
		"creator_id", creatorID,
		"videos_updated", n,
	)
	return n, nil
}

// DeleteCreatorVideos removes every video of a creator.
// Videos deleted before a failure are still reported.
func (s *videoService) DeleteCreatorVideos(ctx context.Context, creatorID uuid.UUID) ([]uuid.UUID, error) {
	deleted, err := s.repo.DeleteManyByCreator(ctx, creatorID)

	for _, id := range deleted {
		if pubErr := s.publisher.PublishVideoDeleted(ctx, repository.VideoDeletedEvent{VideoID: id}); pubErr != nil {
			slog.Warn("failed to publish video deleted event",
				"video_id", id,
				"creator_id", creatorID,
				"error", pubErr,
			)
		}
	}

	if err != nil {
		return deleted, err
	}

	slog.Info("deleted creator videos",
		"creator_id", creatorID,
		"videos_deleted", len(deleted),
	)
	return deleted, nil
}
