package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hszk-dev/vidvault/internal/domain/repository"
)

const (
	// DefaultMaxRetries is the default number of redeliveries before a creator event is dropped.
	DefaultMaxRetries = 3
)

// CreatorEventServiceConfig holds configuration for CreatorEventService.
type CreatorEventServiceConfig struct {
	// MaxRetries is the number of failed attempts after which an event is dropped.
	MaxRetries int
}

// DefaultCreatorEventServiceConfig returns the default configuration.
func DefaultCreatorEventServiceConfig() CreatorEventServiceConfig {
	return CreatorEventServiceConfig{
		MaxRetries: DefaultMaxRetries,
	}
}

// CreatorEventService applies upstream creator profile changes to the videos they own.
type CreatorEventService interface {
	// HandleEvent processes a creator event from the message queue.
	// Returns nil on success or when the event is dropped (unknown type, invalid payload,
	// max retries exceeded). Returns error for transient failures that should trigger a retry.
	HandleEvent(ctx context.Context, event repository.CreatorEvent) error
}

type creatorEventService struct {
	videos     VideoService
	maxRetries int
}

// NewCreatorEventService creates a new CreatorEventService instance.
func NewCreatorEventService(videos VideoService, cfg CreatorEventServiceConfig) CreatorEventService {
	return &creatorEventService{
		videos:     videos,
		maxRetries: cfg.MaxRetries,
	}
}

// HandleEvent dispatches on the event type.
func (s *creatorEventService) HandleEvent(ctx context.Context, event repository.CreatorEvent) error {
	logger := slog.With(
		"event_type", event.Type,
		"creator_id", event.CreatorID,
		"retry_count", event.RetryCount,
	)

	if event.RetryCount >= s.maxRetries {
		logger.Error("dropping creator event after max retries")
		return nil
	}

	var err error
	switch event.Type {
	case repository.EventCreatorUpdated:
		err = s.handleUpdated(ctx, event)
	case repository.EventCreatorDeleted:
		err = s.handleDeleted(ctx, event)
	default:
		logger.Warn("dropping creator event of unknown type")
		return nil
	}

	if errors.Is(err, repository.ErrInvalidArgument) {
		logger.Warn("dropping invalid creator event", "error", err)
		return nil
	}
	return err
}

func (s *creatorEventService) handleUpdated(ctx context.Context, event repository.CreatorEvent) error {
	if _, err := s.videos.UpdateCreatorName(ctx, event.CreatorID, event.FullName); err != nil {
		return fmt.Errorf("update creator name: %w", err)
	}
	return nil
}

func (s *creatorEventService) handleDeleted(ctx context.Context, event repository.CreatorEvent) error {
	if _, err := s.videos.DeleteCreatorVideos(ctx, event.CreatorID); err != nil {
		return fmt.Errorf("delete creator videos: %w", err)
	}
	return nil
}
