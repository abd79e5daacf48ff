package repository

import (
	"context"

	"github.com/google/uuid"
)

// Event types, used as AMQP routing keys and message types.
const (
	EventVideoUpdated   = "video.updated"
	EventVideoDeleted   = "video.deleted"
	EventCreatorUpdated = "creator.updated"
	EventCreatorDeleted = "creator.deleted"
)

// VideoUpdatedEvent is published after a video's editable fields change.
type VideoUpdatedEvent struct {
	VideoID     uuid.UUID `json:"video_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
}

// VideoDeletedEvent is published after a video and its blob are deleted.
type VideoDeletedEvent struct {
	VideoID uuid.UUID `json:"video_id"`
}

// CreatorEvent is received when a creator profile changes or is removed upstream.
type CreatorEvent struct {
	Type       string    `json:"-"`
	CreatorID  uuid.UUID `json:"creator_id"`
	FullName   string    `json:"full_name,omitempty"`
	RetryCount int       `json:"retry_count"`
}

// EventPublisher defines the interface for publishing video domain events.
// Implementations should be provided by the infrastructure layer (e.g., RabbitMQ).
type EventPublisher interface {
	PublishVideoUpdated(ctx context.Context, event VideoUpdatedEvent) error
	PublishVideoDeleted(ctx context.Context, event VideoDeletedEvent) error
}

// CreatorEventConsumer defines the interface for consuming creator profile events.
type CreatorEventConsumer interface {
	// ConsumeCreatorEvents blocks, calling handler for each received event,
	// until ctx is cancelled or the delivery channel closes.
	ConsumeCreatorEvents(ctx context.Context, handler func(event CreatorEvent) error) error

	// Close gracefully closes the connection to the message queue.
	Close() error
}
