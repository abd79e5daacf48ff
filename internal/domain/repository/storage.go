package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BlobStore defines the interface for storing whole binary payloads under generated identifiers.
// Implementations should be provided by the infrastructure layer (e.g., MinIO, S3).
// Chunking, if any, is internal to the implementation.
type BlobStore interface {
	// Put stores content and returns a newly generated blob ID.
	// Returns ErrEmptyBlob if content is nil or empty.
	Put(ctx context.Context, name string, content []byte) (uuid.UUID, error)

	// Get returns the full content of a blob.
	// Returns ErrBlobNotFound if the blob does not exist.
	Get(ctx context.Context, id uuid.UUID) ([]byte, error)

	// Stat returns the metadata the store recorded for a blob.
	// Returns ErrBlobNotFound if the blob does not exist.
	Stat(ctx context.Context, id uuid.UUID) (*BlobInfo, error)

	// Delete removes a blob. Deleting an absent blob is not an error.
	Delete(ctx context.Context, id uuid.UUID) error
}

// BlobInfo contains metadata recorded by the blob store at upload time.
type BlobInfo struct {
	ID         uuid.UUID
	FileName   string
	Length     int64
	UploadedAt time.Time
	Checksum   string
}
