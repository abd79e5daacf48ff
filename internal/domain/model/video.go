package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Document field names used when the store filters or patches individual fields.
// They must match the json tags on Video.
const (
	FieldTitle           = "title"
	FieldDescription     = "description"
	FieldFileName        = "file_name"
	FieldCreatorID       = "creator_id"
	FieldCreatorFullName = "creator_full_name"
	FieldUpdatedAt       = "updated_at"
)

// Video is the metadata record of an uploaded video.
// The binary content lives in the blob store and is referenced by BlobRef.
type Video struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	FileName        string    `json:"file_name"`
	CreatorID       uuid.UUID `json:"creator_id"`
	CreatorFullName string    `json:"creator_full_name"`
	BlobRef         uuid.UUID `json:"blob_ref"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CreatorUpdate carries the denormalized creator fields that are synced in bulk
// when a creator profile changes.
type CreatorUpdate struct {
	FullName string
}

var (
	ErrEmptyTitle       = errors.New("title cannot be empty")
	ErrEmptyDescription = errors.New("description cannot be empty")
	ErrEmptyFileName    = errors.New("file name cannot be empty")
	ErrInvalidCreatorID = errors.New("creator ID cannot be nil")
	ErrTitleTooLong     = errors.New("title exceeds maximum length of 255 characters")
)

const maxTitleLength = 255

// NewVideo creates a new Video with validated editable fields.
// ID and BlobRef stay nil until the repository persists it.
func NewVideo(title, description, fileName string, creatorID uuid.UUID, creatorFullName string) (*Video, error) {
	v := &Video{
		Title:           title,
		Description:     description,
		FileName:        fileName,
		CreatorID:       creatorID,
		CreatorFullName: creatorFullName,
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

// Validate checks the editable fields.
func (v *Video) Validate() error {
	if v.Title == "" {
		return ErrEmptyTitle
	}
	if len(v.Title) > maxTitleLength {
		return ErrTitleTooLong
	}
	if v.Description == "" {
		return ErrEmptyDescription
	}
	if v.FileName == "" {
		return ErrEmptyFileName
	}
	if v.CreatorID == uuid.Nil {
		return ErrInvalidCreatorID
	}
	return nil
}

// DocumentID returns the document identifier.
func (v *Video) DocumentID() uuid.UUID {
	return v.ID
}

// SetDocumentID assigns the identifier generated by the document store.
func (v *Video) SetDocumentID(id uuid.UUID) {
	v.ID = id
}

// HasBlob reports whether the video is linked to a stored blob.
func (v *Video) HasBlob() bool {
	return v.BlobRef != uuid.Nil
}
