package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is the parent of every caller-input precondition failure.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNilVideo is returned when video metadata is missing.
	ErrNilVideo = fmt.Errorf("%w: video model cannot be nil", ErrInvalidArgument)

	// ErrEmptyVideoFile is returned when the video file content is missing or empty.
	ErrEmptyVideoFile = fmt.Errorf("%w: video file cannot be empty", ErrInvalidArgument)

	// ErrEmptyBlob is returned by blob stores when asked to store zero bytes.
	ErrEmptyBlob = fmt.Errorf("%w: blob content cannot be empty", ErrInvalidArgument)

	// ErrEmptyCreatorID is returned when a creator identifier is the nil UUID.
	ErrEmptyCreatorID = fmt.Errorf("%w: creator id cannot be empty", ErrInvalidArgument)

	// ErrNilCreatorUpdate is returned when a bulk creator update carries no payload.
	ErrNilCreatorUpdate = fmt.Errorf("%w: creator update cannot be nil", ErrInvalidArgument)

	// ErrVideoNotFound is returned when a video cannot be found.
	ErrVideoNotFound = errors.New("video not found")

	// ErrBlobNotFound is returned when a blob identifier does not resolve.
	ErrBlobNotFound = errors.New("blob not found")

	// ErrDanglingBlobRef is returned when an existing video references a blob that is gone.
	// It signals an internal consistency fault, not a normal not-found.
	ErrDanglingBlobRef = errors.New("video references a missing blob")

	// ErrDuplicateDocument is returned when inserting a document whose ID already exists.
	ErrDuplicateDocument = errors.New("document already exists")

	// ErrBucketNotFound is returned when the configured blob bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")
)
