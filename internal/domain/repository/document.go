package repository

import (
	"context"

	"github.com/google/uuid"
)

// Document is the minimal capability a record needs to be stored by a DocumentRepository.
type Document interface {
	DocumentID() uuid.UUID
	SetDocumentID(id uuid.UUID)
}

// DocumentRepository provides CRUD over one typed collection of a document store.
// It holds no entity-specific knowledge beyond the Document capability.
type DocumentRepository[T Document] interface {
	// Insert stores a new document, generating an ID if the document has none.
	// Returns ErrDuplicateDocument if the ID is already taken.
	Insert(ctx context.Context, doc T) (uuid.UUID, error)

	// FindByID looks a document up by ID.
	// found is false, with a nil error, when no document matches.
	FindByID(ctx context.Context, id uuid.UUID) (doc T, found bool, err error)

	// FindAll returns every document in the collection in no particular order.
	FindAll(ctx context.Context) ([]T, error)

	// FindByField returns documents whose top-level field equals value.
	FindByField(ctx context.Context, field, value string) ([]T, error)

	// ReplaceByID replaces the whole document matching doc's ID.
	// Succeeds without effect when nothing matches.
	ReplaceByID(ctx context.Context, doc T) error

	// UpdateByID sets the given top-level fields on the document with the given ID.
	// Succeeds without effect when nothing matches.
	UpdateByID(ctx context.Context, id uuid.UUID, fields map[string]any) error

	// UpdateManyByField sets the given fields on every document whose field equals value
	// and returns the number of documents changed.
	UpdateManyByField(ctx context.Context, field, value string, fields map[string]any) (int64, error)

	// DeleteByID removes the document. Succeeds without effect when nothing matches.
	DeleteByID(ctx context.Context, id uuid.UUID) error
}
