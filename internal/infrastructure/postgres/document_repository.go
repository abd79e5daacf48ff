package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hszk-dev/vidvault/internal/domain/model"
	"github.com/hszk-dev/vidvault/internal/domain/repository"
	"github.com/hszk-dev/vidvault/internal/infrastructure/metrics"
)

// DBTX is an interface that abstracts pgxpool.Pool and pgx.Tx for testability.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DocumentRepository implements repository.DocumentRepository over the JSONB documents table.
// Each instance is bound to a single collection.
type DocumentRepository[T repository.Document] struct {
	db         DBTX
	collection string
	newDoc     func() T
}

// NewDocumentRepository creates a repository for collection.
// newDoc must return a fresh, non-nil T to decode stored bodies into.
func NewDocumentRepository[T repository.Document](db DBTX, collection string, newDoc func() T) *DocumentRepository[T] {
	return &DocumentRepository[T]{
		db:         db,
		collection: collection,
		newDoc:     newDoc,
	}
}

// Collection returns the collection name this repository is bound to.
func (r *DocumentRepository[T]) Collection() string {
	return r.collection
}

// Insert stores a new document, generating its ID when absent.
func (r *DocumentRepository[T]) Insert(ctx context.Context, doc T) (uuid.UUID, error) {
	const query = `
		INSERT INTO documents (collection, id, body)
		VALUES ($1, $2, $3)
	`

	if doc.DocumentID() == uuid.Nil {
		doc.SetDocumentID(uuid.New())
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to encode document: %w", err)
	}

	r.count(metrics.DBQueryInsert)
	if _, err := r.db.Exec(ctx, query, r.collection, doc.DocumentID(), body); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return uuid.Nil, repository.ErrDuplicateDocument
		}
		return uuid.Nil, fmt.Errorf("failed to insert document: %w", err)
	}

	return doc.DocumentID(), nil
}

// FindByID looks a document up by ID; found is false when it does not exist.
func (r *DocumentRepository[T]) FindByID(ctx context.Context, id uuid.UUID) (T, bool, error) {
	const query = `
		SELECT id, body
		FROM documents
		WHERE collection = $1 AND id = $2
	`

	var zero T

	r.count(metrics.DBQuerySelect)
	doc, err := r.scanDocument(r.db.QueryRow(ctx, query, r.collection, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, false, nil
		}
		return zero, false, fmt.Errorf("failed to find document by ID: %w", err)
	}

	return doc, true, nil
}

// FindAll returns every document in the collection. Order is unspecified.
func (r *DocumentRepository[T]) FindAll(ctx context.Context) ([]T, error) {
	const query = `
		SELECT id, body
		FROM documents
		WHERE collection = $1
	`

	r.count(metrics.DBQuerySelect)
	rows, err := r.db.Query(ctx, query, r.collection)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}

	return r.collect(rows)
}

// FindByField returns documents whose top-level field equals value.
func (r *DocumentRepository[T]) FindByField(ctx context.Context, field, value string) ([]T, error) {
	const query = `
		SELECT id, body
		FROM documents
		WHERE collection = $1 AND body ->> $2 = $3
	`

	r.count(metrics.DBQuerySelect)
	rows, err := r.db.Query(ctx, query, r.collection, field, value)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents by %s: %w", field, err)
	}

	return r.collect(rows)
}

// ReplaceByID overwrites the stored body of the document matching doc's ID.
func (r *DocumentRepository[T]) ReplaceByID(ctx context.Context, doc T) error {
	const query = `
		UPDATE documents
		SET body = $3, updated_at = now()
		WHERE collection = $1 AND id = $2
	`

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	r.count(metrics.DBQueryUpdate)
	if _, err := r.db.Exec(ctx, query, r.collection, doc.DocumentID(), body); err != nil {
		return fmt.Errorf("failed to replace document: %w", err)
	}

	return nil
}

// UpdateByID merges fields into the stored body of the document with the given ID.
func (r *DocumentRepository[T]) UpdateByID(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	const query = `
		UPDATE documents
		SET body = body || $3::jsonb, updated_at = now()
		WHERE collection = $1 AND id = $2
	`

	patch, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode document patch: %w", err)
	}

	r.count(metrics.DBQueryUpdate)
	if _, err := r.db.Exec(ctx, query, r.collection, id, patch); err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}

	return nil
}

// UpdateManyByField merges fields into every document whose field equals value.
func (r *DocumentRepository[T]) UpdateManyByField(ctx context.Context, field, value string, fields map[string]any) (int64, error) {
	const query = `
		UPDATE documents
		SET body = body || $4::jsonb, updated_at = now()
		WHERE collection = $1 AND body ->> $2 = $3
	`

	patch, err := json.Marshal(fields)
	if err != nil {
		return 0, fmt.Errorf("failed to encode document patch: %w", err)
	}

	r.count(metrics.DBQueryUpdate)
	tag, err := r.db.Exec(ctx, query, r.collection, field, value, patch)
	if err != nil {
		return 0, fmt.Errorf("failed to update documents by %s: %w", field, err)
	}

	return tag.RowsAffected(), nil
}

// DeleteByID removes the document with the given ID.
func (r *DocumentRepository[T]) DeleteByID(ctx context.Context, id uuid.UUID) error {
	const query = `
		DELETE FROM documents
		WHERE collection = $1 AND id = $2
	`

	r.count(metrics.DBQueryDelete)
	if _, err := r.db.Exec(ctx, query, r.collection, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	return nil
}

// scanDocument decodes an (id, body) row into a fresh T.
// The id column wins over any id stored inside the body.
func (r *DocumentRepository[T]) scanDocument(row pgx.Row) (T, error) {
	var (
		zero T
		id   uuid.UUID
		body []byte
	)

	if err := row.Scan(&id, &body); err != nil {
		return zero, err
	}

	doc := r.newDoc()
	if err := json.Unmarshal(body, doc); err != nil {
		return zero, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	doc.SetDocumentID(id)

	return doc, nil
}

func (r *DocumentRepository[T]) collect(rows pgx.Rows) ([]T, error) {
	defer rows.Close()

	docs := make([]T, 0)
	for rows.Next() {
		doc, err := r.scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}

	return docs, nil
}

func (r *DocumentRepository[T]) count(queryType string) {
	metrics.DBQueriesTotal.WithLabelValues(queryType, r.collection).Inc()
}

// Compile-time verification that DocumentRepository implements repository.DocumentRepository.
var _ repository.DocumentRepository[*model.Video] = (*DocumentRepository[*model.Video])(nil)
