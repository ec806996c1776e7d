package port

import (
	"context"
	"errors"

	"github.com/rl1809/things-api/internal/core/domain"
)

var (
	// ErrNotFound is returned when no document matches the given key.
	ErrNotFound = errors.New("document not found")

	// ErrUnavailable is returned when a collection cannot be opened.
	ErrUnavailable = errors.New("store unavailable")
)

// Query is a query-by-example search over a collection. Term is already
// wildcard-normalized (wrapped in %); the match is a case-insensitive
// contains over name or description. Skip is the offset, Limit caps the
// result count with 0 meaning no explicit limit.
type Query struct {
	Term  string
	Skip  int
	Limit int
}

// DocumentStore is the persistence collaborator. Implementations own
// sessions, pooling and concurrency-token assignment; the core only calls
// this contract.
type DocumentStore interface {
	// Collection opens a named collection, returning ErrUnavailable when
	// the backing view cannot be reached.
	Collection(ctx context.Context, name string) (Collection, error)

	Close() error
}

// Collection exposes document access over one collection. Every write
// assigns fresh etag/asof tokens and carries its own commit.
type Collection interface {
	// Find returns a one-shot cursor over documents matching q, in
	// store-defined order.
	Find(ctx context.Context, q Query) (Cursor, error)

	// FindOne fetches the document with the given key, or ErrNotFound.
	FindOne(ctx context.Context, id int64) (*domain.Thing, error)

	// Insert persists a new document, assigning its id and tokens.
	Insert(ctx context.Context, thing *domain.Thing) error

	// Replace overwrites the mutable fields of the document with the given
	// id, preserving the id and assigning new tokens. ErrNotFound when the
	// id does not exist.
	Replace(ctx context.Context, id int64, thing *domain.Thing) error

	// Remove deletes the document with the given id, or ErrNotFound.
	Remove(ctx context.Context, id int64) error
}

// Cursor is a finite, non-restartable sequence of documents. Callers must
// Close it on every exit path, including early termination.
type Cursor interface {
	// Next yields the next document, or false when the sequence is done.
	Next() (*domain.Thing, bool)

	// Err reports the error that terminated iteration, if any.
	Err() error

	Close() error
}
