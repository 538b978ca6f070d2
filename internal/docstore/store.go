// Package docstore is a schemaless collection-of-documents store with point
// reads, filtered queries, per-document writes and live subscriptions.
package docstore

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrInvalidQuery = errors.New("invalid query")
)

// Fields is the body of a document. Values must be JSON encodable.
type Fields map[string]any

// Document is one stored record as returned by reads.
type Document struct {
	ID        string
	Fields    Fields
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Snapshot is the full result set of a subscribed query at one point in time.
type Snapshot struct {
	Docs   []Document
	ReadAt time.Time
}

// Unsubscribe cancels a live subscription. Calling it more than once is a
// no-op; once it returns no new delivery is started.
type Unsubscribe func()

type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Query(ctx context.Context, q Query) ([]Document, error)
	// Subscribe delivers an initial snapshot and then a fresh one after every
	// change to the query's collection. Deliveries never overlap.
	Subscribe(ctx context.Context, q Query, onChange func(Snapshot), onError func(error)) (Unsubscribe, error)
	Add(ctx context.Context, collection string, fields Fields) (string, error)
	// Update merges top-level fields into an existing document.
	Update(ctx context.Context, collection, id string, partial Fields) error
	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error
}

type serverTimestamp struct{}

// ServerTimestamp may be used as any field value in a write; the store
// replaces it with its own clock reading formatted with TimestampLayout.
var ServerTimestamp = serverTimestamp{}

// TimestampLayout is fixed width so stored timestamps sort lexically.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func resolveSentinels(v any, stamp string) any {
	switch val := v.(type) {
	case serverTimestamp:
		return stamp
	case Fields:
		out := make(Fields, len(val))
		for k, inner := range val {
			out[k] = resolveSentinels(inner, stamp)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = resolveSentinels(inner, stamp)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = resolveSentinels(inner, stamp)
		}
		return out
	}
	return v
}
