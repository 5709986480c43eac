// Package docstore defines the hierarchical document store the guild log
// keeps its accounts in. Paths alternate collection and document segments:
//
//	accounts/{accountKey}/profile
//	accounts/{accountKey}/quests/{questID}
//
// Any backend that offers the primitives of Store can be substituted; see the
// sqlite and memory sub-packages.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Document is a single record. Data always holds a JSON object.
type Document struct {
	Path string
	ID   string
	Data json.RawMessage
}

// Decode unmarshals the document body into v.
func (d Document) Decode(v any) error {
	if err := json.Unmarshal(d.Data, v); err != nil {
		return fmt.Errorf("docstore: decode %s: %w", d.Path, err)
	}
	return nil
}

// Query orders the documents of a collection by a top-level field.
type Query struct {
	OrderBy    string
	Descending bool
}

// Store is the contract the rest of the application depends on.
type Store interface {
	// Get reads one document. Absent documents yield errs.ErrNotFound.
	Get(ctx context.Context, path string) (Document, error)

	// Create writes data only when nothing exists at path, atomically.
	// Otherwise it returns errs.ErrAlreadyExists and leaves the document alone.
	Create(ctx context.Context, path string, data any) error

	// Set writes data at path, replacing any existing document.
	Set(ctx context.Context, path string, data any) error

	// Add stores data under a store-assigned id in collection and returns the id.
	Add(ctx context.Context, collection string, data any) (string, error)

	// Update merges patch into an existing document (JSON merge patch: a nil
	// value removes the field). Absent documents yield errs.ErrNotFound.
	Update(ctx context.Context, path string, patch map[string]any) error

	// Delete removes the document at path. Deleting nothing is not an error.
	Delete(ctx context.Context, path string) error

	// Query returns every document directly under collection, ordered by q.
	// The result reflects a single point in time.
	Query(ctx context.Context, collection string, q Query) ([]Document, error)

	// Commit applies every operation of b or none of them.
	Commit(ctx context.Context, b *Batch) error

	// Watch streams change notifications for documents at or below prefix
	// until ctx is done, then closes the channel.
	Watch(ctx context.Context, prefix string) (<-chan Event, error)

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// Segment escapes s for use as one path segment, so a key or id holding a
// "/" cannot address another collection.
func Segment(s string) string {
	return url.PathEscape(s)
}

// Join builds a path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// Split returns the parent collection and the id of a document path.
func Split(path string) (parent, id string) {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}

// Under reports whether path is prefix itself or lies below it.
func Under(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// Marshal encodes data as a JSON object.
func Marshal(data any) (json.RawMessage, error) {
	if raw, ok := data.(json.RawMessage); ok {
		return raw, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode: %w", err)
	}
	if len(b) == 0 || b[0] != '{' {
		return nil, fmt.Errorf("docstore: document must be a JSON object, got %s", b)
	}
	return b, nil
}
