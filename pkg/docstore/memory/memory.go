// Package memory is an in-process docstore.Store. It backs the test suites
// and the --memory mode of the command line, and can be switched offline to
// exercise connectivity handling.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"tableflip.dev/questlog/pkg/docstore"
	"tableflip.dev/questlog/pkg/errs"
)

// Store keeps documents in a map keyed by path.
type Store struct {
	mu      sync.RWMutex
	docs    map[string]json.RawMessage
	offline bool
	// failCommit makes the next Commit fail after validating, for tests of
	// atomic batches.
	failCommit error
	hub        *docstore.Hub
	newID      func() (string, error)
}

var _ docstore.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		docs:  make(map[string]json.RawMessage),
		hub:   docstore.NewHub(),
		newID: func() (string, error) { return gonanoid.New() },
	}
}

// SetOffline simulates losing (true) or regaining (false) the connection.
// While offline every call fails with errs.ErrConnectivity and watchers get
// nothing; coming back online invalidates every watcher.
func (s *Store) SetOffline(offline bool) {
	s.mu.Lock()
	was := s.offline
	s.offline = offline
	s.mu.Unlock()
	if was && !offline {
		s.hub.Invalidate()
	}
}

// FailNextCommit makes the next Commit return err without applying anything.
func (s *Store) FailNextCommit(err error) {
	s.mu.Lock()
	s.failCommit = err
	s.mu.Unlock()
}

func (s *Store) checkOnline(op string) error {
	if s.offline {
		return errs.Unavailable(op, fmt.Errorf("memory store offline"))
	}
	return nil
}

func (s *Store) Get(_ context.Context, path string) (docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOnline("get"); err != nil {
		return docstore.Document{}, err
	}
	data, ok := s.docs[path]
	if !ok {
		return docstore.Document{}, fmt.Errorf("get %s: %w", path, errs.ErrNotFound)
	}
	return document(path, data), nil
}

func (s *Store) Create(_ context.Context, path string, data any) error {
	raw, err := docstore.Marshal(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if err := s.checkOnline("create"); err != nil {
		s.mu.Unlock()
		return err
	}
	if _, ok := s.docs[path]; ok {
		s.mu.Unlock()
		return fmt.Errorf("create %s: %w", path, errs.ErrAlreadyExists)
	}
	s.docs[path] = clone(raw)
	s.mu.Unlock()

	s.hub.Publish(path)
	return nil
}

func (s *Store) Set(_ context.Context, path string, data any) error {
	raw, err := docstore.Marshal(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if err := s.checkOnline("set"); err != nil {
		s.mu.Unlock()
		return err
	}
	s.docs[path] = clone(raw)
	s.mu.Unlock()

	s.hub.Publish(path)
	return nil
}

func (s *Store) Add(ctx context.Context, collection string, data any) (string, error) {
	id, err := s.newID()
	if err != nil {
		return "", fmt.Errorf("add %s: generate id: %w", collection, err)
	}
	if err := s.Create(ctx, docstore.Join(collection, id), data); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Update(_ context.Context, path string, patch map[string]any) error {
	raw, err := docstore.Marshal(patch)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if err := s.checkOnline("update"); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.applyLocked(docstore.Op{Kind: docstore.OpUpdate, Path: path, Data: raw}, s.docs); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.hub.Publish(path)
	return nil
}

func (s *Store) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	if err := s.checkOnline("delete"); err != nil {
		s.mu.Unlock()
		return err
	}
	_, existed := s.docs[path]
	delete(s.docs, path)
	s.mu.Unlock()

	if existed {
		s.hub.Publish(path)
	}
	return nil
}

func (s *Store) Query(_ context.Context, collection string, q docstore.Query) ([]docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOnline("query"); err != nil {
		return nil, err
	}

	out := make([]docstore.Document, 0)
	keys := make(map[string]string)
	for path, data := range s.docs {
		parent, _ := docstore.Split(path)
		if parent != collection {
			continue
		}
		doc := document(path, data)
		out = append(out, doc)
		if q.OrderBy != "" {
			keys[path] = sortKey(data, q.OrderBy)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		left, right := keys[out[i].Path], keys[out[j].Path]
		if left == right {
			left, right = out[i].ID, out[j].ID
		}
		if q.Descending {
			return left > right
		}
		return left < right
	})
	return out, nil
}

// Commit applies the batch to a scratch copy and swaps it in only when every
// operation succeeded.
func (s *Store) Commit(_ context.Context, b *docstore.Batch) error {
	if err := b.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if err := s.checkOnline("commit"); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.failCommit; err != nil {
		s.failCommit = nil
		s.mu.Unlock()
		return errs.Unavailable("commit", err)
	}

	scratch := make(map[string]json.RawMessage, len(s.docs))
	for k, v := range s.docs {
		scratch[k] = v
	}
	touched := make([]string, 0, b.Len())
	for _, op := range b.Ops() {
		if err := s.applyLocked(op, scratch); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("commit: %w", err)
		}
		touched = append(touched, op.Path)
	}
	s.docs = scratch
	s.mu.Unlock()

	if len(touched) > 0 {
		s.hub.Publish(touched...)
	}
	return nil
}

func (s *Store) applyLocked(op docstore.Op, docs map[string]json.RawMessage) error {
	switch op.Kind {
	case docstore.OpSet:
		docs[op.Path] = clone(op.Data)
	case docstore.OpUpdate:
		current, ok := docs[op.Path]
		if !ok {
			return fmt.Errorf("update %s: %w", op.Path, errs.ErrNotFound)
		}
		merged, err := docstore.MergePatch(current, op.Data)
		if err != nil {
			return err
		}
		docs[op.Path] = merged
	case docstore.OpDelete:
		delete(docs, op.Path)
	case docstore.OpDeleteCollection:
		for path := range docs {
			if parent, _ := docstore.Split(path); parent == op.Path {
				delete(docs, path)
			}
		}
	default:
		return fmt.Errorf("unknown batch operation %d", op.Kind)
	}
	return nil
}

func (s *Store) Watch(ctx context.Context, prefix string) (<-chan docstore.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOnline("watch"); err != nil {
		return nil, err
	}
	return s.hub.Subscribe(ctx, prefix), nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checkOnline("ping")
}

func (s *Store) Close() error {
	s.hub.Close()
	return nil
}

func document(path string, data json.RawMessage) docstore.Document {
	_, id := docstore.Split(path)
	return docstore.Document{Path: path, ID: id, Data: clone(data)}
}

func clone(b json.RawMessage) json.RawMessage {
	return bytes.Clone(b)
}

func sortKey(data json.RawMessage, field string) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return ""
	}
	raw, ok := fields[field]
	if !ok {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	return string(raw)
}
