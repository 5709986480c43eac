// Package storetest checks that a docstore.Store backend honours the
// contract the managers rely on. Backends call Run from their own tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/questlog/pkg/docstore"
	"tableflip.dev/questlog/pkg/errs"
)

// Opener returns a fresh, empty store. The store is closed by Run.
type Opener func(t *testing.T) docstore.Store

// Run executes the shared suite against stores produced by open.
func Run(t *testing.T, open Opener) {
	tests := map[string]func(t *testing.T, s docstore.Store){
		"create if absent":          testCreateIfAbsent,
		"get missing":               testGetMissing,
		"update merges":             testUpdateMerges,
		"update missing":            testUpdateMissing,
		"delete missing":            testDeleteMissing,
		"add and query order":       testAddAndQueryOrder,
		"query only direct members": testQueryDirectMembers,
		"commit is atomic":          testCommitAtomic,
		"delete collection":         testDeleteCollection,
		"watch notifies":            testWatchNotifies,
		"watch closes on cancel":    testWatchCloses,
	}
	for name, fn := range tests {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			t.Cleanup(func() { _ = s.Close() })
			fn(t, s)
		})
	}
}

type record struct {
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt,omitempty"`
	Completed bool   `json:"completed,omitempty"`
}

func decode(t *testing.T, doc docstore.Document) record {
	t.Helper()
	var r record
	require.NoError(t, doc.Decode(&r))
	return r
}

func testCreateIfAbsent(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	path := "accounts/ash/profile"

	require.NoError(t, s.Create(ctx, path, record{Name: "Ash"}))
	err := s.Create(ctx, path, record{Name: "Impostor"})
	require.ErrorIs(t, err, errs.ErrAlreadyExists)

	doc, err := s.Get(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "Ash", decode(t, doc).Name)
	assert.Equal(t, "profile", doc.ID)
}

func testGetMissing(t *testing.T, s docstore.Store) {
	_, err := s.Get(context.Background(), "accounts/nobody/profile")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func testUpdateMerges(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	path := "accounts/ash/quests/q1"
	require.NoError(t, s.Set(ctx, path, map[string]any{"name": "Hunt", "completed": true, "completedAt": "x"}))

	require.NoError(t, s.Update(ctx, path, map[string]any{"completed": false, "completedAt": nil}))

	doc, err := s.Get(ctx, path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Hunt","completed":false}`, string(doc.Data))
}

func testUpdateMissing(t *testing.T, s docstore.Store) {
	err := s.Update(context.Background(), "accounts/ash/quests/nope", map[string]any{"completed": true})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func testDeleteMissing(t *testing.T, s docstore.Store) {
	assert.NoError(t, s.Delete(context.Background(), "accounts/ash/quests/nope"))
}

func testAddAndQueryOrder(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	coll := "accounts/ash/quests"
	stamps := []string{
		"2024-01-01T10:00:00.000000000Z",
		"2024-01-03T10:00:00.000000000Z",
		"2024-01-02T10:00:00.000000000Z",
	}
	ids := make(map[string]string)
	for _, at := range stamps {
		id, err := s.Add(ctx, coll, record{Name: at, CreatedAt: at})
		require.NoError(t, err)
		require.NotEmpty(t, id)
		ids[at] = id
	}

	docs, err := s.Query(ctx, coll, docstore.Query{OrderBy: "createdAt", Descending: true})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, ids[stamps[1]], docs[0].ID)
	assert.Equal(t, ids[stamps[2]], docs[1].ID)
	assert.Equal(t, ids[stamps[0]], docs[2].ID)
	assert.Equal(t, docstore.Join(coll, docs[0].ID), docs[0].Path)
}

func testQueryDirectMembers(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "accounts/ash/quests/q1", record{Name: "a"}))
	require.NoError(t, s.Set(ctx, "accounts/ash/profile", record{Name: "Ash"}))
	require.NoError(t, s.Set(ctx, "accounts/ash-2/quests/q1", record{Name: "b"}))

	docs, err := s.Query(ctx, "accounts/ash/quests", docstore.Query{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "q1", docs[0].ID)

	empty, err := s.Query(ctx, "accounts/misty/quests", docstore.Query{})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func testCommitAtomic(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "accounts/ash/quests/q1", record{Name: "keep"}))

	b := docstore.NewBatch().
		Delete("accounts/ash/quests/q1").
		Set("accounts/ash/quests/q2", record{Name: "new"}).
		Update("accounts/ash/quests/missing", map[string]any{"completed": true})
	err := s.Commit(ctx, b)
	require.ErrorIs(t, err, errs.ErrNotFound)

	doc, err := s.Get(ctx, "accounts/ash/quests/q1")
	require.NoError(t, err)
	assert.Equal(t, "keep", decode(t, doc).Name)
	_, err = s.Get(ctx, "accounts/ash/quests/q2")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func testDeleteCollection(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	for _, id := range []string{"q1", "q2", "q3"} {
		require.NoError(t, s.Set(ctx, docstore.Join("accounts/ash/quests", id), record{Name: id}))
	}
	require.NoError(t, s.Set(ctx, "accounts/ash/profile", record{Name: "Ash"}))
	require.NoError(t, s.Set(ctx, "accounts/misty/quests/q1", record{Name: "other"}))

	require.NoError(t, s.Commit(ctx, docstore.NewBatch().DeleteCollection("accounts/ash/quests")))

	docs, err := s.Query(ctx, "accounts/ash/quests", docstore.Query{})
	require.NoError(t, err)
	assert.Empty(t, docs)

	_, err = s.Get(ctx, "accounts/ash/profile")
	assert.NoError(t, err)
	other, err := s.Query(ctx, "accounts/misty/quests", docstore.Query{})
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func testWatchNotifies(t *testing.T, s docstore.Store) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := s.Watch(ctx, "accounts/ash/quests")
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, "accounts/ash/quests/q1", record{Name: "a"}))

	select {
	case ev, ok := <-events:
		require.True(t, ok)
		if ev.Type == docstore.EventChanged {
			assert.Equal(t, "accounts/ash/quests/q1", ev.Path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no change event")
	}
}

func testWatchCloses(t *testing.T, s docstore.Store) {
	ctx, cancel := context.WithCancel(context.Background())
	events, err := s.Watch(ctx, "accounts/ash/profile")
	require.NoError(t, err)
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("watch channel not closed")
		}
	}
}
