package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/questlog/pkg/docstore"
	"tableflip.dev/questlog/pkg/docstore/storetest"
	"tableflip.dev/questlog/pkg/errs"
)

func openTemp(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(context.Background(), path, zerolog.Nop(), WithThrottle(20*time.Millisecond))
	require.NoError(t, err)
	return s
}

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) docstore.Store {
		return openTemp(t, filepath.Join(t.TempDir(), "questlog.db"))
	})
}

func TestReopenKeepsDocuments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questlog.db")
	ctx := context.Background()

	s := openTemp(t, path)
	require.NoError(t, s.Set(ctx, "accounts/ash/profile", map[string]any{"displayName": "Ash"}))
	require.NoError(t, s.Close())

	// Migrations are idempotent.
	s = openTemp(t, path)
	defer s.Close()
	doc, err := s.Get(ctx, "accounts/ash/profile")
	require.NoError(t, err)
	assert.JSONEq(t, `{"displayName":"Ash"}`, string(doc.Data))
}

func TestWritesFromAnotherConnectionInvalidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questlog.db")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcherSide := openTemp(t, path)
	defer watcherSide.Close()
	writerSide := openTemp(t, path)
	defer writerSide.Close()

	events, err := watcherSide.Watch(ctx, "accounts/ash/quests")
	require.NoError(t, err)

	require.NoError(t, writerSide.Set(ctx, "accounts/ash/quests/q1", map[string]any{"name": "Hunt"}))

	select {
	case ev, ok := <-events:
		require.True(t, ok)
		assert.Equal(t, docstore.EventInvalidated, ev.Type)
	case <-time.After(3 * time.Second):
		t.Fatal("write from another connection was not noticed")
	}

	docs, err := watcherSide.Query(ctx, "accounts/ash/quests", docstore.Query{})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestQueryOrdersNumbersNumerically(t *testing.T) {
	s := openTemp(t, filepath.Join(t.TempDir(), "questlog.db"))
	defer s.Close()
	ctx := context.Background()

	for id, difficulty := range map[string]int{"a": 2, "b": 10, "c": 9} {
		require.NoError(t, s.Set(ctx, docstore.Join("accounts/ash/quests", id), map[string]any{"difficulty": difficulty}))
	}
	docs, err := s.Query(ctx, "accounts/ash/quests", docstore.Query{OrderBy: "difficulty", Descending: true})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, []string{"b", "c", "a"}, []string{docs[0].ID, docs[1].ID, docs[2].ID})
}

func TestPingNoticesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questlog.db")
	ctx := context.Background()
	s := openTemp(t, path)
	defer s.Close()

	require.NoError(t, s.Ping(ctx))

	require.NoError(t, os.Remove(path))
	assert.ErrorIs(t, s.Ping(ctx), errs.ErrConnectivity)
}

func TestPingInMemory(t *testing.T) {
	s := openTemp(t, ":memory:")
	defer s.Close()
	assert.NoError(t, s.Ping(context.Background()))
}
