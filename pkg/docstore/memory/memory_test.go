package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/questlog/pkg/docstore"
	"tableflip.dev/questlog/pkg/docstore/storetest"
	"tableflip.dev/questlog/pkg/errs"
)

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) docstore.Store { return New() })
}

func TestOfflineFailsAndRecoveryInvalidates(t *testing.T) {
	s := New()
	defer s.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := s.Watch(ctx, "accounts/ash/quests")
	require.NoError(t, err)

	s.SetOffline(true)
	_, err = s.Get(ctx, "accounts/ash/profile")
	assert.ErrorIs(t, err, errs.ErrConnectivity)
	assert.ErrorIs(t, s.Ping(ctx), errs.ErrConnectivity)
	assert.ErrorIs(t, s.Set(ctx, "accounts/ash/quests/q1", map[string]any{"name": "x"}), errs.ErrConnectivity)

	select {
	case ev := <-events:
		t.Fatalf("unexpected event while offline: %+v", ev)
	default:
	}

	s.SetOffline(false)
	select {
	case ev := <-events:
		assert.Equal(t, docstore.EventInvalidated, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("expected invalidation on recovery")
	}
	assert.NoError(t, s.Ping(ctx))
}

func TestFailNextCommitLeavesStateUntouched(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "accounts/ash/quests/q1", map[string]any{"name": "a"}))

	s.FailNextCommit(errors.New("boom"))
	err := s.Commit(ctx, docstore.NewBatch().DeleteCollection("accounts/ash/quests"))
	require.ErrorIs(t, err, errs.ErrConnectivity)

	docs, err := s.Query(ctx, "accounts/ash/quests", docstore.Query{})
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	// Only the next commit fails.
	require.NoError(t, s.Commit(ctx, docstore.NewBatch().DeleteCollection("accounts/ash/quests")))
}
