package quest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/questlog/pkg/docstore"
	"tableflip.dev/questlog/pkg/docstore/memory"
	"tableflip.dev/questlog/pkg/errs"
	"tableflip.dev/questlog/pkg/session"
	"tableflip.dev/questlog/pkg/timeutil"
)

type fixture struct {
	store   *memory.Store
	session *session.DiskStore
	clock   time.Time
	m       *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   memory.New(),
		session: session.NewMemory(),
		clock:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, f.session.Save("super-hunter"))
	f.m = NewManager(f.store, f.session, WithClock(func() time.Time { return f.clock }))
	return f
}

func (f *fixture) tick(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func (f *fixture) raw(t *testing.T, id string) map[string]any {
	t.Helper()
	doc, err := f.store.Get(context.Background(), Path("super-hunter", id))
	require.NoError(t, err)
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(doc.Data, &out))
	return out
}

func TestCreateAppliesDefaults(t *testing.T) {
	f := newFixture(t)
	q, err := f.m.Create(context.Background(), Fields{Name: "  Hunt Rathalos "})
	require.NoError(t, err)

	assert.NotEmpty(t, q.ID)
	assert.Equal(t, "Hunt Rathalos", q.Name)
	assert.Equal(t, 1, q.Difficulty)
	assert.Equal(t, DefaultIcon, q.IconID)
	assert.False(t, q.Completed)
	assert.Nil(t, q.CompletedAt)
	assert.True(t, q.CreatedAt.Equal(f.clock))

	stored := f.raw(t, q.ID)
	assert.Equal(t, false, stored["completed"])
	assert.Equal(t, "2024-03-01T12:00:00.000000000Z", stored["createdAt"])
	assert.NotContains(t, stored, "completedAt")
	assert.NotContains(t, stored, "id")
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.m.Create(ctx, Fields{Name: "   "})
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = f.m.Create(ctx, Fields{Name: "x", Difficulty: 10})
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = f.m.Create(ctx, Fields{Name: "x", Difficulty: -1})
	assert.ErrorIs(t, err, errs.ErrValidation)

	quests, err := f.m.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, quests, "rejected input must not write")
}

func TestCreateWithoutAccount(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.session.Clear())

	_, err := f.m.Create(context.Background(), Fields{Name: "Hunt"})
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.ErrorIs(t, err, errs.ErrNoAccount)
}

func TestListNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, name := range []string{"first", "second", "third"} {
		_, err := f.m.Create(ctx, Fields{Name: name})
		require.NoError(t, err)
		f.tick(time.Minute)
	}
	quests, err := f.m.List(ctx)
	require.NoError(t, err)
	require.Len(t, quests, 3)
	assert.Equal(t, "third", quests[0].Name)
	assert.Equal(t, "first", quests[2].Name)
}

func TestToggleTwiceIsIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q, err := f.m.Create(ctx, Fields{Name: "Hunt", Difficulty: 3})
	require.NoError(t, err)

	f.tick(time.Hour)
	done, err := f.m.ToggleCompletion(ctx, q.ID)
	require.NoError(t, err)
	assert.True(t, done.Completed)
	require.NotNil(t, done.CompletedAt)
	assert.True(t, done.CompletedAt.Equal(f.clock))
	assert.Equal(t, "2024-03-01T13:00:00.000000000Z", f.raw(t, q.ID)["completedAt"])

	reopened, err := f.m.ToggleCompletion(ctx, q.ID)
	require.NoError(t, err)
	assert.False(t, reopened.Completed)
	assert.Nil(t, reopened.CompletedAt)

	stored := f.raw(t, q.ID)
	assert.Equal(t, false, stored["completed"])
	assert.NotContains(t, stored, "completedAt")
}

func TestToggleMissingQuest(t *testing.T) {
	f := newFixture(t)
	_, err := f.m.ToggleCompletion(context.Background(), "nope")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestPathsEscapeSeparators(t *testing.T) {
	assert.Equal(t, "accounts/super-hunter/quests", Collection("super-hunter"))
	assert.Equal(t, "accounts/ash%2Fquests/quests/q%2F1", Path("ash/quests", "q/1"))

	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, "accounts/super-hunter/quests/q/extra", map[string]any{"name": "stray"}))
	_, err := f.m.ToggleCompletion(ctx, "q/extra")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUpdateLeavesCompletionAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	due := f.clock.Add(48 * time.Hour)
	q, err := f.m.Create(ctx, Fields{Name: "Hunt", Details: "bring potions", DueAt: &due})
	require.NoError(t, err)
	_, err = f.m.ToggleCompletion(ctx, q.ID)
	require.NoError(t, err)

	f.tick(time.Minute)
	name, difficulty := "Hunt Nergigante", 7
	require.NoError(t, f.m.Update(ctx, q.ID, Patch{Name: &name, Difficulty: &difficulty, ClearDue: true}))

	got, err := f.m.Get(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hunt Nergigante", got.Name)
	assert.Equal(t, "bring potions", got.Details)
	assert.Equal(t, 7, got.Difficulty)
	assert.Nil(t, got.DueAt)
	assert.True(t, got.Completed)
	assert.NotNil(t, got.CompletedAt)
	require.NotNil(t, got.UpdatedAt)
	assert.True(t, got.UpdatedAt.Equal(f.clock))
}

func TestUpdateValidationAndMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q, err := f.m.Create(ctx, Fields{Name: "Hunt"})
	require.NoError(t, err)

	blank := " "
	assert.ErrorIs(t, f.m.Update(ctx, q.ID, Patch{Name: &blank}), errs.ErrValidation)
	zero := 0
	assert.ErrorIs(t, f.m.Update(ctx, q.ID, Patch{Difficulty: &zero}), errs.ErrValidation)

	name := "x"
	assert.ErrorIs(t, f.m.Update(ctx, "missing", Patch{Name: &name}), errs.ErrNotFound)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q, err := f.m.Create(ctx, Fields{Name: "Hunt"})
	require.NoError(t, err)

	require.NoError(t, f.m.Delete(ctx, q.ID))
	_, err = f.m.Get(ctx, q.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.NoError(t, f.m.Delete(ctx, q.ID))
}

func TestConnectivityFailuresSurface(t *testing.T) {
	f := newFixture(t)
	f.store.SetOffline(true)
	_, err := f.m.Create(context.Background(), Fields{Name: "Hunt"})
	assert.ErrorIs(t, err, errs.ErrConnectivity)
}

func TestStarsDefaultsMissingDifficulty(t *testing.T) {
	var q Quest
	require.NoError(t, json.Unmarshal([]byte(`{"name":"old","completed":true}`), &q))
	assert.Equal(t, 1, q.Stars())
	assert.Equal(t, DefaultIcon, q.Icon())
}

func TestFromDocumentTakesIDFromPath(t *testing.T) {
	q, err := FromDocument(docstore.Document{
		Path: "accounts/a/quests/abc",
		ID:   "abc",
		Data: []byte(`{"id":"stale","name":"Hunt","createdAt":"2024-01-01T00:00:00.000Z"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "abc", q.ID)
	assert.Equal(t, 2024, q.CreatedAt.Year())
}

func TestDueStatus(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *timeutil.Timestamp { return timeutil.Ptr(now.Add(d)) }

	tests := map[string]struct {
		q    Quest
		want DueStatus
	}{
		"no deadline": {q: Quest{}, want: DueNone},
		"far away":    {q: Quest{DueAt: at(72 * time.Hour)}, want: DueNone},
		"near":        {q: Quest{DueAt: at(3 * time.Hour)}, want: DueNear},
		"overdue":     {q: Quest{DueAt: at(-time.Minute)}, want: DueOverdue},
		"completed":   {q: Quest{DueAt: at(-time.Minute), Completed: true}, want: DueNone},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.q.DueStatus(now))
		})
	}
}

func TestFilter(t *testing.T) {
	quests := []Quest{
		{ID: "1", Name: "Hunt Rathalos", Completed: true},
		{ID: "2", Name: "Capture Jagras"},
		{ID: "3", Name: "hunt Nergigante"},
	}

	ids := func(qs []Quest) []string {
		out := []string{}
		for _, q := range qs {
			out = append(out, q.ID)
		}
		return out
	}

	assert.Equal(t, []string{"1", "2", "3"}, ids(Filter{Tab: TabAll}.Apply(quests)))
	assert.Equal(t, []string{"2", "3"}, ids(Filter{Tab: TabActive}.Apply(quests)))
	assert.Equal(t, []string{"1"}, ids(Filter{Tab: TabCompleted}.Apply(quests)))
	assert.Equal(t, []string{"1", "3"}, ids(Filter{Search: "HUNT"}.Apply(quests)))
	assert.Equal(t, []string{"3"}, ids(Filter{Search: "hunt", Tab: TabActive}.Apply(quests)))
}
