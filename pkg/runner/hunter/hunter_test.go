package hunter

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/questlog/pkg/account"
	"tableflip.dev/questlog/pkg/docstore/memory"
	"tableflip.dev/questlog/pkg/errs"
	"tableflip.dev/questlog/pkg/icons"
	"tableflip.dev/questlog/pkg/quest"
	"tableflip.dev/questlog/pkg/session"
)

type fixture struct {
	out       bytes.Buffer
	session   *session.DiskStore
	resolver  *account.Resolver
	lifecycle *account.Lifecycle
	quests    *quest.Manager
	catalog   *icons.Catalog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	store := memory.New()
	t.Cleanup(func() { _ = store.Close() })
	f := &fixture{session: session.NewMemory()}
	f.resolver = account.NewResolver(store, f.session, nil, zerolog.Nop())
	f.lifecycle = account.NewLifecycle(store, f.session, zerolog.Nop())
	f.quests = quest.NewManager(store, f.session)
	f.catalog = icons.New(icons.WithURLs("http://127.0.0.1:1/listing", "http://127.0.0.1:1/assets"))
	return f
}

func (f *fixture) login(t *testing.T, name string) {
	t.Helper()
	l := Login{Name: name, Out: &f.out, Resolver: f.resolver, Catalog: f.catalog}
	require.NoError(t, l.Do(context.Background()))
}

func TestLoginRegistersThenWelcomesBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	l := Login{Name: "Ash Ketchum", Avatar: "nergigante", Out: &f.out, Resolver: f.resolver, Catalog: f.catalog}
	require.NoError(t, l.Do(ctx))
	assert.Equal(t, "Welcome to the guild, Ash Ketchum @ash-ketchum\n", f.out.String())

	f.out.Reset()
	l = Login{Name: "ash ketchum", JSON: true, Out: &f.out, Resolver: f.resolver}
	require.NoError(t, l.Do(ctx))
	var res account.Result
	require.NoError(t, json.Unmarshal(f.out.Bytes(), &res))
	assert.Equal(t, account.ModeLogin, res.Mode)
	assert.Equal(t, "Ash Ketchum", res.Profile.DisplayName)
	assert.Equal(t, "Nergigante_Icon.webp", res.Profile.AvatarID)
}

func TestLoginRejectsUnknownAvatar(t *testing.T) {
	f := newFixture(t)
	l := Login{Name: "Ash Ketchum", Avatar: "Pikachu", Out: &f.out, Resolver: f.resolver, Catalog: f.catalog}
	err := l.Do(context.Background())
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, ok, lerr := f.session.Load()
	require.NoError(t, lerr)
	assert.False(t, ok)
}

func TestWhoAmI(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	w := WhoAmI{Out: &f.out, Lifecycle: f.lifecycle, Quests: f.quests}
	assert.ErrorIs(t, w.Do(ctx), errs.ErrNoAccount)

	f.login(t, "Misty")
	q, err := f.quests.Create(ctx, quest.Fields{Name: "Fish", Difficulty: 3})
	require.NoError(t, err)
	_, err = f.quests.ToggleCompletion(ctx, q.ID)
	require.NoError(t, err)

	f.out.Reset()
	w.JSON = true
	require.NoError(t, w.Do(ctx))
	var h Hunter
	require.NoError(t, json.Unmarshal(f.out.Bytes(), &h))
	assert.Equal(t, "misty", h.Key)
	assert.Equal(t, 30, h.Progress.Points)
}

func TestAvatar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.login(t, "Brock")

	a := Avatar{Icon: "Great Jagras", Out: &f.out, Lifecycle: f.lifecycle, Catalog: f.catalog}
	require.NoError(t, a.Do(ctx))
	_, p, err := f.lifecycle.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Great_Jagras_Icon.webp", p.AvatarID)

	a.Icon = "Nope"
	assert.ErrorIs(t, a.Do(ctx), errs.ErrValidation)
}

func TestDestructiveRunnersNeedConfirmation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.login(t, "Brock")
	_, err := f.quests.Create(ctx, quest.Fields{Name: "Rock"})
	require.NoError(t, err)

	r := Reset{Out: &f.out, Lifecycle: f.lifecycle}
	assert.ErrorIs(t, r.Do(ctx), ErrNotConfirmed)
	d := Delete{Out: &f.out, Lifecycle: f.lifecycle}
	assert.ErrorIs(t, d.Do(ctx), ErrNotConfirmed)

	quests, err := f.quests.List(ctx)
	require.NoError(t, err)
	assert.Len(t, quests, 1)

	r.Confirmed = true
	require.NoError(t, r.Do(ctx))
	quests, err = f.quests.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, quests)

	d.Confirmed = true
	require.NoError(t, d.Do(ctx))
	_, ok, err := f.session.Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	f.login(t, "Brock")
	f.out.Reset()

	l := Logout{Out: &f.out, Lifecycle: f.lifecycle}
	require.NoError(t, l.Do(context.Background()))
	assert.Equal(t, "Logged out.\n", f.out.String())
}
