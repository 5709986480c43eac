package app

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/questlog/pkg/config"
	"tableflip.dev/questlog/pkg/errs"
	"tableflip.dev/questlog/pkg/quest"
	"tableflip.dev/questlog/pkg/timeutil"
)

func startService(t *testing.T) *Service {
	t.Helper()
	cfg := &config.Config{
		StoreDriver:         config.DriverMemory,
		OnlineCheckInterval: -1,
		IconsListingURL:     "http://127.0.0.1:1/icons",
		IconsAssetsURL:      "http://127.0.0.1:1/assets",
	}
	svc, err := New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, svc.Close()) })
	return svc
}

func TestNewSignsInDevice(t *testing.T) {
	svc := startService(t)
	select {
	case <-svc.Bootstrap.Ready():
	default:
		t.Fatal("device session not established on start")
	}
	assert.NotEmpty(t, svc.Bootstrap.Subject())
	subject, err := svc.Bootstrap.Verify(svc.Bootstrap.Credential())
	require.NoError(t, err)
	assert.Equal(t, svc.Bootstrap.Subject(), subject)
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), &config.Config{StoreDriver: "postgres"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestServiceEndToEnd(t *testing.T) {
	svc := startService(t)
	ctx := context.Background()

	_, err := svc.Watch(ctx)
	assert.ErrorIs(t, err, errs.ErrNoAccount)

	_, err = svc.Resolver.Resolve(ctx, "Ash Ketchum", "")
	require.NoError(t, err)

	q, err := svc.Quests.Create(ctx, quest.Fields{Name: "Slay a Rathian", Difficulty: 5})
	require.NoError(t, err)
	_, err = svc.Quests.ToggleCompletion(ctx, q.ID)
	require.NoError(t, err)

	quests, snap, err := svc.Progress(ctx)
	require.NoError(t, err)
	assert.Len(t, quests, 1)
	assert.Equal(t, 50, snap.Points)

	sub, err := svc.Watch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ash-ketchum", sub.Key())
	sub.Cancel()
}

func TestExport(t *testing.T) {
	svc := startService(t)
	ctx := context.Background()

	_, err := svc.Export(ctx)
	assert.ErrorIs(t, err, errs.ErrNoAccount)

	_, err = svc.Resolver.Resolve(ctx, "Misty", "Nergigante_Icon.webp")
	require.NoError(t, err)

	out, err := svc.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, "misty", out.Key)
	require.NotNil(t, out.Profile)
	assert.Equal(t, "Nergigante_Icon.webp", out.Profile.AvatarID)
	assert.NotNil(t, out.Quests)
	assert.Empty(t, out.Quests)
	assert.Equal(t, 1, out.Progress.Rank)
}

func completedAt(name string, stars int, at time.Time) quest.Quest {
	return quest.Quest{
		ID:          name,
		Name:        name,
		Difficulty:  stars,
		Completed:   true,
		CompletedAt: timeutil.Ptr(at),
	}
}

func TestBuildReport(t *testing.T) {
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	quests := []quest.Quest{
		completedAt("easy", 1, base.Add(-time.Hour)),
		completedAt("hard", 9, base.Add(-2*time.Hour)),
		completedAt("hard-later", 9, base.Add(-30*time.Minute)),
		completedAt("too-old", 5, base.Add(-72*time.Hour)),
		{ID: "open", Name: "open", Difficulty: 3},
		{ID: "legacy", Name: "legacy", Completed: true},
	}

	r := BuildReport(quests, base, base.Add(-24*time.Hour))
	assert.Equal(t, base.Add(-24*time.Hour), r.Since)
	assert.Equal(t, base, r.Until)
	assert.Equal(t, 3, r.Total)
	assert.Equal(t, 190, r.Points)

	require.Len(t, r.Sections, 2)
	assert.Equal(t, 9, r.Sections[0].Stars)
	assert.Equal(t, 180, r.Sections[0].Points)
	require.Len(t, r.Sections[0].Quests, 2)
	assert.Equal(t, "hard-later", r.Sections[0].Quests[0].Quest.Name)
	assert.Equal(t, 1, r.Sections[1].Stars)
}

func TestBuildReportEmpty(t *testing.T) {
	now := time.Now()
	r := BuildReport(nil, now.Add(-time.Hour), now)
	assert.Zero(t, r.Total)
	assert.NotNil(t, r.Sections)
	assert.Empty(t, r.Sections)

	raw, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"sections":[]`)
}

func TestServiceReport(t *testing.T) {
	svc := startService(t)
	ctx := context.Background()
	_, err := svc.Resolver.Resolve(ctx, "Brock", "")
	require.NoError(t, err)

	q, err := svc.Quests.Create(ctx, quest.Fields{Name: "Capture a Kulu-Ya-Ku", Difficulty: 2})
	require.NoError(t, err)
	_, err = svc.Quests.ToggleCompletion(ctx, q.ID)
	require.NoError(t, err)

	now := time.Now()
	r, err := svc.Report(ctx, now.Add(-time.Hour), now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, r.Total)
	assert.Equal(t, 20, r.Points)
}
