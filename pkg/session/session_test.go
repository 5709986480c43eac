package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	_, ok, err := s.Load()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save("super-hunter"))

	// A second handle on the same directory sees it, as after a restart.
	again, err := Open(dir)
	require.NoError(t, err)
	key, ok, err := again.Load()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "super-hunter", key)

	require.NoError(t, again.Clear())
	require.NoError(t, again.Clear(), "clearing twice is fine")
	_, ok, err = again.Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveRejectsEmptyKey(t *testing.T) {
	s := NewMemory()
	assert.Error(t, s.Save(""))
}

func TestOpenRequiresDirectory(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestBootstrapSignInClosesReady(t *testing.T) {
	b := NewBootstrap(NewMemory())

	select {
	case <-b.Ready():
		t.Fatal("ready before sign in")
	default:
	}

	require.NoError(t, b.SignIn(context.Background()))
	select {
	case <-b.Ready():
	case <-time.After(time.Second):
		t.Fatal("ready not closed")
	}
	assert.NotEmpty(t, b.Subject())

	// Idempotent.
	require.NoError(t, b.SignIn(context.Background()))
}

func TestBootstrapReusesStoredCredential(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	first := NewBootstrap(s)
	require.NoError(t, first.SignIn(context.Background()))

	s2, err := Open(dir)
	require.NoError(t, err)
	second := NewBootstrap(s2)
	require.NoError(t, second.SignIn(context.Background()))

	assert.Equal(t, first.Subject(), second.Subject())
}

func TestBootstrapVerify(t *testing.T) {
	mem := NewMemory()
	b := NewBootstrap(mem)
	require.NoError(t, b.SignIn(context.Background()))

	token, err := mem.d.Read(credentialKey)
	require.NoError(t, err)
	subject, err := b.Verify(string(token))
	require.NoError(t, err)
	assert.Equal(t, b.Subject(), subject)

	other := NewBootstrap(NewMemory())
	require.NoError(t, other.SignIn(context.Background()))
	_, err = other.Verify(string(token))
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = b.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestBootstrapHonoursCancelledContext(t *testing.T) {
	b := NewBootstrap(NewMemory())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, b.SignIn(ctx), context.Canceled)
}
