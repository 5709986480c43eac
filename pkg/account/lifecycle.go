package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"tableflip.dev/questlog/pkg/docstore"
	"tableflip.dev/questlog/pkg/errs"
	"tableflip.dev/questlog/pkg/quest"
	"tableflip.dev/questlog/pkg/session"
)

// Lifecycle runs the destructive and session-level operations on the
// active account. Failures are returned as-is and never retried; when a
// store write fails the session is left untouched.
type Lifecycle struct {
	store   docstore.Store
	session session.Store
	logger  zerolog.Logger
}

func NewLifecycle(store docstore.Store, s session.Store, logger zerolog.Logger) *Lifecycle {
	return &Lifecycle{store: store, session: s, logger: logger}
}

func (l *Lifecycle) active() (string, error) {
	key, ok, err := l.session.Load()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errs.ErrNoAccount
	}
	return key, nil
}

// Active returns the logged-in key and its profile. The profile is nil if
// the account was deleted from another device.
func (l *Lifecycle) Active(ctx context.Context) (string, *Profile, error) {
	key, err := l.active()
	if err != nil {
		return "", nil, err
	}
	doc, err := l.store.Get(ctx, ProfilePath(key))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return key, nil, nil
		}
		return "", nil, err
	}
	p, err := FromDocument(doc)
	if err != nil {
		return "", nil, err
	}
	return key, p, nil
}

// Logout forgets the active account on this device. Remote data is kept.
func (l *Lifecycle) Logout() error {
	if err := l.session.Clear(); err != nil {
		return err
	}
	l.logger.Info().Msg("logged out")
	return nil
}

// ResetProgress deletes every quest of the active account in one atomic
// batch. The profile stays.
func (l *Lifecycle) ResetProgress(ctx context.Context) error {
	key, err := l.active()
	if err != nil {
		return err
	}
	b := docstore.NewBatch().DeleteCollection(quest.Collection(key))
	if err := l.store.Commit(ctx, b); err != nil {
		return fmt.Errorf("reset progress of %s: %w", key, err)
	}
	l.logger.Info().Str("account", key).Msg("progress reset")
	return nil
}

// DeleteAccount removes every quest and the profile in one atomic batch,
// then logs out. Afterwards the key is free to be registered again.
func (l *Lifecycle) DeleteAccount(ctx context.Context) error {
	key, err := l.active()
	if err != nil {
		return err
	}
	b := docstore.NewBatch().
		DeleteCollection(quest.Collection(key)).
		Delete(ProfilePath(key))
	if err := l.store.Commit(ctx, b); err != nil {
		return fmt.Errorf("delete account %s: %w", key, err)
	}
	l.logger.Info().Str("account", key).Msg("account deleted")
	return l.Logout()
}

// UpdateAvatar changes the active account's avatar.
func (l *Lifecycle) UpdateAvatar(ctx context.Context, avatar string) error {
	key, err := l.active()
	if err != nil {
		return err
	}
	avatar = strings.TrimSpace(avatar)
	if avatar == "" {
		return errs.Invalid("avatar", "choose an icon")
	}
	if err := l.store.Update(ctx, ProfilePath(key), map[string]any{"avatarId": avatar}); err != nil {
		return fmt.Errorf("update avatar of %s: %w", key, err)
	}
	return nil
}
