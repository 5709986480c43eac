package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"tableflip.dev/questlog/pkg/docstore"
	"tableflip.dev/questlog/pkg/errs"
	"tableflip.dev/questlog/pkg/identity"
	"tableflip.dev/questlog/pkg/session"
	"tableflip.dev/questlog/pkg/timeutil"
)

// Mode says whether Resolve created the account or found it.
type Mode string

const (
	ModeRegister Mode = "register"
	ModeLogin    Mode = "login"
)

// Result is the outcome of a successful Resolve.
type Result struct {
	Mode    Mode     `json:"mode"`
	Key     string   `json:"key"`
	Profile *Profile `json:"profile"`
}

// Resolver turns a display name into an account and makes it the active
// session.
type Resolver struct {
	store   docstore.Store
	session session.Store
	now     func() time.Time
	logger  zerolog.Logger
}

// NewResolver builds a Resolver. A nil now uses time.Now.
func NewResolver(store docstore.Store, s session.Store, now func() time.Time, logger zerolog.Logger) *Resolver {
	if now == nil {
		now = time.Now
	}
	return &Resolver{store: store, session: s, now: now, logger: logger}
}

// Resolve logs into the account raw normalizes to, registering it first when
// nobody has claimed that key. avatar only applies to a registration; an
// existing profile is returned exactly as stored.
//
// Registration relies on the store's create-if-absent, so two devices
// resolving the same new name at once produce one profile: one of them
// registers, the other logs in.
func (r *Resolver) Resolve(ctx context.Context, raw, avatar string) (Result, error) {
	if err := identity.Validate(raw); err != nil {
		return Result{}, err
	}
	key := identity.Normalize(raw)
	if avatar == "" {
		avatar = DefaultAvatar
	}

	fresh := &Profile{
		DisplayName: identity.DisplayName(raw),
		AvatarID:    avatar,
		CreatedAt:   timeutil.At(r.now()),
	}

	res := Result{Key: key}
	err := r.store.Create(ctx, ProfilePath(key), fresh)
	switch {
	case err == nil:
		res.Mode = ModeRegister
		res.Profile = fresh
	case errors.Is(err, errs.ErrAlreadyExists):
		doc, err := r.store.Get(ctx, ProfilePath(key))
		if err != nil {
			return Result{}, fmt.Errorf("resolve %s: %w", key, err)
		}
		existing, err := FromDocument(doc)
		if err != nil {
			return Result{}, err
		}
		res.Mode = ModeLogin
		res.Profile = existing
	default:
		return Result{}, fmt.Errorf("resolve %s: %w", key, err)
	}

	if err := r.session.Save(key); err != nil {
		return Result{}, err
	}
	r.logger.Info().Str("account", key).Str("mode", string(res.Mode)).Msg("account resolved")
	return res, nil
}

// Preview looks up the profile raw would resolve to without writing
// anything. Names too short to be valid and unknown keys yield nil.
func (r *Resolver) Preview(ctx context.Context, raw string) (*Profile, error) {
	if len([]rune(identity.DisplayName(raw))) < identity.MinNameLength {
		return nil, nil
	}
	doc, err := r.store.Get(ctx, ProfilePath(identity.Normalize(raw)))
	if errors.Is(err, errs.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return FromDocument(doc)
}
