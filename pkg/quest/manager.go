package quest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tableflip.dev/questlog/pkg/docstore"
	"tableflip.dev/questlog/pkg/errs"
	"tableflip.dev/questlog/pkg/timeutil"
)

// KeySource yields the active account key. session.Store satisfies it.
type KeySource interface {
	Load() (key string, ok bool, err error)
}

// Fields are the user-supplied parts of a new quest.
type Fields struct {
	Name       string
	Details    string
	Difficulty int
	IconID     string
	DueAt      *time.Time
}

// Patch changes some fields of a quest. Nil fields are left alone; ClearDue
// removes the deadline. Completion is changed only by ToggleCompletion.
type Patch struct {
	Name       *string
	Details    *string
	Difficulty *int
	IconID     *string
	DueAt      *time.Time
	ClearDue   bool
}

// Empty reports whether the patch would change nothing.
func (p Patch) Empty() bool {
	return p.Name == nil && p.Details == nil && p.Difficulty == nil &&
		p.IconID == nil && p.DueAt == nil && !p.ClearDue
}

// Manager runs quest operations for whichever account the session holds at
// the time of each call.
type Manager struct {
	store  docstore.Store
	keys   KeySource
	now    func() time.Time
	logger zerolog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

func NewManager(store docstore.Store, keys KeySource, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		keys:   keys,
		now:    time.Now,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) account() (string, error) {
	key, ok, err := m.keys.Load()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errs.ErrNoAccount
	}
	return key, nil
}

// Create adds a quest to the active account. Difficulty 0 means the default
// of one star.
func (m *Manager) Create(ctx context.Context, f Fields) (Quest, error) {
	key, err := m.account()
	if err != nil {
		return Quest{}, err
	}
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return Quest{}, errs.Invalid("name", "a quest needs a name")
	}
	difficulty := f.Difficulty
	if difficulty == 0 {
		difficulty = MinDifficulty
	}
	if err := validDifficulty(difficulty); err != nil {
		return Quest{}, err
	}
	icon := f.IconID
	if icon == "" {
		icon = DefaultIcon
	}

	q := Quest{
		Name:       name,
		Details:    strings.TrimSpace(f.Details),
		Difficulty: difficulty,
		IconID:     icon,
		Completed:  false,
		CreatedAt:  timeutil.At(m.now()),
	}
	if f.DueAt != nil {
		q.DueAt = timeutil.Ptr(*f.DueAt)
	}

	id, err := m.store.Add(ctx, Collection(key), q)
	if err != nil {
		return Quest{}, fmt.Errorf("create quest: %w", err)
	}
	q.ID = id
	m.logger.Debug().Str("account", key).Str("quest", id).Msg("quest created")
	return q, nil
}

// Update applies p to the quest. It never touches completion fields.
func (m *Manager) Update(ctx context.Context, id string, p Patch) error {
	key, err := m.account()
	if err != nil {
		return err
	}
	if id == "" {
		return errs.Invalid("id", "missing quest id")
	}

	fields := map[string]any{}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return errs.Invalid("name", "a quest needs a name")
		}
		fields["name"] = name
	}
	if p.Details != nil {
		fields["details"] = strings.TrimSpace(*p.Details)
	}
	if p.Difficulty != nil {
		if err := validDifficulty(*p.Difficulty); err != nil {
			return err
		}
		fields["difficulty"] = *p.Difficulty
	}
	if p.IconID != nil {
		icon := *p.IconID
		if icon == "" {
			icon = DefaultIcon
		}
		fields["iconId"] = icon
	}
	switch {
	case p.ClearDue:
		fields["dueAt"] = nil
	case p.DueAt != nil:
		fields["dueAt"] = timeutil.At(*p.DueAt)
	}
	fields["updatedAt"] = timeutil.At(m.now())

	if err := m.store.Update(ctx, Path(key, id), fields); err != nil {
		return fmt.Errorf("update quest %s: %w", id, err)
	}
	m.logger.Debug().Str("account", key).Str("quest", id).Int("fields", len(fields)-1).Msg("quest updated")
	return nil
}

// ToggleCompletion flips the completed flag. Completing stamps completedAt;
// reopening clears it.
func (m *Manager) ToggleCompletion(ctx context.Context, id string) (Quest, error) {
	key, err := m.account()
	if err != nil {
		return Quest{}, err
	}
	path := Path(key, id)
	doc, err := m.store.Get(ctx, path)
	if err != nil {
		return Quest{}, fmt.Errorf("toggle quest %s: %w", id, err)
	}
	q, err := FromDocument(doc)
	if err != nil {
		return Quest{}, err
	}

	patch := map[string]any{"completed": !q.Completed}
	if q.Completed {
		patch["completedAt"] = nil
		q.Completed = false
		q.CompletedAt = nil
	} else {
		at := timeutil.At(m.now())
		patch["completedAt"] = at
		q.Completed = true
		q.CompletedAt = &at
	}
	if err := m.store.Update(ctx, path, patch); err != nil {
		return Quest{}, fmt.Errorf("toggle quest %s: %w", id, err)
	}
	return q, nil
}

// Delete removes the quest. Removing a quest that is already gone succeeds.
func (m *Manager) Delete(ctx context.Context, id string) error {
	key, err := m.account()
	if err != nil {
		return err
	}
	if id == "" {
		return errs.Invalid("id", "missing quest id")
	}
	if err := m.store.Delete(ctx, Path(key, id)); err != nil {
		return fmt.Errorf("delete quest %s: %w", id, err)
	}
	return nil
}

// Get reads one quest of the active account.
func (m *Manager) Get(ctx context.Context, id string) (Quest, error) {
	key, err := m.account()
	if err != nil {
		return Quest{}, err
	}
	doc, err := m.store.Get(ctx, Path(key, id))
	if err != nil {
		return Quest{}, fmt.Errorf("get quest %s: %w", id, err)
	}
	return FromDocument(doc)
}

// List reads the active account's quests, newest first.
func (m *Manager) List(ctx context.Context) ([]Quest, error) {
	key, err := m.account()
	if err != nil {
		return nil, err
	}
	return Read(ctx, m.store, key)
}

// Read lists the quests of key, newest first, in a single query.
func Read(ctx context.Context, store docstore.Store, key string) ([]Quest, error) {
	docs, err := store.Query(ctx, Collection(key), docstore.Query{OrderBy: OrderField, Descending: true})
	if err != nil {
		return nil, fmt.Errorf("list quests: %w", err)
	}
	quests := make([]Quest, 0, len(docs))
	for _, doc := range docs {
		q, err := FromDocument(doc)
		if err != nil {
			return nil, err
		}
		quests = append(quests, q)
	}
	return quests, nil
}

func validDifficulty(d int) error {
	if d < MinDifficulty || d > MaxDifficulty {
		return errs.Invalid("difficulty", "must be between %d and %d, got %d", MinDifficulty, MaxDifficulty, d)
	}
	return nil
}
