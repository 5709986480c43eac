// Package realtime streams an account's profile and quests as full
// snapshots, re-reading whenever the store reports a change.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tableflip.dev/questlog/pkg/account"
	"tableflip.dev/questlog/pkg/docstore"
	"tableflip.dev/questlog/pkg/errs"
	"tableflip.dev/questlog/pkg/progress"
	"tableflip.dev/questlog/pkg/quest"
)

// DefaultCheckInterval is how often an open subscription probes the store.
const DefaultCheckInterval = 5 * time.Second

// Connectivity is the health of a subscription's link to the store.
type Connectivity int

const (
	Online Connectivity = iota
	// Degraded means reads are failing. The last snapshots delivered are
	// still the latest known state.
	Degraded
)

func (c Connectivity) String() string {
	if c == Degraded {
		return "degraded"
	}
	return "online"
}

// ProfileSnapshot replaces any previous profile. Profile is nil when the
// account has no profile (deleted, or not yet created).
type ProfileSnapshot struct {
	Profile *account.Profile `json:"profile"`
}

// QuestSnapshot replaces any previous quest list. Quests come from a single
// query, newest first, and Progress is computed from exactly those quests.
type QuestSnapshot struct {
	Quests   []quest.Quest     `json:"quests"`
	Progress progress.Snapshot `json:"progress"`
}

// Gate is closed once the device session is established.
type Gate interface {
	Ready() <-chan struct{}
}

// Channel opens subscriptions on a store.
type Channel struct {
	store    docstore.Store
	gate     Gate
	interval time.Duration
	logger   zerolog.Logger
}

// NewChannel returns a Channel. A zero interval uses DefaultCheckInterval; a
// negative one disables the periodic probe.
func NewChannel(store docstore.Store, gate Gate, interval time.Duration, logger zerolog.Logger) *Channel {
	if interval == 0 {
		interval = DefaultCheckInterval
	}
	return &Channel{store: store, gate: gate, interval: interval, logger: logger}
}

// Subscription delivers snapshots for one account until cancelled.
type Subscription struct {
	key      string
	profiles chan ProfileSnapshot
	quests   chan QuestSnapshot
	conn     chan Connectivity

	cancel context.CancelFunc
	group  *errgroup.Group
	done   chan struct{}
	once   sync.Once

	mu       sync.Mutex
	degraded bool
	kicks    []chan struct{}

	logger zerolog.Logger
}

// Subscribe waits for the session gate, then follows key's profile and
// quests. The first snapshot of each arrives without any change having
// happened. Cancelling ctx or calling Cancel ends the subscription.
//
// Snapshot deliveries block until received, so callers must drain Profiles
// and Quests. Connectivity holds only the latest state and never blocks.
func (c *Channel) Subscribe(ctx context.Context, key string) (*Subscription, error) {
	if key == "" {
		return nil, errs.ErrNoAccount
	}
	if c.gate != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.gate.Ready():
		}
	}

	subCtx, cancel := context.WithCancel(ctx)

	// Watch before the first read so nothing written in between is missed.
	profileEvents, err := c.store.Watch(subCtx, account.ProfilePath(key))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe %s: %w", key, err)
	}
	questEvents, err := c.store.Watch(subCtx, quest.Collection(key))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe %s: %w", key, err)
	}

	g, gctx := errgroup.WithContext(subCtx)
	s := &Subscription{
		key:      key,
		profiles: make(chan ProfileSnapshot),
		quests:   make(chan QuestSnapshot),
		conn:     make(chan Connectivity, 1),
		cancel:   cancel,
		group:    g,
		done:     make(chan struct{}),
		logger:   c.logger.With().Str("account", key).Logger(),
	}
	profileKick := make(chan struct{}, 1)
	questKick := make(chan struct{}, 1)
	s.kicks = []chan struct{}{profileKick, questKick}

	g.Go(func() error {
		return s.pump(gctx, profileEvents, profileKick, func(ctx context.Context) error {
			return s.readProfile(ctx, c.store)
		})
	})
	g.Go(func() error {
		return s.pump(gctx, questEvents, questKick, func(ctx context.Context) error {
			return s.readQuests(ctx, c.store)
		})
	})
	if c.interval > 0 {
		g.Go(func() error {
			return s.probe(gctx, c.store, c.interval)
		})
	}

	// Tear down by ourselves if the caller's context ends first.
	go func() {
		<-subCtx.Done()
		s.Cancel()
	}()

	s.logger.Debug().Msg("subscribed")
	return s, nil
}

// Key is the account this subscription follows.
func (s *Subscription) Key() string { return s.key }

// Profiles delivers profile snapshots.
func (s *Subscription) Profiles() <-chan ProfileSnapshot { return s.profiles }

// Quests delivers quest snapshots.
func (s *Subscription) Quests() <-chan QuestSnapshot { return s.quests }

// Connectivity delivers changes of connectivity. Subscriptions start Online.
// A change not yet received is replaced by the next one.
func (s *Subscription) Connectivity() <-chan Connectivity { return s.conn }

// Done is closed once the subscription has been torn down.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Cancel stops the subscription. When it returns nothing more is delivered
// and every channel is closed. It is safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.cancel()
		if err := s.group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn().Err(err).Msg("subscription ended with error")
		}
		close(s.profiles)
		close(s.quests)
		close(s.conn)
		close(s.done)
		s.logger.Debug().Msg("unsubscribed")
	})
	<-s.done
}

// pump reads once, then again after every change event or kick.
func (s *Subscription) pump(ctx context.Context, events <-chan docstore.Event, kick <-chan struct{}, read func(context.Context) error) error {
	s.refresh(ctx, read)
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-events:
			if !ok {
				return nil
			}
		case <-kick:
		}
		s.refresh(ctx, read)
	}
}

func (s *Subscription) refresh(ctx context.Context, read func(context.Context) error) {
	err := read(ctx)
	switch {
	case err == nil:
	case ctx.Err() != nil:
	case errors.Is(err, errs.ErrConnectivity):
		s.setDegraded(true)
	default:
		s.logger.Warn().Err(err).Msg("snapshot read failed")
	}
}

func (s *Subscription) readProfile(ctx context.Context, store docstore.Store) error {
	snap := ProfileSnapshot{}
	doc, err := store.Get(ctx, account.ProfilePath(s.key))
	switch {
	case errors.Is(err, errs.ErrNotFound):
	case err != nil:
		return err
	default:
		p, err := account.FromDocument(doc)
		if err != nil {
			return err
		}
		snap.Profile = p
	}
	s.setDegraded(false)
	select {
	case s.profiles <- snap:
	case <-ctx.Done():
	}
	return nil
}

func (s *Subscription) readQuests(ctx context.Context, store docstore.Store) error {
	quests, err := quest.Read(ctx, store, s.key)
	if err != nil {
		return err
	}
	s.setDegraded(false)
	select {
	case s.quests <- QuestSnapshot{Quests: quests, Progress: progress.Compute(quests)}:
	case <-ctx.Done():
	}
	return nil
}

// probe pings the store so a dropped connection is noticed even when
// nothing changes.
func (s *Subscription) probe(ctx context.Context, store docstore.Store, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := store.Ping(ctx)
			if ctx.Err() != nil {
				return nil
			}
			s.setDegraded(err != nil)
		}
	}
}

// setDegraded records a connectivity change and reports it. Coming back
// online makes both pumps read again. A pending, unread state is swapped for
// the new one.
func (s *Subscription) setDegraded(degraded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.degraded == degraded {
		return
	}
	s.degraded = degraded

	state := Online
	if degraded {
		state = Degraded
		s.logger.Warn().Msg("store unreachable, keeping last snapshot")
	} else {
		s.logger.Info().Msg("store reachable again")
		for _, k := range s.kicks {
			select {
			case k <- struct{}{}:
			default:
			}
		}
	}
	select {
	case <-s.conn:
	default:
	}
	s.conn <- state
}
