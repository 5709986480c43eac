package realtime

import (
	"context"
	"sync"
)

// Follower keeps exactly one subscription open for whichever account is
// active, replacing it when the account changes.
type Follower struct {
	ch *Channel

	mu      sync.Mutex
	current *Subscription
}

func NewFollower(ch *Channel) *Follower {
	return &Follower{ch: ch}
}

// Follow tears down the current subscription, then subscribes to key. An
// empty key only tears down and returns nil.
func (f *Follower) Follow(ctx context.Context, key string) (*Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.current != nil {
		f.current.Cancel()
		f.current = nil
	}
	if key == "" {
		return nil, nil
	}
	sub, err := f.ch.Subscribe(ctx, key)
	if err != nil {
		return nil, err
	}
	f.current = sub
	return sub, nil
}

// Current is the open subscription, or nil.
func (f *Follower) Current() *Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Close tears down the current subscription.
func (f *Follower) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current != nil {
		f.current.Cancel()
		f.current = nil
	}
}
