package docstore

import (
	"context"
	"sync"
)

// EventType describes the nature of a change notification.
type EventType int

const (
	// EventChanged indicates documents at or below Path were written or removed.
	EventChanged EventType = iota

	// EventInvalidated signals a change the store could not attribute to a
	// path (another process wrote, or connectivity came back). Watchers should
	// re-read everything they follow.
	EventInvalidated
)

// Event is emitted by Store.Watch.
type Event struct {
	Type EventType
	Path string
}

// Hub fans change events out to watchers. Each watcher has room for one
// pending event; when one is already pending further events are dropped,
// since the pending one already makes the watcher re-read the latest state.
type Hub struct {
	mu     sync.Mutex
	subs   map[*watcher]struct{}
	closed bool
	done   chan struct{}
}

type watcher struct {
	prefix string
	ch     chan Event
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[*watcher]struct{}), done: make(chan struct{})}
}

// Subscribe registers a watcher for prefix. The channel closes when ctx is
// done or the hub is closed.
func (h *Hub) Subscribe(ctx context.Context, prefix string) <-chan Event {
	w := &watcher{prefix: prefix, ch: make(chan Event, 1)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(w.ch)
		return w.ch
	}
	h.subs[w] = struct{}{}
	h.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			h.remove(w)
		case <-h.done:
		}
	}()
	return w.ch
}

func (h *Hub) remove(w *watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[w]; !ok {
		return
	}
	delete(h.subs, w)
	close(w.ch)
}

// Publish notifies watchers whose prefix covers any of paths. A path that is
// a parent of the watched prefix (a whole collection removed) also matches.
func (h *Hub) Publish(paths ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for w := range h.subs {
		for _, p := range paths {
			if Under(p, w.prefix) || Under(w.prefix, p) {
				send(w.ch, Event{Type: EventChanged, Path: p})
				break
			}
		}
	}
}

// Invalidate notifies every watcher.
func (h *Hub) Invalidate() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for w := range h.subs {
		send(w.ch, Event{Type: EventInvalidated})
	}
}

// Close closes every watcher channel; later subscriptions close immediately.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.done)
	for w := range h.subs {
		delete(h.subs, w)
		close(w.ch)
	}
}

func send(ch chan Event, ev Event) {
	select {
	case ch <- ev:
	default:
	}
}
