package account

import (
	"context"
	"sync"
	"time"

	"tableflip.dev/questlog/pkg/identity"
)

// DefaultDebounce is how long typing must pause before a lookup runs.
const DefaultDebounce = 500 * time.Millisecond

// Preview is the outcome of one debounced lookup. Profile is nil when the
// name is free (or too short to look up).
type Preview struct {
	Name    string
	Profile *Profile
	Err     error
}

type previewFunc func(ctx context.Context, raw string) (*Profile, error)

// Previewer debounces name lookups while a name is being typed. Only the
// lookup for the latest input is ever delivered.
type Previewer struct {
	lookup previewFunc
	delay  time.Duration

	mu     sync.Mutex
	gen    uint64
	timer  *time.Timer
	cancel context.CancelFunc
	closed bool
	out    chan Preview
}

// NewPreviewer debounces r.Preview by delay (DefaultDebounce when zero).
func NewPreviewer(r *Resolver, delay time.Duration) *Previewer {
	return newPreviewer(r.Preview, delay)
}

func newPreviewer(lookup previewFunc, delay time.Duration) *Previewer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Previewer{
		lookup: lookup,
		delay:  delay,
		out:    make(chan Preview, 1),
	}
}

// Results delivers previews, newest replacing any undelivered one. It is
// closed by Close.
func (p *Previewer) Results() <-chan Preview {
	return p.out
}

// Type records the current input. Pending or running lookups for earlier
// input are abandoned.
func (p *Previewer) Type(raw string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.gen++
	gen := p.gen
	p.stopLocked()

	if len([]rune(identity.DisplayName(raw))) < identity.MinNameLength {
		p.deliverLocked(Preview{Name: raw})
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.timer = time.AfterFunc(p.delay, func() {
		profile, err := p.lookup(ctx, raw)
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.closed || gen != p.gen {
			return
		}
		p.deliverLocked(Preview{Name: raw, Profile: profile, Err: err})
	})
}

// Close stops pending work and closes Results.
func (p *Previewer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.stopLocked()
	close(p.out)
}

func (p *Previewer) stopLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// deliverLocked replaces an unread preview with pv. Only holders of p.mu
// send, so the second send cannot block.
func (p *Previewer) deliverLocked(pv Preview) {
	select {
	case p.out <- pv:
	default:
		select {
		case <-p.out:
		default:
		}
		p.out <- pv
	}
}
