package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultGenericTTL = 6 * time.Second
	DefaultMessageTTL = 4 * time.Second
	// FadeDuration is the tail of a popup's lifetime during which it is drawn dimmed.
	FadeDuration = time.Second
	// HistoryLimit bounds the popups kept for History.
	HistoryLimit = 200
)

// Popup is a transient notification on screen.
type Popup struct {
	ID      string
	Kind    Kind
	Title   string
	Body    string
	ShownAt time.Time
	Expires time.Time
}

// Fading reports whether the popup is in its final fade interval.
func (p Popup) Fading(now time.Time) bool {
	return !now.Before(p.Expires.Add(-FadeDuration))
}

// Presenter keeps the stack of visible popups. Popups expire on their own;
// expired ones are pruned lazily on the next read or write. Every shown popup
// is also kept in a bounded history.
type Presenter struct {
	mu      sync.Mutex
	ttl     map[Kind]time.Duration
	popups  []Popup
	history []Popup
	shown   uint64
	watchCh chan Popup
	now     func() time.Time
}

// NewPresenter creates a presenter. Non-positive lifetimes use the defaults.
func NewPresenter(genericTTL, messageTTL time.Duration) *Presenter {
	if genericTTL <= 0 {
		genericTTL = DefaultGenericTTL
	}
	if messageTTL <= 0 {
		messageTTL = DefaultMessageTTL
	}
	return &Presenter{
		ttl: map[Kind]time.Duration{
			KindGeneric: genericTTL,
			KindMessage: messageTTL,
		},
		watchCh: make(chan Popup, 8),
		now:     time.Now,
	}
}

// TTL returns the lifetime of popups of the given kind.
func (p *Presenter) TTL(kind Kind) time.Duration {
	if d, ok := p.ttl[kind]; ok {
		return d
	}
	return DefaultGenericTTL
}

// Show adds a popup for evt and returns it.
func (p *Presenter) Show(evt Event) Popup {
	now := p.now()
	pop := Popup{
		ID:      uuid.NewString(),
		Kind:    evt.Kind,
		Title:   evt.Title,
		Body:    evt.Body,
		ShownAt: now,
		Expires: now.Add(p.TTL(evt.Kind)),
	}
	p.mu.Lock()
	p.pruneLocked(now)
	p.popups = append(p.popups, pop)
	p.history = append(p.history, pop)
	if n := len(p.history) - HistoryLimit; n > 0 {
		p.history = append(p.history[:0], p.history[n:]...)
	}
	p.shown++
	p.mu.Unlock()

	select {
	case p.watchCh <- pop:
	default:
	}
	return pop
}

// Active returns the unexpired popups, oldest first.
func (p *Presenter) Active() []Popup {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pruneLocked(p.now())
	return append([]Popup(nil), p.popups...)
}

// History returns the last HistoryLimit popups shown, newest first. Expiry
// and Dismiss do not remove entries.
func (p *Presenter) History() []Popup {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Popup, len(p.history))
	for i, pop := range p.history {
		out[len(out)-1-i] = pop
	}
	return out
}

// Shown returns how many popups have been shown so far.
func (p *Presenter) Shown() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shown
}

// Dismiss removes a popup before it expires.
func (p *Presenter) Dismiss(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, pop := range p.popups {
		if pop.ID == id {
			p.popups = append(p.popups[:i], p.popups[i+1:]...)
			return true
		}
	}
	return false
}

// Watch returns a channel that receives shown popups. Sends never block, so a
// slow reader misses popups during a burst; History keeps all of them.
func (p *Presenter) Watch() <-chan Popup {
	return p.watchCh
}

func (p *Presenter) pruneLocked(now time.Time) {
	kept := p.popups[:0]
	for _, pop := range p.popups {
		if now.Before(pop.Expires) {
			kept = append(kept, pop)
		}
	}
	for i := len(kept); i < len(p.popups); i++ {
		p.popups[i] = Popup{}
	}
	p.popups = kept
}
