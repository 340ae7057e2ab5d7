package notify

import (
	"strconv"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestPresenter(generic, message time.Duration) (*Presenter, *fakeClock) {
	clk := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	p := NewPresenter(generic, message)
	p.now = clk.Now
	return p, clk
}

func TestPresenterDefaults(t *testing.T) {
	p := NewPresenter(0, -1)
	if p.TTL(KindGeneric) != DefaultGenericTTL {
		t.Errorf("generic ttl = %v", p.TTL(KindGeneric))
	}
	if p.TTL(KindMessage) != DefaultMessageTTL {
		t.Errorf("message ttl = %v", p.TTL(KindMessage))
	}
}

func TestPresenterExpiresPerKind(t *testing.T) {
	p, clk := newTestPresenter(0, 0)
	p.Show(Event{Kind: KindGeneric, Title: "g"})
	p.Show(Event{Kind: KindMessage, Title: "m"})

	if got := len(p.Active()); got != 2 {
		t.Fatalf("active = %d, want 2", got)
	}

	clk.Advance(DefaultMessageTTL)
	active := p.Active()
	if len(active) != 1 || active[0].Title != "g" {
		t.Fatalf("after message ttl active = %+v", active)
	}

	clk.Advance(DefaultGenericTTL - DefaultMessageTTL)
	if got := len(p.Active()); got != 0 {
		t.Errorf("after generic ttl active = %d, want 0", got)
	}
}

func TestPresenterOrderAndFade(t *testing.T) {
	p, clk := newTestPresenter(5*time.Second, 0)
	first := p.Show(Event{Kind: KindGeneric, Title: "first"})
	clk.Advance(time.Second)
	p.Show(Event{Kind: KindGeneric, Title: "second"})

	active := p.Active()
	if len(active) != 2 || active[0].Title != "first" || active[1].Title != "second" {
		t.Fatalf("active = %+v", active)
	}
	if first.Fading(clk.Now()) {
		t.Error("popup fading too early")
	}
	clk.Advance(3 * time.Second)
	if !first.Fading(clk.Now()) {
		t.Error("popup not fading in its last second")
	}
}

func TestPresenterDismissAndWatch(t *testing.T) {
	p, _ := newTestPresenter(0, 0)
	pop := p.Show(Event{Kind: KindMessage, Title: "m"})

	select {
	case got := <-p.Watch():
		if got.ID != pop.ID {
			t.Errorf("watched %s, want %s", got.ID, pop.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for watch")
	}

	if !p.Dismiss(pop.ID) {
		t.Fatal("Dismiss returned false")
	}
	if p.Dismiss(pop.ID) {
		t.Error("second Dismiss returned true")
	}
	if got := len(p.Active()); got != 0 {
		t.Errorf("active = %d after dismiss", got)
	}
}

func TestPresenterHistoryKeepsBurst(t *testing.T) {
	p, clk := newTestPresenter(0, 0)
	// Nobody reads Watch, so its buffer fills long before the burst ends.
	for i := 0; i < HistoryLimit+5; i++ {
		p.Show(Event{Kind: KindGeneric, Title: "n", Body: strconv.Itoa(i)})
	}
	clk.Advance(time.Minute)

	if got := p.Shown(); got != HistoryLimit+5 {
		t.Errorf("Shown = %d, want %d", got, HistoryLimit+5)
	}
	h := p.History()
	if len(h) != HistoryLimit {
		t.Fatalf("history len = %d, want %d", len(h), HistoryLimit)
	}
	if h[0].Body != strconv.Itoa(HistoryLimit+4) || h[len(h)-1].Body != "5" {
		t.Errorf("history spans %s..%s, want newest first", h[0].Body, h[len(h)-1].Body)
	}
	if len(p.Active()) != 0 {
		t.Error("expired popups still active")
	}
}

func TestIndicators(t *testing.T) {
	ind := NewIndicators()
	ind.Set(KindGeneric)
	if !ind.Get(KindGeneric) || ind.Get(KindMessage) {
		t.Fatalf("snapshot = %v", ind.Snapshot())
	}
	if !ind.Clear(KindGeneric) {
		t.Error("Clear returned false for raised indicator")
	}
	if ind.Clear(KindGeneric) {
		t.Error("Clear returned true for lowered indicator")
	}
	snap := ind.Snapshot()
	if len(snap) != 2 || snap[KindGeneric] || snap[KindMessage] {
		t.Errorf("snapshot = %v", snap)
	}
}
