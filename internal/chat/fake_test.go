package chat

import (
	"sync"
	"testing"
	"time"

	"github.com/matheus3301/volchat/internal/status"
)

// collector records dispatched messages per conversation.
type collector struct {
	mu   sync.Mutex
	msgs map[string][]Message
	got  chan struct{}
}

func newCollector() *collector {
	return &collector{msgs: make(map[string][]Message), got: make(chan struct{}, 256)}
}

func (c *collector) Dispatch(id string, m Message) {
	c.mu.Lock()
	c.msgs[id] = append(c.msgs[id], m)
	c.mu.Unlock()
	c.got <- struct{}{}
}

func (c *collector) Messages(id string) []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.msgs[id]...)
}

func (c *collector) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-c.got:
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout waiting for message %d of %d", i+1, n)
		}
	}
}

func waitState(t *testing.T, ch *Channel, want status.State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ch.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("channel %s state = %s, want %s", ch.ID(), ch.State(), want)
}

func waitFor(t *testing.T, desc string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s", desc)
}
