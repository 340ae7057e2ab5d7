package chat

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/matheus3301/volchat/internal/bus"
	"github.com/matheus3301/volchat/internal/status"
	"github.com/matheus3301/volchat/internal/transport"
	"github.com/matheus3301/volchat/internal/transport/transporttest"
	"go.uber.org/zap"
)

func newTestRegistry(t *testing.T) (*Registry, *transporttest.Dialer, *collector) {
	t.Helper()
	d := transporttest.NewDialer()
	c := newCollector()
	r := NewRegistry(d, c.Dispatch, bus.New(), zap.NewNop())
	t.Cleanup(r.Teardown)
	return r, d, c
}

func TestEnsureIsIdempotent(t *testing.T) {
	r, d, _ := newTestRegistry(t)

	first, err := r.Ensure("c1")
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Ensure("c1")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("second Ensure returned a different channel")
	}
	waitState(t, first, status.Open)

	if got := d.Dials(transport.ChatPath("c1")); got != 1 {
		t.Errorf("dials = %d, want 1", got)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestEnsureConcurrentCreatesOne(t *testing.T) {
	r, d, _ := newTestRegistry(t)

	done := make(chan *Channel, 20)
	for i := 0; i < 20; i++ {
		go func() {
			ch, _ := r.Ensure("c1")
			done <- ch
		}()
	}
	var first *Channel
	for i := 0; i < 20; i++ {
		ch := <-done
		if first == nil {
			first = ch
		} else if ch != first {
			t.Fatal("concurrent Ensure returned different channels")
		}
	}
	waitState(t, first, status.Open)
	if got := d.Dials(transport.ChatPath("c1")); got != 1 {
		t.Errorf("dials = %d, want 1", got)
	}
}

func TestEnsureRejectsEmptyID(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	if _, err := r.Ensure(""); !errors.Is(err, ErrEmptyConversationID) {
		t.Errorf("Ensure(\"\") error = %v, want ErrEmptyConversationID", err)
	}
}

func TestInboundScenario(t *testing.T) {
	r, d, c := newTestRegistry(t)

	ch, _ := r.Ensure("c1")
	waitState(t, ch, status.Open)

	d.Conn(transport.ChatPath("c1")).In <- []byte(`{"sender":"u2","message":"hi","timestamp":"2024-01-01T10:00:00Z"}`)
	c.wait(t, 1)

	msgs := c.Messages("c1")
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if msgs[len(msgs)-1].Sender != "u2" {
		t.Errorf("last sender = %q, want u2", msgs[0].Sender)
	}
}

func TestInboundOrderPreserved(t *testing.T) {
	r, d, c := newTestRegistry(t)

	ch, _ := r.Ensure("c1")
	waitState(t, ch, status.Open)

	const n = 50
	conn := d.Conn(transport.ChatPath("c1"))
	for i := 0; i < n; i++ {
		conn.In <- []byte(fmt.Sprintf(`{"sender":"u2","message":"m%d","timestamp":"2024-01-01T10:00:00Z"}`, i))
	}
	c.wait(t, n)

	msgs := c.Messages("c1")
	if len(msgs) != n {
		t.Fatalf("got %d messages, want %d", len(msgs), n)
	}
	for i, m := range msgs {
		if m.Body != fmt.Sprintf("m%d", i) {
			t.Fatalf("msgs[%d] = %q, want m%d", i, m.Body, i)
		}
	}
}

func TestMalformedFrameDropped(t *testing.T) {
	r, d, c := newTestRegistry(t)

	ch, _ := r.Ensure("c1")
	waitState(t, ch, status.Open)

	conn := d.Conn(transport.ChatPath("c1"))
	conn.In <- []byte(`{not json`)
	conn.In <- []byte(`{"message":"no sender","timestamp":"2024-01-01T10:00:00Z"}`)
	conn.In <- []byte(`{"sender":"u2","message":"ok","timestamp":"2024-01-01T10:00:00Z"}`)
	c.wait(t, 1)

	msgs := c.Messages("c1")
	if len(msgs) != 1 || msgs[0].Body != "ok" {
		t.Fatalf("messages = %+v, want only the valid frame", msgs)
	}
	if ch.State() != status.Open {
		t.Errorf("state = %s, want OPEN after malformed frame", ch.State())
	}
}

func TestDispatchPanicContained(t *testing.T) {
	d := transporttest.NewDialer()
	calls := make(chan string, 4)
	r := NewRegistry(d, func(_ string, m Message) {
		calls <- m.Body
		if m.Body == "boom" {
			panic("render failed")
		}
	}, nil, zap.NewNop())
	defer r.Teardown()

	ch, _ := r.Ensure("c1")
	waitState(t, ch, status.Open)

	conn := d.Conn(transport.ChatPath("c1"))
	conn.In <- []byte(`{"sender":"u2","message":"boom","timestamp":"2024-01-01T10:00:00Z"}`)
	conn.In <- []byte(`{"sender":"u2","message":"after","timestamp":"2024-01-01T10:00:01Z"}`)

	for _, want := range []string{"boom", "after"} {
		select {
		case got := <-calls:
			if got != want {
				t.Errorf("dispatch = %q, want %q", got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout waiting for %q", want)
		}
	}
	if ch.State() != status.Open {
		t.Errorf("state = %s, want OPEN after dispatch panic", ch.State())
	}
}

func TestRemoteCloseRemovesChannel(t *testing.T) {
	r, d, _ := newTestRegistry(t)

	ch, _ := r.Ensure("c1")
	waitState(t, ch, status.Open)

	_ = d.Conn(transport.ChatPath("c1")).Close()
	<-ch.Done()

	if ch.State() != status.Closed {
		t.Errorf("state = %s, want CLOSED", ch.State())
	}
	waitFor(t, "registry removal", func() bool { return r.Len() == 0 })

	again, _ := r.Ensure("c1")
	if again == ch {
		t.Fatal("Ensure after close returned the closed channel")
	}
	waitState(t, again, status.Open)
	if got := d.Dials(transport.ChatPath("c1")); got != 2 {
		t.Errorf("dials = %d, want 2 (recreated)", got)
	}
}

func TestDialFailureClosesWithoutRetry(t *testing.T) {
	r, d, _ := newTestRegistry(t)
	d.Err = &transport.Error{Op: "dial", Path: transport.ChatPath("c1"), Err: errors.New("connection refused")}

	ch, _ := r.Ensure("c1")
	<-ch.Done()

	if ch.State() != status.Closed {
		t.Errorf("state = %s, want CLOSED", ch.State())
	}
	time.Sleep(50 * time.Millisecond)
	if got := d.Dials(transport.ChatPath("c1")); got != 1 {
		t.Errorf("dials = %d, want 1 (no reconnect)", got)
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}

func TestTeardownClosesEverything(t *testing.T) {
	d := transporttest.NewDialer()
	r := NewRegistry(d, nil, nil, nil)

	var chans []*Channel
	for _, id := range []string{"c1", "c2", "c3"} {
		ch, _ := r.Ensure(id)
		waitState(t, ch, status.Open)
		chans = append(chans, ch)
	}

	r.Teardown()

	for _, ch := range chans {
		if ch.State() != status.Closed {
			t.Errorf("%s state = %s, want CLOSED", ch.ID(), ch.State())
		}
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}

func TestTeardownWhileConnecting(t *testing.T) {
	d := transporttest.NewDialer()
	d.Hold = make(chan struct{})
	r := NewRegistry(d, nil, nil, nil)

	ch, _ := r.Ensure("c1")
	if ch.State() != status.Connecting {
		t.Fatalf("state = %s, want CONNECTING", ch.State())
	}
	r.Teardown()

	if ch.State() != status.Closed {
		t.Errorf("state = %s, want CLOSED", ch.State())
	}
}

func TestChannelsSnapshot(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	for _, id := range []string{"b", "a"} {
		ch, _ := r.Ensure(id)
		waitState(t, ch, status.Open)
	}
	infos := r.Channels()
	if len(infos) != 2 || infos[0].ConversationID != "a" || infos[1].ConversationID != "b" {
		t.Fatalf("Channels() = %+v", infos)
	}
	for _, info := range infos {
		if info.State != status.Open || strings.TrimSpace(info.ConnID) == "" {
			t.Errorf("info = %+v", info)
		}
	}
}
