package chat

import (
	"errors"
	"testing"
	"time"

	"github.com/matheus3301/volchat/internal/status"
	"github.com/matheus3301/volchat/internal/transport"
	"github.com/matheus3301/volchat/internal/transport/transporttest"
)

func TestSendWrapsMessage(t *testing.T) {
	r, d, _ := newTestRegistry(t)
	ch, _ := r.Ensure("c1")
	waitState(t, ch, status.Open)

	if err := ch.Send("hello there"); err != nil {
		t.Fatalf("Send error = %v", err)
	}
	conn := d.Conn(transport.ChatPath("c1"))
	waitFor(t, "outbound frame", func() bool { return len(conn.Written()) == 1 })

	if got := conn.Written()[0]; got != `{"message":"hello there"}` {
		t.Errorf("frame = %s", got)
	}
}

func TestSendBlankIsNoOp(t *testing.T) {
	r, d, _ := newTestRegistry(t)
	ch, _ := r.Ensure("c1")
	waitState(t, ch, status.Open)

	for _, text := range []string{"", " ", "\t\n ", " "} {
		if err := ch.Send(text); err != nil {
			t.Errorf("Send(%q) error = %v, want nil", text, err)
		}
	}
	time.Sleep(50 * time.Millisecond)
	if got := d.Conn(transport.ChatPath("c1")).Written(); len(got) != 0 {
		t.Errorf("written = %v, want no frames", got)
	}
}

func TestSendBeforeOpen(t *testing.T) {
	d := transporttest.NewDialer()
	d.Hold = make(chan struct{})
	r := NewRegistry(d, nil, nil, nil)
	defer r.Teardown()

	ch, _ := r.Ensure("c1")
	if err := ch.Send("too early"); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Send while connecting error = %v, want ErrNotOpen", err)
	}
	if err := ch.Send("   "); err != nil {
		t.Errorf("blank Send while connecting error = %v, want nil", err)
	}
}

func TestSendAfterClose(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	ch, _ := r.Ensure("c1")
	waitState(t, ch, status.Open)

	ch.Close()
	<-ch.Done()

	if err := ch.Send("late"); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Send after close error = %v, want ErrNotOpen", err)
	}
}

func TestWriteFailureClosesChannel(t *testing.T) {
	r, d, _ := newTestRegistry(t)
	ch, _ := r.Ensure("c1")
	waitState(t, ch, status.Open)

	conn := d.Conn(transport.ChatPath("c1"))
	_ = conn.Close()
	_ = ch.Send("into the void")

	select {
	case <-ch.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("channel did not close after transport failure")
	}
	if ch.State() != status.Closed {
		t.Errorf("state = %s, want CLOSED", ch.State())
	}
}
