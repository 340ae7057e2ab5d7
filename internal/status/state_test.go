package status

import (
	"testing"

	"github.com/matheus3301/volchat/internal/bus"
)

func TestInitialState(t *testing.T) {
	m := NewMachine("c1", nil)
	if m.Current() != Connecting {
		t.Errorf("initial state = %s, want CONNECTING", m.Current())
	}
}

func TestValidTransitions(t *testing.T) {
	tests := []struct {
		name  string
		steps []State
	}{
		{"handshake", []State{Open}},
		{"handshake then close", []State{Open, Closed}},
		{"dial failure", []State{Closed}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine("c1", nil)
			for _, s := range tt.steps {
				if err := m.Transition(s); err != nil {
					t.Fatalf("Transition(%s) error = %v", s, err)
				}
			}
			if got, want := m.Current(), tt.steps[len(tt.steps)-1]; got != want {
				t.Errorf("state = %s, want %s", got, want)
			}
		})
	}
}

func TestClosedIsTerminal(t *testing.T) {
	m := NewMachine("c1", nil)
	if !m.Close() {
		t.Fatal("first Close() should transition")
	}
	if m.Close() {
		t.Error("second Close() should be a no-op")
	}
	for _, to := range []State{Connecting, Open} {
		if err := m.Transition(to); err == nil {
			t.Errorf("Transition(CLOSED -> %s) should fail", to)
		}
	}
}

func TestOpenCannotReturnToConnecting(t *testing.T) {
	m := NewMachine("c1", nil)
	_ = m.Transition(Open)
	if err := m.Transition(Connecting); err == nil {
		t.Error("Transition(OPEN -> CONNECTING) should fail")
	}
	if m.Current() != Open {
		t.Errorf("state = %s, want OPEN (unchanged)", m.Current())
	}
}

func TestTransitionEmitsEvent(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("channel.", 10)
	defer unsub()

	m := NewMachine("c9", b)
	if err := m.Transition(Open); err != nil {
		t.Fatal(err)
	}

	evt := <-ch
	if evt.Kind != bus.ChannelStateChanged {
		t.Errorf("event kind = %q, want %s", evt.Kind, bus.ChannelStateChanged)
	}
	if evt.Key != "c9" {
		t.Errorf("event key = %q, want c9", evt.Key)
	}
	change, ok := evt.Payload.(StatusChange)
	if !ok {
		t.Fatalf("payload type = %T, want StatusChange", evt.Payload)
	}
	if change.From != Connecting || change.To != Open {
		t.Errorf("change = %v -> %v, want CONNECTING -> OPEN", change.From, change.To)
	}
}
