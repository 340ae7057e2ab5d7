package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/matheus3301/volchat/internal/bus"
)

// State is the lifecycle state of one websocket connection.
type State string

const (
	Connecting State = "CONNECTING"
	Open       State = "OPEN"
	Closed     State = "CLOSED"
)

// validTransitions defines allowed state transitions. Closed is terminal.
var validTransitions = map[State][]State{
	Connecting: {Open, Closed},
	Open:       {Closed},
	Closed:     {},
}

// Machine tracks and enforces the state of a single connection.
type Machine struct {
	mu      sync.RWMutex
	key     string
	current State
	bus     *bus.Bus
}

// NewMachine creates a machine in the Connecting state. key identifies the
// connection (conversation id or notification kind) on published events.
func NewMachine(key string, b *bus.Bus) *Machine {
	return &Machine{
		key:     key,
		current: Connecting,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	if m.bus != nil {
		m.bus.Publish(bus.Event{
			Kind: bus.ChannelStateChanged,
			Key:  m.key,
			Payload: StatusChange{
				From: from,
				To:   to,
			},
		})
	}
	return nil
}

// Close moves the machine to Closed from any non-terminal state.
// It reports whether this call performed the transition.
func (m *Machine) Close() bool {
	return m.Transition(Closed) == nil
}

// StatusChange is the payload for state change events.
type StatusChange struct {
	From State
	To   State
}
