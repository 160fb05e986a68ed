// Package status tracks the live connection state of the WhatsApp session.
package status

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/vhqueiroz/stickerd/internal/bus"
)

// State is a session connection state.
type State string

const (
	Disconnected State = "disconnected"
	Connecting   State = "connecting"
	Connected    State = "connected"
)

// validTransitions defines allowed state transitions. Connecting loops on
// itself: a transient close while connecting stays in connecting until the
// scheduled reconnect resolves it.
var validTransitions = map[State][]State{
	Disconnected: {Connecting},
	Connecting:   {Connecting, Connected, Disconnected},
	Connected:    {Connecting, Disconnected},
}

// Machine tracks and enforces session state transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a machine starting in Disconnected.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Disconnected,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns an error if the
// transition is not allowed.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !slices.Contains(validTransitions[m.current], to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	if m.bus != nil {
		m.bus.Publish(bus.Event{
			Kind:      "session.state_changed",
			Timestamp: time.Now(),
			Payload:   Change{From: from, To: to},
		})
	}
	return nil
}

// Change is the payload for state change events.
type Change struct {
	From State
	To   State
}
