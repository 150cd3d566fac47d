package device

import (
	"context"
	"time"
)

// State is the switch state of a device.
type State int

// Switch states.
const (
	StateUnknown State = iota
	StateOff
	StateOn
)

// StateOf maps a boolean "on" flag to a State.
func StateOf(on bool) State {
	if on {
		return StateOn
	}
	return StateOff
}

// String returns "on", "off" or "unknown".
func (s State) String() string {
	switch s {
	case StateOn:
		return "on"
	case StateOff:
		return "off"
	default:
		return "unknown"
	}
}

// Known reports whether the state is on or off.
func (s State) Known() bool {
	return s == StateOn || s == StateOff
}

// MarshalText implements encoding.TextMarshaler so states appear as strings in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Controller switches devices and reports their observed state.
//
// Implementations must be safe for sequential use from one goroutine; the
// scheduling driver never calls a Controller concurrently.
type Controller interface {
	// Authenticate establishes a session. Failures wrap ErrAuth.
	Authenticate(ctx context.Context) error

	// State returns the observed state of the device.
	State(ctx context.Context, id string) (State, error)

	// SetState drives the device to the desired state.
	SetState(ctx context.Context, id string, desired State) error
}

// Lister is implemented by controllers that can enumerate their devices.
type Lister interface {
	List(ctx context.Context) ([]Info, error)
}

// Toggler is implemented by controllers with a native toggle command.
type Toggler interface {
	Toggle(ctx context.Context, id string) error
}

// Info describes a device as reported by its controller.
type Info struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Product string `json:"product,omitempty"`
	Present bool   `json:"present"`
	State   State  `json:"state"`
}

// Record is the last thing a Tracker learned about a device.
type Record struct {
	ID        string    `json:"id"`
	State     State     `json:"state"`
	Commanded bool      `json:"commanded"`
	UpdatedAt time.Time `json:"updated_at"`
	Error     string    `json:"error,omitempty"`
}
