package schedule

import "strings"

// Kind identifies what an Action does to a device.
type Kind int

const (
	// Unrecognized is an action token other than on/off. It loads but is never dispatched.
	Unrecognized Kind = iota
	// TurnOn switches the device on.
	TurnOn
	// TurnOff switches the device off.
	TurnOff
)

// String returns a readable kind name for logs.
func (k Kind) String() string {
	switch k {
	case TurnOn:
		return "turn_on"
	case TurnOff:
		return "turn_off"
	default:
		return "unrecognized"
	}
}

// Action is the tagged action of a schedule entry.
//
// For Unrecognized actions the original token is retained so the entry can be
// written back unchanged. Action values are comparable with ==.
type Action struct {
	kind  Kind
	token string
}

// Predefined actions.
var (
	ActionOn  = Action{kind: TurnOn}
	ActionOff = Action{kind: TurnOff}
)

// ParseAction maps an action token to an Action. It never fails: unknown
// tokens become Unrecognized.
func ParseAction(token string) Action {
	switch strings.ToLower(token) {
	case "on":
		return ActionOn
	case "off":
		return ActionOff
	default:
		return Action{kind: Unrecognized, token: token}
	}
}

// Kind returns the action kind.
func (a Action) Kind() Kind {
	return a.kind
}

// IsRecognized reports whether the action can be dispatched to a device.
func (a Action) IsRecognized() bool {
	return a.kind != Unrecognized
}

// String returns the action token as it appears in a schedule line.
func (a Action) String() string {
	switch a.kind {
	case TurnOn:
		return "on"
	case TurnOff:
		return "off"
	default:
		return a.token
	}
}
