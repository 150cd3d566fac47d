package mqttswitch

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// commandSource identifies the scheduler in command messages.
const commandSource = "schedule"

// CommandMessage asks a bridge to switch a device.
// Topic: graylogic/command/{protocol}/{device}
type CommandMessage struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	DeviceID   string         `json:"device_id"`
	Command    string         `json:"command"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Source     string         `json:"source"`
}

// newCommandMessage builds an on/off command with a fresh correlation ID.
func newCommandMessage(deviceID string, on bool, now time.Time) CommandMessage {
	cmd := "off"
	if on {
		cmd = "on"
	}
	return CommandMessage{
		ID:         uuid.NewString(),
		Timestamp:  now.UTC(),
		DeviceID:   deviceID,
		Command:    cmd,
		Parameters: map[string]any{"on": on},
		Source:     commandSource,
	}
}

// AckStatus is the outcome a bridge reports for a command.
type AckStatus string

// Ack statuses sent by bridges.
const (
	AckAccepted AckStatus = "accepted"
	AckQueued   AckStatus = "queued"
	AckFailed   AckStatus = "failed"
	AckTimeout  AckStatus = "timeout"
)

// AckMessage acknowledges a command.
// Topic: graylogic/ack/{protocol}/{device}
type AckMessage struct {
	CommandID string    `json:"command_id"`
	Timestamp time.Time `json:"timestamp"`
	DeviceID  string    `json:"device_id"`
	Status    AckStatus `json:"status"`
	Error     *AckError `json:"error,omitempty"`
}

// AckError carries the bridge's failure details.
type AckError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// failure returns nil for accepted/queued acks.
func (a AckMessage) failure() error {
	switch a.Status {
	case AckAccepted, AckQueued:
		return nil
	}
	if a.Error != nil {
		return fmt.Errorf("%w: %s: %s (%s)", ErrCommandRejected, a.Status, a.Error.Message, a.Error.Code)
	}
	return fmt.Errorf("%w: %s", ErrCommandRejected, a.Status)
}

// StateMessage is the retained state a bridge publishes for a device.
// Topic: graylogic/state/{protocol}/{device}
type StateMessage struct {
	DeviceID  string         `json:"device_id"`
	Timestamp time.Time      `json:"timestamp"`
	State     map[string]any `json:"state"`
}

// on extracts the boolean "on" field of the state, if present.
func (m StateMessage) on() (bool, bool) {
	v, ok := m.State["on"].(bool)
	return v, ok
}
