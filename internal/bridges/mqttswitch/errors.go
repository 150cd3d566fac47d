package mqttswitch

import "errors"

// Domain errors for the MQTT switch controller.
var (
	// ErrNotStarted is returned when State or SetState is used before Authenticate.
	ErrNotStarted = errors.New("mqttswitch: not subscribed")

	// ErrCommandRejected is returned when the bridge acknowledges a command as
	// failed or timed out.
	ErrCommandRejected = errors.New("mqttswitch: command rejected by bridge")

	// ErrInvalidMessage is returned for state or ack payloads that cannot be decoded.
	ErrInvalidMessage = errors.New("mqttswitch: invalid message")
)
