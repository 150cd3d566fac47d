package mqtt

import (
	"fmt"
	"strings"
)

// TopicPrefix is the root of the bridge topic scheme:
// graylogic/{category}/{protocol}/{device}.
const TopicPrefix = "graylogic"

// Topics builds the topics the scheduler publishes and subscribes to.
//
//	topics := mqtt.Topics{}
//	topics.BridgeCommand("fritz", "087610 123456")
//	// graylogic/command/fritz/087610 123456
type Topics struct{}

// BridgeCommand is where switch commands for one device are published.
func (Topics) BridgeCommand(protocol, deviceID string) string {
	return fmt.Sprintf("%s/command/%s/%s", TopicPrefix, protocol, deviceID)
}

// BridgeState is where a bridge publishes the retained state of one device.
func (Topics) BridgeState(protocol, deviceID string) string {
	return fmt.Sprintf("%s/state/%s/%s", TopicPrefix, protocol, deviceID)
}

// BridgeAck is where a bridge acknowledges commands for one device.
func (Topics) BridgeAck(protocol, deviceID string) string {
	return fmt.Sprintf("%s/ack/%s/%s", TopicPrefix, protocol, deviceID)
}

// ProtocolAcks matches the ack topics of every device on one protocol.
//
// Pattern: graylogic/ack/{protocol}/+
func (Topics) ProtocolAcks(protocol string) string {
	return fmt.Sprintf("%s/ack/%s/+", TopicPrefix, protocol)
}

// ProtocolStates matches the state topics of every device on one protocol.
//
// Pattern: graylogic/state/{protocol}/+
func (Topics) ProtocolStates(protocol string) string {
	return fmt.Sprintf("%s/state/%s/+", TopicPrefix, protocol)
}

// SchedulerStatus is the retained online/offline topic of one scheduler instance.
//
// Example: graylogic/scheduler/switchsched/status
func (Topics) SchedulerStatus(clientID string) string {
	return fmt.Sprintf("%s/scheduler/%s/status", TopicPrefix, clientID)
}

// DeviceFromTopic returns the last topic level, which carries the device ID
// on command and state topics.
func DeviceFromTopic(topic string) (string, bool) {
	i := strings.LastIndexByte(topic, '/')
	if i < 0 || i == len(topic)-1 {
		return "", false
	}
	return topic[i+1:], true
}

// validateTopic rejects topics that cannot be published to.
func validateTopic(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if strings.ContainsAny(topic, "+#") {
		return fmt.Errorf("%w: wildcards are not allowed when publishing: %q", ErrInvalidTopic, topic)
	}
	return nil
}

// ValidTopicLevel reports whether s can be used as a single topic level.
func ValidTopicLevel(s string) bool {
	return s != "" && !strings.ContainsAny(s, "/+#\x00")
}
