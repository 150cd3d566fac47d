package mqttswitch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/switchsched/internal/device"
	"github.com/nerrad567/switchsched/internal/infrastructure/mqtt"
)

// DefaultStateTimeout is used when Options.StateTimeout is zero.
const DefaultStateTimeout = 5 * time.Second

// Client is the subset of *mqtt.Client the controller needs.
// It allows tests to substitute an in-memory broker.
type Client interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Logger defines the logging interface used by the controller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configures a Controller.
type Options struct {
	// Protocol is the {protocol} topic level, e.g. "fritz" or "knx".
	Protocol string

	// QoS for commands and subscriptions.
	QoS byte

	// StateTimeout bounds how long State waits for a retained state message.
	StateTimeout time.Duration

	// AckTimeout, when positive, makes SetState wait for the bridge's ack.
	AckTimeout time.Duration

	Logger Logger
}

type observed struct {
	on bool
	at time.Time
}

// Controller drives devices through MQTT bridge topics.
//
// Thread Safety: All methods are safe for concurrent use. Message handlers
// run on paho goroutines and only touch state under mu.
type Controller struct {
	client Client
	opts   Options
	logger Logger
	now    func() time.Time

	mu         sync.Mutex
	subscribed bool
	states     map[string]observed
	changed    chan struct{} // closed and replaced on every state update
	acks       map[string]chan AckMessage
}

var _ device.Controller = (*Controller)(nil)

// New creates a controller. Call Authenticate before use.
func New(client Client, opts Options) *Controller {
	if opts.StateTimeout <= 0 {
		opts.StateTimeout = DefaultStateTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	return &Controller{
		client:  client,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
		states:  make(map[string]observed),
		changed: make(chan struct{}),
		acks:    make(map[string]chan AckMessage),
	}
}

// Authenticate subscribes to the state (and ack) topics of the protocol.
// The broker session itself is authenticated when the MQTT client connects.
func (c *Controller) Authenticate(_ context.Context) error {
	c.mu.Lock()
	if c.subscribed {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	topics := mqtt.Topics{}
	if err := c.client.Subscribe(topics.ProtocolStates(c.opts.Protocol), c.opts.QoS, c.handleState); err != nil {
		return fmt.Errorf("subscribing to %s state: %w", c.opts.Protocol, err)
	}
	if c.opts.AckTimeout > 0 {
		if err := c.client.Subscribe(topics.ProtocolAcks(c.opts.Protocol), c.opts.QoS, c.handleAck); err != nil {
			return fmt.Errorf("subscribing to %s acks: %w", c.opts.Protocol, err)
		}
	}

	c.mu.Lock()
	c.subscribed = true
	c.mu.Unlock()

	c.logger.Info("mqtt switch controller subscribed", "protocol", c.opts.Protocol)
	return nil
}

// State returns the last state the bridge published for id, waiting up to
// StateTimeout for the first message.
func (c *Controller) State(ctx context.Context, id string) (device.State, error) {
	timer := time.NewTimer(c.opts.StateTimeout)
	defer timer.Stop()

	for {
		c.mu.Lock()
		if !c.subscribed {
			c.mu.Unlock()
			return device.StateUnknown, ErrNotStarted
		}
		obs, ok := c.states[id]
		changed := c.changed
		c.mu.Unlock()

		if ok {
			return device.StateOf(obs.on), nil
		}

		select {
		case <-changed:
		case <-timer.C:
			return device.StateUnknown, fmt.Errorf("no state for %q within %v: %w", id, c.opts.StateTimeout, device.ErrStateUnknown)
		case <-ctx.Done():
			return device.StateUnknown, ctx.Err()
		}
	}
}

// SetState publishes an on/off command for id.
func (c *Controller) SetState(ctx context.Context, id string, desired device.State) error {
	if !desired.Known() {
		return fmt.Errorf("setting %q to %s: %w", id, desired, device.ErrStateUnknown)
	}
	if !mqtt.ValidTopicLevel(id) {
		return fmt.Errorf("%w: %q cannot be used as an MQTT topic level", device.ErrInvalidID, id)
	}

	c.mu.Lock()
	subscribed := c.subscribed
	c.mu.Unlock()
	if !subscribed {
		return ErrNotStarted
	}

	msg := newCommandMessage(id, desired == device.StateOn, c.now())
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding command: %w", err)
	}

	var ack chan AckMessage
	if c.opts.AckTimeout > 0 {
		ack = make(chan AckMessage, 1)
		c.mu.Lock()
		c.acks[msg.ID] = ack
		c.mu.Unlock()
		defer func() {
			c.mu.Lock()
			delete(c.acks, msg.ID)
			c.mu.Unlock()
		}()
	}

	topic := mqtt.Topics{}.BridgeCommand(c.opts.Protocol, id)
	if err := c.client.Publish(topic, payload, c.opts.QoS, false); err != nil {
		return fmt.Errorf("publishing command for %q: %w", id, err)
	}
	c.logger.Debug("published switch command", "device_id", id, "command", msg.Command, "command_id", msg.ID)

	if ack == nil {
		return nil
	}
	return c.awaitAck(ctx, id, msg.ID, ack)
}

func (c *Controller) awaitAck(ctx context.Context, id, commandID string, ack <-chan AckMessage) error {
	timer := time.NewTimer(c.opts.AckTimeout)
	defer timer.Stop()

	select {
	case a := <-ack:
		return a.failure()
	case <-timer.C:
		// Bridges are not required to ack; the periodic reconcile catches misses.
		c.logger.Warn("no ack for switch command", "device_id", id, "command_id", commandID)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) handleState(topic string, payload []byte) error {
	id, ok := mqtt.DeviceFromTopic(topic)
	if !ok {
		return fmt.Errorf("%w: topic %q", ErrInvalidMessage, topic)
	}

	var msg StateMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("%w: state for %q: %w", ErrInvalidMessage, id, err)
	}
	on, ok := msg.on()
	if !ok {
		// Not a switchable device; nothing to track.
		return nil
	}

	at := msg.Timestamp
	if at.IsZero() {
		at = c.now()
	}

	c.mu.Lock()
	c.states[id] = observed{on: on, at: at}
	close(c.changed)
	c.changed = make(chan struct{})
	c.mu.Unlock()

	c.logger.Debug("device state received", "device_id", id, "on", on)
	return nil
}

func (c *Controller) handleAck(_ string, payload []byte) error {
	var msg AckMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("%w: ack: %w", ErrInvalidMessage, err)
	}

	c.mu.Lock()
	ch, ok := c.acks[msg.CommandID]
	c.mu.Unlock()
	if !ok {
		return nil
	}

	select {
	case ch <- msg:
	default:
	}
	return nil
}
