package main

import (
	"context"
	"fmt"

	"github.com/nerrad567/switchsched/internal/bridges/fritz"
	"github.com/nerrad567/switchsched/internal/bridges/mqttswitch"
	"github.com/nerrad567/switchsched/internal/device"
	"github.com/nerrad567/switchsched/internal/infrastructure/config"
	"github.com/nerrad567/switchsched/internal/infrastructure/logging"
	"github.com/nerrad567/switchsched/internal/infrastructure/mqtt"
)

// openController builds the device controller selected by controller.type,
// wraps it in a Tracker and authenticates.
//
// Returns:
//   - *device.Tracker: authenticated controller; nil for dryrun
//   - func(): releases connections; always non-nil
//   - error: wrapping device.ErrAuth (or mqtt.ErrNotAuthorized) on rejected credentials
func openController(ctx context.Context, cfg *config.Config, log *logging.Logger) (*device.Tracker, func(), error) {
	noop := func() {}

	var (
		ctrl    device.Controller
		cleanup = noop
	)

	switch cfg.Controller.Type {
	case config.ControllerDryRun:
		return nil, noop, nil

	case config.ControllerFritz:
		client, err := fritz.New(fritz.Config{
			BaseURL:  cfg.Fritz.URL,
			Username: cfg.Fritz.Username,
			Password: cfg.Fritz.Password,
			Timeout:  cfg.GetFritzTimeout(),
		})
		if err != nil {
			return nil, noop, err
		}
		client.SetLogger(log.With("component", "fritz"))
		ctrl = client

	case config.ControllerMQTT:
		client, err := mqtt.Connect(cfg.MQTT)
		if err != nil {
			return nil, noop, fmt.Errorf("connecting to MQTT: %w", err)
		}
		client.SetLogger(log.With("component", "mqtt"))
		client.SetOnConnect(func() { log.Info("MQTT connected") })
		client.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })
		cleanup = func() {
			if closeErr := client.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		// #nosec G115 -- qos validated to 0..2
		ctrl = mqttswitch.New(client, mqttswitch.Options{
			Protocol:     cfg.MQTT.Protocol,
			QoS:          byte(cfg.MQTT.QoS),
			StateTimeout: cfg.GetStateTimeout(),
			AckTimeout:   cfg.GetAckTimeout(),
			Logger:       log.With("component", "mqttswitch"),
		})

	default:
		return nil, noop, fmt.Errorf("unknown controller type %q", cfg.Controller.Type)
	}

	tracker := device.NewTracker(ctrl)
	tracker.SetLogger(log.With("component", "device"))

	if err := tracker.Authenticate(ctx); err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("authenticating with %s controller: %w", cfg.Controller.Type, err)
	}
	log.Info("controller ready", "type", cfg.Controller.Type)

	return tracker, cleanup, nil
}
