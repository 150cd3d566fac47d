// Package mqtt wraps the paho MQTT client for switchsched.
//
// The scheduler talks to protocol bridges over the Gray Logic topic scheme:
// it publishes switch commands on graylogic/command/{protocol}/{device} and
// follows retained device state on graylogic/state/{protocol}/{device}.
// The wrapper adds:
//
//   - connection with auto-reconnect and subscription restore
//   - a retained online/offline status topic with Last Will and Testament
//   - payload and QoS validation before publishing
//   - panic recovery around message handlers
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.ProtocolStates("fritz"), 1,
//	    func(topic string, payload []byte) error {
//	        return tracker.handleState(topic, payload)
//	    })
package mqtt
