// Package mqttswitch implements device.Controller on top of the Gray Logic
// bridge topics, so any bridge that accepts on/off commands over MQTT (KNX,
// DALI, a FRITZ!Box bridge) can be driven by a schedule.
//
// Commands are published to graylogic/command/{protocol}/{device}. Device
// state is learned from the retained messages on graylogic/state/{protocol}/+.
// When an ack timeout is configured, SetState also waits for the bridge's
// acknowledgement on graylogic/ack/{protocol}/{device}.
package mqttswitch
