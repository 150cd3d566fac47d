// Package device defines the device-control contract used by schedule executors.
//
// A Controller switches a single outlet on or off and reports what it
// currently observes. Bridges implement it for a concrete backend:
//
//   - bridges/fritz: FRITZ!Box AHA-HTTP smart plugs
//   - bridges/mqttswitch: any device reachable through the MQTT command/state topics
//
// Tracker wraps a Controller and keeps the last observed or commanded state of
// every device it has touched, for the status API.
//
// # Usage
//
//	ctrl := fritz.New(cfg)
//	tracked := device.NewTracker(ctrl)
//	tracked.SetLogger(log)
//
//	if err := tracked.Authenticate(ctx); err != nil {
//	    return err // errors.Is(err, device.ErrAuth)
//	}
//	if err := tracked.SetState(ctx, "087610 123456", device.StateOn); err != nil {
//	    return err
//	}
package device
