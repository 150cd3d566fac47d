package driver

import "errors"

// ErrStartup is returned by Start when the initial reconciliation fails.
// The underlying cause stays in the chain, so errors.Is(err, device.ErrAuth)
// still works.
var ErrStartup = errors.New("driver: startup failed")
