package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrAuth) {
//	    // credentials rejected; the process should exit
//	}
var (
	// ErrAuth is returned when the controller cannot establish an authenticated session.
	ErrAuth = errors.New("device: authentication failed")

	// ErrDeviceNotFound is returned when the controller does not know the device ID.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrStateUnknown is returned when the device state cannot be determined,
	// for example because the device is not connected.
	ErrStateUnknown = errors.New("device: state unknown")

	// ErrInvalidID is returned when a device ID is empty or contains control characters.
	ErrInvalidID = errors.New("device: invalid id")

	// ErrNotSupported is returned when a controller lacks an optional capability.
	ErrNotSupported = errors.New("device: operation not supported")
)
