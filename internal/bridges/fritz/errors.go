package fritz

import "errors"

// Domain errors for the FRITZ!Box bridge.
var (
	// ErrForbidden is returned when the box rejects a request with HTTP 403
	// even after a fresh login.
	ErrForbidden = errors.New("fritz: forbidden")

	// ErrUnexpectedResponse is returned when the box answers with a status or
	// body the client cannot interpret.
	ErrUnexpectedResponse = errors.New("fritz: unexpected response")

	// ErrLoginBlocked is returned when the box enforces a login delay after
	// failed attempts.
	ErrLoginBlocked = errors.New("fritz: login blocked")
)
