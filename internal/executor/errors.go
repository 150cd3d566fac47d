package executor

import "errors"

// Domain errors for executors.
//
//	if errors.Is(err, executor.ErrAction) {
//	    // the device refused or could not be reached; the driver carries on
//	}
var (
	// ErrAction is returned when dispatching an action to a device fails.
	ErrAction = errors.New("executor: action failed")

	// ErrReload is returned when the schedule source cannot be re-read.
	// The previous schedule stays in force.
	ErrReload = errors.New("executor: reload failed")
)
