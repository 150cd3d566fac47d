// switchsched drives smart outlets through a timed on/off schedule file.
//
// The schedule is a plain text file of "YYYY-MM-DD HH:MM:SS <device> on|off"
// lines. On start the last due action is re-applied to every device, then
// each following entry is executed at its wall-clock time. Edits to the file
// are picked up without a restart.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/switchsched/internal/device"
	"github.com/nerrad567/switchsched/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Process exit statuses.
const (
	exitOK      = 0
	exitFailure = 1
	exitAuth    = 2
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := newRootCmd().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	cancel()
	os.Exit(exitCode(err))
}

// exitCode maps a command error to the process exit status. Rejected
// credentials, whether by the FRITZ!Box or the MQTT broker, exit 2.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, device.ErrAuth), errors.Is(err, mqtt.ErrNotAuthorized):
		return exitAuth
	default:
		return exitFailure
	}
}
