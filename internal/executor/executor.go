package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/switchsched/internal/device"
	"github.com/nerrad567/switchsched/internal/schedule"
)

// Executor is the contract between the scheduling driver and whatever
// carries out schedule entries.
type Executor interface {
	// Apply carries out one entry. at is the moment the driver applied it,
	// which may be later than entry.Time.
	Apply(ctx context.Context, entry schedule.Entry, at time.Time) error

	// ReconcileLastAction makes the world match the last entry at or before now.
	ReconcileLastAction(ctx context.Context) error

	// CurrentSchedule returns the schedule in force.
	CurrentSchedule() *schedule.Schedule

	// Reload re-reads the schedule source. On failure the previous schedule
	// stays in force and the error wraps ErrReload.
	Reload() error
}

// Logger defines the logging interface used by executors.
// Compatible with logging.Logger and slog.Logger.
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

// Options configures Switch and DryRun executors.
type Options struct {
	// Device restricts the executor to one device ID. Empty means every
	// device named in the schedule.
	Device string

	// Location is used to interpret timestamps on reload (nil = time.Local).
	Location *time.Location

	// Clock returns the current time (nil = time.Now).
	Clock func() time.Time

	Logger Logger
}

// binding holds the schedule an executor is bound to and the source it
// reloads from.
type binding struct {
	sched  *schedule.Schedule
	source string
	loc    *time.Location
	filter string
	now    func() time.Time
	logger Logger
}

func newBinding(sched *schedule.Schedule, opts Options) binding {
	b := binding{
		sched:  sched,
		source: sched.Source(),
		loc:    opts.Location,
		filter: opts.Device,
		now:    opts.Clock,
		logger: opts.Logger,
	}
	if b.now == nil {
		b.now = time.Now
	}
	if b.logger == nil {
		b.logger = noopLogger{}
	}
	return b
}

// CurrentSchedule returns the schedule in force.
func (b *binding) CurrentSchedule() *schedule.Schedule {
	return b.sched
}

// Reload re-reads the source and swaps the schedule in on success.
func (b *binding) Reload() error {
	next, err := schedule.Load(b.source, b.loc)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReload, err)
	}
	if !next.Equal(b.sched) {
		b.logger.Info("schedule changed", "source", b.source, "entries", next.Len())
	}
	b.sched = next
	return nil
}

// targets returns the devices reconciliation should cover.
func (b *binding) targets() []string {
	if b.filter != "" {
		return []string{b.filter}
	}
	return b.sched.Devices()
}

// skips reports whether entry is outside this executor's device filter.
func (b *binding) skips(entry schedule.Entry) bool {
	return b.filter != "" && entry.DeviceID != b.filter
}

// desiredState maps an action to the device state it asks for.
func desiredState(a schedule.Action) (device.State, bool) {
	switch a.Kind() {
	case schedule.TurnOn:
		return device.StateOn, true
	case schedule.TurnOff:
		return device.StateOff, true
	default:
		return device.StateUnknown, false
	}
}
